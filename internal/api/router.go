// Package api wires the HTTP surface: routing, middleware, and the server
// lifecycle.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/valuecompass/compass/internal/api/handlers"
	"github.com/valuecompass/compass/internal/api/ws"
	"github.com/valuecompass/compass/internal/scheduler"
	"github.com/valuecompass/compass/pkg/logger"
)

// NewRouter creates and configures the HTTP router. sched may be nil when
// the process runs without an embedded scheduler.
func NewRouter(
	valuationHandler *handlers.ValuationHandler,
	alertsHandler *handlers.AlertsHandler,
	hub *ws.Hub,
	sched *scheduler.Scheduler,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", healthCheckHandler).Methods("GET")
	r.HandleFunc("/ws/alerts", hub.Handler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/valuation/score", valuationHandler.Score).Methods("POST")
	api.HandleFunc("/valuation/score/batch", valuationHandler.ScoreBatch).Methods("POST")
	api.HandleFunc("/valuation/rules", valuationHandler.ListRules).Methods("GET")
	api.HandleFunc("/valuation/rules/{id:[0-9]+}", valuationHandler.GetRule).Methods("GET")
	api.HandleFunc("/valuation/{ticker}/scores", valuationHandler.ScoreHistory).Methods("GET")

	api.HandleFunc("/alerts/check/price", alertsHandler.CheckPrice).Methods("POST")
	api.HandleFunc("/alerts/check/valuation", alertsHandler.CheckValuation).Methods("POST")

	if sched != nil {
		api.HandleFunc("/jobs", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(sched.Stats())
		}).Methods("GET")
	}

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "compass-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
