package handlers

import (
	"net/http"

	"github.com/valuecompass/compass/internal/alerting"
	"github.com/valuecompass/compass/internal/contracts"
	"github.com/valuecompass/compass/pkg/logger"
)

// AlertsHandler exposes on-demand alert evaluation passes.
type AlertsHandler struct {
	evaluator *alerting.Evaluator
	logger    *logger.Logger
}

// NewAlertsHandler creates an alerts handler.
func NewAlertsHandler(evaluator *alerting.Evaluator, log *logger.Logger) *AlertsHandler {
	return &AlertsHandler{
		evaluator: evaluator,
		logger:    log,
	}
}

// CheckPrice runs a price and percentage-change alert pass immediately.
// POST /api/alerts/check/price
func (h *AlertsHandler) CheckPrice(w http.ResponseWriter, r *http.Request) {
	events, err := h.evaluator.CheckPriceAlerts(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("price alert pass failed")
		respondDomainError(w, err)
		return
	}
	respondEvents(w, events)
}

// CheckValuation runs a valuation-score alert pass immediately.
// POST /api/alerts/check/valuation
func (h *AlertsHandler) CheckValuation(w http.ResponseWriter, r *http.Request) {
	events, err := h.evaluator.CheckValuationAlerts(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("valuation alert pass failed")
		respondDomainError(w, err)
		return
	}
	respondEvents(w, events)
}

func respondEvents(w http.ResponseWriter, events []contracts.TriggerEvent) {
	if events == nil {
		events = []contracts.TriggerEvent{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"triggered": len(events),
		"events":    events,
	})
}
