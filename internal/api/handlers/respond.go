// Package handlers holds the HTTP API handlers.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/valuecompass/compass/internal/contracts"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondDomainError maps domain error types onto HTTP statuses.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case contracts.IsNotFound(err):
		respondError(w, http.StatusNotFound, err.Error())
	case contracts.IsValidation(err):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case contracts.IsUpstream(err):
		respondError(w, http.StatusBadGateway, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}
