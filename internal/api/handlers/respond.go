package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/chartsignal/internal/contracts"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(text))
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondFailure maps the error taxonomy onto HTTP statuses
func respondFailure(w http.ResponseWriter, err error) {
	respondJSON(w, statusFor(err), map[string]string{
		"error":  err.Error(),
		"reason": contracts.FailureReason(err),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, contracts.ErrInvalidSymbol), errors.Is(err, contracts.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, contracts.ErrSymbolNotFound), errors.Is(err, contracts.ErrSignalNotFound):
		return http.StatusNotFound
	case errors.Is(err, contracts.ErrInvalidSeries), errors.Is(err, contracts.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, contracts.ErrDataUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
