package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/chartsignal/internal/contracts"
	"github.com/wonny/chartsignal/pkg/logger"
)

// WatchlistHandler manages the analyzed symbol set
type WatchlistHandler struct {
	store  contracts.WatchlistStore
	logger *logger.Logger
}

// NewWatchlistHandler creates a new watchlist handler
func NewWatchlistHandler(store contracts.WatchlistStore, log *logger.Logger) *WatchlistHandler {
	return &WatchlistHandler{
		store:  store,
		logger: log,
	}
}

// AddWatchlistRequest represents a watchlist add request
type AddWatchlistRequest struct {
	Symbol string `json:"symbol"`
}

// GetWatchlist returns all symbols
// GET /api/watchlist
func (h *WatchlistHandler) GetWatchlist(w http.ResponseWriter, r *http.Request) {
	symbols, err := h.store.List(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to get watchlist")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve watchlist")
		return
	}
	if symbols == nil {
		symbols = []string{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(symbols),
		"symbols": symbols,
	})
}

// AddSymbol adds a symbol; 201 when added, 200 when already present
// POST /api/watchlist
func (h *WatchlistHandler) AddSymbol(w http.ResponseWriter, r *http.Request) {
	var req AddWatchlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	symbol := contracts.NormalizeSymbol(req.Symbol)
	if err := contracts.ValidateSymbol(symbol); err != nil {
		respondFailure(w, err)
		return
	}

	added, err := h.store.Add(r.Context(), symbol)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to add watchlist symbol")
		respondError(w, http.StatusInternalServerError, "Failed to add symbol")
		return
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	respondJSON(w, status, map[string]interface{}{
		"symbol": symbol,
		"added":  added,
	})
}

// RemoveSymbol removes a symbol; removing an absent symbol is not an error
// DELETE /api/watchlist/{symbol}
func (h *WatchlistHandler) RemoveSymbol(w http.ResponseWriter, r *http.Request) {
	symbol := contracts.NormalizeSymbol(mux.Vars(r)["symbol"])
	if err := contracts.ValidateSymbol(symbol); err != nil {
		respondFailure(w, err)
		return
	}

	removed, err := h.store.Remove(r.Context(), symbol)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to remove watchlist symbol")
		respondError(w, http.StatusInternalServerError, "Failed to remove symbol")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":  symbol,
		"removed": removed,
	})
}
