package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/chartsignal/internal/contracts"
	"github.com/wonny/chartsignal/internal/narrative"
	"github.com/wonny/chartsignal/internal/signalcache"
	"github.com/wonny/chartsignal/pkg/logger"
)

// Analyzer produces a fresh signal for one symbol
type Analyzer interface {
	Analyze(ctx context.Context, symbol string) (*contracts.Signal, error)
	AnalyzePeriod(ctx context.Context, symbol, period string) (*contracts.Signal, error)
}

const (
	defaultHistoryLimit = 30
	maxHistoryLimit     = 500
)

// SignalHandler serves per-symbol signals
// ⭐ SSOT: 시그널 API 핸들러는 이 구조체에서만
type SignalHandler struct {
	analyzer Analyzer
	cache    *signalcache.Cache
	store    contracts.SignalStore
	logger   *logger.Logger
}

// NewSignalHandler creates a new signal handler. cache and store may be nil.
func NewSignalHandler(analyzer Analyzer, cache *signalcache.Cache, store contracts.SignalStore, log *logger.Logger) *SignalHandler {
	return &SignalHandler{
		analyzer: analyzer,
		cache:    cache,
		store:    store,
		logger:   log,
	}
}

// GetSignal returns the current signal for a symbol
// GET /api/signals/{symbol}?period=1y&format=text
func (h *SignalHandler) GetSignal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	symbol := contracts.NormalizeSymbol(mux.Vars(r)["symbol"])
	if err := contracts.ValidateSymbol(symbol); err != nil {
		respondFailure(w, err)
		return
	}

	period := r.URL.Query().Get("period")
	if period != "" {
		if _, err := contracts.ParsePeriod(period); err != nil {
			respondFailure(w, err)
			return
		}
	}

	var (
		sig *contracts.Signal
		err error
	)
	// 기본 기간 요청만 캐시 사용
	if period == "" && h.cache != nil {
		sig, _ = h.cache.GetFresh(symbol)
	}
	if sig == nil {
		if period == "" {
			sig, err = h.analyzer.Analyze(ctx, symbol)
		} else {
			sig, err = h.analyzer.AnalyzePeriod(ctx, symbol, period)
		}
	}
	if err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Warn("Failed to analyze symbol")
		respondFailure(w, err)
		return
	}

	if r.URL.Query().Get("format") == "text" {
		respondText(w, http.StatusOK, narrative.Format(sig))
		return
	}
	respondJSON(w, http.StatusOK, sig)
}

// GetCached returns every cached signal with cache statistics
// GET /api/signals
func (h *SignalHandler) GetCached(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"signals": map[string]signalcache.Entry{},
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"signals": h.cache.GetAll(),
		"stats":   h.cache.Stats(),
	})
}

// GetHistory returns stored signals for a symbol, newest first
// GET /api/signals/{symbol}/history?limit=30
func (h *SignalHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, "Signal history requires a database")
		return
	}

	symbol := contracts.NormalizeSymbol(mux.Vars(r)["symbol"])
	if err := contracts.ValidateSymbol(symbol); err != nil {
		respondFailure(w, err)
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxHistoryLimit {
			respondError(w, http.StatusBadRequest, "Invalid limit (1-500)")
			return
		}
		limit = n
	}

	signals, err := h.store.History(r.Context(), symbol, limit)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to get signal history")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve signal history")
		return
	}
	if signals == nil {
		signals = []*contracts.Signal{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":  symbol,
		"count":   len(signals),
		"signals": signals,
	})
}
