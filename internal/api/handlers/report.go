package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/wonny/chartsignal/internal/contracts"
	"github.com/wonny/chartsignal/internal/pipeline"
	"github.com/wonny/chartsignal/pkg/logger"
)

// BatchRunner runs a batch and delivers its summary
type BatchRunner interface {
	RunBatch(ctx context.Context, symbols []string) *pipeline.Report
	Deliver(ctx context.Context, text string) error
}

// ReportHandler triggers on-demand batch reports
type ReportHandler struct {
	runner    BatchRunner // results only
	notifying BatchRunner // delivers each result and the summary
	watchlist contracts.WatchlistStore
	logger    *logger.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(runner, notifying BatchRunner, watchlist contracts.WatchlistStore, log *logger.Logger) *ReportHandler {
	return &ReportHandler{
		runner:    runner,
		notifying: notifying,
		watchlist: watchlist,
		logger:    log,
	}
}

// RunReportRequest represents a report request; empty Symbols means the watchlist
type RunReportRequest struct {
	Symbols []string `json:"symbols"`
	Notify  bool     `json:"notify"`
}

// RunReportResponse represents a finished report
type RunReportResponse struct {
	*pipeline.Report
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Summary   string `json:"summary"`
}

// RunReport runs a batch synchronously
// POST /api/reports/run
func (h *ReportHandler) RunReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RunReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	symbols := req.Symbols
	if len(symbols) == 0 {
		var err error
		symbols, err = h.watchlist.List(ctx)
		if err != nil {
			h.logger.WithError(err).Error("Failed to read watchlist")
			respondError(w, http.StatusInternalServerError, "Failed to read watchlist")
			return
		}
	}
	if len(symbols) == 0 {
		respondError(w, http.StatusBadRequest, "No symbols to analyze")
		return
	}

	runner := h.runner
	if req.Notify {
		runner = h.notifying
	}

	report := runner.RunBatch(ctx, symbols)
	summary := pipeline.Summary(report)

	if req.Notify {
		if err := runner.Deliver(ctx, summary); err != nil {
			h.logger.WithError(err).WithField("run_id", report.RunID).Warn("Failed to deliver summary")
		}
	}

	respondJSON(w, http.StatusOK, RunReportResponse{
		Report:    report,
		Succeeded: report.Succeeded(),
		Failed:    report.Failed(),
		Summary:   summary,
	})
}
