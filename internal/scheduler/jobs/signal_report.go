package jobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/wonny/chartsignal/internal/contracts"
	"github.com/wonny/chartsignal/internal/pipeline"
	"github.com/wonny/chartsignal/pkg/logger"
)

// DefaultReportSpec runs after the KRX close on weekdays
const DefaultReportSpec = "0 30 16 * * MON-FRI"

// BatchRunner is the part of pipeline.Analyzer the report job needs
type BatchRunner interface {
	RunBatch(ctx context.Context, symbols []string) *pipeline.Report
	Deliver(ctx context.Context, text string) error
}

// SignalReportJob analyzes the watchlist and sends a summary
// ⭐ SSOT: 정기 시그널 리포트는 이 Job에서만
type SignalReportJob struct {
	runner    BatchRunner
	watchlist contracts.WatchlistStore
	spec      string
	logger    *logger.Logger

	mu   sync.RWMutex
	last *pipeline.Report
}

// NewSignalReportJob creates the report job; an empty spec uses DefaultReportSpec
func NewSignalReportJob(runner BatchRunner, watchlist contracts.WatchlistStore, spec string, log *logger.Logger) *SignalReportJob {
	if spec == "" {
		spec = DefaultReportSpec
	}
	return &SignalReportJob{
		runner:    runner,
		watchlist: watchlist,
		spec:      spec,
		logger:    log.WithField("job", "signal_report"),
	}
}

// Name returns the job name
func (j *SignalReportJob) Name() string {
	return "signal_report"
}

// Schedule returns the cron schedule
func (j *SignalReportJob) Schedule() string {
	return j.spec
}

// Run executes one report.
// Per-instrument failures are part of the report, not job failures;
// only a watchlist read error fails the run (and triggers a retry).
func (j *SignalReportJob) Run(ctx context.Context) error {
	symbols, err := j.watchlist.List(ctx)
	if err != nil {
		return fmt.Errorf("read watchlist: %w", err)
	}
	if len(symbols) == 0 {
		j.logger.Warn("Watchlist is empty, skipping report")
		j.mu.Lock()
		j.last = nil
		j.mu.Unlock()
		return nil
	}

	report := j.runner.RunBatch(ctx, symbols)

	j.mu.Lock()
	j.last = report
	j.mu.Unlock()

	if err := j.runner.Deliver(ctx, pipeline.Summary(report)); err != nil {
		// 재시도하면 종목별 메시지가 중복 발송되므로 로그만 남긴다
		j.logger.WithError(err).Error("Failed to deliver summary")
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":  report.RunID,
		"success": report.Succeeded(),
		"failed":  report.Failed(),
	}).Info("Signal report completed")
	return nil
}

// Summary describes the last report for the job history
func (j *SignalReportJob) Summary() string {
	last := j.LastReport()
	if last == nil {
		return "no symbols"
	}
	return fmt.Sprintf("%d analyzed, %d failed (run %s)", last.Succeeded(), last.Failed(), last.RunID)
}

// LastReport returns the most recent report, or nil before the first run
func (j *SignalReportJob) LastReport() *pipeline.Report {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.last
}
