package scheduler

import (
	"context"
	"time"
)

// historyLimit is the number of runs kept per job
const historyLimit = 100

// Job is a unit of scheduled work (signal report, cache cleanup)
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	Name() string

	// Run executes one attempt; a returned error triggers a retry
	Run(ctx context.Context) error

	// Schedule returns the cron expression.
	// Six fields with seconds: "0 30 16 * * MON-FRI", or "@every 5m"
	Schedule() string
}

// Summarizer is implemented by jobs that describe their last run
// (e.g. "12 analyzed, 1 failed"). The text is stored with the result.
type Summarizer interface {
	Summary() string
}

// JobResult is one run of a job, retries included
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Summary   string        `json:"summary,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// JobHistory keeps the latest historyLimit results, oldest first
type JobHistory struct {
	Results []JobResult
}

// Add appends a result and drops the oldest beyond historyLimit
func (h *JobHistory) Add(result JobResult) {
	h.Results = append(h.Results, result)
	if len(h.Results) > historyLimit {
		h.Results = h.Results[len(h.Results)-historyLimit:]
	}
}

// Len returns the number of kept results
func (h *JobHistory) Len() int {
	return len(h.Results)
}

// Latest returns up to n most recent results, oldest first
func (h *JobHistory) Latest(n int) []JobResult {
	if n > len(h.Results) {
		n = len(h.Results)
	}
	if n <= 0 {
		return []JobResult{}
	}
	return h.Results[len(h.Results)-n:]
}

// Failures returns the failed results
func (h *JobHistory) Failures() []JobResult {
	failed := make([]JobResult, 0)
	for _, r := range h.Results {
		if !r.Success {
			failed = append(failed, r)
		}
	}
	return failed
}

// SuccessRate returns successful runs / kept runs (0 when empty)
func (h *JobHistory) SuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0
	}
	return float64(len(h.Results)-len(h.Failures())) / float64(len(h.Results))
}

// LastSuccess returns the most recent successful run
func (h *JobHistory) LastSuccess() (JobResult, bool) {
	return h.last(true)
}

// LastFailure returns the most recent failed run
func (h *JobHistory) LastFailure() (JobResult, bool) {
	return h.last(false)
}

func (h *JobHistory) last(success bool) (JobResult, bool) {
	for i := len(h.Results) - 1; i >= 0; i-- {
		if h.Results[i].Success == success {
			return h.Results[i], true
		}
	}
	return JobResult{}, false
}
