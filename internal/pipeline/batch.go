package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/chartsignal/internal/contracts"
	"github.com/wonny/chartsignal/internal/narrative"
)

// Result is the outcome for one instrument in a batch.
// Exactly one of Signal and Err is set.
type Result struct {
	Symbol      string            `json:"symbol"`
	Signal      *contracts.Signal `json:"signal,omitempty"`
	Err         error             `json:"-"`
	Reason      string            `json:"reason,omitempty"`
	Text        string            `json:"text"`
	Delivered   bool              `json:"delivered"`
	DeliveryErr error             `json:"-"`
}

// Report is a finished batch
type Report struct {
	RunID       string    `json:"run_id"`
	WeightsHash string    `json:"weights_hash"` // rule table the batch was scored with
	Started     time.Time `json:"started"`
	Finished    time.Time `json:"finished"`
	Results     []Result  `json:"results"` // input order
}

// Succeeded counts instruments that produced a signal
func (r *Report) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Err == nil {
			n++
		}
	}
	return n
}

// Failed counts instruments that produced a diagnostic
func (r *Report) Failed() int {
	return len(r.Results) - r.Succeeded()
}

// Signals returns produced signals in input order
func (r *Report) Signals() []*contracts.Signal {
	out := make([]*contracts.Signal, 0, len(r.Results))
	for _, res := range r.Results {
		if res.Signal != nil {
			out = append(out, res.Signal)
		}
	}
	return out
}

type job struct {
	index  int
	symbol string
}

// RunBatch analyzes symbols on a bounded worker pool.
// Failures stay with their instrument; results keep input order.
func (a *Analyzer) RunBatch(ctx context.Context, symbols []string) *Report {
	report := &Report{
		RunID:   uuid.NewString(),
		Started: time.Now(),
		Results: make([]Result, len(symbols)),
	}
	log := a.logger.WithField("run_id", report.RunID)

	hash, err := a.scorer.Weights().Hash()
	if err != nil {
		log.WithError(err).Warn("Failed to hash scoring weights")
	}
	report.WeightsHash = hash

	workers := a.cfg.Workers
	if workers > len(symbols) {
		workers = len(symbols)
	}

	log.WithFields(map[string]interface{}{
		"symbols": len(symbols),
		"workers": workers,
		"period":  a.cfg.Period,
		"weights": hash,
	}).Info("Starting batch")

	jobCh := make(chan job, len(symbols))
	for i, s := range symbols {
		jobCh <- job{index: i, symbol: s}
	}
	close(jobCh)

	// 각 워커는 자기 인덱스에만 쓴다
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for j := range jobCh {
				report.Results[j.index] = a.processIsolated(ctx, workerID, j.symbol)
			}
		}(w)
	}
	wg.Wait()

	report.Finished = time.Now()
	a.metrics.ObserveBatch(report.Finished.Sub(report.Started), report.Finished)

	log.WithFields(map[string]interface{}{
		"success":  report.Succeeded(),
		"failed":   report.Failed(),
		"duration": report.Finished.Sub(report.Started).String(),
	}).Info("Batch completed")
	return report
}

// processIsolated runs process; a panic becomes that instrument's failure
// and the worker moves on to the next symbol
func (a *Analyzer) processIsolated(ctx context.Context, workerID int, symbol string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("process %s: panic: %v", symbol, r)
			res = Result{Symbol: displaySymbol(symbol), Err: err, Reason: contracts.FailureReason(err)}
			res.Text = narrative.FormatDiagnostic(res.Symbol, err)
			a.metrics.ObserveFailure(err)
			a.logger.WithError(err).WithFields(map[string]interface{}{
				"worker": workerID,
				"symbol": res.Symbol,
			}).Error("Instrument panicked")
		}
	}()
	return a.process(ctx, workerID, symbol)
}

// analyzeRecovered converts a panic in fetch, parse or score into an error
func (a *Analyzer) analyzeRecovered(ctx context.Context, symbol string) (sig *contracts.Signal, err error) {
	defer func() {
		if r := recover(); r != nil {
			sig, err = nil, fmt.Errorf("analyze %s: panic: %v", symbol, r)
		}
	}()
	return a.Analyze(ctx, symbol)
}

func displaySymbol(symbol string) string {
	if s := contracts.NormalizeSymbol(symbol); s != "" {
		return s
	}
	return symbol
}

// process analyzes, renders, delivers and stores one instrument
func (a *Analyzer) process(ctx context.Context, workerID int, symbol string) Result {
	res := Result{Symbol: displaySymbol(symbol)}

	if err := ctx.Err(); err != nil {
		res.Err = err
	} else {
		res.Signal, res.Err = a.analyzeRecovered(ctx, symbol)
	}

	if res.Err != nil {
		res.Reason = contracts.FailureReason(res.Err)
		res.Text = narrative.FormatDiagnostic(res.Symbol, res.Err)
		a.metrics.ObserveFailure(res.Err)
		a.logger.WithError(res.Err).WithFields(map[string]interface{}{
			"worker": workerID,
			"symbol": res.Symbol,
			"reason": res.Reason,
		}).Warn("Instrument failed")
	} else {
		res.Text = narrative.Format(res.Signal)
		a.logger.WithFields(map[string]interface{}{
			"worker":   workerID,
			"symbol":   res.Symbol,
			"label":    res.Signal.Overall,
			"strength": res.Signal.Strength,
		}).Debug("Instrument analyzed")

		if a.store != nil {
			if err := a.store.Save(ctx, res.Signal); err != nil {
				a.logger.WithError(err).WithField("symbol", res.Symbol).Error("Failed to save signal")
			}
		}
	}

	if a.notifier != nil && ctx.Err() == nil {
		res.DeliveryErr = a.notifier.Send(ctx, res.Text)
		res.Delivered = res.DeliveryErr == nil
		a.metrics.ObserveDelivery(res.DeliveryErr)
		if res.DeliveryErr != nil {
			a.logger.WithError(res.DeliveryErr).WithField("symbol", res.Symbol).Warn("Delivery failed")
		}
	}
	return res
}

// Deliver sends text through the attached notifier, if any
func (a *Analyzer) Deliver(ctx context.Context, text string) error {
	if a.notifier == nil {
		return nil
	}
	err := a.notifier.Send(ctx, text)
	a.metrics.ObserveDelivery(err)
	if err != nil {
		return fmt.Errorf("deliver summary: %w", err)
	}
	return nil
}
