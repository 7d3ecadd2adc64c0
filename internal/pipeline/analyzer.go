package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/chartsignal/internal/contracts"
	"github.com/wonny/chartsignal/internal/indicator"
	"github.com/wonny/chartsignal/internal/metrics"
	"github.com/wonny/chartsignal/internal/scorer"
	"github.com/wonny/chartsignal/internal/signalcache"
	"github.com/wonny/chartsignal/pkg/logger"
)

// Config holds analyzer configuration
type Config struct {
	Period            string  // lookback passed to the provider ("1y")
	Interval          string  // bar size ("1d")
	Workers           int     // Number of concurrent workers
	RequestsPerSecond float64 // fetch pacing across all workers
	Burst             int
}

// DefaultConfig returns the settings used when config is not loaded
func DefaultConfig() Config {
	return Config{
		Period:            "1y",
		Interval:          "1d",
		Workers:           4,
		RequestsPerSecond: 2,
		Burst:             1,
	}
}

// Publisher receives every signal as soon as it is produced
type Publisher interface {
	Publish(sig *contracts.Signal)
}

// Analyzer runs fetch → annotate → score for instruments
// ⭐ SSOT: 종목 분석 오케스트레이션은 이 패키지에서만
type Analyzer struct {
	provider contracts.MarketDataProvider
	scorer   *scorer.Scorer
	notifier contracts.Notifier
	store    contracts.SignalStore
	cache    *signalcache.Cache
	metrics  *metrics.Metrics
	pub      Publisher
	limiter  *rate.Limiter
	cfg      Config
	logger   *logger.Logger
}

// NewAnalyzer creates a new Analyzer. Notifier, store, cache and metrics are
// optional and attached with the With* methods.
func NewAnalyzer(provider contracts.MarketDataProvider, sc *scorer.Scorer, cfg Config, log *logger.Logger) *Analyzer {
	def := DefaultConfig()
	if cfg.Period == "" {
		cfg.Period = def.Period
	}
	if cfg.Interval == "" {
		cfg.Interval = def.Interval
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Analyzer{
		provider: provider,
		scorer:   sc,
		limiter:  rate.NewLimiter(limit, cfg.Burst),
		cfg:      cfg,
		logger:   log.WithField("module", "pipeline"),
	}
}

// WithNotifier delivers each instrument's text
func (a *Analyzer) WithNotifier(n contracts.Notifier) *Analyzer {
	a.notifier = n
	return a
}

// WithStore persists successful signals
func (a *Analyzer) WithStore(s contracts.SignalStore) *Analyzer {
	a.store = s
	return a
}

// WithCache keeps the latest signal per symbol in memory
func (a *Analyzer) WithCache(c *signalcache.Cache) *Analyzer {
	a.cache = c
	return a
}

// WithMetrics records Prometheus metrics
func (a *Analyzer) WithMetrics(m *metrics.Metrics) *Analyzer {
	a.metrics = m
	return a
}

// WithPublisher pushes each produced signal to p (e.g. the WebSocket hub)
func (a *Analyzer) WithPublisher(p Publisher) *Analyzer {
	a.pub = p
	return a
}

// Config returns the effective configuration
func (a *Analyzer) Config() Config {
	return a.cfg
}

// Notifier returns the attached notifier, if any
func (a *Analyzer) Notifier() contracts.Notifier {
	return a.notifier
}

// Analyze produces the signal for one symbol using the configured period
func (a *Analyzer) Analyze(ctx context.Context, symbol string) (*contracts.Signal, error) {
	return a.AnalyzePeriod(ctx, symbol, a.cfg.Period)
}

// AnalyzePeriod produces the signal for one symbol over an explicit lookback
func (a *Analyzer) AnalyzePeriod(ctx context.Context, symbol, period string) (*contracts.Signal, error) {
	symbol = contracts.NormalizeSymbol(symbol)
	if err := contracts.ValidateSymbol(symbol); err != nil {
		return nil, err
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	series, err := a.provider.Fetch(ctx, symbol, period, a.cfg.Interval)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}

	start := time.Now()
	bars, err := indicator.Annotate(series)
	if err != nil {
		return nil, fmt.Errorf("annotate %s: %w", symbol, err)
	}
	sig, err := a.scorer.Score(symbol, bars)
	if err != nil {
		return nil, err
	}

	a.metrics.ObserveSignal(sig.Overall, time.Since(start))
	if a.cache != nil {
		a.cache.Set(sig)
	}
	if a.pub != nil {
		a.pub.Publish(sig)
	}
	return sig, nil
}
