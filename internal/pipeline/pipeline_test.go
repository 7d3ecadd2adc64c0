package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/chartsignal/internal/contracts"
	"github.com/wonny/chartsignal/internal/metrics"
	"github.com/wonny/chartsignal/internal/scorer"
	"github.com/wonny/chartsignal/internal/signalcache"
	"github.com/wonny/chartsignal/pkg/logger"
)

func trend(n int, from, to float64) contracts.Series {
	s := make(contracts.Series, n)
	step := (to - from) / float64(n-1)
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range s {
		c := from + step*float64(i)
		s[i] = contracts.Bar{
			Time:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 1_000_000,
		}
	}
	return s
}

type fakeProvider struct {
	mu      sync.Mutex
	series  map[string]contracts.Series
	errs    map[string]error
	periods []string
}

func (p *fakeProvider) Fetch(_ context.Context, symbol, period, _ string) (contracts.Series, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.periods = append(p.periods, period)
	if err, ok := p.errs[symbol]; ok {
		return nil, err
	}
	s, ok := p.series[symbol]
	if !ok {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, contracts.ErrDataUnavailable)
	}
	return s, nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	texts []string
	fail  func(text string) bool
}

func (n *fakeNotifier) Send(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.texts = append(n.texts, text)
	if n.fail != nil && n.fail(text) {
		return fmt.Errorf("telegram: %w", contracts.ErrDeliveryFailure)
	}
	return nil
}

type fakeStore struct {
	mu    sync.Mutex
	saved []*contracts.Signal
	err   error
}

func (s *fakeStore) Save(_ context.Context, sig *contracts.Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, sig)
	return nil
}

func (s *fakeStore) Latest(context.Context, string) (*contracts.Signal, error) {
	return nil, contracts.ErrSignalNotFound
}

func (s *fakeStore) History(context.Context, string, int) ([]*contracts.Signal, error) {
	return nil, nil
}

func newProvider() *fakeProvider {
	bad := trend(30, 10, 20)
	bad[10].Close = -1

	return &fakeProvider{
		series: map[string]contracts.Series{
			"UP":   trend(250, 100, 350),
			"DOWN": trend(250, 350, 100),
			"BAD":  bad,
			"ONE":  trend(2, 50, 51)[:1],
		},
		errs: map[string]error{},
	}
}

func newAnalyzer(p contracts.MarketDataProvider, workers int) *Analyzer {
	return NewAnalyzer(p, scorer.NewDefault(), Config{Workers: workers}, logger.Nop())
}

func TestAnalyze(t *testing.T) {
	p := newProvider()
	cache := signalcache.New(time.Hour, logger.Nop())
	a := newAnalyzer(p, 1).WithCache(cache)

	sig, err := a.Analyze(context.Background(), " up ")
	require.NoError(t, err)

	assert.Equal(t, "UP", sig.Symbol)
	assert.InDelta(t, 350.0, sig.Price, 0.01)
	assert.GreaterOrEqual(t, sig.RuleCount, 9)
	assert.Equal(t, []string{"1y"}, p.periods)

	cached, ok := cache.GetFresh("UP")
	require.True(t, ok)
	assert.Same(t, sig, cached)
}

type recordingPublisher struct {
	mu      sync.Mutex
	symbols []string
}

func (p *recordingPublisher) Publish(sig *contracts.Signal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.symbols = append(p.symbols, sig.Symbol)
}

func TestAnalyzePublishes(t *testing.T) {
	pub := &recordingPublisher{}
	a := newAnalyzer(newProvider(), 1).WithPublisher(pub)

	_, err := a.Analyze(context.Background(), "UP")
	require.NoError(t, err)
	_, err = a.Analyze(context.Background(), "MISSING")
	require.Error(t, err)

	assert.Equal(t, []string{"UP"}, pub.symbols)
}

func TestAnalyzeErrors(t *testing.T) {
	a := newAnalyzer(newProvider(), 1)

	_, err := a.Analyze(context.Background(), "BAD")
	assert.ErrorIs(t, err, contracts.ErrInvalidSeries)

	_, err = a.Analyze(context.Background(), "MISSING")
	assert.ErrorIs(t, err, contracts.ErrDataUnavailable)

	_, err = a.Analyze(context.Background(), "   ")
	assert.ErrorIs(t, err, contracts.ErrInvalidSymbol)
}

func TestAnalyzePeriod(t *testing.T) {
	p := newProvider()
	a := newAnalyzer(p, 1)

	_, err := a.AnalyzePeriod(context.Background(), "UP", "2y")
	require.NoError(t, err)
	assert.Equal(t, []string{"2y"}, p.periods)
}

func TestRunBatchIsolatesFailures(t *testing.T) {
	n := &fakeNotifier{}
	store := &fakeStore{}
	m := metrics.New()
	a := newAnalyzer(newProvider(), 3).WithNotifier(n).WithStore(store).WithMetrics(m)

	symbols := []string{"UP", "MISSING", "BAD", "DOWN", "ONE"}
	report := a.RunBatch(context.Background(), symbols)

	require.Len(t, report.Results, len(symbols))
	assert.NotEmpty(t, report.RunID)
	assert.False(t, report.Finished.Before(report.Started))

	// input order is preserved
	for i, res := range report.Results {
		assert.Equal(t, symbols[i], res.Symbol)
		assert.True(t, (res.Signal == nil) != (res.Err == nil), "exactly one of Signal/Err for %s", res.Symbol)
		assert.True(t, res.Delivered)
	}

	assert.Equal(t, "data_unavailable", report.Results[1].Reason)
	assert.Equal(t, "invalid_series", report.Results[2].Reason)
	assert.Contains(t, report.Results[1].Text, "MISSING | analysis failed")

	assert.Equal(t, 3, report.Succeeded())
	assert.Equal(t, 2, report.Failed())
	assert.Len(t, report.Signals(), 3)
	assert.Len(t, n.texts, 5)
	assert.Len(t, store.saved, 3)

	// single bar degrades gracefully
	one := report.Results[4].Signal
	require.NotNil(t, one)
	assert.Equal(t, 0.0, one.ChangePct)
}

// panickyProvider blows up inside Fetch for one symbol
type panickyProvider struct {
	*fakeProvider
	symbol string
}

func (p *panickyProvider) Fetch(ctx context.Context, symbol, period, interval string) (contracts.Series, error) {
	if symbol == p.symbol {
		panic("unexpected response shape")
	}
	return p.fakeProvider.Fetch(ctx, symbol, period, interval)
}

// panickyNotifier blows up while sending matching text
type panickyNotifier struct {
	fakeNotifier
	match string
}

func (n *panickyNotifier) Send(ctx context.Context, text string) error {
	if strings.Contains(text, n.match) {
		panic("nil webhook client")
	}
	return n.fakeNotifier.Send(ctx, text)
}

func TestRunBatchRecoversProviderPanic(t *testing.T) {
	n := &fakeNotifier{}
	m := metrics.New()
	p := &panickyProvider{fakeProvider: newProvider(), symbol: "BOOM"}
	a := newAnalyzer(p, 2).WithNotifier(n).WithMetrics(m)

	report := a.RunBatch(context.Background(), []string{"UP", "BOOM", "DOWN"})

	require.Len(t, report.Results, 3)
	assert.NoError(t, report.Results[0].Err)
	assert.NoError(t, report.Results[2].Err)

	boom := report.Results[1]
	require.Error(t, boom.Err)
	assert.Nil(t, boom.Signal)
	assert.Contains(t, boom.Err.Error(), "unexpected response shape")
	assert.Equal(t, "internal", boom.Reason)
	assert.Contains(t, boom.Text, "BOOM | analysis failed")
	assert.True(t, boom.Delivered, "diagnostic still goes out")

	assert.Len(t, n.texts, 3)
	assert.Equal(t, 2, report.Succeeded())
}

func TestRunBatchRecoversNotifierPanic(t *testing.T) {
	n := &panickyNotifier{match: " DOWN |"}
	a := newAnalyzer(newProvider(), 1).WithNotifier(n)

	report := a.RunBatch(context.Background(), []string{"DOWN", "UP"})

	require.Len(t, report.Results, 2)
	assert.Equal(t, "DOWN", report.Results[0].Symbol)
	require.Error(t, report.Results[0].Err)
	assert.Equal(t, "internal", report.Results[0].Reason)
	assert.Contains(t, report.Results[0].Text, "DOWN | analysis failed")

	assert.NoError(t, report.Results[1].Err)
	assert.True(t, report.Results[1].Delivered)
	assert.Len(t, n.texts, 1)
}

func TestRunBatchRecordsWeightsHash(t *testing.T) {
	sc := scorer.NewDefault()
	want, err := sc.Weights().Hash()
	require.NoError(t, err)

	a := NewAnalyzer(newProvider(), sc, Config{Workers: 1}, logger.Nop())
	report := a.RunBatch(context.Background(), []string{"UP"})
	assert.Equal(t, want, report.WeightsHash)

	w := scorer.DefaultWeights()
	w.Rules.Volume = 1
	other := NewAnalyzer(newProvider(), scorer.New(w), Config{Workers: 1}, logger.Nop())
	assert.NotEqual(t, want, other.RunBatch(context.Background(), []string{"UP"}).WeightsHash)
}

func TestRunBatchDeliveryFailureDoesNotAbort(t *testing.T) {
	n := &fakeNotifier{fail: func(text string) bool { return strings.Contains(text, " UP |") }}
	store := &fakeStore{err: errors.New("db down")}
	a := newAnalyzer(newProvider(), 2).WithNotifier(n).WithStore(store)

	report := a.RunBatch(context.Background(), []string{"UP", "DOWN"})

	require.Len(t, report.Results, 2)
	assert.NoError(t, report.Results[0].Err)
	assert.False(t, report.Results[0].Delivered)
	assert.ErrorIs(t, report.Results[0].DeliveryErr, contracts.ErrDeliveryFailure)
	assert.True(t, report.Results[1].Delivered)
	assert.Equal(t, 2, report.Succeeded())
}

func TestRunBatchCancelled(t *testing.T) {
	n := &fakeNotifier{}
	a := newAnalyzer(newProvider(), 2).WithNotifier(n)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := a.RunBatch(ctx, []string{"UP", "DOWN", "ONE"})

	require.Len(t, report.Results, 3)
	for _, res := range report.Results {
		assert.ErrorIs(t, res.Err, context.Canceled)
		assert.False(t, res.Delivered)
	}
	assert.Empty(t, n.texts)
}

func TestRunBatchEmpty(t *testing.T) {
	report := newAnalyzer(newProvider(), 4).RunBatch(context.Background(), nil)
	assert.Empty(t, report.Results)
	assert.Equal(t, 0, report.Failed())
}

func TestRateLimiterPacesFetches(t *testing.T) {
	a := NewAnalyzer(newProvider(), scorer.NewDefault(), Config{
		Workers:           4,
		RequestsPerSecond: 20, // one every 50ms after the first
		Burst:             1,
	}, logger.Nop())

	start := time.Now()
	report := a.RunBatch(context.Background(), []string{"UP", "DOWN", "ONE"})
	elapsed := time.Since(start)

	assert.Equal(t, 3, report.Succeeded())
	assert.GreaterOrEqual(t, elapsed, 90*time.Millisecond)
}

func TestDeliver(t *testing.T) {
	assert.NoError(t, newAnalyzer(newProvider(), 1).Deliver(context.Background(), "x"))

	n := &fakeNotifier{fail: func(string) bool { return true }}
	err := newAnalyzer(newProvider(), 1).WithNotifier(n).Deliver(context.Background(), "x")
	assert.ErrorIs(t, err, contracts.ErrDeliveryFailure)
}

func TestSummary(t *testing.T) {
	report := &Report{
		Started: time.Date(2024, 5, 2, 16, 30, 0, 0, time.UTC),
		Results: []Result{
			{Symbol: "AAPL", Signal: &contracts.Signal{Symbol: "AAPL", Overall: contracts.LabelBuy, Strength: 0.82, Price: 173.03, ChangePct: 1.2}},
			{Symbol: "XYZ", Err: contracts.ErrDataUnavailable, Reason: "data_unavailable"},
			{Symbol: "MSFT", Signal: &contracts.Signal{Symbol: "MSFT", Overall: contracts.LabelBuy, Strength: 0.6, Price: 397.84, ChangePct: -0.35}},
		},
	}

	got := Summary(report)
	lines := strings.Split(got, "\n")

	require.Len(t, lines, 6)
	assert.Equal(t, "📊 Signal report 2024-05-02 | 3 symbols", lines[0])
	assert.Equal(t, "BUY 2 · FAILED 1", lines[1])
	assert.Equal(t, "", lines[2])
	assert.Equal(t, "🟢 AAPL BUY +0.82 (173.03, +1.20%)", lines[3])
	assert.Equal(t, "⚠️ XYZ: data_unavailable", lines[4])
	assert.Equal(t, "🟢 MSFT BUY +0.60 (397.84, -0.35%)", lines[5])
}
