package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/chartsignal/internal/api/handlers"
	"github.com/wonny/chartsignal/internal/contracts"
	"github.com/wonny/chartsignal/internal/pipeline"
	"github.com/wonny/chartsignal/internal/signalcache"
	"github.com/wonny/chartsignal/internal/stream"
	"github.com/wonny/chartsignal/internal/watchlist"
	"github.com/wonny/chartsignal/pkg/logger"
)

var asOf = time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)

func testSignal(symbol string) *contracts.Signal {
	return &contracts.Signal{
		Symbol:    symbol,
		AsOf:      asOf,
		Price:     173.03,
		ChangePct: 1.2,
		Overall:   contracts.LabelBuy,
		Strength:  0.82,
		RuleCount: 9,
	}
}

type fakeAnalyzer struct {
	calls   int
	periods []string
}

func (a *fakeAnalyzer) Analyze(ctx context.Context, symbol string) (*contracts.Signal, error) {
	return a.AnalyzePeriod(ctx, symbol, "")
}

func (a *fakeAnalyzer) AnalyzePeriod(_ context.Context, symbol, period string) (*contracts.Signal, error) {
	a.calls++
	a.periods = append(a.periods, period)
	switch symbol {
	case "MISSING":
		return nil, fmt.Errorf("fetch %s: %w", symbol, contracts.ErrDataUnavailable)
	case "SHORT":
		return nil, fmt.Errorf("score %s: %w", symbol, contracts.ErrInsufficientData)
	case "DELISTED":
		return nil, fmt.Errorf("fetch %s: %w: %w", symbol, contracts.ErrSymbolNotFound, contracts.ErrDataUnavailable)
	}
	return testSignal(symbol), nil
}

type fakeRunner struct {
	symbols   []string
	delivered []string
}

func (r *fakeRunner) RunBatch(_ context.Context, symbols []string) *pipeline.Report {
	r.symbols = symbols
	report := &pipeline.Report{RunID: "run-1", Started: asOf, Finished: asOf}
	for _, s := range symbols {
		report.Results = append(report.Results, pipeline.Result{Symbol: s, Signal: testSignal(s)})
	}
	return report
}

func (r *fakeRunner) Deliver(_ context.Context, text string) error {
	r.delivered = append(r.delivered, text)
	return nil
}

type fakeSignalStore struct{}

func (fakeSignalStore) Save(context.Context, *contracts.Signal) error { return nil }

func (fakeSignalStore) Latest(context.Context, string) (*contracts.Signal, error) {
	return nil, contracts.ErrSignalNotFound
}

func (fakeSignalStore) History(_ context.Context, symbol string, limit int) ([]*contracts.Signal, error) {
	out := make([]*contracts.Signal, 0, limit)
	for i := 0; i < limit && i < 3; i++ {
		out = append(out, testSignal(symbol))
	}
	return out, nil
}

type testEnv struct {
	router   http.Handler
	analyzer *fakeAnalyzer
	runner   *fakeRunner
	notifier *fakeRunner
	cache    *signalcache.Cache
	hub      *stream.Hub
}

func newTestEnv(t *testing.T, store contracts.SignalStore) *testEnv {
	t.Helper()
	log := logger.Nop()

	env := &testEnv{
		analyzer: &fakeAnalyzer{},
		runner:   &fakeRunner{},
		notifier: &fakeRunner{},
		cache:    signalcache.New(time.Hour, log),
		hub:      stream.NewHub(log, nil),
	}
	wl := watchlist.NewFileStore(filepath.Join(t.TempDir(), "watchlist.yaml"), []string{"AAPL", "005930"})

	env.router = NewRouter(Handlers{
		Signals:   handlers.NewSignalHandler(env.analyzer, env.cache, store, log),
		Watchlist: handlers.NewWatchlistHandler(wl, log),
		Reports:   handlers.NewReportHandler(env.runner, env.notifier, wl, log),
		Stream:    env.hub,
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("# metrics"))
		}),
	}, log)
	return env
}

func (e *testEnv) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])

	rec = env.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# metrics", rec.Body.String())
}

func TestGetSignal(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodGet, "/api/signals/aapl", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "AAPL", body["symbol"])
	assert.Equal(t, "buy", body["overall_signal"])
	assert.Equal(t, []string{""}, env.analyzer.periods)
}

func TestGetSignalUsesFreshCache(t *testing.T) {
	env := newTestEnv(t, nil)
	env.cache.Set(testSignal("AAPL"))

	rec := env.do(http.MethodGet, "/api/signals/AAPL", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, env.analyzer.calls)

	// an explicit period bypasses the cache
	rec = env.do(http.MethodGet, "/api/signals/AAPL?period=2y", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"2y"}, env.analyzer.periods)
}

func TestGetSignalText(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodGet, "/api/signals/AAPL?format=text", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "🟢 AAPL | BUY"), rec.Body.String())
}

func TestGetSignalErrors(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		target     string
		wantStatus int
		wantReason string
	}{
		{"/api/signals/AAPL?period=7y", http.StatusBadRequest, "invalid_request"},
		{"/api/signals/MISSING", http.StatusBadGateway, "data_unavailable"},
		{"/api/signals/DELISTED", http.StatusNotFound, "symbol_not_found"},
		{"/api/signals/SHORT", http.StatusUnprocessableEntity, "insufficient_data"},
		{"/api/signals/" + strings.Repeat("X", 30), http.StatusBadRequest, "invalid_symbol"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := env.do(http.MethodGet, tt.target, "")
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantReason, decode(t, rec)["reason"])
		})
	}
}

func TestGetCached(t *testing.T) {
	env := newTestEnv(t, nil)
	env.cache.Set(testSignal("AAPL"))

	rec := env.do(http.MethodGet, "/api/signals", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	signals := body["signals"].(map[string]interface{})
	assert.Contains(t, signals, "AAPL")
	stats := body["stats"].(map[string]interface{})
	assert.Equal(t, 1.0, stats["total_count"])
}

func TestGetHistory(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(http.MethodGet, "/api/signals/AAPL/history", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	env = newTestEnv(t, fakeSignalStore{})
	rec = env.do(http.MethodGet, "/api/signals/AAPL/history?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, 2.0, body["count"])

	rec = env.do(http.MethodGet, "/api/signals/AAPL/history?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWatchlistEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodGet, "/api/watchlist", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{"AAPL", "005930"}, decode(t, rec)["symbols"])

	rec = env.do(http.MethodPost, "/api/watchlist", `{"symbol":" msft "}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "MSFT", decode(t, rec)["symbol"])

	rec = env.do(http.MethodPost, "/api/watchlist", `{"symbol":"MSFT"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["added"])

	rec = env.do(http.MethodPost, "/api/watchlist", `{"symbol":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/watchlist", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodDelete, "/api/watchlist/aapl", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["removed"])

	rec = env.do(http.MethodDelete, "/api/watchlist/AAPL", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["removed"])

	rec = env.do(http.MethodGet, "/api/watchlist", "")
	assert.Equal(t, []interface{}{"005930", "MSFT"}, decode(t, rec)["symbols"])
}

func TestRunReport(t *testing.T) {
	env := newTestEnv(t, nil)

	// empty body analyzes the watchlist
	rec := env.do(http.MethodPost, "/api/reports/run", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"AAPL", "005930"}, env.runner.symbols)
	assert.Empty(t, env.runner.delivered)
	assert.Nil(t, env.notifier.symbols)

	body := decode(t, rec)
	assert.Equal(t, "run-1", body["run_id"])
	assert.Equal(t, 2.0, body["succeeded"])
	assert.Contains(t, body["summary"], "2 symbols")

	rec = env.do(http.MethodPost, "/api/reports/run", `{"symbols":["TSLA"],"notify":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"TSLA"}, env.notifier.symbols)
	assert.Len(t, env.notifier.delivered, 1)
	assert.Empty(t, env.runner.delivered)

	rec = env.do(http.MethodPost, "/api/reports/run", `{"symbols":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignalStream(t *testing.T) {
	env := newTestEnv(t, nil)
	server := httptest.NewServer(env.router)
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/api/signals/stream", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return env.hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	env.hub.Publish(testSignal("AAPL"))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg stream.Envelope
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "AAPL", msg.Signal.Symbol)
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, nil)
	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPut, "/api/watchlist"},
		{http.MethodPost, "/api/signals/AAPL"},
		{http.MethodGet, "/api/reports/run"},
		{http.MethodPost, "/health"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := env.do(tt.method, tt.path, "")
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		})
	}

	rec := env.do(http.MethodPut, "/api/watchlist", "")
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid_request", body["reason"])

	rec = env.do(http.MethodGet, "/api/nothing-here", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}
