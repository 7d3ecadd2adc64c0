package signalcache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/chartsignal/internal/contracts"
	"github.com/wonny/chartsignal/pkg/logger"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newCache(ttl time.Duration) (*Cache, *clock) {
	clk := &clock{t: time.Date(2024, 5, 1, 16, 30, 0, 0, time.UTC)}
	c := New(ttl, logger.Nop())
	c.now = clk.now
	return c, clk
}

func signal(symbol string, day int, label contracts.Label) *contracts.Signal {
	return &contracts.Signal{
		Symbol:  symbol,
		AsOf:    time.Date(2024, 5, day, 0, 0, 0, 0, time.UTC),
		Overall: label,
	}
}

func TestSetAndGet(t *testing.T) {
	c, _ := newCache(time.Hour)

	assert.True(t, c.Set(signal("aapl", 1, contracts.LabelBuy)))

	e, ok := c.Get("AAPL")
	require.True(t, ok)
	assert.Equal(t, contracts.LabelBuy, e.Signal.Overall)
	assert.False(t, e.IsStale)

	_, ok = c.Get("MSFT")
	assert.False(t, ok)
	assert.False(t, c.Set(nil))
}

func TestRejectsOlderSignal(t *testing.T) {
	c, _ := newCache(time.Hour)

	require.True(t, c.Set(signal("AAPL", 2, contracts.LabelBuy)))
	assert.False(t, c.Set(signal("AAPL", 1, contracts.LabelSell)))
	// same day replaces (re-run)
	assert.True(t, c.Set(signal("AAPL", 2, contracts.LabelNeutral)))

	e, _ := c.Get("AAPL")
	assert.Equal(t, contracts.LabelNeutral, e.Signal.Overall)
}

func TestStaleness(t *testing.T) {
	c, clk := newCache(time.Hour)
	c.Set(signal("AAPL", 1, contracts.LabelBuy))
	c.Set(signal("MSFT", 1, contracts.LabelSell))

	clk.advance(30 * time.Minute)
	c.Set(signal("NVDA", 1, contracts.LabelBuy))

	clk.advance(45 * time.Minute)

	_, fresh := c.GetFresh("AAPL")
	assert.False(t, fresh)
	sig, fresh := c.GetFresh("NVDA")
	assert.True(t, fresh)
	assert.Equal(t, "NVDA", sig.Symbol)

	stats := c.Stats()
	assert.Equal(t, 3, stats.TotalCount)
	assert.Equal(t, 2, stats.StaleCount)
	assert.Equal(t, 1, stats.FreshCount)
	assert.Equal(t, 2, stats.ByLabel[contracts.LabelBuy])

	all := c.GetAll()
	assert.True(t, all["AAPL"].IsStale)
	assert.False(t, all["NVDA"].IsStale)

	assert.Equal(t, 2, c.CleanStale())
	assert.Equal(t, 1, c.Len())
}

func TestDeleteAndClear(t *testing.T) {
	c, _ := newCache(time.Hour)
	c.Set(signal("AAPL", 1, contracts.LabelBuy))
	c.Set(signal("MSFT", 1, contracts.LabelBuy))

	c.Delete("aapl")
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
}
