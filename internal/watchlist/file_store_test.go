package watchlist

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/chartsignal/internal/contracts"
)

var _ contracts.WatchlistStore = (*FileStore)(nil)
var _ contracts.WatchlistStore = (*PostgresStore)(nil)

func newStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "watchlist.yaml"), []string{"aapl", "005930", "AAPL", " "})
}

func TestFileStoreSeedsDefaults(t *testing.T) {
	s := newStore(t)

	symbols, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "005930"}, symbols)

	// nothing written until the first change
	_, err = os.Stat(s.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestFileStoreAddRemove(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	added, err := s.Add(ctx, " msft ")
	require.NoError(t, err)
	assert.True(t, added)

	// idempotent: adding a present symbol is a no-op returning false
	added, err = s.Add(ctx, "MSFT")
	require.NoError(t, err)
	assert.False(t, added)

	removed, err := s.Remove(ctx, "aapl")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.Remove(ctx, "AAPL")
	require.NoError(t, err)
	assert.False(t, removed)

	symbols, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"005930", "MSFT"}, symbols)

	ok, err := s.Contains(ctx, "msft")
	require.NoError(t, err)
	assert.True(t, ok)

	// persisted across instances
	reopened := NewFileStore(s.Path(), nil)
	symbols, err = reopened.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"005930", "MSFT"}, symbols)
}

func TestFileStoreEmptiedStaysEmpty(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "w.yaml"), []string{"AAPL"})

	removed, err := s.Remove(ctx, "AAPL")
	require.NoError(t, err)
	require.True(t, removed)

	symbols, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, symbols)
}

func TestFileStoreRejectsInvalidSymbol(t *testing.T) {
	s := newStore(t)

	_, err := s.Add(context.Background(), "   ")
	assert.ErrorIs(t, err, contracts.ErrInvalidSymbol)

	_, err = s.Remove(context.Background(), "A/B")
	assert.ErrorIs(t, err, contracts.ErrInvalidSymbol)
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "w.yaml")
	require.NoError(t, os.WriteFile(path, []byte("symbols: [unterminated"), 0o644))

	_, err := NewFileStore(path, nil).List(context.Background())
	assert.Error(t, err)
}

func TestFileStoreConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "w.yaml"), nil)

	symbols := []string{"AAPL", "MSFT", "NVDA", "TSLA", "AMZN", "GOOG", "META", "005930"}
	var wg sync.WaitGroup
	for _, sym := range symbols {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			_, err := s.Add(ctx, sym)
			assert.NoError(t, err)
		}(sym)
	}
	wg.Wait()

	got, err := s.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, symbols, got)
}
