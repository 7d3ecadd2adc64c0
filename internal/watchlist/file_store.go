package watchlist

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/wonny/chartsignal/internal/contracts"
)

// fileFormat is the on-disk YAML layout
type fileFormat struct {
	Symbols []string `yaml:"symbols"`
}

// FileStore keeps the watchlist in a YAML file.
// A missing or empty file starts from the configured defaults.
// ⭐ SSOT: 파일 기반 관심종목은 여기서만
type FileStore struct {
	mu       sync.Mutex
	path     string
	defaults []string
}

// NewFileStore creates a YAML-backed store
func NewFileStore(path string, defaults []string) *FileStore {
	return &FileStore{path: path, defaults: normalizeAll(defaults)}
}

// Path returns the backing file
func (s *FileStore) Path() string {
	return s.path
}

// Add implements contracts.WatchlistStore
func (s *FileStore) Add(ctx context.Context, symbol string) (bool, error) {
	symbol, err := normalize(symbol)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	symbols, err := s.load()
	if err != nil {
		return false, err
	}
	if indexOf(symbols, symbol) >= 0 {
		return false, nil
	}
	return true, s.save(append(symbols, symbol))
}

// Remove implements contracts.WatchlistStore
func (s *FileStore) Remove(ctx context.Context, symbol string) (bool, error) {
	symbol, err := normalize(symbol)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	symbols, err := s.load()
	if err != nil {
		return false, err
	}
	i := indexOf(symbols, symbol)
	if i < 0 {
		return false, nil
	}
	return true, s.save(append(symbols[:i:i], symbols[i+1:]...))
}

// List implements contracts.WatchlistStore
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load()
}

// Contains implements contracts.WatchlistStore
func (s *FileStore) Contains(ctx context.Context, symbol string) (bool, error) {
	symbol, err := normalize(symbol)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	symbols, err := s.load()
	if err != nil {
		return false, err
	}
	return indexOf(symbols, symbol) >= 0, nil
}

// load reads the file; callers hold mu
func (s *FileStore) load() ([]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return append([]string(nil), s.defaults...), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read watchlist %s: %w", s.path, err)
	}

	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse watchlist %s: %w", s.path, err)
	}
	if len(f.Symbols) == 0 && len(data) == 0 {
		return append([]string(nil), s.defaults...), nil
	}
	return normalizeAll(f.Symbols), nil
}

// save rewrites the file atomically via rename; callers hold mu
func (s *FileStore) save(symbols []string) error {
	data, err := yaml.Marshal(fileFormat{Symbols: symbols})
	if err != nil {
		return fmt.Errorf("encode watchlist: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create watchlist dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".watchlist-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write watchlist: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close watchlist: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace watchlist: %w", err)
	}
	return nil
}

func normalize(symbol string) (string, error) {
	symbol = contracts.NormalizeSymbol(symbol)
	if err := contracts.ValidateSymbol(symbol); err != nil {
		return "", err
	}
	return symbol, nil
}

// normalizeAll upper-cases and drops blanks and duplicates, keeping order
func normalizeAll(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = contracts.NormalizeSymbol(s)
		if s == "" || indexOf(out, s) >= 0 {
			continue
		}
		out = append(out, s)
	}
	return out
}

func indexOf(symbols []string, symbol string) int {
	for i, s := range symbols {
		if s == symbol {
			return i
		}
	}
	return -1
}
