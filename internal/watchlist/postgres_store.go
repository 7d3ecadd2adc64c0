package watchlist

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps the watchlist in signals.watchlist
// ⭐ SSOT: DB 기반 관심종목은 여기서만
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a pgx-backed store. The table comes from database.EnsureSchema.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Add implements contracts.WatchlistStore
func (s *PostgresStore) Add(ctx context.Context, symbol string) (bool, error) {
	symbol, err := normalize(symbol)
	if err != nil {
		return false, err
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO signals.watchlist (symbol)
		VALUES ($1)
		ON CONFLICT (symbol) DO NOTHING
	`, symbol)
	if err != nil {
		return false, fmt.Errorf("failed to add %s: %w", symbol, err)
	}
	return tag.RowsAffected() == 1, nil
}

// Remove implements contracts.WatchlistStore
func (s *PostgresStore) Remove(ctx context.Context, symbol string) (bool, error) {
	symbol, err := normalize(symbol)
	if err != nil {
		return false, err
	}

	tag, err := s.pool.Exec(ctx, `DELETE FROM signals.watchlist WHERE symbol = $1`, symbol)
	if err != nil {
		return false, fmt.Errorf("failed to remove %s: %w", symbol, err)
	}
	return tag.RowsAffected() == 1, nil
}

// List implements contracts.WatchlistStore
func (s *PostgresStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT symbol
		FROM signals.watchlist
		ORDER BY added_at, symbol
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		symbols = append(symbols, symbol)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return symbols, nil
}

// Contains implements contracts.WatchlistStore
func (s *PostgresStore) Contains(ctx context.Context, symbol string) (bool, error) {
	symbol, err := normalize(symbol)
	if err != nil {
		return false, err
	}

	var exists bool
	err = s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM signals.watchlist WHERE symbol = $1)`, symbol,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", symbol, err)
	}
	return exists, nil
}
