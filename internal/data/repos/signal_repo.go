package repos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/chartsignal/internal/contracts"
)

// SignalRepository implements contracts.SignalStore
// ⭐ SSOT: Signal 데이터 저장/조회는 여기서만
type SignalRepository struct {
	pool *pgxpool.Pool
}

// NewSignalRepository creates a new signal repository
func NewSignalRepository(pool *pgxpool.Pool) *SignalRepository {
	return &SignalRepository{pool: pool}
}

const signalColumns = `
	symbol, as_of, price, change_pct, overall_signal, signal_strength,
	raw_score, rule_count, sub_signals
`

// Save upserts the signal for (symbol, as_of)
func (r *SignalRepository) Save(ctx context.Context, sig *contracts.Signal) error {
	subs, err := json.Marshal(sig.SubSignals)
	if err != nil {
		return fmt.Errorf("failed to encode sub-signals: %w", err)
	}

	query := `
		INSERT INTO signals.daily_signals (` + signalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (symbol, as_of) DO UPDATE SET
			price           = EXCLUDED.price,
			change_pct      = EXCLUDED.change_pct,
			overall_signal  = EXCLUDED.overall_signal,
			signal_strength = EXCLUDED.signal_strength,
			raw_score       = EXCLUDED.raw_score,
			rule_count      = EXCLUDED.rule_count,
			sub_signals     = EXCLUDED.sub_signals,
			created_at      = NOW()
	`

	_, err = r.pool.Exec(ctx, query,
		sig.Symbol, sig.AsOf, sig.Price, sig.ChangePct, string(sig.Overall), sig.Strength,
		sig.RawScore, sig.RuleCount, subs,
	)
	if err != nil {
		return fmt.Errorf("failed to save signal %s: %w", sig.Symbol, err)
	}
	return nil
}

// Latest returns the most recent signal for symbol
func (r *SignalRepository) Latest(ctx context.Context, symbol string) (*contracts.Signal, error) {
	query := `
		SELECT ` + signalColumns + `
		FROM signals.daily_signals
		WHERE symbol = $1
		ORDER BY as_of DESC
		LIMIT 1
	`

	sig, err := scanSignal(r.pool.QueryRow(ctx, query, symbol))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", symbol, contracts.ErrSignalNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load signal %s: %w", symbol, err)
	}
	return sig, nil
}

// History returns up to limit signals for symbol, newest first
func (r *SignalRepository) History(ctx context.Context, symbol string, limit int) ([]*contracts.Signal, error) {
	if limit <= 0 {
		limit = 30
	}

	query := `
		SELECT ` + signalColumns + `
		FROM signals.daily_signals
		WHERE symbol = $1
		ORDER BY as_of DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()

	var out []*contracts.Signal
	for rows.Next() {
		sig, err := scanSignal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// scanSignal reads one row in signalColumns order
func scanSignal(row pgx.Row) (*contracts.Signal, error) {
	var (
		sig     contracts.Signal
		overall string
		subs    []byte
	)
	err := row.Scan(
		&sig.Symbol, &sig.AsOf, &sig.Price, &sig.ChangePct, &overall, &sig.Strength,
		&sig.RawScore, &sig.RuleCount, &subs,
	)
	if err != nil {
		return nil, err
	}

	sig.Overall = contracts.Label(overall)
	if err := json.Unmarshal(subs, &sig.SubSignals); err != nil {
		return nil, fmt.Errorf("failed to decode sub-signals: %w", err)
	}
	return &sig, nil
}
