package contracts

import (
	"context"
)

// MarketDataProvider supplies daily price series
// ⭐ SSOT: 시세 데이터 수집 인터페이스
// Returns ErrDataUnavailable when no bars exist for the symbol/period.
type MarketDataProvider interface {
	Fetch(ctx context.Context, symbol, period, interval string) (Series, error)
}

// Notifier delivers rendered text
// ⭐ SSOT: 알림 전송 인터페이스
// Transport errors wrap ErrDeliveryFailure.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// WatchlistStore is the mutable set of tracked symbols.
// Add of a present symbol and Remove of an absent one return false without error.
type WatchlistStore interface {
	Add(ctx context.Context, symbol string) (bool, error)
	Remove(ctx context.Context, symbol string) (bool, error)
	List(ctx context.Context) ([]string, error)
	Contains(ctx context.Context, symbol string) (bool, error)
}

// SignalStore persists produced signals
// ⭐ SSOT: 시그널 저장소 인터페이스
type SignalStore interface {
	Save(ctx context.Context, signal *Signal) error
	Latest(ctx context.Context, symbol string) (*Signal, error)
	History(ctx context.Context, symbol string, limit int) ([]*Signal, error)
}
