package marketdata

import (
	"context"

	"github.com/wonny/chartsignal/internal/contracts"
)

// Provider is a named market data source
type Provider interface {
	contracts.MarketDataProvider
	Name() string
}

// Router sends 6-digit KRX codes to the Korean provider and everything else
// to the global one
// ⭐ SSOT: 종목코드 → 데이터 소스 라우팅은 여기서만
type Router struct {
	krx    Provider
	global Provider
}

// NewRouter creates a router. krx may be nil when no Korean source is configured.
func NewRouter(krx, global Provider) *Router {
	return &Router{krx: krx, global: global}
}

// Name identifies the router in cache keys
func (r *Router) Name() string {
	return "router"
}

// For returns the provider that serves symbol
func (r *Router) For(symbol string) Provider {
	if r.krx != nil && contracts.IsKRXCode(symbol) {
		return r.krx
	}
	return r.global
}

// Fetch implements contracts.MarketDataProvider
func (r *Router) Fetch(ctx context.Context, symbol, period, interval string) (contracts.Series, error) {
	symbol = contracts.NormalizeSymbol(symbol)
	if err := contracts.ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	return r.For(symbol).Fetch(ctx, symbol, period, interval)
}
