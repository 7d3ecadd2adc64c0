package naver

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/chartsignal/internal/contracts"
)

// Fetch implements contracts.MarketDataProvider for 6-digit KRX codes.
// siseJson is the primary source; daily bars fall back to the sise_day scraper.
func (c *Client) Fetch(ctx context.Context, symbol, period, interval string) (contracts.Series, error) {
	if !contracts.IsKRXCode(symbol) {
		return nil, fmt.Errorf("naver %s: %w", symbol, contracts.ErrInvalidSymbol)
	}
	p, err := contracts.ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	timeframe, err := checkTimeframe(interval)
	if err != nil {
		return nil, err
	}

	now := c.now()
	from := p.Start(now)

	bars, err := c.FetchPrices(ctx, symbol, from, now, timeframe)
	if (err != nil || len(bars) == 0) && interval == "1d" {
		c.logger.WithFields(map[string]interface{}{
			"stock_code": symbol,
			"error":      errString(err),
		}).Warn("siseJson empty, falling back to sise_day")
		bars, err = c.FetchDaily(ctx, symbol, from)
	}
	if err != nil && len(bars) == 0 {
		return nil, fmt.Errorf("naver %s: %w: %w", symbol, contracts.ErrDataUnavailable, err)
	}

	series := usable(bars, from, now)
	if len(series) == 0 {
		return nil, fmt.Errorf("naver %s %s: no bars: %w", symbol, period, contracts.ErrDataUnavailable)
	}
	return series, nil
}

// usable keeps priced bars inside [from, to] in ascending order.
// 거래정지일은 시가/고가/저가가 0으로 내려온다.
func usable(bars contracts.Series, from, to time.Time) contracts.Series {
	lo := tradeDate(from.Year(), int(from.Month()), from.Day())
	out := make(contracts.Series, 0, len(bars))
	for _, b := range bars {
		if b.Time.Before(lo) || b.Time.After(to) {
			continue
		}
		if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			continue
		}
		out = append(out, b)
	}
	return out.Clean()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
