package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/chartsignal/internal/contracts"
)

// timeframes maps chart intervals to siseJson timeframe values
var timeframes = map[string]string{
	"1d":  "day",
	"1wk": "week",
	"1mo": "month",
}

var priceRowRe = regexp.MustCompile(`\["(\d{8})",\s*([\d.]+),\s*([\d.]+),\s*([\d.]+),\s*([\d.]+),\s*([\d.]+)`)

// FetchPrices fetches OHLCV bars from the siseJson chart endpoint
// ⭐ SSOT: Naver Finance 가격 API 호출은 이 함수에서만
func (c *Client) FetchPrices(ctx context.Context, stockCode string, from, to time.Time, timeframe string) (contracts.Series, error) {
	params := url.Values{}
	params.Set("symbol", stockCode)
	params.Set("requestType", "1")
	params.Set("startTime", from.Format("20060102"))
	params.Set("endTime", to.Format("20060102"))
	params.Set("timeframe", timeframe)

	body, err := c.fetchBody(ctx, c.chartURL, "/siseJson.naver", params)
	if err != nil {
		return nil, err
	}

	prices := parsePriceResponse(body)

	c.logger.WithFields(map[string]interface{}{
		"stock_code": stockCode,
		"timeframe":  timeframe,
		"count":      len(prices),
	}).Debug("Fetched prices")
	return prices, nil
}

// parsePriceResponse parses the siseJson body.
// The endpoint returns a JS array literal with single quotes, so JSON may fail.
func parsePriceResponse(body string) contracts.Series {
	body = strings.TrimSpace(body)
	body = strings.ReplaceAll(body, "'", "\"")

	// Try JSON parsing first
	var rawData [][]interface{}
	if err := json.Unmarshal([]byte(body), &rawData); err == nil {
		return parsePriceJSON(rawData)
	}

	// Fallback to regex parsing
	return parsePriceRegex(body)
}

// parsePriceJSON parses the JSON array format; row 0 is the header
func parsePriceJSON(rawData [][]interface{}) contracts.Series {
	var prices contracts.Series
	for i, row := range rawData {
		if i == 0 || len(row) < 6 {
			continue // Skip header
		}

		dateStr, ok := row[0].(string)
		if !ok {
			continue
		}
		date, ok := parseCompactDate(strings.TrimSpace(dateStr))
		if !ok {
			continue
		}

		prices = append(prices, contracts.Bar{
			Time:   date,
			Open:   toFloat64(row[1]),
			High:   toFloat64(row[2]),
			Low:    toFloat64(row[3]),
			Close:  toFloat64(row[4]),
			Volume: toFloat64(row[5]),
		})
	}
	return prices
}

// parsePriceRegex parses using regex (fallback)
func parsePriceRegex(body string) contracts.Series {
	matches := priceRowRe.FindAllStringSubmatch(body, -1)

	var prices contracts.Series
	for _, match := range matches {
		date, ok := parseCompactDate(match[1])
		if !ok {
			continue
		}

		prices = append(prices, contracts.Bar{
			Time:   date,
			Open:   toFloat64(match[2]),
			High:   toFloat64(match[3]),
			Low:    toFloat64(match[4]),
			Close:  toFloat64(match[5]),
			Volume: toFloat64(match[6]),
		})
	}
	return prices
}

// parseCompactDate parses YYYYMMDD
func parseCompactDate(s string) (time.Time, bool) {
	if len(s) != 8 {
		return time.Time{}, false
	}
	t, err := time.Parse("20060102", s)
	if err != nil {
		return time.Time{}, false
	}
	return tradeDate(t.Year(), int(t.Month()), t.Day()), true
}

// toFloat64 converts various types to float64
func toFloat64(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int64:
		return float64(val)
	case int:
		return float64(val)
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(val), ",", ""), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// checkTimeframe resolves an interval to a siseJson timeframe
func checkTimeframe(interval string) (string, error) {
	tf, ok := timeframes[interval]
	if !ok {
		return "", fmt.Errorf("%w: naver does not serve interval %q", contracts.ErrInvalidRequest, interval)
	}
	return tf, nil
}
