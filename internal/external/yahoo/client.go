package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/chartsignal/internal/contracts"
	"github.com/wonny/chartsignal/pkg/httputil"
	"github.com/wonny/chartsignal/pkg/logger"
)

// DefaultBaseURL is the public chart API host
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// Client fetches daily bars from the Yahoo chart API
// ⭐ SSOT: Yahoo Finance API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new Yahoo chart client
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("yahoo"),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Name identifies the provider in cache keys and logs
func (c *Client) Name() string {
	return "yahoo"
}

// chartResponse mirrors the subset of /v8/finance/chart we read
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol       string `json:"symbol"`
		Currency     string `json:"currency"`
		ExchangeName string `json:"exchangeName"`
		GMTOffset    int    `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// Fetch implements contracts.MarketDataProvider
func (c *Client) Fetch(ctx context.Context, symbol, period, interval string) (contracts.Series, error) {
	if _, err := contracts.ParsePeriod(period); err != nil {
		return nil, err
	}
	if err := contracts.ValidateInterval(interval); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("range", period)
	params.Set("interval", interval)
	params.Set("includePrePost", "false")
	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	var resp chartResponse
	if err := c.httpClient.GetJSON(ctx, fullURL, &resp); err != nil {
		var statusErr *httputil.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("yahoo %s: %w: %w", symbol, contracts.ErrSymbolNotFound, contracts.ErrDataUnavailable)
		}
		return nil, fmt.Errorf("yahoo %s: %w: %w", symbol, contracts.ErrDataUnavailable, err)
	}

	if e := resp.Chart.Error; e != nil {
		return nil, fmt.Errorf("yahoo %s: %s: %w", symbol, e.Description, contracts.ErrDataUnavailable)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo %s: empty result: %w", symbol, contracts.ErrDataUnavailable)
	}

	series, dropped := toSeries(resp.Chart.Result[0])
	if len(series) == 0 {
		return nil, fmt.Errorf("yahoo %s %s: no bars: %w", symbol, period, contracts.ErrDataUnavailable)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol":  symbol,
		"period":  period,
		"bars":    len(series),
		"dropped": dropped,
	}).Debug("Fetched chart")
	return series, nil
}

// toSeries converts the columnar quote arrays into bars.
// Rows with a missing or non-positive price are dropped; missing volume is 0.
func toSeries(r chartResult) (contracts.Series, int) {
	if len(r.Indicators.Quote) == 0 {
		return nil, 0
	}
	q := r.Indicators.Quote[0]
	loc := time.FixedZone(r.Meta.ExchangeName, r.Meta.GMTOffset)

	at := func(col []*float64, i int) (float64, bool) {
		if i >= len(col) || col[i] == nil {
			return 0, false
		}
		return *col[i], true
	}

	series := make(contracts.Series, 0, len(r.Timestamp))
	dropped := 0
	for i, ts := range r.Timestamp {
		o, ok1 := at(q.Open, i)
		h, ok2 := at(q.High, i)
		l, ok3 := at(q.Low, i)
		cl, ok4 := at(q.Close, i)
		if !ok1 || !ok2 || !ok3 || !ok4 || o <= 0 || h <= 0 || l <= 0 || cl <= 0 {
			dropped++
			continue
		}
		vol, _ := at(q.Volume, i)

		// 거래소 현지 날짜 기준 일봉
		local := time.Unix(ts, 0).In(loc)
		series = append(series, contracts.Bar{
			Time:   time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  cl,
			Volume: vol,
		})
	}
	return series.Clean(), dropped
}
