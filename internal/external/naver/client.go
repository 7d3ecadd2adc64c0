package naver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/chartsignal/pkg/httputil"
	"github.com/wonny/chartsignal/pkg/logger"
)

// Default hosts
const (
	DefaultChartURL   = "https://fchart.stock.naver.com"
	DefaultFinanceURL = "https://finance.naver.com"
)

// defaultMaxPages bounds the sise_day fallback (10 rows per page)
const defaultMaxPages = 30

// Client handles communication with Naver Finance
// ⭐ SSOT: Naver Finance API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	chartURL   string
	financeURL string
	maxPages   int
	now        func() time.Time
}

// NewClient creates a new Naver Finance client.
// The http client gets Naver's Referer header, so pass a dedicated one.
func NewClient(httpClient *httputil.Client, log *logger.Logger, chartURL, financeURL string) *Client {
	if chartURL == "" {
		chartURL = DefaultChartURL
	}
	if financeURL == "" {
		financeURL = DefaultFinanceURL
	}
	financeURL = strings.TrimRight(financeURL, "/")

	return &Client{
		httpClient: httpClient.WithHeader("Referer", financeURL+"/"),
		logger:     log.WithComponent("naver"),
		chartURL:   strings.TrimRight(chartURL, "/"),
		financeURL: financeURL,
		maxPages:   defaultMaxPages,
		now:        time.Now,
	}
}

// Name identifies the provider in cache keys and logs
func (c *Client) Name() string {
	return "naver"
}

// fetchBody fetches a page body from one of the Naver hosts
func (c *Client) fetchBody(ctx context.Context, base, path string, params url.Values) (string, error) {
	fullURL := fmt.Sprintf("%s%s", base, path)
	if len(params) > 0 {
		fullURL = fmt.Sprintf("%s?%s", fullURL, params.Encode())
	}

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &httputil.StatusError{StatusCode: resp.StatusCode, URL: path}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return string(body), nil
}

// tradeDate builds the UTC-midnight bar time for a KRX trading day
func tradeDate(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}
