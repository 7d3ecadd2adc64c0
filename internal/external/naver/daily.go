package naver

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/chartsignal/internal/contracts"
)

var dailyDateRe = regexp.MustCompile(`^\d{4}\.\d{2}\.\d{2}$`)

// FetchDaily scrapes the sise_day table, newest page first, until bars older
// than from appear or the pager ends
// ⭐ SSOT: 일별 시세 HTML 파싱은 이 함수에서만
func (c *Client) FetchDaily(ctx context.Context, stockCode string, from time.Time) (contracts.Series, error) {
	var all contracts.Series

	// Naver Finance 페이지네이션 처리
	for page := 1; page <= c.maxPages; page++ {
		select {
		case <-ctx.Done():
			return all, ctx.Err()
		default:
		}

		params := url.Values{}
		params.Set("code", stockCode)
		params.Set("page", strconv.Itoa(page))

		body, err := c.fetchBody(ctx, c.financeURL, "/item/sise_day.naver", params)
		if err != nil {
			return all, fmt.Errorf("sise_day page %d: %w", page, err)
		}

		bars, oldest, hasMore := parseDailyHTML(body)
		all = append(all, bars...)

		// 기준일보다 이전 데이터면 종료
		if !oldest.IsZero() && oldest.Before(from) {
			break
		}
		if !hasMore || len(bars) == 0 {
			break
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"stock_code": stockCode,
		"count":      len(all),
	}).Debug("Scraped daily prices")
	return all, nil
}

// parseDailyHTML parses one sise_day page.
// 컬럼: 날짜 | 종가 | 전일비 | 시가 | 고가 | 저가 | 거래량
func parseDailyHTML(html string) (contracts.Series, time.Time, bool) {
	var bars contracts.Series
	var oldest time.Time

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return bars, oldest, false
	}

	parseNum := func(s string) float64 {
		s = strings.TrimSpace(s)
		s = strings.ReplaceAll(s, ",", "")
		if s == "" || s == "-" {
			return 0
		}
		f, _ := strconv.ParseFloat(s, 64)
		return f
	}

	doc.Find("table.type2 tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 7 {
			return
		}

		dateText := strings.TrimSpace(cells.Eq(0).Text())
		if !dailyDateRe.MatchString(dateText) {
			return
		}
		t, err := time.Parse("2006.01.02", dateText)
		if err != nil {
			return
		}
		date := tradeDate(t.Year(), int(t.Month()), t.Day())
		if oldest.IsZero() || date.Before(oldest) {
			oldest = date
		}

		bars = append(bars, contracts.Bar{
			Time:   date,
			Close:  parseNum(cells.Eq(1).Text()),
			Open:   parseNum(cells.Eq(3).Text()),
			High:   parseNum(cells.Eq(4).Text()),
			Low:    parseNum(cells.Eq(5).Text()),
			Volume: parseNum(cells.Eq(6).Text()),
		})
	})

	// 다음 페이지 존재 여부 확인
	hasMore := doc.Find(".pgRR").Length() > 0
	return bars, oldest, hasMore
}
