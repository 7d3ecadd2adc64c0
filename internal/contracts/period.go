package contracts

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Period is a lookback window such as "6mo" or "1y"
type Period struct {
	Name   string
	Years  int
	Months int
	Days   int
	YTD    bool
	Max    bool
}

// Supported periods and intervals
// ⭐ SSOT: 조회 기간/간격 목록은 여기서만
var (
	periods = map[string]Period{
		"1d":  {Name: "1d", Days: 1},
		"5d":  {Name: "5d", Days: 5},
		"1mo": {Name: "1mo", Months: 1},
		"3mo": {Name: "3mo", Months: 3},
		"6mo": {Name: "6mo", Months: 6},
		"1y":  {Name: "1y", Years: 1},
		"2y":  {Name: "2y", Years: 2},
		"5y":  {Name: "5y", Years: 5},
		"10y": {Name: "10y", Years: 10},
		"ytd": {Name: "ytd", YTD: true},
		"max": {Name: "max", Max: true},
	}
	intervals = map[string]bool{"1d": true, "1wk": true, "1mo": true}
)

// ParsePeriod validates a period string
func ParsePeriod(s string) (Period, error) {
	p, ok := periods[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return Period{}, fmt.Errorf("%w: unsupported period %q", ErrInvalidRequest, s)
	}
	return p, nil
}

// ValidateInterval rejects bar sizes other than daily, weekly and monthly
func ValidateInterval(s string) error {
	if !intervals[s] {
		return fmt.Errorf("%w: unsupported interval %q", ErrInvalidRequest, s)
	}
	return nil
}

// Start returns the first date covered when looking back from now
func (p Period) Start(now time.Time) time.Time {
	switch {
	case p.Max:
		return time.Date(1970, 1, 1, 0, 0, 0, 0, now.Location())
	case p.YTD:
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
	}
	return now.AddDate(-p.Years, -p.Months, -p.Days)
}

func (p Period) String() string {
	return p.Name
}

var krxCode = regexp.MustCompile(`^\d{6}$`)

// NormalizeSymbol trims and upper-cases a ticker
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// IsKRXCode reports whether the symbol is a 6-digit Korean exchange code
func IsKRXCode(symbol string) bool {
	return krxCode.MatchString(symbol)
}

// ValidateSymbol checks a normalized ticker
func ValidateSymbol(symbol string) error {
	if symbol == "" || len(symbol) > 20 || strings.ContainsAny(symbol, " /?#&") {
		return fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	return nil
}

// Clean sorts bars by time and keeps the last bar for duplicate timestamps
func (s Series) Clean() Series {
	out := make(Series, len(s))
	copy(out, s)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })

	n := 0
	for i := range out {
		if n > 0 && out[n-1].Time.Equal(out[i].Time) {
			out[n-1] = out[i]
			continue
		}
		out[n] = out[i]
		n++
	}
	return out[:n]
}
