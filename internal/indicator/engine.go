package indicator

import (
	"fmt"
	"math"

	"github.com/wonny/chartsignal/internal/contracts"
)

// Standard periods
const (
	PeriodSMAShort  = 20
	PeriodSMAMid    = 50
	PeriodSMALong   = 200
	PeriodEMA       = 20
	PeriodRSI       = 14
	PeriodMACDFast  = 12
	PeriodMACDSlow  = 26
	PeriodMACDSig   = 9
	PeriodBollinger = 20
	BollingerK      = 2.0
	PeriodADX       = 14
	PeriodStoch     = 14
	SmoothStochK    = 3
	SmoothStochD    = 3
	PeriodATR       = 14
)

// Annotate computes every indicator for every bar.
// ⭐ SSOT: 지표 계산 진입점
// Output has the same length and order as the input. Indicator values at
// bar i depend only on bars 0..i.
func Annotate(series contracts.Series) ([]contracts.AnnotatedBar, error) {
	if err := Validate(series); err != nil {
		return nil, err
	}

	closes := series.Closes()

	sma20 := SMA(closes, PeriodSMAShort)
	sma50 := SMA(closes, PeriodSMAMid)
	sma200 := SMA(closes, PeriodSMALong)
	ema20 := EMA(closes, PeriodEMA)
	rsi := RSI(closes, PeriodRSI)
	macd := MACD(closes, PeriodMACDFast, PeriodMACDSlow, PeriodMACDSig)
	bb := Bollinger(closes, PeriodBollinger, BollingerK)
	obv := OBV(series)
	adx := ADX(series, PeriodADX)
	stoch := Stochastic(series, PeriodStoch, SmoothStochK, SmoothStochD)
	atr := ATR(series, PeriodATR)

	out := make([]contracts.AnnotatedBar, len(series))
	for i, bar := range series {
		out[i] = contracts.AnnotatedBar{
			Bar: bar,
			Indicators: contracts.Indicators{
				SMA20:      sma20[i],
				SMA50:      sma50[i],
				SMA200:     sma200[i],
				EMA20:      ema20[i],
				RSI14:      rsi[i],
				MACD:       macd.Line[i],
				MACDSignal: macd.Signal[i],
				MACDHist:   macd.Histogram[i],
				BBUpper:    bb.Upper[i],
				BBLower:    bb.Lower[i],
				BBMid:      bb.Mid[i],
				BBWidth:    bb.Width[i],
				OBV:        obv[i],
				ADX14:      adx.ADX[i],
				PlusDI14:   adx.PlusDI[i],
				MinusDI14:  adx.MinusDI[i],
				StochK:     stoch.K[i],
				StochD:     stoch.D[i],
				ATR14:      atr[i],
			},
		}
	}
	return out, nil
}

// Validate checks that the series is well formed:
// non-empty, strictly ascending timestamps, positive finite prices,
// non-negative finite volume, high >= low.
func Validate(series contracts.Series) error {
	if len(series) == 0 {
		return &contracts.SeriesError{Index: -1, Reason: "empty series"}
	}

	for i, b := range series {
		if b.Time.IsZero() {
			return &contracts.SeriesError{Index: i, Reason: "missing timestamp"}
		}
		if i > 0 && !b.Time.After(series[i-1].Time) {
			return &contracts.SeriesError{
				Index:  i,
				Reason: fmt.Sprintf("timestamp %s not after %s", b.Time.Format("2006-01-02"), series[i-1].Time.Format("2006-01-02")),
			}
		}

		prices := [...]struct {
			name string
			v    float64
		}{
			{"open", b.Open}, {"high", b.High}, {"low", b.Low}, {"close", b.Close},
		}
		for _, p := range prices {
			if math.IsNaN(p.v) || math.IsInf(p.v, 0) {
				return &contracts.SeriesError{Index: i, Reason: p.name + " is not finite"}
			}
			if p.v <= 0 {
				return &contracts.SeriesError{Index: i, Reason: fmt.Sprintf("%s must be positive: %g", p.name, p.v)}
			}
		}

		if math.IsNaN(b.Volume) || math.IsInf(b.Volume, 0) || b.Volume < 0 {
			return &contracts.SeriesError{Index: i, Reason: fmt.Sprintf("volume must be non-negative: %g", b.Volume)}
		}
		if b.High < b.Low {
			return &contracts.SeriesError{Index: i, Reason: fmt.Sprintf("high %g below low %g", b.High, b.Low)}
		}
	}
	return nil
}
