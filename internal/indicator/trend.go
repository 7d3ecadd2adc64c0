package indicator

import (
	"math"

	"github.com/wonny/chartsignal/internal/contracts"
)

// TrueRange returns max(high-low, |high-prevClose|, |low-prevClose|).
// Bar 0 has no previous close and uses high-low.
func TrueRange(bars contracts.Series) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		tr := b.High - b.Low
		if i > 0 {
			pc := bars[i-1].Close
			tr = math.Max(tr, math.Max(math.Abs(b.High-pc), math.Abs(b.Low-pc)))
		}
		out[i] = tr
	}
	return out
}

// ATR calculates Wilder-smoothed True Range.
// Seeded at i = period-1 with the mean of the first `period` true ranges.
func ATR(bars contracts.Series, period int) []contracts.Value {
	out := make([]contracts.Value, len(bars))
	if period < 1 || len(bars) < period {
		return out
	}

	tr := TrueRange(bars)
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += tr[i]
	}
	atr := sum / float64(period)
	out[period-1] = contracts.Some(atr)

	p := float64(period)
	for i := period; i < len(bars); i++ {
		atr = (atr*(p-1) + tr[i]) / p
		out[i] = contracts.Some(atr)
	}
	return out
}

// ADXResult holds directional indicators and ADX
type ADXResult struct {
	PlusDI  []contracts.Value
	MinusDI []contracts.Value
	DX      []contracts.Value
	ADX     []contracts.Value
}

// ADX calculates the Average Directional Index with Wilder smoothing.
// ±DI are first defined at i = period (needs `period` directional moves),
// ADX at i = 2*period-1 (seeded with the mean of the first `period` DX).
func ADX(bars contracts.Series, period int) ADXResult {
	n := len(bars)
	res := ADXResult{
		PlusDI:  make([]contracts.Value, n),
		MinusDI: make([]contracts.Value, n),
		DX:      make([]contracts.Value, n),
		ADX:     make([]contracts.Value, n),
	}
	if period < 1 || n <= period {
		return res
	}

	tr := TrueRange(bars)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		up := bars[i].High - bars[i-1].High
		down := bars[i-1].Low - bars[i].Low
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
	}

	// Wilder running sums over moves 1..period
	var smTR, smPlus, smMinus float64
	for i := 1; i <= period; i++ {
		smTR += tr[i]
		smPlus += plusDM[i]
		smMinus += minusDM[i]
	}

	p := float64(period)
	for i := period; i < n; i++ {
		if i > period {
			smTR = smTR - smTR/p + tr[i]
			smPlus = smPlus - smPlus/p + plusDM[i]
			smMinus = smMinus - smMinus/p + minusDM[i]
		}

		plusDI, minusDI := 0.0, 0.0
		if smTR > 0 {
			plusDI = 100 * smPlus / smTR
			minusDI = 100 * smMinus / smTR
		}
		dx := 0.0
		if sum := plusDI + minusDI; sum > 0 {
			dx = 100 * math.Abs(plusDI-minusDI) / sum
		}

		res.PlusDI[i] = contracts.Some(plusDI)
		res.MinusDI[i] = contracts.Some(minusDI)
		res.DX[i] = contracts.Some(dx)
	}

	seedAt := 2*period - 1
	if seedAt >= n {
		return res
	}
	sum := 0.0
	for i := period; i <= seedAt; i++ {
		sum += res.DX[i].V
	}
	adx := sum / p
	res.ADX[seedAt] = contracts.Some(adx)
	for i := seedAt + 1; i < n; i++ {
		adx = (adx*(p-1) + res.DX[i].V) / p
		res.ADX[i] = contracts.Some(adx)
	}
	return res
}
