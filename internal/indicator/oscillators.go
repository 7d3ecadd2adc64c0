package indicator

import (
	"math"

	"github.com/wonny/chartsignal/internal/contracts"
)

// RSI calculates the Relative Strength Index with Wilder smoothing.
// The seed at i = period is the simple mean of the first `period` deltas.
func RSI(closes []float64, period int) []contracts.Value {
	out := make([]contracts.Value, len(closes))
	if period < 1 || len(closes) <= period {
		return out
	}

	var gain, loss float64
	for i := 1; i <= period; i++ {
		g, l := split(closes[i] - closes[i-1])
		gain += g
		loss += l
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)
	out[period] = contracts.Some(rsiFrom(avgGain, avgLoss))

	p := float64(period)
	for i := period + 1; i < len(closes); i++ {
		g, l := split(closes[i] - closes[i-1])
		avgGain = (avgGain*(p-1) + g) / p
		avgLoss = (avgLoss*(p-1) + l) / p
		out[i] = contracts.Some(rsiFrom(avgGain, avgLoss))
	}
	return out
}

func split(delta float64) (gain, loss float64) {
	if delta > 0 {
		return delta, 0
	}
	return 0, -delta
}

func rsiFrom(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// StochasticResult holds slow %K and %D
type StochasticResult struct {
	RawK []contracts.Value
	K    []contracts.Value
	D    []contracts.Value
}

// Stochastic calculates Stochastic(period, smoothK, smoothD).
// Raw %K is 0 when the high-low range is 0.
func Stochastic(bars contracts.Series, period, smoothK, smoothD int) StochasticResult {
	raw := make([]contracts.Value, len(bars))
	if period >= 1 {
		for i := period - 1; i < len(bars); i++ {
			hh := math.Inf(-1)
			ll := math.Inf(1)
			for j := i - period + 1; j <= i; j++ {
				hh = math.Max(hh, bars[j].High)
				ll = math.Min(ll, bars[j].Low)
			}
			rng := hh - ll
			if rng == 0 {
				raw[i] = contracts.Some(0)
				continue
			}
			// close outside [low, high] (adjusted feeds) is clamped to keep %K in [0, 100]
			raw[i] = contracts.Some(clamp(100*(bars[i].Close-ll)/rng, 0, 100))
		}
	}

	k := smaValues(raw, smoothK)
	d := smaValues(k, smoothD)
	return StochasticResult{RawK: raw, K: k, D: d}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
