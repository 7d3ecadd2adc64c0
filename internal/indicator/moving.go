package indicator

import "github.com/wonny/chartsignal/internal/contracts"

// SMA calculates the simple moving average over a trailing window.
// Undefined for i < window-1.
func SMA(values []float64, window int) []contracts.Value {
	return smaValues(defined(values), window)
}

// EMA calculates the exponential moving average, α = 2/(window+1),
// seeded at i = window-1 with SMA(window).
func EMA(values []float64, window int) []contracts.Value {
	return emaValues(defined(values), window)
}

// smaValues averages the trailing window; any undefined input inside the window
// leaves the output undefined.
func smaValues(in []contracts.Value, window int) []contracts.Value {
	out := make([]contracts.Value, len(in))
	if window < 1 {
		return out
	}

	for i := window - 1; i < len(in); i++ {
		sum := 0.0
		ok := true
		for j := i - window + 1; j <= i; j++ {
			if !in[j].Valid {
				ok = false
				break
			}
			sum += in[j].V
		}
		if ok {
			out[i] = contracts.Some(sum / float64(window))
		}
	}
	return out
}

// emaValues runs the EMA recurrence starting at the first defined input.
// The seed is the SMA of the first `window` defined values.
func emaValues(in []contracts.Value, window int) []contracts.Value {
	out := make([]contracts.Value, len(in))
	if window < 1 {
		return out
	}

	start := firstDefined(in)
	if start < 0 {
		return out
	}
	seedAt := start + window - 1
	if seedAt >= len(in) {
		return out
	}

	sum := 0.0
	for j := start; j <= seedAt; j++ {
		sum += in[j].V
	}
	ema := sum / float64(window)
	out[seedAt] = contracts.Some(ema)

	alpha := 2.0 / float64(window+1)
	for i := seedAt + 1; i < len(in); i++ {
		if !in[i].Valid {
			// 연속 구간만 지원
			break
		}
		ema = alpha*in[i].V + (1-alpha)*ema
		out[i] = contracts.Some(ema)
	}
	return out
}

func defined(values []float64) []contracts.Value {
	out := make([]contracts.Value, len(values))
	for i, v := range values {
		out[i] = contracts.Some(v)
	}
	return out
}

func firstDefined(in []contracts.Value) int {
	for i, v := range in {
		if v.Valid {
			return i
		}
	}
	return -1
}
