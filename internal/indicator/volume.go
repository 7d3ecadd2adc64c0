package indicator

import "github.com/wonny/chartsignal/internal/contracts"

// OBV calculates On-Balance Volume, seeded with 0 at bar 0
func OBV(bars contracts.Series) []contracts.Value {
	out := make([]contracts.Value, len(bars))
	if len(bars) == 0 {
		return out
	}

	obv := 0.0
	out[0] = contracts.Some(obv)
	for i := 1; i < len(bars); i++ {
		switch {
		case bars[i].Close > bars[i-1].Close:
			obv += bars[i].Volume
		case bars[i].Close < bars[i-1].Close:
			obv -= bars[i].Volume
		}
		out[i] = contracts.Some(obv)
	}
	return out
}

// VolumeRatio divides the bar's volume by the mean of the trailing `window`
// volumes (current bar included, fewer when history is short).
// A zero mean is treated as 1.
func VolumeRatio(bars contracts.Series, i, window int) (ratio, mean float64) {
	if i < 0 || i >= len(bars) || window < 1 {
		return 0, 0
	}

	start := i - window + 1
	if start < 0 {
		start = 0
	}
	sum := 0.0
	for j := start; j <= i; j++ {
		sum += bars[j].Volume
	}
	mean = sum / float64(i-start+1)

	denom := mean
	if denom == 0 {
		denom = 1
	}
	return bars[i].Volume / denom, mean
}
