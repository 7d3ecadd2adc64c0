package indicator

import (
	"math"

	"github.com/wonny/chartsignal/internal/contracts"
)

// BollingerResult holds band values per bar
type BollingerResult struct {
	Upper []contracts.Value
	Mid   []contracts.Value
	Lower []contracts.Value
	Width []contracts.Value
}

// Bollinger calculates SMA(period) ± k × population standard deviation.
// Width = (Upper-Lower)/Mid, undefined when Mid is 0.
func Bollinger(closes []float64, period int, k float64) BollingerResult {
	n := len(closes)
	res := BollingerResult{
		Upper: make([]contracts.Value, n),
		Mid:   SMA(closes, period),
		Lower: make([]contracts.Value, n),
		Width: make([]contracts.Value, n),
	}

	for i := range closes {
		if !res.Mid[i].Valid {
			continue
		}
		mid := res.Mid[i].V

		variance := 0.0
		for j := i - period + 1; j <= i; j++ {
			d := closes[j] - mid
			variance += d * d
		}
		std := math.Sqrt(variance / float64(period))

		upper := mid + k*std
		lower := mid - k*std
		res.Upper[i] = contracts.Some(upper)
		res.Lower[i] = contracts.Some(lower)
		if mid != 0 {
			res.Width[i] = contracts.Some((upper - lower) / mid)
		}
	}
	return res
}

// BandPosition locates close inside the band: 0 at lower, 1 at upper.
// Returns 0.5 when the band has zero width.
func BandPosition(price, upper, lower float64) float64 {
	rng := upper - lower
	if rng == 0 {
		return 0.5
	}
	return (price - lower) / rng
}
