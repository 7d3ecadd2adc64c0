package indicator

import "github.com/wonny/chartsignal/internal/contracts"

// MACDResult holds the three MACD lines
type MACDResult struct {
	Line      []contracts.Value
	Signal    []contracts.Value
	Histogram []contracts.Value
}

// MACD calculates EMA(fast) - EMA(slow), its EMA(signal) and the histogram
func MACD(closes []float64, fast, slow, signal int) MACDResult {
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)

	line := make([]contracts.Value, len(closes))
	for i := range closes {
		if emaFast[i].Valid && emaSlow[i].Valid {
			line[i] = contracts.Some(emaFast[i].V - emaSlow[i].V)
		}
	}

	sig := emaValues(line, signal)

	hist := make([]contracts.Value, len(closes))
	for i := range closes {
		if line[i].Valid && sig[i].Valid {
			hist[i] = contracts.Some(line[i].V - sig[i].V)
		}
	}

	return MACDResult{Line: line, Signal: sig, Histogram: hist}
}
