package indicator

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/chartsignal/internal/contracts"
)

var baseDate = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func seriesFromCloses(closes []float64) contracts.Series {
	s := make(contracts.Series, len(closes))
	for i, c := range closes {
		s[i] = contracts.Bar{
			Time:   baseDate.AddDate(0, 0, i),
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 1_000_000,
		}
	}
	return s
}

func linear(n int, from, to float64) []float64 {
	out := make([]float64, n)
	step := (to - from) / float64(n-1)
	for i := range out {
		out[i] = from + step*float64(i)
	}
	return out
}

// wave is a deterministic, noisy-looking price path
func wave(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		x := float64(i)
		out[i] = 100 + 10*math.Sin(x/7) + 4*math.Cos(x/3) + 0.05*x
	}
	return out
}

func assertClose(t *testing.T, label string, got contracts.Value, want float64) {
	t.Helper()
	require.True(t, got.Valid, "%s: expected defined value", label)
	assert.InDelta(t, want, got.V, 1e-9, label)
}

func firstValid(values []contracts.Value) int {
	for i, v := range values {
		if v.Valid {
			return i
		}
	}
	return -1
}

func TestSMA(t *testing.T) {
	got := SMA([]float64{1, 2, 3, 4, 5}, 3)

	require.Len(t, got, 5)
	assert.False(t, got[0].Valid)
	assert.False(t, got[1].Valid)
	assertClose(t, "sma[2]", got[2], 2)
	assertClose(t, "sma[3]", got[3], 3)
	assertClose(t, "sma[4]", got[4], 4)
}

func TestEMA(t *testing.T) {
	// α = 0.5, seed = mean(1,2,3)
	got := EMA([]float64{1, 2, 3, 4, 5}, 3)

	assert.False(t, got[1].Valid)
	assertClose(t, "ema[2]", got[2], 2)
	assertClose(t, "ema[3]", got[3], 3)
	assertClose(t, "ema[4]", got[4], 4)
}

func TestMovingAverages_WarmUp(t *testing.T) {
	closes := wave(60)
	for _, w := range []int{1, 5, 20, 50} {
		sma := SMA(closes, w)
		ema := EMA(closes, w)
		for i := range closes {
			if i < w-1 {
				assert.False(t, sma[i].Valid, "sma(%d)[%d]", w, i)
				assert.False(t, ema[i].Valid, "ema(%d)[%d]", w, i)
				continue
			}
			require.True(t, sma[i].Valid, "sma(%d)[%d]", w, i)
			require.True(t, ema[i].Valid, "ema(%d)[%d]", w, i)
			assert.False(t, math.IsNaN(sma[i].V) || math.IsInf(sma[i].V, 0))
			assert.False(t, math.IsNaN(ema[i].V) || math.IsInf(ema[i].V, 0))
		}
	}
}

func TestRSI(t *testing.T) {
	// deltas: +1, -1, +2
	got := RSI([]float64{10, 11, 10, 12}, 2)

	assert.False(t, got[1].Valid)
	assertClose(t, "rsi[2]", got[2], 50)
	// gain=(0.5+2)/2=1.25, loss=(0.5+0)/2=0.25, rs=5
	assertClose(t, "rsi[3]", got[3], 100-100.0/6)
}

func TestRSI_NoLosses(t *testing.T) {
	got := RSI(linear(30, 100, 130), 14)

	assert.Equal(t, 14, firstValid(got))
	assertClose(t, "rsi", got[29], 100)
}

func TestRSI_ShortSeries(t *testing.T) {
	got := RSI(linear(14, 100, 113), 14)
	assert.Equal(t, -1, firstValid(got))
}

func TestMACD_WarmUp(t *testing.T) {
	res := MACD(wave(60), 12, 26, 9)

	assert.Equal(t, 25, firstValid(res.Line))
	assert.Equal(t, 33, firstValid(res.Signal))
	assert.Equal(t, 33, firstValid(res.Histogram))

	for i := 33; i < 60; i++ {
		assert.InDelta(t, res.Line[i].V-res.Signal[i].V, res.Histogram[i].V, 1e-12)
	}
}

func TestBollinger(t *testing.T) {
	res := Bollinger([]float64{1, 2, 3, 4, 5}, 5, 2)

	assert.False(t, res.Mid[3].Valid)
	assertClose(t, "mid", res.Mid[4], 3)
	// population variance = 2
	assertClose(t, "upper", res.Upper[4], 3+2*math.Sqrt2)
	assertClose(t, "lower", res.Lower[4], 3-2*math.Sqrt2)
	assertClose(t, "width", res.Width[4], 4*math.Sqrt2/3)
}

func TestBollinger_FlatSeries(t *testing.T) {
	closes := make([]float64, 200)
	for i := range closes {
		closes[i] = 100
	}
	res := Bollinger(closes, 20, 2)

	last := len(closes) - 1
	assertClose(t, "width", res.Width[last], 0)
	assert.Equal(t, 0.5, BandPosition(100, res.Upper[last].V, res.Lower[last].V))
}

func TestBandPosition(t *testing.T) {
	assert.Equal(t, 0.0, BandPosition(90, 110, 90))
	assert.Equal(t, 1.0, BandPosition(110, 110, 90))
	assert.Equal(t, 0.5, BandPosition(100, 110, 90))
	assert.Equal(t, 0.5, BandPosition(100, 100, 100))
}

func TestOBV(t *testing.T) {
	bars := seriesFromCloses([]float64{10, 11, 11, 9})
	for i, v := range []float64{100, 200, 300, 400} {
		bars[i].Volume = v
	}

	got := OBV(bars)

	assertClose(t, "obv[0]", got[0], 0)
	assertClose(t, "obv[1]", got[1], 200)
	assertClose(t, "obv[2]", got[2], 200)
	assertClose(t, "obv[3]", got[3], -200)
}

func TestVolumeRatio(t *testing.T) {
	bars := seriesFromCloses([]float64{10, 10, 10, 10, 10, 10})
	for i, v := range []float64{100, 100, 100, 100, 100, 400} {
		bars[i].Volume = v
	}

	ratio, mean := VolumeRatio(bars, 5, 5)
	assert.InDelta(t, 160.0, mean, 1e-9)
	assert.InDelta(t, 2.5, ratio, 1e-9)

	// short history uses available bars
	ratio, mean = VolumeRatio(bars, 0, 5)
	assert.InDelta(t, 100.0, mean, 1e-9)
	assert.InDelta(t, 1.0, ratio, 1e-9)

	for i := range bars {
		bars[i].Volume = 0
	}
	ratio, mean = VolumeRatio(bars, 5, 5)
	assert.Equal(t, 0.0, mean)
	assert.Equal(t, 0.0, ratio)
}

func TestTrueRangeAndATR(t *testing.T) {
	bars := contracts.Series{
		{Time: baseDate, Open: 9, High: 10, Low: 8, Close: 9},
		{Time: baseDate.AddDate(0, 0, 1), Open: 10, High: 12, Low: 9, Close: 11},
		{Time: baseDate.AddDate(0, 0, 2), Open: 10, High: 11, Low: 7, Close: 8},
	}

	assert.Equal(t, []float64{2, 3, 4}, TrueRange(bars))

	atr := ATR(bars, 2)
	assert.False(t, atr[0].Valid)
	assertClose(t, "atr[1]", atr[1], 2.5)
	assertClose(t, "atr[2]", atr[2], 3.25)
}

func TestADX_StrongUptrend(t *testing.T) {
	// every high and low rises: +DM only, so DX = 100 on every bar
	res := ADX(seriesFromCloses(linear(40, 100, 140)), 14)

	assert.Equal(t, 14, firstValid(res.PlusDI))
	assert.Equal(t, 14, firstValid(res.MinusDI))
	assert.Equal(t, 27, firstValid(res.ADX))

	assertClose(t, "minusDI", res.MinusDI[39], 0)
	assertClose(t, "adx", res.ADX[39], 100)
	assert.Greater(t, res.PlusDI[39].V, 0.0)
}

func TestADX_Bounded(t *testing.T) {
	res := ADX(seriesFromCloses(wave(120)), 14)
	for i, v := range res.ADX {
		if !v.Valid {
			continue
		}
		assert.GreaterOrEqual(t, v.V, 0.0, "adx[%d]", i)
		assert.LessOrEqual(t, v.V, 100.0, "adx[%d]", i)
	}
}

func TestStochastic(t *testing.T) {
	t.Run("close at high", func(t *testing.T) {
		bars := seriesFromCloses(linear(30, 100, 130))
		for i := range bars {
			bars[i].High = bars[i].Close
		}
		res := Stochastic(bars, 14, 3, 3)

		assert.Equal(t, 13, firstValid(res.RawK))
		assert.Equal(t, 15, firstValid(res.K))
		assert.Equal(t, 17, firstValid(res.D))
		assertClose(t, "k", res.K[29], 100)
		assertClose(t, "d", res.D[29], 100)
	})

	t.Run("zero range", func(t *testing.T) {
		bars := seriesFromCloses(linear(20, 100, 100))
		for i := range bars {
			bars[i].High = 100
			bars[i].Low = 100
		}
		res := Stochastic(bars, 14, 3, 3)
		assertClose(t, "k", res.K[19], 0)
	})
}

func TestOscillators_Bounded(t *testing.T) {
	annotated, err := Annotate(seriesFromCloses(wave(300)))
	require.NoError(t, err)

	for i, a := range annotated {
		for _, v := range []contracts.Value{a.Indicators.RSI14, a.Indicators.StochK, a.Indicators.StochD} {
			if !v.Valid {
				continue
			}
			assert.GreaterOrEqual(t, v.V, 0.0, "bar %d", i)
			assert.LessOrEqual(t, v.V, 100.0, "bar %d", i)
		}
	}
}

func TestAnnotate_PreservesLengthAndOrder(t *testing.T) {
	series := seriesFromCloses(wave(250))

	annotated, err := Annotate(series)
	require.NoError(t, err)
	require.Len(t, annotated, len(series))

	for i := range series {
		assert.Equal(t, series[i], annotated[i].Bar)
	}
}

func TestAnnotate_WarmUpBoundaries(t *testing.T) {
	annotated, err := Annotate(seriesFromCloses(wave(250)))
	require.NoError(t, err)

	want := map[string]int{
		contracts.IndicatorSMA20:      19,
		contracts.IndicatorSMA50:      49,
		contracts.IndicatorSMA200:     199,
		contracts.IndicatorEMA20:      19,
		contracts.IndicatorRSI14:      14,
		contracts.IndicatorMACD:       25,
		contracts.IndicatorMACDSignal: 33,
		contracts.IndicatorMACDHist:   33,
		contracts.IndicatorBBUpper:    19,
		contracts.IndicatorBBLower:    19,
		contracts.IndicatorBBMid:      19,
		contracts.IndicatorBBWidth:    19,
		contracts.IndicatorOBV:        0,
		contracts.IndicatorADX14:      27,
		contracts.IndicatorPlusDI14:   14,
		contracts.IndicatorMinusDI14:  14,
		contracts.IndicatorStochK:     15,
		contracts.IndicatorStochD:     17,
		contracts.IndicatorATR14:      13,
	}

	for _, name := range (contracts.Indicators{}).Names() {
		values := make([]contracts.Value, len(annotated))
		for i, a := range annotated {
			v, ok := a.Indicators.Get(name)
			require.True(t, ok, name)
			values[i] = v
		}
		first, ok := want[name]
		require.True(t, ok, "missing expectation for %s", name)
		assert.Equal(t, first, firstValid(values), name)
		for i := first; i < len(values); i++ {
			assert.True(t, values[i].Valid, "%s[%d]", name, i)
		}
	}
}

func TestAnnotate_Causal(t *testing.T) {
	series := seriesFromCloses(wave(230))

	full, err := Annotate(series)
	require.NoError(t, err)

	for _, cut := range []int{1, 15, 34, 120, 210} {
		prefix, err := Annotate(series[:cut])
		require.NoError(t, err)
		for i := range prefix {
			assert.Equal(t, full[i].Indicators, prefix[i].Indicators, "cut=%d bar=%d", cut, i)
		}
	}
}

func TestAnnotate_ShortSeries(t *testing.T) {
	annotated, err := Annotate(seriesFromCloses([]float64{100}))
	require.NoError(t, err)
	require.Len(t, annotated, 1)

	assert.False(t, annotated[0].Indicators.SMA20.Valid)
	assert.True(t, annotated[0].Indicators.OBV.Valid)
}

func TestValidate(t *testing.T) {
	valid := seriesFromCloses([]float64{100, 101, 102})

	tests := []struct {
		name   string
		mutate func(s contracts.Series) contracts.Series
		index  int
	}{
		{
			name:   "empty",
			mutate: func(s contracts.Series) contracts.Series { return contracts.Series{} },
			index:  -1,
		},
		{
			name: "duplicate timestamp",
			mutate: func(s contracts.Series) contracts.Series {
				s[2].Time = s[1].Time
				return s
			},
			index: 2,
		},
		{
			name: "descending timestamp",
			mutate: func(s contracts.Series) contracts.Series {
				s[1].Time = s[0].Time.AddDate(0, 0, -1)
				return s
			},
			index: 1,
		},
		{
			name: "zero close",
			mutate: func(s contracts.Series) contracts.Series {
				s[1].Close = 0
				return s
			},
			index: 1,
		},
		{
			name: "negative open",
			mutate: func(s contracts.Series) contracts.Series {
				s[0].Open = -1
				return s
			},
			index: 0,
		},
		{
			name: "NaN high",
			mutate: func(s contracts.Series) contracts.Series {
				s[2].High = math.NaN()
				return s
			},
			index: 2,
		},
		{
			name: "negative volume",
			mutate: func(s contracts.Series) contracts.Series {
				s[1].Volume = -5
				return s
			},
			index: 1,
		},
		{
			name: "high below low",
			mutate: func(s contracts.Series) contracts.Series {
				s[0].High, s[0].Low = s[0].Low, s[0].High
				return s
			},
			index: 0,
		},
	}

	require.NoError(t, Validate(valid))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := make(contracts.Series, len(valid))
			copy(s, valid)

			bad := tt.mutate(s)

			err := Validate(bad)
			require.Error(t, err)
			assert.True(t, errors.Is(err, contracts.ErrInvalidSeries))

			var se *contracts.SeriesError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.index, se.Index)

			_, annErr := Annotate(bad)
			assert.ErrorIs(t, annErr, contracts.ErrInvalidSeries)
		})
	}
}
