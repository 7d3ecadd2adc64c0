package scorer

import (
	"fmt"
	"math"

	"github.com/wonny/chartsignal/internal/contracts"
	"github.com/wonny/chartsignal/internal/indicator"
)

// alwaysRules is the number of rules that count toward the denominator on
// every evaluation: sma20, sma50, sma200, rsi, macd, bollinger, adx,
// stochastic, volume. Crossovers add one each when they fire.
const alwaysRules = 9

// macdTolerance is the relative gap below which the MACD line and its signal
// line compare equal. On a steady trend both converge to the same value and
// the remaining difference is float rounding.
const macdTolerance = 1e-9

// Scorer reduces an annotated series to one Signal
// ⭐ SSOT: 종합 시그널 점수 계산은 여기서만
type Scorer struct {
	weights Weights
}

// New creates a scorer with the given weights
func New(w Weights) *Scorer {
	return &Scorer{weights: w}
}

// NewDefault creates a scorer with DefaultWeights
func NewDefault() *Scorer {
	return New(DefaultWeights())
}

// Weights returns the active rule table
func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score evaluates the rule table on the latest bar (and the one before it
// where a rule needs it). Fewer than 2 bars: change is 0 and no crossover fires.
func (s *Scorer) Score(symbol string, bars []contracts.AnnotatedBar) (*contracts.Signal, error) {
	n := len(bars)
	if n == 0 {
		return nil, fmt.Errorf("score %s: %w", symbol, contracts.ErrInsufficientData)
	}

	cur := bars[n-1]
	var prev *contracts.AnnotatedBar
	if n >= 2 {
		prev = &bars[n-2]
	}

	e := &evaluation{count: alwaysRules}

	s.movingAverage(e, cur, contracts.RuleSMA20, indicator.PeriodSMAShort, cur.Indicators.SMA20, s.weights.Rules.SMA20)
	s.movingAverage(e, cur, contracts.RuleSMA50, indicator.PeriodSMAMid, cur.Indicators.SMA50, s.weights.Rules.SMA50)
	s.movingAverage(e, cur, contracts.RuleSMA200, indicator.PeriodSMALong, cur.Indicators.SMA200, s.weights.Rules.SMA200)
	s.goldenDeathCross(e, cur, prev)
	s.rsi(e, cur)
	s.macdLevel(e, cur)
	s.macdCrossover(e, cur, prev)
	s.bollinger(e, cur)
	s.adx(e, cur)
	s.stochastic(e, cur)
	s.volume(e, bars)

	normalized := s.Normalize(e.score, e.count)

	changePct := 0.0
	if prev != nil && prev.Close != 0 {
		changePct = (cur.Close/prev.Close - 1) * 100
	}

	return &contracts.Signal{
		Symbol:     symbol,
		AsOf:       cur.Time,
		Price:      contracts.Round2(cur.Close),
		ChangePct:  contracts.Round2(changePct),
		SubSignals: e.subs,
		Overall:    s.LabelFor(normalized),
		Strength:   contracts.Round2(normalized),
		RawScore:   e.score,
		RuleCount:  e.count,
	}, nil
}

// Normalize maps a raw score into [-Clamp, Clamp]
func (s *Scorer) Normalize(score float64, count int) float64 {
	if count <= 0 {
		return 0
	}
	v := score / (float64(count) * s.weights.Normalization.Factor)
	limit := s.weights.Normalization.Clamp
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}

// LabelFor maps a normalized score to its label band
func (s *Scorer) LabelFor(normalized float64) contracts.Label {
	l := s.weights.Labels
	switch {
	case normalized > l.StrongBuy:
		return contracts.LabelStrongBuy
	case normalized > l.Buy:
		return contracts.LabelBuy
	case normalized > l.Neutral:
		return contracts.LabelNeutral
	case normalized > l.Sell:
		return contracts.LabelSell
	default:
		return contracts.LabelStrongSell
	}
}

type evaluation struct {
	score float64
	count int
	subs  contracts.SubSignals
}

func (e *evaluation) add(sub contracts.SubSignal) {
	e.score += sub.Contribution()
	e.subs = append(e.subs, sub)
}

// fired adds a crossover; crossovers extend the denominator
func (e *evaluation) fired(sub contracts.SubSignal) {
	e.count++
	e.add(sub)
}

// directional returns (+w, bullish) or (-w, bearish)
func directional(up bool, w float64) (contracts.Kind, float64) {
	if up {
		return contracts.KindBullish, w
	}
	return contracts.KindBearish, -w
}

func (s *Scorer) movingAverage(e *evaluation, cur contracts.AnnotatedBar, rule string, window int, avg contracts.Value, w float64) {
	sub := contracts.MovingAverageSignal{
		Rule:    rule,
		Kind:    contracts.KindNeutral,
		Window:  window,
		Close:   cur.Close,
		Average: avg,
	}
	// Warm-up (no average yet) stays neutral with Δ0 and still counts.
	// A missing SMA200 on a short fetch is not read as a downtrend.
	if avg.Valid {
		sub.Kind, sub.Delta = directional(cur.Close > avg.V, w)
	}
	e.add(sub)
}

func (s *Scorer) goldenDeathCross(e *evaluation, cur contracts.AnnotatedBar, prev *contracts.AnnotatedBar) {
	if prev == nil {
		return
	}
	pf, ps := prev.Indicators.SMA50, prev.Indicators.SMA200
	cf, cs := cur.Indicators.SMA50, cur.Indicators.SMA200
	if !pf.Valid || !ps.Valid || !cf.Valid || !cs.Valid {
		return
	}

	w := s.weights.Rules.Cross
	switch {
	case pf.V <= ps.V && cf.V > cs.V:
		e.fired(contracts.CrossoverSignal{
			Rule: contracts.RuleGoldenCross, Kind: contracts.KindBullish, Delta: w,
			Fast: cf.V, Slow: cs.V,
		})
	case pf.V >= ps.V && cf.V < cs.V:
		e.fired(contracts.CrossoverSignal{
			Rule: contracts.RuleDeathCross, Kind: contracts.KindBearish, Delta: -w,
			Fast: cf.V, Slow: cs.V,
		})
	}
}

func (s *Scorer) rsi(e *evaluation, cur contracts.AnnotatedBar) {
	v := cur.Indicators.RSI14
	sub := contracts.OscillatorSignal{Rule: contracts.RuleRSI, Kind: contracts.KindNeutral, Value: v}
	if v.Valid {
		t := s.weights.Thresholds
		switch {
		case v.V < t.RSIOversold:
			sub.Kind, sub.Delta = contracts.KindOversold, s.weights.Rules.RSI
		case v.V > t.RSIOverbought:
			sub.Kind, sub.Delta = contracts.KindOverbought, -s.weights.Rules.RSI
		}
	}
	e.add(sub)
}

func (s *Scorer) macdLevel(e *evaluation, cur contracts.AnnotatedBar) {
	line, sig := cur.Indicators.MACD, cur.Indicators.MACDSignal
	sub := contracts.OscillatorSignal{Rule: contracts.RuleMACD, Kind: contracts.KindNeutral, Value: line, Reference: sig}
	if line.Valid && sig.Valid {
		// a tie is not above: bearish
		sub.Kind, sub.Delta = directional(compareMACD(line.V, sig.V) > 0, s.weights.Rules.MACD)
	}
	e.add(sub)
}

func (s *Scorer) macdCrossover(e *evaluation, cur contracts.AnnotatedBar, prev *contracts.AnnotatedBar) {
	if prev == nil {
		return
	}
	pl, ps := prev.Indicators.MACD, prev.Indicators.MACDSignal
	cl, cs := cur.Indicators.MACD, cur.Indicators.MACDSignal
	if !pl.Valid || !ps.Valid || !cl.Valid || !cs.Valid {
		return
	}

	w := s.weights.Rules.MACDCrossover
	before, now := compareMACD(pl.V, ps.V), compareMACD(cl.V, cs.V)
	switch {
	case before <= 0 && now > 0:
		e.fired(contracts.CrossoverSignal{
			Rule: contracts.RuleMACDCrossover, Kind: contracts.KindBullish, Delta: w,
			Fast: cl.V, Slow: cs.V,
		})
	case before >= 0 && now < 0:
		e.fired(contracts.CrossoverSignal{
			Rule: contracts.RuleMACDCrossover, Kind: contracts.KindBearish, Delta: -w,
			Fast: cl.V, Slow: cs.V,
		})
	}
}

// compareMACD returns 1 when line is above signal, -1 when below and 0 when
// they are equal within macdTolerance
func compareMACD(line, signal float64) int {
	tol := macdTolerance * math.Max(1, math.Abs(signal))
	switch {
	case line-signal > tol:
		return 1
	case signal-line > tol:
		return -1
	}
	return 0
}

func (s *Scorer) bollinger(e *evaluation, cur contracts.AnnotatedBar) {
	upper, lower := cur.Indicators.BBUpper, cur.Indicators.BBLower
	sub := contracts.OscillatorSignal{Rule: contracts.RuleBollinger, Kind: contracts.KindNeutral, Reference: cur.Indicators.BBWidth}
	if upper.Valid && lower.Valid {
		pos := indicator.BandPosition(cur.Close, upper.V, lower.V)
		sub.Value = contracts.Some(pos)

		t := s.weights.Thresholds
		switch {
		case pos > t.BollingerHigh:
			sub.Kind, sub.Delta = contracts.KindOverbought, -s.weights.Rules.Bollinger
		case pos < t.BollingerLow:
			sub.Kind, sub.Delta = contracts.KindOversold, s.weights.Rules.Bollinger
		}
	}
	e.add(sub)
}

// adx is informational; moderate trend strength reports neutral
func (s *Scorer) adx(e *evaluation, cur contracts.AnnotatedBar) {
	v := cur.Indicators.ADX14
	sub := contracts.TrendSignal{
		Rule:    contracts.RuleADX,
		Kind:    contracts.KindNeutral,
		ADX:     v,
		PlusDI:  cur.Indicators.PlusDI14,
		MinusDI: cur.Indicators.MinusDI14,
	}
	if v.Valid {
		switch {
		case v.V > s.weights.Thresholds.ADXStrong:
			sub.Kind = contracts.KindStrongTrend
		case v.V < s.weights.Thresholds.ADXWeak:
			sub.Kind = contracts.KindWeakTrend
		}
	}
	e.add(sub)
}

func (s *Scorer) stochastic(e *evaluation, cur contracts.AnnotatedBar) {
	k, d := cur.Indicators.StochK, cur.Indicators.StochD
	sub := contracts.OscillatorSignal{Rule: contracts.RuleStochastic, Kind: contracts.KindNeutral, Value: k, Reference: d}
	if k.Valid && d.Valid {
		t := s.weights.Thresholds
		switch {
		case k.V < t.StochOversold && d.V < t.StochOversold:
			sub.Kind, sub.Delta = contracts.KindOversold, s.weights.Rules.Stochastic
		case k.V > t.StochOverbought && d.V > t.StochOverbought:
			sub.Kind, sub.Delta = contracts.KindOverbought, -s.weights.Rules.Stochastic
		}
	}
	e.add(sub)
}

// volume: a spike is bullish only when close rose vs previous close
func (s *Scorer) volume(e *evaluation, bars []contracts.AnnotatedBar) {
	n := len(bars)
	window := s.weights.Thresholds.VolumeMeanWindow
	start := n - window
	if start < 0 {
		start = 0
	}
	tail := make(contracts.Series, 0, n-start)
	for _, b := range bars[start:] {
		tail = append(tail, b.Bar)
	}
	ratio, mean := indicator.VolumeRatio(tail, len(tail)-1, window)

	cur := bars[n-1]
	sub := contracts.VolumeSignal{
		Rule:    contracts.RuleVolume,
		Kind:    contracts.KindNeutral,
		Volume:  cur.Volume,
		Average: mean,
		Ratio:   ratio,
	}
	if ratio > s.weights.Thresholds.VolumeHighRatio {
		sub.Kind = contracts.KindHigh
		sub.Delta = -s.weights.Rules.Volume
		if n >= 2 && cur.Close > bars[n-2].Close {
			sub.Delta = s.weights.Rules.Volume
		}
	}
	e.add(sub)
}
