package contracts

import (
	"encoding/json"
	"fmt"
)

// Kind classifies the state reported by a single rule
type Kind string

const (
	KindBullish     Kind = "bullish"
	KindBearish     Kind = "bearish"
	KindNeutral     Kind = "neutral"
	KindOversold    Kind = "oversold"
	KindOverbought  Kind = "overbought"
	KindStrongTrend Kind = "strong_trend"
	KindWeakTrend   Kind = "weak_trend"
	KindHigh        Kind = "high"
	KindLow         Kind = "low"
	KindTrue        Kind = "true"
)

// Known reports whether k is one of the defined kinds
func (k Kind) Known() bool {
	switch k {
	case KindBullish, KindBearish, KindNeutral, KindOversold, KindOverbought,
		KindStrongTrend, KindWeakTrend, KindHigh, KindLow, KindTrue:
		return true
	}
	return false
}

// Rule names in evaluation order
const (
	RuleSMA20         = "sma20"
	RuleSMA50         = "sma50"
	RuleSMA200        = "sma200"
	RuleGoldenCross   = "golden_cross"
	RuleDeathCross    = "death_cross"
	RuleRSI           = "rsi"
	RuleMACD          = "macd"
	RuleMACDCrossover = "macd_crossover"
	RuleBollinger     = "bollinger"
	RuleADX           = "adx"
	RuleStochastic    = "stochastic"
	RuleVolume        = "volume"
)

// Sub-signal families
const (
	FamilyMovingAverage = "moving_average"
	FamilyCrossover     = "crossover"
	FamilyOscillator    = "oscillator"
	FamilyTrend         = "trend"
	FamilyVolume        = "volume"
)

// SubSignal is the closed set of per-rule results.
// Only the types in this file implement it.
type SubSignal interface {
	RuleName() string
	SignalKind() Kind
	Contribution() float64
	Family() string
	subSignal()
}

// MovingAverageSignal compares close with a simple moving average
type MovingAverageSignal struct {
	Rule    string  `json:"rule"`
	Kind    Kind    `json:"kind"`
	Delta   float64 `json:"delta"`
	Window  int     `json:"window"`
	Close   float64 `json:"close"`
	Average Value   `json:"average"`
}

// CrossoverSignal is emitted only on the bar where Fast crosses Slow
type CrossoverSignal struct {
	Rule  string  `json:"rule"`
	Kind  Kind    `json:"kind"`
	Delta float64 `json:"delta"`
	Fast  float64 `json:"fast"`
	Slow  float64 `json:"slow"`
}

// OscillatorSignal covers RSI, MACD level, Bollinger position and Stochastic.
// Reference is the second line where the rule has one (MACD signal, Stoch %D).
type OscillatorSignal struct {
	Rule      string  `json:"rule"`
	Kind      Kind    `json:"kind"`
	Delta     float64 `json:"delta"`
	Value     Value   `json:"value"`
	Reference Value   `json:"reference"`
}

// TrendSignal reports ADX trend strength (informational)
type TrendSignal struct {
	Rule    string  `json:"rule"`
	Kind    Kind    `json:"kind"`
	Delta   float64 `json:"delta"`
	ADX     Value   `json:"adx"`
	PlusDI  Value   `json:"plus_di"`
	MinusDI Value   `json:"minus_di"`
}

// VolumeSignal compares current volume with its short trailing mean
type VolumeSignal struct {
	Rule    string  `json:"rule"`
	Kind    Kind    `json:"kind"`
	Delta   float64 `json:"delta"`
	Volume  float64 `json:"volume"`
	Average float64 `json:"average"`
	Ratio   float64 `json:"ratio"`
}

func (s MovingAverageSignal) RuleName() string      { return s.Rule }
func (s MovingAverageSignal) SignalKind() Kind      { return s.Kind }
func (s MovingAverageSignal) Contribution() float64 { return s.Delta }
func (s MovingAverageSignal) Family() string        { return FamilyMovingAverage }
func (MovingAverageSignal) subSignal()              {}

func (s CrossoverSignal) RuleName() string      { return s.Rule }
func (s CrossoverSignal) SignalKind() Kind      { return s.Kind }
func (s CrossoverSignal) Contribution() float64 { return s.Delta }
func (s CrossoverSignal) Family() string        { return FamilyCrossover }
func (CrossoverSignal) subSignal()              {}

func (s OscillatorSignal) RuleName() string      { return s.Rule }
func (s OscillatorSignal) SignalKind() Kind      { return s.Kind }
func (s OscillatorSignal) Contribution() float64 { return s.Delta }
func (s OscillatorSignal) Family() string        { return FamilyOscillator }
func (OscillatorSignal) subSignal()              {}

func (s TrendSignal) RuleName() string      { return s.Rule }
func (s TrendSignal) SignalKind() Kind      { return s.Kind }
func (s TrendSignal) Contribution() float64 { return s.Delta }
func (s TrendSignal) Family() string        { return FamilyTrend }
func (TrendSignal) subSignal()              {}

func (s VolumeSignal) RuleName() string      { return s.Rule }
func (s VolumeSignal) SignalKind() Kind      { return s.Kind }
func (s VolumeSignal) Contribution() float64 { return s.Delta }
func (s VolumeSignal) Family() string        { return FamilyVolume }
func (VolumeSignal) subSignal()              {}

// SubSignals keeps sub-signals in evaluation order
type SubSignals []SubSignal

// Get returns the sub-signal emitted by a rule
func (ss SubSignals) Get(rule string) (SubSignal, bool) {
	for _, s := range ss {
		if s.RuleName() == rule {
			return s, true
		}
	}
	return nil, false
}

// Has reports whether a rule emitted a sub-signal
func (ss SubSignals) Has(rule string) bool {
	_, ok := ss.Get(rule)
	return ok
}

// Total sums every contribution
func (ss SubSignals) Total() float64 {
	total := 0.0
	for _, s := range ss {
		total += s.Contribution()
	}
	return total
}

type subSignalEnvelope struct {
	Family string          `json:"family"`
	Data   json.RawMessage `json:"data"`
}

// MarshalJSON writes each entry with its family discriminator
func (ss SubSignals) MarshalJSON() ([]byte, error) {
	out := make([]subSignalEnvelope, 0, len(ss))
	for _, s := range ss {
		data, err := json.Marshal(s)
		if err != nil {
			return nil, fmt.Errorf("marshal sub-signal %s: %w", s.RuleName(), err)
		}
		out = append(out, subSignalEnvelope{Family: s.Family(), Data: data})
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores concrete families from the discriminator
func (ss *SubSignals) UnmarshalJSON(data []byte) error {
	var envs []subSignalEnvelope
	if err := json.Unmarshal(data, &envs); err != nil {
		return err
	}

	result := make(SubSignals, 0, len(envs))
	for _, env := range envs {
		var (
			s   SubSignal
			err error
		)
		switch env.Family {
		case FamilyMovingAverage:
			var v MovingAverageSignal
			err = json.Unmarshal(env.Data, &v)
			s = v
		case FamilyCrossover:
			var v CrossoverSignal
			err = json.Unmarshal(env.Data, &v)
			s = v
		case FamilyOscillator:
			var v OscillatorSignal
			err = json.Unmarshal(env.Data, &v)
			s = v
		case FamilyTrend:
			var v TrendSignal
			err = json.Unmarshal(env.Data, &v)
			s = v
		case FamilyVolume:
			var v VolumeSignal
			err = json.Unmarshal(env.Data, &v)
			s = v
		default:
			return fmt.Errorf("unknown sub-signal family: %q", env.Family)
		}
		if err != nil {
			return fmt.Errorf("unmarshal %s sub-signal: %w", env.Family, err)
		}
		result = append(result, s)
	}

	*ss = result
	return nil
}
