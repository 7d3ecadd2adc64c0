package scorer

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Weights holds the rule table: score contributions, thresholds,
// normalization and label cut-offs.
// ⭐ SSOT: 점수 규칙 가중치는 여기서만 정의
type Weights struct {
	Rules         RuleWeights   `yaml:"rules" json:"rules"`
	Thresholds    Thresholds    `yaml:"thresholds" json:"thresholds"`
	Normalization Normalization `yaml:"normalization" json:"normalization"`
	Labels        LabelCutoffs  `yaml:"labels" json:"labels"`
}

// RuleWeights is the magnitude of each rule's score contribution
type RuleWeights struct {
	SMA20         float64 `yaml:"sma20" json:"sma20"`
	SMA50         float64 `yaml:"sma50" json:"sma50"`
	SMA200        float64 `yaml:"sma200" json:"sma200"`
	Cross         float64 `yaml:"golden_death_cross" json:"golden_death_cross"`
	RSI           float64 `yaml:"rsi" json:"rsi"`
	MACD          float64 `yaml:"macd" json:"macd"`
	MACDCrossover float64 `yaml:"macd_crossover" json:"macd_crossover"`
	Bollinger     float64 `yaml:"bollinger" json:"bollinger"`
	Stochastic    float64 `yaml:"stochastic" json:"stochastic"`
	Volume        float64 `yaml:"volume" json:"volume"`
}

// Thresholds for oscillator and volume states
type Thresholds struct {
	RSIOversold      float64 `yaml:"rsi_oversold" json:"rsi_oversold"`
	RSIOverbought    float64 `yaml:"rsi_overbought" json:"rsi_overbought"`
	BollingerLow     float64 `yaml:"bollinger_low" json:"bollinger_low"`
	BollingerHigh    float64 `yaml:"bollinger_high" json:"bollinger_high"`
	StochOversold    float64 `yaml:"stoch_oversold" json:"stoch_oversold"`
	StochOverbought  float64 `yaml:"stoch_overbought" json:"stoch_overbought"`
	ADXStrong        float64 `yaml:"adx_strong" json:"adx_strong"`
	ADXWeak          float64 `yaml:"adx_weak" json:"adx_weak"`
	VolumeHighRatio  float64 `yaml:"volume_high_ratio" json:"volume_high_ratio"`
	VolumeMeanWindow int     `yaml:"volume_mean_window" json:"volume_mean_window"`
}

// Normalization: normalized = clamp(score / (count × Factor), -Clamp, Clamp)
type Normalization struct {
	Factor float64 `yaml:"factor" json:"factor"`
	Clamp  float64 `yaml:"clamp" json:"clamp"`
}

// LabelCutoffs are exclusive lower bounds of each label band
type LabelCutoffs struct {
	StrongBuy float64 `yaml:"strong_buy" json:"strong_buy"` // (1.5, 2]
	Buy       float64 `yaml:"buy" json:"buy"`               // (0.5, 1.5]
	Neutral   float64 `yaml:"neutral" json:"neutral"`       // (-0.5, 0.5]
	Sell      float64 `yaml:"sell" json:"sell"`             // (-1.5, -0.5]
}

// DefaultWeights returns the standard rule table
func DefaultWeights() Weights {
	return Weights{
		Rules: RuleWeights{
			SMA20:         0.5,
			SMA50:         1.0,
			SMA200:        1.5,
			Cross:         2.0,
			RSI:           1.5,
			MACD:          1.0,
			MACDCrossover: 1.5,
			Bollinger:     1.0,
			Stochastic:    1.0,
			Volume:        0.5,
		},
		Thresholds: Thresholds{
			RSIOversold:      30,
			RSIOverbought:    70,
			BollingerLow:     0.05,
			BollingerHigh:    0.95,
			StochOversold:    20,
			StochOverbought:  80,
			ADXStrong:        25,
			ADXWeak:          20,
			VolumeHighRatio:  1.5,
			VolumeMeanWindow: 5,
		},
		Normalization: Normalization{
			Factor: 0.75,
			Clamp:  2,
		},
		Labels: LabelCutoffs{
			StrongBuy: 1.5,
			Buy:       0.5,
			Neutral:   -0.5,
			Sell:      -1.5,
		},
	}
}

// LoadWeights reads a YAML override on top of DefaultWeights.
// Unknown fields fail the load.
func LoadWeights(path string) (Weights, error) {
	w := DefaultWeights()
	if path == "" {
		return w, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return w, fmt.Errorf("failed to read weights: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 오타 필드 즉시 실패
	if err := dec.Decode(&w); err != nil {
		return w, fmt.Errorf("failed to parse weights %s: %w", path, err)
	}

	if err := w.Validate(); err != nil {
		return w, err
	}
	return w, nil
}

// ValidationError reports an invalid weights field
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks internal consistency
func (w Weights) Validate() error {
	rules := map[string]float64{
		"rules.sma20":              w.Rules.SMA20,
		"rules.sma50":              w.Rules.SMA50,
		"rules.sma200":             w.Rules.SMA200,
		"rules.golden_death_cross": w.Rules.Cross,
		"rules.rsi":                w.Rules.RSI,
		"rules.macd":               w.Rules.MACD,
		"rules.macd_crossover":     w.Rules.MACDCrossover,
		"rules.bollinger":          w.Rules.Bollinger,
		"rules.stochastic":         w.Rules.Stochastic,
		"rules.volume":             w.Rules.Volume,
	}
	for field, v := range rules {
		if v < 0 {
			return ValidationError{field, "must be >= 0"}
		}
	}

	t := w.Thresholds
	if t.RSIOversold >= t.RSIOverbought {
		return ValidationError{"thresholds.rsi_oversold", "must be < rsi_overbought"}
	}
	if t.BollingerLow >= t.BollingerHigh {
		return ValidationError{"thresholds.bollinger_low", "must be < bollinger_high"}
	}
	if t.StochOversold >= t.StochOverbought {
		return ValidationError{"thresholds.stoch_oversold", "must be < stoch_overbought"}
	}
	if t.ADXWeak > t.ADXStrong {
		return ValidationError{"thresholds.adx_weak", "must be <= adx_strong"}
	}
	if t.VolumeHighRatio <= 0 {
		return ValidationError{"thresholds.volume_high_ratio", "must be > 0"}
	}
	if t.VolumeMeanWindow < 1 {
		return ValidationError{"thresholds.volume_mean_window", "must be >= 1"}
	}

	if w.Normalization.Factor <= 0 {
		return ValidationError{"normalization.factor", "must be > 0"}
	}
	if w.Normalization.Clamp <= 0 {
		return ValidationError{"normalization.clamp", "must be > 0"}
	}

	l := w.Labels
	if !(l.StrongBuy > l.Buy && l.Buy > l.Neutral && l.Neutral > l.Sell) {
		return ValidationError{"labels", "cut-offs must be strictly descending"}
	}
	return nil
}

// Hash identifies a weights configuration (canonical JSON, sha256)
func (w Weights) Hash() (string, error) {
	b, err := json.Marshal(w)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
