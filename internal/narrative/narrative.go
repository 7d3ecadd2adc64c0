package narrative

import (
	"fmt"
	"math"
	"strings"

	"github.com/wonny/chartsignal/internal/contracts"
)

// GaugeSegments is the width of the strength gauge
const GaugeSegments = 10

const (
	filledSegment = "█"
	emptySegment  = "░"
	separator     = "───────────────────────"
	neutralMarker = "⚪"
)

var labelMarkers = map[contracts.Label]string{
	contracts.LabelStrongBuy:  "🚀",
	contracts.LabelBuy:        "🟢",
	contracts.LabelNeutral:    "⚪",
	contracts.LabelSell:       "🔴",
	contracts.LabelStrongSell: "🆘",
}

var kindMarkers = map[contracts.Kind]string{
	contracts.KindBullish:     "🟢",
	contracts.KindBearish:     "🔴",
	contracts.KindNeutral:     neutralMarker,
	contracts.KindOversold:    "🔵",
	contracts.KindOverbought:  "🟠",
	contracts.KindStrongTrend: "💪",
	contracts.KindWeakTrend:   "💤",
	contracts.KindHigh:        "📈",
	contracts.KindLow:         "📉",
	contracts.KindTrue:        "✅",
}

var ruleTitles = map[string]string{
	contracts.RuleSMA20:         "SMA20",
	contracts.RuleSMA50:         "SMA50",
	contracts.RuleSMA200:        "SMA200",
	contracts.RuleGoldenCross:   "Golden cross",
	contracts.RuleDeathCross:    "Death cross",
	contracts.RuleRSI:           "RSI",
	contracts.RuleMACD:          "MACD",
	contracts.RuleMACDCrossover: "MACD cross",
	contracts.RuleBollinger:     "Bollinger",
	contracts.RuleADX:           "ADX",
	contracts.RuleStochastic:    "Stochastic",
	contracts.RuleVolume:        "Volume",
}

// Format renders a Signal as a text report
// ⭐ SSOT: 알림 메시지 포맷
func Format(sig *contracts.Signal) string {
	if sig == nil {
		return ""
	}

	var b strings.Builder

	fmt.Fprintf(&b, "%s %s | %s\n", LabelMarker(sig.Overall), sig.Symbol, LabelText(sig.Overall))
	if !sig.AsOf.IsZero() {
		fmt.Fprintf(&b, "Date: %s\n", sig.AsOf.Format("2006-01-02"))
	}
	fmt.Fprintf(&b, "Price: %.2f (%s %+.2f%%)\n", sig.Price, direction(sig.ChangePct), sig.ChangePct)
	fmt.Fprintf(&b, "Strength: [%s] %+.2f\n", Gauge(sig.Strength), sig.Strength)
	b.WriteString(separator)
	b.WriteString("\n")

	for _, sub := range sig.SubSignals {
		if sub == nil {
			continue
		}
		b.WriteString(Line(sub))
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

// FormatDiagnostic renders the message sent in place of a Signal
// when an instrument's pipeline fails
func FormatDiagnostic(symbol string, err error) string {
	reason := "unknown error"
	if err != nil {
		reason = err.Error()
	}
	return fmt.Sprintf("⚠️ %s | analysis failed\nReason: %s", symbol, reason)
}

// Gauge draws a 10-segment bar with floor(|strength|×5/2) filled segments
func Gauge(strength float64) string {
	filled := int(math.Floor(math.Abs(strength) * 5 / 2))
	if filled > GaugeSegments {
		filled = GaugeSegments
	}
	if filled < 0 || math.IsNaN(strength) {
		filled = 0
	}
	return strings.Repeat(filledSegment, filled) + strings.Repeat(emptySegment, GaugeSegments-filled)
}

// Line renders one sub-signal
func Line(sub contracts.SubSignal) string {
	line := fmt.Sprintf("%s %s: %s", KindMarker(sub.SignalKind()), ruleTitle(sub.RuleName()), sub.SignalKind())
	if d := detail(sub); d != "" {
		line += " (" + d + ")"
	}
	if sub.Contribution() != 0 {
		line += fmt.Sprintf(" %+.1f", sub.Contribution())
	}
	return line
}

// KindMarker returns the marker for a kind; unknown kinds get the neutral marker
func KindMarker(k contracts.Kind) string {
	if m, ok := kindMarkers[k]; ok {
		return m
	}
	return neutralMarker
}

// LabelMarker returns the marker for a label
func LabelMarker(l contracts.Label) string {
	if m, ok := labelMarkers[l]; ok {
		return m
	}
	return neutralMarker
}

// LabelText renders a label in upper case with spaces ("STRONG BUY")
func LabelText(l contracts.Label) string {
	if l == "" {
		return "UNKNOWN"
	}
	return strings.ToUpper(strings.ReplaceAll(string(l), "_", " "))
}

func ruleTitle(rule string) string {
	if t, ok := ruleTitles[rule]; ok {
		return t
	}
	return rule
}

func direction(changePct float64) string {
	switch {
	case changePct > 0:
		return "▲"
	case changePct < 0:
		return "▼"
	default:
		return "―"
	}
}

func detail(sub contracts.SubSignal) string {
	switch s := sub.(type) {
	case contracts.MovingAverageSignal:
		return fmt.Sprintf("close %.2f vs %s", s.Close, value(s.Average, 2))
	case contracts.CrossoverSignal:
		return fmt.Sprintf("%.2f / %.2f", s.Fast, s.Slow)
	case contracts.OscillatorSignal:
		switch s.Rule {
		case contracts.RuleMACD:
			return fmt.Sprintf("%s / signal %s", value(s.Value, 3), value(s.Reference, 3))
		case contracts.RuleBollinger:
			return "position " + value(s.Value, 2)
		case contracts.RuleStochastic:
			return fmt.Sprintf("%%K %s / %%D %s", value(s.Value, 1), value(s.Reference, 1))
		default:
			return value(s.Value, 1)
		}
	case contracts.TrendSignal:
		return fmt.Sprintf("%s, +DI %s / -DI %s", value(s.ADX, 1), value(s.PlusDI, 1), value(s.MinusDI, 1))
	case contracts.VolumeSignal:
		return fmt.Sprintf("%.2fx avg", s.Ratio)
	default:
		return ""
	}
}

func value(v contracts.Value, prec int) string {
	if !v.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.*f", prec, v.V)
}
