package narrative

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/chartsignal/internal/contracts"
)

func sampleSignal() *contracts.Signal {
	return &contracts.Signal{
		Symbol:    "AAPL",
		AsOf:      time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Price:     185.64,
		ChangePct: 1.23,
		SubSignals: contracts.SubSignals{
			contracts.MovingAverageSignal{Rule: contracts.RuleSMA20, Kind: contracts.KindBullish, Delta: 0.5, Window: 20, Close: 185.64, Average: contracts.Some(180.1)},
			contracts.CrossoverSignal{Rule: contracts.RuleGoldenCross, Kind: contracts.KindBullish, Delta: 2, Fast: 101, Slow: 100.25},
			contracts.OscillatorSignal{Rule: contracts.RuleRSI, Kind: contracts.KindOverbought, Delta: -1.5, Value: contracts.Some(72.44)},
			contracts.TrendSignal{Rule: contracts.RuleADX, Kind: contracts.KindStrongTrend, ADX: contracts.Some(31.2)},
			contracts.VolumeSignal{Rule: contracts.RuleVolume, Kind: contracts.KindNeutral, Ratio: 1.02},
		},
		Overall:  contracts.LabelBuy,
		Strength: 0.95,
	}
}

func TestFormat(t *testing.T) {
	out := Format(sampleSignal())
	lines := strings.Split(out, "\n")

	assert.Equal(t, "🟢 AAPL | BUY", lines[0])
	assert.Contains(t, out, "Date: 2024-06-03")
	assert.Contains(t, out, "Price: 185.64 (▲ +1.23%)")
	assert.Contains(t, out, "Strength: [██░░░░░░░░] +0.95")
	assert.Contains(t, out, "🟢 SMA20: bullish (close 185.64 vs 180.10) +0.5")
	assert.Contains(t, out, "🟢 Golden cross: bullish (101.00 / 100.25) +2.0")
	assert.Contains(t, out, "🟠 RSI: overbought (72.4) -1.5")
	assert.Contains(t, out, "💪 ADX: strong_trend (31.2, +DI n/a / -DI n/a)")
	assert.Contains(t, out, "⚪ Volume: neutral (1.02x avg)")

	// header, date, price, strength, separator + one line per sub-signal
	assert.Len(t, lines, 5+5)
}

func TestFormat_NegativeChange(t *testing.T) {
	sig := sampleSignal()
	sig.ChangePct = -2.5
	sig.Overall = contracts.LabelStrongSell
	sig.Strength = -2

	out := Format(sig)
	assert.Contains(t, out, "🆘 AAPL | STRONG SELL")
	assert.Contains(t, out, "(▼ -2.50%)")
	assert.Contains(t, out, "[█████░░░░░] -2.00")
}

func TestFormat_UnknownKind(t *testing.T) {
	sig := sampleSignal()
	sig.SubSignals = contracts.SubSignals{
		contracts.OscillatorSignal{Rule: "custom", Kind: contracts.Kind("sideways")},
	}

	out := Format(sig)
	assert.Contains(t, out, "⚪ custom: sideways (n/a)")
}

func TestFormat_EmptySignal(t *testing.T) {
	assert.NotPanics(t, func() {
		out := Format(&contracts.Signal{})
		assert.Contains(t, out, "UNKNOWN")
	})
	assert.Equal(t, "", Format(nil))
}

func TestGauge(t *testing.T) {
	tests := []struct {
		strength float64
		filled   int
	}{
		{0, 0},
		{0.39, 0},
		{0.4, 1},
		{-0.8, 2},
		{1.0, 2},
		{1.2, 3},
		{-1.99, 4},
		{2, 5},
		{-2, 5},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v", tt.strength), func(t *testing.T) {
			g := Gauge(tt.strength)
			require.Equal(t, GaugeSegments, strings.Count(g, filledSegment)+strings.Count(g, emptySegment))
			assert.Equal(t, tt.filled, strings.Count(g, filledSegment))
		})
	}
}

func TestFormatDiagnostic(t *testing.T) {
	err := fmt.Errorf("fetch XYZ: %w", contracts.ErrDataUnavailable)

	out := FormatDiagnostic("XYZ", err)
	assert.Equal(t, "⚠️ XYZ | analysis failed\nReason: fetch XYZ: data unavailable", out)
	assert.Contains(t, FormatDiagnostic("XYZ", nil), "unknown error")
}

func TestKindMarker(t *testing.T) {
	assert.Equal(t, "🔵", KindMarker(contracts.KindOversold))
	assert.Equal(t, neutralMarker, KindMarker(contracts.Kind("???")))
}
