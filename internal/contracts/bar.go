package contracts

import (
	"encoding/json"
	"time"
)

// Bar represents one daily OHLCV record
// ⭐ SSOT: 가격 바 타입은 여기서만 정의
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Series is an ordered sequence of bars with strictly increasing timestamps
type Series []Bar

// Last returns the latest bar
func (s Series) Last() (Bar, bool) {
	if len(s) == 0 {
		return Bar{}, false
	}
	return s[len(s)-1], true
}

// Closes extracts close prices in order
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}

// Value is an optional indicator reading.
// Valid is false while the indicator is still inside its warm-up window.
type Value struct {
	V     float64
	Valid bool
}

// Some wraps a defined reading
func Some(v float64) Value {
	return Value{V: v, Valid: true}
}

// None is the undefined reading
var None = Value{}

// MarshalJSON encodes undefined readings as null
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.V)
}

// UnmarshalJSON decodes a number or null
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = None
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Some(f)
	return nil
}
