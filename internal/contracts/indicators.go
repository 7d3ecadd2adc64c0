package contracts

// Canonical indicator names
const (
	IndicatorSMA20      = "SMA20"
	IndicatorSMA50      = "SMA50"
	IndicatorSMA200     = "SMA200"
	IndicatorEMA20      = "EMA20"
	IndicatorRSI14      = "RSI14"
	IndicatorMACD       = "MACD"
	IndicatorMACDSignal = "MACD_Signal"
	IndicatorMACDHist   = "MACD_Hist"
	IndicatorBBUpper    = "BB_Upper"
	IndicatorBBLower    = "BB_Lower"
	IndicatorBBMid      = "BB_Mid"
	IndicatorBBWidth    = "BB_Width"
	IndicatorOBV        = "OBV"
	IndicatorADX14      = "ADX14"
	IndicatorPlusDI14   = "PlusDI14"
	IndicatorMinusDI14  = "MinusDI14"
	IndicatorStochK     = "Stoch_K"
	IndicatorStochD     = "Stoch_D"
	IndicatorATR14      = "ATR14"
)

// Indicators holds every indicator reading for one bar.
// Fixed schema instead of a name->value map; Get provides lookup by name.
type Indicators struct {
	SMA20      Value `json:"SMA20"`
	SMA50      Value `json:"SMA50"`
	SMA200     Value `json:"SMA200"`
	EMA20      Value `json:"EMA20"`
	RSI14      Value `json:"RSI14"`
	MACD       Value `json:"MACD"`
	MACDSignal Value `json:"MACD_Signal"`
	MACDHist   Value `json:"MACD_Hist"`
	BBUpper    Value `json:"BB_Upper"`
	BBLower    Value `json:"BB_Lower"`
	BBMid      Value `json:"BB_Mid"`
	BBWidth    Value `json:"BB_Width"`
	OBV        Value `json:"OBV"`
	ADX14      Value `json:"ADX14"`
	PlusDI14   Value `json:"PlusDI14"`
	MinusDI14  Value `json:"MinusDI14"`
	StochK     Value `json:"Stoch_K"`
	StochD     Value `json:"Stoch_D"`
	ATR14      Value `json:"ATR14"`
}

// Names returns the indicator names in a stable order
func (Indicators) Names() []string {
	return []string{
		IndicatorSMA20, IndicatorSMA50, IndicatorSMA200, IndicatorEMA20,
		IndicatorRSI14,
		IndicatorMACD, IndicatorMACDSignal, IndicatorMACDHist,
		IndicatorBBUpper, IndicatorBBLower, IndicatorBBMid, IndicatorBBWidth,
		IndicatorOBV,
		IndicatorADX14, IndicatorPlusDI14, IndicatorMinusDI14,
		IndicatorStochK, IndicatorStochD,
		IndicatorATR14,
	}
}

// Get looks up a reading by its canonical name.
// Unknown names return (None, false).
func (ind Indicators) Get(name string) (Value, bool) {
	switch name {
	case IndicatorSMA20:
		return ind.SMA20, true
	case IndicatorSMA50:
		return ind.SMA50, true
	case IndicatorSMA200:
		return ind.SMA200, true
	case IndicatorEMA20:
		return ind.EMA20, true
	case IndicatorRSI14:
		return ind.RSI14, true
	case IndicatorMACD:
		return ind.MACD, true
	case IndicatorMACDSignal:
		return ind.MACDSignal, true
	case IndicatorMACDHist:
		return ind.MACDHist, true
	case IndicatorBBUpper:
		return ind.BBUpper, true
	case IndicatorBBLower:
		return ind.BBLower, true
	case IndicatorBBMid:
		return ind.BBMid, true
	case IndicatorBBWidth:
		return ind.BBWidth, true
	case IndicatorOBV:
		return ind.OBV, true
	case IndicatorADX14:
		return ind.ADX14, true
	case IndicatorPlusDI14:
		return ind.PlusDI14, true
	case IndicatorMinusDI14:
		return ind.MinusDI14, true
	case IndicatorStochK:
		return ind.StochK, true
	case IndicatorStochD:
		return ind.StochD, true
	case IndicatorATR14:
		return ind.ATR14, true
	default:
		return None, false
	}
}

// AnnotatedBar is a bar together with its indicator readings
type AnnotatedBar struct {
	Bar
	Indicators Indicators `json:"indicators"`
}
