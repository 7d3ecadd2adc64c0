package contracts

import "time"

// Label is the categorical recommendation
type Label string

const (
	LabelStrongBuy  Label = "strong_buy"
	LabelBuy        Label = "buy"
	LabelNeutral    Label = "neutral"
	LabelSell       Label = "sell"
	LabelStrongSell Label = "strong_sell"
)

// Labels lists every label from most bullish to most bearish
func Labels() []Label {
	return []Label{LabelStrongBuy, LabelBuy, LabelNeutral, LabelSell, LabelStrongSell}
}

// Signal is the composite result for one instrument on one evaluation date
// ⭐ SSOT: Scorer → Narrative/Store 전달 구조
type Signal struct {
	Symbol     string     `json:"symbol"`
	AsOf       time.Time  `json:"as_of"`
	Price      float64    `json:"price"`      // 종가 (2자리 반올림)
	ChangePct  float64    `json:"change_pct"` // 전일 대비 (%)
	SubSignals SubSignals `json:"sub_signals"`
	Overall    Label      `json:"overall_signal"`
	Strength   float64    `json:"signal_strength"` // [-2, 2]

	RawScore  float64 `json:"raw_score"`  // 정규화 전 점수
	RuleCount int     `json:"rule_count"` // 분모 규칙 수
}

// IsBullish reports a buy-side label
func (s *Signal) IsBullish() bool {
	return s.Overall == LabelBuy || s.Overall == LabelStrongBuy
}

// IsBearish reports a sell-side label
func (s *Signal) IsBearish() bool {
	return s.Overall == LabelSell || s.Overall == LabelStrongSell
}
