package strategy

import "SwingSentinel/internal/model"

// Rule holds the classifier thresholds.
type Rule struct {
	RSIBuyLevel float64 `yaml:"rsi_buy_level" validate:"gt=0,lt=100"`
}

// DefaultRule buys on an RSI recovery through 30.
func DefaultRule() Rule {
	return Rule{RSIBuyLevel: 30}
}

// Classify labels the latest bar from the previous and current snapshots.
// BUY requires the RSI to cross up through the buy level while MACD stays
// below its signal line on both bars. Anything else is NONE; exits are
// governed by the position ledger, not by this classifier.
func Classify(symbol string, prev, cur model.IndicatorSnapshot, price float64, rule Rule) model.Classification {
	label := model.LabelNone
	if rsiRecovered(prev, cur, rule.RSIBuyLevel) && macdLagging(prev) && macdLagging(cur) {
		label = model.LabelBuy
	}
	return model.Classification{
		Symbol:     symbol,
		Price:      price,
		MACD:       cur.MACD,
		MACDSignal: cur.MACDSignal,
		RSI:        cur.RSI,
		Label:      label,
		Time:       cur.Time,
	}
}

// Evaluate classifies the last two snapshots using the latest close as the
// current price. ok is false when fewer than two snapshots exist.
func Evaluate(symbol string, snaps []model.IndicatorSnapshot, rule Rule) (c model.Classification, ok bool) {
	if len(snaps) < 2 {
		return model.Classification{}, false
	}
	prev, cur := snaps[len(snaps)-2], snaps[len(snaps)-1]
	return Classify(symbol, prev, cur, cur.Close, rule), true
}
