package strategy

import "SwingSentinel/internal/model"

// rsiRecovered reports prev.RSI < level <= cur.RSI. An undefined RSI on either
// bar is not comparable and never counts as a recovery.
func rsiRecovered(prev, cur model.IndicatorSnapshot, level float64) bool {
	if prev.RSI.IsNone() || cur.RSI.IsNone() {
		return false
	}
	return prev.RSI.Unwrap() < level && cur.RSI.Unwrap() >= level
}

// macdLagging reports whether the MACD line is below its signal line.
func macdLagging(s model.IndicatorSnapshot) bool {
	return s.MACD < s.MACDSignal
}
