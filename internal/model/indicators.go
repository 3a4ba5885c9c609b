package model

import (
	"time"

	"github.com/moznion/go-optional"
)

// IndicatorSnapshot holds the derived indicator values for one bar.
// RSI is None when the average loss over the window is zero.
type IndicatorSnapshot struct {
	Time       time.Time
	Close      float64
	EMAFast    float64
	EMASlow    float64
	MACD       float64
	MACDSignal float64
	RSI        optional.Option[float64]
}
