package model

import (
	"time"

	"github.com/moznion/go-optional"
)

// Label is the outcome of classifying the latest bar of a symbol.
type Label string

const (
	LabelBuy  Label = "BUY"
	LabelSell Label = "SELL"
	LabelHold Label = "HOLD"
	LabelNone Label = "NONE"
)

// Classification is the signal produced for one symbol in one run.
type Classification struct {
	Symbol     string                   `json:"symbol"`
	Price      float64                  `json:"price"`
	MACD       float64                  `json:"macd"`
	MACDSignal float64                  `json:"macd_signal"`
	RSI        optional.Option[float64] `json:"rsi"`
	Label      Label                    `json:"label"`
	Time       time.Time                `json:"timestamp"`
}

// IsBuy reports whether the classification opens a position.
func (c Classification) IsBuy() bool { return c.Label == LabelBuy }
