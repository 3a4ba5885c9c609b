package model

import "time"

// Position is one open, unmatched buy awaiting an exit decision.
type Position struct {
	ID         string    `json:"id"`
	Symbol     string    `json:"symbol"`
	EntryPrice float64   `json:"entry_price"`
	EntryTime  time.Time `json:"entry_timestamp"`
	Units      int64     `json:"unit_count"`
}

// ExitAction indicates which rule closed a position.
type ExitAction string

const (
	ExitStopLoss   ExitAction = "STOP_LOSS"
	ExitProfitBook ExitAction = "PROFIT_BOOK"
)

// ExitEvent records a closed position. Never mutated after creation.
type ExitEvent struct {
	PositionID string     `json:"position_id"`
	Symbol     string     `json:"symbol"`
	Action     ExitAction `json:"action"`
	EntryPrice float64    `json:"entry_price"`
	ExitPrice  float64    `json:"exit_price"`
	Units      int64      `json:"unit_count"`
	ProfitPct  float64    `json:"profit_pct"`
	NetProfit  float64    `json:"net_profit"`
	TotalCost  float64    `json:"total_cost"`
	EntryTime  time.Time  `json:"entry_timestamp"`
	ExitTime   time.Time  `json:"exit_timestamp"`
}
