package exit

import (
	"time"

	"github.com/shopspring/decimal"

	"SwingSentinel/internal/model"
)

// Thresholds are fractional price moves from entry: 0.03 means 3%.
type Thresholds struct {
	StopLossPct   float64 `yaml:"stop_loss_pct" validate:"gt=0,lt=1"`
	ProfitBookPct float64 `yaml:"profit_book_pct" validate:"gt=0"`
}

// DefaultThresholds stops out at -3% and books profit at +6%.
func DefaultThresholds() Thresholds {
	return Thresholds{StopLossPct: 0.03, ProfitBookPct: 0.06}
}

// Assessment is the mark-to-market result of one position at a price.
// Action is empty when neither exit rule fires.
type Assessment struct {
	Action    model.ExitAction
	NetProfit decimal.Decimal
	ProfitPct decimal.Decimal
	Costs     Breakdown
}

// Evaluator decides stop-loss and profit-book exits.
type Evaluator struct {
	thresholds Thresholds
	costs      CostModel
	now        func() time.Time
}

// NewEvaluator creates an Evaluator stamping exits with the wall clock.
func NewEvaluator(thresholds Thresholds, costs CostModel) *Evaluator {
	return &Evaluator{thresholds: thresholds, costs: costs, now: time.Now}
}

// WithClock replaces the clock used for exit timestamps.
func (e *Evaluator) WithClock(now func() time.Time) *Evaluator {
	e.now = now
	return e
}

// Assess prices p at current. Both boundaries are inclusive and compared in
// decimal so that a move of exactly the threshold triggers.
func (e *Evaluator) Assess(p model.Position, current float64) Assessment {
	entry := decimal.NewFromFloat(p.EntryPrice)
	price := decimal.NewFromFloat(current)
	qty := decimal.NewFromInt(p.Units)
	one := decimal.NewFromInt(1)

	costs := e.costs.Breakdown(entry, price, p.Units)
	net := price.Sub(entry).Mul(qty).Sub(costs.Total())
	a := Assessment{NetProfit: net, Costs: costs}
	if invested := entry.Mul(qty); !invested.IsZero() {
		a.ProfitPct = net.Div(invested).Mul(hundred)
	}

	stop := entry.Mul(one.Sub(decimal.NewFromFloat(e.thresholds.StopLossPct)))
	target := entry.Mul(one.Add(decimal.NewFromFloat(e.thresholds.ProfitBookPct)))
	switch {
	case price.LessThanOrEqual(stop):
		a.Action = model.ExitStopLoss
	case price.GreaterThanOrEqual(target):
		a.Action = model.ExitProfitBook
	}
	return a
}

// Evaluate walks positions in order. Positions whose symbol has a price and
// whose exit rule fires become ExitEvents; all others are returned unchanged
// in remaining, preserving order.
func (e *Evaluator) Evaluate(positions []model.Position, prices map[string]float64) (remaining []model.Position, exits []model.ExitEvent) {
	remaining = make([]model.Position, 0, len(positions))
	at := e.now()
	for _, p := range positions {
		current, ok := prices[p.Symbol]
		if !ok {
			remaining = append(remaining, p)
			continue
		}
		a := e.Assess(p, current)
		if a.Action == "" {
			remaining = append(remaining, p)
			continue
		}
		exits = append(exits, model.ExitEvent{
			PositionID: p.ID,
			Symbol:     p.Symbol,
			Action:     a.Action,
			EntryPrice: p.EntryPrice,
			ExitPrice:  current,
			Units:      p.Units,
			ProfitPct:  a.ProfitPct.InexactFloat64(),
			NetProfit:  a.NetProfit.InexactFloat64(),
			TotalCost:  a.Costs.Total().InexactFloat64(),
			EntryTime:  p.EntryTime,
			ExitTime:   at,
		})
	}
	return remaining, exits
}
