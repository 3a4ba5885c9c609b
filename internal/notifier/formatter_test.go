package notifier

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"

	"SwingSentinel/internal/model"
)

var at = time.Date(2024, 4, 2, 15, 30, 0, 0, time.UTC)

func TestFormatBuy(t *testing.T) {
	msg := FormatBuy(model.Classification{
		Symbol: "M&M.NS", Price: 1834.5, MACD: -12.3456, MACDSignal: -10.1,
		RSI: optional.Some(31.234), Label: model.LabelBuy, Time: at,
	})
	assert.Contains(t, msg, "<b>BUY M&amp;M.NS</b>")
	assert.Contains(t, msg, "Price: 1834.50")
	assert.Contains(t, msg, "RSI: 31.23")
	assert.Contains(t, msg, "MACD: -12.3456 | Signal: -10.1000")
	assert.Contains(t, msg, "Bar: 2024-04-02")
}

func TestFormatBuyUndefinedRSI(t *testing.T) {
	msg := FormatBuy(model.Classification{Symbol: "A", RSI: optional.None[float64]()})
	assert.Contains(t, msg, "RSI: n/a")
}

func TestFormatExit(t *testing.T) {
	e := model.ExitEvent{
		Symbol: "SBIN.NS", Action: model.ExitStopLoss, EntryPrice: 100, ExitPrice: 96.9, Units: 10,
		TotalCost: 65.32, NetProfit: -96.32, ProfitPct: -9.63, EntryTime: at,
	}
	msg := FormatExit(e)
	assert.Contains(t, msg, "STOP LOSS SBIN.NS")
	assert.Contains(t, msg, "Exit: 96.90 × 10")
	assert.Contains(t, msg, "Net P&amp;L: -96.32 (-9.63%)")

	e.Action = model.ExitProfitBook
	assert.Contains(t, FormatExit(e), "PROFIT BOOK")
}

func TestFormatSummary(t *testing.T) {
	msg := FormatSummary(Summary{
		At: at,
		Classifications: []model.Classification{
			{Symbol: "A", Label: model.LabelBuy},
			{Symbol: "B", Label: model.LabelNone},
			{Symbol: "C", Label: model.LabelBuy},
		},
		Exits:         []model.ExitEvent{{NetProfit: 10}, {NetProfit: -4}},
		OpenPositions: 5,
		FailedSymbols: []string{"D"},
	})
	assert.Contains(t, msg, "2024-04-02 15:30")
	assert.Contains(t, msg, "Classified: 3 | BUY: 2")
	assert.Contains(t, msg, "Exits: 2 | Open positions: 5")
	assert.Contains(t, msg, "Buys: A, C")
	assert.Contains(t, msg, "Realised net: +6.00")
	assert.Contains(t, msg, "Failed: D")
}

func TestFormatPositions(t *testing.T) {
	assert.Contains(t, FormatPositions(nil), "None")

	msg := FormatPositions([]model.Position{{Symbol: "TCS.NS", Units: 2, EntryPrice: 3500, EntryTime: at}})
	assert.Contains(t, msg, "(1)")
	assert.Contains(t, msg, "TCS.NS × 2 @ 3500.00 since 2024-04-02")
}

func TestFormatHelp(t *testing.T) {
	assert.Contains(t, FormatHelp(), "/positions")
	assert.Contains(t, FormatHelp(), "/run")
}
