package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/samber/lo"

	"SwingSentinel/internal/model"
)

func formatRSI(c model.Classification) string {
	if v, err := c.RSI.Take(); err == nil {
		return fmt.Sprintf("%.2f", v)
	}
	return "n/a"
}

// FormatBuy formats a BUY classification.
func FormatBuy(c model.Classification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🟢 <b>BUY %s</b>\n\n", html.EscapeString(c.Symbol))
	fmt.Fprintf(&b, "Price: %.2f\n", c.Price)
	fmt.Fprintf(&b, "RSI: %s\n", formatRSI(c))
	fmt.Fprintf(&b, "MACD: %.4f | Signal: %.4f\n", c.MACD, c.MACDSignal)
	fmt.Fprintf(&b, "Bar: %s", c.Time.Format("2006-01-02"))
	return b.String()
}

// FormatExit formats a closed position.
func FormatExit(e model.ExitEvent) string {
	icon, title := "🔴", "STOP LOSS"
	if e.Action == model.ExitProfitBook {
		icon, title = "💰", "PROFIT BOOK"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>%s %s</b>\n\n", icon, title, html.EscapeString(e.Symbol))
	fmt.Fprintf(&b, "Entry: %.2f (%s)\n", e.EntryPrice, e.EntryTime.Format("2006-01-02"))
	fmt.Fprintf(&b, "Exit: %.2f × %d\n", e.ExitPrice, e.Units)
	fmt.Fprintf(&b, "Charges: %.2f\n", e.TotalCost)
	fmt.Fprintf(&b, "Net P&amp;L: %+.2f (%+.2f%%)", e.NetProfit, e.ProfitPct)
	return b.String()
}

// Summary is the per-run digest sent after all per-event messages.
type Summary struct {
	At              time.Time
	Classifications []model.Classification
	Exits           []model.ExitEvent
	OpenPositions   int
	FailedSymbols   []string
}

// FormatSummary formats the run digest.
func FormatSummary(s Summary) string {
	buys := lo.Filter(s.Classifications, func(c model.Classification, _ int) bool { return c.IsBuy() })

	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>SwingSentinel</b> | %s\n\n", s.At.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Classified: %d | BUY: %d\n", len(s.Classifications), len(buys))
	fmt.Fprintf(&b, "Exits: %d | Open positions: %d\n", len(s.Exits), s.OpenPositions)
	if len(buys) > 0 {
		syms := lo.Map(buys, func(c model.Classification, _ int) string { return html.EscapeString(c.Symbol) })
		fmt.Fprintf(&b, "\nBuys: %s\n", strings.Join(syms, ", "))
	}
	if len(s.Exits) > 0 {
		net := lo.SumBy(s.Exits, func(e model.ExitEvent) float64 { return e.NetProfit })
		fmt.Fprintf(&b, "Realised net: %+.2f\n", net)
	}
	if len(s.FailedSymbols) > 0 {
		fmt.Fprintf(&b, "\n⚠️ Failed: %s\n", html.EscapeString(strings.Join(s.FailedSymbols, ", ")))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatPositions lists the open ledger.
func FormatPositions(positions []model.Position) string {
	if len(positions) == 0 {
		return "📦 <b>Open positions</b>\n\nNone"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📦 <b>Open positions</b> (%d)\n\n", len(positions))
	for _, p := range positions {
		fmt.Fprintf(&b, "%s × %d @ %.2f since %s\n",
			html.EscapeString(p.Symbol), p.Units, p.EntryPrice, p.EntryTime.Format("2006-01-02"))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatHelp lists the supported commands.
func FormatHelp() string {
	var b strings.Builder
	b.WriteString("🤖 <b>SwingSentinel commands</b>\n\n")
	b.WriteString("/positions - list open positions\n")
	b.WriteString("/run - run a classification pass now\n")
	b.WriteString("/help - show this message")
	return b.String()
}
