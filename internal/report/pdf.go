package report

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	"SwingSentinel/internal/model"
)

type pdfDoc interface {
	Output(io.Writer) error
}

type column struct {
	title string
	width float64
	align string
}

const rowHeight = 7

func newTable(title string, at time.Time, cols []column) *fpdf.Fpdf {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(title, false)
	pdf.SetAuthor("SwingSentinel", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, "Generated "+at.Format("2006-01-02 15:04 MST"), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(220, 220, 220)
	for _, c := range cols {
		pdf.CellFormat(c.width, rowHeight, c.title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
	return pdf
}

func row(pdf *fpdf.Fpdf, cols []column, cells ...string) {
	for i, c := range cols {
		pdf.CellFormat(c.width, rowHeight, cells[i], "1", 0, c.align, false, 0, "")
	}
	pdf.Ln(-1)
}

var signalCols = []column{
	{"Symbol", 45, "L"},
	{"Bar", 35, "C"},
	{"Price", 35, "R"},
	{"MACD", 35, "R"},
	{"Signal", 35, "R"},
	{"RSI", 30, "R"},
	{"Label", 30, "C"},
}

func signalsPDF(at time.Time, signals []model.Classification) *fpdf.Fpdf {
	pdf := newTable("Signals", at, signalCols)
	for _, c := range signals {
		rsi := "n/a"
		if v, err := c.RSI.Take(); err == nil {
			rsi = fmt.Sprintf("%.2f", v)
		}
		row(pdf, signalCols,
			c.Symbol,
			c.Time.Format("2006-01-02"),
			fmt.Sprintf("%.2f", c.Price),
			fmt.Sprintf("%.4f", c.MACD),
			fmt.Sprintf("%.4f", c.MACDSignal),
			rsi,
			string(c.Label),
		)
	}
	return pdf
}

var exitCols = []column{
	{"Symbol", 35, "L"},
	{"Action", 30, "C"},
	{"Entry", 25, "R"},
	{"Entry date", 27, "C"},
	{"Exit", 25, "R"},
	{"Units", 18, "R"},
	{"Charges", 27, "R"},
	{"Net P&L", 30, "R"},
	{"Net %", 22, "R"},
	{"Exit date", 27, "C"},
}

func exitsPDF(at time.Time, exits []model.ExitEvent) *fpdf.Fpdf {
	pdf := newTable("Exits", at, exitCols)
	for _, e := range exits {
		row(pdf, exitCols,
			e.Symbol,
			string(e.Action),
			fmt.Sprintf("%.2f", e.EntryPrice),
			e.EntryTime.Format("2006-01-02"),
			fmt.Sprintf("%.2f", e.ExitPrice),
			fmt.Sprintf("%d", e.Units),
			fmt.Sprintf("%.2f", e.TotalCost),
			fmt.Sprintf("%+.2f", e.NetProfit),
			fmt.Sprintf("%+.2f", e.ProfitPct),
			e.ExitTime.Format("2006-01-02"),
		)
	}
	return pdf
}
