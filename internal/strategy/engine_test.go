package strategy

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"

	"SwingSentinel/internal/model"
)

var (
	t0 = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	t1 = t0.AddDate(0, 0, 1)
)

func snap(at time.Time, rsi optional.Option[float64], macd, signal float64) model.IndicatorSnapshot {
	return model.IndicatorSnapshot{Time: at, Close: 100, RSI: rsi, MACD: macd, MACDSignal: signal}
}

func TestClassify_BoundaryCases(t *testing.T) {
	rule := DefaultRule()
	tests := []struct {
		name string
		prev model.IndicatorSnapshot
		cur  model.IndicatorSnapshot
		want model.Label
	}{
		{
			name: "crosses exactly at level",
			prev: snap(t0, optional.Some(29.999), -1.0, -0.5),
			cur:  snap(t1, optional.Some(30.000), -0.9, -0.4),
			want: model.LabelBuy,
		},
		{
			name: "stays just below level",
			prev: snap(t0, optional.Some(29.0), -1.0, -0.5),
			cur:  snap(t1, optional.Some(29.999), -0.9, -0.4),
			want: model.LabelNone,
		},
		{
			name: "previous already at level",
			prev: snap(t0, optional.Some(30.0), -1.0, -0.5),
			cur:  snap(t1, optional.Some(35.0), -0.9, -0.4),
			want: model.LabelNone,
		},
		{
			name: "current macd crossed above signal",
			prev: snap(t0, optional.Some(25.0), -1.0, -0.5),
			cur:  snap(t1, optional.Some(31.0), -0.3, -0.4),
			want: model.LabelNone,
		},
		{
			name: "previous macd equal to signal",
			prev: snap(t0, optional.Some(25.0), -0.5, -0.5),
			cur:  snap(t1, optional.Some(31.0), -0.9, -0.4),
			want: model.LabelNone,
		},
		{
			name: "current rsi undefined",
			prev: snap(t0, optional.Some(25.0), -1.0, -0.5),
			cur:  snap(t1, optional.None[float64](), -0.9, -0.4),
			want: model.LabelNone,
		},
		{
			name: "previous rsi undefined",
			prev: snap(t0, optional.None[float64](), -1.0, -0.5),
			cur:  snap(t1, optional.Some(45.0), -0.9, -0.4),
			want: model.LabelNone,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify("TCS.NS", tt.prev, tt.cur, 3500.5, rule)
			assert.Equal(t, tt.want, c.Label)
		})
	}
}

func TestClassify_CopiesCurrentValues(t *testing.T) {
	prev := snap(t0, optional.Some(28.0), -1.0, -0.5)
	cur := snap(t1, optional.Some(32.0), -0.9, -0.4)

	c := Classify("INFY.NS", prev, cur, 1520.25, DefaultRule())

	assert.Equal(t, "INFY.NS", c.Symbol)
	assert.Equal(t, 1520.25, c.Price)
	assert.Equal(t, -0.9, c.MACD)
	assert.Equal(t, -0.4, c.MACDSignal)
	assert.Equal(t, 32.0, c.RSI.Unwrap())
	assert.Equal(t, t1, c.Time)
	assert.True(t, c.IsBuy())
}

func TestClassify_OnlyBuyOrNone(t *testing.T) {
	rsis := []optional.Option[float64]{
		optional.None[float64](), optional.Some(0.0), optional.Some(29.5),
		optional.Some(30.0), optional.Some(70.0), optional.Some(100.0),
	}
	macds := []float64{-2, 0, 2}
	for _, pr := range rsis {
		for _, cr := range rsis {
			for _, m := range macds {
				c := Classify("X", snap(t0, pr, m, 0), snap(t1, cr, m, 0), 1, DefaultRule())
				assert.Contains(t, []model.Label{model.LabelBuy, model.LabelNone}, c.Label)
			}
		}
	}
}

func TestClassify_CustomLevel(t *testing.T) {
	prev := snap(t0, optional.Some(34.0), -1.0, -0.5)
	cur := snap(t1, optional.Some(36.0), -0.9, -0.4)

	assert.Equal(t, model.LabelNone, Classify("X", prev, cur, 1, DefaultRule()).Label)
	assert.Equal(t, model.LabelBuy, Classify("X", prev, cur, 1, Rule{RSIBuyLevel: 35}).Label)
}

func TestEvaluate_UsesLastTwoSnapshots(t *testing.T) {
	snaps := []model.IndicatorSnapshot{
		snap(t0.AddDate(0, 0, -1), optional.Some(50.0), 1, 0),
		snap(t0, optional.Some(29.0), -1.0, -0.5),
		snap(t1, optional.Some(30.5), -0.9, -0.4),
	}
	snaps[2].Close = 101.5

	c, ok := Evaluate("HDFCBANK.NS", snaps, DefaultRule())
	assert.True(t, ok)
	assert.Equal(t, model.LabelBuy, c.Label)
	assert.Equal(t, 101.5, c.Price)
}

func TestEvaluate_NotEnoughSnapshots(t *testing.T) {
	_, ok := Evaluate("X", []model.IndicatorSnapshot{snap(t0, optional.Some(20.0), 0, 0)}, DefaultRule())
	assert.False(t, ok)
}
