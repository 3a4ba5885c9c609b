package exit

import (
	"github.com/shopspring/decimal"

	apperr "SwingSentinel/internal/errors"
)

// CostModel computes the round-trip transaction cost of a position.
type CostModel interface {
	Breakdown(entryPrice, exitPrice decimal.Decimal, units int64) Breakdown
}

// Schedule names a fee schedule.
type Schedule string

const (
	ScheduleNSEDelivery Schedule = "nse_delivery"
	ScheduleZero        Schedule = "zero"
)

// Breakdown itemises the charges of one entry+exit round trip.
type Breakdown struct {
	Brokerage   decimal.Decimal
	STT         decimal.Decimal
	ExchangeFee decimal.Decimal
	SEBIFee     decimal.Decimal
	GST         decimal.Decimal
	StampDuty   decimal.Decimal
	DPCharge    decimal.Decimal
	DPGST       decimal.Decimal
}

// Total sums every charge.
func (b Breakdown) Total() decimal.Decimal {
	return decimal.Sum(b.Brokerage, b.STT, b.ExchangeFee, b.SEBIFee, b.GST, b.StampDuty, b.DPCharge, b.DPGST)
}

// FeeSchedule holds the rates of an equity delivery trade. Percent fields are
// in percent units: 0.1 means 0.1% of turnover.
type FeeSchedule struct {
	BrokeragePerOrder float64 `yaml:"brokerage_per_order" validate:"gte=0"`
	STTPct            float64 `yaml:"stt_pct" validate:"gte=0"`
	ExchangeTxnPct    float64 `yaml:"exchange_txn_pct" validate:"gte=0"`
	SEBIFeePct        float64 `yaml:"sebi_fee_pct" validate:"gte=0"`
	GSTPct            float64 `yaml:"gst_pct" validate:"gte=0"`
	StampDutyPct      float64 `yaml:"stamp_duty_pct" validate:"gte=0"`
	DPCharge          float64 `yaml:"dp_charge" validate:"gte=0"`
}

// DefaultNSEDelivery is a flat-brokerage NSE cash delivery schedule.
func DefaultNSEDelivery() FeeSchedule {
	return FeeSchedule{
		BrokeragePerOrder: 20,
		STTPct:            0.1,
		ExchangeTxnPct:    0.00297,
		SEBIFeePct:        0.0001,
		GSTPct:            18,
		StampDutyPct:      0.015,
		DPCharge:          13.5,
	}
}

var hundred = decimal.NewFromInt(100)

func pct(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Div(hundred)
}

// Breakdown applies the schedule. Brokerage is charged on both orders, the
// turnover-based fees on entry plus exit turnover, stamp duty on the entry
// leg only, and the DP charge once with its own GST.
func (s FeeSchedule) Breakdown(entryPrice, exitPrice decimal.Decimal, units int64) Breakdown {
	qty := decimal.NewFromInt(units)
	buyTurnover := entryPrice.Mul(qty)
	turnover := buyTurnover.Add(exitPrice.Mul(qty))

	brokerage := decimal.NewFromFloat(s.BrokeragePerOrder).Mul(decimal.NewFromInt(2))
	exchange := turnover.Mul(pct(s.ExchangeTxnPct))
	sebi := turnover.Mul(pct(s.SEBIFeePct))
	dp := decimal.NewFromFloat(s.DPCharge)
	gst := pct(s.GSTPct)

	return Breakdown{
		Brokerage:   brokerage,
		STT:         turnover.Mul(pct(s.STTPct)),
		ExchangeFee: exchange,
		SEBIFee:     sebi,
		GST:         brokerage.Add(exchange).Add(sebi).Mul(gst),
		StampDuty:   buyTurnover.Mul(pct(s.StampDutyPct)),
		DPCharge:    dp,
		DPGST:       dp.Mul(gst),
	}
}

// ZeroFees charges nothing.
type ZeroFees struct{}

func (ZeroFees) Breakdown(_, _ decimal.Decimal, _ int64) Breakdown {
	return Breakdown{}
}

// NewCostModel returns the cost model for schedule. Unknown names are a
// CodeInvalidConfig error.
func NewCostModel(schedule Schedule, fees FeeSchedule) (CostModel, error) {
	switch schedule {
	case ScheduleNSEDelivery:
		return fees, nil
	case ScheduleZero:
		return ZeroFees{}, nil
	default:
		return nil, apperr.Newf(apperr.CodeInvalidConfig, "unknown fee schedule %q", schedule)
	}
}
