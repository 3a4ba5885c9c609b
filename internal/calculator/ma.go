package calculator

import (
	"errors"

	"github.com/cinar/indicator"
)

// CalculateEMA returns the exponential moving average series of values with
// smoothing factor 2/(period+1), seeded by the first value.
func CalculateEMA(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	return indicator.Ema(period, values), nil
}

// CalculateMACD returns the MACD line (fast EMA minus slow EMA) and its signal
// line, the EMA of the MACD line over signalPeriod.
func CalculateMACD(closes []float64, fast, slow, signalPeriod int) (macd, signal []float64, err error) {
	if fast >= slow {
		return nil, nil, errors.New("fast period must be shorter than slow period")
	}
	emaFast, err := CalculateEMA(closes, fast)
	if err != nil {
		return nil, nil, err
	}
	emaSlow, err := CalculateEMA(closes, slow)
	if err != nil {
		return nil, nil, err
	}
	macd = make([]float64, len(closes))
	for i := range closes {
		macd[i] = emaFast[i] - emaSlow[i]
	}
	signal, err = CalculateEMA(macd, signalPeriod)
	if err != nil {
		return nil, nil, err
	}
	return macd, signal, nil
}
