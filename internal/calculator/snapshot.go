package calculator

import (
	"fmt"

	"SwingSentinel/internal/model"
)

// Windows are the lookback lengths of the indicators.
type Windows struct {
	Fast   int `yaml:"ema_fast" validate:"gt=0,ltfield=Slow"`
	Slow   int `yaml:"ema_slow" validate:"gt=0"`
	Signal int `yaml:"macd_signal" validate:"gt=0"`
	RSI    int `yaml:"rsi" validate:"gt=0"`
}

// DefaultWindows returns the classic 12/26/9 MACD and 14-bar RSI.
func DefaultWindows() Windows {
	return Windows{Fast: 12, Slow: 26, Signal: 9, RSI: 14}
}

// Warmup is the index of the first bar for which every window is satisfied:
// the slow EMA has seen Slow closes, the signal line has seen Signal MACD
// values, and the RSI window holds RSI changes.
func (w Windows) Warmup() int {
	macdReady := w.Slow - 1 + w.Signal - 1
	if w.RSI > macdReady {
		return w.RSI
	}
	return macdReady
}

// MinBars is the number of bars needed for a single snapshot.
func (w Windows) MinBars() int { return w.Warmup() + 1 }

// CalculateSnapshots derives an IndicatorSnapshot for every bar past the
// warm-up. Fewer than two snapshots yields an empty result, which callers treat
// as "no classification possible" rather than an error.
func CalculateSnapshots(bars []model.Bar, w Windows) ([]model.IndicatorSnapshot, error) {
	if len(bars) < w.MinBars()+1 {
		return nil, nil
	}

	closes := model.Closes(bars)
	emaFast, err := CalculateEMA(closes, w.Fast)
	if err != nil {
		return nil, fmt.Errorf("ema fast: %w", err)
	}
	emaSlow, err := CalculateEMA(closes, w.Slow)
	if err != nil {
		return nil, fmt.Errorf("ema slow: %w", err)
	}
	macd, signal, err := CalculateMACD(closes, w.Fast, w.Slow, w.Signal)
	if err != nil {
		return nil, fmt.Errorf("macd: %w", err)
	}
	rsi, err := CalculateRSI(closes, w.RSI)
	if err != nil {
		return nil, fmt.Errorf("rsi: %w", err)
	}

	start := w.Warmup()
	snaps := make([]model.IndicatorSnapshot, 0, len(bars)-start)
	for i := start; i < len(bars); i++ {
		snaps = append(snaps, model.IndicatorSnapshot{
			Time:       bars[i].Time,
			Close:      closes[i],
			EMAFast:    emaFast[i],
			EMASlow:    emaSlow[i],
			MACD:       macd[i],
			MACDSignal: signal[i],
			RSI:        rsi[i],
		})
	}
	return snaps, nil
}
