package calculator

import (
	"errors"

	"github.com/moznion/go-optional"
	"github.com/samber/lo"
)

// CalculateRSI computes the RSI series over the given period using simple
// rolling means of the positive and negative close-to-close changes.
// Entries before index period have no full window and are None, as are
// entries whose average loss is zero (RSI undefined).
func CalculateRSI(closes []float64, period int) ([]optional.Option[float64], error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	out := make([]optional.Option[float64], len(closes))
	for i := range closes {
		if i < period {
			out[i] = optional.None[float64]()
			continue
		}
		// Window sums are recomputed per bar so an all-zero loss window is exactly zero.
		avgGain := lo.Sum(gains[i-period+1:i+1]) / float64(period)
		avgLoss := lo.Sum(losses[i-period+1:i+1]) / float64(period)
		if avgLoss == 0 {
			out[i] = optional.None[float64]()
			continue
		}
		rs := avgGain / avgLoss
		out[i] = optional.Some(100.0 - 100.0/(1.0+rs))
	}
	return out, nil
}
