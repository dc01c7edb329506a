package scenario

import (
	"fmt"
	"math"

	"github.com/aristath/forecast/pkg/formulas"
)

// Calibrate estimates per-day drift and volatility from the series' closes.
func Calibrate(series HistoricalSeries) (CalibratedParameters, error) {
	return CalibrateCloses(series.Closes())
}

// CalibrateCloses estimates GBM parameters from log returns of closes.
// Mean and variance use the population convention (denominator n).
func CalibrateCloses(closes []float64) (CalibratedParameters, error) {
	if len(closes) < 2 {
		return CalibratedParameters{}, fmt.Errorf("%w: need at least 2 closes, got %d", ErrInsufficientData, len(closes))
	}
	for i, c := range closes {
		if !(c > 0) || math.IsInf(c, 0) {
			return CalibratedParameters{}, fmt.Errorf("%w: close at index %d is %v", ErrInvalidPrice, i, c)
		}
	}

	mean, variance := formulas.PopMeanVariance(formulas.LogReturns(closes))
	if variance < 0 {
		// rounding on near-constant series
		variance = 0
	}

	return CalibratedParameters{
		Drift:      mean - 0.5*variance,
		Volatility: math.Sqrt(variance),
	}, nil
}
