package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// CalculateEMA returns the latest Exponential Moving Average of closes,
// or the plain mean when there is not enough data for the period.
func CalculateEMA(closes []float64, length int) *float64 {
	if len(closes) == 0 || length <= 0 {
		return nil
	}

	if len(closes) < length {
		sma := Mean(closes)
		return &sma
	}

	ema := talib.Ema(closes, length)
	if v, ok := lastValid(ema); ok {
		return &v
	}

	sma := Mean(closes[len(closes)-length:])
	return &sma
}

// CalculateSMA returns the latest Simple Moving Average, nil if closes is shorter than length.
func CalculateSMA(closes []float64, length int) *float64 {
	if length <= 0 || len(closes) < length {
		return nil
	}

	if v, ok := lastValid(talib.Sma(closes, length)); ok {
		return &v
	}
	return nil
}

// CalculateRSI returns the latest Relative Strength Index (0-100),
// nil when fewer than length+1 closes are available.
func CalculateRSI(closes []float64, length int) *float64 {
	if length <= 0 || len(closes) < length+1 {
		return nil
	}

	if v, ok := lastValid(talib.Rsi(closes, length)); ok {
		return &v
	}
	return nil
}

// PercentChange returns the simple change between the close `lookback`
// steps ago and the latest close. Nil when the window is not available.
func PercentChange(closes []float64, lookback int) *float64 {
	n := len(closes)
	if lookback <= 0 || n <= lookback {
		return nil
	}
	base := closes[n-1-lookback]
	if base == 0 {
		return nil
	}
	change := (closes[n-1] - base) / base
	return &change
}

func lastValid(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	v := values[len(values)-1]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
