// Package formulas holds the numeric helpers shared by the scenario engine
// and the narration layer.
package formulas

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is used when per-step figures are annualized for display.
const TradingDaysPerYear = 252

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// PopMeanVariance returns the mean and the population variance (denominator n).
// A single observation has variance 0.
func PopMeanVariance(data []float64) (mean, variance float64) {
	switch len(data) {
	case 0:
		return 0, 0
	case 1:
		return data[0], 0
	}
	return stat.PopMeanVariance(data, nil)
}

// LogReturns converts prices to log returns.
// Returns[i] = ln(Price[i+1] / Price[i])
func LogReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		returns[i-1] = math.Log(prices[i] / prices[i-1])
	}
	return returns
}

// CalculateReturns converts prices to simple percentage returns
// Returns[i] = (Price[i] - Price[i-1]) / Price[i-1]
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}
	return returns
}

// Median returns the middle value of data without modifying it.
// For an even count it averages the two middle values.
func Median(data []float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, data)
	sort.Float64s(sorted)
	return medianSorted(sorted)
}

func medianSorted(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Percentile returns the p-th percentile (p in [0,1]) of data using linear
// interpolation between closest ranks. Percentile(data, 0.5) equals Median(data).
func Percentile(data []float64, p float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)
	return PercentileSorted(sorted, p)
}

// PercentileSorted is Percentile for data already sorted ascending.
func PercentileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	if p == 0.5 {
		return medianSorted(sorted)
	}

	rank := p * float64(n-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	weight := rank - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// FractionAbove returns the share of values strictly greater than threshold.
func FractionAbove(data []float64, threshold float64) float64 {
	if len(data) == 0 {
		return 0
	}
	count := 0
	for _, v := range data {
		if v > threshold {
			count++
		}
	}
	return float64(count) / float64(len(data))
}

// Sum adds up data.
func Sum(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return floats.Sum(data)
}

// AnnualizeDrift scales a per-day log drift to a yearly figure.
func AnnualizeDrift(daily float64) float64 {
	return daily * TradingDaysPerYear
}

// AnnualizeVolatility scales a per-day volatility by sqrt(252).
func AnnualizeVolatility(daily float64) float64 {
	return daily * math.Sqrt(TradingDaysPerYear)
}
