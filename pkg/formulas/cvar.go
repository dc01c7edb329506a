package formulas

import (
	"math"
	"sort"
)

// CalculateVaR returns the Value at Risk of a return sample at the given
// confidence: the return at the (1-confidence) quantile of the sorted sample.
// Losses come back negative.
func CalculateVaR(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0.0
	}

	sorted := sortedCopy(returns)
	return sorted[tailCount(len(sorted), confidence)-1]
}

// CalculateCVaR calculates Conditional Value at Risk (CVaR) at the specified confidence level.
// CVaR is the average return of the tail beyond VaR.
//
// Args:
//   - returns: simulated or historical returns (negative for losses)
//   - confidence: confidence level (e.g., 0.95 for 95%)
func CalculateCVaR(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0.0
	}
	if len(returns) == 1 {
		return returns[0]
	}

	sorted := sortedCopy(returns)
	tail := sorted[:tailCount(len(sorted), confidence)]
	return Sum(tail) / float64(len(tail))
}

// tailCount is the number of worst observations in the (1-confidence) tail, at least one.
func tailCount(n int, confidence float64) int {
	count := int(math.Ceil(float64(n) * (1.0 - confidence)))
	if count < 1 {
		count = 1
	}
	if count > n {
		count = n
	}
	return count
}

func sortedCopy(data []float64) []float64 {
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)
	return sorted
}
