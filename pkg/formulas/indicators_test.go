package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rising(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	return closes
}

func TestCalculateSMA(t *testing.T) {
	sma := CalculateSMA([]float64{1, 2, 3, 4, 5}, 5)
	require.NotNil(t, sma)
	assert.InDelta(t, 3.0, *sma, 1e-9)

	assert.Nil(t, CalculateSMA([]float64{1, 2}, 5))
}

func TestCalculateEMA(t *testing.T) {
	flat := []float64{50, 50, 50, 50, 50, 50, 50, 50, 50, 50}
	ema := CalculateEMA(flat, 5)
	require.NotNil(t, ema)
	assert.InDelta(t, 50.0, *ema, 1e-9)

	short := CalculateEMA([]float64{10, 20}, 5)
	require.NotNil(t, short)
	assert.InDelta(t, 15.0, *short, 1e-9, "falls back to the mean")

	assert.Nil(t, CalculateEMA(nil, 5))
}

func TestCalculateRSI(t *testing.T) {
	rsi := CalculateRSI(rising(30), 14)
	require.NotNil(t, rsi)
	assert.InDelta(t, 100.0, *rsi, 1e-6)

	assert.Nil(t, CalculateRSI(rising(10), 14))
}

func TestPercentChange(t *testing.T) {
	change := PercentChange([]float64{100, 90, 110}, 2)
	require.NotNil(t, change)
	assert.InDelta(t, 0.10, *change, 1e-12)

	assert.Nil(t, PercentChange([]float64{100, 110}, 2))
	assert.Nil(t, PercentChange([]float64{0, 1, 2}, 2))
}
