package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateCVaR(t *testing.T) {
	tests := []struct {
		name       string
		returns    []float64
		confidence float64
		expected   float64
	}{
		{"empty", nil, 0.95, 0},
		{"single return", []float64{-0.03}, 0.95, -0.03},
		{
			name:       "worst decile of ten",
			returns:    []float64{0.01, -0.05, 0.02, 0.03, -0.01, 0.00, 0.04, -0.02, 0.05, 0.01},
			confidence: 0.90,
			expected:   -0.05,
		},
		{
			name:       "tail of two averaged",
			returns:    []float64{0.01, -0.04, -0.02, 0.03},
			confidence: 0.50,
			expected:   -0.03,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, CalculateCVaR(tt.returns, tt.confidence), 1e-12)
		})
	}
}

func TestCalculateVaR(t *testing.T) {
	returns := []float64{0.01, -0.04, -0.02, 0.03}

	assert.InDelta(t, -0.02, CalculateVaR(returns, 0.50), 1e-12)
	assert.InDelta(t, -0.04, CalculateVaR(returns, 0.95), 1e-12)
	assert.Equal(t, 0.0, CalculateVaR(nil, 0.95))
}

func TestCalculateCVaR_NotAboveVaR(t *testing.T) {
	returns := []float64{0.02, -0.01, -0.03, 0.05, -0.07, 0.01, 0.00, -0.02, 0.04, 0.03}

	assert.LessOrEqual(t, CalculateCVaR(returns, 0.8), CalculateVaR(returns, 0.8))
}
