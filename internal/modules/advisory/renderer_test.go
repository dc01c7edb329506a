package advisory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/forecast/internal/modules/scenario"
)

func floatPtr(v float64) *float64 {
	return &v
}

func TestTemplateRenderer_Render(t *testing.T) {
	report := scenario.ScenarioReport{
		Ticker:                "AAPL",
		StartPrice:            100,
		HorizonDays:           5,
		PathCount:             1000,
		ProbabilityAboveStart: 0.62,
		MedianTerminalPrice:   101.5,
		Distribution: scenario.Distribution{
			ExpectedReturn: 0.015,
			VaR95:          -0.04,
			CVaR95:         -0.055,
		},
	}
	trend := Trend{LastClose: 100, WeekChange: floatPtr(0.021), Direction: DirectionUp}

	text := TemplateRenderer{}.Render(report, trend)

	assert.Contains(t, text, "[Price trend]: AAPL last closed at 100.00, +2.1% over the past week; the short-term trend is rising.")
	assert.Contains(t, text, "62.0% of 1000 simulated paths finish above 100.00")
	assert.Contains(t, text, "median terminal price is 101.50 (+1.5%)")
	assert.Contains(t, text, "average loss is 5.5%")
	assert.Contains(t, text, "[Recommendation]: Buy.")
}

func TestRecommend(t *testing.T) {
	tests := []struct {
		name      string
		prob      float64
		direction string
		want      string
	}{
		{"bullish", 0.7, DirectionFlat, "Buy"},
		{"bullish against falling trend", 0.7, DirectionDown, "Hold"},
		{"bearish", 0.3, DirectionDown, "Sell"},
		{"bearish against rising trend", 0.3, DirectionUp, "Hold"},
		{"balanced", 0.5, DirectionFlat, "Hold"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, _ := recommend(scenario.ScenarioReport{ProbabilityAboveStart: tt.prob}, Trend{Direction: tt.direction})
			assert.Equal(t, tt.want, action)
		})
	}
}

func TestDescribeTrend_RSI(t *testing.T) {
	s := describeTrend("X", Trend{LastClose: 10, RSI14: floatPtr(75), Direction: DirectionFlat})
	assert.Contains(t, s, "RSI 75 suggests overbought")

	s = describeTrend("X", Trend{LastClose: 10, RSI14: floatPtr(50), Direction: DirectionFlat})
	assert.NotContains(t, s, "RSI")
}

func TestComputeTrend(t *testing.T) {
	up := scenario.SeriesFromCloses("X", []float64{100, 101, 102, 103, 104, 105})
	trend := ComputeTrend(up)
	assert.Equal(t, 105.0, trend.LastClose)
	if assert.NotNil(t, trend.WeekChange) {
		assert.InDelta(t, 0.05, *trend.WeekChange, 1e-12)
	}
	assert.Equal(t, DirectionUp, trend.Direction)
	assert.Nil(t, trend.SMA20)

	short := ComputeTrend(scenario.SeriesFromCloses("X", []float64{100, 95}))
	assert.Nil(t, short.WeekChange)
	assert.Equal(t, DirectionDown, short.Direction)

	flat := ComputeTrend(scenario.SeriesFromCloses("X", []float64{100, 100.2, 100.1, 99.9, 100, 100.5}))
	assert.Equal(t, DirectionFlat, flat.Direction)
}
