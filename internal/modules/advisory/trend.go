package advisory

import (
	"github.com/aristath/forecast/internal/modules/scenario"
	"github.com/aristath/forecast/pkg/formulas"
)

const (
	weekTradingDays = 5
	// flatThreshold is the one-week change below which the trend counts as flat.
	flatThreshold = 0.01
)

// Trend directions.
const (
	DirectionUp   = "up"
	DirectionDown = "down"
	DirectionFlat = "flat"
)

// ComputeTrend summarizes the recent closes of series.
func ComputeTrend(series scenario.HistoricalSeries) Trend {
	closes := series.Closes()
	trend := Trend{
		LastClose:  series.LastClose(),
		WeekChange: formulas.PercentChange(closes, weekTradingDays),
		SMA20:      formulas.CalculateSMA(closes, 20),
		EMA12:      formulas.CalculateEMA(closes, 12),
		RSI14:      formulas.CalculateRSI(closes, 14),
		Direction:  DirectionFlat,
	}

	change := trend.WeekChange
	if change == nil {
		// less than a week of history: compare against the first close
		change = formulas.PercentChange(closes, len(closes)-1)
	}
	if change != nil {
		switch {
		case *change > flatThreshold:
			trend.Direction = DirectionUp
		case *change < -flatThreshold:
			trend.Direction = DirectionDown
		}
	}
	return trend
}
