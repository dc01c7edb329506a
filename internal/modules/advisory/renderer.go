package advisory

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/aristath/forecast/internal/modules/scenario"
)

// Recommendation thresholds on the probability of finishing above the start price.
const (
	buyProbability  = 0.55
	sellProbability = 0.45
)

var hundred = decimal.NewFromInt(100)

// TemplateRenderer writes a fixed-format narrative without any model.
type TemplateRenderer struct{}

// Render describes the trend, the simulated outlook and a recommendation.
func (TemplateRenderer) Render(report scenario.ScenarioReport, trend Trend) string {
	var b strings.Builder

	b.WriteString("[Price trend]: ")
	b.WriteString(describeTrend(report.Ticker, trend))
	b.WriteString("\n")

	fmt.Fprintf(&b, "[Outlook]: Over the next %d trading days, %s of %d simulated paths finish above %s. "+
		"The median terminal price is %s (%s).",
		report.HorizonDays,
		percent(report.ProbabilityAboveStart),
		report.PathCount,
		price(report.StartPrice),
		price(report.MedianTerminalPrice),
		signedPercent(report.Distribution.ExpectedReturn),
	)
	if report.Distribution.VaR95 < 0 {
		fmt.Fprintf(&b, " In the worst 5%% of paths the average loss is %s.", percent(-report.Distribution.CVaR95))
	}
	b.WriteString("\n")

	action, reason := recommend(report, trend)
	fmt.Fprintf(&b, "[Recommendation]: %s. %s", action, reason)
	return b.String()
}

func describeTrend(ticker string, trend Trend) string {
	s := fmt.Sprintf("%s last closed at %s", ticker, price(trend.LastClose))
	if trend.WeekChange != nil {
		s += fmt.Sprintf(", %s over the past week", signedPercent(*trend.WeekChange))
	}
	switch trend.Direction {
	case DirectionUp:
		s += "; the short-term trend is rising"
	case DirectionDown:
		s += "; the short-term trend is falling"
	default:
		s += "; the short-term trend is flat"
	}
	if trend.RSI14 != nil {
		rsi := decimal.NewFromFloat(*trend.RSI14).StringFixed(0)
		switch {
		case *trend.RSI14 >= 70:
			s += " and RSI " + rsi + " suggests overbought conditions"
		case *trend.RSI14 <= 30:
			s += " and RSI " + rsi + " suggests oversold conditions"
		}
	}
	return s + "."
}

func recommend(report scenario.ScenarioReport, trend Trend) (string, string) {
	p := report.ProbabilityAboveStart
	switch {
	case p >= buyProbability && trend.Direction != DirectionDown:
		return "Buy", fmt.Sprintf("Most simulated paths (%s) end higher and the recent trend does not contradict it.", percent(p))
	case p <= sellProbability && trend.Direction != DirectionUp:
		return "Sell", fmt.Sprintf("Only %s of simulated paths end higher.", percent(p))
	default:
		return "Hold", "The simulated outlook is balanced; wait for clearer direction."
	}
}

func price(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func percent(v float64) string {
	return decimal.NewFromFloat(v).Mul(hundred).StringFixed(1) + "%"
}

func signedPercent(v float64) string {
	s := percent(v)
	if v > 0 {
		return "+" + s
	}
	return s
}
