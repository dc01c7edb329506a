package scenario

import (
	"sort"

	"github.com/aristath/forecast/pkg/formulas"
)

// Reduce condenses a PathMatrix into the median path, the terminal prices,
// the share of paths finishing strictly above startPrice and the median terminal price.
func Reduce(m *PathMatrix, startPrice float64) Outcome {
	outcome, _ := reduce(m, startPrice, false)
	return outcome
}

// reduce walks the matrix one day at a time. Percentile bands are
// collected in the same pass when withBands is set.
func reduce(m *PathMatrix, startPrice float64, withBands bool) (Outcome, []Band) {
	horizon := m.HorizonDays()
	medianPath := make([]float64, horizon)

	var bands []Band
	if withBands {
		bands = make([]Band, horizon)
	}

	row := make([]float64, m.PathCount())
	for day := 1; day <= horizon; day++ {
		for p := range row {
			row[p] = m.Price(day, p)
		}
		sort.Float64s(row)
		medianPath[day-1] = formulas.PercentileSorted(row, 0.5)
		if withBands {
			bands[day-1] = Band{
				Day: day,
				P5:  formulas.PercentileSorted(row, 0.05),
				P25: formulas.PercentileSorted(row, 0.25),
				P75: formulas.PercentileSorted(row, 0.75),
				P95: formulas.PercentileSorted(row, 0.95),
			}
		}
	}

	terminal := m.Terminal()
	return Outcome{
		MedianPath:            medianPath,
		TerminalPrices:        terminal,
		ProbabilityAboveStart: formulas.FractionAbove(terminal, startPrice),
		MedianTerminalPrice:   medianPath[horizon-1],
	}, bands
}

// describe computes the secondary statistics of the terminal distribution.
func describe(outcome Outcome, bands []Band, startPrice float64) Distribution {
	terminal := outcome.TerminalPrices
	returns := make([]float64, len(terminal))
	for i, p := range terminal {
		returns[i] = p/startPrice - 1
	}

	return Distribution{
		Bands:             bands,
		MeanTerminalPrice: formulas.Mean(terminal),
		ExpectedReturn:    outcome.MedianTerminalPrice/startPrice - 1,
		VaR95:             formulas.CalculateVaR(returns, 0.95),
		CVaR95:            formulas.CalculateCVaR(returns, 0.95),
	}
}
