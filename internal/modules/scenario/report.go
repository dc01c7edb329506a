package scenario

// BuildReport calibrates on series, simulates pathCount paths of horizonDays
// steps from the last close and reduces them into a report. Errors from
// calibration and simulation are returned unchanged; no partial report is produced.
func BuildReport(series HistoricalSeries, horizonDays, pathCount int, src NormalSource) (ScenarioReport, error) {
	params, err := Calibrate(series)
	if err != nil {
		return ScenarioReport{}, err
	}

	req := SimulationRequest{
		StartPrice:  series.LastClose(),
		HorizonDays: horizonDays,
		PathCount:   pathCount,
		Params:      params,
	}
	matrix, err := Simulate(req, src)
	if err != nil {
		return ScenarioReport{}, err
	}

	return assemble(series.Ticker, req, matrix), nil
}

func assemble(ticker string, req SimulationRequest, matrix *PathMatrix) ScenarioReport {
	outcome, bands := reduce(matrix, req.StartPrice, true)

	return ScenarioReport{
		Ticker:                ticker,
		StartPrice:            req.StartPrice,
		HorizonDays:           req.HorizonDays,
		PathCount:             req.PathCount,
		MedianPath:            outcome.MedianPath,
		TerminalPrices:        outcome.TerminalPrices,
		ProbabilityAboveStart: outcome.ProbabilityAboveStart,
		MedianTerminalPrice:   outcome.MedianTerminalPrice,
		Params:                req.Params,
		Distribution:          describe(outcome, bands, req.StartPrice),
	}
}
