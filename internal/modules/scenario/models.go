package scenario

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/aristath/forecast/pkg/formulas"
)

// Bar is a single daily OHLCV record.
type Bar struct {
	Date   time.Time `json:"date" msgpack:"d"`
	Open   float64   `json:"open" msgpack:"o"`
	High   float64   `json:"high" msgpack:"h"`
	Low    float64   `json:"low" msgpack:"l"`
	Close  float64   `json:"close" msgpack:"c"`
	Volume int64     `json:"volume" msgpack:"v"`
}

// HistoricalSeries is an ordered run of daily bars for one ticker.
// Dates are strictly increasing; gaps for non-trading days are expected.
type HistoricalSeries struct {
	Ticker string `json:"ticker" msgpack:"t"`
	Bars   []Bar  `json:"bars" msgpack:"b"`
}

// SeriesFromCloses builds a series from bare closing prices, one per day ending today.
func SeriesFromCloses(ticker string, closes []float64) HistoricalSeries {
	bars := make([]Bar, len(closes))
	start := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -len(closes)+1)
	for i, c := range closes {
		bars[i] = Bar{Date: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c}
	}
	return HistoricalSeries{Ticker: ticker, Bars: bars}
}

// Len returns the number of bars.
func (s HistoricalSeries) Len() int {
	return len(s.Bars)
}

// Closes returns a copy of the closing prices.
func (s HistoricalSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// LastClose returns the most recent close, 0 for an empty series.
func (s HistoricalSeries) LastClose() float64 {
	if len(s.Bars) == 0 {
		return 0
	}
	return s.Bars[len(s.Bars)-1].Close
}

// CalibratedParameters are the per-day GBM inputs estimated from log returns.
type CalibratedParameters struct {
	Drift      float64 `json:"drift"`
	Volatility float64 `json:"volatility"`
}

// Annualized returns the yearly equivalents used for display.
func (p CalibratedParameters) Annualized() CalibratedParameters {
	return CalibratedParameters{
		Drift:      formulas.AnnualizeDrift(p.Drift),
		Volatility: formulas.AnnualizeVolatility(p.Volatility),
	}
}

// SimulationRequest describes one Monte Carlo run.
type SimulationRequest struct {
	StartPrice  float64
	HorizonDays int
	PathCount   int
	Params      CalibratedParameters
}

// PathMatrix holds HorizonDays x PathCount simulated closes.
// Row t-1 is day t; day 0 is the start price and is not stored.
// The matrix is read-only once built.
type PathMatrix struct {
	startPrice float64
	prices     *mat.Dense
}

func newPathMatrix(startPrice float64, horizonDays, pathCount int, raw []float64) *PathMatrix {
	return &PathMatrix{
		startPrice: startPrice,
		prices:     mat.NewDense(horizonDays, pathCount, raw),
	}
}

// StartPrice returns the shared day-0 price.
func (m *PathMatrix) StartPrice() float64 {
	return m.startPrice
}

// HorizonDays returns the number of simulated days (rows).
func (m *PathMatrix) HorizonDays() int {
	r, _ := m.prices.Dims()
	return r
}

// PathCount returns the number of paths (columns).
func (m *PathMatrix) PathCount() int {
	_, c := m.prices.Dims()
	return c
}

// Price returns the price of path on day (0..HorizonDays). Day 0 is the start price.
func (m *PathMatrix) Price(day, path int) float64 {
	if day == 0 {
		return m.startPrice
	}
	return m.prices.At(day-1, path)
}

// Day returns a copy of all path prices on day (1..HorizonDays).
func (m *PathMatrix) Day(day int) []float64 {
	return mat.Row(nil, day-1, m.prices)
}

// Path returns a copy of one path's prices for days 1..HorizonDays.
func (m *PathMatrix) Path(path int) []float64 {
	return mat.Col(nil, path, m.prices)
}

// Terminal returns a copy of the final day's prices.
func (m *PathMatrix) Terminal() []float64 {
	return m.Day(m.HorizonDays())
}

// Band is the spread of simulated prices on one day.
type Band struct {
	Day int     `json:"day"`
	P5  float64 `json:"p5"`
	P25 float64 `json:"p25"`
	P75 float64 `json:"p75"`
	P95 float64 `json:"p95"`
}

// Outcome is the reduced view of a PathMatrix.
type Outcome struct {
	MedianPath            []float64 `json:"median_path"`
	TerminalPrices        []float64 `json:"terminal_prices"`
	ProbabilityAboveStart float64   `json:"probability_above_start"`
	MedianTerminalPrice   float64   `json:"median_terminal_price"`
}

// Distribution carries the secondary statistics of a run.
type Distribution struct {
	Bands             []Band  `json:"bands"`
	MeanTerminalPrice float64 `json:"mean_terminal_price"`
	ExpectedReturn    float64 `json:"expected_return"`
	VaR95             float64 `json:"var_95"`
	CVaR95            float64 `json:"cvar_95"`
}

// ScenarioReport is the user-facing summary of a simulation.
type ScenarioReport struct {
	Ticker                string               `json:"ticker,omitempty"`
	StartPrice            float64              `json:"start_price"`
	HorizonDays           int                  `json:"horizon_days"`
	PathCount             int                  `json:"path_count"`
	MedianPath            []float64            `json:"median_path"`
	TerminalPrices        []float64            `json:"terminal_prices,omitempty"`
	ProbabilityAboveStart float64              `json:"probability_above_start"`
	MedianTerminalPrice   float64              `json:"median_terminal_price"`
	Params                CalibratedParameters `json:"params"`
	Distribution          Distribution         `json:"distribution"`
}

// WithoutTerminalPrices returns a copy of the report with the per-path prices dropped.
func (r ScenarioReport) WithoutTerminalPrices() ScenarioReport {
	r.TerminalPrices = nil
	return r
}
