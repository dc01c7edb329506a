package scenario

import (
	"fmt"
	"math"
)

// Simulate generates req.PathCount GBM price paths of req.HorizonDays steps:
//
//	price[t][p] = price[t-1][p] * exp(drift + volatility*Z[t][p])
//
// Variates are drawn path by path, day by day, from src.
func Simulate(req SimulationRequest, src NormalSource) (*PathMatrix, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, fmt.Errorf("%w: normal source is required", ErrInvalidRequest)
	}

	raw := make([]float64, req.HorizonDays*req.PathCount)
	for p := 0; p < req.PathCount; p++ {
		if err := fillPath(raw, req, p, src); err != nil {
			return nil, err
		}
	}
	return newPathMatrix(req.StartPrice, req.HorizonDays, req.PathCount, raw), nil
}

// Validate checks the request can be simulated.
func (r SimulationRequest) Validate() error {
	if r.HorizonDays <= 0 {
		return fmt.Errorf("%w: horizon days must be positive, got %d", ErrInvalidRequest, r.HorizonDays)
	}
	if r.PathCount <= 0 {
		return fmt.Errorf("%w: path count must be positive, got %d", ErrInvalidRequest, r.PathCount)
	}
	if !(r.StartPrice > 0) || math.IsInf(r.StartPrice, 0) {
		return fmt.Errorf("%w: start price must be positive, got %v", ErrInvalidRequest, r.StartPrice)
	}
	if !isFinite(r.Params.Drift) || !isFinite(r.Params.Volatility) || r.Params.Volatility < 0 {
		return fmt.Errorf("%w: unusable parameters drift=%v volatility=%v", ErrInvalidRequest, r.Params.Drift, r.Params.Volatility)
	}
	return nil
}

// fillPath writes path p into the row-major buffer raw. A price that
// underflows to zero or overflows to infinity fails the path.
func fillPath(raw []float64, req SimulationRequest, p int, src NormalSource) error {
	drift, vol := req.Params.Drift, req.Params.Volatility
	price := req.StartPrice
	for t := 0; t < req.HorizonDays; t++ {
		price *= math.Exp(drift + vol*src.Normal())
		if !(price > 0) || math.IsInf(price, 0) {
			return fmt.Errorf("%w: price of path %d left the representable range on day %d", ErrInvalidRequest, p, t+1)
		}
		raw[t*req.PathCount+p] = price
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
