package scenario

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"time"

	"github.com/rs/zerolog"
)

// Practical ceilings on a single run. The matrix costs 8 bytes per cell.
const (
	DefaultMaxPaths       = 100000
	DefaultMaxHorizonDays = 3650
)

// ServiceConfig tunes the scenario service.
type ServiceConfig struct {
	Workers            int
	DefaultPaths       int
	DefaultHorizonDays int
	MaxPaths           int
	MaxHorizonDays     int
	Seed               uint64 // 0 draws a fresh seed per run
}

// Options are the per-call overrides. Zero values take the service defaults.
type Options struct {
	HorizonDays int
	PathCount   int
	Seed        *uint64
}

// Run is a generated report plus what is needed to reproduce it.
type Run struct {
	Report  ScenarioReport
	Seed    uint64
	Elapsed time.Duration
}

// Service runs calibrated simulations on the worker pool.
type Service struct {
	workerPool *WorkerPool
	cfg        ServiceConfig
	log        zerolog.Logger
}

// NewService creates a new scenario service
func NewService(cfg ServiceConfig, log zerolog.Logger) *Service {
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
		if cfg.Workers < 2 {
			cfg.Workers = 2
		}
	}
	if cfg.MaxPaths <= 0 {
		cfg.MaxPaths = DefaultMaxPaths
	}
	if cfg.MaxHorizonDays <= 0 {
		cfg.MaxHorizonDays = DefaultMaxHorizonDays
	}
	if cfg.DefaultPaths <= 0 {
		cfg.DefaultPaths = 1000
	}
	if cfg.DefaultHorizonDays <= 0 {
		cfg.DefaultHorizonDays = 5
	}

	return &Service{
		workerPool: NewWorkerPool(cfg.Workers),
		cfg:        cfg,
		log:        log.With().Str("service", "scenario").Logger(),
	}
}

// Resolve applies defaults and ceilings to opts.
func (s *Service) Resolve(opts Options) (Options, error) {
	if opts.HorizonDays == 0 {
		opts.HorizonDays = s.cfg.DefaultHorizonDays
	}
	if opts.PathCount == 0 {
		opts.PathCount = s.cfg.DefaultPaths
	}
	if opts.HorizonDays < 0 || opts.HorizonDays > s.cfg.MaxHorizonDays {
		return opts, fmt.Errorf("%w: horizon days must be between 1 and %d, got %d", ErrInvalidRequest, s.cfg.MaxHorizonDays, opts.HorizonDays)
	}
	if opts.PathCount < 0 || opts.PathCount > s.cfg.MaxPaths {
		return opts, fmt.Errorf("%w: path count must be between 1 and %d, got %d", ErrInvalidRequest, s.cfg.MaxPaths, opts.PathCount)
	}
	if opts.Seed == nil {
		seed := s.cfg.Seed
		if seed == 0 {
			seed = rand.Uint64()
		}
		opts.Seed = &seed
	}
	return opts, nil
}

// Generate builds a report for series using the worker pool.
// The same series, options and seed always produce the same report.
func (s *Service) Generate(ctx context.Context, series HistoricalSeries, opts Options) (*Run, error) {
	opts, err := s.Resolve(opts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	params, err := Calibrate(series)
	if err != nil {
		return nil, err
	}

	req := SimulationRequest{
		StartPrice:  series.LastClose(),
		HorizonDays: opts.HorizonDays,
		PathCount:   opts.PathCount,
		Params:      params,
	}

	s.log.Debug().
		Str("ticker", series.Ticker).
		Int("bars", series.Len()).
		Int("horizon_days", req.HorizonDays).
		Int("paths", req.PathCount).
		Int("workers", s.workerPool.Workers()).
		Uint64("seed", *opts.Seed).
		Msg("Starting scenario simulation")

	matrix, err := s.workerPool.Simulate(ctx, req, NewSeededSource(*opts.Seed))
	if err != nil {
		return nil, err
	}

	report := assemble(series.Ticker, req, matrix)
	elapsed := time.Since(start)

	s.log.Info().
		Str("ticker", series.Ticker).
		Float64("start_price", report.StartPrice).
		Float64("prob_above_start", report.ProbabilityAboveStart).
		Float64("median_terminal", report.MedianTerminalPrice).
		Dur("elapsed", elapsed).
		Msg("Scenario simulation complete")

	return &Run{Report: report, Seed: *opts.Seed, Elapsed: elapsed}, nil
}
