// Package marketdata serves daily price history with a persistent cache in front of the provider.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/forecast/internal/clientdata"
	"github.com/aristath/forecast/internal/clients/yahoo"
	"github.com/aristath/forecast/internal/modules/scenario"
)

// ErrNoData is returned when neither the provider nor the cache has bars for a ticker.
var ErrNoData = errors.New("no price data available")

// Provider fetches raw daily bars.
type Provider interface {
	FetchBars(ctx context.Context, ticker string, endDate time.Time, lookbackDays int) ([]yahoo.DailyBar, error)
}

// Cache is the subset of clientdata.Repository used here.
type Cache interface {
	Store(table, key string, value interface{}, ttl time.Duration) error
	GetIfFresh(table, key string, out interface{}) (bool, error)
	Get(table, key string, out interface{}) (bool, error)
}

// Service resolves price history cache-first.
type Service struct {
	provider Provider
	cache    Cache
	ttl      time.Duration
	log      zerolog.Logger
}

// NewService creates a market data service. cache may be nil.
func NewService(provider Provider, cache Cache, ttl time.Duration, log zerolog.Logger) *Service {
	if ttl <= 0 {
		ttl = clientdata.TTLPriceHistory
	}
	return &Service{
		provider: provider,
		cache:    cache,
		ttl:      ttl,
		log:      log.With().Str("service", "marketdata").Logger(),
	}
}

// FetchBars returns the series for ticker over lookbackDays ending at endDate.
// Order: fresh cache, provider, stale cache.
func (s *Service) FetchBars(ctx context.Context, ticker string, endDate time.Time, lookbackDays int) (scenario.HistoricalSeries, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return scenario.HistoricalSeries{}, fmt.Errorf("ticker is required")
	}
	key := cacheKey(ticker, endDate, lookbackDays)

	var cached scenario.HistoricalSeries
	if s.cache != nil {
		found, err := s.cache.GetIfFresh(clientdata.TablePriceHistory, key, &cached)
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to read price cache")
		} else if found && cached.Len() > 0 {
			s.log.Debug().Str("ticker", ticker).Int("bars", cached.Len()).Msg("Price history served from cache")
			return inUTC(cached), nil
		}
	}

	raw, fetchErr := s.provider.FetchBars(ctx, ticker, endDate, lookbackDays)
	if fetchErr == nil && len(raw) > 0 {
		series := toSeries(ticker, raw)
		if s.cache != nil {
			if err := s.cache.Store(clientdata.TablePriceHistory, key, series, s.ttl); err != nil {
				s.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to cache price history")
			}
		}
		return series, nil
	}

	if s.cache != nil {
		found, err := s.cache.Get(clientdata.TablePriceHistory, key, &cached)
		if err == nil && found && cached.Len() > 0 {
			s.log.Warn().Err(fetchErr).Str("ticker", ticker).Msg("Provider unavailable, using stale price history")
			return inUTC(cached), nil
		}
	}

	if fetchErr != nil {
		return scenario.HistoricalSeries{}, fmt.Errorf("failed to fetch price history for %s: %w", ticker, fetchErr)
	}
	return scenario.HistoricalSeries{}, fmt.Errorf("%w for %s", ErrNoData, ticker)
}

func cacheKey(ticker string, endDate time.Time, lookbackDays int) string {
	return fmt.Sprintf("%s:%s:%d", ticker, endDate.UTC().Format("2006-01-02"), lookbackDays)
}

func toSeries(ticker string, raw []yahoo.DailyBar) scenario.HistoricalSeries {
	bars := make([]scenario.Bar, len(raw))
	for i, b := range raw {
		bars[i] = scenario.Bar{
			Date:   b.Date,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
	}
	return scenario.HistoricalSeries{Ticker: ticker, Bars: bars}
}

// inUTC restores UTC dates; the msgpack decoder yields local times.
func inUTC(series scenario.HistoricalSeries) scenario.HistoricalSeries {
	for i := range series.Bars {
		series.Bars[i].Date = series.Bars[i].Date.UTC()
	}
	return series
}
