package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/forecast/internal/clients/yahoo"
)

type stubProvider struct {
	bars  []yahoo.DailyBar
	err   error
	calls int
}

func (p *stubProvider) FetchBars(ctx context.Context, ticker string, endDate time.Time, lookbackDays int) ([]yahoo.DailyBar, error) {
	p.calls++
	return p.bars, p.err
}

type entry struct {
	blob  []byte
	fresh bool
}

// memoryCache mimics the repository's encode/decode round trip.
type memoryCache struct {
	entries map[string]entry
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]entry{}}
}

func (c *memoryCache) Store(table, key string, value interface{}, ttl time.Duration) error {
	blob, err := msgpack.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[table+"/"+key] = entry{blob: blob, fresh: ttl > 0}
	return nil
}

func (c *memoryCache) GetIfFresh(table, key string, out interface{}) (bool, error) {
	e, ok := c.entries[table+"/"+key]
	if !ok || !e.fresh {
		return false, nil
	}
	return true, msgpack.Unmarshal(e.blob, out)
}

func (c *memoryCache) Get(table, key string, out interface{}) (bool, error) {
	e, ok := c.entries[table+"/"+key]
	if !ok {
		return false, nil
	}
	return true, msgpack.Unmarshal(e.blob, out)
}

func (c *memoryCache) expireAll() {
	for k, e := range c.entries {
		e.fresh = false
		c.entries[k] = e
	}
}

func sampleBars() []yahoo.DailyBar {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return []yahoo.DailyBar{
		{Date: day, Close: 10},
		{Date: day.AddDate(0, 0, 1), Close: 10.5},
		{Date: day.AddDate(0, 0, 4), Close: 10.2, Volume: 500},
	}
}

var endDate = time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

func TestFetchBars_ProviderThenCache(t *testing.T) {
	provider := &stubProvider{bars: sampleBars()}
	svc := NewService(provider, newMemoryCache(), time.Hour, zerolog.Nop())

	series, err := svc.FetchBars(context.Background(), "aapl", endDate, 30)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", series.Ticker)
	assert.Equal(t, []float64{10, 10.5, 10.2}, series.Closes())
	assert.Equal(t, int64(500), series.Bars[2].Volume)

	again, err := svc.FetchBars(context.Background(), "AAPL", endDate, 30)
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls, "second call is served from cache")
	assert.Equal(t, series.Closes(), again.Closes())
	assert.True(t, series.Bars[0].Date.Equal(again.Bars[0].Date))
}

func TestFetchBars_StaleFallback(t *testing.T) {
	provider := &stubProvider{bars: sampleBars()}
	cache := newMemoryCache()
	svc := NewService(provider, cache, time.Hour, zerolog.Nop())

	_, err := svc.FetchBars(context.Background(), "AAPL", endDate, 30)
	require.NoError(t, err)

	cache.expireAll()
	provider.err = errors.New("provider down")

	series, err := svc.FetchBars(context.Background(), "AAPL", endDate, 30)
	require.NoError(t, err)
	assert.Equal(t, 3, series.Len())
	assert.Equal(t, 2, provider.calls)
}

func TestFetchBars_ProviderErrorWithoutCache(t *testing.T) {
	provider := &stubProvider{err: errors.New("provider down")}
	svc := NewService(provider, nil, time.Hour, zerolog.Nop())

	_, err := svc.FetchBars(context.Background(), "AAPL", endDate, 30)
	assert.ErrorContains(t, err, "provider down")
}

func TestFetchBars_EmptyIsNoData(t *testing.T) {
	svc := NewService(&stubProvider{}, newMemoryCache(), time.Hour, zerolog.Nop())

	_, err := svc.FetchBars(context.Background(), "AAPL", endDate, 30)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestFetchBars_EmptyTicker(t *testing.T) {
	svc := NewService(&stubProvider{}, nil, 0, zerolog.Nop())

	_, err := svc.FetchBars(context.Background(), "  ", endDate, 30)
	assert.Error(t, err)
}
