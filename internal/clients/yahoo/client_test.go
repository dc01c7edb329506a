package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartFixture = `{
  "chart": {
    "result": [{
      "meta": {"symbol": "600519.SS", "currency": "CNY", "gmtoffset": 28800},
      "timestamp": [1704243600, 1704157200, 1704330000, 1704416400],
      "indicators": {
        "quote": [{
          "open":   [101.0, 100.0, null, 103.0],
          "high":   [102.0, 101.0, null, 104.0],
          "low":    [100.5, 99.0, null, 102.0],
          "close":  [101.5, 100.5, null, 103.5],
          "volume": [2000, 1000, null, 3000]
        }],
        "adjclose": [{"adjclose": [101.4, 100.4, null, 103.4]}]
      }
    }],
    "error": null
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(zerolog.Nop(), WithBaseURL(server.URL), WithRateLimit(100))
}

func TestToYahooSymbol(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"600519.SH", "600519.SS"},
		{"000001.SZ", "000001.SZ"},
		{"aapl.us", "AAPL"},
		{"7203.JP", "7203.T"},
		{" BASF.DE ", "BASF.DE"},
		{"MSFT", "MSFT"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ToYahooSymbol(tt.in))
		})
	}
}

func TestFetchBars(t *testing.T) {
	end := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	var gotPath string
	var gotQuery map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{
			"interval": r.URL.Query().Get("interval"),
			"period1":  r.URL.Query().Get("period1"),
			"period2":  r.URL.Query().Get("period2"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chartFixture))
	})

	bars, err := client.FetchBars(context.Background(), "600519.SH", end, 30)
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/600519.SS", gotPath)
	assert.Equal(t, "1d", gotQuery["interval"])
	assert.Equal(t, strconv.FormatInt(time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC).Unix(), 10), gotQuery["period2"])
	assert.Equal(t, strconv.FormatInt(time.Date(2023, 12, 7, 0, 0, 0, 0, time.UTC).Unix(), 10), gotQuery["period1"], "30 days ending on the 5th")

	require.Len(t, bars, 3, "the null session is skipped")
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), bars[0].Date)
	assert.Equal(t, 100.4, bars[0].Close, "adjusted close preferred")
	assert.Equal(t, 100.0, bars[0].Open)
	assert.Equal(t, int64(1000), bars[0].Volume)
	assert.Equal(t, 101.4, bars[1].Close)
	assert.Equal(t, 103.4, bars[2].Close)
	for i := 1; i < len(bars); i++ {
		assert.True(t, bars[i-1].Date.Before(bars[i].Date))
	}
}

func TestFetchBars_ChartError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	})

	_, err := client.FetchBars(context.Background(), "NOPE", time.Now(), 10)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Not Found", apiErr.Code)
}

func TestFetchBars_HTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	})

	_, err := client.FetchBars(context.Background(), "AAPL", time.Now(), 10)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
}

func TestFetchBars_EmptyResult(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
	})

	bars, err := client.FetchBars(context.Background(), "AAPL", time.Now(), 10)
	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestFetchBars_InvalidLookback(t *testing.T) {
	client := NewClient(zerolog.Nop())

	_, err := client.FetchBars(context.Background(), "AAPL", time.Now(), 0)
	assert.Error(t, err)
}

func TestFetchBars_ContextCancelled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chartFixture))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchBars(ctx, "AAPL", time.Now(), 10)
	assert.Error(t, err)
}
