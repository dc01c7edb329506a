// Package yahoo fetches daily price history from the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 2 // requests per second
)

// DailyBar is one trading day as returned by the chart API.
type DailyBar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64 // split/dividend adjusted when the API provides it
	Volume int64
}

// Client is a Yahoo Finance API client
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithRateLimit sets the sustained request rate.
func WithRateLimit(requestsPerSecond float64) ClientOption {
	return func(c *Client) {
		burst := int(requestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

// NewClient creates a new Yahoo Finance client
func NewClient(log zerolog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		log:     log.With().Str("client", "yahoo").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ToYahooSymbol converts exchange-suffixed tickers to Yahoo's notation.
//
//	600519.SH -> 600519.SS (Shanghai)
//	000001.SZ -> 000001.SZ
//	AAPL.US   -> AAPL
//	7203.JP   -> 7203.T
func ToYahooSymbol(ticker string) string {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))

	switch {
	case strings.HasSuffix(symbol, ".SH"):
		return strings.TrimSuffix(symbol, ".SH") + ".SS"
	case strings.HasSuffix(symbol, ".US"):
		return strings.TrimSuffix(symbol, ".US")
	case strings.HasSuffix(symbol, ".JP"):
		return strings.TrimSuffix(symbol, ".JP") + ".T"
	}
	return symbol
}

// APIError is a non-200 response or an error object in the chart payload.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("yahoo API error: %s: %s (status %d)", e.Code, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("yahoo API error: %s (status %d)", e.Message, e.StatusCode)
}

// chartResponse is the subset of the v8 chart payload we read.
// Price arrays contain nulls for halted or missing sessions.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol    string `json:"symbol"`
				Currency  string `json:"currency"`
				GMTOffset int64  `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchBars returns daily bars for ticker covering the lookbackDays calendar
// days up to and including endDate, oldest first. Days without a close are skipped.
func (c *Client) FetchBars(ctx context.Context, ticker string, endDate time.Time, lookbackDays int) ([]DailyBar, error) {
	if lookbackDays <= 0 {
		return nil, fmt.Errorf("lookback days must be positive, got %d", lookbackDays)
	}

	symbol := ToYahooSymbol(ticker)
	end := endDate.UTC().Truncate(24 * time.Hour).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -lookbackDays)

	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("period1", strconv.FormatInt(start.Unix(), 10))
	params.Set("period2", strconv.FormatInt(end.Unix(), 10))
	params.Set("events", "div,split")

	var payload chartResponse
	if err := c.get(ctx, "/v8/finance/chart/"+url.PathEscape(symbol), params, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch chart for %s: %w", symbol, err)
	}

	if payload.Chart.Error != nil {
		return nil, &APIError{
			StatusCode: http.StatusOK,
			Code:       payload.Chart.Error.Code,
			Message:    payload.Chart.Error.Description,
		}
	}

	bars := parseBars(payload)

	c.log.Debug().
		Str("symbol", symbol).
		Int("bars", len(bars)).
		Time("from", start).
		Time("to", end).
		Msg("Fetched price history")

	return bars, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; forecast/1.0)")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func parseBars(payload chartResponse) []DailyBar {
	if len(payload.Chart.Result) == 0 {
		return nil
	}
	result := payload.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil
	}
	quote := result.Indicators.Quote[0]

	var adj []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}

	byDate := make(map[time.Time]DailyBar, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		closePrice := at(quote.Close, i)
		if a := at(adj, i); a > 0 {
			closePrice = a
		}
		if closePrice <= 0 {
			continue
		}

		date := time.Unix(ts+result.Meta.GMTOffset, 0).UTC().Truncate(24 * time.Hour)
		bar := DailyBar{
			Date:  date,
			Open:  at(quote.Open, i),
			High:  at(quote.High, i),
			Low:   at(quote.Low, i),
			Close: closePrice,
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			bar.Volume = *quote.Volume[i]
		}
		byDate[date] = bar
	}

	bars := make([]DailyBar, 0, len(byDate))
	for _, b := range byDate {
		bars = append(bars, b)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars
}

func at(values []*float64, i int) float64 {
	if i >= len(values) || values[i] == nil {
		return 0
	}
	return *values[i]
}
