package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/aristath/forecast/internal/marketdata"
	"github.com/aristath/forecast/internal/modules/reports"
	"github.com/aristath/forecast/internal/modules/scenario"
)

const dateLayout = "2006-01-02"

// Generator runs the scenario pipeline.
type Generator interface {
	Generate(ctx context.Context, series scenario.HistoricalSeries, opts scenario.Options) (*scenario.Run, error)
}

// BarFetcher supplies daily price history.
type BarFetcher interface {
	FetchBars(ctx context.Context, ticker string, endDate time.Time, lookbackDays int) (scenario.HistoricalSeries, error)
}

// ReportStore persists report summaries.
type ReportStore interface {
	Save(ctx context.Context, rec reports.Record) (string, error)
}

// Handler handles scenario HTTP requests
type Handler struct {
	service      Generator
	bars         BarFetcher
	store        ReportStore
	lookbackDays int
	validate     *validator.Validate
	log          zerolog.Logger
}

// NewHandler creates a new scenario handler. bars and store may be nil.
func NewHandler(service Generator, bars BarFetcher, store ReportStore, lookbackDays int, log zerolog.Logger) *Handler {
	if lookbackDays <= 0 {
		lookbackDays = 90
	}
	return &Handler{
		service:      service,
		bars:         bars,
		store:        store,
		lookbackDays: lookbackDays,
		validate:     validator.New(),
		log:          log.With().Str("handler", "scenario").Logger(),
	}
}

// SimulateRequest is the body of POST /api/v1/scenario/simulate.
// Either closes or bars must be given; bars win when both are present.
type SimulateRequest struct {
	Ticker       string         `json:"ticker"`
	Closes       []float64      `json:"closes" validate:"required_without=Bars"`
	Bars         []scenario.Bar `json:"bars" validate:"required_without=Closes"`
	HorizonDays  int            `json:"horizon_days" validate:"omitempty,min=1"`
	PathCount    int            `json:"path_count" validate:"omitempty,min=1"`
	Seed         *uint64        `json:"seed"`
	IncludePaths bool           `json:"include_paths"`
}

// ScenarioResponse wraps a generated report.
type ScenarioResponse struct {
	Report    scenario.ScenarioReport `json:"report"`
	Seed      uint64                  `json:"seed"`
	ElapsedMS int64                   `json:"elapsed_ms"`
	ReportID  string                  `json:"report_id,omitempty"`
}

// HandleSimulate handles POST /api/v1/scenario/simulate
func (h *Handler) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	var request SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := h.validate.Struct(request); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	series := scenario.HistoricalSeries{Ticker: strings.ToUpper(request.Ticker), Bars: request.Bars}
	if len(request.Bars) == 0 {
		series = scenario.SeriesFromCloses(series.Ticker, request.Closes)
	}

	h.generate(w, r, series, scenario.Options{
		HorizonDays: request.HorizonDays,
		PathCount:   request.PathCount,
		Seed:        request.Seed,
	}, request.IncludePaths, false)
}

// HandleTicker handles GET /api/v1/scenario/{ticker}
func (h *Handler) HandleTicker(w http.ResponseWriter, r *http.Request) {
	if h.bars == nil {
		h.writeError(w, http.StatusServiceUnavailable, "Market data is not configured")
		return
	}

	ticker := strings.ToUpper(chi.URLParam(r, "ticker"))
	q := r.URL.Query()

	end := time.Now().UTC()
	if v := q.Get("end"); v != "" {
		parsed, err := time.Parse(dateLayout, v)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid end date, expected YYYY-MM-DD")
			return
		}
		end = parsed
	}

	lookback, err := intParam(q.Get("lookback_days"), h.lookbackDays)
	if err != nil || lookback < 2 {
		h.writeError(w, http.StatusBadRequest, "Invalid lookback_days")
		return
	}
	horizon, err := intParam(q.Get("horizon_days"), 0)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid horizon_days")
		return
	}
	paths, err := intParam(q.Get("path_count"), 0)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid path_count")
		return
	}

	opts := scenario.Options{HorizonDays: horizon, PathCount: paths}
	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid seed")
			return
		}
		opts.Seed = &seed
	}
	includePaths, _ := strconv.ParseBool(q.Get("include_paths"))

	series, err := h.bars.FetchBars(r.Context(), ticker, end, lookback)
	if err != nil {
		if errors.Is(err, marketdata.ErrNoData) {
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to fetch bars")
		h.writeError(w, http.StatusBadGateway, "Failed to fetch market data: "+err.Error())
		return
	}

	h.generate(w, r, series, opts, includePaths, true)
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request, series scenario.HistoricalSeries, opts scenario.Options, includePaths, persist bool) {
	run, err := h.service.Generate(r.Context(), series, opts)
	if err != nil {
		h.writeError(w, statusFor(err), err.Error())
		return
	}

	response := ScenarioResponse{
		Report:    run.Report,
		Seed:      run.Seed,
		ElapsedMS: run.Elapsed.Milliseconds(),
	}
	if !includePaths {
		response.Report = run.Report.WithoutTerminalPrices()
	}

	if persist && h.store != nil {
		id, err := h.store.Save(r.Context(), reports.RecordFromRun(run))
		if err != nil {
			h.log.Warn().Err(err).Str("ticker", series.Ticker).Msg("Failed to store report")
		} else {
			response.ReportID = id
		}
	}

	h.writeJSON(w, http.StatusOK, response)
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, scenario.ErrInsufficientData), errors.Is(err, scenario.ErrInvalidPrice):
		return http.StatusUnprocessableEntity
	case errors.Is(err, scenario.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func intParam(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
		status = http.StatusInternalServerError
		buf.Reset()
		buf.WriteString(`{"error":"failed to encode response"}` + "\n")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.log.Debug().Err(err).Msg("Failed to write response")
	}
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
