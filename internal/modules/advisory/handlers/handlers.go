package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/aristath/forecast/internal/modules/advisory"
	"github.com/aristath/forecast/internal/modules/scenario"
)

// Assessor runs a news assessment.
type Assessor interface {
	Assess(ctx context.Context, req advisory.AssessRequest) (*advisory.Assessment, error)
}

// Handler handles news assessment HTTP requests
type Handler struct {
	service  Assessor
	validate *validator.Validate
	log      zerolog.Logger
}

// NewHandler creates a new advisory handler
func NewHandler(service Assessor, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		log:      log.With().Str("handler", "advisory").Logger(),
	}
}

// RegisterRoutes registers all news assessment routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/news", func(r chi.Router) {
		r.Use(middleware.Timeout(180 * time.Second))
		r.Post("/assess", h.HandleAssess)
	})
}

// AssessRequest is the body of POST /api/v1/news/assess.
// published_at accepts YYYY-MM-DD, YYYY/MM/DD or RFC 3339.
type AssessRequest struct {
	Title       string        `json:"title" validate:"required"`
	Content     string        `json:"content" validate:"required"`
	Platform    int           `json:"platform" validate:"min=0,max=2"`
	PublishedAt string        `json:"published_at"`
	Ticker      string        `json:"ticker" validate:"omitempty,max=20"`
	HorizonDays int           `json:"horizon_days" validate:"omitempty,min=1"`
	PathCount   int           `json:"path_count" validate:"omitempty,min=1"`
	Seed        *uint64       `json:"seed"`
	Mode        advisory.Mode `json:"mode" validate:"omitempty,oneof=llm template"`
}

var dateLayouts = []string{"2006-01-02", "2006/01/02", time.RFC3339}

func parseDate(s string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// HandleAssess handles POST /api/v1/news/assess
func (h *Handler) HandleAssess(w http.ResponseWriter, r *http.Request) {
	var request AssessRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := h.validate.Struct(request); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	var published time.Time
	if request.PublishedAt != "" {
		t, err := parseDate(request.PublishedAt)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid published_at")
			return
		}
		published = t
	}

	startTime := time.Now()
	result, err := h.service.Assess(r.Context(), advisory.AssessRequest{
		News: advisory.NewsItem{
			Title:       request.Title,
			Content:     request.Content,
			Platform:    advisory.Platform(request.Platform),
			PublishedAt: published,
		},
		Ticker:      request.Ticker,
		HorizonDays: request.HorizonDays,
		PathCount:   request.PathCount,
		Seed:        request.Seed,
		Mode:        request.Mode,
	})
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.log.Error().Err(err).Str("ticker", request.Ticker).Msg("News assessment failed")
		}
		h.writeError(w, status, err.Error())
		return
	}

	h.log.Info().
		Str("ticker", result.Ticker).
		Str("credibility", result.Credibility.Label).
		Bool("stale", result.Stale).
		Dur("elapsed", time.Since(startTime)).
		Msg("News assessment completed")

	h.writeJSON(w, http.StatusOK, result)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, advisory.ErrEmptyNews), errors.Is(err, advisory.ErrInvalidPlatform),
		errors.Is(err, scenario.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, scenario.ErrInsufficientData), errors.Is(err, scenario.ErrInvalidPrice):
		return http.StatusUnprocessableEntity
	case errors.Is(err, advisory.ErrDataUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

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

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
