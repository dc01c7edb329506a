package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/forecast/internal/modules/reports"
)

// Store reads the report log.
type Store interface {
	Get(ctx context.Context, id string) (*reports.Record, error)
	List(ctx context.Context, ticker string, limit int) ([]reports.Record, error)
}

// Handler handles report log HTTP requests
type Handler struct {
	store Store
	log   zerolog.Logger
}

// NewHandler creates a new reports handler
func NewHandler(store Store, log zerolog.Logger) *Handler {
	return &Handler{
		store: store,
		log:   log.With().Str("handler", "reports").Logger(),
	}
}

// RegisterRoutes registers all report log routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/reports", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Get("/{id}", h.HandleGet)
	})
}

// HandleList handles GET /api/v1/reports?ticker=&limit=
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			h.writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	records, err := h.store.List(r.Context(), r.URL.Query().Get("ticker"), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list reports")
		h.writeError(w, http.StatusInternalServerError, "Failed to list reports")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"reports": records,
		"count":   len(records),
	})
}

// HandleGet handles GET /api/v1/reports/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	record, err := h.store.Get(r.Context(), id)
	if errors.Is(err, reports.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "Report not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to get report")
		h.writeError(w, http.StatusInternalServerError, "Failed to get report")
		return
	}

	h.writeJSON(w, http.StatusOK, record)
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
