package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/forecast/internal/modules/reports"
)

type stubStore struct {
	records   []reports.Record
	err       error
	lastTick  string
	lastLimit int
}

func (s *stubStore) Get(_ context.Context, id string) (*reports.Record, error) {
	if s.err != nil {
		return nil, s.err
	}
	for i := range s.records {
		if s.records[i].ID == id {
			return &s.records[i], nil
		}
	}
	return nil, reports.ErrNotFound
}

func (s *stubStore) List(_ context.Context, ticker string, limit int) ([]reports.Record, error) {
	s.lastTick, s.lastLimit = ticker, limit
	return s.records, s.err
}

func serve(store Store, path string) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	NewHandler(store, zerolog.Nop()).RegisterRoutes(router)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHandleList(t *testing.T) {
	store := &stubStore{records: []reports.Record{{ID: "a", Ticker: "AAPL"}, {ID: "b", Ticker: "AAPL"}}}

	rec := serve(store, "/api/v1/reports?ticker=aapl&limit=10")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Reports []reports.Record `json:"reports"`
		Count   int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "aapl", store.lastTick)
	assert.Equal(t, 10, store.lastLimit)
}

func TestHandleList_BadLimit(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, serve(&stubStore{}, "/api/v1/reports?limit=0").Code)
	assert.Equal(t, http.StatusBadRequest, serve(&stubStore{}, "/api/v1/reports?limit=abc").Code)
}

func TestHandleGet(t *testing.T) {
	store := &stubStore{records: []reports.Record{{ID: "abc", Ticker: "MSFT", MedianPath: []float64{1, 2}}}}

	rec := serve(store, "/api/v1/reports/abc")
	require.Equal(t, http.StatusOK, rec.Code)

	var got reports.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "MSFT", got.Ticker)
	assert.Equal(t, []float64{1, 2}, got.MedianPath)

	assert.Equal(t, http.StatusNotFound, serve(store, "/api/v1/reports/missing").Code)
	assert.Equal(t, http.StatusInternalServerError, serve(&stubStore{err: errors.New("db closed")}, "/api/v1/reports/abc").Code)
}
