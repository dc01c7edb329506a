package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/forecast/internal/database"
)

type fakeDB struct {
	name     string
	pingErr  error
	statsErr error
}

func (f fakeDB) Name() string { return f.name }

func (f fakeDB) QuickCheck(context.Context) error { return f.pingErr }

func (f fakeDB) GetStats() (*database.Stats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return &database.Stats{Name: f.name, PageCount: 10, PageSize: 4096}, nil
}

type pingModule struct{}

func (pingModule) RegisterRoutes(r chi.Router) {
	r.Get("/api/v1/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func newTestServer(t *testing.T, dbs ...MonitoredDB) *Server {
	t.Helper()
	s := New(Config{
		Log:       zerolog.Nop(),
		Port:      0,
		DevMode:   true,
		DataDir:   t.TempDir(),
		Databases: dbs,
		Modules:   []RouteRegistrar{pingModule{}},
	})
	s.systemHandlers.systemStats = func() (float64, float64) { return 12.5, 40 }
	return s
}

func get(s *Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, fakeDB{name: "cache"}, fakeDB{name: "reports"})

	rec := get(s, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "forecast", body["service"])
}

func TestHealth_Degraded(t *testing.T) {
	s := newTestServer(t, fakeDB{name: "cache", pingErr: errors.New("database is closed")})

	rec := get(s, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "database is closed")
}

func TestSystemStatus(t *testing.T) {
	s := newTestServer(t, fakeDB{name: "cache"}, fakeDB{name: "reports", statsErr: errors.New("locked")})
	require.NoError(t, os.WriteFile(filepath.Join(s.systemHandlers.dataDir, "cache.db"), make([]byte, 1024*1024), 0644))

	rec := get(s, "/api/system/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var body SystemStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, 12.5, body.CPUPercent)
	assert.Equal(t, 40.0, body.MemoryPercent)
	assert.InDelta(t, 1.0, body.DataDirMB, 1e-9)
	require.Len(t, body.Databases, 1)
	assert.Equal(t, "cache", body.Databases[0].Name)
	require.Len(t, body.Errors, 1)
	assert.Contains(t, body.Errors[0], "reports")
}

func TestModulesAreMounted(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusNoContent, get(s, "/api/v1/ping").Code)
	assert.Equal(t, http.StatusNotFound, get(s, "/api/v1/missing").Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/ping", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
