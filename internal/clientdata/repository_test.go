package clientdata

import (
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedBar struct {
	Close  float64
	Volume int64
}

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// every pooled connection would otherwise get its own empty in-memory database
	db.SetMaxOpenConns(1)

	schema, err := os.ReadFile("../database/schemas/cache_schema.sql")
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestStoreAndGetIfFresh(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	bars := []cachedBar{{Close: 10.5, Volume: 100}, {Close: 11, Volume: 200}}
	require.NoError(t, repo.Store(TablePriceHistory, "AAPL:2024-01-31:30", bars, time.Hour))

	var got []cachedBar
	found, err := repo.GetIfFresh(TablePriceHistory, "AAPL:2024-01-31:30", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, bars, got)
}

func TestGetIfFresh_Missing(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	var got []cachedBar
	found, err := repo.GetIfFresh(TablePriceHistory, "nope", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetIfFresh_ExpiredButGetReturnsStale(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	past := time.Now().Add(-2 * time.Hour)
	repo.now = func() time.Time { return past }
	require.NoError(t, repo.Store(TablePriceHistory, "k", cachedBar{Close: 1}, time.Hour))
	repo.now = time.Now

	var fresh cachedBar
	found, err := repo.GetIfFresh(TablePriceHistory, "k", &fresh)
	require.NoError(t, err)
	assert.False(t, found)

	var stale cachedBar
	found, err = repo.Get(TablePriceHistory, "k", &stale)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1.0, stale.Close)
}

func TestStore_Replaces(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	require.NoError(t, repo.Store(TableClassifications, "k", "first", time.Hour))
	require.NoError(t, repo.Store(TableClassifications, "k", "second", time.Hour))

	var got string
	found, err := repo.Get(TableClassifications, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "second", got)
}

func TestDelete(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	require.NoError(t, repo.Store(TablePriceHistory, "k", 1, time.Hour))

	require.NoError(t, repo.Delete(TablePriceHistory, "k"))

	var got int
	found, err := repo.Get(TablePriceHistory, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidTable(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	assert.Error(t, repo.Store("users; DROP TABLE x", "k", 1, time.Hour))
	_, err := repo.GetIfFresh("bogus", "k", new(int))
	assert.Error(t, err)
	_, err = repo.Get("bogus", "k", new(int))
	assert.Error(t, err)
	assert.Error(t, repo.Delete("bogus", "k"))
	_, err = repo.DeleteExpired("bogus")
	assert.Error(t, err)
}

func TestDeleteAllExpiredAndCleanupJob(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	past := time.Now().Add(-48 * time.Hour)
	repo.now = func() time.Time { return past }
	require.NoError(t, repo.Store(TablePriceHistory, "old", 1, time.Hour))
	require.NoError(t, repo.Store(TableClassifications, "old", 1, time.Hour))
	repo.now = time.Now
	require.NoError(t, repo.Store(TablePriceHistory, "new", 1, time.Hour))

	results, err := repo.DeleteAllExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), results[TablePriceHistory])
	assert.Equal(t, int64(1), results[TableClassifications])

	job := NewCleanupJob(repo, zerolog.Nop())
	assert.Equal(t, "cache_cleanup", job.Name())
	assert.NoError(t, job.Run())

	var got int
	found, err := repo.Get(TablePriceHistory, "new", &got)
	require.NoError(t, err)
	assert.True(t, found)
}
