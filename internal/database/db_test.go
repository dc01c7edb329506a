package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T, name string, profile DatabaseProfile) *DB {
	t.Helper()
	db, err := New(Config{
		Path:    filepath.Join(t.TempDir(), name+".db"),
		Profile: profile,
		Name:    name,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tableExists(t *testing.T, db *DB, table string) bool {
	t.Helper()
	var count int
	err := db.Conn().QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table,
	).Scan(&count)
	require.NoError(t, err)
	return count == 1
}

func TestMigrate_CreatesSchemaTables(t *testing.T) {
	cache := newTestDB(t, NameCache, ProfileCache)
	require.NoError(t, cache.Migrate())
	assert.True(t, tableExists(t, cache, "price_history"))
	assert.True(t, tableExists(t, cache, "classifications"))

	reports := newTestDB(t, NameReports, ProfileStandard)
	require.NoError(t, reports.Migrate())
	assert.True(t, tableExists(t, reports, "scenario_reports"))
}

func TestMigrate_IsIdempotent(t *testing.T) {
	db := newTestDB(t, NameReports, ProfileStandard)

	require.NoError(t, db.Migrate())
	require.NoError(t, db.Migrate())
}

func TestMigrate_UnknownNameIsNoop(t *testing.T) {
	db := newTestDB(t, "scratch", ProfileStandard)

	assert.NoError(t, db.Migrate())
}

func TestNew_DefaultsToStandardProfile(t *testing.T) {
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "x.db"), Name: "x"})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, ProfileStandard, db.Profile())
	assert.True(t, filepath.IsAbs(db.Path()))
	assert.Equal(t, "x", db.Name())
}

func TestWithTransaction(t *testing.T) {
	db := newTestDB(t, "tx", ProfileStandard)
	_, err := db.Conn().Exec("CREATE TABLE items (v INTEGER)")
	require.NoError(t, err)

	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, err := tx.Exec("INSERT INTO items (v) VALUES (1)")
		return err
	})
	require.NoError(t, err)

	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO items (v) VALUES (2)"); err != nil {
			return err
		}
		return errors.New("boom")
	})
	assert.Error(t, err)

	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, _ = tx.Exec("INSERT INTO items (v) VALUES (3)")
		panic("unexpected")
	})
	assert.ErrorContains(t, err, "panic in transaction")

	var count int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM items").Scan(&count))
	assert.Equal(t, 1, count)

	assert.Error(t, WithTransaction(nil, func(*sql.Tx) error { return nil }))
}

func TestHealthAndStats(t *testing.T) {
	db := newTestDB(t, NameCache, ProfileCache)
	require.NoError(t, db.Migrate())

	ctx := context.Background()
	assert.NoError(t, db.QuickCheck(ctx))
	assert.NoError(t, db.HealthCheck(ctx))
	assert.NoError(t, db.WALCheckpoint(""))

	stats, err := db.GetStats()
	require.NoError(t, err)
	assert.Equal(t, NameCache, stats.Name)
	assert.Greater(t, stats.PageCount, int64(0))
	assert.Greater(t, stats.PageSize, int64(0))
}

func TestVacuumInto(t *testing.T) {
	db := newTestDB(t, NameReports, ProfileStandard)
	require.NoError(t, db.Migrate())

	dest := filepath.Join(t.TempDir(), "snapshot.db")
	require.NoError(t, db.VacuumInto(context.Background(), dest))
	assert.FileExists(t, dest)

	snapshot, err := New(Config{Path: dest, Name: NameReports})
	require.NoError(t, err)
	defer snapshot.Close()
	assert.True(t, tableExists(t, snapshot, "scenario_reports"))
}
