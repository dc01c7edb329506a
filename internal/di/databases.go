package di

import (
	"fmt"
	"path/filepath"

	"github.com/aristath/forecast/internal/config"
	"github.com/aristath/forecast/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens cache.db and reports.db and applies their schemas
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// 1. cache.db - price history and classification verdicts, safe to lose
	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    database.NameCache,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache database: %w", err)
	}
	container.CacheDB = cacheDB

	// 2. reports.db - generated reports
	reportsDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "reports.db"),
		Profile: database.ProfileStandard,
		Name:    database.NameReports,
	})
	if err != nil {
		cacheDB.Close()
		return nil, fmt.Errorf("failed to initialize reports database: %w", err)
	}
	container.ReportsDB = reportsDB

	for _, db := range container.Databases() {
		if err := db.Migrate(); err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to migrate %s database: %w", db.Name(), err)
		}
	}

	log.Info().
		Str("data_dir", cfg.DataDir).
		Int("databases", len(container.Databases())).
		Msg("Databases initialized")

	return container, nil
}
