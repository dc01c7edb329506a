package di

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/forecast/internal/clientdata"
	"github.com/aristath/forecast/internal/clients/llm"
	"github.com/aristath/forecast/internal/clients/yahoo"
	"github.com/aristath/forecast/internal/config"
	"github.com/aristath/forecast/internal/marketdata"
	"github.com/aristath/forecast/internal/modules/advisory"
	advisoryhandlers "github.com/aristath/forecast/internal/modules/advisory/handlers"
	"github.com/aristath/forecast/internal/modules/reports"
	reporthandlers "github.com/aristath/forecast/internal/modules/reports/handlers"
	"github.com/aristath/forecast/internal/modules/scenario"
	scenariohandlers "github.com/aristath/forecast/internal/modules/scenario/handlers"
	"github.com/aristath/forecast/internal/reliability"
	"github.com/aristath/forecast/internal/server"
	"github.com/rs/zerolog"
)

// InitializeServices builds repositories, clients, services and HTTP modules
// on top of the databases already in the container.
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.ClientDataRepo = clientdata.NewRepository(container.CacheDB.Conn())
	container.ReportRepo = reports.NewRepository(container.ReportsDB.Conn(), log)

	container.YahooClient = yahoo.NewClient(log,
		yahoo.WithBaseURL(cfg.MarketData.BaseURL),
		yahoo.WithTimeout(cfg.MarketData.Timeout),
		yahoo.WithRateLimit(cfg.MarketData.RequestsPerSecond),
	)
	container.MarketData = marketdata.NewService(container.YahooClient, container.ClientDataRepo, cfg.MarketData.CacheTTL, log)

	container.ScenarioService = scenario.NewService(scenario.ServiceConfig{
		Workers:            cfg.Simulation.Workers,
		DefaultPaths:       cfg.Simulation.DefaultPaths,
		DefaultHorizonDays: cfg.Simulation.DefaultHorizonDays,
		MaxPaths:           cfg.Simulation.MaxPaths,
		MaxHorizonDays:     cfg.Simulation.MaxHorizonDays,
		Seed:               cfg.Simulation.Seed,
	}, log)

	gen, err := llm.New(ctx, cfg.LLM, log)
	if err != nil {
		return fmt.Errorf("failed to create llm client: %w", err)
	}
	container.Generator = gen

	deps := advisory.Deps{
		Bars:         container.MarketData,
		Reports:      container.ScenarioService,
		Store:        container.ReportRepo,
		LookbackDays: cfg.Simulation.LookbackDays,
	}
	if gen != nil {
		deps.Classifier = advisory.NewLLMClassifier(gen, container.ClientDataRepo, log)
		deps.Timeliness = advisory.NewLLMTimelinessChecker(gen)
		deps.Advisor = advisory.NewLLMAdvisor(gen)
		log.Info().Str("provider", gen.Name()).Msg("LLM advisory enabled")
	} else {
		deps.Timeliness = advisory.NewAgeTimelinessChecker(cfg.NewsMaxAge)
		log.Info().Msg("No LLM provider configured, using template narratives")
	}
	container.AdvisoryService = advisory.NewService(deps, log)

	if cfg.Backup.Enabled {
		store, err := reliability.NewS3Store(ctx, reliability.S3Config{
			Bucket:          cfg.Backup.Bucket,
			Endpoint:        cfg.Backup.Endpoint,
			Region:          cfg.Backup.Region,
			AccessKeyID:     cfg.Backup.AccessKeyID,
			SecretAccessKey: cfg.Backup.SecretAccessKey,
		})
		if err != nil {
			return fmt.Errorf("failed to create backup store: %w", err)
		}
		var snapshots []reliability.Snapshotter
		for _, db := range container.Databases() {
			snapshots = append(snapshots, db)
		}
		container.BackupService = reliability.NewBackupService(store, snapshots, cfg.Backup.Prefix, cfg.DataDir, server.Version, log)
	}

	container.Modules = []server.RouteRegistrar{
		scenariohandlers.NewHandler(container.ScenarioService, container.MarketData, container.ReportRepo, cfg.Simulation.LookbackDays, log),
		reporthandlers.NewHandler(container.ReportRepo, log),
		advisoryhandlers.NewHandler(container.AdvisoryService, log),
	}

	return nil
}

// reportMaxAge converts the retention setting; zero disables retention.
func reportMaxAge(cfg *config.Config) time.Duration {
	return time.Duration(cfg.ReportRetentionDays) * 24 * time.Hour
}
