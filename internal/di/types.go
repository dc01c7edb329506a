// Package di provides dependency injection type definitions.
//
// The Container holds every long-lived instance the server needs. It is
// built once by Wire and torn down with Close.
package di

import (
	"github.com/aristath/forecast/internal/clientdata"
	"github.com/aristath/forecast/internal/clients/llm"
	"github.com/aristath/forecast/internal/clients/yahoo"
	"github.com/aristath/forecast/internal/database"
	"github.com/aristath/forecast/internal/marketdata"
	"github.com/aristath/forecast/internal/modules/advisory"
	"github.com/aristath/forecast/internal/modules/reports"
	"github.com/aristath/forecast/internal/modules/scenario"
	"github.com/aristath/forecast/internal/reliability"
	"github.com/aristath/forecast/internal/scheduler"
	"github.com/aristath/forecast/internal/server"
)

// Container holds all application dependencies
type Container struct {
	// Databases
	CacheDB   *database.DB // cache.db - refetchable price history and verdicts
	ReportsDB *database.DB // reports.db - generated report log

	// Repositories
	ClientDataRepo *clientdata.Repository
	ReportRepo     *reports.Repository

	// Clients
	YahooClient *yahoo.Client
	Generator   llm.Generator // nil when no provider is configured

	// Services
	MarketData      *marketdata.Service
	ScenarioService *scenario.Service
	AdvisoryService *advisory.Service
	BackupService   *reliability.BackupService // nil when backups are disabled

	// HTTP modules, in registration order
	Modules []server.RouteRegistrar

	Scheduler *scheduler.Scheduler
}

// Databases returns the open databases in a fixed order.
func (c *Container) Databases() []*database.DB {
	var dbs []*database.DB
	for _, db := range []*database.DB{c.CacheDB, c.ReportsDB} {
		if db != nil {
			dbs = append(dbs, db)
		}
	}
	return dbs
}

// MonitoredDatabases adapts Databases for the status endpoints.
func (c *Container) MonitoredDatabases() []server.MonitoredDB {
	var out []server.MonitoredDB
	for _, db := range c.Databases() {
		out = append(out, db)
	}
	return out
}

// Close stops the scheduler and closes every database. Safe on a partial container.
func (c *Container) Close() error {
	if c.Scheduler != nil {
		c.Scheduler.Stop()
	}
	var firstErr error
	for _, db := range c.Databases() {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
