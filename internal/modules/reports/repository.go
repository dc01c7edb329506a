// Package reports keeps a log of generated scenario reports.
package reports

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/forecast/internal/modules/scenario"
)

// ErrNotFound is returned when no report has the requested id.
var ErrNotFound = errors.New("report not found")

// Record is a stored report summary. Per-path prices are never persisted.
type Record struct {
	ID                    string    `json:"id"`
	Ticker                string    `json:"ticker"`
	HorizonDays           int       `json:"horizon_days"`
	PathCount             int       `json:"path_count"`
	Seed                  uint64    `json:"seed"`
	StartPrice            float64   `json:"start_price"`
	ProbabilityAboveStart float64   `json:"probability_above_start"`
	MedianTerminalPrice   float64   `json:"median_terminal_price"`
	Drift                 float64   `json:"drift"`
	Volatility            float64   `json:"volatility"`
	VaR95                 float64   `json:"var_95"`
	CVaR95                float64   `json:"cvar_95"`
	MedianPath            []float64 `json:"median_path"`
	NewsTitle             string    `json:"news_title,omitempty"`
	Credibility           string    `json:"credibility,omitempty"`
	Narrative             string    `json:"narrative,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
}

// RecordFromRun flattens a scenario run into a storable record.
func RecordFromRun(run *scenario.Run) Record {
	r := run.Report
	return Record{
		Ticker:                r.Ticker,
		HorizonDays:           r.HorizonDays,
		PathCount:             r.PathCount,
		Seed:                  run.Seed,
		StartPrice:            r.StartPrice,
		ProbabilityAboveStart: r.ProbabilityAboveStart,
		MedianTerminalPrice:   r.MedianTerminalPrice,
		Drift:                 r.Params.Drift,
		Volatility:            r.Params.Volatility,
		VaR95:                 r.Distribution.VaR95,
		CVaR95:                r.Distribution.CVaR95,
		MedianPath:            r.MedianPath,
	}
}

// Repository handles persistence of report records in reports.db
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new report repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "reports").Logger(),
	}
}

// Save stores rec under a new id and returns it. CreatedAt defaults to now.
func (r *Repository) Save(ctx context.Context, rec Record) (string, error) {
	medianPath, err := json.Marshal(rec.MedianPath)
	if err != nil {
		return "", fmt.Errorf("failed to encode median path: %w", err)
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	id := uuid.New().String()

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO scenario_reports
		(id, ticker, horizon_days, path_count, seed, start_price,
		 probability_above_start, median_terminal_price, drift, volatility,
		 var_95, cvar_95, median_path, news_title, credibility, narrative, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		strings.ToUpper(rec.Ticker),
		rec.HorizonDays,
		rec.PathCount,
		int64(rec.Seed), // stored bit-for-bit; SQLite integers are signed
		rec.StartPrice,
		rec.ProbabilityAboveStart,
		rec.MedianTerminalPrice,
		rec.Drift,
		rec.Volatility,
		rec.VaR95,
		rec.CVaR95,
		string(medianPath),
		nullString(rec.NewsTitle),
		nullString(rec.Credibility),
		nullString(rec.Narrative),
		rec.CreatedAt.Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert report: %w", err)
	}

	r.log.Debug().Str("id", id).Str("ticker", rec.Ticker).Msg("Report stored")
	return id, nil
}

const selectColumns = `
	SELECT id, ticker, horizon_days, path_count, seed, start_price,
		   probability_above_start, median_terminal_price, drift, volatility,
		   var_95, cvar_95, median_path, news_title, credibility, narrative, created_at
	FROM scenario_reports`

// Get returns the report with id, or ErrNotFound.
func (r *Repository) Get(ctx context.Context, id string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report %s: %w", id, err)
	}
	return rec, nil
}

// List returns the newest reports first, optionally filtered by ticker.
func (r *Repository) List(ctx context.Context, ticker string, limit int) ([]Record, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	query := selectColumns
	args := []interface{}{}
	if ticker != "" {
		query += " WHERE ticker = ?"
		args = append(args, strings.ToUpper(ticker))
	}
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}
	return records, nil
}

// DeleteOlderThan removes reports created before cutoff.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM scenario_reports WHERE created_at < ?", cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old reports: %w", err)
	}
	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(s scanner) (*Record, error) {
	var rec Record
	var seed, createdAt int64
	var medianPath string
	var newsTitle, credibility, narrative sql.NullString

	err := s.Scan(
		&rec.ID,
		&rec.Ticker,
		&rec.HorizonDays,
		&rec.PathCount,
		&seed,
		&rec.StartPrice,
		&rec.ProbabilityAboveStart,
		&rec.MedianTerminalPrice,
		&rec.Drift,
		&rec.Volatility,
		&rec.VaR95,
		&rec.CVaR95,
		&medianPath,
		&newsTitle,
		&credibility,
		&narrative,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(medianPath), &rec.MedianPath); err != nil {
		return nil, fmt.Errorf("failed to decode median path: %w", err)
	}
	rec.Seed = uint64(seed)
	rec.NewsTitle = newsTitle.String
	rec.Credibility = credibility.String
	rec.Narrative = narrative.String
	rec.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
