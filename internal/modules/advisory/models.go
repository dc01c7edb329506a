// Package advisory assesses a financial news item against a simulated price outlook.
package advisory

import (
	"context"
	"errors"
	"time"

	"github.com/aristath/forecast/internal/modules/reports"
	"github.com/aristath/forecast/internal/modules/scenario"
)

var (
	// ErrEmptyNews is returned when the title or the content is blank.
	ErrEmptyNews = errors.New("news title and content are required")
	// ErrInvalidPlatform is returned for a platform code outside 0..2.
	ErrInvalidPlatform = errors.New("invalid news platform")
	// ErrDataUnavailable wraps failures to obtain price history for the ticker.
	ErrDataUnavailable = errors.New("price data unavailable")
)

// Platform is where the news was published.
type Platform int

const (
	PlatformOfficial       Platform = 0
	PlatformFinancialMedia Platform = 1
	PlatformSocial         Platform = 2
)

// Valid reports whether p is a known platform code.
func (p Platform) Valid() bool {
	return p >= PlatformOfficial && p <= PlatformSocial
}

func (p Platform) String() string {
	switch p {
	case PlatformOfficial:
		return "official media"
	case PlatformFinancialMedia:
		return "financial media"
	case PlatformSocial:
		return "social media"
	default:
		return "unknown"
	}
}

// NewsItem is a single piece of financial news.
type NewsItem struct {
	Title       string    `json:"title" validate:"required"`
	Content     string    `json:"content" validate:"required"`
	Platform    Platform  `json:"platform" validate:"min=0,max=2"`
	PublishedAt time.Time `json:"published_at"`
}

// Credibility labels.
const (
	LabelCredible    = "credible"
	LabelNotCredible = "not_credible"
	LabelUnknown     = "unknown"
)

// Credibility is a classifier verdict. Confidence holds [P(not credible), P(credible)]
// when the classifier can provide it.
type Credibility struct {
	Label      string    `json:"label"`
	Confidence []float64 `json:"confidence,omitempty"`
	Rationale  string    `json:"rationale,omitempty"`
}

// Mode selects how the narrative is produced.
type Mode string

const (
	ModeAuto     Mode = ""         // LLM when configured, template otherwise
	ModeLLM      Mode = "llm"      // LLM, falling back to the template on failure
	ModeTemplate Mode = "template" // deterministic template only
)

// Trend summarizes the recent price action.
type Trend struct {
	LastClose  float64  `json:"last_close"`
	WeekChange *float64 `json:"week_change,omitempty"`
	SMA20      *float64 `json:"sma_20,omitempty"`
	EMA12      *float64 `json:"ema_12,omitempty"`
	RSI14      *float64 `json:"rsi_14,omitempty"`
	Direction  string   `json:"direction"`
}

// AssessRequest is the input to Service.Assess.
type AssessRequest struct {
	News        NewsItem `json:"news"`
	Ticker      string   `json:"ticker,omitempty"`
	HorizonDays int      `json:"horizon_days,omitempty" validate:"omitempty,min=1"`
	PathCount   int      `json:"path_count,omitempty" validate:"omitempty,min=1"`
	Seed        *uint64  `json:"seed,omitempty"`
	Mode        Mode     `json:"mode,omitempty" validate:"omitempty,oneof=llm template"`
}

// Assessment is the outcome of a news assessment.
type Assessment struct {
	Ticker      string                   `json:"ticker,omitempty"`
	Credibility Credibility              `json:"credibility"`
	Stale       bool                     `json:"stale"`
	Report      *scenario.ScenarioReport `json:"report,omitempty"`
	Seed        uint64                   `json:"seed,omitempty"`
	Trend       *Trend                   `json:"trend,omitempty"`
	Narrative   string                   `json:"narrative,omitempty"`
	Source      string                   `json:"narrative_source,omitempty"`
	ReportID    string                   `json:"report_id,omitempty"`
}

// Classifier judges the credibility of a news item.
type Classifier interface {
	Classify(ctx context.Context, item NewsItem) (Credibility, error)
}

// TimelinessChecker reports whether news published at publishedAt is still actionable.
type TimelinessChecker interface {
	CheckTimeliness(ctx context.Context, publishedAt time.Time, ticker string) (bool, error)
}

// Advisor turns a prompt into advice text.
type Advisor interface {
	Advise(ctx context.Context, prompt string) (string, error)
}

// Renderer produces a deterministic narrative.
type Renderer interface {
	Render(report scenario.ScenarioReport, trend Trend) string
}

// BarFetcher supplies daily price history.
type BarFetcher interface {
	FetchBars(ctx context.Context, ticker string, endDate time.Time, lookbackDays int) (scenario.HistoricalSeries, error)
}

// ReportGenerator runs the scenario pipeline.
type ReportGenerator interface {
	Generate(ctx context.Context, series scenario.HistoricalSeries, opts scenario.Options) (*scenario.Run, error)
}

// ReportStore persists report summaries.
type ReportStore interface {
	Save(ctx context.Context, rec reports.Record) (string, error)
}
