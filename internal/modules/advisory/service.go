package advisory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/forecast/internal/modules/reports"
	"github.com/aristath/forecast/internal/modules/scenario"
)

// dataWindow is how far past the publication date bars are requested.
const dataWindow = 3 * 24 * time.Hour

// Deps are the collaborators of the service. Classifier, Timeliness, Advisor
// and Store may be nil.
type Deps struct {
	Classifier   Classifier
	Timeliness   TimelinessChecker
	Bars         BarFetcher
	Reports      ReportGenerator
	Advisor      Advisor
	Renderer     Renderer
	Store        ReportStore
	LookbackDays int
}

// Service runs the news assessment flow: classify, check timeliness, simulate, narrate.
type Service struct {
	deps Deps
	now  func() time.Time
	log  zerolog.Logger
}

// NewService creates an assessment service.
func NewService(deps Deps, log zerolog.Logger) *Service {
	if deps.Renderer == nil {
		deps.Renderer = TemplateRenderer{}
	}
	if deps.Timeliness == nil {
		deps.Timeliness = NewAgeTimelinessChecker(7 * 24 * time.Hour)
	}
	if deps.LookbackDays <= 0 {
		deps.LookbackDays = 90
	}
	return &Service{
		deps: deps,
		now:  time.Now,
		log:  log.With().Str("service", "advisory").Logger(),
	}
}

// Assess evaluates req.News and, when a ticker is given, the simulated outlook for it.
func (s *Service) Assess(ctx context.Context, req AssessRequest) (*Assessment, error) {
	news := req.News
	if strings.TrimSpace(news.Title) == "" || strings.TrimSpace(news.Content) == "" {
		return nil, ErrEmptyNews
	}
	if !news.Platform.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPlatform, news.Platform)
	}

	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))
	out := &Assessment{Ticker: ticker}

	out.Credibility = s.classify(ctx, news)
	if ticker == "" {
		return out, nil
	}

	timely, err := s.deps.Timeliness.CheckTimeliness(ctx, news.PublishedAt, ticker)
	if err != nil {
		s.log.Warn().Err(err).Str("ticker", ticker).Msg("Timeliness check failed, assuming timely")
		timely = true
	}
	if !timely {
		out.Stale = true
		s.log.Info().Str("ticker", ticker).Time("published_at", news.PublishedAt).Msg("News no longer timely")
		return out, nil
	}

	series, err := s.deps.Bars.FetchBars(ctx, ticker, s.endDate(news.PublishedAt), s.deps.LookbackDays)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDataUnavailable, ticker, err)
	}

	run, err := s.deps.Reports.Generate(ctx, series, scenario.Options{
		HorizonDays: req.HorizonDays,
		PathCount:   req.PathCount,
		Seed:        req.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate scenario report: %w", err)
	}

	report := run.Report.WithoutTerminalPrices()
	trend := ComputeTrend(series)
	out.Report = &report
	out.Seed = run.Seed
	out.Trend = &trend
	out.Narrative, out.Source = s.narrate(ctx, req.Mode, news, out.Credibility, report, trend)

	if s.deps.Store != nil {
		rec := reports.RecordFromRun(run)
		rec.NewsTitle = news.Title
		rec.Credibility = out.Credibility.Label
		rec.Narrative = out.Narrative
		id, err := s.deps.Store.Save(ctx, rec)
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to store assessment report")
		} else {
			out.ReportID = id
		}
	}

	return out, nil
}

// classify never fails the assessment; an unavailable classifier yields an unknown verdict.
func (s *Service) classify(ctx context.Context, news NewsItem) Credibility {
	if s.deps.Classifier == nil {
		return Credibility{Label: LabelUnknown}
	}
	cred, err := s.deps.Classifier.Classify(ctx, news)
	if err != nil {
		s.log.Warn().Err(err).Msg("Classification failed")
		return Credibility{Label: LabelUnknown, Rationale: "classification unavailable"}
	}
	return cred
}

func (s *Service) narrate(ctx context.Context, mode Mode, news NewsItem, cred Credibility, report scenario.ScenarioReport, trend Trend) (string, string) {
	if mode != ModeTemplate && s.deps.Advisor != nil {
		text, err := s.deps.Advisor.Advise(ctx, AdvicePrompt(news, cred, report, trend))
		if err == nil && text != "" {
			return text, "llm"
		}
		s.log.Warn().Err(err).Msg("Advice generation failed, using template")
	}
	return s.deps.Renderer.Render(report, trend), "template"
}

// endDate is a few days past publication, never in the future.
func (s *Service) endDate(publishedAt time.Time) time.Time {
	now := s.now()
	if publishedAt.IsZero() {
		return now
	}
	end := publishedAt.Add(dataWindow)
	if end.After(now) {
		return now
	}
	return end
}
