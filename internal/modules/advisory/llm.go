package advisory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/forecast/internal/clientdata"
	"github.com/aristath/forecast/internal/clients/llm"
)

// ClassificationCache stores verdicts so the same article is not sent twice.
type ClassificationCache interface {
	GetIfFresh(table, key string, out interface{}) (bool, error)
	Store(table, key string, value interface{}, ttl time.Duration) error
}

// LLMClassifier asks a language model for a credibility verdict.
type LLMClassifier struct {
	gen   llm.Generator
	cache ClassificationCache
	log   zerolog.Logger
}

// NewLLMClassifier creates a classifier. cache may be nil.
func NewLLMClassifier(gen llm.Generator, cache ClassificationCache, log zerolog.Logger) *LLMClassifier {
	return &LLMClassifier{
		gen:   gen,
		cache: cache,
		log:   log.With().Str("component", "llm_classifier").Logger(),
	}
}

type verdictResponse struct {
	Verdict    string   `json:"verdict"`
	Confidence *float64 `json:"confidence"`
	Rationale  string   `json:"rationale"`
}

// Classify returns the model's verdict on item.
func (c *LLMClassifier) Classify(ctx context.Context, item NewsItem) (Credibility, error) {
	key := classificationKey(item)
	if c.cache != nil {
		var cached Credibility
		if ok, err := c.cache.GetIfFresh(clientdata.TableClassifications, key, &cached); err != nil {
			c.log.Warn().Err(err).Msg("Failed to read classification cache")
		} else if ok {
			return cached, nil
		}
	}

	text, err := c.gen.Generate(ctx, llm.Request{
		System:      classifySystem,
		Prompt:      classifyPrompt(item),
		Temperature: 0.1,
		JSON:        true,
	})
	if err != nil {
		return Credibility{}, fmt.Errorf("failed to classify news: %w", err)
	}

	cred := parseVerdict(text)
	if c.cache != nil && cred.Label != LabelUnknown {
		if err := c.cache.Store(clientdata.TableClassifications, key, cred, clientdata.TTLClassification); err != nil {
			c.log.Warn().Err(err).Msg("Failed to cache classification")
		}
	}
	return cred, nil
}

// parseVerdict reads a JSON verdict, falling back to keyword matching on free text.
func parseVerdict(text string) Credibility {
	var resp verdictResponse
	if err := json.Unmarshal([]byte(llm.StripCodeFence(text)), &resp); err == nil && resp.Verdict != "" {
		cred := Credibility{Label: normalizeLabel(resp.Verdict), Rationale: strings.TrimSpace(resp.Rationale)}
		if resp.Confidence != nil && cred.Label != LabelUnknown {
			p := clamp01(*resp.Confidence)
			if cred.Label == LabelCredible {
				cred.Confidence = []float64{1 - p, p}
			} else {
				cred.Confidence = []float64{p, 1 - p}
			}
		}
		return cred
	}
	return Credibility{Label: normalizeLabel(text), Rationale: strings.TrimSpace(text)}
}

// Negated phrases are consumed before the bare cues so "not true" never reads as "true".
var (
	negatedPositiveCues = []string{"not_credible", "not credible", "isn't credible", "not true", "isn't true", "untrue", "not genuine", "isn't genuine", "not real"}
	negatedNegativeCues = []string{"not false", "no false", "not fake", "isn't fake"}
	negativeCues        = []string{"false", "fake"}
	positiveCues        = []string{"credible", "genuine", "true"}
)

// normalizeLabel maps a verdict or free text to a label. Mixed signals give LabelUnknown.
func normalizeLabel(s string) string {
	s = strings.ToLower(s)
	consume := func(cues []string) bool {
		found := false
		for _, cue := range cues {
			if strings.Contains(s, cue) {
				found = true
				s = strings.ReplaceAll(s, cue, " ")
			}
		}
		return found
	}

	neg := consume(negatedPositiveCues)
	pos := consume(negatedNegativeCues)
	neg = consume(negativeCues) || neg
	pos = consume(positiveCues) || pos

	switch {
	case neg && pos:
		return LabelUnknown
	case neg:
		return LabelNotCredible
	case pos:
		return LabelCredible
	default:
		return LabelUnknown
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func classificationKey(item NewsItem) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d\x00%s\x00%s", item.Platform, item.Title, item.Content)
	return hex.EncodeToString(h.Sum(nil))
}

// LLMTimelinessChecker asks a language model whether news is still actionable.
type LLMTimelinessChecker struct {
	gen llm.Generator
	now func() time.Time
}

// NewLLMTimelinessChecker creates a timeliness checker.
func NewLLMTimelinessChecker(gen llm.Generator) *LLMTimelinessChecker {
	return &LLMTimelinessChecker{gen: gen, now: time.Now}
}

// CheckTimeliness is false only when the answer contains the expired marker.
func (t *LLMTimelinessChecker) CheckTimeliness(ctx context.Context, publishedAt time.Time, ticker string) (bool, error) {
	text, err := t.gen.Generate(ctx, llm.Request{
		Prompt:      timelinessPrompt(t.now(), publishedAt, ticker),
		Temperature: 0.1,
		MaxTokens:   32,
	})
	if err != nil {
		return false, fmt.Errorf("failed to check timeliness: %w", err)
	}
	return !strings.Contains(strings.ToLower(text), expiredMarker), nil
}

// AgeTimelinessChecker treats news older than MaxAge as expired. Used without an LLM.
type AgeTimelinessChecker struct {
	MaxAge time.Duration
	now    func() time.Time
}

// NewAgeTimelinessChecker creates an age-based checker.
func NewAgeTimelinessChecker(maxAge time.Duration) *AgeTimelinessChecker {
	return &AgeTimelinessChecker{MaxAge: maxAge, now: time.Now}
}

// CheckTimeliness reports whether publishedAt is within MaxAge. Unknown dates are timely.
func (a *AgeTimelinessChecker) CheckTimeliness(_ context.Context, publishedAt time.Time, _ string) (bool, error) {
	if publishedAt.IsZero() {
		return true, nil
	}
	return a.now().Sub(publishedAt) <= a.MaxAge, nil
}

// LLMAdvisor forwards the advice prompt to a language model.
type LLMAdvisor struct {
	gen llm.Generator
}

// NewLLMAdvisor creates an advisor.
func NewLLMAdvisor(gen llm.Generator) *LLMAdvisor {
	return &LLMAdvisor{gen: gen}
}

// Advise returns the model's advice text.
func (a *LLMAdvisor) Advise(ctx context.Context, prompt string) (string, error) {
	text, err := a.gen.Generate(ctx, llm.Request{Prompt: prompt, Temperature: 0.3})
	if err != nil {
		return "", fmt.Errorf("failed to generate advice: %w", err)
	}
	return strings.TrimSpace(text), nil
}
