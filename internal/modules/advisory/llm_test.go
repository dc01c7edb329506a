package advisory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/forecast/internal/clientdata"
	"github.com/aristath/forecast/internal/clients/llm"
)

type stubGenerator struct {
	text  string
	err   error
	calls int
	last  llm.Request
}

func (g *stubGenerator) Generate(_ context.Context, req llm.Request) (string, error) {
	g.calls++
	g.last = req
	return g.text, g.err
}

func (g *stubGenerator) Name() string { return "stub" }

type memoryCache struct {
	items map[string]Credibility
}

func (m *memoryCache) GetIfFresh(table, key string, out interface{}) (bool, error) {
	v, ok := m.items[table+"/"+key]
	if ok {
		*out.(*Credibility) = v
	}
	return ok, nil
}

func (m *memoryCache) Store(table, key string, value interface{}, _ time.Duration) error {
	m.items[table+"/"+key] = value.(Credibility)
	return nil
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		label      string
		confidence []float64
	}{
		{
			name:       "json credible",
			text:       `{"verdict":"credible","confidence":0.8,"rationale":"official filing"}`,
			label:      LabelCredible,
			confidence: []float64{0.19999999999999996, 0.8},
		},
		{
			name:       "fenced not credible",
			text:       "```json\n{\"verdict\":\"not_credible\",\"confidence\":0.9}\n```",
			label:      LabelNotCredible,
			confidence: []float64{0.9, 0.09999999999999998},
		},
		{
			name:  "json without confidence",
			text:  `{"verdict":"credible"}`,
			label: LabelCredible,
		},
		{
			name:  "free text fake",
			text:  "This looks fake: no source is cited.",
			label: LabelNotCredible,
		},
		{
			name:  "free text genuine",
			text:  "Genuine, matches the exchange filing.",
			label: LabelCredible,
		},
		{
			name:  "free text negated true",
			text:  "This news is not true.",
			label: LabelNotCredible,
		},
		{
			name:  "free text negated false",
			text:  "Credible; it contains no false claims.",
			label: LabelCredible,
		},
		{
			name:  "free text mixed signals",
			text:  "Partly genuine, partly fake.",
			label: LabelUnknown,
		},
		{
			name:  "unrecognized",
			text:  "I cannot tell.",
			label: LabelUnknown,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cred := parseVerdict(tt.text)
			assert.Equal(t, tt.label, cred.Label)
			if tt.confidence == nil {
				assert.Nil(t, cred.Confidence)
			} else {
				assert.InDeltaSlice(t, tt.confidence, cred.Confidence, 1e-12)
			}
		})
	}
}

func TestLLMClassifier_UsesCache(t *testing.T) {
	gen := &stubGenerator{text: `{"verdict":"credible","confidence":0.7,"rationale":"ok"}`}
	cache := &memoryCache{items: map[string]Credibility{}}
	c := NewLLMClassifier(gen, cache, zerolog.Nop())

	first, err := c.Classify(context.Background(), testNews())
	require.NoError(t, err)
	second, err := c.Classify(context.Background(), testNews())
	require.NoError(t, err)

	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, first, second)
	assert.True(t, gen.last.JSON)
	assert.Contains(t, gen.last.Prompt, "Title: Company beats earnings expectations")
	assert.Contains(t, gen.last.Prompt, "media): 1")

	_, cached := cache.items[clientdata.TableClassifications+"/"+classificationKey(testNews())]
	assert.True(t, cached)
}

func TestLLMClassifier_Error(t *testing.T) {
	c := NewLLMClassifier(&stubGenerator{err: errors.New("boom")}, nil, zerolog.Nop())
	_, err := c.Classify(context.Background(), testNews())
	assert.Error(t, err)
}

func TestClassificationKey_DependsOnPlatform(t *testing.T) {
	a := testNews()
	b := testNews()
	b.Platform = PlatformSocial
	assert.NotEqual(t, classificationKey(a), classificationKey(b))
	assert.Equal(t, classificationKey(a), classificationKey(testNews()))
}

func TestLLMTimelinessChecker(t *testing.T) {
	gen := &stubGenerator{text: "still timely"}
	checker := NewLLMTimelinessChecker(gen)
	checker.now = func() time.Time { return time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC) }

	timely, err := checker.CheckTimeliness(context.Background(), testNews().PublishedAt, "AAPL")
	require.NoError(t, err)
	assert.True(t, timely)
	assert.Contains(t, gen.last.Prompt, "Today is 2026-03-05.")
	assert.Contains(t, gen.last.Prompt, "published on 2026-03-02")

	gen.text = "Expired."
	timely, err = checker.CheckTimeliness(context.Background(), testNews().PublishedAt, "AAPL")
	require.NoError(t, err)
	assert.False(t, timely)
}

func TestAgeTimelinessChecker(t *testing.T) {
	checker := NewAgeTimelinessChecker(7 * 24 * time.Hour)
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	checker.now = func() time.Time { return now }

	ok, _ := checker.CheckTimeliness(context.Background(), now.Add(-48*time.Hour), "X")
	assert.True(t, ok)
	ok, _ = checker.CheckTimeliness(context.Background(), now.Add(-30*24*time.Hour), "X")
	assert.False(t, ok)
	ok, _ = checker.CheckTimeliness(context.Background(), time.Time{}, "X")
	assert.True(t, ok)
}
