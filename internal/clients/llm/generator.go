// Package llm wraps the hosted language model APIs behind a single text generation interface.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/forecast/internal/config"
)

// Request is a provider-agnostic single-turn generation request.
type Request struct {
	System      string
	Prompt      string
	Temperature float64 // 0 uses the client default
	MaxTokens   int     // 0 uses the client default
	JSON        bool    // ask for a JSON object response
}

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Name() string
}

// New returns the generator selected by cfg, or nil when no provider is configured.
func New(ctx context.Context, cfg config.LLMConfig, log zerolog.Logger) (Generator, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", config.ProviderNone:
		return nil, nil
	case config.ProviderGemini:
		client, err := NewGeminiClient(ctx, GeminiConfig{
			APIKey:      cfg.GeminiAPIKey,
			Model:       cfg.GeminiModel,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		}, log)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.ProviderClaude:
		return NewClaudeClient(ClaudeConfig{
			APIKey:      cfg.AnthropicAPIKey,
			Model:       cfg.ClaudeModel,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		}, log), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}

// StripCodeFence removes a surrounding ```json fence that models often add.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "```"))
}
