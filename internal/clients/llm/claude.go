package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
)

// ClaudeConfig configures the Claude client.
type ClaudeConfig struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	BaseURL     string // tests only
}

// ClaudeClient generates text with the Anthropic Messages API.
type ClaudeClient struct {
	client anthropic.Client
	cfg    ClaudeConfig
	retry  RetryConfig
	log    zerolog.Logger
}

// NewClaudeClient creates a Claude client.
func NewClaudeClient(cfg ClaudeConfig, log zerolog.Logger) *ClaudeClient {
	if cfg.Model == "" {
		cfg.Model = "claude-sonnet-4-5"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2048
	}

	// retries are handled by withRetry
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &ClaudeClient{
		client: anthropic.NewClient(opts...),
		cfg:    cfg,
		retry:  DefaultRetryConfig(),
		log:    log.With().Str("client", "claude").Logger(),
	}
}

// Name returns the provider name.
func (c *ClaudeClient) Name() string {
	return "claude"
}

// Generate sends a single-turn prompt and returns the concatenated text blocks.
func (c *ClaudeClient) Generate(ctx context.Context, req Request) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.cfg.Model),
		MaxTokens: int64(firstPositive(req.MaxTokens, c.cfg.MaxTokens)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}

	if temp := req.Temperature; temp > 0 {
		params.Temperature = anthropic.Float(temp)
	} else if c.cfg.Temperature > 0 {
		params.Temperature = anthropic.Float(c.cfg.Temperature)
	}

	system := req.System
	if req.JSON {
		system = strings.TrimSpace(system + "\nRespond with a single JSON object and nothing else.")
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	var resp *anthropic.Message
	err := withRetry(ctx, c.retry, c.log, func() error {
		var callErr error
		resp, callErr = c.client.Messages.New(ctx, params)
		return callErr
	})
	if err != nil {
		return "", fmt.Errorf("claude API call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("empty response from Claude API")
	}
	return text.String(), nil
}
