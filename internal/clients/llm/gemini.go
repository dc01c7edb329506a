package llm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// GeminiConfig configures the Gemini client.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	BaseURL     string // tests only
}

// GeminiClient generates text with the Gemini API.
type GeminiClient struct {
	client *genai.Client
	cfg    GeminiConfig
	retry  RetryConfig
	log    zerolog.Logger
}

// NewGeminiClient creates a Gemini client.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig, log zerolog.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		cfg:    cfg,
		retry:  DefaultRetryConfig(),
		log:    log.With().Str("client", "gemini").Logger(),
	}, nil
}

// Name returns the provider name.
func (c *GeminiClient) Name() string {
	return "gemini"
}

// Generate sends a single-turn prompt and returns the response text.
func (c *GeminiClient) Generate(ctx context.Context, req Request) (string, error) {
	temp := req.Temperature
	if temp <= 0 {
		temp = c.cfg.Temperature
	}

	genCfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(temp)),
	}
	if maxTokens := firstPositive(req.MaxTokens, c.cfg.MaxTokens); maxTokens > 0 {
		genCfg.MaxOutputTokens = int32(maxTokens)
	}
	if req.System != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSON {
		genCfg.ResponseMIMEType = "application/json"
	}

	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}

	var resp *genai.GenerateContentResponse
	err := withRetry(ctx, c.retry, c.log, func() error {
		var callErr error
		resp, callErr = c.client.Models.GenerateContent(ctx, c.cfg.Model, contents, genCfg)
		return callErr
	})
	if err != nil {
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response from Gemini API")
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty text in Gemini response")
	}
	return text, nil
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
