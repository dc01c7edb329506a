// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LLM providers understood by the advisory module.
const (
	ProviderNone   = "none"
	ProviderGemini = "gemini"
	ProviderClaude = "claude"
)

// Config holds application configuration
type Config struct {
	DataDir              string           `yaml:"data_dir"` // always absolute after Load
	LogLevel             string           `yaml:"log_level"`
	Port                 int              `yaml:"port"`
	DevMode              bool             `yaml:"dev_mode"`
	CacheCleanupSchedule string           `yaml:"cache_cleanup_schedule"`
	ReportRetentionDays  int              `yaml:"report_retention_days"` // 0 keeps reports forever
	NewsMaxAge           time.Duration    `yaml:"news_max_age"`          // timeliness cutoff without an LLM
	Simulation           SimulationConfig `yaml:"simulation"`
	MarketData           MarketDataConfig `yaml:"market_data"`
	LLM                  LLMConfig        `yaml:"llm"`
	Backup               BackupConfig     `yaml:"backup"`
}

// SimulationConfig holds scenario engine defaults and ceilings
type SimulationConfig struct {
	Workers            int    `yaml:"workers"` // 0 = one per CPU
	DefaultPaths       int    `yaml:"default_paths"`
	DefaultHorizonDays int    `yaml:"default_horizon_days"`
	MaxPaths           int    `yaml:"max_paths"`
	MaxHorizonDays     int    `yaml:"max_horizon_days"`
	LookbackDays       int    `yaml:"lookback_days"`
	Seed               uint64 `yaml:"seed"` // 0 = fresh seed per run
}

// MarketDataConfig holds the price history provider settings
type MarketDataConfig struct {
	BaseURL           string        `yaml:"base_url"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Timeout           time.Duration `yaml:"timeout"`
	CacheTTL          time.Duration `yaml:"cache_ttl"`
}

// LLMConfig selects and configures the text generation provider
type LLMConfig struct {
	Provider        string  `yaml:"provider"`
	GeminiAPIKey    string  `yaml:"gemini_api_key"`
	GeminiModel     string  `yaml:"gemini_model"`
	AnthropicAPIKey string  `yaml:"anthropic_api_key"`
	ClaudeModel     string  `yaml:"claude_model"`
	Temperature     float64 `yaml:"temperature"`
	MaxTokens       int     `yaml:"max_tokens"`
}

// BackupConfig holds S3-compatible archive settings
type BackupConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Endpoint        string `yaml:"endpoint"` // empty for AWS, account endpoint for R2
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Prefix          string `yaml:"prefix"`
	Retention       int    `yaml:"retention"`
	Schedule        string `yaml:"schedule"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		DataDir:              "./data",
		LogLevel:             "info",
		Port:                 8001,
		CacheCleanupSchedule: "0 0 3 * * *",
		ReportRetentionDays:  180,
		NewsMaxAge:           7 * 24 * time.Hour,
		Simulation: SimulationConfig{
			DefaultPaths:       1000,
			DefaultHorizonDays: 5,
			MaxPaths:           100000,
			MaxHorizonDays:     3650,
			LookbackDays:       365,
		},
		MarketData: MarketDataConfig{
			BaseURL:           "https://query1.finance.yahoo.com",
			RequestsPerSecond: 2,
			Timeout:           30 * time.Second,
			CacheTTL:          12 * time.Hour,
		},
		LLM: LLMConfig{
			Provider:    ProviderNone,
			GeminiModel: "gemini-2.0-flash",
			ClaudeModel: "claude-sonnet-4-5",
			Temperature: 0.2,
			MaxTokens:   2048,
		},
		Backup: BackupConfig{
			Region:    "auto",
			Prefix:    "forecast-backups/",
			Retention: 14,
			Schedule:  "0 30 2 * * *",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// FORECAST_CONFIG_FILE and the environment, in that order of precedence.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := Defaults()

	if path := getEnv("FORECAST_CONFIG_FILE", ""); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	absDataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	cfg.DataDir = absDataDir

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.DataDir = getEnv("FORECAST_DATA_DIR", c.DataDir)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Port = getEnvAsInt("FORECAST_PORT", c.Port)
	c.DevMode = getEnvAsBool("DEV_MODE", c.DevMode)
	c.CacheCleanupSchedule = getEnv("CACHE_CLEANUP_SCHEDULE", c.CacheCleanupSchedule)
	c.ReportRetentionDays = getEnvAsInt("REPORT_RETENTION_DAYS", c.ReportRetentionDays)
	c.NewsMaxAge = getEnvAsDuration("NEWS_MAX_AGE", c.NewsMaxAge)

	s := &c.Simulation
	s.Workers = getEnvAsInt("SCENARIO_WORKERS", s.Workers)
	s.DefaultPaths = getEnvAsInt("SCENARIO_DEFAULT_PATHS", s.DefaultPaths)
	s.DefaultHorizonDays = getEnvAsInt("SCENARIO_DEFAULT_HORIZON_DAYS", s.DefaultHorizonDays)
	s.MaxPaths = getEnvAsInt("SCENARIO_MAX_PATHS", s.MaxPaths)
	s.MaxHorizonDays = getEnvAsInt("SCENARIO_MAX_HORIZON_DAYS", s.MaxHorizonDays)
	s.LookbackDays = getEnvAsInt("SCENARIO_LOOKBACK_DAYS", s.LookbackDays)
	s.Seed = getEnvAsUint64("SCENARIO_SEED", s.Seed)

	m := &c.MarketData
	m.BaseURL = getEnv("MARKET_DATA_BASE_URL", m.BaseURL)
	m.RequestsPerSecond = getEnvAsFloat("MARKET_DATA_RPS", m.RequestsPerSecond)
	m.Timeout = getEnvAsDuration("MARKET_DATA_TIMEOUT", m.Timeout)
	m.CacheTTL = getEnvAsDuration("MARKET_DATA_CACHE_TTL", m.CacheTTL)

	l := &c.LLM
	l.Provider = getEnv("LLM_PROVIDER", l.Provider)
	l.GeminiAPIKey = getEnv("GEMINI_API_KEY", l.GeminiAPIKey)
	l.GeminiModel = getEnv("GEMINI_MODEL", l.GeminiModel)
	l.AnthropicAPIKey = getEnv("ANTHROPIC_API_KEY", l.AnthropicAPIKey)
	l.ClaudeModel = getEnv("CLAUDE_MODEL", l.ClaudeModel)
	l.Temperature = getEnvAsFloat("LLM_TEMPERATURE", l.Temperature)
	l.MaxTokens = getEnvAsInt("LLM_MAX_TOKENS", l.MaxTokens)

	b := &c.Backup
	b.Enabled = getEnvAsBool("BACKUP_ENABLED", b.Enabled)
	b.Bucket = getEnv("BACKUP_BUCKET", b.Bucket)
	b.Endpoint = getEnv("BACKUP_ENDPOINT", b.Endpoint)
	b.Region = getEnv("BACKUP_REGION", b.Region)
	b.AccessKeyID = getEnv("BACKUP_ACCESS_KEY_ID", b.AccessKeyID)
	b.SecretAccessKey = getEnv("BACKUP_SECRET_ACCESS_KEY", b.SecretAccessKey)
	b.Prefix = getEnv("BACKUP_PREFIX", b.Prefix)
	b.Retention = getEnvAsInt("BACKUP_RETENTION", b.Retention)
	b.Schedule = getEnv("BACKUP_SCHEDULE", b.Schedule)
}

// Validate checks that the configuration can be used
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	s := c.Simulation
	if s.MaxPaths <= 0 || s.MaxHorizonDays <= 0 {
		return fmt.Errorf("simulation ceilings must be positive")
	}
	if s.DefaultPaths <= 0 || s.DefaultPaths > s.MaxPaths {
		return fmt.Errorf("simulation.default_paths must be between 1 and %d, got %d", s.MaxPaths, s.DefaultPaths)
	}
	if s.DefaultHorizonDays <= 0 || s.DefaultHorizonDays > s.MaxHorizonDays {
		return fmt.Errorf("simulation.default_horizon_days must be between 1 and %d, got %d", s.MaxHorizonDays, s.DefaultHorizonDays)
	}
	if s.LookbackDays < 2 {
		return fmt.Errorf("simulation.lookback_days must be at least 2, got %d", s.LookbackDays)
	}
	if s.Workers < 0 {
		return fmt.Errorf("simulation.workers must not be negative")
	}

	if c.ReportRetentionDays < 0 {
		return fmt.Errorf("report_retention_days must not be negative")
	}

	if c.MarketData.RequestsPerSecond <= 0 {
		return fmt.Errorf("market_data.requests_per_second must be positive")
	}

	switch c.LLM.Provider {
	case ProviderNone, "":
	case ProviderGemini:
		if c.LLM.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
		}
	case ProviderClaude:
		if c.LLM.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for the claude provider")
		}
	default:
		return fmt.Errorf("unknown LLM provider %q", c.LLM.Provider)
	}

	if c.Backup.Enabled && c.Backup.Bucket == "" {
		return fmt.Errorf("backup.bucket is required when backups are enabled")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsUint64(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseUint(value, 10, 64); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
