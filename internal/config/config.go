package config

// Config holds all configuration for the analytics pipeline
type Config struct {
	Backend   BackendConfig
	RateLimit RateLimitConfig
	Data      DataConfig
	Trends    TrendsConfig
	Output    OutputConfig
	Log       LogConfig
}

// BackendConfig holds generative backend configuration
type BackendConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model" validate:"required"`
	MaxTokens   int     `mapstructure:"max_tokens" validate:"gt=0"`
	Temperature float64 `mapstructure:"temperature" validate:"gte=0,lte=1"`
	MaxRetries  int     `mapstructure:"max_retries" validate:"gte=1"`
	// Enabled disables backend calls entirely when false; the critique and
	// summary phases then fall back to their deterministic placeholders.
	Enabled bool `mapstructure:"enabled"`
}

// RateLimitConfig holds outbound rate limiting configuration
type RateLimitConfig struct {
	MaxTokensPerMinute   int `mapstructure:"max_tokens_per_minute" validate:"gt=0"`
	MaxRequestsPerMinute int `mapstructure:"max_requests_per_minute" validate:"gt=0"`
}

// DataConfig holds dataset loading configuration
type DataConfig struct {
	MaxRows         int      `mapstructure:"max_rows" validate:"gt=0"`
	RequiredColumns []string `mapstructure:"required_columns" validate:"min=1"`
}

// TrendsConfig holds market trends search configuration
type TrendsConfig struct {
	APIKey         string `mapstructure:"api_key"`
	SearchEngineID string `mapstructure:"search_engine_id"`
	UseAPI         bool   `mapstructure:"use_api"`
	MaxRequests    int    `mapstructure:"max_requests" validate:"gte=0"`
}

// OutputConfig holds artifact output paths
type OutputConfig struct {
	ReportPath    string `mapstructure:"report_path" validate:"required"`
	TracesPath    string `mapstructure:"traces_path" validate:"required"`
	MetricsPath   string `mapstructure:"metrics_path" validate:"required"`
	ActionLogPath string `mapstructure:"action_log_path" validate:"required"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
