package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Optionally read from config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Ignore error if config file not found
	_ = v.ReadInConfig()

	var cfg Config

	// Backend
	cfg.Backend.APIKey = v.GetString("backend_api_key")
	cfg.Backend.Model = v.GetString("backend_model")
	cfg.Backend.MaxTokens = v.GetInt("backend_max_tokens")
	cfg.Backend.Temperature = v.GetFloat64("backend_temperature")
	cfg.Backend.MaxRetries = v.GetInt("backend_max_retries")
	cfg.Backend.Enabled = v.GetBool("backend_enabled")

	// Rate limiting
	cfg.RateLimit.MaxTokensPerMinute = v.GetInt("rate_limit_max_tokens_per_minute")
	cfg.RateLimit.MaxRequestsPerMinute = v.GetInt("rate_limit_max_requests_per_minute")

	// Data loading
	cfg.Data.MaxRows = v.GetInt("data_max_rows")
	cfg.Data.RequiredColumns = v.GetStringSlice("data_required_columns")

	// Market trends search
	cfg.Trends.APIKey = v.GetString("trends_api_key")
	cfg.Trends.SearchEngineID = v.GetString("trends_search_engine_id")
	cfg.Trends.UseAPI = v.GetBool("trends_use_api")
	cfg.Trends.MaxRequests = v.GetInt("trends_max_requests")

	// Output paths
	cfg.Output.ReportPath = v.GetString("output_report_path")
	cfg.Output.TracesPath = v.GetString("output_traces_path")
	cfg.Output.MetricsPath = v.GetString("output_metrics_path")
	cfg.Output.ActionLogPath = v.GetString("output_action_log_path")

	// Logging
	cfg.Log.Level = v.GetString("log_level")
	cfg.Log.Format = v.GetString("log_format")

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Backend defaults
	v.SetDefault("backend_model", "claude-sonnet-4-20250514")
	v.SetDefault("backend_max_tokens", 2048)
	v.SetDefault("backend_temperature", 0.2)
	v.SetDefault("backend_max_retries", 3)
	v.SetDefault("backend_enabled", true)

	// Rate limiting defaults
	v.SetDefault("rate_limit_max_tokens_per_minute", 900000)
	v.SetDefault("rate_limit_max_requests_per_minute", 15)

	// Data loading defaults
	v.SetDefault("data_max_rows", 10000)
	v.SetDefault("data_required_columns", []string{"date", "revenue", "costs", "customers"})

	// Market trends defaults
	v.SetDefault("trends_use_api", false)
	v.SetDefault("trends_max_requests", 3)

	// Output defaults
	v.SetDefault("output_report_path", "output/report.html")
	v.SetDefault("output_traces_path", "output/traces.json")
	v.SetDefault("output_metrics_path", "output/metrics.json")
	v.SetDefault("output_action_log_path", "logs/agent_actions.jsonl")

	// Logging defaults
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
}
