package cli

import (
	"go.uber.org/zap"

	"github.com/Codedkv/capstone-agents-mvp/internal/agent"
	"github.com/Codedkv/capstone-agents-mvp/internal/backend"
	"github.com/Codedkv/capstone-agents-mvp/internal/config"
	"github.com/Codedkv/capstone-agents-mvp/internal/coordinator"
	"github.com/Codedkv/capstone-agents-mvp/internal/observability"
	"github.com/Codedkv/capstone-agents-mvp/internal/pkg/circuitbreaker"
	"github.com/Codedkv/capstone-agents-mvp/internal/pkg/logger"
	"github.com/Codedkv/capstone-agents-mvp/internal/pkg/retry"
	"github.com/Codedkv/capstone-agents-mvp/internal/ratelimit"
	"github.com/Codedkv/capstone-agents-mvp/internal/sharedctx"
	"github.com/Codedkv/capstone-agents-mvp/internal/tool"
)

// app wires one pipeline instance: configuration, logging, the tool
// registry with all tools and agents, and the coordinator. Each CLI
// invocation builds a fresh app, so no state leaks between runs.
type app struct {
	cfg       *config.Config
	log       *zap.Logger
	registry  *tool.Registry
	store     *sharedctx.Store
	collector *observability.Collector
	coord     *coordinator.Coordinator
	loader    *tool.DataLoader
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return nil, err
	}

	registry := tool.NewRegistry()
	store := sharedctx.New()
	collector := observability.NewCollector(log)

	loader := tool.NewDataLoader(cfg.Data.RequiredColumns, cfg.Data.MaxRows)
	registry.Register(loader)
	registry.Register(tool.NewDetector())
	registry.Register(tool.NewTrendsSearcher(tool.TrendsOptions{
		APIKey:         cfg.Trends.APIKey,
		SearchEngineID: cfg.Trends.SearchEngineID,
		UseAPI:         cfg.Trends.UseAPI,
		MaxRequests:    cfg.Trends.MaxRequests,
	}))
	registry.Register(tool.NewReportGenerator())
	registry.Register(tool.NewActionLogger(cfg.Output.ActionLogPath, log))

	var caller *backend.Caller
	if cfg.Backend.Enabled && cfg.Backend.APIKey != "" {
		client, err := backend.NewAnthropicFromAPIKey(cfg.Backend.APIKey, backend.AnthropicOptions{
			Model:       cfg.Backend.Model,
			MaxTokens:   cfg.Backend.MaxTokens,
			Temperature: cfg.Backend.Temperature,
		})
		if err != nil {
			return nil, err
		}
		limiter := ratelimit.New(ratelimit.Config{
			MaxTokensPerMinute:   cfg.RateLimit.MaxTokensPerMinute,
			MaxRequestsPerMinute: cfg.RateLimit.MaxRequestsPerMinute,
		}, log)
		breaker := circuitbreaker.New(circuitbreaker.DefaultConfig("anthropic"))
		retryCfg := retry.DefaultConfig()
		retryCfg.MaxAttempts = cfg.Backend.MaxRetries
		retryCfg.Retryable = backend.IsTransient
		caller = backend.NewCaller(client, limiter, breaker, retryCfg, log)
	} else {
		log.Info("backend disabled, critique and summary use local fallbacks")
	}

	registry.Register(agent.NewAnalyst(registry, store, log))
	registry.Register(agent.NewRecommender(registry, store, log))
	registry.Register(agent.NewCritic(registry, store, caller, log))
	registry.Register(agent.NewSummarizer(registry, store, caller, log))

	coord := coordinator.New(registry, store, collector, log, coordinator.Options{
		ReportPath: cfg.Output.ReportPath,
	})

	return &app{
		cfg:       cfg,
		log:       log,
		registry:  registry,
		store:     store,
		collector: collector,
		coord:     coord,
		loader:    loader,
	}, nil
}

func (a *app) close() {
	_ = a.log.Sync()
}
