package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Codedkv/capstone-agents-mvp/internal/backend"
	"github.com/Codedkv/capstone-agents-mvp/internal/domain"
	"github.com/Codedkv/capstone-agents-mvp/internal/sharedctx"
	"github.com/Codedkv/capstone-agents-mvp/internal/tool"
)

const criticInstruction = "You are the Critic agent. Review the work produced by the analysis and " +
	"recommendation agents for completeness, correctness, logical consistency, and business relevance. " +
	"Point out errors, gaps, or questionable assumptions; suggest improvements or alternative approaches. " +
	"Your critique should be constructive, professional, and specific to the output you are reviewing."

// Critic reviews the analysis and recommendations through the external
// backend. When no backend is configured, or the backend call fails past
// its retry ceiling, the critic falls back to a deterministic local
// review so the pipeline keeps its shape offline.
type Critic struct {
	registry *tool.Registry
	store    *sharedctx.Store
	caller   *backend.Caller
	log      *zap.Logger
}

// NewCritic builds the critic worker. caller may be nil to run in
// fallback-only mode.
func NewCritic(registry *tool.Registry, store *sharedctx.Store, caller *backend.Caller, log *zap.Logger) *Critic {
	if log == nil {
		log = zap.NewNop()
	}
	return &Critic{registry: registry, store: store, caller: caller, log: log}
}

func (c *Critic) Name() string { return NameCritic }

func (c *Critic) Description() string {
	return "Reviews the analysis and recommendations for gaps and inconsistencies"
}

// Execute produces the critique and stores it under critique_result.
func (c *Critic) Execute(ctx context.Context, _ tool.Args) tool.Result {
	start := time.Now()

	analysis, _ := c.store.Get(sharedctx.KeyAnalysisResult, domain.AnalysisResult{}).(domain.AnalysisResult)
	recommendation, _ := c.store.Get(sharedctx.KeyRecommendationResult, domain.RecommendationResult{}).(domain.RecommendationResult)

	logAction(ctx, c.registry, c.Name(), "start_critique",
		map[string]any{"patterns": len(analysis.Patterns), "actions": len(recommendation.ActionItems)}, "INFO")

	critique := c.review(ctx, analysis, recommendation)
	c.store.Set(sharedctx.KeyCritiqueResult, critique)

	logAction(ctx, c.registry, c.Name(), "critique_complete",
		map[string]any{"length": len(critique)}, "INFO")

	return tool.Ok(critique).Timed(start)
}

func (c *Critic) review(ctx context.Context, analysis domain.AnalysisResult, recommendation domain.RecommendationResult) string {
	if c.caller != nil {
		resp, err := c.caller.Complete(ctx, backend.Request{
			SystemInstruction: criticInstruction,
			Prompt:            critiquePrompt(analysis, recommendation),
		})
		if err == nil && strings.TrimSpace(resp.Text) != "" {
			return resp.Text
		}
		if err != nil {
			c.log.Warn("critic backend call failed, using local fallback", zap.Error(err))
		}
	}
	return fallbackCritique(analysis, recommendation)
}

func critiquePrompt(analysis domain.AnalysisResult, recommendation domain.RecommendationResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analysis found %d patterns with overall severity %s and confidence %.2f.\n",
		len(analysis.Patterns), analysis.Severity, analysis.Confidence)
	for _, p := range analysis.Patterns {
		fmt.Fprintf(&b, "- %s in %s, magnitude %.1f%%\n", p.Type, p.Metric, p.Magnitude)
	}
	fmt.Fprintf(&b, "\n%d recommendations were generated:\n", len(recommendation.ActionItems))
	for _, item := range recommendation.ActionItems {
		fmt.Fprintf(&b, "- [Priority %d] %s\n", item.Priority, item.Title)
	}
	b.WriteString("\nReview these outputs for errors, gaps, and logical consistency.")
	return b.String()
}

// fallbackCritique is the deterministic offline review: it flags the
// structural weak points that do not need a model to notice.
func fallbackCritique(analysis domain.AnalysisResult, recommendation domain.RecommendationResult) string {
	var points []string
	if len(analysis.Patterns) == 0 {
		points = append(points, "No anomaly patterns were identified; verify detection thresholds before acting on this report.")
	}
	if analysis.Confidence < 0.5 && len(analysis.Patterns) > 0 {
		points = append(points, fmt.Sprintf("Analysis confidence is low (%.2f); findings should be validated against additional data.", analysis.Confidence))
	}
	if len(analysis.MarketContext) == 0 {
		points = append(points, "No market context was gathered; external factors may be underrepresented in the root-cause candidates.")
	}
	if len(recommendation.QuickWins) == 0 && len(recommendation.ActionItems) > 0 {
		points = append(points, "No quick wins were identified; consider adding low-effort actions to build early momentum.")
	}
	if recommendation.RiskAssessment.OverallRiskLevel == domain.SeverityHigh {
		points = append(points, "Implementation risk is assessed HIGH; the action plan may overcommit resources.")
	}
	if len(points) == 0 {
		points = append(points, "Outputs are internally consistent; no structural gaps detected in this review.")
	}
	return "Critique: " + strings.Join(points, " ")
}
