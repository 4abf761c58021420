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

const summarizerInstruction = "You are the Coordinator agent concluding a multi-agent business analytics " +
	"workflow. Summarize the analysis results, recommendations, and critique into a concise executive " +
	"summary. Highlight major findings first, then the highest-priority actions."

// Summarizer condenses the whole run into the final executive summary,
// through the backend when available and a deterministic template
// otherwise.
type Summarizer struct {
	registry *tool.Registry
	store    *sharedctx.Store
	caller   *backend.Caller
	log      *zap.Logger
}

// NewSummarizer builds the summarizer worker. caller may be nil to run
// in fallback-only mode.
func NewSummarizer(registry *tool.Registry, store *sharedctx.Store, caller *backend.Caller, log *zap.Logger) *Summarizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Summarizer{registry: registry, store: store, caller: caller, log: log}
}

func (s *Summarizer) Name() string { return NameSummarizer }

func (s *Summarizer) Description() string {
	return "Condenses the run's outputs into the final executive summary"
}

// Execute produces the summary and stores it under final_summary.
func (s *Summarizer) Execute(ctx context.Context, _ tool.Args) tool.Result {
	start := time.Now()

	analysis, _ := s.store.Get(sharedctx.KeyAnalysisResult, domain.AnalysisResult{}).(domain.AnalysisResult)
	recommendation, _ := s.store.Get(sharedctx.KeyRecommendationResult, domain.RecommendationResult{}).(domain.RecommendationResult)
	critique, _ := s.store.Get(sharedctx.KeyCritiqueResult, "").(string)

	logAction(ctx, s.registry, s.Name(), "start_summary", nil, "INFO")

	summary := s.summarize(ctx, analysis, recommendation, critique)
	s.store.Set(sharedctx.KeyFinalSummary, summary)

	logAction(ctx, s.registry, s.Name(), "summary_complete",
		map[string]any{"length": len(summary)}, "INFO")

	return tool.Ok(summary).Timed(start)
}

func (s *Summarizer) summarize(ctx context.Context, analysis domain.AnalysisResult, recommendation domain.RecommendationResult, critique string) string {
	if s.caller != nil {
		resp, err := s.caller.Complete(ctx, backend.Request{
			SystemInstruction: summarizerInstruction,
			Prompt:            summaryPrompt(analysis, recommendation, critique),
		})
		if err == nil && strings.TrimSpace(resp.Text) != "" {
			return resp.Text
		}
		if err != nil {
			s.log.Warn("summarizer backend call failed, using local fallback", zap.Error(err))
		}
	}
	return fallbackSummary(analysis, recommendation, critique)
}

func summaryPrompt(analysis domain.AnalysisResult, recommendation domain.RecommendationResult, critique string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Severity: %s, confidence %.2f, %d patterns, %d recommendations.\n",
		analysis.Severity, analysis.Confidence, len(analysis.Patterns), len(recommendation.ActionItems))
	for _, p := range analysis.Patterns {
		fmt.Fprintf(&b, "Pattern: %s in %s (%.1f%% deviation)\n", p.Type, p.Metric, p.Magnitude)
	}
	for _, item := range recommendation.ActionItems {
		fmt.Fprintf(&b, "Action: [Priority %d] %s\n", item.Priority, item.Title)
	}
	if critique != "" {
		fmt.Fprintf(&b, "Critique: %s\n", critique)
	}
	b.WriteString("\nWrite the executive summary.")
	return b.String()
}

func fallbackSummary(analysis domain.AnalysisResult, recommendation domain.RecommendationResult, critique string) string {
	var b strings.Builder
	if len(analysis.Patterns) == 0 {
		b.WriteString("The analysis found no significant anomalies in the business metrics. ")
	} else {
		fmt.Fprintf(&b, "The analysis identified %d anomaly pattern(s) with overall severity %s (confidence %.2f). ",
			len(analysis.Patterns), analysis.Severity, analysis.Confidence)
	}
	if n := len(recommendation.ActionItems); n > 0 {
		fmt.Fprintf(&b, "%d prioritized action(s) were generated", n)
		if len(recommendation.QuickWins) > 0 {
			fmt.Fprintf(&b, ", including %d quick win(s)", len(recommendation.QuickWins))
		}
		b.WriteString(". ")
	}
	if critique != "" {
		b.WriteString(critique)
	}
	return strings.TrimSpace(b.String())
}
