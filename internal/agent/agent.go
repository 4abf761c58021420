// Package agent contains the specialized workers of the analytics
// pipeline. Each agent implements the tool contract so the coordinator
// resolves workers and tools uniformly through the registry: the analyst
// extracts patterns and root causes from detected anomalies, the
// recommender turns the analysis into prioritized action items, and the
// critic and summarizer review and condense the run's outputs through
// the external backend with local fallbacks.
package agent

import (
	"context"

	"github.com/Codedkv/capstone-agents-mvp/internal/tool"
)

// Registered agent names, used by the coordinator for registry lookups.
const (
	NameAnalyst     = "analyst"
	NameRecommender = "recommender"
	NameCritic      = "critic"
	NameSummarizer  = "summarizer"
)

// logAction records an agent action through the registered action logger.
// Logging is best-effort: a missing logger or a failed write never affects
// the agent's own result.
func logAction(ctx context.Context, registry *tool.Registry, agent, action string, details map[string]any, level string) {
	logger, ok := registry.Get("log_agent_action")
	if !ok {
		return
	}
	logger.Execute(ctx, tool.Args{
		"agent_name": agent,
		"action":     action,
		"details":    details,
		"level":      level,
	})
}
