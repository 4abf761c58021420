package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Codedkv/capstone-agents-mvp/internal/domain"
	apperrors "github.com/Codedkv/capstone-agents-mvp/internal/pkg/errors"
	"github.com/Codedkv/capstone-agents-mvp/internal/sharedctx"
	"github.com/Codedkv/capstone-agents-mvp/internal/tool"
)

func recommenderFixture(t *testing.T) (*Recommender, *sharedctx.Store) {
	t.Helper()
	store := sharedctx.New()
	return NewRecommender(tool.NewRegistry(), store, zap.NewNop()), store
}

func analysisWith(severity domain.Severity, types ...domain.PatternType) domain.AnalysisResult {
	patterns := make([]domain.AnomalyPattern, len(types))
	for i, pt := range types {
		patterns[i] = domain.AnomalyPattern{Metric: "revenue", Type: pt, Severity: domain.SeverityHigh}
	}
	return domain.AnalysisResult{Patterns: patterns, Severity: severity}
}

func runRecommender(t *testing.T, analysis domain.AnalysisResult) domain.RecommendationResult {
	t.Helper()
	r, store := recommenderFixture(t)
	store.Set(sharedctx.KeyAnalysisResult, analysis)

	res := r.Execute(context.Background(), nil)
	require.True(t, res.OK)
	return res.Value.(domain.RecommendationResult)
}

func TestRecommenderRequiresAnalysisResult(t *testing.T) {
	r, _ := recommenderFixture(t)

	res := r.Execute(context.Background(), nil)
	require.False(t, res.OK)
	assert.Equal(t, apperrors.CodeData, res.Err.Code)
}

func TestRecommenderSpikeActions(t *testing.T) {
	result := runRecommender(t, analysisWith(domain.SeverityMedium, domain.PatternSpike))

	// Two spike items plus the standing monitoring item.
	require.Len(t, result.ActionItems, 3)
	titles := make([]string, 0, 3)
	for _, item := range result.ActionItems {
		titles = append(titles, item.Title)
	}
	assert.Contains(t, titles, "Investigate Revenue Spike Root Cause")
	assert.Contains(t, titles, "Capitalize on Spike Drivers")
	assert.Contains(t, titles, "Enhanced Monitoring System")
}

func TestRecommenderDropActions(t *testing.T) {
	result := runRecommender(t, analysisWith(domain.SeverityMedium, domain.PatternDrop))

	require.Len(t, result.ActionItems, 3)
	assert.Equal(t, "Emergency Revenue Recovery Plan", result.ActionItems[0].Title)
	assert.Equal(t, 1, result.ActionItems[0].Priority)
}

func TestRecommenderHighSeverityAddsEscalation(t *testing.T) {
	result := runRecommender(t, analysisWith(domain.SeverityHigh, domain.PatternSpike))

	var found bool
	for _, item := range result.ActionItems {
		if item.Title == "Executive Review and Decision" {
			found = true
			assert.Equal(t, 1, item.Priority)
			assert.Equal(t, domain.ImpactLow, item.ImplementationEffort)
		}
	}
	assert.True(t, found, "high severity should add an executive escalation item")
}

func TestRecommenderEmptyAnalysisStillMonitors(t *testing.T) {
	result := runRecommender(t, domain.AnalysisResult{Severity: domain.SeverityLow})

	require.Len(t, result.ActionItems, 1)
	assert.Equal(t, "Enhanced Monitoring System", result.ActionItems[0].Title)
	assert.Equal(t, 3, result.ActionItems[0].Priority)
	assert.Empty(t, result.QuickWins)
	assert.Empty(t, result.StrategicInitiatives)
}

func TestRecommenderSortedByPriority(t *testing.T) {
	result := runRecommender(t, analysisWith(domain.SeverityHigh, domain.PatternSpike, domain.PatternDrop))

	for i := 1; i < len(result.ActionItems); i++ {
		assert.LessOrEqual(t, result.ActionItems[i-1].Priority, result.ActionItems[i].Priority)
	}
}

func TestRecommenderSequentialIDs(t *testing.T) {
	r, store := recommenderFixture(t)
	store.Set(sharedctx.KeyAnalysisResult, analysisWith(domain.SeverityMedium, domain.PatternSpike))

	res := r.Execute(context.Background(), nil)
	require.True(t, res.OK)
	result := res.Value.(domain.RecommendationResult)

	seen := make(map[string]bool)
	for _, item := range result.ActionItems {
		assert.Regexp(t, `^ACT-\d{3}$`, item.ID)
		assert.False(t, seen[item.ID], "duplicate id %s", item.ID)
		seen[item.ID] = true
	}
}

func TestRecommenderQuickWinsAndStrategic(t *testing.T) {
	result := runRecommender(t, analysisWith(domain.SeverityHigh, domain.PatternSpike))

	// The executive review item is low effort at priority 1: a quick win.
	require.Len(t, result.QuickWins, 1)
	assert.Equal(t, "Executive Review and Decision", result.QuickWins[0].Title)

	// Capitalize on Spike Drivers is short-term, high impact: strategic.
	require.Len(t, result.StrategicInitiatives, 1)
	assert.Equal(t, "Capitalize on Spike Drivers", result.StrategicInitiatives[0].Title)
}

func TestRecommenderRiskLevels(t *testing.T) {
	low := runRecommender(t, analysisWith(domain.SeverityLow))
	assert.Equal(t, domain.SeverityLow, low.RiskAssessment.OverallRiskLevel)

	// A single drop pattern brings one high-effort item.
	medium := runRecommender(t, analysisWith(domain.SeverityMedium, domain.PatternDrop))
	assert.Equal(t, domain.SeverityMedium, medium.RiskAssessment.OverallRiskLevel)
	assert.False(t, medium.RiskAssessment.ResourceConstraints)

	// Two drops plus escalation: three priority-1 items and two
	// high-effort items.
	high := runRecommender(t, analysisWith(domain.SeverityHigh, domain.PatternDrop, domain.PatternDrop))
	assert.Equal(t, domain.SeverityHigh, high.RiskAssessment.OverallRiskLevel)
	assert.True(t, high.RiskAssessment.ResourceConstraints)
	assert.True(t, high.RiskAssessment.TimelinePressure)
}

func TestRecommenderOutcomesScaleWithImpact(t *testing.T) {
	baseline := runRecommender(t, domain.AnalysisResult{Severity: domain.SeverityLow})
	assert.Len(t, baseline.ExpectedOutcomes, 2)

	spiky := runRecommender(t, analysisWith(domain.SeverityMedium, domain.PatternSpike))
	require.Len(t, spiky.ExpectedOutcomes, 3)
	assert.Equal(t, "Revenue stabilization and growth", spiky.ExpectedOutcomes[0].Outcome)
}

func TestRecommenderWritesResultToSharedContext(t *testing.T) {
	r, store := recommenderFixture(t)
	store.Set(sharedctx.KeyAnalysisResult, analysisWith(domain.SeverityLow))

	res := r.Execute(context.Background(), nil)
	require.True(t, res.OK)

	stored, ok := store.Get(sharedctx.KeyRecommendationResult, nil).(domain.RecommendationResult)
	require.True(t, ok)
	assert.Equal(t, res.Value, stored)
}
