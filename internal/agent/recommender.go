package agent

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/Codedkv/capstone-agents-mvp/internal/domain"
	apperrors "github.com/Codedkv/capstone-agents-mvp/internal/pkg/errors"
	"github.com/Codedkv/capstone-agents-mvp/internal/sharedctx"
	"github.com/Codedkv/capstone-agents-mvp/internal/tool"
)

// Recommender turns the analysis result into prioritized, actionable
// recommendations: concrete action items keyed off pattern types, a
// quick-win vs strategic split, an implementation risk assessment, and
// expected outcomes.
type Recommender struct {
	registry *tool.Registry
	store    *sharedctx.Store
	log      *zap.Logger
}

// NewRecommender builds the recommender worker.
func NewRecommender(registry *tool.Registry, store *sharedctx.Store, log *zap.Logger) *Recommender {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recommender{registry: registry, store: store, log: log}
}

func (r *Recommender) Name() string { return NameRecommender }

func (r *Recommender) Description() string {
	return "Generates prioritized action items from the anomaly analysis"
}

// Execute reads the analysis result from the shared context and writes
// the recommendation result back. A pattern-free analysis still yields
// the standing monitoring recommendation.
func (r *Recommender) Execute(ctx context.Context, _ tool.Args) tool.Result {
	start := time.Now()

	analysis, ok := r.store.Get(sharedctx.KeyAnalysisResult, nil).(domain.AnalysisResult)
	if !ok {
		return tool.Fail(apperrors.Data("analysis result not available in shared context")).Timed(start)
	}

	logAction(ctx, r.registry, r.Name(), "start_recommendation_generation",
		map[string]any{"severity": string(analysis.Severity)}, "INFO")

	items := buildActionItems(analysis)
	quickWins, strategic := categorize(items)

	result := domain.RecommendationResult{
		ActionItems:          items,
		QuickWins:            quickWins,
		StrategicInitiatives: strategic,
		RiskAssessment:       assessRisks(items),
		ExpectedOutcomes:     predictOutcomes(items),
		GeneratedAt:          time.Now(),
	}
	r.store.Set(sharedctx.KeyRecommendationResult, result)

	logAction(ctx, r.registry, r.Name(), "recommendations_generated", map[string]any{
		"total_actions": len(items),
		"quick_wins":    len(quickWins),
		"strategic":     len(strategic),
	}, "INFO")

	return tool.Ok(result).Timed(start)
}

// buildActionItems generates the base recommendations: two per spike or
// drop pattern, an escalation item on HIGH severity, and a standing
// monitoring item. Items come back sorted by priority.
func buildActionItems(analysis domain.AnalysisResult) []domain.ActionItem {
	var items []domain.ActionItem
	id := 1
	next := func() string {
		s := fmt.Sprintf("ACT-%03d", id)
		id++
		return s
	}

	for _, p := range analysis.Patterns {
		switch p.Type {
		case domain.PatternSpike:
			items = append(items,
				domain.ActionItem{
					ID:                   next(),
					Title:                "Investigate Revenue Spike Root Cause",
					Description:          "Analyze the factors contributing to the revenue spike to determine if it's sustainable or one-time event.",
					Priority:             2,
					ExpectedImpact:       domain.ImpactHigh,
					ImplementationEffort: domain.ImpactMedium,
					Timeline:             domain.TimelineImmediate,
					SuccessMetrics:       []string{"Root cause identified", "Sustainability assessment completed"},
					Status:               "pending",
				},
				domain.ActionItem{
					ID:                   next(),
					Title:                "Capitalize on Spike Drivers",
					Description:          "If spike is driven by specific factors (promotion, product), develop strategy to replicate success.",
					Priority:             1,
					ExpectedImpact:       domain.ImpactHigh,
					ImplementationEffort: domain.ImpactMedium,
					Timeline:             domain.TimelineShortTerm,
					SuccessMetrics:       []string{"Strategy documented", "Implementation plan created"},
					Status:               "pending",
				},
			)
		case domain.PatternDrop:
			items = append(items,
				domain.ActionItem{
					ID:                   next(),
					Title:                "Emergency Revenue Recovery Plan",
					Description:          "Develop and implement immediate actions to stabilize and recover revenue.",
					Priority:             1,
					ExpectedImpact:       domain.ImpactHigh,
					ImplementationEffort: domain.ImpactHigh,
					Timeline:             domain.TimelineImmediate,
					SuccessMetrics:       []string{"Recovery plan deployed", "Revenue stabilized"},
					Status:               "pending",
				},
				domain.ActionItem{
					ID:                   next(),
					Title:                "Customer Retention Analysis",
					Description:          "Analyze customer churn and implement retention strategies.",
					Priority:             2,
					ExpectedImpact:       domain.ImpactMedium,
					ImplementationEffort: domain.ImpactMedium,
					Timeline:             domain.TimelineShortTerm,
					SuccessMetrics:       []string{"Churn rate reduced by 15%", "Retention program launched"},
					Status:               "pending",
				},
			)
		}
	}

	if analysis.Severity == domain.SeverityHigh {
		items = append(items, domain.ActionItem{
			ID:                   next(),
			Title:                "Executive Review and Decision",
			Description:          "Escalate findings to executive team for strategic review and decision-making.",
			Priority:             1,
			ExpectedImpact:       domain.ImpactHigh,
			ImplementationEffort: domain.ImpactLow,
			Timeline:             domain.TimelineImmediate,
			SuccessMetrics:       []string{"Executive briefing completed", "Strategic decisions documented"},
			Status:               "pending",
		})
	}

	items = append(items, domain.ActionItem{
		ID:                   next(),
		Title:                "Enhanced Monitoring System",
		Description:          "Implement real-time monitoring to detect similar patterns early.",
		Priority:             3,
		ExpectedImpact:       domain.ImpactMedium,
		ImplementationEffort: domain.ImpactMedium,
		Timeline:             domain.TimelineLongTerm,
		SuccessMetrics:       []string{"Monitoring system deployed", "Alert thresholds configured"},
		Status:               "pending",
	})

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Priority < items[j].Priority
	})
	return items
}

// categorize splits items into quick wins (low effort, priority 1-2) and
// strategic initiatives (short/long term with high expected impact).
func categorize(items []domain.ActionItem) (quickWins, strategic []domain.ActionItem) {
	for _, item := range items {
		if item.ImplementationEffort == domain.ImpactLow && item.Priority <= 2 {
			quickWins = append(quickWins, item)
		}
		if (item.Timeline == domain.TimelineShortTerm || item.Timeline == domain.TimelineLongTerm) &&
			item.ExpectedImpact == domain.ImpactHigh {
			strategic = append(strategic, item)
		}
	}
	return quickWins, strategic
}

func assessRisks(items []domain.ActionItem) domain.RiskAssessment {
	highPriority := 0
	highEffort := 0
	for _, item := range items {
		if item.Priority == 1 {
			highPriority++
		}
		if item.ImplementationEffort == domain.ImpactHigh {
			highEffort++
		}
	}

	level := domain.SeverityLow
	switch {
	case highPriority >= 3 || highEffort >= 2:
		level = domain.SeverityHigh
	case highPriority >= 2 || highEffort >= 1:
		level = domain.SeverityMedium
	}

	return domain.RiskAssessment{
		OverallRiskLevel:    level,
		ResourceConstraints: highEffort >= 2,
		TimelinePressure:    highPriority >= 3,
		MitigationStrategies: []string{
			"Prioritize critical actions",
			"Allocate dedicated resources",
			"Establish clear ownership",
			"Regular progress monitoring",
		},
	}
}

func predictOutcomes(items []domain.ActionItem) []domain.Outcome {
	highImpact := 0
	for _, item := range items {
		if item.ExpectedImpact == domain.ImpactHigh {
			highImpact++
		}
	}

	var outcomes []domain.Outcome
	if highImpact >= 2 {
		outcomes = append(outcomes, domain.Outcome{
			Outcome:            "Revenue stabilization and growth",
			Probability:        domain.ImpactHigh,
			Timeframe:          "1-3 months",
			QuantitativeImpact: "10-25% improvement",
		})
	}
	outcomes = append(outcomes,
		domain.Outcome{
			Outcome:            "Improved operational visibility",
			Probability:        domain.ImpactHigh,
			Timeframe:          "1-2 months",
			QuantitativeImpact: "Real-time monitoring established",
		},
		domain.Outcome{
			Outcome:            "Enhanced decision-making capability",
			Probability:        domain.ImpactMedium,
			Timeframe:          "3-6 months",
			QuantitativeImpact: "Reduced response time by 50%",
		},
	)
	return outcomes
}
