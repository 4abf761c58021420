package domain

import "time"

// Impact buckets used for action items
const (
	ImpactHigh   = "High"
	ImpactMedium = "Medium"
	ImpactLow    = "Low"
)

// Timeline buckets used for action items
const (
	TimelineImmediate = "Immediate"
	TimelineShortTerm = "Short-term"
	TimelineLongTerm  = "Long-term"
)

// ActionItem is a single actionable recommendation
type ActionItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	// Priority ranges 1-5 with 1 highest
	Priority             int      `json:"priority"`
	ExpectedImpact       string   `json:"expected_impact"`
	ImplementationEffort string   `json:"implementation_effort"`
	Timeline             string   `json:"timeline"`
	SuccessMetrics       []string `json:"success_metrics"`
	Owner                string   `json:"owner,omitempty"`
	Status               string   `json:"status"`
}

// RiskAssessment summarizes implementation risk across action items
type RiskAssessment struct {
	OverallRiskLevel     Severity `json:"overall_risk_level"`
	ResourceConstraints  bool     `json:"resource_constraints"`
	TimelinePressure     bool     `json:"timeline_pressure"`
	MitigationStrategies []string `json:"mitigation_strategies"`
}

// Outcome is a predicted result of implementing the recommendations
type Outcome struct {
	Outcome            string `json:"outcome"`
	Probability        string `json:"probability"`
	Timeframe          string `json:"timeframe"`
	QuantitativeImpact string `json:"quantitative_impact"`
}

// RecommendationResult is the complete output of the recommendation phase
type RecommendationResult struct {
	ActionItems          []ActionItem   `json:"action_items"`
	QuickWins            []ActionItem   `json:"quick_wins"`
	StrategicInitiatives []ActionItem   `json:"strategic_initiatives"`
	RiskAssessment       RiskAssessment `json:"risk_assessment"`
	ExpectedOutcomes     []Outcome      `json:"expected_outcomes"`
	GeneratedAt          time.Time      `json:"generated_at"`
}
