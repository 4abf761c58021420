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

// Deviation thresholds (percent from the metric baseline) used to
// classify anomaly patterns.
const (
	spikeThresholdPct = 20.0
	trendThresholdPct = 10.0
)

// basePatternConfidence is the starting confidence assigned to every
// classified pattern before market-context bonuses.
const basePatternConfidence = 0.85

// Analyst performs deep analysis of detected anomalies: pattern
// classification, root-cause candidates, market context lookup, and an
// overall severity and confidence assessment. It reads raw data and
// detected anomalies from the shared context and writes the analysis
// result back for the downstream agents.
type Analyst struct {
	registry *tool.Registry
	store    *sharedctx.Store
	log      *zap.Logger
}

// NewAnalyst builds the analyst worker.
func NewAnalyst(registry *tool.Registry, store *sharedctx.Store, log *zap.Logger) *Analyst {
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyst{registry: registry, store: store, log: log}
}

func (a *Analyst) Name() string { return NameAnalyst }

func (a *Analyst) Description() string {
	return "Analyzes detected anomalies for patterns, root causes, and market context"
}

// Execute runs the analysis. It requires raw_data and detected_anomalies
// to be present in the shared context; an empty anomaly set is a valid
// clean outcome and produces an empty-pattern analysis.
func (a *Analyst) Execute(ctx context.Context, _ tool.Args) tool.Result {
	start := time.Now()

	rows, ok := a.store.Get(sharedctx.KeyRawData, nil).([]domain.MetricRow)
	if !ok || len(rows) == 0 {
		return tool.Fail(apperrors.Data("raw data not available in shared context")).Timed(start)
	}
	detection, _ := a.store.Get(sharedctx.KeyDetectedAnomalies, domain.DetectionResult{}).(domain.DetectionResult)

	logAction(ctx, a.registry, a.Name(), "start_analysis",
		map[string]any{"anomaly_count": detection.Count}, "INFO")

	patterns := a.extractPatterns(rows, detection.Anomalies)
	causes := identifyCauses(patterns)
	marketContext := a.searchMarketContext(ctx, patterns)
	severity := assessSeverity(patterns)
	confidence := calculateConfidence(patterns, marketContext)

	result := domain.AnalysisResult{
		Patterns:        patterns,
		PotentialCauses: causes,
		Severity:        severity,
		MarketContext:   marketContext,
		Confidence:      confidence,
		AnalyzedAt:      time.Now(),
	}
	a.store.Set(sharedctx.KeyAnalysisResult, result)

	logAction(ctx, a.registry, a.Name(), "analysis_complete", map[string]any{
		"patterns_found": len(patterns),
		"severity":       string(severity),
		"confidence":     confidence,
	}, "INFO")

	return tool.Ok(result).Timed(start)
}

// extractPatterns classifies each anomalous value against the revenue
// baseline by its deviation percentage.
func (a *Analyst) extractPatterns(rows []domain.MetricRow, anomalies []float64) []domain.AnomalyPattern {
	if len(anomalies) == 0 {
		return nil
	}

	var sum float64
	for _, row := range rows {
		sum += row.Revenue
	}
	avg := sum / float64(len(rows))

	patterns := make([]domain.AnomalyPattern, 0, len(anomalies))
	for _, value := range anomalies {
		timestamp := "unknown"
		for _, row := range rows {
			if row.Revenue == value {
				timestamp = row.Date
				break
			}
		}

		deviationPct := (value - avg) / avg * 100
		var patternType domain.PatternType
		var severity domain.Severity
		switch {
		case deviationPct > spikeThresholdPct:
			patternType = domain.PatternSpike
			severity = domain.SeverityHigh
		case deviationPct < -spikeThresholdPct:
			patternType = domain.PatternDrop
			severity = domain.SeverityHigh
		case deviationPct > trendThresholdPct || deviationPct < -trendThresholdPct:
			patternType = domain.PatternTrend
			severity = domain.SeverityMedium
		default:
			patternType = domain.PatternFluctuation
			severity = domain.SeverityLow
		}

		patterns = append(patterns, domain.AnomalyPattern{
			Metric:     "revenue",
			Type:       patternType,
			Severity:   severity,
			Values:     []float64{value},
			Timestamps: []string{timestamp},
			Magnitude:  abs(deviationPct),
			Confidence: basePatternConfidence,
			DetectedAt: time.Now(),
		})
	}
	return patterns
}

// identifyCauses maps pattern types to candidate root causes, keeping
// the top five by confidence.
func identifyCauses(patterns []domain.AnomalyPattern) []domain.Cause {
	var causes []domain.Cause
	for _, p := range patterns {
		switch p.Type {
		case domain.PatternSpike:
			causes = append(causes,
				domain.Cause{Cause: "Seasonal demand increase", Confidence: 0.75, Category: "market"},
				domain.Cause{Cause: "New product launch or promotion", Confidence: 0.7, Category: "internal"},
				domain.Cause{Cause: "One-time large transaction", Confidence: 0.65, Category: "operational"},
			)
		case domain.PatternDrop:
			causes = append(causes,
				domain.Cause{Cause: "Market downturn or economic factors", Confidence: 0.75, Category: "market"},
				domain.Cause{Cause: "Operational issues or outages", Confidence: 0.7, Category: "operational"},
				domain.Cause{Cause: "Increased competition", Confidence: 0.65, Category: "competitive"},
			)
		}
	}
	sort.SliceStable(causes, func(i, j int) bool {
		return causes[i].Confidence > causes[j].Confidence
	})
	if len(causes) > 5 {
		causes = causes[:5]
	}
	return causes
}

// searchMarketContext queries the trends tool for the first two patterns
// to keep the external request budget small, collecting up to three
// trends per pattern.
func (a *Analyst) searchMarketContext(ctx context.Context, patterns []domain.AnomalyPattern) []domain.Trend {
	searcher, ok := a.registry.Get("search_market_trends")
	if !ok {
		return nil
	}

	limit := len(patterns)
	if limit > 2 {
		limit = 2
	}

	var all []domain.Trend
	for _, p := range patterns[:limit] {
		topic := fmt.Sprintf("%s in %s", p.Type, p.Metric)
		res := searcher.Execute(ctx, tool.Args{"topic": topic, "region": "Global", "max_results": 3})
		if !res.OK {
			a.log.Debug("market trends lookup failed", zap.String("topic", topic))
			continue
		}
		payload, ok := res.Value.(map[string]any)
		if !ok {
			continue
		}
		trends, ok := payload["trends"].([]domain.Trend)
		if !ok {
			continue
		}
		if len(trends) > 3 {
			trends = trends[:3]
		}
		all = append(all, trends...)
	}
	return all
}

// assessSeverity derives the run-level severity from how many HIGH
// patterns were found.
func assessSeverity(patterns []domain.AnomalyPattern) domain.Severity {
	if len(patterns) == 0 {
		return domain.SeverityLow
	}
	high := 0
	for _, p := range patterns {
		if p.Severity == domain.SeverityHigh {
			high++
		}
	}
	switch {
	case high >= 2:
		return domain.SeverityHigh
	case high == 1:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

// calculateConfidence averages pattern confidence and adds a small bonus
// per market-context trend, capped at 0.15 and an overall 1.0.
func calculateConfidence(patterns []domain.AnomalyPattern, marketContext []domain.Trend) float64 {
	if len(patterns) == 0 {
		return 0
	}
	var sum float64
	for _, p := range patterns {
		sum += p.Confidence
	}
	confidence := sum / float64(len(patterns))

	bonus := float64(len(marketContext)) * 0.05
	if bonus > 0.15 {
		bonus = 0.15
	}
	confidence += bonus
	if confidence > 1 {
		confidence = 1
	}
	return confidence
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
