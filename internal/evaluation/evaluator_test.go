package evaluation

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Codedkv/capstone-agents-mvp/internal/domain"
	"github.com/Codedkv/capstone-agents-mvp/internal/observability"
	"github.com/Codedkv/capstone-agents-mvp/internal/tool"
)

// seedRun replays a synthetic pipeline run into a fresh collector.
func seedRun(anomalies, actionItems int, severity domain.Severity, latencyMS float64) *observability.Collector {
	c := observability.NewCollector(zap.NewNop())
	trace := "eval-test"

	c.BeforeAgent("detect_anomalies", trace)
	c.AfterAgent("detect_anomalies", trace, tool.Result{
		OK:        true,
		Value:     domain.DetectionResult{Count: anomalies},
		ElapsedMS: latencyMS,
	})

	c.BeforeAgent("analyst", trace)
	c.AfterAgent("analyst", trace, tool.Result{
		OK:        true,
		Value:     domain.AnalysisResult{Severity: severity},
		ElapsedMS: latencyMS,
	})

	items := make([]domain.ActionItem, actionItems)
	c.BeforeAgent("recommender", trace)
	c.AfterAgent("recommender", trace, tool.Result{
		OK:        true,
		Value:     domain.RecommendationResult{ActionItems: items},
		ElapsedMS: latencyMS,
	})
	return c
}

func TestEffectivenessFullMatch(t *testing.T) {
	collector := seedRun(1, 3, domain.SeverityHigh, 100)
	e := New(collector, zap.NewNop())

	tc, ok := CaseByName("normal_operations")
	require.True(t, ok)
	assert.Equal(t, 100, e.Effectiveness(tc))
}

func TestEffectivenessSeverityMismatch(t *testing.T) {
	collector := seedRun(1, 3, domain.SeverityMedium, 100)
	e := New(collector, zap.NewNop())

	tc, _ := CaseByName("normal_operations")
	// 0.4*1.0 + 0.3*1.0 + 0.3*0.8 = 0.94
	assert.Equal(t, 94, e.Effectiveness(tc))
}

func TestEffectivenessPartialFindings(t *testing.T) {
	collector := seedRun(1, 2, domain.SeverityHigh, 100)
	e := New(collector, zap.NewNop())

	tc, _ := CaseByName("multiple_anomalies")
	// anomalies 1/2, recommendations 2/4, severity match:
	// 0.4*0.5 + 0.3*0.5 + 0.3*1.0 = 0.65
	assert.Equal(t, 65, e.Effectiveness(tc))
}

func TestEffectivenessEmptyRunAgainstQuietCase(t *testing.T) {
	collector := observability.NewCollector(zap.NewNop())
	e := New(collector, zap.NewNop())

	tc, _ := CaseByName("no_anomalies")
	// No findings where none were expected: only the recommendation
	// coverage term is short. 0.4*0 + 0.3*0 + 0.3*1.0 = 0.3
	assert.Equal(t, 30, e.Effectiveness(tc))
}

func TestEfficiencyIdealRun(t *testing.T) {
	collector := seedRun(1, 3, domain.SeverityHigh, 100)
	e := New(collector, zap.NewNop())

	// Latency under reference, tool calls under budget, no errors.
	assert.Equal(t, 100, e.Efficiency())
}

func TestEfficiencyDegradedRun(t *testing.T) {
	collector := observability.NewCollector(zap.NewNop())
	trace := "slow-run"
	collector.BeforeAgent("analyst", trace)
	collector.AfterAgent("analyst", trace, tool.Result{OK: true, ElapsedMS: 6000})
	collector.BeforeAgent("recommender", trace)
	collector.AfterAgent("recommender", trace, tool.Result{OK: true, ElapsedMS: 6000})
	for i := 0; i < 24; i++ {
		collector.BeforeTool("detect_anomalies", nil)
	}
	collector.OnError(assert.AnError, "analyst")

	e := New(collector, zap.NewNop())
	// latency 3000/6000 floors at 0.65, tools 12/24 floors at 0.70,
	// success rate 1 - 1/2 = 0.5:
	// 0.4*0.65 + 0.3*0.70 + 0.3*0.5 = 0.62
	assert.Equal(t, 62, e.Efficiency())
}

func TestRobustnessRejectsAllEdgeCases(t *testing.T) {
	collector := observability.NewCollector(zap.NewNop())
	e := New(collector, zap.NewNop())
	loader := tool.NewDataLoader([]string{"date", "revenue", "costs", "customers"}, 0)

	score := e.Robustness(context.Background(), loader, nil)
	assert.Equal(t, 100, score)
}

func TestRobustnessDetectsSilentAcceptance(t *testing.T) {
	collector := observability.NewCollector(zap.NewNop())
	e := New(collector, zap.NewNop())
	loader := tool.NewDataLoader([]string{"date", "revenue", "costs", "customers"}, 0)

	cases := []EdgeCase{
		// A well-formed file wrongly expected to fail scores zero.
		{Name: "valid_marked_invalid", CSVContent: "date,revenue,costs,customers\n2024-01-01,50000,30000,150\n", ExpectError: true},
		{Name: "empty_csv", CSVContent: "date,revenue,costs,customers\n", ExpectError: true},
	}
	score := e.Robustness(context.Background(), loader, cases)
	assert.Equal(t, 50, score)
}

func TestRunFullAndReport(t *testing.T) {
	collector := seedRun(1, 3, domain.SeverityHigh, 100)
	e := New(collector, zap.NewNop())
	loader := tool.NewDataLoader([]string{"date", "revenue", "costs", "customers"}, 0)

	scores := e.RunFull(context.Background(), loader, nil)
	require.Contains(t, scores, "effectiveness_score")
	require.Contains(t, scores, "efficiency_score")
	require.Contains(t, scores, "robustness_score")
	assert.Equal(t, 100.0, scores["efficiency_score"])
	assert.Equal(t, 100.0, scores["robustness_score"])

	report := e.GenerateReport()
	assert.Len(t, report.TestResults, len(DefaultTestCases))
	assert.Greater(t, report.OverallQuality, 0.0)
	assert.LessOrEqual(t, report.OverallQuality, 100.0)
}

func TestExportJSONRoundTrip(t *testing.T) {
	collector := seedRun(1, 3, domain.SeverityHigh, 100)
	e := New(collector, zap.NewNop())
	loader := tool.NewDataLoader([]string{"date", "revenue", "costs", "customers"}, 0)
	e.RunFull(context.Background(), loader, nil)

	path := filepath.Join(t.TempDir(), "nested", "evaluation_report.json")
	require.Nil(t, e.ExportJSON(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var report Report
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Len(t, report.TestResults, len(DefaultTestCases))
	assert.Equal(t, e.GenerateReport().OverallQuality, report.OverallQuality)
}
