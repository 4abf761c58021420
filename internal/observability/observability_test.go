package observability

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Codedkv/capstone-agents-mvp/internal/domain"
	"github.com/Codedkv/capstone-agents-mvp/internal/tool"
)

func TestCollectorSpanOrder(t *testing.T) {
	c := NewCollector(zap.NewNop())

	c.BeforeAgent("load_data", "trace-1")
	c.AfterAgent("load_data", "trace-1", tool.Ok(nil))
	c.BeforeAgent("analyst", "trace-1")
	c.AfterAgent("analyst", "trace-1", tool.Ok(nil))

	trace, ok := c.GetTrace("trace-1")
	require.True(t, ok)
	require.Len(t, trace.Spans, 4)
	assert.Equal(t, "load_data", trace.Spans[0].Name)
	assert.Equal(t, SpanStart, trace.Spans[0].Kind)
	assert.Equal(t, "load_data", trace.Spans[1].Name)
	assert.Equal(t, SpanEnd, trace.Spans[1].Kind)
	assert.Equal(t, "analyst", trace.Spans[2].Name)
	assert.Equal(t, SpanStart, trace.Spans[2].Kind)
	assert.Equal(t, "analyst", trace.Spans[3].Name)
	assert.Equal(t, SpanEnd, trace.Spans[3].Kind)

	for i := 1; i < len(trace.Spans); i++ {
		assert.False(t, trace.Spans[i].Timestamp.Before(trace.Spans[i-1].Timestamp))
	}
}

func TestCollectorTraceLazilyCreated(t *testing.T) {
	c := NewCollector(zap.NewNop())

	_, ok := c.GetTrace("missing")
	assert.False(t, ok)

	c.BeforeAgent("analyst", "trace-1")
	trace, ok := c.GetTrace("trace-1")
	require.True(t, ok)
	assert.Equal(t, "trace-1", trace.TraceID)
	assert.False(t, trace.Start.IsZero())
}

func TestCollectorGetTraceReturnsCopy(t *testing.T) {
	c := NewCollector(zap.NewNop())
	c.BeforeAgent("analyst", "trace-1")

	trace, _ := c.GetTrace("trace-1")
	trace.Spans[0].Name = "mutated"

	again, _ := c.GetTrace("trace-1")
	assert.Equal(t, "analyst", again.Spans[0].Name)
}

func TestCollectorMetricsSummary(t *testing.T) {
	c := NewCollector(zap.NewNop())

	c.BeforeAgent("analyst", "trace-1")
	c.AfterAgent("analyst", "trace-1", tool.Result{OK: true, ElapsedMS: 100})
	c.BeforeAgent("recommender", "trace-1")
	c.AfterAgent("recommender", "trace-1", tool.Result{OK: true, ElapsedMS: 300})
	c.BeforeTool("detect_anomalies", nil)
	c.BeforeTool("detect_anomalies", nil)
	c.OnError(errors.New("boom"), "analyst")

	snap := c.MetricsSummary()
	assert.Equal(t, 2, snap.TotalAgentCalls)
	assert.Equal(t, 2, snap.TotalToolCalls)
	assert.Equal(t, 1, snap.AgentCalls["analyst"])
	assert.Equal(t, 2, snap.ToolCalls["detect_anomalies"])
	assert.Equal(t, 1, snap.ErrorCount)
	assert.Equal(t, 200.0, snap.AvgLatencyMS)
	assert.InDelta(t, 0.5, snap.SuccessRate, 1e-9)
	require.Len(t, snap.Errors, 1)
	assert.Equal(t, "boom", snap.Errors[0].Error)
	assert.Equal(t, "analyst", snap.Errors[0].Context)
}

func TestCollectorSuccessRateWithNoCalls(t *testing.T) {
	c := NewCollector(zap.NewNop())
	assert.Equal(t, 1.0, c.MetricsSummary().SuccessRate)

	c.OnError(errors.New("early failure"), "setup")
	assert.Equal(t, 0.0, c.MetricsSummary().SuccessRate)
}

func TestCollectorDomainCountersLastValueWins(t *testing.T) {
	c := NewCollector(zap.NewNop())

	c.AfterAgent("detect", "t", tool.Ok(domain.DetectionResult{Count: 3}))
	c.AfterAgent("detect", "t", tool.Ok(domain.DetectionResult{Count: 1}))
	c.AfterAgent("analyst", "t", tool.Ok(domain.AnalysisResult{Severity: domain.SeverityHigh}))
	c.AfterAgent("analyst", "t", tool.Ok(domain.AnalysisResult{Severity: domain.SeverityMedium}))
	c.AfterAgent("recommender", "t", tool.Ok(domain.RecommendationResult{
		ActionItems: []domain.ActionItem{{ID: "ACT-001"}, {ID: "ACT-002"}},
	}))

	snap := c.MetricsSummary()
	assert.Equal(t, 1, snap.AnomaliesFound, "anomaly count is a run-level fact, not accumulated")
	assert.Equal(t, 2, snap.RecommendationsGenerated)
	// Severity only ratchets upward.
	assert.Equal(t, domain.SeverityHigh, snap.MaxSeverity)
}

func TestCollectorOnErrorNilError(t *testing.T) {
	c := NewCollector(zap.NewNop())
	c.OnError(nil, "phase")

	snap := c.MetricsSummary()
	require.Len(t, snap.Errors, 1)
	assert.Empty(t, snap.Errors[0].Error)
}

func TestCollectorExportTraces(t *testing.T) {
	c := NewCollector(zap.NewNop())
	c.BeforeAgent("analyst", "trace-1")
	c.AfterAgent("analyst", "trace-1", tool.Ok(nil))

	path := filepath.Join(t.TempDir(), "out", "traces.json")
	require.Nil(t, c.ExportTraces(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var exported map[string]Trace
	require.NoError(t, json.Unmarshal(data, &exported))
	require.Contains(t, exported, "trace-1")
	assert.Len(t, exported["trace-1"].Spans, 2)

	// Export is an idempotent overwrite.
	c.BeforeAgent("recommender", "trace-1")
	require.Nil(t, c.ExportTraces(path))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &exported))
	assert.Len(t, exported["trace-1"].Spans, 3)
}

func TestCollectorExportMetrics(t *testing.T) {
	c := NewCollector(zap.NewNop())
	c.BeforeAgent("analyst", "trace-1")
	c.AfterAgent("analyst", "trace-1", tool.Ok(domain.DetectionResult{Count: 2}))

	path := filepath.Join(t.TempDir(), "metrics.json")
	require.Nil(t, c.ExportMetrics(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var snap Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, 1, snap.TotalAgentCalls)
	assert.Equal(t, 2, snap.AnomaliesFound)
}
