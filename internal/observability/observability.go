// Package observability records causally-ordered spans and aggregate
// metrics for every agent and tool invocation in a pipeline run,
// independent of business outcome. Traces are keyed by a run-scoped
// correlation id and are append-only for the lifetime of the run.
package observability

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Codedkv/capstone-agents-mvp/internal/domain"
	apperrors "github.com/Codedkv/capstone-agents-mvp/internal/pkg/errors"
	"github.com/Codedkv/capstone-agents-mvp/internal/tool"
)

// SpanKind marks whether a span records the start or end of an operation.
type SpanKind string

const (
	SpanStart SpanKind = "start"
	SpanEnd   SpanKind = "end"
)

// Span is a single boundary event within a trace.
type Span struct {
	Name      string    `json:"name"`
	Kind      SpanKind  `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

// Trace holds the ordered span sequence for one run.
type Trace struct {
	TraceID string    `json:"trace_id"`
	Start   time.Time `json:"start"`
	Spans   []Span    `json:"spans"`
}

// ErrorRecord is one entry in the collector's error list.
type ErrorRecord struct {
	Error     string    `json:"error"`
	Context   string    `json:"context"`
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot is the aggregate metrics view derived on demand from
// running counters. It is a point-in-time copy and is never
// retroactively corrected.
type Snapshot struct {
	TotalAgentCalls          int             `json:"total_agent_calls"`
	TotalToolCalls           int             `json:"total_tool_calls"`
	AgentCalls               map[string]int  `json:"agent_calls"`
	ToolCalls                map[string]int  `json:"tool_calls"`
	ErrorCount               int             `json:"error_count"`
	Errors                   []ErrorRecord   `json:"errors"`
	AvgLatencyMS             float64         `json:"avg_latency_ms"`
	SuccessRate              float64         `json:"success_rate"`
	AnomaliesFound           int             `json:"anomalies_found"`
	RecommendationsGenerated int             `json:"recommendations_generated"`
	MaxSeverity              domain.Severity `json:"max_severity"`
}

// Collector accumulates traces and metrics for pipeline runs. All
// mutations go through a single mutex so span order within a trace is
// exactly append order even if callers overlap.
type Collector struct {
	mu sync.Mutex

	traces     map[string]*Trace
	agentCalls map[string]int
	toolCalls  map[string]int
	errors     []ErrorRecord
	latencies  []float64

	anomaliesFound  int
	recommendations int
	maxSeverity     domain.Severity

	log *zap.Logger
}

// NewCollector returns an empty collector. A nil logger disables the
// collector's own logging.
func NewCollector(log *zap.Logger) *Collector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Collector{
		traces:      make(map[string]*Trace),
		agentCalls:  make(map[string]int),
		toolCalls:   make(map[string]int),
		maxSeverity: domain.SeverityLow,
		log:         log,
	}
}

// BeforeAgent records the start of an agent invocation, creating the
// trace on first reference.
func (c *Collector) BeforeAgent(agent, traceID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	t := c.trace(traceID, now)
	t.Spans = append(t.Spans, Span{Name: agent, Kind: SpanStart, Timestamp: now})
	c.agentCalls[agent]++
	agentCallsTotal.WithLabelValues(agent).Inc()
}

// AfterAgent records the end of an agent invocation. The result's
// elapsed time becomes a latency sample, and any domain counters it
// carries are folded into the running metrics. Counters are run-level
// facts, so folding is last-value-wins rather than accumulation.
func (c *Collector) AfterAgent(agent, traceID string, result tool.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	t := c.trace(traceID, now)
	t.Spans = append(t.Spans, Span{Name: agent, Kind: SpanEnd, Timestamp: now})

	c.latencies = append(c.latencies, result.ElapsedMS)
	agentLatency.WithLabelValues(agent).Observe(result.ElapsedMS / 1000)

	switch v := result.Value.(type) {
	case domain.DetectionResult:
		c.anomaliesFound = v.Count
	case domain.AnalysisResult:
		c.maxSeverity = c.maxSeverity.Max(v.Severity)
	case domain.RecommendationResult:
		c.recommendations = len(v.ActionItems)
	}
}

// BeforeTool records a tool invocation. The arguments are accepted for
// symmetry with the agent hooks but are not retained.
func (c *Collector) BeforeTool(name string, _ tool.Args) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.toolCalls[name]++
	toolCallsTotal.WithLabelValues(name).Inc()
}

// AfterTool is an extension point for post-call processing. The default
// collector does nothing with the output.
func (c *Collector) AfterTool(name string, _ tool.Result) {}

// OnError appends an error record. It never fails; a nil error is
// recorded with an empty message so the count stays truthful.
func (c *Collector) OnError(err error, context string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := ""
	if err != nil {
		msg = err.Error()
	}
	c.errors = append(c.errors, ErrorRecord{Error: msg, Context: context, Timestamp: time.Now()})
	errorsTotal.Inc()
	c.log.Warn("pipeline error recorded",
		zap.String("context", context),
		zap.String("error", msg),
	)
}

// GetTrace returns a copy of the trace for traceID, and whether it
// exists. The copy's span slice is detached from the live trace.
func (c *Collector) GetTrace(traceID string) (Trace, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.traces[traceID]
	if !ok {
		return Trace{}, false
	}
	out := Trace{TraceID: t.TraceID, Start: t.Start, Spans: make([]Span, len(t.Spans))}
	copy(out.Spans, t.Spans)
	return out, true
}

// MetricsSummary derives the aggregate snapshot from the running
// counters.
func (c *Collector) MetricsSummary() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Collector) snapshotLocked() Snapshot {
	s := Snapshot{
		AgentCalls:               make(map[string]int, len(c.agentCalls)),
		ToolCalls:                make(map[string]int, len(c.toolCalls)),
		Errors:                   make([]ErrorRecord, len(c.errors)),
		ErrorCount:               len(c.errors),
		AnomaliesFound:           c.anomaliesFound,
		RecommendationsGenerated: c.recommendations,
		MaxSeverity:              c.maxSeverity,
	}
	for k, v := range c.agentCalls {
		s.AgentCalls[k] = v
		s.TotalAgentCalls += v
	}
	for k, v := range c.toolCalls {
		s.ToolCalls[k] = v
		s.TotalToolCalls += v
	}
	copy(s.Errors, c.errors)

	if len(c.latencies) > 0 {
		var sum float64
		for _, l := range c.latencies {
			sum += l
		}
		s.AvgLatencyMS = sum / float64(len(c.latencies))
	}
	total := s.TotalAgentCalls
	if total < 1 {
		total = 1
	}
	s.SuccessRate = 1 - float64(s.ErrorCount)/float64(total)
	return s
}

// ExportTraces writes all traces to path as a JSON object keyed by
// trace id. Repeated calls overwrite the file with the current state.
func (c *Collector) ExportTraces(path string) *apperrors.AppError {
	c.mu.Lock()
	out := make(map[string]Trace, len(c.traces))
	for id, t := range c.traces {
		cp := Trace{TraceID: t.TraceID, Start: t.Start, Spans: make([]Span, len(t.Spans))}
		copy(cp.Spans, t.Spans)
		out[id] = cp
	}
	c.mu.Unlock()

	return writeJSON(path, out)
}

// ExportMetrics writes the current metrics snapshot to path. Repeated
// calls overwrite the file with the current state.
func (c *Collector) ExportMetrics(path string) *apperrors.AppError {
	c.mu.Lock()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	return writeJSON(path, snap)
}

func (c *Collector) trace(traceID string, now time.Time) *Trace {
	t, ok := c.traces[traceID]
	if !ok {
		t = &Trace{TraceID: traceID, Start: now}
		c.traces[traceID] = t
	}
	return t
}

func writeJSON(path string, v any) *apperrors.AppError {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperrors.Internal("failed to create output directory").WithError(err)
		}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return apperrors.Internal("failed to serialize export").WithError(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperrors.Internal("failed to write export file").WithError(err)
	}
	return nil
}
