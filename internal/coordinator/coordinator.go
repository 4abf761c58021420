// Package coordinator drives the fixed analytics pipeline: a state
// machine that loads data, detects anomalies, runs the analysis agents
// in sequence, and assembles the final report. Each phase resolves its
// worker from the tool registry, records span boundaries in the
// observability collector, and writes its result into the shared
// context. A failed phase transitions the run to the terminal Failed
// state; no later phase executes.
package coordinator

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Codedkv/capstone-agents-mvp/internal/agent"
	"github.com/Codedkv/capstone-agents-mvp/internal/domain"
	"github.com/Codedkv/capstone-agents-mvp/internal/observability"
	apperrors "github.com/Codedkv/capstone-agents-mvp/internal/pkg/errors"
	"github.com/Codedkv/capstone-agents-mvp/internal/sharedctx"
	"github.com/Codedkv/capstone-agents-mvp/internal/tool"
)

// State is one step of the pipeline state machine.
type State string

const (
	StateInit            State = "Init"
	StateLoadData        State = "LoadData"
	StateDetectAnomalies State = "DetectAnomalies"
	StateAnalyze         State = "Analyze"
	StateRecommend       State = "Recommend"
	StateCritique        State = "Critique"
	StateSummarize       State = "Summarize"
	StateReport          State = "Report"
	StateDone            State = "Done"
	StateFailed          State = "Failed"
)

// Fan-out thresholds for the detection phase. Both methods run over the
// same series and their anomaly sets are unioned.
const (
	iqrFanoutThreshold    = 1.5
	zscoreFanoutThreshold = 2.0
)

// Options configures a Coordinator.
type Options struct {
	// ReportPath is where the HTML report is written. Empty disables the
	// file write; the report payload is still assembled and returned.
	ReportPath string
}

// Coordinator owns one run at a time. The registry, store, and collector
// are injected by the process entry point; the coordinator never reaches
// for shared globals.
type Coordinator struct {
	registry   *tool.Registry
	store      *sharedctx.Store
	collector  *observability.Collector
	log        *zap.Logger
	reportPath string

	state   State
	traceID string
}

// New builds a coordinator over an assembled registry. The registry must
// contain the detection, loading, and report tools plus the four agents.
func New(registry *tool.Registry, store *sharedctx.Store, collector *observability.Collector, log *zap.Logger, opts Options) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{
		registry:   registry,
		store:      store,
		collector:  collector,
		log:        log,
		reportPath: opts.ReportPath,
		state:      StateInit,
	}
}

// State returns the current pipeline state.
func (c *Coordinator) State() State { return c.state }

// TraceID returns the correlation id of the current (or last) run.
func (c *Coordinator) TraceID() string { return c.traceID }

// Run executes the full pipeline over the CSV file at path. A failed
// phase halts the run: the error names the phase and carries the
// captured failure, and no report is produced. A clean run with zero
// anomalies is a valid outcome that still reaches Report with the
// default issue and recommendation.
func (c *Coordinator) Run(ctx context.Context, path string) (domain.Report, *apperrors.AppError) {
	c.traceID = uuid.NewString()
	c.state = StateInit
	c.logAction(ctx, "start_analysis", map[string]any{"file": path, "trace_id": c.traceID}, "INFO")

	phases := []struct {
		state State
		run   func(ctx context.Context) tool.Result
	}{
		{StateLoadData, func(ctx context.Context) tool.Result { return c.loadData(ctx, path) }},
		{StateDetectAnomalies, c.detectAnomalies},
		{StateAnalyze, c.runAgent(agent.NameAnalyst)},
		{StateRecommend, c.runAgent(agent.NameRecommender)},
		{StateCritique, c.runAgent(agent.NameCritic)},
		{StateSummarize, c.runAgent(agent.NameSummarizer)},
	}

	for _, phase := range phases {
		if err := c.runPhase(ctx, phase.state, phase.run); err != nil {
			return domain.Report{}, err
		}
	}

	var report domain.Report
	err := c.runPhase(ctx, StateReport, func(ctx context.Context) tool.Result {
		res := c.buildReport(ctx)
		if res.OK {
			report = res.Value.(domain.Report)
		}
		return res
	})
	if err != nil {
		return domain.Report{}, err
	}

	c.state = StateDone
	snap := c.collector.MetricsSummary()
	c.logAction(ctx, "analysis_complete", map[string]any{
		"anomalies_found":           snap.AnomaliesFound,
		"recommendations_generated": snap.RecommendationsGenerated,
		"error_count":               snap.ErrorCount,
	}, "INFO")
	return report, nil
}

// runPhase applies the per-phase exit discipline: the before span, the
// execution, and the matching after span, which is emitted on the error
// path too. On failure the run transitions to Failed and the phase error
// propagates.
func (c *Coordinator) runPhase(ctx context.Context, state State, fn func(ctx context.Context) tool.Result) *apperrors.AppError {
	c.state = state
	name := phaseName(state)

	c.collector.BeforeAgent(name, c.traceID)
	res := fn(ctx)
	c.collector.AfterAgent(name, c.traceID, res)

	if !res.OK {
		err := res.Err
		if err == nil {
			err = apperrors.Internal("phase failed without a categorized error")
		}
		c.logAction(ctx, "error", map[string]any{"phase": name, "error": err.Error()}, "ERROR")
		c.collector.OnError(err, name)
		c.log.Error("pipeline phase failed",
			zap.String("phase", name),
			zap.String("trace_id", c.traceID),
			zap.Error(err),
		)
		c.state = StateFailed
		return err.WithDetail("phase", name)
	}

	c.log.Debug("pipeline phase complete",
		zap.String("phase", name),
		zap.String("trace_id", c.traceID),
		zap.Float64("elapsed_ms", res.ElapsedMS),
	)
	return nil
}

func (c *Coordinator) loadData(ctx context.Context, path string) tool.Result {
	loader, ok := c.registry.Get("load_csv_data")
	if !ok {
		return tool.Fail(apperrors.Internal("load_csv_data tool not registered"))
	}
	res := c.execTool(ctx, loader, tool.Args{"filepath": path, "validate": true})
	if res.OK {
		c.store.Set(sharedctx.KeyRawData, res.Value)
	}
	return res
}

// detectAnomalies fans out to both IQR and Z-score over the revenue
// series and unions the anomaly sets, keeping first-appearance input
// order. Agreement between the methods is not required; an empty union
// is a valid clean outcome.
func (c *Coordinator) detectAnomalies(ctx context.Context) tool.Result {
	detector, ok := c.registry.Get("detect_anomalies")
	if !ok {
		return tool.Fail(apperrors.Internal("detect_anomalies tool not registered"))
	}
	rows, ok := c.store.Get(sharedctx.KeyRawData, nil).([]domain.MetricRow)
	if !ok {
		return tool.Fail(apperrors.Data("raw data not available for detection"))
	}

	revenue := make([]float64, len(rows))
	for i, row := range rows {
		revenue[i] = row.Revenue
	}

	iqr := c.execTool(ctx, detector, tool.Args{
		"data": revenue, "method": string(domain.DetectionMethodIQR), "threshold": iqrFanoutThreshold,
	})
	if !iqr.OK {
		return iqr
	}
	zscore := c.execTool(ctx, detector, tool.Args{
		"data": revenue, "method": string(domain.DetectionMethodZScore), "threshold": zscoreFanoutThreshold,
	})
	if !zscore.OK {
		return zscore
	}

	flagged := make(map[float64]bool)
	for _, v := range iqr.Value.(domain.DetectionResult).Anomalies {
		flagged[v] = true
	}
	for _, v := range zscore.Value.(domain.DetectionResult).Anomalies {
		flagged[v] = true
	}

	union := make([]float64, 0, len(flagged))
	seen := make(map[float64]bool, len(flagged))
	for _, v := range revenue {
		if flagged[v] && !seen[v] {
			union = append(union, v)
			seen[v] = true
		}
	}

	result := domain.DetectionResult{
		Anomalies: union,
		Count:     len(union),
		Method:    domain.DetectionMethodUnion,
	}
	c.store.Set(sharedctx.KeyDetectedAnomalies, result)
	if len(union) == 0 {
		c.logAction(ctx, "no_anomalies_found", map[string]any{"message": "No anomalies detected"}, "INFO")
	}
	return tool.Ok(result)
}

// runAgent returns a phase function that resolves the named worker from
// the registry and executes it. Workers read their inputs from the
// shared context directly.
func (c *Coordinator) runAgent(name string) func(ctx context.Context) tool.Result {
	return func(ctx context.Context) tool.Result {
		worker, ok := c.registry.Get(name)
		if !ok {
			return tool.Fail(apperrors.Internal(fmt.Sprintf("%s agent not registered", name)))
		}
		return worker.Execute(ctx, nil)
	}
}

// buildReport assembles the final payload strictly from shared-context
// reads, then renders it through the report tool when one is registered.
// Empty issue or recommendation lists get the non-empty defaults so the
// report is never blank.
func (c *Coordinator) buildReport(ctx context.Context) tool.Result {
	analysis, _ := c.store.Get(sharedctx.KeyAnalysisResult, domain.AnalysisResult{}).(domain.AnalysisResult)
	recommendation, _ := c.store.Get(sharedctx.KeyRecommendationResult, domain.RecommendationResult{}).(domain.RecommendationResult)

	var issues []domain.Issue
	for _, p := range analysis.Patterns {
		for _, value := range p.Values {
			issues = append(issues, domain.Issue{
				Description: fmt.Sprintf("%s detected in %s: %v (%.1f%% deviation)",
					capitalize(string(p.Type)), p.Metric, value, p.Magnitude),
				Severity: strings.ToLower(string(p.Severity)),
			})
		}
	}
	if len(issues) == 0 {
		issues = []domain.Issue{{Description: domain.DefaultIssueDescription, Severity: "low"}}
	}

	var recommendations []string
	items := recommendation.ActionItems
	if len(items) > 5 {
		items = items[:5]
	}
	for _, item := range items {
		recommendations = append(recommendations,
			fmt.Sprintf("[Priority %d] %s: %s", item.Priority, item.Title, item.Description))
	}
	if len(recommendations) == 0 {
		recommendations = []string{domain.DefaultRecommendation}
	}

	report := domain.Report{
		Title:           "Business Analytics Report - Multi-Agent Analysis",
		Issues:          issues,
		Recommendations: recommendations,
	}

	if generator, ok := c.registry.Get("generate_report_html"); ok {
		res := c.execTool(ctx, generator, tool.Args{"report": report, "output_file": c.reportPath})
		if !res.OK {
			return res
		}
	}
	return tool.Ok(report)
}

// execTool runs a registry tool with the collector's tool hooks around it.
func (c *Coordinator) execTool(ctx context.Context, t tool.Tool, args tool.Args) tool.Result {
	c.collector.BeforeTool(t.Name(), args)
	res := t.Execute(ctx, args)
	c.collector.AfterTool(t.Name(), res)
	return res
}

func (c *Coordinator) logAction(ctx context.Context, action string, details map[string]any, level string) {
	logger, ok := c.registry.Get("log_agent_action")
	if !ok {
		return
	}
	logger.Execute(ctx, tool.Args{
		"agent_name": "coordinator",
		"action":     action,
		"details":    details,
		"level":      level,
	})
}

func phaseName(s State) string {
	switch s {
	case StateLoadData:
		return "load_data"
	case StateDetectAnomalies:
		return "detect_anomalies"
	case StateAnalyze:
		return agent.NameAnalyst
	case StateRecommend:
		return agent.NameRecommender
	case StateCritique:
		return agent.NameCritic
	case StateSummarize:
		return agent.NameSummarizer
	case StateReport:
		return "report"
	default:
		return strings.ToLower(string(s))
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
