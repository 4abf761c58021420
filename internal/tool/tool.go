// Package tool defines the uniform tool contract used by the coordinator and
// its workers: every tool is resolved from a Registry by name and returns a
// tagged Result, never an error value, for expected failure conditions.
package tool

import (
	"context"
	"time"

	apperrors "github.com/Codedkv/capstone-agents-mvp/internal/pkg/errors"
)

// Args carries named arguments into a tool invocation.
type Args map[string]any

// String returns a string argument, or def when absent or mistyped.
func (a Args) String(key, def string) string {
	if v, ok := a[key].(string); ok {
		return v
	}
	return def
}

// Bool returns a boolean argument, or def when absent or mistyped.
func (a Args) Bool(key string, def bool) bool {
	if v, ok := a[key].(bool); ok {
		return v
	}
	return def
}

// Int returns an integer argument, or def when absent or mistyped.
func (a Args) Int(key string, def int) int {
	switch v := a[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return def
}

// Float returns a float argument, or def when absent or mistyped.
func (a Args) Float(key string, def float64) float64 {
	switch v := a[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}

// Floats returns a numeric slice argument, or nil when absent or mistyped.
func (a Args) Floats(key string) []float64 {
	switch v := a[key].(type) {
	case []float64:
		return v
	case []any:
		out := make([]float64, 0, len(v))
		for _, item := range v {
			f, ok := item.(float64)
			if !ok {
				return nil
			}
			out = append(out, f)
		}
		return out
	}
	return nil
}

// Result is the uniform envelope returned by every tool and worker call.
// Expected failures (missing files, malformed input, quota exhaustion) map to
// OK=false with a categorized error; tools do not return Go errors for them.
type Result struct {
	OK        bool                `json:"ok"`
	Value     any                 `json:"value,omitempty"`
	Err       *apperrors.AppError `json:"error,omitempty"`
	ElapsedMS float64             `json:"elapsed_ms"`
}

// Ok builds a successful result carrying the given payload.
func Ok(value any) Result {
	return Result{OK: true, Value: value}
}

// Fail builds a failed result carrying a categorized error.
func Fail(err *apperrors.AppError) Result {
	return Result{OK: false, Err: err}
}

// Timed returns a copy of the result with the elapsed time stamped in.
func (r Result) Timed(start time.Time) Result {
	r.ElapsedMS = float64(time.Since(start).Microseconds()) / 1000.0
	return r
}

// Tool is a named callable registered into the Registry. Implementations
// must be safe to call multiple times within one run.
type Tool interface {
	Name() string
	Description() string
	Execute(ctx context.Context, args Args) Result
}
