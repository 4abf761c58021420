package tool

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/Codedkv/capstone-agents-mvp/internal/pkg/errors"
)

// ActionLogEntry is one line of the append-only action log.
type ActionLogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Agent     string    `json:"agent"`
	Action    string    `json:"action"`
	Details   any       `json:"details,omitempty"`
	Level     string    `json:"level"`
}

// ActionLogger appends agent actions to a newline-delimited JSON file and
// mirrors them to the structured logger.
type ActionLogger struct {
	path string
	log  *zap.Logger

	mu sync.Mutex
}

// NewActionLogger creates the action logging tool writing to path.
func NewActionLogger(path string, log *zap.Logger) *ActionLogger {
	return &ActionLogger{path: path, log: log}
}

func (l *ActionLogger) Name() string { return "log_agent_action" }

func (l *ActionLogger) Description() string {
	return "Log agent actions to an append-only JSONL file"
}

// Execute appends one entry built from the "agent_name", "action",
// "details" and "level" arguments.
func (l *ActionLogger) Execute(ctx context.Context, args Args) Result {
	start := time.Now()

	entry := ActionLogEntry{
		Timestamp: time.Now(),
		Agent:     args.String("agent_name", "unknown"),
		Action:    args.String("action", ""),
		Details:   args["details"],
		Level:     args.String("level", "INFO"),
	}

	if err := l.Append(entry); err != nil {
		return Fail(err).Timed(start)
	}
	return Ok(map[string]any{"logged": true, "log_file": l.path}).Timed(start)
}

// Append writes one entry to the log file, creating parent directories on
// first use. Safe for concurrent callers.
func (l *ActionLogger) Append(entry ActionLogEntry) *apperrors.AppError {
	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperrors.Internal("failed to create log directory").WithError(err)
		}
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return apperrors.Internal("failed to open action log").WithError(err)
	}
	defer f.Close()

	line, err := json.Marshal(entry)
	if err != nil {
		return apperrors.Internal("failed to encode action log entry").WithError(err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return apperrors.Internal("failed to write action log entry").WithError(err)
	}

	l.log.Debug("agent action",
		zap.String("agent", entry.Agent),
		zap.String("action", entry.Action),
		zap.String("level", entry.Level),
	)
	return nil
}
