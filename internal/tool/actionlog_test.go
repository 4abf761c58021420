package tool

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func readActionLog(t *testing.T, path string) []ActionLogEntry {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var entries []ActionLogEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry ActionLogEntry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries = append(entries, entry)
	}
	require.NoError(t, scanner.Err())
	return entries
}

func TestActionLoggerAppendsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "actions.jsonl")
	logger := NewActionLogger(path, zap.NewNop())

	res := logger.Execute(context.Background(), Args{
		"agent_name": "analyst",
		"action":     "start_analysis",
		"details":    map[string]any{"anomaly_count": 2},
		"level":      "INFO",
	})
	require.True(t, res.OK)

	res = logger.Execute(context.Background(), Args{
		"agent_name": "coordinator",
		"action":     "error",
		"level":      "ERROR",
	})
	require.True(t, res.OK)

	entries := readActionLog(t, path)
	require.Len(t, entries, 2)
	assert.Equal(t, "analyst", entries[0].Agent)
	assert.Equal(t, "start_analysis", entries[0].Action)
	assert.Equal(t, "INFO", entries[0].Level)
	assert.Equal(t, "coordinator", entries[1].Agent)
	assert.Equal(t, "ERROR", entries[1].Level)
	assert.False(t, entries[0].Timestamp.IsZero())
}

func TestActionLoggerDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actions.jsonl")
	logger := NewActionLogger(path, zap.NewNop())

	res := logger.Execute(context.Background(), Args{"action": "ping"})
	require.True(t, res.OK)

	entries := readActionLog(t, path)
	require.Len(t, entries, 1)
	assert.Equal(t, "unknown", entries[0].Agent)
	assert.Equal(t, "INFO", entries[0].Level)
}

func TestActionLoggerConcurrentAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actions.jsonl")
	logger := NewActionLogger(path, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				res := logger.Execute(context.Background(), Args{
					"agent_name": "worker",
					"action":     "tick",
				})
				assert.True(t, res.OK)
			}
		}()
	}
	wg.Wait()

	// Every line parses: no interleaved writes.
	entries := readActionLog(t, path)
	assert.Len(t, entries, 200)
}
