// Package sharedctx provides the concurrency-safe key/value store used for
// cross-phase state exchange within one pipeline run. One Store belongs to
// exactly one coordinator run; phase ordering is the coordinator's job, the
// store only guarantees atomicity of individual operations.
package sharedctx

import (
	"fmt"
	"sync"
	"time"

	apperrors "github.com/Codedkv/capstone-agents-mvp/internal/pkg/errors"
)

// Phase result keys. The key set is closed: every phase writes exactly one
// of these and later phases read them back.
const (
	KeyRawData              = "raw_data"
	KeyDetectedAnomalies    = "detected_anomalies"
	KeyAnalysisResult       = "analysis_result"
	KeyRecommendationResult = "recommendation_result"
	KeyCritiqueResult       = "critique_result"
	KeyFinalSummary         = "final_summary"
)

// Snapshot is a point-in-time copy of the store contents with metadata.
type Snapshot struct {
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Store is a mutex-guarded map of phase results. All operations execute
// under a single lock; no operation is ever partially visible to another
// caller.
type Store struct {
	mu        sync.Mutex
	data      map[string]any
	order     []string
	createdAt time.Time
	updatedAt time.Time
}

// New creates an empty store for one run.
func New() *Store {
	now := time.Now()
	return &Store{
		data:      make(map[string]any),
		createdAt: now,
		updatedAt: now,
	}
}

// Set atomically replaces the value under key.
func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(key, value)
}

// Get atomically reads the value under key; a missing key yields def.
func (s *Store) Get(key string, def any) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.data[key]; ok {
		return v
	}
	return def
}

// Merge atomically merges partial into the mapping stored under key. A
// missing key starts from an empty mapping. Both the existing value and
// partial must be mappings; anything else fails with a context type error
// and leaves the stored value unchanged.
func (s *Store) Merge(key string, partial map[string]any) *apperrors.AppError {
	if partial == nil {
		return apperrors.ContextType(fmt.Sprintf("merge value for key %q must be a mapping", key))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.data[key]
	if !ok {
		existing = map[string]any{}
	}
	target, ok := existing.(map[string]any)
	if !ok {
		return apperrors.ContextType(fmt.Sprintf("key %q must contain a mapping for merge, found %T", key, existing))
	}

	merged := make(map[string]any, len(target)+len(partial))
	for k, v := range target {
		merged[k] = v
	}
	for k, v := range partial {
		merged[k] = v
	}
	s.put(key, merged)
	return nil
}

// Keys returns all keys in insertion order.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Snapshot returns a copy of the store contents with timestamps.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := make(map[string]any, len(s.data))
	for k, v := range s.data {
		data[k] = v
	}
	return Snapshot{Data: data, CreatedAt: s.createdAt, UpdatedAt: s.updatedAt}
}

// put records the value and advances updatedAt. Callers hold the lock.
// The monotonic clock reading inside time.Now keeps updatedAt strictly
// increasing across writes.
func (s *Store) put(key string, value any) {
	if _, exists := s.data[key]; !exists {
		s.order = append(s.order, key)
	}
	s.data[key] = value
	now := time.Now()
	if !now.After(s.updatedAt) {
		now = s.updatedAt.Add(time.Nanosecond)
	}
	s.updatedAt = now
}
