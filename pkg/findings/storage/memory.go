package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"ledgerhawk-hq/ledgerhawk/pkg/findings"
)

// MemoryStore is an in-memory Store for tests and ephemeral runs.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*findings.Run
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]*findings.Run)}
}

// SaveRun implements Store.
func (s *MemoryStore) SaveRun(ctx context.Context, run *findings.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.ID]; exists {
		return &DuplicateError{ID: run.ID}
	}
	copied := *run
	s.runs[run.ID] = &copied
	return nil
}

// GetRun implements Store.
func (s *MemoryStore) GetRun(ctx context.Context, id string) (*findings.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	copied := *run
	return &copied, nil
}

// ListRuns implements Store.
func (s *MemoryStore) ListRuns(ctx context.Context, limit int) ([]*findings.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*findings.Run, 0, len(s.runs))
	for _, run := range s.runs {
		copied := *run
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].FinishedAt.After(out[j].FinishedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteOlderThan implements Store.
func (s *MemoryStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, run := range s.runs {
		if run.FinishedAt.Before(cutoff) {
			delete(s.runs, id)
			deleted++
		}
	}
	return deleted, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}
