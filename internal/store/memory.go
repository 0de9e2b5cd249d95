package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/homatabesh/homa-core/pkg/models"
)

// MemoryStore is a mutex-guarded in-memory Store. It is the default when no
// DATABASE_URL is configured and the backend used by package tests.
type MemoryStore struct {
	mu        sync.RWMutex
	overrides map[string]models.OverrideRecord
	actionLog []models.ActionLogEntry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		overrides: make(map[string]models.OverrideRecord),
	}
}

// ── OverrideStore ───────────────────────────────────────────

func (s *MemoryStore) GetOverride(ctx context.Context, key string) (*models.OverrideRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.overrides[key]
	if !ok {
		return nil, &ErrNotFound{Entity: "override", Key: key}
	}
	out := rec
	return &out, nil
}

func (s *MemoryStore) PutOverride(ctx context.Context, rec *models.OverrideRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	stored := *rec
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	if prev, ok := s.overrides[rec.Key]; ok {
		stored.CreatedAt = prev.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	s.overrides[rec.Key] = stored
	*rec = stored
	return nil
}

func (s *MemoryStore) DeleteOverride(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.overrides, key)
	return nil
}

func (s *MemoryStore) ListOverrides(ctx context.Context, activeOnly bool) ([]models.OverrideRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.OverrideRecord, 0, len(s.overrides))
	for _, rec := range s.overrides {
		if activeOnly && !rec.Active {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// ── ActionLogStore ──────────────────────────────────────────

func (s *MemoryStore) AppendActionLog(ctx context.Context, entry *models.ActionLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *entry
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	s.actionLog = append(s.actionLog, stored)
	*entry = stored
	return nil
}

func (s *MemoryStore) ListActionLog(ctx context.Context, limit int) ([]models.ActionLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.actionLog) {
		limit = len(s.actionLog)
	}
	out := make([]models.ActionLogEntry, 0, limit)
	for i := len(s.actionLog) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.actionLog[i])
	}
	return out, nil
}

func (s *MemoryStore) PruneActionLog(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.actionLog[:0]
	pruned := 0
	for _, entry := range s.actionLog {
		if entry.CreatedAt.Before(cutoff) {
			pruned++
			continue
		}
		kept = append(kept, entry)
	}
	s.actionLog = kept
	return pruned, nil
}

// ── Lifecycle ───────────────────────────────────────────────

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
