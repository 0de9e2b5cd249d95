package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/homatabesh/homa-core/internal/store"
	"github.com/homatabesh/homa-core/pkg/models"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s := store.NewMemoryStore()
	t.Cleanup(func() { s.Close() })
	return s
}

// ─── Overrides ───────────────────────────────────────────────

func TestPutAndGetOverride(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := &models.OverrideRecord{
		Key:     "store_hours",
		Value:   "9-17",
		Reason:  "holiday schedule",
		ActorID: "op-1",
		Active:  true,
	}
	if err := s.PutOverride(ctx, rec); err != nil {
		t.Fatalf("PutOverride() error = %v", err)
	}
	if rec.ID == "" {
		t.Error("PutOverride() did not assign an ID")
	}

	got, err := s.GetOverride(ctx, "store_hours")
	if err != nil {
		t.Fatalf("GetOverride() error = %v", err)
	}
	if got.Value != "9-17" {
		t.Errorf("GetOverride().Value = %v, want %q", got.Value, "9-17")
	}
	if got.Reason != "holiday schedule" {
		t.Errorf("GetOverride().Reason = %q, want %q", got.Reason, "holiday schedule")
	}
}

func TestGetOverride_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetOverride(context.Background(), "missing")
	if err == nil {
		t.Fatal("GetOverride() expected error for missing key")
	}
	var nf *store.ErrNotFound
	if !errors.As(err, &nf) {
		t.Errorf("GetOverride() error = %v, want *store.ErrNotFound", err)
	}
}

func TestPutOverride_UpsertPreservesCreatedAt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := &models.OverrideRecord{Key: "price", Value: 100, Active: true}
	if err := s.PutOverride(ctx, first); err != nil {
		t.Fatalf("PutOverride() first call error = %v", err)
	}

	second := &models.OverrideRecord{Key: "price", Value: 120, Active: true}
	if err := s.PutOverride(ctx, second); err != nil {
		t.Fatalf("PutOverride() second call error = %v", err)
	}

	got, err := s.GetOverride(ctx, "price")
	if err != nil {
		t.Fatalf("GetOverride() error = %v", err)
	}
	if got.Value != 120 {
		t.Errorf("GetOverride().Value = %v, want 120", got.Value)
	}
	if !got.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("upsert changed CreatedAt: got %v, want %v", got.CreatedAt, first.CreatedAt)
	}
	if !got.UpdatedAt.After(got.CreatedAt) && !got.UpdatedAt.Equal(got.CreatedAt) {
		t.Errorf("UpdatedAt %v is before CreatedAt %v", got.UpdatedAt, got.CreatedAt)
	}
}

func TestDeleteOverride_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := &models.OverrideRecord{Key: "color", Value: "red", Active: true}
	if err := s.PutOverride(ctx, rec); err != nil {
		t.Fatalf("PutOverride() error = %v", err)
	}

	if err := s.DeleteOverride(ctx, "color"); err != nil {
		t.Fatalf("DeleteOverride() error = %v", err)
	}
	if err := s.DeleteOverride(ctx, "color"); err != nil {
		t.Errorf("DeleteOverride() second call error = %v, want nil", err)
	}

	if _, err := s.GetOverride(ctx, "color"); err == nil {
		t.Error("GetOverride() after delete expected error")
	}
}

func TestListOverrides_ActiveFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	records := []*models.OverrideRecord{
		{Key: "a", Value: 1, Active: true},
		{Key: "b", Value: 2, Active: false},
		{Key: "c", Value: 3, Active: true},
	}
	for _, rec := range records {
		if err := s.PutOverride(ctx, rec); err != nil {
			t.Fatalf("PutOverride(%s) error = %v", rec.Key, err)
		}
	}

	all, err := s.ListOverrides(ctx, false)
	if err != nil {
		t.Fatalf("ListOverrides(false) error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("ListOverrides(false) returned %d records, want 3", len(all))
	}

	active, err := s.ListOverrides(ctx, true)
	if err != nil {
		t.Fatalf("ListOverrides(true) error = %v", err)
	}
	if len(active) != 2 {
		t.Errorf("ListOverrides(true) returned %d records, want 2", len(active))
	}
	for _, rec := range active {
		if !rec.Active {
			t.Errorf("ListOverrides(true) returned inactive record %q", rec.Key)
		}
	}
}

// ─── Action log ──────────────────────────────────────────────

func TestAppendAndListActionLog(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, runID := range []string{"run-1", "run-2", "run-3"} {
		entry := &models.ActionLogEntry{RunID: runID, Success: true}
		if err := s.AppendActionLog(ctx, entry); err != nil {
			t.Fatalf("AppendActionLog(%s) error = %v", runID, err)
		}
		if entry.ID == "" {
			t.Errorf("AppendActionLog(%s) did not assign an ID", runID)
		}
	}

	entries, err := s.ListActionLog(ctx, 2)
	if err != nil {
		t.Fatalf("ListActionLog() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("ListActionLog(2) returned %d entries, want 2", len(entries))
	}
	// Newest first.
	if entries[0].RunID != "run-3" || entries[1].RunID != "run-2" {
		t.Errorf("ListActionLog() order = [%s, %s], want [run-3, run-2]", entries[0].RunID, entries[1].RunID)
	}
}
