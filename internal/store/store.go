// Package store provides persistence for manual overrides and the action
// execution log. The in-memory implementation is the zero-config default;
// PostgreSQL backs production deployments.
package store

import (
	"context"
	"time"

	"github.com/homatabesh/homa-core/pkg/models"
)

// OverrideStore manages manual override records. It must give
// read-after-write consistency: an operator correction is visible to the
// very next resolution call.
type OverrideStore interface {
	// GetOverride returns the override for a key, or *ErrNotFound.
	GetOverride(ctx context.Context, key string) (*models.OverrideRecord, error)

	// PutOverride inserts or replaces the override for rec.Key.
	// On replace the original CreatedAt is preserved.
	PutOverride(ctx context.Context, rec *models.OverrideRecord) error

	// DeleteOverride removes the override for a key. Removing a key with
	// no override is not an error.
	DeleteOverride(ctx context.Context, key string) error

	// ListOverrides returns override records, most recently updated first.
	// When activeOnly is set, inactive records are excluded.
	ListOverrides(ctx context.Context, activeOnly bool) ([]models.OverrideRecord, error)
}

// ActionLogStore keeps the audit trail of orchestration runs.
type ActionLogStore interface {
	AppendActionLog(ctx context.Context, entry *models.ActionLogEntry) error

	// ListActionLog returns the most recent entries, newest first.
	ListActionLog(ctx context.Context, limit int) ([]models.ActionLogEntry, error)

	// PruneActionLog deletes entries created before cutoff and returns how
	// many were removed.
	PruneActionLog(ctx context.Context, cutoff time.Time) (int, error)
}

// Store is the combined storage interface the server wires up.
type Store interface {
	OverrideStore
	ActionLogStore

	// Ping checks if the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases all resources held by the store.
	Close() error
}

// ErrNotFound is returned when a requested entity does not exist.
type ErrNotFound struct {
	Entity string
	Key    string
}

func (e *ErrNotFound) Error() string {
	return e.Entity + " not found: " + e.Key
}
