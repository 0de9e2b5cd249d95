// Package retention prunes old action-log entries on a fixed interval so
// the audit trail does not grow without bound. Every orchestration run
// writes one log row; a busy storefront produces thousands per day.
package retention

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/homatabesh/homa-core/internal/store"
)

// DefaultRetentionDays is how long action-log entries are kept when no
// explicit window is configured.
const DefaultRetentionDays = 30

// Janitor periodically deletes action-log entries older than the
// retention window.
type Janitor struct {
	store     store.ActionLogStore
	interval  time.Duration
	retention time.Duration
}

// NewJanitor creates a janitor that prunes entries older than
// retentionDays on the given interval.
func NewJanitor(s store.ActionLogStore, interval time.Duration, retentionDays int) *Janitor {
	if interval < time.Minute {
		interval = time.Hour
	}
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return &Janitor{
		store:     s,
		interval:  interval,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
	}
}

// Start runs the janitor until ctx is canceled. One cycle runs
// immediately so a restart never postpones an overdue prune.
func (j *Janitor) Start(ctx context.Context) {
	log.Info().
		Dur("interval", j.interval).
		Dur("retention", j.retention).
		Msg("Retention janitor started")

	j.RunCycle(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Retention janitor stopped")
			return
		case <-ticker.C:
			j.RunCycle(ctx)
		}
	}
}

// RunCycle executes a single prune pass.
func (j *Janitor) RunCycle(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-j.retention)
	pruned, err := j.store.PruneActionLog(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("Action log prune failed")
		return
	}
	if pruned > 0 {
		log.Info().Int("pruned", pruned).Time("cutoff", cutoff).Msg("Action log pruned")
	}
}
