// Package authority resolves facts through a strict priority ladder of
// sources and manages operator overrides.
//
// Every fact the assistant grounds a reply on is resolved through four
// authority levels, highest priority first:
//
//	1. manual override   — operator-entered correction
//	2. panel setting     — site-operator configuration
//	3. live data         — current storefront state
//	4. general knowledge — static fallback knowledge
//
// The first level with a value wins. A level that errors is treated as
// absent so a downstream outage never blocks resolution; only when every
// level errors is the failure surfaced to the caller.
package authority

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/homatabesh/homa-core/internal/store"
	"github.com/homatabesh/homa-core/pkg/models"
)

// FactSource is one authority level. Lookup returns the value for a key,
// whether the level has a value at all, and any lookup error. The fact
// context is forwarded opaquely; sources may use it to disambiguate which
// record to query.
type FactSource interface {
	Name() string
	Lookup(ctx context.Context, key string, fctx map[string]any) (value any, ok bool, err error)
}

// ErrFactNotFound is returned when no authority level has a value for a key.
var ErrFactNotFound = errors.New("fact not found at any authority level")

// DegradedError is returned when every authority level failed with an
// error, so "no data" cannot be distinguished from a healthy miss.
type DegradedError struct {
	Errs []error
}

func (e *DegradedError) Error() string {
	msgs := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		msgs = append(msgs, err.Error())
	}
	return "all authority levels failed: " + strings.Join(msgs, "; ")
}

func (e *DegradedError) Unwrap() []error { return e.Errs }

// Resolver walks the authority ladder and manages manual overrides.
type Resolver struct {
	overrides store.OverrideStore
	sources   []FactSource
}

// NewResolver builds a resolver over the override store and the three
// read-only sources. Nil sources are skipped, which keeps the ladder
// configurable per deployment.
func NewResolver(overrides store.OverrideStore, panel, live, knowledge FactSource) *Resolver {
	sources := []FactSource{&overrideSource{store: overrides}}
	for _, src := range []FactSource{panel, live, knowledge} {
		if src != nil {
			sources = append(sources, src)
		}
	}
	return &Resolver{overrides: overrides, sources: sources}
}

// GetFinalFact returns the single winning value for a fact key, checking
// levels in priority order and short-circuiting on the first hit. The
// resolver holds no cache: overrides take effect on the very next call.
func (r *Resolver) GetFinalFact(ctx context.Context, key string, fctx map[string]any) (any, error) {
	var errs []error
	misses := 0

	for _, src := range r.sources {
		value, ok, err := src.Lookup(ctx, key, fctx)
		if err != nil {
			log.Warn().
				Str("source", src.Name()).
				Str("key", key).
				Err(err).
				Msg("Fact source failed, continuing down the ladder")
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}
		if ok {
			log.Debug().Str("source", src.Name()).Str("key", key).Msg("Fact resolved")
			return value, nil
		}
		misses++
	}

	if misses == 0 && len(errs) > 0 {
		return nil, &DegradedError{Errs: errs}
	}
	return nil, ErrFactNotFound
}

// SetManualOverride records an operator correction for a fact key. Any
// existing override for the key is replaced; reason and actor are kept for
// the audit trail.
func (r *Resolver) SetManualOverride(ctx context.Context, key string, value any, reason, actorID string) error {
	if key == "" {
		return errors.New("override key must not be empty")
	}

	rec := &models.OverrideRecord{
		Key:       key,
		Value:     value,
		Reason:    reason,
		ActorID:   actorID,
		Active:    true,
		UpdatedAt: time.Now().UTC(),
	}
	if err := r.overrides.PutOverride(ctx, rec); err != nil {
		return fmt.Errorf("store manual override: %w", err)
	}

	log.Info().
		Str("key", key).
		Str("actor", actorID).
		Str("reason", reason).
		Msg("Manual override set")
	return nil
}

// RemoveManualOverride deletes the override for a key. Removing a key that
// has no override is a no-op; resolution falls through to the next level
// on the following GetFinalFact call.
func (r *Resolver) RemoveManualOverride(ctx context.Context, key string) error {
	if err := r.overrides.DeleteOverride(ctx, key); err != nil {
		var nf *store.ErrNotFound
		if errors.As(err, &nf) {
			return nil
		}
		return fmt.Errorf("remove manual override: %w", err)
	}

	log.Info().Str("key", key).Msg("Manual override removed")
	return nil
}

// ListOverrides returns override records, newest first. When activeOnly is
// set, records marked inactive are excluded.
func (r *Resolver) ListOverrides(ctx context.Context, activeOnly bool) ([]models.OverrideRecord, error) {
	return r.overrides.ListOverrides(ctx, activeOnly)
}

// overrideSource adapts the override store to the FactSource interface so
// the ladder stays a uniform ordered list.
type overrideSource struct {
	store store.OverrideStore
}

func (s *overrideSource) Name() string { return models.LevelManualOverride.String() }

func (s *overrideSource) Lookup(ctx context.Context, key string, _ map[string]any) (any, bool, error) {
	rec, err := s.store.GetOverride(ctx, key)
	if err != nil {
		var nf *store.ErrNotFound
		if errors.As(err, &nf) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if !rec.Active {
		return nil, false, nil
	}
	return rec.Value, true, nil
}
