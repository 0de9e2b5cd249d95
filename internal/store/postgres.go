package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/homatabesh/homa-core/pkg/models"
)

// PostgresStore implements Store on top of PostgreSQL via pgx. Override
// values and step results are stored as JSONB so the value shape stays
// opaque to the schema.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to PostgreSQL and runs migrations.
func NewPostgresStore(ctx context.Context, connURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connURL)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres migrate: %w", err)
	}

	log.Info().Msg("postgres store initialized")
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	ddl := `
		CREATE TABLE IF NOT EXISTS homa_overrides (
			key        TEXT PRIMARY KEY,
			id         TEXT NOT NULL,
			value      JSONB NOT NULL,
			reason     TEXT NOT NULL DEFAULT '',
			actor_id   TEXT NOT NULL DEFAULT '',
			active     BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS homa_action_log (
			id                 TEXT PRIMARY KEY,
			run_id             TEXT NOT NULL,
			success            BOOLEAN NOT NULL,
			error              TEXT NOT NULL DEFAULT '',
			failed_step        TEXT NOT NULL DEFAULT '',
			rollback_performed BOOLEAN NOT NULL DEFAULT FALSE,
			steps              JSONB NOT NULL DEFAULT '[]',
			created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_homa_action_log_created ON homa_action_log (created_at DESC);
	`
	_, err := s.pool.Exec(ctx, ddl)
	return err
}

// ── OverrideStore ───────────────────────────────────────────

func (s *PostgresStore) GetOverride(ctx context.Context, key string) (*models.OverrideRecord, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, key, value, reason, actor_id, active, created_at, updated_at
		FROM homa_overrides WHERE key = $1`, key)

	var rec models.OverrideRecord
	var raw []byte
	err := row.Scan(&rec.ID, &rec.Key, &raw, &rec.Reason, &rec.ActorID, &rec.Active, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &ErrNotFound{Entity: "override", Key: key}
		}
		return nil, fmt.Errorf("get override: %w", err)
	}
	if err := json.Unmarshal(raw, &rec.Value); err != nil {
		return nil, fmt.Errorf("decode override value: %w", err)
	}
	return &rec, nil
}

func (s *PostgresStore) PutOverride(ctx context.Context, rec *models.OverrideRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	raw, err := json.Marshal(rec.Value)
	if err != nil {
		return fmt.Errorf("encode override value: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO homa_overrides (key, id, value, reason, actor_id, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (key) DO UPDATE SET
			value      = EXCLUDED.value,
			reason     = EXCLUDED.reason,
			actor_id   = EXCLUDED.actor_id,
			active     = EXCLUDED.active,
			updated_at = NOW()`,
		rec.Key, rec.ID, raw, rec.Reason, rec.ActorID, rec.Active)
	if err != nil {
		return fmt.Errorf("put override: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteOverride(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM homa_overrides WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("delete override: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListOverrides(ctx context.Context, activeOnly bool) ([]models.OverrideRecord, error) {
	query := `
		SELECT id, key, value, reason, actor_id, active, created_at, updated_at
		FROM homa_overrides`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	defer rows.Close()

	var out []models.OverrideRecord
	for rows.Next() {
		var rec models.OverrideRecord
		var raw []byte
		if err := rows.Scan(&rec.ID, &rec.Key, &raw, &rec.Reason, &rec.ActorID, &rec.Active, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan override: %w", err)
		}
		if err := json.Unmarshal(raw, &rec.Value); err != nil {
			return nil, fmt.Errorf("decode override value: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ── ActionLogStore ──────────────────────────────────────────

func (s *PostgresStore) AppendActionLog(ctx context.Context, entry *models.ActionLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	steps, err := json.Marshal(entry.Steps)
	if err != nil {
		return fmt.Errorf("encode step results: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO homa_action_log (id, run_id, success, error, failed_step, rollback_performed, steps, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`,
		entry.ID, entry.RunID, entry.Success, entry.Error, entry.FailedStep, entry.RollbackPerformed, steps)
	if err != nil {
		return fmt.Errorf("append action log: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListActionLog(ctx context.Context, limit int) ([]models.ActionLogEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, run_id, success, error, failed_step, rollback_performed, steps, created_at
		FROM homa_action_log ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list action log: %w", err)
	}
	defer rows.Close()

	var out []models.ActionLogEntry
	for rows.Next() {
		var entry models.ActionLogEntry
		var steps []byte
		if err := rows.Scan(&entry.ID, &entry.RunID, &entry.Success, &entry.Error, &entry.FailedStep, &entry.RollbackPerformed, &steps, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan action log: %w", err)
		}
		if err := json.Unmarshal(steps, &entry.Steps); err != nil {
			return nil, fmt.Errorf("decode step results: %w", err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (s *PostgresStore) PruneActionLog(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM homa_action_log WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune action log: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// ── Lifecycle ───────────────────────────────────────────────

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
