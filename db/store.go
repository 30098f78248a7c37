// Package db - Observation store
// Thin persistence collaborator for the benchmark engine. The core never
// touches storage; it consumes validated observations this package hands
// back. Schema layout is owned here, not by the engine.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"saas-benchmark/core/types"
	"saas-benchmark/internal/errors"
)

// ObservationStore persists and retrieves raw observations
type ObservationStore interface {
	// EnsureSchema creates the observations table if missing
	EnsureSchema(ctx context.Context) error

	// SaveBatch upserts a batch by observation id and returns the count written
	SaveBatch(ctx context.Context, batch []types.RawObservation) (int, error)

	// List returns observations for a metric, optionally filtered by bracket
	// and period-end window
	List(ctx context.Context, metricID string, revenueRange string, since, until *time.Time) ([]types.RawObservation, error)

	// Close releases the underlying connection pool
	Close() error
}

// PostgresStore is the Postgres-backed ObservationStore
type PostgresStore struct {
	db *sql.DB
}

// Open connects to Postgres with the given DSN
func Open(dsn string) (*PostgresStore, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Storage("failed to open database", err)
	}
	if err := conn.Ping(); err != nil {
		return nil, errors.Storage("failed to connect to database", err)
	}
	return &PostgresStore{db: conn}, nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS observations (
	row_id        UUID PRIMARY KEY,
	id            TEXT NOT NULL UNIQUE,
	metric_id     TEXT NOT NULL,
	source_id     TEXT NOT NULL,
	revenue_range TEXT NOT NULL,
	value         NUMERIC(19,4) NOT NULL,
	period_start  TIMESTAMPTZ NOT NULL,
	period_end    TIMESTAMPTZ NOT NULL,
	currency      TEXT NOT NULL DEFAULT 'USD',
	metadata      JSONB NOT NULL DEFAULT '{}',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_observations_metric_range
	ON observations (metric_id, revenue_range);
CREATE INDEX IF NOT EXISTS idx_observations_period_end
	ON observations (period_end);
`

// EnsureSchema creates the observations table if missing
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaDDL); err != nil {
		return errors.Storage("failed to ensure schema", err)
	}
	return nil
}

const upsertSQL = `
INSERT INTO observations
	(row_id, id, metric_id, source_id, revenue_range, value, period_start, period_end, currency, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO UPDATE SET
	metric_id     = EXCLUDED.metric_id,
	source_id     = EXCLUDED.source_id,
	revenue_range = EXCLUDED.revenue_range,
	value         = EXCLUDED.value,
	period_start  = EXCLUDED.period_start,
	period_end    = EXCLUDED.period_end,
	currency      = EXCLUDED.currency,
	metadata      = EXCLUDED.metadata
`

// SaveBatch upserts a batch by observation id. Last write wins, matching the
// processor's deduplication rule.
func (s *PostgresStore) SaveBatch(ctx context.Context, batch []types.RawObservation) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Storage("failed to begin transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		return 0, errors.Storage("failed to prepare upsert", err)
	}
	defer stmt.Close()

	written := 0
	for _, raw := range batch {
		metadata, err := json.Marshal(raw.Metadata)
		if err != nil {
			return 0, errors.Storage("failed to encode metadata", err)
		}
		currency := raw.Currency
		if currency == "" {
			currency = types.DefaultCurrency
		}
		if _, err := stmt.ExecContext(ctx,
			uuid.New(), raw.ID, raw.MetricID, raw.SourceID, raw.RevenueRange,
			raw.Value, raw.PeriodStart, raw.PeriodEnd, currency, metadata,
		); err != nil {
			return 0, errors.Storage("failed to upsert observation", err).WithContext("id", raw.ID)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Storage("failed to commit batch", err)
	}
	return written, nil
}

const listSQL = `
SELECT id, metric_id, source_id, revenue_range, value::text,
       period_start, period_end, currency, metadata
FROM observations
WHERE metric_id = $1
  AND ($2 = '' OR revenue_range = $2)
  AND ($3::timestamptz IS NULL OR period_end >= $3)
  AND ($4::timestamptz IS NULL OR period_end <= $4)
ORDER BY period_end
`

// List returns observations for a metric, optionally filtered by bracket
// and a period-end window.
func (s *PostgresStore) List(ctx context.Context, metricID string, revenueRange string, since, until *time.Time) ([]types.RawObservation, error) {
	rows, err := s.db.QueryContext(ctx, listSQL, metricID, revenueRange, since, until)
	if err != nil {
		return nil, errors.Storage("failed to query observations", err)
	}
	defer rows.Close()

	var out []types.RawObservation
	for rows.Next() {
		var raw types.RawObservation
		var metadata []byte
		if err := rows.Scan(
			&raw.ID, &raw.MetricID, &raw.SourceID, &raw.RevenueRange, &raw.Value,
			&raw.PeriodStart, &raw.PeriodEnd, &raw.Currency, &metadata,
		); err != nil {
			return nil, errors.Storage("failed to scan observation", err)
		}
		if len(metadata) > 0 {
			_ = json.Unmarshal(metadata, &raw.Metadata)
		}
		out = append(out, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Storage("failed reading observations", err)
	}
	return out, nil
}

// Close releases the underlying connection pool
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
