package journal

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/netgrid/activation/model"
)

// Schema is the DDL for the activation_events table. It is applied by the
// deployment's migration tooling, not by this process.
const Schema = `
CREATE TABLE IF NOT EXISTS activation_events (
    id             TEXT PRIMARY KEY,
    change_request TEXT NOT NULL,
    step           TEXT NOT NULL DEFAULT '',
    event          TEXT NOT NULL,
    failure_kind   TEXT NOT NULL DEFAULT '',
    detail         TEXT NOT NULL DEFAULT '',
    created_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS activation_events_cr_idx
    ON activation_events (change_request, created_at);
`

// PgStore is a PostgreSQL-backed Store using pgx/v5.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a new PostgreSQL journal store.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// Append adds an event to the audit trail.
func (s *PgStore) Append(ctx context.Context, event model.StepEvent) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO activation_events (
			id, change_request, step, event, failure_kind, detail, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.ID, event.ChangeRequest, event.Step, event.Event,
		string(event.FailureKind), event.Detail, event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert activation event: %w", err)
	}
	return nil
}

// List retrieves all events for a change request, ordered by timestamp.
func (s *PgStore) List(ctx context.Context, changeRequest string) ([]model.StepEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, change_request, step, event, failure_kind, detail, created_at
		FROM activation_events
		WHERE change_request = $1
		ORDER BY created_at`,
		changeRequest,
	)
	if err != nil {
		return nil, fmt.Errorf("query activation events: %w", err)
	}
	defer rows.Close()

	var events []model.StepEvent
	for rows.Next() {
		var evt model.StepEvent
		var kind string
		if err := rows.Scan(
			&evt.ID, &evt.ChangeRequest, &evt.Step, &evt.Event,
			&kind, &evt.Detail, &evt.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan activation event: %w", err)
		}
		evt.FailureKind = model.FailureKind(kind)
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activation events: %w", err)
	}
	return events, nil
}

// HealthCheck verifies database connectivity.
func (s *PgStore) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
