package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "inheritx/pkg/domain"
	txcontext "inheritx/pkg/platform/tx"
)

// Schema creates the append-only audit_events table.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id          UUID PRIMARY KEY,
	registry_id UUID NOT NULL,
	category    TEXT NOT NULL,
	timestamp   TIMESTAMPTZ NOT NULL,
	actor       BYTEA NOT NULL,
	action      TEXT NOT NULL,
	subject     TEXT NOT NULL DEFAULT '',
	detail      TEXT NOT NULL DEFAULT '',
	request_id  TEXT NOT NULL DEFAULT '',
	seq         BIGSERIAL
);
CREATE INDEX IF NOT EXISTS audit_events_registry_idx ON audit_events (registry_id, seq);
`

// Migrate applies Schema. It is safe to run repeatedly.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply audit schema: %w", err)
	}
	return nil
}

// PostgresStore persists audit events in the audit_events table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// execer joins a transaction carried in ctx when there is one.
func (s *PostgresStore) execer(ctx context.Context) txcontext.Querier {
	return txcontext.QuerierFrom(ctx, s.db)
}

// Append is idempotent on event ID.
func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	event = normalize(event)
	query := `
		INSERT INTO audit_events (
			id, registry_id, category, timestamp, actor,
			action, subject, detail, request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		event.ID,
		uuid.UUID(event.RegistryID),
		string(event.Category),
		event.Timestamp,
		event.Actor.Bytes(),
		event.Action,
		event.Subject,
		event.Detail,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByRegistry returns events in append order.
func (s *PostgresStore) ListByRegistry(ctx context.Context, registryID id.RegistryID) ([]Event, error) {
	query := `
		SELECT id, category, timestamp, actor, action, subject, detail, request_id
		FROM audit_events
		WHERE registry_id = $1
		ORDER BY seq ASC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(registryID))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			event    Event
			category string
			actor    []byte
		)
		if err := rows.Scan(
			&event.ID,
			&category,
			&event.Timestamp,
			&actor,
			&event.Action,
			&event.Subject,
			&event.Detail,
			&event.RequestID,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.RegistryID = registryID
		event.Category = EventCategory(category)
		event.Actor = id.BytesToAddress(actor)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
