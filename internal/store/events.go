package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// DomainEvent is a persisted business event for the event bus.
type DomainEvent struct {
	ID        pgtype.UUID
	Topic     string
	EntityID  pgtype.Text
	Payload   []byte
	CreatedAt pgtype.Timestamptz
}

// InsertDomainEvent appends a domain event.
func (s *Store) InsertDomainEvent(ctx context.Context, topic string, entityID pgtype.Text, payload []byte) (DomainEvent, error) {
	var e DomainEvent
	err := s.db.QueryRow(ctx, `
		INSERT INTO domain_events (topic, entity_id, payload)
		VALUES ($1, $2, $3)
		RETURNING id, topic, entity_id, payload, created_at`,
		topic, entityID, payload).
		Scan(&e.ID, &e.Topic, &e.EntityID, &e.Payload, &e.CreatedAt)
	return e, err
}

// ListDomainEvents returns recent events for a topic prefix, newest first.
func (s *Store) ListDomainEvents(ctx context.Context, topicPrefix string, limit int32) ([]DomainEvent, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, topic, entity_id, payload, created_at
		FROM domain_events
		WHERE ($1 = '' OR topic LIKE $1 || '%')
		ORDER BY created_at DESC
		LIMIT $2`, topicPrefix, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DomainEvent
	for rows.Next() {
		var e DomainEvent
		if err := rows.Scan(&e.ID, &e.Topic, &e.EntityID, &e.Payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
