package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// AuditLog is a single back-office action record.
type AuditLog struct {
	ID         pgtype.UUID
	ActorID    pgtype.UUID
	ActorRole  pgtype.Text
	Action     string
	EntityType string
	EntityID   pgtype.Text
	Detail     []byte
	IP         pgtype.Text
	CreatedAt  pgtype.Timestamptz
}

// InsertAuditLog appends an audit record.
func (s *Store) InsertAuditLog(ctx context.Context, a AuditLog) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO audit_logs (actor_id, actor_role, action, entity_type, entity_id, detail, ip)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ActorID, a.ActorRole, a.Action, a.EntityType, a.EntityID, a.Detail, a.IP)
	return err
}

// ListAuditLogs returns recent audit records, optionally filtered by entity type.
func (s *Store) ListAuditLogs(ctx context.Context, entityType string, limit, offset int32) ([]AuditLog, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, actor_id, actor_role, action, entity_type, entity_id, detail, ip, created_at
		FROM audit_logs
		WHERE ($1 = '' OR entity_type = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, entityType, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AuditLog
	for rows.Next() {
		var a AuditLog
		if err := rows.Scan(&a.ID, &a.ActorID, &a.ActorRole, &a.Action, &a.EntityType, &a.EntityID, &a.Detail, &a.IP, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CountAuditLogs counts audit records for pagination.
func (s *Store) CountAuditLogs(ctx context.Context, entityType string) (int64, error) {
	var n int64
	err := s.db.QueryRow(ctx, `
		SELECT count(*) FROM audit_logs WHERE ($1 = '' OR entity_type = $1)`, entityType).Scan(&n)
	return n, err
}
