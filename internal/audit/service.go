// Package audit records who did what in the back-office. Every mutating
// admin request leaves a row behind; the dashboard lists them.
package audit

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/orgofarm-labs/backend-orgofarm/internal/common"
	"github.com/orgofarm-labs/backend-orgofarm/internal/store"
)

type auditStore interface {
	InsertAuditLog(ctx context.Context, a store.AuditLog) error
	ListAuditLogs(ctx context.Context, entityType string, limit, offset int32) ([]store.AuditLog, error)
	CountAuditLogs(ctx context.Context, entityType string) (int64, error)
}

// Recorder appends audit entries. Recording never fails the request that
// triggered it.
type Recorder struct {
	Q   auditStore
	Log zerolog.Logger
}

// Record writes one audit row from the request context. Actor identity and
// role come from the auth middleware; detail is marshalled as JSON.
func (rec *Recorder) Record(r *http.Request, action, entityType, entityID string, detail any) {
	if rec == nil || rec.Q == nil {
		return
	}
	entry := store.AuditLog{
		Action:     action,
		EntityType: entityType,
		EntityID:   store.Text(entityID),
		IP:         store.Text(common.ClientIP(r)),
	}
	if uid, ok := common.UserID(r.Context()); ok {
		if id, err := store.ToUUID(uid); err == nil {
			entry.ActorID = id
		}
	}
	if role, ok := common.UserRole(r.Context()); ok {
		entry.ActorRole = store.Text(role)
	}
	if detail != nil {
		if payload, err := json.Marshal(detail); err == nil {
			entry.Detail = payload
		}
	}
	if err := rec.Q.InsertAuditLog(r.Context(), entry); err != nil {
		rec.Log.Warn().Err(err).Str("action", action).Msg("audit record failed")
	}
}

// List returns recent audit entries with the total for pagination.
func (rec *Recorder) List(ctx context.Context, entityType string, limit, offset int32) ([]store.AuditLog, int64, error) {
	logs, err := rec.Q.ListAuditLogs(ctx, entityType, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := rec.Q.CountAuditLogs(ctx, entityType)
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
