package audit

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/orgofarm-labs/backend-orgofarm/internal/common"
	"github.com/orgofarm-labs/backend-orgofarm/internal/store"
)

type stubAuditStore struct {
	inserted []store.AuditLog
}

func (s *stubAuditStore) InsertAuditLog(ctx context.Context, a store.AuditLog) error {
	s.inserted = append(s.inserted, a)
	return nil
}

func (s *stubAuditStore) ListAuditLogs(ctx context.Context, entityType string, limit, offset int32) ([]store.AuditLog, error) {
	return s.inserted, nil
}

func (s *stubAuditStore) CountAuditLogs(ctx context.Context, entityType string) (int64, error) {
	return int64(len(s.inserted)), nil
}

func TestRecordCapturesActorAndIP(t *testing.T) {
	q := &stubAuditStore{}
	rec := &Recorder{Q: q, Log: zerolog.Nop()}

	r := httptest.NewRequest("PATCH", "/admin/orders/abc/status", nil)
	r.Header.Set("X-Forwarded-For", "10.1.2.3")
	ctx := common.WithUserID(r.Context(), "00000000-0000-0000-0000-000000000002")
	ctx = common.WithUserRole(ctx, "admin")
	r = r.WithContext(ctx)

	rec.Record(r, "order.status_change", "order", "abc", map[string]string{"to": "PACKED"})

	require.Len(t, q.inserted, 1)
	entry := q.inserted[0]
	require.Equal(t, "order.status_change", entry.Action)
	require.Equal(t, "order", entry.EntityType)
	require.Equal(t, "abc", entry.EntityID.String)
	require.Equal(t, "admin", entry.ActorRole.String)
	require.Equal(t, "10.1.2.3", entry.IP.String)
	require.True(t, entry.ActorID.Valid)
	require.JSONEq(t, `{"to":"PACKED"}`, string(entry.Detail))
}

func TestRecordIsNilSafe(t *testing.T) {
	var rec *Recorder
	r := httptest.NewRequest("GET", "/", nil)
	rec.Record(r, "noop", "none", "", nil)
}
