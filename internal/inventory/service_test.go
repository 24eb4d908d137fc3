package inventory

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/orgofarm-labs/backend-orgofarm/internal/store"
)

type stubStockStore struct {
	detail   store.VariantDetail
	stock    int32
	adjusted []int32
}

func (s *stubStockStore) GetVariantDetail(ctx context.Context, id pgtype.UUID) (store.VariantDetail, error) {
	s.detail.Stock = s.stock
	return s.detail, nil
}

func (s *stubStockStore) AdjustStock(ctx context.Context, variantID pgtype.UUID, delta int32) (int32, error) {
	s.adjusted = append(s.adjusted, delta)
	s.stock += delta
	if s.stock < 0 {
		s.stock = 0
	}
	return s.stock, nil
}

func (s *stubStockStore) ListLowStockVariants(ctx context.Context, threshold int32) ([]store.VariantDetail, error) {
	if s.stock <= threshold {
		return []store.VariantDetail{s.detail}, nil
	}
	return nil, nil
}

type captureAlerts struct {
	raised []string
}

func (c *captureAlerts) EnqueueLowStockAlert(ctx context.Context, variantID, name string, stock int32) error {
	c.raised = append(c.raised, variantID)
	return nil
}

func testVariant() store.VariantDetail {
	return store.VariantDetail{
		Variant: store.Variant{
			ID:       pgtype.UUID{Bytes: [16]byte{0x30}, Valid: true},
			PackSize: "500g",
		},
		ProductName: "Forest Honey",
	}
}

func TestAdjustAppliesDelta(t *testing.T) {
	q := &stubStockStore{detail: testVariant(), stock: 20}
	svc := &Service{Q: q, LowThreshold: 5, Log: zerolog.Nop()}

	adj, err := svc.Adjust(context.Background(), q.detail.ID, -8)
	require.NoError(t, err)
	require.Equal(t, int32(12), adj.Stock)
	require.False(t, adj.Low)
}

func TestAdjustRejectsZeroDelta(t *testing.T) {
	svc := &Service{Q: &stubStockStore{detail: testVariant(), stock: 20}, Log: zerolog.Nop()}
	_, err := svc.Adjust(context.Background(), testVariant().ID, 0)
	require.ErrorIs(t, err, ErrZeroDelta)
}

func TestAdjustRaisesLowStockAlertOnCrossing(t *testing.T) {
	q := &stubStockStore{detail: testVariant(), stock: 8}
	alerts := &captureAlerts{}
	svc := &Service{Q: q, LowThreshold: 5, Alerts: alerts, Log: zerolog.Nop()}

	adj, err := svc.Adjust(context.Background(), q.detail.ID, -5)
	require.NoError(t, err)
	require.Equal(t, int32(3), adj.Stock)
	require.True(t, adj.Low)
	require.Len(t, alerts.raised, 1)
}

func TestAdjustDoesNotRepeatAlertBelowThreshold(t *testing.T) {
	q := &stubStockStore{detail: testVariant(), stock: 3}
	alerts := &captureAlerts{}
	svc := &Service{Q: q, LowThreshold: 5, Alerts: alerts, Log: zerolog.Nop()}

	_, err := svc.Adjust(context.Background(), q.detail.ID, -1)
	require.NoError(t, err)
	require.Empty(t, alerts.raised)
}

func TestLowStockListing(t *testing.T) {
	q := &stubStockStore{detail: testVariant(), stock: 2}
	svc := &Service{Q: q, LowThreshold: 5, Log: zerolog.Nop()}

	out, err := svc.LowStock(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
}
