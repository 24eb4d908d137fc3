package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/orgofarm-labs/backend-orgofarm/internal/store"
)

type stubCartStore struct {
	cart    store.Cart
	findErr error
	created bool
	items   []store.CartItem
	variant store.VariantDetail
}

func (s *stubCartStore) CreateCart(ctx context.Context, userID pgtype.UUID, anonID pgtype.Text, ttl time.Duration) (store.Cart, error) {
	s.created = true
	return s.cart, nil
}

func (s *stubCartStore) GetCartByID(ctx context.Context, id pgtype.UUID) (store.Cart, error) {
	return s.cart, nil
}

func (s *stubCartStore) FindActiveCart(ctx context.Context, userID pgtype.UUID, anonID pgtype.Text) (store.Cart, error) {
	return s.cart, s.findErr
}

func (s *stubCartStore) ListCartItems(ctx context.Context, cartID pgtype.UUID) ([]store.CartItem, error) {
	return s.items, nil
}

func (s *stubCartStore) UpsertCartItem(ctx context.Context, item store.CartItem) (store.CartItem, error) {
	s.items = append(s.items, item)
	return item, nil
}

func (s *stubCartStore) UpdateCartItemQty(ctx context.Context, itemID pgtype.UUID, qty int32) error {
	return nil
}

func (s *stubCartStore) DeleteCartItem(ctx context.Context, cartID, itemID pgtype.UUID) error {
	return nil
}

func (s *stubCartStore) ClearCart(ctx context.Context, cartID pgtype.UUID) error { return nil }

func (s *stubCartStore) AttachCartToUser(ctx context.Context, cartID, userID pgtype.UUID) error {
	return nil
}

func (s *stubCartStore) TouchCart(ctx context.Context, cartID pgtype.UUID) error { return nil }

func (s *stubCartStore) GetVariantDetail(ctx context.Context, id pgtype.UUID) (store.VariantDetail, error) {
	return s.variant, nil
}

func newUUID() pgtype.UUID {
	return pgtype.UUID{Bytes: uuid.New(), Valid: true}
}

func TestResolveCreatesCartWhenMissing(t *testing.T) {
	q := &stubCartStore{findErr: store.ErrNotFound}
	svc := &Service{Q: q, TTL: time.Hour}
	_, err := svc.Resolve(context.Background(), newUUID(), pgtype.Text{})
	require.NoError(t, err)
	require.True(t, q.created)
}

func TestAddItemChecksStock(t *testing.T) {
	q := &stubCartStore{
		variant: store.VariantDetail{
			Variant: store.Variant{Stock: 2, UnitPrice: 80, OriginalPrice: 100, PackSize: "500g"},
		},
	}
	svc := &Service{Q: q}
	_, err := svc.AddItem(context.Background(), newUUID(), newUUID(), 5)
	require.ErrorIs(t, err, ErrOutOfStock)

	item, err := svc.AddItem(context.Background(), newUUID(), newUUID(), 2)
	require.NoError(t, err)
	require.Equal(t, 80.0, item.UnitPrice)
}

func TestAddItemRejectsNonPositiveQty(t *testing.T) {
	svc := &Service{Q: &stubCartStore{}}
	_, err := svc.AddItem(context.Background(), newUUID(), newUUID(), 0)
	require.Error(t, err)
}

func TestLinesCarriesQuantities(t *testing.T) {
	lines := Lines([]store.CartItem{
		{Qty: 3, UnitPrice: 95, OriginalPrice: 110},
		{Qty: 1, UnitPrice: 440, OriginalPrice: 520},
	})
	require.Len(t, lines, 2)
	require.Equal(t, 3, lines[0].Qty)
	require.Equal(t, 1, lines[1].Qty)
	require.Equal(t, 95.0, lines[0].UnitPrice)
	require.Equal(t, 520.0, lines[1].OriginalPrice)
}

func TestGetComputesPreview(t *testing.T) {
	q := &stubCartStore{
		items: []store.CartItem{
			{Qty: 2, UnitPrice: 400, OriginalPrice: 450},
			{Qty: 1, UnitPrice: 200, OriginalPrice: 200},
		},
	}
	svc := &Service{Q: q, GSTRatePct: 5}
	view, err := svc.Get(context.Background(), newUUID())
	require.NoError(t, err)
	require.Equal(t, 1000.0, view.Subtotal)
	require.Equal(t, 100.0, view.Savings)
	require.Equal(t, 50.0, view.TaxEst)
}
