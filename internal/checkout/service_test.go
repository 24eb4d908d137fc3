package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/orgofarm-labs/backend-orgofarm/internal/common"
	"github.com/orgofarm-labs/backend-orgofarm/internal/loyalty"
	"github.com/orgofarm-labs/backend-orgofarm/internal/payment"
	"github.com/orgofarm-labs/backend-orgofarm/internal/shipping"
	"github.com/orgofarm-labs/backend-orgofarm/internal/store"
)

type stubCheckoutStore struct {
	cart         store.Cart
	cartErr      error
	items        []store.CartItem
	variants     map[pgtype.UUID]store.VariantDetail
	createdOrder *store.Order
	orderItems   []store.OrderItem
	cleared      bool
	decremented  map[pgtype.UUID]int32
	decrementErr error
}

func (s *stubCheckoutStore) GetCartByID(ctx context.Context, id pgtype.UUID) (store.Cart, error) {
	return s.cart, s.cartErr
}

func (s *stubCheckoutStore) ListCartItems(ctx context.Context, cartID pgtype.UUID) ([]store.CartItem, error) {
	return s.items, nil
}

func (s *stubCheckoutStore) ClearCart(ctx context.Context, cartID pgtype.UUID) error {
	s.cleared = true
	return nil
}

func (s *stubCheckoutStore) CreateOrder(ctx context.Context, o store.Order) (store.Order, error) {
	o.ID = testUUID(0xAA)
	s.createdOrder = &o
	return o, nil
}

func (s *stubCheckoutStore) CreateOrderItem(ctx context.Context, it store.OrderItem) error {
	s.orderItems = append(s.orderItems, it)
	return nil
}

func (s *stubCheckoutStore) DecrementStock(ctx context.Context, variantID pgtype.UUID, qty int32) (int32, error) {
	if s.decrementErr != nil {
		return 0, s.decrementErr
	}
	if s.decremented == nil {
		s.decremented = map[pgtype.UUID]int32{}
	}
	s.decremented[variantID] += qty
	return 10, nil
}

func (s *stubCheckoutStore) GetVariantDetail(ctx context.Context, id pgtype.UUID) (store.VariantDetail, error) {
	v, ok := s.variants[id]
	if !ok {
		return store.VariantDetail{}, store.ErrNotFound
	}
	return v, nil
}

type stubTx struct {
	q   *stubCheckoutStore
	err error
}

func (t stubTx) RunInTx(ctx context.Context, fn func(q checkoutStore) error) error {
	if t.err != nil {
		return t.err
	}
	return fn(t.q)
}

type stubLedger struct {
	balance   int64
	debited   int64
	credited  int64
	debitErr  error
	creditErr error
	entries   []store.LedgerEntry
}

func (s *stubLedger) GetLoyaltyBalance(ctx context.Context, userID pgtype.UUID) (int64, error) {
	return s.balance, nil
}

func (s *stubLedger) DebitPoints(ctx context.Context, userID pgtype.UUID, points int64) (int64, error) {
	if s.debitErr != nil {
		return 0, s.debitErr
	}
	s.debited += points
	return s.balance - s.debited, nil
}

func (s *stubLedger) CreditPoints(ctx context.Context, userID pgtype.UUID, points int64) (int64, error) {
	if s.creditErr != nil {
		return 0, s.creditErr
	}
	s.credited += points
	return s.balance + s.credited, nil
}

func (s *stubLedger) InsertLedgerEntry(ctx context.Context, e store.LedgerEntry) (store.LedgerEntry, error) {
	s.entries = append(s.entries, e)
	return e, nil
}

func (s *stubLedger) ListLedgerEntries(ctx context.Context, userID pgtype.UUID, limit, offset int) ([]store.LedgerEntry, error) {
	return s.entries, nil
}

func testUUID(b byte) pgtype.UUID {
	return pgtype.UUID{Bytes: [16]byte{b}, Valid: true}
}

func testEstimator() *shipping.Estimator {
	return &shipping.Estimator{
		Rates: shipping.Rates{
			OriginState:   "Tamil Nadu",
			OriginCity:    "Coimbatore",
			LocalMin:      30,
			LocalMax:      50,
			InterstateMin: 60,
			InterstateMax: 90,
		},
		Log: zerolog.Nop(),
	}
}

func testPolicy() loyalty.Policy {
	return loyalty.Policy{PointValue: 0.10, MinRedeemPoints: 50, MaxDiscountPct: 50, EarnPointsPer100: 2}
}

func newService(q *stubCheckoutStore, ledger *stubLedger) *Service {
	return &Service{
		Q:          q,
		Tx:         stubTx{q: q},
		Estimator:  testEstimator(),
		Loyalty:    &loyalty.Service{Q: ledger, Policy: testPolicy(), Log: zerolog.Nop()},
		Validate:   validator.New(),
		Log:        zerolog.Nop(),
		Currency:   "INR",
		GSTRatePct: 5,
	}
}

func groceryCart() *stubCheckoutStore {
	return &stubCheckoutStore{
		cart: store.Cart{ID: testUUID(0x01)},
		items: []store.CartItem{
			{VariantID: testUUID(0x10), Title: "Cold-Pressed Groundnut Oil", PackSize: "1kg", UnitPrice: 400, OriginalPrice: 400, Qty: 2},
			{VariantID: testUUID(0x11), Title: "Country Sugar", PackSize: "500g", UnitPrice: 200, OriginalPrice: 200, Qty: 1},
		},
	}
}

func onlineRequest() OnlineRequest {
	return OnlineRequest{
		CartID:        store.UUIDString(testUUID(0x01)),
		PaymentMethod: "upi",
		Address: Address{
			ReceiverName: "Meena",
			Phone:        "9876500000",
			State:        "Tamil Nadu",
			City:         "Chennai",
			AddressLine:  "12 Gandhi Road",
		},
	}
}

func TestOnlineCheckoutTotals(t *testing.T) {
	q := groceryCart()
	svc := newService(q, &stubLedger{})

	res, err := svc.Online(context.Background(), testUUID(0x02), onlineRequest())
	require.NoError(t, err)

	// 1000 subtotal, 5% GST, 2.5 kg billed as 3 kg at the 40/kg local average.
	require.InDelta(t, 1000.0, res.Summary.Subtotal, 1e-9)
	require.InDelta(t, 50.0, res.Summary.Tax, 1e-9)
	require.InDelta(t, 120.0, res.Summary.Shipping, 1e-9)
	require.Equal(t, int64(1170), res.Summary.Total)

	require.NotNil(t, q.createdOrder)
	require.Equal(t, store.OrderStatusPendingPayment, q.createdOrder.Status)
	require.Equal(t, store.OrderTypeOnline, q.createdOrder.Type)
	require.Len(t, q.orderItems, 2)
	require.True(t, q.cleared)
	require.Equal(t, int32(2), q.decremented[testUUID(0x10)])
}

func TestOnlineCheckoutInterstateShipping(t *testing.T) {
	q := groceryCart()
	svc := newService(q, &stubLedger{})
	req := onlineRequest()
	req.Address.State = "Kerala"
	req.Address.City = "Kochi"

	res, err := svc.Online(context.Background(), testUUID(0x02), req)
	require.NoError(t, err)
	require.InDelta(t, 225.0, res.Summary.Shipping, 1e-9) // 75/kg avg on 3 kg
	require.Equal(t, int64(1275), res.Summary.Total)
}

func TestOnlineCheckoutRedeemsPoints(t *testing.T) {
	q := groceryCart()
	ledger := &stubLedger{balance: 500}
	svc := newService(q, ledger)
	req := onlineRequest()
	req.RedeemPoints = 100

	res, err := svc.Online(context.Background(), testUUID(0x02), req)
	require.NoError(t, err)
	require.InDelta(t, 10.0, res.Summary.LoyaltyDiscount, 1e-9)
	require.Equal(t, int64(1160), res.Summary.Total)
	require.Equal(t, int64(100), res.Order.PointsRedeemed)
	require.Equal(t, int64(100), ledger.debited)
}

func TestOnlineCheckoutRedeemFailureIsNonFatal(t *testing.T) {
	q := groceryCart()
	ledger := &stubLedger{balance: 500, debitErr: errors.New("ledger offline")}
	svc := newService(q, ledger)
	req := onlineRequest()
	req.RedeemPoints = 100

	res, err := svc.Online(context.Background(), testUUID(0x02), req)
	require.NoError(t, err)
	require.Equal(t, int64(1160), res.Summary.Total)
	require.NotNil(t, q.createdOrder)
}

func TestOnlineCheckoutRejectsCash(t *testing.T) {
	svc := newService(groceryCart(), &stubLedger{})
	req := onlineRequest()
	req.PaymentMethod = "cash"

	_, err := svc.Online(context.Background(), testUUID(0x02), req)
	require.Error(t, err)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "VALIDATION", appErr.Code)
}

func TestOnlineCheckoutEmptyCart(t *testing.T) {
	q := groceryCart()
	q.items = nil
	svc := newService(q, &stubLedger{})

	_, err := svc.Online(context.Background(), testUUID(0x02), onlineRequest())
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestOnlineCheckoutOutOfStock(t *testing.T) {
	q := groceryCart()
	q.decrementErr = store.ErrNotFound
	svc := newService(q, &stubLedger{})

	_, err := svc.Online(context.Background(), testUUID(0x02), onlineRequest())
	require.ErrorIs(t, err, ErrOutOfStock)
}

func TestOnlineCheckoutInvalidRedeemRejected(t *testing.T) {
	q := groceryCart()
	svc := newService(q, &stubLedger{balance: 500})
	req := onlineRequest()
	req.RedeemPoints = 10 // under the 50-point minimum

	_, err := svc.Online(context.Background(), testUUID(0x02), req)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "VALIDATION", appErr.Code)
	require.Nil(t, q.createdOrder)
}

func counterStore() *stubCheckoutStore {
	return &stubCheckoutStore{
		variants: map[pgtype.UUID]store.VariantDetail{
			testUUID(0x20): {
				Variant: store.Variant{
					ID:            testUUID(0x20),
					ProductID:     testUUID(0x21),
					PackSize:      "500g",
					UnitPrice:     100,
					OriginalPrice: 100,
					Stock:         25,
				},
				ProductName: "Forest Honey",
			},
		},
	}
}

func counterRequest(method string) InStoreRequest {
	return InStoreRequest{
		Items:         []CounterLine{{VariantID: store.UUIDString(testUUID(0x20)), Qty: 2}},
		PaymentMethod: method,
	}
}

func TestInStoreCheckoutSettlesImmediately(t *testing.T) {
	q := counterStore()
	svc := newService(q, &stubLedger{})

	res, err := svc.InStore(context.Background(), counterRequest("cash"))
	require.NoError(t, err)

	// 200 subtotal, 10 GST, no shipping at the counter.
	require.Equal(t, int64(210), res.Summary.Total)
	require.InDelta(t, 0.0, res.Summary.Shipping, 1e-9)
	require.Equal(t, store.OrderStatusPaid, res.Order.Status)
	require.Equal(t, store.OrderTypeInStore, res.Order.Type)
	require.Equal(t, int32(2), q.decremented[testUUID(0x20)])
}

func TestInStoreSplitReconciles(t *testing.T) {
	q := counterStore()
	svc := newService(q, &stubLedger{})
	req := counterRequest("split")
	req.Split = &payment.Split{Cash: 110, Digital: 100}

	res, err := svc.InStore(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, int64(210), res.Summary.Total)
	require.True(t, res.Order.SplitCash.Valid)
	require.InDelta(t, 110.0, res.Order.SplitCash.Float64, 1e-9)
	require.InDelta(t, 100.0, res.Order.SplitDigital.Float64, 1e-9)
}

func TestInStoreSplitMismatchRejected(t *testing.T) {
	q := counterStore()
	svc := newService(q, &stubLedger{})
	req := counterRequest("split")
	req.Split = &payment.Split{Cash: 110, Digital: 90}

	_, err := svc.InStore(context.Background(), req)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "SPLIT_MISMATCH", appErr.Code)
	require.Equal(t, 422, appErr.HTTPStatus)
	require.Nil(t, q.createdOrder)
}

func TestInStoreSplitRequiresAmounts(t *testing.T) {
	svc := newService(counterStore(), &stubLedger{})
	req := counterRequest("split")
	req.Split = nil

	_, err := svc.InStore(context.Background(), req)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "VALIDATION", appErr.Code)
}

func TestInStoreAwardsPointsToKnownCustomer(t *testing.T) {
	q := counterStore()
	ledger := &stubLedger{}
	svc := newService(q, ledger)
	req := counterRequest("upi")
	req.CustomerID = store.UUIDString(testUUID(0x02))

	_, err := svc.InStore(context.Background(), req)
	require.NoError(t, err)
	// 210 rupees earns 2 points per full hundred.
	require.Equal(t, int64(4), ledger.credited)
}

func TestInStoreAnonymousSaleSkipsLoyalty(t *testing.T) {
	q := counterStore()
	ledger := &stubLedger{}
	svc := newService(q, ledger)

	_, err := svc.InStore(context.Background(), counterRequest("card"))
	require.NoError(t, err)
	require.Zero(t, ledger.credited)
	require.Zero(t, ledger.debited)
}

func TestAwardForOrderSwallowsFailure(t *testing.T) {
	ledger := &stubLedger{creditErr: errors.New("ledger offline")}
	svc := newService(counterStore(), ledger)

	svc.AwardForOrder(context.Background(), store.Order{
		ID:     testUUID(0xAB),
		UserID: testUUID(0x02),
		Total:  1170,
	})
	require.Zero(t, ledger.credited)
}
