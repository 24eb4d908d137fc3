// Package checkout turns carts and counter sales into priced, persisted
// orders: quote assembly, split settlement, stock reservation and the
// best-effort loyalty hooks that follow an order.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/orgofarm-labs/backend-orgofarm/internal/cart"
	"github.com/orgofarm-labs/backend-orgofarm/internal/common"
	"github.com/orgofarm-labs/backend-orgofarm/internal/events"
	"github.com/orgofarm-labs/backend-orgofarm/internal/loyalty"
	"github.com/orgofarm-labs/backend-orgofarm/internal/obs"
	"github.com/orgofarm-labs/backend-orgofarm/internal/payment"
	"github.com/orgofarm-labs/backend-orgofarm/internal/pricing"
	"github.com/orgofarm-labs/backend-orgofarm/internal/shipping"
	"github.com/orgofarm-labs/backend-orgofarm/internal/store"
)

var (
	// ErrEmptyCart is returned when checkout is attempted on an empty cart.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrOutOfStock is returned when a line cannot be reserved.
	ErrOutOfStock = errors.New("insufficient stock")
)

type checkoutStore interface {
	GetCartByID(ctx context.Context, id pgtype.UUID) (store.Cart, error)
	ListCartItems(ctx context.Context, cartID pgtype.UUID) ([]store.CartItem, error)
	ClearCart(ctx context.Context, cartID pgtype.UUID) error
	CreateOrder(ctx context.Context, o store.Order) (store.Order, error)
	CreateOrderItem(ctx context.Context, it store.OrderItem) error
	DecrementStock(ctx context.Context, variantID pgtype.UUID, qty int32) (int32, error)
	GetVariantDetail(ctx context.Context, id pgtype.UUID) (store.VariantDetail, error)
}

// TxRunner executes a function inside a database transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(q checkoutStore) error) error
}

// StoreTx adapts the pgx-backed store to TxRunner.
type StoreTx struct {
	S *store.Store
}

// RunInTx runs fn against a transactional store.
func (t StoreTx) RunInTx(ctx context.Context, fn func(q checkoutStore) error) error {
	return t.S.InTx(ctx, func(q *store.Store) error { return fn(q) })
}

// TaskEnqueuer schedules follow-up background work for placed orders.
type TaskEnqueuer interface {
	EnqueueLoyaltyAward(ctx context.Context, userID, orderID string, total int64) error
	EnqueueOrderConfirmation(ctx context.Context, orderID string) error
}

// Service orchestrates checkout for online orders and counter sales.
type Service struct {
	Q          checkoutStore
	Tx         TxRunner
	Estimator  *shipping.Estimator
	Loyalty    *loyalty.Service
	Payment    *payment.Service
	Events     *events.Bus
	Tasks      TaskEnqueuer
	Validate   *validator.Validate
	Log        zerolog.Logger
	Currency   string
	GSTRatePct float64
	AwardAsync bool
}

// Address is the delivery destination of an online order.
type Address struct {
	ReceiverName string `json:"receiverName" validate:"required"`
	Phone        string `json:"phone" validate:"required"`
	State        string `json:"state" validate:"required"`
	City         string `json:"city" validate:"required"`
	PostalCode   string `json:"postalCode"`
	AddressLine  string `json:"addressLine" validate:"required"`
}

// Contact is who to reach about the order.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email" validate:"omitempty,email"`
}

// OnlineRequest is a storefront checkout submission.
type OnlineRequest struct {
	CartID        string  `json:"cartId" validate:"required,uuid"`
	PaymentMethod string  `json:"paymentMethod" validate:"required"`
	RedeemPoints  int64   `json:"redeemPoints" validate:"gte=0"`
	Address       Address `json:"address" validate:"required"`
	Contact       Contact `json:"contact"`
	Notes         string  `json:"notes"`
}

// CounterLine is one scanned line of a counter sale.
type CounterLine struct {
	VariantID string `json:"variantId" validate:"required,uuid"`
	Qty       int32  `json:"qty" validate:"gt=0"`
}

// InStoreRequest is a back-office counter sale submission.
type InStoreRequest struct {
	CustomerID    string         `json:"customerId" validate:"omitempty,uuid"`
	Items         []CounterLine  `json:"items" validate:"required,min=1,dive"`
	PaymentMethod string         `json:"paymentMethod" validate:"required"`
	Split         *payment.Split `json:"split"`
	RedeemPoints  int64          `json:"redeemPoints" validate:"gte=0"`
	Notes         string         `json:"notes"`
}

// Result is a placed order with its pricing breakdown and, for card orders,
// the upstream checkout session.
type Result struct {
	Order   store.Order
	Summary pricing.Summary
	Session *payment.SessionResponse
}

// Online places an order from a cart for delivery.
func (s *Service) Online(ctx context.Context, userID pgtype.UUID, req OnlineRequest) (Result, error) {
	if err := s.Validate.Struct(req); err != nil {
		return Result{}, common.ValidationError("invalid checkout payload", validationDetails(err))
	}
	method, err := payment.ParseMethod(req.PaymentMethod)
	if err != nil {
		return Result{}, common.ValidationError(err.Error(), nil)
	}
	if !method.AllowedOnline() {
		return Result{}, common.ValidationError(
			fmt.Sprintf("payment method %s is not available for delivery orders", method), nil)
	}
	cartID, err := store.ToUUID(req.CartID)
	if err != nil {
		return Result{}, common.ValidationError("invalid cart id", nil)
	}
	c, err := s.Q.GetCartByID(ctx, cartID)
	if err != nil {
		return Result{}, err
	}
	items, err := s.Q.ListCartItems(ctx, cartID)
	if err != nil {
		return Result{}, err
	}
	if len(items) == 0 {
		return Result{}, ErrEmptyCart
	}

	quote, err := s.Estimator.Estimate(ctx, shipping.Destination{
		State: req.Address.State,
		City:  req.Address.City,
	}, shippingItems(items))
	if err != nil {
		if errors.Is(err, shipping.ErrDestinationIncomplete) {
			return Result{}, common.ValidationError(err.Error(), nil)
		}
		return Result{}, err
	}
	s.observeQuote(quote)

	lines := cart.Lines(items)
	subtotal, _ := pricing.Aggregate(lines)
	redemption, err := s.previewRedeem(ctx, userID, req.RedeemPoints, subtotal)
	if err != nil {
		return Result{}, err
	}

	summary := pricing.Compute(lines, s.GSTRatePct, quote.Cost, redemption.Discount)

	address, _ := json.Marshal(req.Address)
	contact, _ := json.Marshal(req.Contact)
	draft := store.Order{
		UserID:          userID,
		CartID:          c.ID,
		Type:            store.OrderTypeOnline,
		Status:          store.OrderStatusPendingPayment,
		PaymentMethod:   string(method),
		Currency:        s.Currency,
		Subtotal:        summary.Subtotal,
		Tax:             summary.Tax,
		Shipping:        summary.Shipping,
		LoyaltyDiscount: summary.LoyaltyDiscount,
		Rounding:        summary.Rounding,
		Total:           summary.Total,
		PointsRedeemed:  redemption.Points,
		ShippingAddress: address,
		ContactInfo:     contact,
		Notes:           store.Text(req.Notes),
	}

	placed, err := s.place(ctx, draft, orderLines(items), &cartID)
	if err != nil {
		s.observeCheckout(store.OrderTypeOnline, method, "failure")
		return Result{}, err
	}
	s.observeCheckout(store.OrderTypeOnline, method, "success")
	s.observeRounding(summary)

	s.redeemBestEffort(ctx, userID, placed.ID, redemption.Points)
	s.emitCreated(ctx, placed)
	s.enqueueConfirmation(ctx, placed)

	result := Result{Order: placed, Summary: summary}
	if method.RequiresProvider() && s.Payment != nil {
		if session, err := s.Payment.CreateSession(ctx, store.UUIDString(placed.ID)); err == nil {
			result.Session = &session
		} else {
			s.Log.Warn().Err(err).Str("order_id", store.UUIDString(placed.ID)).
				Msg("checkout session creation failed, client may retry")
		}
	}
	return result, nil
}

// InStore settles a counter sale immediately.
func (s *Service) InStore(ctx context.Context, req InStoreRequest) (Result, error) {
	if err := s.Validate.Struct(req); err != nil {
		return Result{}, common.ValidationError("invalid counter sale payload", validationDetails(err))
	}
	method, err := payment.ParseMethod(req.PaymentMethod)
	if err != nil {
		return Result{}, common.ValidationError(err.Error(), nil)
	}
	if !method.AllowedInStore() {
		return Result{}, common.ValidationError(
			fmt.Sprintf("payment method %s is not available at the counter", method), nil)
	}
	if method == payment.MethodSplit && req.Split == nil {
		return Result{}, common.ValidationError("split payment requires cash and digital amounts", nil)
	}

	var customerID pgtype.UUID
	if req.CustomerID != "" {
		if customerID, err = store.ToUUID(req.CustomerID); err != nil {
			return Result{}, common.ValidationError("invalid customer id", nil)
		}
	}

	items, lines, err := s.counterItems(ctx, req.Items)
	if err != nil {
		return Result{}, err
	}
	subtotal, _ := pricing.Aggregate(lines)
	redemption, err := s.previewRedeem(ctx, customerID, req.RedeemPoints, subtotal)
	if err != nil {
		return Result{}, err
	}

	summary := pricing.Compute(lines, s.GSTRatePct, 0, redemption.Discount)

	if method == payment.MethodSplit {
		if err := req.Split.Validate(summary.Total); err != nil {
			if obs.SplitMismatchTotal != nil {
				obs.SplitMismatchTotal.Inc()
			}
			s.observeCheckout(store.OrderTypeInStore, method, "split_mismatch")
			return Result{}, common.NewAppError("SPLIT_MISMATCH", err.Error(), 422, nil)
		}
	}

	draft := store.Order{
		UserID:          customerID,
		Type:            store.OrderTypeInStore,
		Status:          store.OrderStatusPaid,
		PaymentMethod:   string(method),
		Currency:        s.Currency,
		Subtotal:        summary.Subtotal,
		Tax:             summary.Tax,
		Shipping:        0,
		LoyaltyDiscount: summary.LoyaltyDiscount,
		Rounding:        summary.Rounding,
		Total:           summary.Total,
		PointsRedeemed:  redemption.Points,
		Notes:           store.Text(req.Notes),
	}
	if method == payment.MethodSplit {
		draft.SplitCash = pgtype.Float8{Float64: req.Split.Cash, Valid: true}
		draft.SplitDigital = pgtype.Float8{Float64: req.Split.Digital, Valid: true}
	}

	placed, err := s.place(ctx, draft, items, nil)
	if err != nil {
		s.observeCheckout(store.OrderTypeInStore, method, "failure")
		return Result{}, err
	}
	s.observeCheckout(store.OrderTypeInStore, method, "success")
	s.observeRounding(summary)

	s.redeemBestEffort(ctx, customerID, placed.ID, redemption.Points)
	s.emitCreated(ctx, placed)
	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicOrderPaid, placed.ID, map[string]any{
			"orderId": store.UUIDString(placed.ID),
			"total":   placed.Total,
		})
	}
	s.AwardForOrder(ctx, placed)

	return Result{Order: placed, Summary: summary}, nil
}

// AwardForOrder grants earn-on-purchase points once an order is settled.
// Failures are logged and swallowed; settlement is never rolled back.
func (s *Service) AwardForOrder(ctx context.Context, o store.Order) {
	if s.Loyalty == nil || !o.UserID.Valid {
		return
	}
	if s.AwardAsync && s.Tasks != nil {
		err := s.Tasks.EnqueueLoyaltyAward(ctx, store.UUIDString(o.UserID), store.UUIDString(o.ID), o.Total)
		if err == nil {
			return
		}
		s.Log.Warn().Err(err).Msg("loyalty award enqueue failed, awarding inline")
	}
	if _, err := s.Loyalty.Award(ctx, o.UserID, o.ID, o.Total); err != nil {
		s.Log.Warn().Err(err).
			Str("order_id", store.UUIDString(o.ID)).
			Msg("loyalty award failed, order unaffected")
	}
}

// place writes the order, its lines and the stock reservations in one
// transaction, clearing the source cart when present.
func (s *Service) place(ctx context.Context, draft store.Order, items []store.OrderItem, cartID *pgtype.UUID) (store.Order, error) {
	var placed store.Order
	err := s.Tx.RunInTx(ctx, func(q checkoutStore) error {
		o, err := q.CreateOrder(ctx, draft)
		if err != nil {
			return err
		}
		for _, it := range items {
			it.OrderID = o.ID
			if err := q.CreateOrderItem(ctx, it); err != nil {
				return err
			}
			if _, err := q.DecrementStock(ctx, it.VariantID, it.Qty); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("%w: %s", ErrOutOfStock, it.Title)
				}
				return err
			}
		}
		if cartID != nil {
			if err := q.ClearCart(ctx, *cartID); err != nil {
				return err
			}
		}
		placed = o
		return nil
	})
	return placed, err
}

func (s *Service) previewRedeem(ctx context.Context, userID pgtype.UUID, points int64, subtotal pricing.Amount) (loyalty.Application, error) {
	if points <= 0 || s.Loyalty == nil {
		return loyalty.Application{}, nil
	}
	if !userID.Valid {
		return loyalty.Application{}, common.ValidationError("loyalty redemption requires a customer account", nil)
	}
	app, err := s.Loyalty.Preview(ctx, userID, points, subtotal)
	if err != nil {
		if errors.Is(err, loyalty.ErrBelowMinRedeem) || errors.Is(err, loyalty.ErrInsufficientPoints) {
			return loyalty.Application{}, common.ValidationError(err.Error(), nil)
		}
		return loyalty.Application{}, err
	}
	return app, nil
}

// redeemBestEffort debits redeemed points after the order is committed. A
// failure leaves the order priced as quoted; the ledger is reconciled by
// support tooling.
func (s *Service) redeemBestEffort(ctx context.Context, userID, orderID pgtype.UUID, points int64) {
	if points <= 0 || s.Loyalty == nil || !userID.Valid {
		return
	}
	if err := s.Loyalty.Redeem(ctx, userID, orderID, points); err != nil {
		s.Log.Warn().Err(err).
			Str("order_id", store.UUIDString(orderID)).
			Int64("points", points).
			Msg("loyalty redeem failed, order keeps its discount")
	}
}

func (s *Service) counterItems(ctx context.Context, reqItems []CounterLine) ([]store.OrderItem, []pricing.Line, error) {
	items := make([]store.OrderItem, 0, len(reqItems))
	lines := make([]pricing.Line, 0, len(reqItems))
	for _, line := range reqItems {
		variantID, err := store.ToUUID(line.VariantID)
		if err != nil {
			return nil, nil, common.ValidationError("invalid variant id", nil)
		}
		v, err := s.Q.GetVariantDetail(ctx, variantID)
		if err != nil {
			return nil, nil, err
		}
		items = append(items, store.OrderItem{
			ProductID:     v.ProductID,
			VariantID:     v.ID,
			Title:         v.ProductName,
			PackSize:      v.PackSize,
			UnitPrice:     v.UnitPrice,
			OriginalPrice: v.OriginalPrice,
			Qty:           line.Qty,
			Subtotal:      float64(line.Qty) * v.UnitPrice,
		})
		lines = append(lines, pricing.Line{
			Qty:           int(line.Qty),
			UnitPrice:     v.UnitPrice,
			OriginalPrice: v.OriginalPrice,
		})
	}
	return items, lines, nil
}

func (s *Service) emitCreated(ctx context.Context, o store.Order) {
	if s.Events == nil {
		return
	}
	_, _ = s.Events.Emit(ctx, events.TopicOrderCreated, o.ID, map[string]any{
		"orderId": store.UUIDString(o.ID),
		"type":    o.Type,
		"total":   o.Total,
	})
}

func (s *Service) enqueueConfirmation(ctx context.Context, o store.Order) {
	if s.Tasks == nil {
		return
	}
	if err := s.Tasks.EnqueueOrderConfirmation(ctx, store.UUIDString(o.ID)); err != nil {
		s.Log.Warn().Err(err).Msg("order confirmation enqueue failed")
	}
}

func (s *Service) observeCheckout(orderType store.OrderType, method payment.Method, result string) {
	if obs.CheckoutTotal != nil {
		obs.CheckoutTotal.WithLabelValues(string(orderType), string(method), result).Inc()
	}
}

func (s *Service) observeRounding(summary pricing.Summary) {
	if obs.PricingRounding != nil {
		obs.PricingRounding.Observe(math.Abs(summary.Rounding) * 100)
	}
}

func (s *Service) observeQuote(q shipping.Quote) {
	if obs.ShippingQuoteTotal != nil {
		obs.ShippingQuoteTotal.WithLabelValues(string(q.Band), "success").Inc()
	}
}

func shippingItems(items []store.CartItem) []shipping.Item {
	out := make([]shipping.Item, 0, len(items))
	for _, it := range items {
		out = append(out, shipping.Item{PackSize: it.PackSize, Qty: it.Qty})
	}
	return out
}

func orderLines(items []store.CartItem) []store.OrderItem {
	out := make([]store.OrderItem, 0, len(items))
	for _, it := range items {
		out = append(out, store.OrderItem{
			ProductID:     it.ProductID,
			VariantID:     it.VariantID,
			Title:         it.Title,
			PackSize:      it.PackSize,
			UnitPrice:     it.UnitPrice,
			OriginalPrice: it.OriginalPrice,
			Qty:           it.Qty,
			Subtotal:      float64(it.Qty) * it.UnitPrice,
		})
	}
	return out
}

func validationDetails(err error) map[string]any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]any{"error": err.Error()}
	}
	details := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
	}
	return details
}
