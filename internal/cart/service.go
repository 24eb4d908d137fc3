// Package cart manages shopping carts for signed-in users and anonymous
// visitors, with a live pricing preview on every read.
package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/orgofarm-labs/backend-orgofarm/internal/pricing"
	"github.com/orgofarm-labs/backend-orgofarm/internal/store"
)

var (
	// ErrOutOfStock is returned when the requested quantity exceeds available stock.
	ErrOutOfStock = errors.New("insufficient stock")
	// ErrEmptyCart is returned when an operation needs at least one line.
	ErrEmptyCart = errors.New("cart is empty")
)

type cartStore interface {
	CreateCart(ctx context.Context, userID pgtype.UUID, anonID pgtype.Text, ttl time.Duration) (store.Cart, error)
	GetCartByID(ctx context.Context, id pgtype.UUID) (store.Cart, error)
	FindActiveCart(ctx context.Context, userID pgtype.UUID, anonID pgtype.Text) (store.Cart, error)
	ListCartItems(ctx context.Context, cartID pgtype.UUID) ([]store.CartItem, error)
	UpsertCartItem(ctx context.Context, item store.CartItem) (store.CartItem, error)
	UpdateCartItemQty(ctx context.Context, itemID pgtype.UUID, qty int32) error
	DeleteCartItem(ctx context.Context, cartID, itemID pgtype.UUID) error
	ClearCart(ctx context.Context, cartID pgtype.UUID) error
	AttachCartToUser(ctx context.Context, cartID, userID pgtype.UUID) error
	TouchCart(ctx context.Context, cartID pgtype.UUID) error
	GetVariantDetail(ctx context.Context, id pgtype.UUID) (store.VariantDetail, error)
}

// Service manages cart contents and the running pricing preview.
type Service struct {
	Q          cartStore
	TTL        time.Duration
	GSTRatePct float64
}

// View is a cart with its lines and a subtotal preview. Tax and shipping are
// estimates; the checkout quote is authoritative.
type View struct {
	Cart     store.Cart
	Items    []store.CartItem
	Subtotal pricing.Amount
	Savings  pricing.Amount
	TaxEst   pricing.Amount
}

// Resolve finds the caller's active cart, creating one when absent.
func (s *Service) Resolve(ctx context.Context, userID pgtype.UUID, anonID pgtype.Text) (store.Cart, error) {
	c, err := s.Q.FindActiveCart(ctx, userID, anonID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return store.Cart{}, err
	}
	return s.Q.CreateCart(ctx, userID, anonID, s.TTL)
}

// AddItem appends a variant to the cart, capturing its current price. The
// quantity check is advisory; checkout revalidates stock inside the order
// transaction.
func (s *Service) AddItem(ctx context.Context, cartID, variantID pgtype.UUID, qty int32) (store.CartItem, error) {
	if qty <= 0 {
		return store.CartItem{}, fmt.Errorf("quantity must be positive")
	}
	variant, err := s.Q.GetVariantDetail(ctx, variantID)
	if err != nil {
		return store.CartItem{}, err
	}
	if variant.Stock < qty {
		return store.CartItem{}, ErrOutOfStock
	}
	item, err := s.Q.UpsertCartItem(ctx, store.CartItem{
		CartID:        cartID,
		ProductID:     variant.ProductID,
		VariantID:     variantID,
		Title:         variant.ProductName,
		PackSize:      variant.PackSize,
		UnitPrice:     variant.UnitPrice,
		OriginalPrice: variant.OriginalPrice,
		Qty:           qty,
	})
	if err != nil {
		return store.CartItem{}, err
	}
	_ = s.Q.TouchCart(ctx, cartID)
	return item, nil
}

// UpdateQty sets a line's quantity, removing it at zero.
func (s *Service) UpdateQty(ctx context.Context, cartID, itemID pgtype.UUID, qty int32) error {
	if qty <= 0 {
		return s.Q.DeleteCartItem(ctx, cartID, itemID)
	}
	if err := s.Q.UpdateCartItemQty(ctx, itemID, qty); err != nil {
		return err
	}
	return s.Q.TouchCart(ctx, cartID)
}

// RemoveItem deletes a line.
func (s *Service) RemoveItem(ctx context.Context, cartID, itemID pgtype.UUID) error {
	return s.Q.DeleteCartItem(ctx, cartID, itemID)
}

// Get loads the cart with its pricing preview.
func (s *Service) Get(ctx context.Context, cartID pgtype.UUID) (View, error) {
	c, err := s.Q.GetCartByID(ctx, cartID)
	if err != nil {
		return View{}, err
	}
	items, err := s.Q.ListCartItems(ctx, cartID)
	if err != nil {
		return View{}, err
	}
	lines := Lines(items)
	subtotal, savings := pricing.Aggregate(lines)
	return View{
		Cart:     c,
		Items:    items,
		Subtotal: subtotal,
		Savings:  savings,
		TaxEst:   pricing.Tax(subtotal, s.GSTRatePct),
	}, nil
}

// Merge attaches an anonymous cart to a user after sign-in.
func (s *Service) Merge(ctx context.Context, cartID, userID pgtype.UUID) error {
	return s.Q.AttachCartToUser(ctx, cartID, userID)
}

// Lines converts cart items into pricing lines.
func Lines(items []store.CartItem) []pricing.Line {
	lines := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, pricing.Line{
			Qty:           int(it.Qty),
			UnitPrice:     it.UnitPrice,
			OriginalPrice: it.OriginalPrice,
		})
	}
	return lines
}
