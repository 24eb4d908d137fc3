package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Cart is a shopping cart owned by a user or an anonymous visitor.
type Cart struct {
	ID        pgtype.UUID
	UserID    pgtype.UUID
	AnonID    pgtype.Text
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
	ExpiresAt pgtype.Timestamptz
}

// CartItem is a line in a cart. Unit prices are captured at add time so the
// cart shows what the shopper will actually pay.
type CartItem struct {
	ID            pgtype.UUID
	CartID        pgtype.UUID
	ProductID     pgtype.UUID
	VariantID     pgtype.UUID
	Title         string
	PackSize      string
	UnitPrice     float64
	OriginalPrice float64
	Qty           int32
	CreatedAt     pgtype.Timestamptz
}

// CreateCart inserts a cart for the given owner.
func (s *Store) CreateCart(ctx context.Context, userID pgtype.UUID, anonID pgtype.Text, ttl time.Duration) (Cart, error) {
	var c Cart
	err := s.db.QueryRow(ctx, `
		INSERT INTO carts (user_id, anon_id, expires_at)
		VALUES ($1, $2, now() + $3::interval)
		RETURNING id, user_id, anon_id, created_at, updated_at, expires_at`,
		userID, anonID, ttl.String()).
		Scan(&c.ID, &c.UserID, &c.AnonID, &c.CreatedAt, &c.UpdatedAt, &c.ExpiresAt)
	return c, err
}

// GetCartByID fetches a cart.
func (s *Store) GetCartByID(ctx context.Context, id pgtype.UUID) (Cart, error) {
	var c Cart
	err := s.db.QueryRow(ctx, `
		SELECT id, user_id, anon_id, created_at, updated_at, expires_at
		FROM carts WHERE id = $1`, id).
		Scan(&c.ID, &c.UserID, &c.AnonID, &c.CreatedAt, &c.UpdatedAt, &c.ExpiresAt)
	return c, notFound(err)
}

// FindActiveCart resolves the newest unexpired cart for a user or anon id.
func (s *Store) FindActiveCart(ctx context.Context, userID pgtype.UUID, anonID pgtype.Text) (Cart, error) {
	var c Cart
	err := s.db.QueryRow(ctx, `
		SELECT id, user_id, anon_id, created_at, updated_at, expires_at
		FROM carts
		WHERE (($1::uuid IS NOT NULL AND user_id = $1) OR ($2::text IS NOT NULL AND anon_id = $2))
		  AND (expires_at IS NULL OR expires_at > now())
		ORDER BY updated_at DESC LIMIT 1`,
		nullableUUID(userID), anonID).
		Scan(&c.ID, &c.UserID, &c.AnonID, &c.CreatedAt, &c.UpdatedAt, &c.ExpiresAt)
	return c, notFound(err)
}

// ListCartItems returns items in a cart, oldest first.
func (s *Store) ListCartItems(ctx context.Context, cartID pgtype.UUID) ([]CartItem, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, cart_id, product_id, variant_id, title, pack_size, unit_price, original_price, qty, created_at
		FROM cart_items WHERE cart_id = $1 ORDER BY created_at`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CartItem
	for rows.Next() {
		var it CartItem
		if err := rows.Scan(&it.ID, &it.CartID, &it.ProductID, &it.VariantID, &it.Title, &it.PackSize, &it.UnitPrice, &it.OriginalPrice, &it.Qty, &it.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// UpsertCartItem adds a variant to the cart or increments its quantity.
func (s *Store) UpsertCartItem(ctx context.Context, item CartItem) (CartItem, error) {
	var out CartItem
	err := s.db.QueryRow(ctx, `
		INSERT INTO cart_items (cart_id, product_id, variant_id, title, pack_size, unit_price, original_price, qty)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (cart_id, variant_id)
		DO UPDATE SET qty = cart_items.qty + EXCLUDED.qty
		RETURNING id, cart_id, product_id, variant_id, title, pack_size, unit_price, original_price, qty, created_at`,
		item.CartID, item.ProductID, item.VariantID, item.Title, item.PackSize, item.UnitPrice, item.OriginalPrice, item.Qty).
		Scan(&out.ID, &out.CartID, &out.ProductID, &out.VariantID, &out.Title, &out.PackSize, &out.UnitPrice, &out.OriginalPrice, &out.Qty, &out.CreatedAt)
	return out, err
}

// UpdateCartItemQty sets the quantity for a cart line.
func (s *Store) UpdateCartItemQty(ctx context.Context, itemID pgtype.UUID, qty int32) error {
	tag, err := s.db.Exec(ctx, `UPDATE cart_items SET qty = $2 WHERE id = $1`, itemID, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCartItem removes a line from the cart.
func (s *Store) DeleteCartItem(ctx context.Context, cartID, itemID pgtype.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM cart_items WHERE id = $1 AND cart_id = $2`, itemID, cartID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearCart removes every line of the cart.
func (s *Store) ClearCart(ctx context.Context, cartID pgtype.UUID) error {
	_, err := s.db.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	return err
}

// AttachCartToUser claims a guest cart for an authenticated user.
func (s *Store) AttachCartToUser(ctx context.Context, cartID, userID pgtype.UUID) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE carts SET user_id = $2, updated_at = now() WHERE id = $1 AND user_id IS NULL`, cartID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchCart refreshes the cart's updated_at timestamp.
func (s *Store) TouchCart(ctx context.Context, cartID pgtype.UUID) error {
	_, err := s.db.Exec(ctx, `UPDATE carts SET updated_at = now() WHERE id = $1`, cartID)
	return err
}

func nullableUUID(id pgtype.UUID) any {
	if !id.Valid {
		return nil
	}
	return id
}
