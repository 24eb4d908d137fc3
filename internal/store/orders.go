package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// OrderType distinguishes shipped online orders from counter sales.
type OrderType string

const (
	OrderTypeOnline  OrderType = "online"
	OrderTypeInStore OrderType = "in_store"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "PENDING_PAYMENT"
	OrderStatusPaid           OrderStatus = "PAID"
	OrderStatusPacked         OrderStatus = "PACKED"
	OrderStatusShipped        OrderStatus = "SHIPPED"
	OrderStatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	OrderStatusDelivered      OrderStatus = "DELIVERED"
	OrderStatusCancelled      OrderStatus = "CANCELLED"
)

// Order is a placed order with its full pricing breakdown. Rupee components
// are kept as computed (fractional); the final total is whole rupees.
type Order struct {
	ID              pgtype.UUID
	UserID          pgtype.UUID
	CartID          pgtype.UUID
	Type            OrderType
	Status          OrderStatus
	PaymentMethod   string
	Currency        string
	Subtotal        float64
	Tax             float64
	Shipping        float64
	LoyaltyDiscount float64
	Rounding        float64
	Total           int64
	PointsRedeemed  int64
	SplitCash       pgtype.Float8
	SplitDigital    pgtype.Float8
	ShippingAddress []byte
	ContactInfo     []byte
	Notes           pgtype.Text
	CreatedAt       pgtype.Timestamptz
	UpdatedAt       pgtype.Timestamptz
}

// OrderItem is a priced line frozen at order creation.
type OrderItem struct {
	ID            pgtype.UUID
	OrderID       pgtype.UUID
	ProductID     pgtype.UUID
	VariantID     pgtype.UUID
	Title         string
	PackSize      string
	UnitPrice     float64
	OriginalPrice float64
	Qty           int32
	Subtotal      float64
}

const orderColumns = `id, user_id, cart_id, order_type, status, payment_method, currency,
	subtotal, tax, shipping, loyalty_discount, rounding, total, points_redeemed,
	split_cash, split_digital, shipping_address, contact_info, notes, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.CartID, &o.Type, &o.Status, &o.PaymentMethod, &o.Currency,
		&o.Subtotal, &o.Tax, &o.Shipping, &o.LoyaltyDiscount, &o.Rounding, &o.Total, &o.PointsRedeemed,
		&o.SplitCash, &o.SplitDigital, &o.ShippingAddress, &o.ContactInfo, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

// CreateOrder inserts the order row and returns it.
func (s *Store) CreateOrder(ctx context.Context, o Order) (Order, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO orders (user_id, cart_id, order_type, status, payment_method, currency,
			subtotal, tax, shipping, loyalty_discount, rounding, total, points_redeemed,
			split_cash, split_digital, shipping_address, contact_info, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING `+orderColumns,
		o.UserID, o.CartID, o.Type, o.Status, o.PaymentMethod, o.Currency,
		o.Subtotal, o.Tax, o.Shipping, o.LoyaltyDiscount, o.Rounding, o.Total, o.PointsRedeemed,
		o.SplitCash, o.SplitDigital, o.ShippingAddress, o.ContactInfo, o.Notes)
	return scanOrder(row)
}

// CreateOrderItem inserts one order line.
func (s *Store) CreateOrderItem(ctx context.Context, it OrderItem) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO order_items (order_id, product_id, variant_id, title, pack_size, unit_price, original_price, qty, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		it.OrderID, it.ProductID, it.VariantID, it.Title, it.PackSize, it.UnitPrice, it.OriginalPrice, it.Qty, it.Subtotal)
	return err
}

// GetOrderByID fetches a single order.
func (s *Store) GetOrderByID(ctx context.Context, id pgtype.UUID) (Order, error) {
	o, err := scanOrder(s.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	return o, notFound(err)
}

// ListOrderItems returns the lines of an order.
func (s *Store) ListOrderItems(ctx context.Context, orderID pgtype.UUID) ([]OrderItem, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, order_id, product_id, variant_id, title, pack_size, unit_price, original_price, qty, subtotal
		FROM order_items WHERE order_id = $1 ORDER BY title`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.VariantID, &it.Title, &it.PackSize, &it.UnitPrice, &it.OriginalPrice, &it.Qty, &it.Subtotal); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// ListOrdersByUser returns a user's orders, newest first.
func (s *Store) ListOrdersByUser(ctx context.Context, userID pgtype.UUID, limit, offset int) ([]Order, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// CountOrdersByUser counts a user's orders for pagination metadata.
func (s *Store) CountOrdersByUser(ctx context.Context, userID pgtype.UUID) (int64, error) {
	var total int64
	err := s.db.QueryRow(ctx, `SELECT count(*) FROM orders WHERE user_id = $1`, userID).Scan(&total)
	return total, err
}

// ListOrders returns all orders for the back-office, newest first.
func (s *Store) ListOrders(ctx context.Context, limit, offset int) ([]Order, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// UpdateOrderStatus transitions an order only when it is currently in one of
// the expected states. Returns ErrNotFound when the guard does not match.
func (s *Store) UpdateOrderStatus(ctx context.Context, id pgtype.UUID, next OrderStatus, allowedFrom []OrderStatus) error {
	from := make([]string, 0, len(allowedFrom))
	for _, st := range allowedFrom {
		from = append(from, string(st))
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE orders SET status = $2, updated_at = now()
		WHERE id = $1 AND status = ANY($3)`, id, next, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetOrderStatus reads just the status column.
func (s *Store) GetOrderStatus(ctx context.Context, id pgtype.UUID) (OrderStatus, error) {
	var status OrderStatus
	err := s.db.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, id).Scan(&status)
	return status, notFound(err)
}
