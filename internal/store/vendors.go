package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// Vendor is a supplier of organic goods.
type Vendor struct {
	ID        pgtype.UUID
	Name      string
	Contact   pgtype.Text
	Phone     pgtype.Text
	Email     pgtype.Text
	Address   pgtype.Text
	Active    bool
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

// PurchaseOrderStatus is the lifecycle state of a purchase order.
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft    PurchaseOrderStatus = "DRAFT"
	PurchaseOrderStatusOrdered  PurchaseOrderStatus = "ORDERED"
	PurchaseOrderStatusReceived PurchaseOrderStatus = "RECEIVED"
	PurchaseOrderStatusVoided   PurchaseOrderStatus = "VOIDED"
)

// PurchaseOrder is a replenishment order placed with a vendor.
type PurchaseOrder struct {
	ID         pgtype.UUID
	VendorID   pgtype.UUID
	Status     PurchaseOrderStatus
	TotalCost  float64
	Notes      pgtype.Text
	CreatedAt  pgtype.Timestamptz
	ReceivedAt pgtype.Timestamptz
}

// PurchaseOrderItem is one replenishment line.
type PurchaseOrderItem struct {
	ID        pgtype.UUID
	POID      pgtype.UUID
	VariantID pgtype.UUID
	Qty       int32
	UnitCost  float64
}

// CreateVendor inserts a vendor.
func (s *Store) CreateVendor(ctx context.Context, v Vendor) (Vendor, error) {
	var out Vendor
	err := s.db.QueryRow(ctx, `
		INSERT INTO vendors (name, contact, phone, email, address, active)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, true))
		RETURNING id, name, contact, phone, email, address, active, created_at, updated_at`,
		v.Name, v.Contact, v.Phone, v.Email, v.Address, v.Active).
		Scan(&out.ID, &out.Name, &out.Contact, &out.Phone, &out.Email, &out.Address, &out.Active, &out.CreatedAt, &out.UpdatedAt)
	return out, err
}

// UpdateVendor mutates vendor fields.
func (s *Store) UpdateVendor(ctx context.Context, v Vendor) (Vendor, error) {
	var out Vendor
	err := s.db.QueryRow(ctx, `
		UPDATE vendors SET name = $2, contact = $3, phone = $4, email = $5, address = $6, active = $7, updated_at = now()
		WHERE id = $1
		RETURNING id, name, contact, phone, email, address, active, created_at, updated_at`,
		v.ID, v.Name, v.Contact, v.Phone, v.Email, v.Address, v.Active).
		Scan(&out.ID, &out.Name, &out.Contact, &out.Phone, &out.Email, &out.Address, &out.Active, &out.CreatedAt, &out.UpdatedAt)
	return out, notFound(err)
}

// GetVendor fetches a vendor by id.
func (s *Store) GetVendor(ctx context.Context, id pgtype.UUID) (Vendor, error) {
	var v Vendor
	err := s.db.QueryRow(ctx, `
		SELECT id, name, contact, phone, email, address, active, created_at, updated_at
		FROM vendors WHERE id = $1`, id).
		Scan(&v.ID, &v.Name, &v.Contact, &v.Phone, &v.Email, &v.Address, &v.Active, &v.CreatedAt, &v.UpdatedAt)
	return v, notFound(err)
}

// ListVendors returns vendors ordered by name.
func (s *Store) ListVendors(ctx context.Context, limit, offset int) ([]Vendor, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, contact, phone, email, address, active, created_at, updated_at
		FROM vendors ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Vendor
	for rows.Next() {
		var v Vendor
		if err := rows.Scan(&v.ID, &v.Name, &v.Contact, &v.Phone, &v.Email, &v.Address, &v.Active, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// CreatePurchaseOrder inserts the PO header.
func (s *Store) CreatePurchaseOrder(ctx context.Context, po PurchaseOrder) (PurchaseOrder, error) {
	var out PurchaseOrder
	err := s.db.QueryRow(ctx, `
		INSERT INTO purchase_orders (vendor_id, status, total_cost, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING id, vendor_id, status, total_cost, notes, created_at, received_at`,
		po.VendorID, po.Status, po.TotalCost, po.Notes).
		Scan(&out.ID, &out.VendorID, &out.Status, &out.TotalCost, &out.Notes, &out.CreatedAt, &out.ReceivedAt)
	return out, err
}

// CreatePurchaseOrderItem inserts one replenishment line.
func (s *Store) CreatePurchaseOrderItem(ctx context.Context, it PurchaseOrderItem) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO purchase_order_items (po_id, variant_id, qty, unit_cost)
		VALUES ($1, $2, $3, $4)`, it.POID, it.VariantID, it.Qty, it.UnitCost)
	return err
}

// GetPurchaseOrder fetches a PO header.
func (s *Store) GetPurchaseOrder(ctx context.Context, id pgtype.UUID) (PurchaseOrder, error) {
	var po PurchaseOrder
	err := s.db.QueryRow(ctx, `
		SELECT id, vendor_id, status, total_cost, notes, created_at, received_at
		FROM purchase_orders WHERE id = $1`, id).
		Scan(&po.ID, &po.VendorID, &po.Status, &po.TotalCost, &po.Notes, &po.CreatedAt, &po.ReceivedAt)
	return po, notFound(err)
}

// ListPurchaseOrderItems returns the lines of a PO.
func (s *Store) ListPurchaseOrderItems(ctx context.Context, poID pgtype.UUID) ([]PurchaseOrderItem, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, po_id, variant_id, qty, unit_cost
		FROM purchase_order_items WHERE po_id = $1`, poID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PurchaseOrderItem
	for rows.Next() {
		var it PurchaseOrderItem
		if err := rows.Scan(&it.ID, &it.POID, &it.VariantID, &it.Qty, &it.UnitCost); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// ListPurchaseOrders returns PO headers, newest first.
func (s *Store) ListPurchaseOrders(ctx context.Context, limit, offset int) ([]PurchaseOrder, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, vendor_id, status, total_cost, notes, created_at, received_at
		FROM purchase_orders ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PurchaseOrder
	for rows.Next() {
		var po PurchaseOrder
		if err := rows.Scan(&po.ID, &po.VendorID, &po.Status, &po.TotalCost, &po.Notes, &po.CreatedAt, &po.ReceivedAt); err != nil {
			return nil, err
		}
		out = append(out, po)
	}
	return out, rows.Err()
}

// MarkPurchaseOrderReceived transitions an ORDERED PO to RECEIVED.
func (s *Store) MarkPurchaseOrderReceived(ctx context.Context, id pgtype.UUID) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE purchase_orders SET status = 'RECEIVED', received_at = now()
		WHERE id = $1 AND status = 'ORDERED'`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
