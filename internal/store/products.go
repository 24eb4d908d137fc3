package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// Category is a catalog grouping.
type Category struct {
	ID        pgtype.UUID
	Name      string
	Slug      string
	CreatedAt pgtype.Timestamptz
}

// Product is a sellable catalog entry; pricing and stock live on variants.
type Product struct {
	ID          pgtype.UUID
	CategoryID  pgtype.UUID
	Name        string
	Slug        string
	Description pgtype.Text
	ImageURL    pgtype.Text
	Active      bool
	CreatedAt   pgtype.Timestamptz
	UpdatedAt   pgtype.Timestamptz
}

// Variant is a concrete pack of a product ("500g", "1kg").
type Variant struct {
	ID            pgtype.UUID
	ProductID     pgtype.UUID
	PackSize      string
	UnitPrice     float64
	OriginalPrice float64
	DiscountPct   float64
	Stock         int32
	CreatedAt     pgtype.Timestamptz
	UpdatedAt     pgtype.Timestamptz
}

// ListCategories returns all categories ordered by name.
func (s *Store) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, slug, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListProducts returns active products, optionally filtered by category slug.
func (s *Store) ListProducts(ctx context.Context, categorySlug string, limit, offset int) ([]Product, error) {
	query := `
		SELECT p.id, p.category_id, p.name, p.slug, p.description, p.image_url, p.active, p.created_at, p.updated_at
		FROM products p`
	args := []any{}
	if categorySlug != "" {
		query += ` JOIN categories c ON c.id = p.category_id WHERE p.active AND c.slug = $1 ORDER BY p.name LIMIT $2 OFFSET $3`
		args = append(args, categorySlug, limit, offset)
	} else {
		query += ` WHERE p.active ORDER BY p.name LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Slug, &p.Description, &p.ImageURL, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountProducts counts active products for pagination metadata.
func (s *Store) CountProducts(ctx context.Context, categorySlug string) (int64, error) {
	var total int64
	var err error
	if categorySlug != "" {
		err = s.db.QueryRow(ctx, `
			SELECT count(*) FROM products p JOIN categories c ON c.id = p.category_id
			WHERE p.active AND c.slug = $1`, categorySlug).Scan(&total)
	} else {
		err = s.db.QueryRow(ctx, `SELECT count(*) FROM products WHERE active`).Scan(&total)
	}
	return total, err
}

// GetProductBySlug fetches a single active product.
func (s *Store) GetProductBySlug(ctx context.Context, slug string) (Product, error) {
	var p Product
	err := s.db.QueryRow(ctx, `
		SELECT id, category_id, name, slug, description, image_url, active, created_at, updated_at
		FROM products WHERE slug = $1 AND active`, slug).
		Scan(&p.ID, &p.CategoryID, &p.Name, &p.Slug, &p.Description, &p.ImageURL, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return p, notFound(err)
}

// ListVariants returns the variants of a product.
func (s *Store) ListVariants(ctx context.Context, productID pgtype.UUID) ([]Variant, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, product_id, pack_size, unit_price, original_price, discount_pct, stock, created_at, updated_at
		FROM product_variants WHERE product_id = $1 ORDER BY unit_price`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Variant
	for rows.Next() {
		var v Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.PackSize, &v.UnitPrice, &v.OriginalPrice, &v.DiscountPct, &v.Stock, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// GetVariant fetches a variant by id.
func (s *Store) GetVariant(ctx context.Context, id pgtype.UUID) (Variant, error) {
	var v Variant
	err := s.db.QueryRow(ctx, `
		SELECT id, product_id, pack_size, unit_price, original_price, discount_pct, stock, created_at, updated_at
		FROM product_variants WHERE id = $1`, id).
		Scan(&v.ID, &v.ProductID, &v.PackSize, &v.UnitPrice, &v.OriginalPrice, &v.DiscountPct, &v.Stock, &v.CreatedAt, &v.UpdatedAt)
	return v, notFound(err)
}

// VariantDetail is a variant joined with its product's display name.
type VariantDetail struct {
	Variant
	ProductName string
}

// GetVariantDetail fetches a variant along with the owning product's name.
func (s *Store) GetVariantDetail(ctx context.Context, id pgtype.UUID) (VariantDetail, error) {
	var v VariantDetail
	err := s.db.QueryRow(ctx, `
		SELECT v.id, v.product_id, v.pack_size, v.unit_price, v.original_price, v.discount_pct, v.stock, v.created_at, v.updated_at, p.name
		FROM product_variants v
		JOIN products p ON p.id = v.product_id
		WHERE v.id = $1`, id).
		Scan(&v.ID, &v.ProductID, &v.PackSize, &v.UnitPrice, &v.OriginalPrice, &v.DiscountPct, &v.Stock, &v.CreatedAt, &v.UpdatedAt, &v.ProductName)
	return v, notFound(err)
}

// ListLowStockVariants returns variants at or below the given stock level.
func (s *Store) ListLowStockVariants(ctx context.Context, threshold int32) ([]VariantDetail, error) {
	rows, err := s.db.Query(ctx, `
		SELECT v.id, v.product_id, v.pack_size, v.unit_price, v.original_price, v.discount_pct, v.stock, v.created_at, v.updated_at, p.name
		FROM product_variants v
		JOIN products p ON p.id = v.product_id
		WHERE v.stock <= $1
		ORDER BY v.stock, p.name`, threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []VariantDetail
	for rows.Next() {
		var v VariantDetail
		if err := rows.Scan(&v.ID, &v.ProductID, &v.PackSize, &v.UnitPrice, &v.OriginalPrice, &v.DiscountPct, &v.Stock, &v.CreatedAt, &v.UpdatedAt, &v.ProductName); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// DecrementStock atomically reduces variant stock, failing when insufficient.
// Returns the remaining stock.
func (s *Store) DecrementStock(ctx context.Context, variantID pgtype.UUID, qty int32) (int32, error) {
	var remaining int32
	err := s.db.QueryRow(ctx, `
		UPDATE product_variants SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2
		RETURNING stock`, variantID, qty).Scan(&remaining)
	return remaining, notFound(err)
}

// AdjustStock applies a signed stock delta (admin corrections, PO receipts).
// Returns the resulting stock level.
func (s *Store) AdjustStock(ctx context.Context, variantID pgtype.UUID, delta int32) (int32, error) {
	var remaining int32
	err := s.db.QueryRow(ctx, `
		UPDATE product_variants SET stock = GREATEST(stock + $2, 0), updated_at = now()
		WHERE id = $1
		RETURNING stock`, variantID, delta).Scan(&remaining)
	return remaining, notFound(err)
}
