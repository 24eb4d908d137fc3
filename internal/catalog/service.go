// Package catalog serves the public product browse surface: categories,
// product lists and product detail, with a Redis read-through cache.
package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/orgofarm-labs/backend-orgofarm/internal/store"
)

type queryProvider interface {
	ListCategories(ctx context.Context) ([]store.Category, error)
	ListProducts(ctx context.Context, categorySlug string, limit, offset int) ([]store.Product, error)
	CountProducts(ctx context.Context, categorySlug string) (int64, error)
	GetProductBySlug(ctx context.Context, slug string) (store.Product, error)
	ListVariants(ctx context.Context, productID pgtype.UUID) ([]store.Variant, error)
}

// Service orchestrates catalog queries, DTO assembly and caching.
type Service struct {
	Q            queryProvider
	Cache        *Cache
	DefaultLimit int
	MaxLimit     int
}

// CategoryDTO is the public shape of a category.
type CategoryDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// VariantDTO is the public shape of a pack option.
type VariantDTO struct {
	ID            string  `json:"id"`
	PackSize      string  `json:"packSize"`
	UnitPrice     float64 `json:"unitPrice"`
	OriginalPrice float64 `json:"originalPrice"`
	DiscountPct   float64 `json:"discountPct"`
	InStock       bool    `json:"inStock"`
}

// ProductDTO is the public shape of a product.
type ProductDTO struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Slug        string       `json:"slug"`
	Description string       `json:"description,omitempty"`
	ImageURL    string       `json:"imageUrl,omitempty"`
	Variants    []VariantDTO `json:"variants,omitempty"`
}

// ListResult pages products.
type ListResult struct {
	Items      []ProductDTO `json:"items"`
	Page       int          `json:"page"`
	PerPage    int          `json:"perPage"`
	TotalItems int64        `json:"totalItems"`
}

// Categories lists all categories, cached.
func (s *Service) Categories(ctx context.Context) ([]CategoryDTO, error) {
	const key = "catalog:categories"
	var cached []CategoryDTO
	if ok, _ := s.Cache.GetJSON(ctx, key, &cached); ok {
		return cached, nil
	}
	rows, err := s.Q.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CategoryDTO, 0, len(rows))
	for _, c := range rows {
		out = append(out, CategoryDTO{ID: store.UUIDString(c.ID), Name: c.Name, Slug: c.Slug})
	}
	_ = s.Cache.SetJSON(ctx, key, out)
	return out, nil
}

// List pages active products, optionally filtered by category slug.
func (s *Service) List(ctx context.Context, categorySlug string, page, perPage int) (ListResult, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = s.DefaultLimit
	}
	if s.MaxLimit > 0 && perPage > s.MaxLimit {
		perPage = s.MaxLimit
	}
	key := fmt.Sprintf("catalog:list:%s:%d:%d", categorySlug, page, perPage)
	var cached ListResult
	if ok, _ := s.Cache.GetJSON(ctx, key, &cached); ok {
		return cached, nil
	}
	rows, err := s.Q.ListProducts(ctx, categorySlug, perPage, (page-1)*perPage)
	if err != nil {
		return ListResult{}, err
	}
	total, err := s.Q.CountProducts(ctx, categorySlug)
	if err != nil {
		return ListResult{}, err
	}
	items := make([]ProductDTO, 0, len(rows))
	for _, p := range rows {
		items = append(items, productDTO(p, nil))
	}
	result := ListResult{Items: items, Page: page, PerPage: perPage, TotalItems: total}
	_ = s.Cache.SetJSON(ctx, key, result)
	return result, nil
}

// Get returns a product with its pack variants, cached by slug.
func (s *Service) Get(ctx context.Context, slug string) (ProductDTO, error) {
	key := "catalog:product:" + slug
	var cached ProductDTO
	if ok, _ := s.Cache.GetJSON(ctx, key, &cached); ok {
		return cached, nil
	}
	p, err := s.Q.GetProductBySlug(ctx, slug)
	if err != nil {
		return ProductDTO{}, err
	}
	variants, err := s.Q.ListVariants(ctx, p.ID)
	if err != nil {
		return ProductDTO{}, err
	}
	dto := productDTO(p, variants)
	_ = s.Cache.SetJSON(ctx, key, dto)
	return dto, nil
}

func productDTO(p store.Product, variants []store.Variant) ProductDTO {
	dto := ProductDTO{
		ID:          store.UUIDString(p.ID),
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description.String,
		ImageURL:    p.ImageURL.String,
	}
	for _, v := range variants {
		dto.Variants = append(dto.Variants, VariantDTO{
			ID:            store.UUIDString(v.ID),
			PackSize:      v.PackSize,
			UnitPrice:     v.UnitPrice,
			OriginalPrice: v.OriginalPrice,
			DiscountPct:   v.DiscountPct,
			InStock:       v.Stock > 0,
		})
	}
	return dto
}
