package product

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/katalog-toko/internal/pricing"
)

// Product represents a catalog item available for purchase.
type Product struct {
	ID        string
	Name      string
	Price     decimal.Decimal
	Discount  int
	Category  string
	ImageID   *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EffectivePrice returns the price after the product discount.
func (p Product) EffectivePrice() decimal.Decimal {
	return pricing.EffectivePrice(p.Price, p.Discount)
}

// HasImage reports whether the product references a stored image file.
func (p Product) HasImage() bool {
	return p.ImageID != nil && *p.ImageID != ""
}

// Document is the normalized set of fields written to the store on create
// and update. On update a nil ImageID leaves the stored reference untouched.
type Document struct {
	Name     string
	Price    decimal.Decimal
	Discount int
	Category string
	ImageID  *string
}

// Query describes a filtered catalog listing. Empty Category and Search mean
// no constraint.
type Query struct {
	Category string
	Search   string
	Limit    int
}

// Page is a listing result. Total counts every match in the store, which may
// exceed len(Items).
type Page struct {
	Items []Product
	Total int
}

// Repository is the document side of the catalog store. List delegates name
// search to the store's own text search and orders newest first.
// Implementations return ErrNotFound for unknown identifiers.
type Repository interface {
	List(ctx context.Context, q Query) (Page, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, doc Document) (*Product, error)
	Update(ctx context.Context, id string, doc Document) (*Product, error)
	Delete(ctx context.Context, id string) error
}

// FileDeleter removes stored files referenced by products.
type FileDeleter interface {
	Delete(ctx context.Context, id string) error
}
