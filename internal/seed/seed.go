// Package seed loads the sample catalog into a store. Applying a catalog is
// idempotent: categories and products are matched by name.
package seed

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/katalog-toko/internal/domain/category"
	"github.com/xenking/katalog-toko/internal/domain/product"
)

// Catalog is the seed file layout.
type Catalog struct {
	Categories []Category `json:"categories"`
	Products   []Product  `json:"products"`
}

type Category struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Product struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Discount int             `json:"discount"`
	Category string          `json:"category"`
}

// Parse decodes a seed file.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(err, "decode seed catalog")
	}
	return &c, nil
}

// ProductStore is the subset of the product store the seeder needs.
type ProductStore interface {
	FindByName(ctx context.Context, name string) (*product.Product, error)
}

// Products creates and updates products with validation applied.
type Products interface {
	Create(ctx context.Context, f product.Fields) (*product.Product, error)
	Update(ctx context.Context, id string, f product.Fields) (*product.Product, error)
}

// Result counts what Apply changed.
type Result struct {
	Categories int
	Created    int
	Updated    int
}

// Apply upserts every category, then creates missing products and updates
// existing ones in place. Stored image references are kept.
func Apply(ctx context.Context, c *Catalog, categories category.Writer, store ProductStore, products Products) (Result, error) {
	var res Result

	for _, cat := range c.Categories {
		if _, err := categories.Upsert(ctx, category.Category{Name: cat.Name, Description: cat.Description}); err != nil {
			return res, errors.Wrapf(err, "upsert category %q", cat.Name)
		}
		res.Categories++
	}

	for _, p := range c.Products {
		fields := product.Fields{
			Name:     p.Name,
			Price:    &p.Price,
			Discount: &p.Discount,
			Category: p.Category,
		}

		existing, err := store.FindByName(ctx, p.Name)
		switch {
		case errors.Is(err, product.ErrNotFound):
			if _, err := products.Create(ctx, fields); err != nil {
				return res, errors.Wrapf(err, "create product %q", p.Name)
			}
			res.Created++
			slog.Info("created product", slog.String("name", p.Name))
		case err != nil:
			return res, errors.Wrapf(err, "find product %q", p.Name)
		default:
			if _, err := products.Update(ctx, existing.ID, fields); err != nil {
				return res, errors.Wrapf(err, "update product %q", p.Name)
			}
			res.Updated++
			slog.Info("updated product", slog.String("name", p.Name), slog.String("id", existing.ID))
		}
	}

	return res, nil
}
