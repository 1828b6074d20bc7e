// Package admin implements the catalog administration workflow: the product
// form with optional image upload, deletion and listing.
package admin

import (
	"context"
	"io"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/katalog-toko/internal/domain/image"
	"github.com/xenking/katalog-toko/internal/domain/product"
)

// Catalog is the admin-gated catalog API the surface drives.
type Catalog interface {
	ListProducts(ctx context.Context, category, search string) ([]product.Product, int, error)
	CreateProduct(ctx context.Context, f product.Fields) (*product.Product, error)
	UpdateProduct(ctx context.Context, id string, f product.Fields) (*product.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	UploadImage(ctx context.Context, filename, contentType string, r io.Reader) (*image.File, error)
}

// Attachment is an image picked on the product form.
type Attachment struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// Form is a submitted product form. An empty ID creates a product.
type Form struct {
	ID     string
	Fields product.Fields
	Image  *Attachment
}

// Surface orchestrates admin operations against a Catalog.
type Surface struct {
	catalog Catalog
}

// NewSurface returns a Surface backed by catalog.
func NewSurface(catalog Catalog) *Surface {
	return &Surface{catalog: catalog}
}

// Save uploads the attached image, if any, then creates or updates the
// product. A rejected upload aborts the save. On update the image reference
// only changes when a new file was uploaded.
func (s *Surface) Save(ctx context.Context, form Form) (*product.Product, error) {
	fields := form.Fields
	fields.ImageID = nil

	if form.Image != nil {
		f, err := s.catalog.UploadImage(ctx, form.Image.Filename, form.Image.ContentType, form.Image.Body)
		if err != nil {
			return nil, errors.Wrap(err, "upload image")
		}
		id := f.ID
		fields.ImageID = &id
	}

	if strings.TrimSpace(form.ID) == "" {
		p, err := s.catalog.CreateProduct(ctx, fields)
		if err != nil {
			return nil, errors.Wrap(err, "create product")
		}
		return p, nil
	}

	p, err := s.catalog.UpdateProduct(ctx, form.ID, fields)
	if err != nil {
		return nil, errors.Wrapf(err, "update product %s", form.ID)
	}
	return p, nil
}

// Delete removes a product and its image.
func (s *Surface) Delete(ctx context.Context, id string) error {
	if err := s.catalog.DeleteProduct(ctx, id); err != nil {
		return errors.Wrapf(err, "delete product %s", id)
	}
	return nil
}

// Products lists the newest products across all categories.
func (s *Surface) Products(ctx context.Context) ([]product.Product, error) {
	items, _, err := s.catalog.ListProducts(ctx, product.All, "")
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return items, nil
}

// Categories returns the categories offered on the product form.
func (s *Surface) Categories() []string {
	return product.Categories()
}
