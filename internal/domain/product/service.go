// Package product implements the catalog query service: filtered listings,
// lookups and the create/update/delete pathway used by the admin surface.
package product

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// MaxResults is the hard ceiling on items returned by a single listing.
// There is no cursor: callers needing more must narrow the query.
const MaxResults = 100

// Service encapsulates catalog business rules on top of the store.
type Service struct {
	repo  Repository
	files FileDeleter
}

// NewService creates a Service. files may be nil when product images are not
// stored anywhere.
func NewService(repo Repository, files FileDeleter) *Service {
	return &Service{
		repo:  repo,
		files: files,
	}
}

// List returns products newest first, optionally restricted to a category
// (empty or All disables the filter) and a name search term.
func (s *Service) List(ctx context.Context, category, search string) ([]Product, int, error) {
	q := Query{
		Search: strings.TrimSpace(search),
		Limit:  MaxResults,
	}
	if category != "" && category != All {
		q.Category = category
	}

	page, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, 0, unavailable("list products", err)
	}

	items := page.Items
	if len(items) > MaxResults {
		items = items[:MaxResults]
	}
	return items, page.Total, nil
}

// GetByID returns a single product.
func (s *Service) GetByID(ctx context.Context, id string) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, unavailable("get product", err)
	}
	return p, nil
}

// Create validates f and persists a new product. The store assigns the
// identifier and timestamps.
func (s *Service) Create(ctx context.Context, f Fields) (*Product, error) {
	doc, err := f.document()
	if err != nil {
		return nil, err
	}

	p, err := s.repo.Create(ctx, doc)
	if err != nil {
		return nil, unavailable("create product", err)
	}
	return p, nil
}

// Update overwrites name, price, discount and category of product id. The
// stored image reference is replaced only when f carries a new one.
func (s *Service) Update(ctx context.Context, id string, f Fields) (*Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &ValidationError{Field: "id", Reason: "is required"}
	}
	doc, err := f.document()
	if err != nil {
		return nil, err
	}

	p, err := s.repo.Update(ctx, id, doc)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, unavailable("update product", err)
	}
	return p, nil
}

// Delete removes product id and then its image file, if any. A failure to
// delete the image is logged and does not fail the operation.
func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return &ValidationError{Field: "id", Reason: "is required"}
	}

	p, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return unavailable("delete product", err)
	}

	if p.HasImage() && s.files != nil {
		if err := s.files.Delete(ctx, *p.ImageID); err != nil {
			zctx.From(ctx).Warn("Failed to delete product image",
				zap.String("product_id", id),
				zap.String("image_id", *p.ImageID),
				zap.Error(err),
			)
		}
	}
	return nil
}
