package category

import (
	"context"
	"time"
)

// MaxResults bounds a category listing.
const MaxResults = 100

// Category is a named grouping shown as a storefront filter.
type Category struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Repository lists categories ordered by name ascending, at most MaxResults.
type Repository interface {
	List(ctx context.Context) ([]Category, error)
}

// Writer persists categories. Used by seeding and import tooling.
type Writer interface {
	Upsert(ctx context.Context, c Category) (*Category, error)
}
