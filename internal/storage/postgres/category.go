package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/katalog-toko/internal/domain/category"
)

var (
	_ category.Repository = (*CategoryRepository)(nil)
	_ category.Writer     = (*CategoryRepository)(nil)
)

const categoryColumns = `id, name, COALESCE(description, ''), created_at, updated_at`

// CategoryRepository implements category.Repository backed by PostgreSQL.
type CategoryRepository struct {
	pool *pgxpool.Pool

	listSQL   string
	upsertSQL string
}

// NewCategoryRepository returns a CategoryRepository over the categories
// table named by layout.
func NewCategoryRepository(pool *pgxpool.Pool, layout Layout) *CategoryRepository {
	l := layout.withDefaults()
	t := l.table(l.Categories)

	return &CategoryRepository{
		pool:    pool,
		listSQL: fmt.Sprintf(`SELECT %s FROM %s ORDER BY name ASC LIMIT $1`, categoryColumns, t),
		upsertSQL: fmt.Sprintf(`INSERT INTO %s (id, name, description)
VALUES ($1, $2, NULLIF($3, ''))
ON CONFLICT (name) DO UPDATE
SET description = EXCLUDED.description, updated_at = now()
RETURNING %s`, t, categoryColumns),
	}
}

// List returns categories ordered by name.
func (r *CategoryRepository) List(ctx context.Context) ([]category.Category, error) {
	rows, err := r.pool.Query(ctx, r.listSQL, category.MaxResults)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var out []category.Category
	for rows.Next() {
		var c category.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning category row: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating category rows: %w", err)
	}

	return out, nil
}

// Upsert inserts c or updates the description of the category with the same
// name.
func (r *CategoryRepository) Upsert(ctx context.Context, c category.Category) (*category.Category, error) {
	var out category.Category
	if err := r.pool.QueryRow(ctx, r.upsertSQL, uuid.NewString(), c.Name, c.Description).Scan(
		&out.ID, &out.Name, &out.Description, &out.CreatedAt, &out.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("upserting category %q: %w", c.Name, err)
	}
	return &out, nil
}
