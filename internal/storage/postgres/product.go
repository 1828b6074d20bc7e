package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/katalog-toko/internal/domain/product"
)

var _ product.Repository = (*ProductRepository)(nil)

const productColumns = `id, name, price, discount, category, image_id, created_at, updated_at`

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool

	listSQL   string
	getSQL    string
	byNameSQL string
	namesSQL  string
	insertSQL string
	updateSQL string
	deleteSQL string
}

// NewProductRepository returns a ProductRepository over the products table
// named by layout.
func NewProductRepository(pool *pgxpool.Pool, layout Layout) *ProductRepository {
	l := layout.withDefaults()
	t := l.table(l.Products)

	return &ProductRepository{
		pool: pool,
		// Full-text match on the name, with a substring fallback so partial
		// words still find results.
		listSQL: fmt.Sprintf(`SELECT %s, count(*) OVER () AS total
FROM %s
WHERE ($1::text = '' OR category = $1)
  AND ($2::text = ''
       OR to_tsvector('simple', name) @@ plainto_tsquery('simple', $2)
       OR name ILIKE $3)
ORDER BY created_at DESC, id
LIMIT $4`, productColumns, t),
		getSQL:    fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, productColumns, t),
		byNameSQL: fmt.Sprintf(`SELECT %s FROM %s WHERE name = $1 ORDER BY created_at LIMIT 1`, productColumns, t),
		namesSQL:  fmt.Sprintf(`SELECT name FROM %s`, t),
		insertSQL: fmt.Sprintf(`INSERT INTO %s (id, name, price, discount, category, image_id)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING %s`, t, productColumns),
		updateSQL: fmt.Sprintf(`UPDATE %s
SET name = $2, price = $3, discount = $4, category = $5,
    image_id = COALESCE($6, image_id), updated_at = now()
WHERE id = $1
RETURNING %s`, t, productColumns),
		deleteSQL: fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, t),
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// List returns matching products newest first together with the total
// number of matches.
func (r *ProductRepository) List(ctx context.Context, q product.Query) (product.Page, error) {
	limit := q.Limit
	if limit <= 0 || limit > product.MaxResults {
		limit = product.MaxResults
	}
	pattern := "%" + likeEscaper.Replace(q.Search) + "%"

	rows, err := r.pool.Query(ctx, r.listSQL, q.Category, q.Search, pattern, limit)
	if err != nil {
		return product.Page{}, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	page := product.Page{Items: make([]product.Product, 0, limit)}
	for rows.Next() {
		var (
			p     product.Product
			total int
		)
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Price, &p.Discount, &p.Category,
			&p.ImageID, &p.CreatedAt, &p.UpdatedAt, &total,
		); err != nil {
			return product.Page{}, fmt.Errorf("scanning product row: %w", err)
		}
		page.Items = append(page.Items, p)
		page.Total = total
	}
	if err := rows.Err(); err != nil {
		return product.Page{}, fmt.Errorf("iterating product rows: %w", err)
	}

	return page, nil
}

func scanProduct(row pgx.Row) (*product.Product, error) {
	var p product.Product
	if err := row.Scan(
		&p.ID, &p.Name, &p.Price, &p.Discount, &p.Category,
		&p.ImageID, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByID returns a single product. Returns product.ErrNotFound when no row
// matches.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, r.getSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return p, nil
}

// FindByName returns the oldest product with exactly this name.
func (r *ProductRepository) FindByName(ctx context.Context, name string) (*product.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, r.byNameSQL, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("finding product by name %q: %w", name, err)
	}
	return p, nil
}

// Names streams every product name to fn.
func (r *ProductRepository) Names(ctx context.Context, fn func(name string)) error {
	rows, err := r.pool.Query(ctx, r.namesSQL)
	if err != nil {
		return fmt.Errorf("listing product names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scanning product name: %w", err)
		}
		fn(name)
	}
	return rows.Err()
}

// Create inserts a product with a fresh UUID.
func (r *ProductRepository) Create(ctx context.Context, doc product.Document) (*product.Product, error) {
	id := uuid.NewString()
	p, err := scanProduct(r.pool.QueryRow(ctx, r.insertSQL,
		id, doc.Name, doc.Price, doc.Discount, doc.Category, doc.ImageID,
	))
	if err != nil {
		return nil, fmt.Errorf("creating product %q: %w", doc.Name, err)
	}
	return p, nil
}

// Update overwrites the product fields. A nil doc.ImageID keeps the stored
// image reference.
func (r *ProductRepository) Update(ctx context.Context, id string, doc product.Document) (*product.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, r.updateSQL,
		id, doc.Name, doc.Price, doc.Discount, doc.Category, doc.ImageID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("updating product %q: %w", id, err)
	}
	return p, nil
}

// Delete removes a product row.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, r.deleteSQL, id)
	if err != nil {
		return fmt.Errorf("deleting product %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}
