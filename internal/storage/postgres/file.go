package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/katalog-toko/internal/domain/image"
)

var _ image.Store = (*FileRepository)(nil)

// FileRepository stores image files as rows of a bucket in the files table.
type FileRepository struct {
	pool   *pgxpool.Pool
	bucket string

	insertSQL string
	openSQL   string
	deleteSQL string
}

// NewFileRepository returns a FileRepository scoped to layout.Bucket.
func NewFileRepository(pool *pgxpool.Pool, layout Layout) *FileRepository {
	l := layout.withDefaults()
	t := l.table(l.Files)

	return &FileRepository{
		pool:   pool,
		bucket: l.Bucket,
		insertSQL: fmt.Sprintf(`INSERT INTO %s (id, bucket, filename, content_type, size, data)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at`, t),
		openSQL:   fmt.Sprintf(`SELECT filename, content_type, size, data, created_at FROM %s WHERE bucket = $1 AND id = $2`, t),
		deleteSQL: fmt.Sprintf(`DELETE FROM %s WHERE bucket = $1 AND id = $2`, t),
	}
}

// Create stores u under a fresh UUID.
func (r *FileRepository) Create(ctx context.Context, u image.Upload) (*image.File, error) {
	f := &image.File{
		ID:          uuid.NewString(),
		Bucket:      r.bucket,
		Filename:    u.Filename,
		ContentType: u.ContentType,
		Size:        int64(len(u.Data)),
	}

	if err := r.pool.QueryRow(ctx, r.insertSQL,
		f.ID, f.Bucket, f.Filename, f.ContentType, f.Size, u.Data,
	).Scan(&f.CreatedAt); err != nil {
		return nil, fmt.Errorf("storing file %q: %w", u.Filename, err)
	}
	return f, nil
}

// Open returns file metadata and content.
func (r *FileRepository) Open(ctx context.Context, id string) (*image.File, []byte, error) {
	f := &image.File{ID: id, Bucket: r.bucket}
	var data []byte
	if err := r.pool.QueryRow(ctx, r.openSQL, r.bucket, id).Scan(
		&f.Filename, &f.ContentType, &f.Size, &data, &f.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, image.ErrNotFound
		}
		return nil, nil, fmt.Errorf("reading file %q: %w", id, err)
	}
	return f, data, nil
}

// Delete removes a file.
func (r *FileRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, r.deleteSQL, r.bucket, id)
	if err != nil {
		return fmt.Errorf("deleting file %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return image.ErrNotFound
	}
	return nil
}
