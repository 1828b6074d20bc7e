// Package importer migrates products from a legacy SQL dump into the
// catalog, uploading referenced images from a local directory.
package importer

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/katalog-toko/internal/domain/image"
	"github.com/xenking/katalog-toko/internal/domain/product"
)

const (
	bloomCapacity = 100_000
	bloomFPR      = 0.001
	progressEvery = 100
)

// NameIndex looks up existing products by name.
type NameIndex interface {
	Names(ctx context.Context, fn func(name string)) error
	FindByName(ctx context.Context, name string) (*product.Product, error)
}

// Creator creates validated products.
type Creator interface {
	Create(ctx context.Context, f product.Fields) (*product.Product, error)
}

// Uploader stores image files.
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, r io.Reader) (*image.File, error)
}

// Stats summarizes an import.
type Stats struct {
	Parsed        int64
	Created       int64
	Skipped       int64
	Failed        int64
	MissingImages int64
}

// Importer creates products for dump rows whose names are not in the
// catalog yet.
type Importer struct {
	names      NameIndex
	products   Creator
	images     Uploader
	uploadsDir string
	workers    int
}

// New returns an importer reading images from uploadsDir with the given
// number of concurrent workers.
func New(names NameIndex, products Creator, images Uploader, uploadsDir string, workers int) *Importer {
	if workers <= 0 {
		workers = 4
	}
	return &Importer{
		names:      names,
		products:   products,
		images:     images,
		uploadsDir: uploadsDir,
		workers:    workers,
	}
}

type counters struct {
	parsed, created, skipped, failed, missing atomic.Int64
}

func (c *counters) stats() Stats {
	return Stats{
		Parsed:        c.parsed.Load(),
		Created:       c.created.Load(),
		Skipped:       c.skipped.Load(),
		Failed:        c.failed.Load(),
		MissingImages: c.missing.Load(),
	}
}

// Run imports every row of dump. Per-row failures are logged and counted;
// only store lookups and context cancellation abort the run.
func (im *Importer) Run(ctx context.Context, dump io.Reader) (Stats, error) {
	var c counters

	// Pass 1: index existing names.
	seen := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
	if err := im.names.Names(ctx, func(name string) { seen.AddString(name) }); err != nil {
		return c.stats(), errors.Wrap(err, "index existing products")
	}

	// Pass 2: dedupe sequentially, create concurrently.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.workers)
	batch := make(map[string]struct{})

	err := Parse(dump, func(row Row) error {
		if err := gctx.Err(); err != nil {
			return err
		}
		if n := c.parsed.Add(1); n%progressEvery == 0 {
			slog.Info("import progress", slog.Int64("rows", n))
		}
		if row.Err != nil {
			c.failed.Add(1)
			slog.Error("skipping unparsable row", slog.Int("line", row.Line), slog.String("error", row.Err.Error()))
			return nil
		}

		exists, err := im.exists(gctx, seen, batch, row.Name)
		if err != nil {
			return err
		}
		if exists {
			c.skipped.Add(1)
			slog.Info("skipping existing product", slog.String("name", row.Name), slog.Int("line", row.Line))
			return nil
		}
		batch[row.Name] = struct{}{}
		seen.AddString(row.Name)

		g.Go(func() error {
			im.importRow(gctx, row, &c)
			return nil
		})
		return nil
	})
	if werr := g.Wait(); err == nil {
		err = werr
	}
	if err != nil {
		return c.stats(), errors.Wrap(err, "import dump")
	}
	return c.stats(), nil
}

// exists reports whether name is already present. Bloom positives are
// confirmed against the store.
func (im *Importer) exists(ctx context.Context, seen *bloom.BloomFilter, batch map[string]struct{}, name string) (bool, error) {
	if _, ok := batch[name]; ok {
		return true, nil
	}
	if !seen.TestString(name) {
		return false, nil
	}
	_, err := im.names.FindByName(ctx, name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, product.ErrNotFound):
		return false, nil
	default:
		return false, errors.Wrapf(err, "look up %q", name)
	}
}

func (im *Importer) importRow(ctx context.Context, row Row, c *counters) {
	lg := slog.With(slog.String("name", row.Name), slog.Int("line", row.Line))

	imageID, err := im.uploadImage(ctx, row.Image)
	switch {
	case errors.Is(err, os.ErrNotExist):
		c.missing.Add(1)
		lg.Warn("image file not found, importing without image", slog.String("image", row.Image))
	case errors.Is(err, image.ErrUploadRejected):
		c.missing.Add(1)
		lg.Warn("image rejected, importing without image", slog.String("image", row.Image), slog.String("error", err.Error()))
	case err != nil:
		c.failed.Add(1)
		lg.Error("image upload failed", slog.String("error", err.Error()))
		return
	}

	p, err := im.products.Create(ctx, product.Fields{
		Name:     row.Name,
		Price:    &row.Price,
		Category: row.Category,
		ImageID:  imageID,
	})
	if err != nil {
		c.failed.Add(1)
		lg.Error("create product failed", slog.String("error", err.Error()))
		return
	}
	c.created.Add(1)
	lg.Info("created product", slog.String("id", p.ID))
}

// uploadImage returns nil when the row has no image.
func (im *Importer) uploadImage(ctx context.Context, name string) (*string, error) {
	if name == "" {
		return nil, nil
	}
	f, err := os.Open(filepath.Join(im.uploadsDir, filepath.Base(name)))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	file, err := im.images.Upload(ctx, filepath.Base(name), "", f)
	if err != nil {
		return nil, err
	}
	return &file.ID, nil
}
