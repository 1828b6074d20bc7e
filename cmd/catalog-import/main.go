// Command catalog-import migrates products from a legacy SQL dump
// (optionally gzip-compressed) into the catalog store, uploading the
// referenced images from an uploads directory.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"

	"github.com/xenking/katalog-toko/internal/domain/image"
	"github.com/xenking/katalog-toko/internal/domain/product"
	"github.com/xenking/katalog-toko/internal/importer"
	"github.com/xenking/katalog-toko/internal/storage/postgres"
)

type options struct {
	dumpFile    string
	uploadsDir  string
	databaseURL string
	projectID   string
	workers     int
	layout      postgres.Layout
}

func main() {
	var opts options
	flag.StringVar(&opts.dumpFile, "dump", "database_schema.sql", "legacy SQL dump (.sql or .sql.gz)")
	flag.StringVar(&opts.uploadsDir, "uploads-dir", "uploads", "directory holding the images referenced by the dump")
	flag.StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&opts.projectID, "project-id", "katalog-import", "application name reported to PostgreSQL")
	flag.IntVar(&opts.workers, "workers", 4, "concurrent product imports")
	flag.StringVar(&opts.layout.Schema, "database-id", "public", "database (schema) identifier")
	flag.StringVar(&opts.layout.Products, "products-collection", "products", "products table name")
	flag.StringVar(&opts.layout.Categories, "categories-collection", "categories", "categories table name")
	flag.StringVar(&opts.layout.Files, "files-collection", "files", "files table name")
	flag.StringVar(&opts.layout.Bucket, "bucket-id", "product-images", "image bucket identifier")
	flag.Parse()

	if opts.databaseURL == "" {
		opts.databaseURL = os.Getenv("DATABASE_URL")
	}
	if opts.databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, opts); err != nil {
		slog.Error("catalog import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog import completed successfully")
}

func run(ctx context.Context, opts options) error {
	f, err := os.Open(opts.dumpFile)
	if err != nil {
		return errors.Wrap(err, "open dump")
	}
	defer func() { _ = f.Close() }()

	dump, err := importer.Open(f)
	if err != nil {
		return err
	}
	defer func() { _ = dump.Close() }()

	slog.Info("connecting to database")
	pool, err := postgres.NewPool(ctx, opts.databaseURL, opts.projectID)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool, opts.layout); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	products := postgres.NewProductRepository(pool, opts.layout)
	images := image.NewService(postgres.NewFileRepository(pool, opts.layout), image.MaxUploadBytes)

	slog.Info("importing dump",
		slog.String("dump", opts.dumpFile),
		slog.String("uploads", opts.uploadsDir),
		slog.Int("workers", opts.workers),
	)
	im := importer.New(products, product.NewService(products, images), images, opts.uploadsDir, opts.workers)
	stats, err := im.Run(ctx, dump)
	if err != nil {
		return err
	}

	slog.Info("import finished",
		slog.Int64("parsed", stats.Parsed),
		slog.Int64("created", stats.Created),
		slog.Int64("skipped", stats.Skipped),
		slog.Int64("failed", stats.Failed),
		slog.Int64("missing_images", stats.MissingImages),
	)
	if stats.Failed > 0 {
		return errors.Errorf("%d products failed to import", stats.Failed)
	}
	return nil
}
