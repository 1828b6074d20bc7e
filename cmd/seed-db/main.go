// Command seed-db creates the catalog schema and loads the sample catalog.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"

	"github.com/xenking/katalog-toko/db"
	"github.com/xenking/katalog-toko/internal/domain/product"
	"github.com/xenking/katalog-toko/internal/seed"
	"github.com/xenking/katalog-toko/internal/storage/postgres"
)

type options struct {
	databaseURL string
	projectID   string
	seedFile    string
	layout      postgres.Layout
}

func main() {
	var opts options
	flag.StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&opts.projectID, "project-id", "katalog-seed", "application name reported to PostgreSQL")
	flag.StringVar(&opts.layout.Schema, "database-id", "public", "database (schema) identifier")
	flag.StringVar(&opts.layout.Products, "products-collection", "products", "products table name")
	flag.StringVar(&opts.layout.Categories, "categories-collection", "categories", "categories table name")
	flag.StringVar(&opts.layout.Files, "files-collection", "files", "files table name")
	flag.StringVar(&opts.layout.Bucket, "bucket-id", "product-images", "image bucket identifier")
	flag.StringVar(&opts.seedFile, "seed-file", "", "seed catalog JSON (defaults to the embedded catalog)")
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
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, opts options) error {
	data := db.Seed
	if opts.seedFile != "" {
		slog.Info("reading seed file", slog.String("path", opts.seedFile))
		b, err := os.ReadFile(opts.seedFile)
		if err != nil {
			return errors.Wrap(err, "read seed file")
		}
		data = b
	}
	catalog, err := seed.Parse(data)
	if err != nil {
		return err
	}

	slog.Info("connecting to database")
	pool, err := postgres.NewPool(ctx, opts.databaseURL, opts.projectID)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations", slog.String("schema", opts.layout.Schema))
	if err := postgres.RunMigrations(ctx, pool, opts.layout); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	products := postgres.NewProductRepository(pool, opts.layout)
	categories := postgres.NewCategoryRepository(pool, opts.layout)

	slog.Info("seeding catalog",
		slog.Int("categories", len(catalog.Categories)),
		slog.Int("products", len(catalog.Products)),
	)
	res, err := seed.Apply(ctx, catalog, categories, products, product.NewService(products, nil))
	if err != nil {
		return errors.Wrap(err, "apply seed")
	}

	slog.Info("seed applied",
		slog.Int("categories", res.Categories),
		slog.Int("created", res.Created),
		slog.Int("updated", res.Updated),
	)
	return nil
}
