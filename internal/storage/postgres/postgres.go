// Package postgres implements the catalog store on PostgreSQL: product and
// category tables plus a bucketed file table for images.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/katalog-toko/db"
)

// Layout names the database objects the store uses. Schema, Products and
// Categories come from configuration; Bucket partitions the files table.
type Layout struct {
	Schema     string
	Products   string
	Categories string
	Files      string
	Bucket     string
}

func (l Layout) withDefaults() Layout {
	if l.Schema == "" {
		l.Schema = "public"
	}
	if l.Products == "" {
		l.Products = "products"
	}
	if l.Categories == "" {
		l.Categories = "categories"
	}
	if l.Files == "" {
		l.Files = "files"
	}
	if l.Bucket == "" {
		l.Bucket = "product-images"
	}
	return l
}

func (l Layout) table(name string) string {
	return pgx.Identifier{l.Schema, name}.Sanitize()
}

// index returns a sanitized, unqualified index name for table.
func index(table, suffix string) string {
	return pgx.Identifier{strings.ToLower(table) + "_" + suffix}.Sanitize()
}

// NewPool creates a pgxpool.Pool configured with shopspring/decimal support
// for NUMERIC columns. A non-empty appName is reported as application_name.
func NewPool(ctx context.Context, databaseURL, appName string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	if appName != "" {
		cfg.ConnConfig.RuntimeParams["application_name"] = appName
	}

	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	return pool, nil
}

var schemaTmpl = template.Must(template.New("schema").Parse(db.Schema))

// RenderSchema returns the DDL for layout.
func RenderSchema(layout Layout) (string, error) {
	l := layout.withDefaults()

	var b strings.Builder
	if err := schemaTmpl.Execute(&b, map[string]string{
		"Schema":              pgx.Identifier{l.Schema}.Sanitize(),
		"Products":            l.table(l.Products),
		"ProductsCreatedIdx":  index(l.Products, "created_at_idx"),
		"ProductsCategoryIdx": index(l.Products, "category_idx"),
		"ProductsSearchIdx":   index(l.Products, "name_search_idx"),
		"Categories":          l.table(l.Categories),
		"Files":               l.table(l.Files),
		"FilesBucketIdx":      index(l.Files, "bucket_idx"),
	}); err != nil {
		return "", fmt.Errorf("rendering schema: %w", err)
	}
	return b.String(), nil
}

// RunMigrations creates the schema, tables and indexes for layout.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, layout Layout) error {
	ddl, err := RenderSchema(layout)
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}
