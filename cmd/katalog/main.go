// Command katalog is the terminal storefront: browse the catalog, keep a
// local cart, check out and administer products.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/xenking/katalog-toko/internal/cart/boltstore"
	"github.com/xenking/katalog-toko/internal/cli"
	"github.com/xenking/katalog-toko/internal/client"
)

type options struct {
	api     string
	apiKey  string
	token   string
	cart    string
	logFile string
	debug   bool
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dir := filepath.Join(home, ".katalog")

	var opts options
	flag.StringVar(&opts.api, "api", envOr("KATALOG_API_URL", "http://localhost:8080/api"), "catalog API base URL")
	flag.StringVar(&opts.apiKey, "api-key", os.Getenv("KATALOG_ADMIN_API_KEY"), "admin API key")
	flag.StringVar(&opts.token, "token", os.Getenv("KATALOG_ADMIN_TOKEN"), "admin bearer token")
	flag.StringVar(&opts.cart, "cart", filepath.Join(dir, "cart.db"), "local cart database")
	flag.StringVar(&opts.logFile, "log", filepath.Join(dir, "katalog.log"), "log file")
	flag.BoolVar(&opts.debug, "debug", false, "log at debug level")
	flag.Usage = func() {
		_, _ = fmt.Fprint(flag.CommandLine.Output(), cli.Usage, "\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, opts, flag.Args()); err != nil {
		if errors.Is(err, cli.ErrUsage) {
			_, _ = fmt.Fprintln(os.Stderr, err)
			flag.Usage()
			os.Exit(2)
		}
		_, _ = fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// newLogger writes JSON logs to a rotated file; stdout belongs to the UI.
func newLogger(path string, debug bool) *zap.Logger {
	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}
	sink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	})
	core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), sink, level)
	return zap.New(core)
}

func run(ctx context.Context, opts options, args []string) error {
	if err := os.MkdirAll(filepath.Dir(opts.cart), 0o700); err != nil {
		return errors.Wrap(err, "create data dir")
	}

	lg := newLogger(opts.logFile, opts.debug)
	defer func() { _ = lg.Sync() }()

	catalog, err := client.New(opts.api, client.Options{
		APIKey: opts.apiKey,
		Token:  opts.token,
	})
	if err != nil {
		return errors.Wrap(err, "client")
	}

	carts, err := boltstore.Open(opts.cart)
	if err != nil {
		return err
	}
	defer func() { _ = carts.Close() }()

	return cli.New(catalog, carts, os.Stdout, lg).Run(ctx, args)
}
