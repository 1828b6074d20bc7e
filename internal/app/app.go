package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/katalog-toko/internal/domain/category"
	"github.com/xenking/katalog-toko/internal/domain/image"
	"github.com/xenking/katalog-toko/internal/domain/product"
	"github.com/xenking/katalog-toko/internal/handler"
	"github.com/xenking/katalog-toko/internal/storage/postgres"
	"github.com/xenking/katalog-toko/internal/storage/rediscache"
	"github.com/xenking/katalog-toko/pkg/health"
	"github.com/xenking/katalog-toko/pkg/httpmiddleware"
)

const (
	serviceName      = "katalog-api"
	categoryCacheTTL = 5 * time.Minute
)

// Telemetry provides the tracer and meter providers for the HTTP server.
// *app.Telemetry from go-faster/sdk satisfies it.
type Telemetry interface {
	TracerProvider() trace.TracerProvider
	MeterProvider() metric.MeterProvider
}

var _ Telemetry = (*app.Telemetry)(nil)

// Server is the wired API server. Close releases the store connections.
type Server struct {
	handler http.Handler
	probes  *health.Probes
	closers []func()
}

// Handler returns the instrumented root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Probes returns the liveness and readiness registry.
func (s *Server) Probes() *health.Probes {
	return s.probes
}

// Close releases resources in reverse creation order.
func (s *Server) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// NewServer connects the stores, runs migrations and builds the router with
// its middleware chain. Background work started here stops with ctx.
func NewServer(ctx context.Context, lg *zap.Logger, m Telemetry, cfg *Config) (_ *Server, rerr error) {
	layout := cfg.Store.Layout()
	s := &Server{probes: health.New()}
	defer func() {
		if rerr != nil {
			s.Close()
		}
	}()

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.Store.DatabaseURL, cfg.Store.ProjectID)
	if err != nil {
		return nil, errors.Wrap(err, "create db pool")
	}
	s.closers = append(s.closers, pool.Close)

	if err := postgres.RunMigrations(ctx, pool, layout); err != nil {
		return nil, errors.Wrap(err, "run migrations")
	}

	probes := s.probes
	probes.Register(health.Readiness, "postgres", health.PingCheck("postgres", pool), health.WithTimeout(5*time.Second))
	probes.Register(health.Liveness, "goroutines", health.GoroutineCountCheck(10000))

	// Repositories.
	productRepo := postgres.NewProductRepository(pool, layout)
	fileRepo := postgres.NewFileRepository(pool, layout)
	var categories category.Repository = postgres.NewCategoryRepository(pool, layout)

	if cfg.RedisAddr != "" {
		client, err := rediscache.New(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, errors.Wrap(err, "connect redis")
		}
		s.closers = append(s.closers, func() { _ = client.Close() })

		categories = rediscache.NewCategories(postgres.NewCategoryRepository(pool, layout), client, categoryCacheTTL)
		probes.Register(health.Readiness, "redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}, health.WithTimeout(2*time.Second))
		lg.Info("Category cache enabled", zap.String("redis", cfg.RedisAddr))
	}

	// Domain services.
	images := image.NewService(fileRepo, cfg.Upload.MaxBytes)
	products := product.NewService(productRepo, images)

	authn, err := handler.NewAdminAuthenticator(cfg.Admin.APIKey, cfg.Admin.JWTSecret)
	if err != nil {
		return nil, errors.Wrap(err, "create authenticator")
	}

	h := handler.NewHandler(
		handler.HandlerConfig{
			ImageBaseURL: cfg.ImageBaseURL,
			UploadLimit:  cfg.Upload.Limit,
			UploadWindow: cfg.Upload.Window,
		},
		products,
		categories,
		images,
		authn,
	)

	// Router: health endpoints + API routes on one server.
	router := chi.NewRouter()
	router.Get("/livez", probes.Livez)
	router.Get("/readyz", probes.Readyz)
	router.Route("/api", h.MountRoutes)
	routeFinder := httpmiddleware.MakeRouteFinder(router)

	chain := httpmiddleware.Wrap(router,
		httpmiddleware.Recovery(),
		httpmiddleware.SecureHeaders(httpmiddleware.SecureConfig{Production: cfg.Production}),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", "Authorization", handler.APIKeyHeader},
			ExposeHeaders:    []string{httpmiddleware.RequestIDHeader},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
		}),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.Instrument(serviceName, routeFinder, m),
		httpmiddleware.LogRequests(routeFinder),
		httpmiddleware.Labeler(routeFinder),
	)

	s.handler = otelhttp.NewHandler(chain, serviceName,
		otelhttp.WithTracerProvider(m.TracerProvider()),
		otelhttp.WithMeterProvider(m.MeterProvider()),
	)
	return s, nil
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	s, err := NewServer(ctx, zctx.From(ctx), m, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	probes := s.probes
	probes.Start(ctx, 10*time.Second)
	probes.SetReady(true)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           s.handler,
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		probes.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		probes.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
