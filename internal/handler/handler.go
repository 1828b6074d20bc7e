package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/xenking/katalog-toko/internal/domain/auth"
	"github.com/xenking/katalog-toko/internal/domain/category"
	"github.com/xenking/katalog-toko/internal/domain/image"
	"github.com/xenking/katalog-toko/internal/domain/product"
)

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// ImageBaseURL is the prefix of public image URLs. Stored file ids are
	// appended to it. Defaults to the image endpoint of this API.
	ImageBaseURL string
	// UploadLimit and UploadWindow bound uploads per client IP.
	UploadLimit  int
	UploadWindow time.Duration
}

// Handler serves the catalog API, delegating business logic to the product
// service, the category store and the image service.
type Handler struct {
	products   *product.Service
	categories category.Repository
	images     *image.Service
	auth       auth.Authenticator

	urls         image.URLBuilder
	uploadLimit  int
	uploadWindow time.Duration
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	cfg HandlerConfig,
	products *product.Service,
	categories category.Repository,
	images *image.Service,
	authn auth.Authenticator,
) *Handler {
	base := strings.TrimSpace(cfg.ImageBaseURL)
	if base == "" {
		base = "/api/images"
	}
	if cfg.UploadLimit <= 0 {
		cfg.UploadLimit = 10
	}
	if cfg.UploadWindow <= 0 {
		cfg.UploadWindow = time.Minute
	}

	return &Handler{
		products:     products,
		categories:   categories,
		images:       images,
		auth:         authn,
		urls:         image.URLBuilder{Base: base},
		uploadLimit:  cfg.UploadLimit,
		uploadWindow: cfg.UploadWindow,
	}
}

// MountRoutes registers the API routes on r. Mutating routes require an
// admin credential.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products", h.listProducts)
	r.Get("/products/{id}", h.getProduct)
	r.Get("/categories", h.listCategories)
	r.Get("/images/{id}", h.serveImage)

	r.Group(func(gr chi.Router) {
		gr.Use(RequireAdmin(h.auth))
		gr.Post("/products", h.createProduct)
		gr.Put("/products", h.updateProduct)
		gr.Delete("/products", h.deleteProduct)

		gr.With(httprate.Limit(h.uploadLimit, h.uploadWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				writeFailure(w, http.StatusTooManyRequests, "Too many uploads, try again later")
			}),
		)).Post("/upload", h.uploadImage)
	})
}
