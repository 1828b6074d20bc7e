package app

import (
	"os"
	"strings"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"

	"github.com/xenking/katalog-toko/internal/storage/postgres"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (KATALOG_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	ImageBaseURL string `default:"" usage:"Public prefix of image URLs (defaults to /api/images)" flag:"image-base-url"`
	RedisAddr    string `default:"" usage:"Redis address for the category cache, empty disables it" flag:"redis-addr"`
	Store        StoreConfig
	Admin        AdminConfig
	Upload       UploadConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
	Production   bool `default:"false" usage:"Enable HSTS and HTTPS redirects"`
}

// StoreConfig locates the catalog store. ProjectID is reported to Postgres
// as application_name and DatabaseID selects the schema.
type StoreConfig struct {
	DatabaseURL          string `usage:"PostgreSQL connection URL (KATALOG_STORE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	ProjectID            string `usage:"Project identifier" flag:"project-id"`
	DatabaseID           string `usage:"Database (schema) identifier" flag:"database-id"`
	ProductsCollection   string `usage:"Products collection (table) name" flag:"products-collection"`
	CategoriesCollection string `usage:"Categories collection (table) name" flag:"categories-collection"`
	FilesCollection      string `default:"files" usage:"Files collection (table) name" flag:"files-collection"`
	BucketID             string `usage:"Image bucket identifier" flag:"bucket-id"`
}

// Layout maps the store configuration onto database object names.
func (s StoreConfig) Layout() postgres.Layout {
	return postgres.Layout{
		Schema:     s.DatabaseID,
		Products:   s.ProductsCollection,
		Categories: s.CategoriesCollection,
		Files:      s.FilesCollection,
		Bucket:     s.BucketID,
	}
}

// AdminConfig holds admin credentials. JWTSecret enables bearer tokens.
type AdminConfig struct {
	APIKey    string `usage:"Admin API key" flag:"admin-api-key"`
	JWTSecret string `default:"" usage:"HS256 secret for admin bearer tokens" flag:"admin-jwt-secret"`
}

// UploadConfig bounds image uploads.
type UploadConfig struct {
	MaxBytes int64         `default:"5242880" usage:"Maximum image size in bytes"`
	Limit    int           `default:"10" usage:"Uploads per client per window"`
	Window   time.Duration `default:"1m" usage:"Upload rate limit window"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables and YAML config
// files, applies platform defaults and checks required settings.
func LoadConfig() (*Config, error) {
	return loadConfig(os.Args[1:], []string{"config.yaml", "/etc/katalog/config.yaml"})
}

func loadConfig(args, files []string) (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "KATALOG",
		Args:      args,
		Files:     files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided DATABASE_URL and PORT.
func (c *Config) applyPlatformDefaults() {
	if c.Store.DatabaseURL == "" {
		c.Store.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var missing []string
	for _, req := range []struct {
		name  string
		value string
	}{
		{"Store.DatabaseURL", c.Store.DatabaseURL},
		{"Store.ProjectID", c.Store.ProjectID},
		{"Store.DatabaseID", c.Store.DatabaseID},
		{"Store.ProductsCollection", c.Store.ProductsCollection},
		{"Store.CategoriesCollection", c.Store.CategoriesCollection},
		{"Store.BucketID", c.Store.BucketID},
		{"Admin.APIKey", c.Admin.APIKey},
	} {
		if strings.TrimSpace(req.value) == "" {
			missing = append(missing, req.name)
		}
	}
	if len(missing) > 0 {
		return errors.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}
