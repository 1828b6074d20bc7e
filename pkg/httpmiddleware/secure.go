package httpmiddleware

import (
	"net/http"

	"github.com/unrolled/secure"
)

// SecureConfig configures SecureHeaders.
type SecureConfig struct {
	// Production enables HSTS and HTTPS redirects behind X-Forwarded-Proto.
	Production bool
}

// SecureHeaders sets the standard browser hardening headers.
func SecureHeaders(cfg SecureConfig) Middleware {
	s := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        cfg.Production,
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		STSSeconds:         stsSeconds(cfg.Production),
		IsDevelopment:      !cfg.Production,
	})
	return func(next http.Handler) http.Handler {
		return s.Handler(next)
	}
}

func stsSeconds(production bool) int64 {
	if production {
		return 31536000
	}
	return 0
}
