package handler

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"slices"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/xenking/katalog-toko/internal/domain/auth"
)

// APIKeyHeader carries the admin API key.
const APIKeyHeader = "api_key"

// AdminRole is the JWT role granting admin access.
const AdminRole = "admin"

// Compile-time check ensuring AdminAuthenticator satisfies auth.Authenticator.
var _ auth.Authenticator = (*AdminAuthenticator)(nil)

// Claims are the JWT claims accepted for admin access.
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// AdminAuthenticator grants admin access for the configured API key or, when
// a signing secret is set, for an HS256 token carrying the admin role.
type AdminAuthenticator struct {
	pepper    []byte
	keyHash   []byte
	jwtSecret []byte
}

// NewAdminAuthenticator hashes apiKey with a per-process pepper. An empty
// jwtSecret disables token authentication.
func NewAdminAuthenticator(apiKey, jwtSecret string) (*AdminAuthenticator, error) {
	if apiKey == "" {
		return nil, errors.New("admin api key is required")
	}

	pepper := make([]byte, 32)
	if _, err := rand.Read(pepper); err != nil {
		return nil, errors.Wrap(err, "generate pepper")
	}

	a := &AdminAuthenticator{pepper: pepper}
	a.keyHash = a.hash(apiKey)
	if jwtSecret != "" {
		a.jwtSecret = []byte(jwtSecret)
	}
	return a, nil
}

func (a *AdminAuthenticator) hash(key string) []byte {
	mac := hmac.New(sha256.New, a.pepper)
	mac.Write([]byte(key))
	return mac.Sum(nil)
}

// Authenticate checks the API key first and the bearer token second.
func (a *AdminAuthenticator) Authenticate(_ context.Context, c auth.Credential) (*auth.Principal, error) {
	if c.APIKey != "" {
		// Both sides are HMACs of equal length, so the comparison time does
		// not depend on the presented key.
		if subtle.ConstantTimeCompare(a.hash(c.APIKey), a.keyHash) == 1 {
			return &auth.Principal{Subject: "api-key", Method: auth.MethodAPIKey}, nil
		}
		return nil, auth.ErrUnauthorized
	}

	if c.Bearer != "" && a.jwtSecret != nil {
		claims, err := a.parseToken(c.Bearer)
		if err != nil {
			return nil, errors.Wrap(auth.ErrUnauthorized, err.Error())
		}
		if !slices.Contains(claims.Roles, AdminRole) {
			return nil, errors.Wrap(auth.ErrUnauthorized, "admin role required")
		}
		return &auth.Principal{Subject: claims.Subject, Method: auth.MethodToken}, nil
	}

	return nil, auth.ErrUnauthorized
}

func (a *AdminAuthenticator) parseToken(tokenStr string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, errors.Wrap(err, "parse token")
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// IssueToken signs an admin token for subject. Used by operator tooling.
func (a *AdminAuthenticator) IssueToken(subject string, claims jwt.RegisteredClaims) (string, error) {
	if a.jwtSecret == nil {
		return "", errors.New("token signing is disabled")
	}
	claims.Subject = subject
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Roles:            []string{AdminRole},
		RegisteredClaims: claims,
	})
	return tok.SignedString(a.jwtSecret)
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireAdmin rejects requests without a valid admin credential with 401.
func RequireAdmin(authn auth.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := authn.Authenticate(r.Context(), auth.Credential{
				APIKey: r.Header.Get(APIKeyHeader),
				Bearer: BearerToken(r),
			})
			if err != nil {
				zctx.From(r.Context()).Debug("Admin authentication failed", zap.Error(err))
				writeFailure(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
		})
	}
}
