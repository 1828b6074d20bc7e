package auth

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrUnauthorized is returned when a request carries no valid admin credential.
var ErrUnauthorized = errors.New("unauthorized")

// Method identifies how a principal authenticated.
type Method string

const (
	MethodAPIKey Method = "api_key"
	MethodToken  Method = "token"
)

// Credential holds the raw credentials presented with a request. Either field
// may be empty.
type Credential struct {
	APIKey string
	Bearer string
}

// Principal is an authenticated admin identity.
type Principal struct {
	Subject string
	Method  Method
}

// Authenticator decides whether a credential grants admin access.
type Authenticator interface {
	Authenticate(ctx context.Context, c Credential) (*Principal, error)
}

type principalKey struct{}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored in ctx, if any.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
