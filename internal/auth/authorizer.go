// Package auth provides the authorization collaborator for ledger
// operations: every mutating operation names the party whose consent it
// requires, and the authorizer checks that the caller is that party.
package auth

import (
	"context"
	"errors"
)

var (
	// ErrNotAuthorized is returned when the caller is not the identity an
	// operation requires consent from.
	ErrNotAuthorized = errors.New("not authorized")

	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("authorization token required")
)

// Authorizer checks that the caller behind ctx has authorized an operation
// on behalf of the given identity.
type Authorizer interface {
	RequireAuth(ctx context.Context, identity string) error
}

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity returns a context carrying the authenticated caller identity.
// The HTTP middleware sets this after validating the bearer token; tests set
// it directly.
func WithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext extracts the authenticated identity from the context.
// Returns empty string if not found.
func IdentityFromContext(ctx context.Context) string {
	identity, _ := ctx.Value(identityKey).(string)
	return identity
}

// ContextAuthorizer authorizes an identity iff it matches the authenticated
// identity carried by the context.
type ContextAuthorizer struct{}

func (ContextAuthorizer) RequireAuth(ctx context.Context, identity string) error {
	caller := IdentityFromContext(ctx)
	if caller == "" {
		return ErrMissingToken
	}
	if caller != identity {
		return ErrNotAuthorized
	}
	return nil
}
