// Package auth verifies bearer credentials against a remote key set and
// carries the resulting identity through the request context.
package auth

import (
	"context"
)

// Identity is the verified caller derived from a credential's claims.
type Identity struct {
	Subject string
}

// IsZero reports whether the identity carries no subject.
func (i Identity) IsZero() bool {
	return i.Subject == ""
}

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// identityContextKey is the context key for storing Identity.
	identityContextKey contextKey = "identity"
)

// ContextWithIdentity adds the verified identity to the context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFromContext retrieves the identity from the context.
// The second return value is false if the request was never verified.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(Identity)
	if !ok || id.IsZero() {
		return Identity{}, false
	}
	return id, true
}

// MustIdentityFromContext retrieves the identity from the context.
// Panics if not present (use only when the authenticate middleware has run).
func MustIdentityFromContext(ctx context.Context) Identity {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		panic("identity not found in context - ensure authenticate middleware is applied")
	}
	return id
}

// SubjectFromContext is a convenience function to get the subject from context.
// Returns empty string if not authenticated.
func SubjectFromContext(ctx context.Context) string {
	id, _ := IdentityFromContext(ctx)
	return id.Subject
}
