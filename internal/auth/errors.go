package auth

import (
	"errors"
	"fmt"
)

// Kind classifies an authentication failure.
type Kind string

// Authentication failure kinds.
const (
	KindNoCredential     Kind = "no_credential"
	KindInvalidSignature Kind = "invalid_signature"
	KindKeyUnavailable   Kind = "key_unavailable"
)

// AuthError is returned by the verifier for every rejected request.
// Err holds the underlying cause and is never shown to clients.
type AuthError struct {
	Kind Kind
	Err  error
}

// Sentinel values for errors.Is comparisons against an *AuthError.
var (
	ErrNoCredential     = &AuthError{Kind: KindNoCredential}
	ErrInvalidSignature = &AuthError{Kind: KindInvalidSignature}
	ErrKeyUnavailable   = &AuthError{Kind: KindKeyUnavailable}
)

// ErrKeyFetch is wrapped by every key resolver failure.
var ErrKeyFetch = errors.New("signing key fetch failed")

func (e *AuthError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("auth: %s", e.Kind)
	}
	return fmt.Sprintf("auth: %s: %v", e.Kind, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Is matches any *AuthError of the same kind.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newAuthError(kind Kind, cause error) *AuthError {
	return &AuthError{Kind: kind, Err: cause}
}

// KindOf returns the failure kind of err, or "" if err is not an *AuthError.
func KindOf(err error) Kind {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Kind
	}
	return ""
}
