package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AllowedAlgorithms lists the only signing algorithms accepted. Symmetric and
// "none" algorithms are never accepted, which rules out algorithm confusion.
var AllowedAlgorithms = []string{"RS256", "ES256"}

// KeyResolver resolves a key identifier to a signing key.
type KeyResolver interface {
	ResolveKey(ctx context.Context, kid string) (*SigningKey, error)
}

// VerifierConfig holds configuration for the credential verifier.
type VerifierConfig struct {
	Resolver KeyResolver
	// Extractors defaults to DefaultExtractors.
	Extractors []Extractor
	// Issuer, when set, must equal the "iss" claim.
	Issuer string
	// Audience, when set, must be present in the "aud" claim.
	Audience string
	// Leeway allowed on exp/nbf/iat.
	Leeway time.Duration
}

// Verifier turns a request credential into a verified Identity.
type Verifier struct {
	resolver   KeyResolver
	extractors []Extractor
	parser     *jwt.Parser
}

var (
	errKeyAlgMismatch  = errors.New("key algorithm does not match token algorithm")
	errKeyTypeMismatch = errors.New("key type does not match token algorithm")
	errMissingSubject  = errors.New("token has no subject")
)

// NewVerifier creates a Verifier.
func NewVerifier(cfg VerifierConfig) *Verifier {
	extractors := cfg.Extractors
	if len(extractors) == 0 {
		extractors = DefaultExtractors
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(AllowedAlgorithms),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	if cfg.Leeway > 0 {
		opts = append(opts, jwt.WithLeeway(cfg.Leeway))
	}

	return &Verifier{
		resolver:   cfg.Resolver,
		extractors: extractors,
		parser:     jwt.NewParser(opts...),
	}
}

// Verify extracts the credential from r and verifies it.
func (v *Verifier) Verify(r *http.Request) (Identity, error) {
	token, ok := ExtractToken(r, v.extractors...)
	if !ok {
		return Identity{}, ErrNoCredential
	}
	return v.VerifyToken(r.Context(), token)
}

// VerifyToken checks the token's algorithm, signature and temporal claims.
// Key resolution failures are reported as KindKeyUnavailable, everything else
// as KindInvalidSignature.
func (v *Verifier) VerifyToken(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrNoCredential
	}

	var resolveErr error
	claims := &jwt.RegisteredClaims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)

		key, err := v.resolver.ResolveKey(ctx, kid)
		if err != nil {
			resolveErr = err
			return nil, err
		}
		if err := checkKey(key, t.Method.Alg()); err != nil {
			return nil, err
		}
		return key.Key, nil
	})
	if err != nil {
		if resolveErr != nil {
			return Identity{}, newAuthError(KindKeyUnavailable, resolveErr)
		}
		return Identity{}, newAuthError(KindInvalidSignature, err)
	}

	if claims.Subject == "" {
		return Identity{}, newAuthError(KindInvalidSignature, errMissingSubject)
	}

	return Identity{Subject: claims.Subject}, nil
}

// checkKey rejects a key whose published algorithm or key type does not fit alg.
func checkKey(key *SigningKey, alg string) error {
	if key.Algorithm != "" && key.Algorithm != alg {
		return fmt.Errorf("%w: key %q is %s, token is %s", errKeyAlgMismatch, key.KeyID, key.Algorithm, alg)
	}

	switch alg {
	case "RS256":
		if _, ok := key.Key.(*rsa.PublicKey); !ok {
			return errKeyTypeMismatch
		}
	case "ES256":
		pub, ok := key.Key.(*ecdsa.PublicKey)
		if !ok || pub.Curve != elliptic.P256() {
			return errKeyTypeMismatch
		}
	default:
		return errKeyTypeMismatch
	}
	return nil
}
