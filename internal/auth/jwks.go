package auth

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/moneymanager/moneymanager/internal/metrics"
)

const (
	// DefaultFetchTimeout bounds a single key-set request.
	DefaultFetchTimeout = 5 * time.Second

	// maxKeySetBytes caps the key-set document size.
	maxKeySetBytes = 1 << 20

	// fetchGroupKey names the single in-flight key-set request.
	fetchGroupKey = "keyset"
)

// jwkSet is the key-set document served by the identity provider.
type jwkSet struct {
	Keys []jwk `json:"keys"`
}

// jwk holds the fields needed to build RSA and EC public keys.
type jwk struct {
	Kty string `json:"kty"`
	Use string `json:"use,omitempty"`
	Alg string `json:"alg,omitempty"`
	Kid string `json:"kid,omitempty"`
	// RSA
	N string `json:"n,omitempty"`
	E string `json:"e,omitempty"`
	// EC
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`
}

// ResolverConfig holds configuration for the key resolver.
type ResolverConfig struct {
	// URL is the key-set endpoint.
	URL string
	// Timeout bounds each fetch. Defaults to DefaultFetchTimeout.
	Timeout time.Duration
	// Client is optional; a client with Timeout is created when nil.
	Client *http.Client
	// Cache is optional; a MemoryKeyCache is used when nil.
	Cache   KeyCache
	Logger  *slog.Logger
	Metrics metrics.Recorder
}

// Resolver resolves key identifiers to signing keys, fetching the remote key
// set on a cache miss. Keys stay cached for the life of the cache; a key
// rotated out of the remote set keeps verifying until the process restarts.
// Concurrent misses share one in-flight fetch.
type Resolver struct {
	flight  singleflight.Group
	url     string
	timeout time.Duration
	client  *http.Client
	cache   KeyCache
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewResolver creates a Resolver for the configured key-set endpoint.
func NewResolver(cfg ResolverConfig) (*Resolver, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid key-set URL %q", cfg.URL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	cache := cfg.Cache
	if cache == nil {
		cache = NewMemoryKeyCache()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return &Resolver{
		url:     u.String(),
		timeout: timeout,
		client:  client,
		cache:   cache,
		logger:  logger,
		metrics: recorder,
	}, nil
}

// ResolveKey returns the signing key for kid. Every failure wraps ErrKeyFetch.
// An empty kid resolves only when the remote set holds exactly one usable key.
func (r *Resolver) ResolveKey(ctx context.Context, kid string) (*SigningKey, error) {
	key, err := r.cache.Get(ctx, kid)
	if err != nil {
		r.logger.Warn("key cache read failed",
			slog.String("kid", kid),
			slog.String("error", err.Error()),
		)
	}
	if key != nil {
		r.metrics.IncKeyCacheHit()
		return key, nil
	}
	r.metrics.IncKeyCacheMiss()

	keys, err := r.fetchShared(ctx)
	if err != nil {
		return nil, err
	}

	var match *SigningKey
	for _, k := range keys {
		if err := r.cache.Set(ctx, k); err != nil {
			r.logger.Warn("key cache write failed",
				slog.String("kid", k.KeyID),
				slog.String("error", err.Error()),
			)
		}
		if k.KeyID == kid {
			match = k
		}
	}

	if match == nil && kid == "" && len(keys) == 1 {
		match = keys[0]
		// Alias the key under the empty kid so later kid-less tokens hit.
		alias := *match
		alias.KeyID = ""
		if err := r.cache.Set(ctx, &alias); err != nil {
			r.logger.Warn("key cache write failed",
				slog.String("kid", ""),
				slog.String("error", err.Error()),
			)
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: no key matches kid %q", ErrKeyFetch, kid)
	}

	return match, nil
}

// fetchShared collapses concurrent fetches into one request. The request is
// detached from the first caller's cancellation and bounded by r.timeout.
func (r *Resolver) fetchShared(ctx context.Context) ([]*SigningKey, error) {
	v, err, _ := r.flight.Do(fetchGroupKey, func() (any, error) {
		return r.fetch(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	return v.([]*SigningKey), nil
}

// fetch downloads and decodes the key set. Keys that cannot be converted are
// skipped; a set with no usable keys is an error.
func (r *Resolver) fetch(ctx context.Context) ([]*SigningKey, error) {
	start := time.Now()
	defer func() {
		r.metrics.ObserveKeyFetchDuration(time.Since(start))
	}()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrKeyFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %s", ErrKeyFetch, resp.Status)
	}

	var doc jwkSet
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxKeySetBytes)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode key set: %w", ErrKeyFetch, err)
	}

	keys := make([]*SigningKey, 0, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Use != "" && k.Use != "sig" {
			continue
		}
		pub, err := jwkToPublicKey(k)
		if err != nil {
			r.logger.Debug("skipping unusable key",
				slog.String("kid", k.Kid),
				slog.String("error", err.Error()),
			)
			continue
		}
		keys = append(keys, &SigningKey{KeyID: k.Kid, Algorithm: k.Alg, Key: pub})
	}

	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: key set has no usable keys", ErrKeyFetch)
	}

	r.logger.Info("key set fetched",
		slog.Int("keys", len(keys)),
		slog.Duration("duration", time.Since(start)),
	)

	return keys, nil
}

func b64uToBigInt(s string) (*big.Int, error) {
	if s == "" {
		return nil, errors.New("empty base64url")
	}
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(b), nil
}

func jwkToPublicKey(k jwk) (crypto.PublicKey, error) {
	switch strings.ToUpper(k.Kty) {
	case "RSA":
		n, err := b64uToBigInt(k.N)
		if err != nil {
			return nil, fmt.Errorf("rsa n: %w", err)
		}
		eBig, err := b64uToBigInt(k.E)
		if err != nil {
			return nil, fmt.Errorf("rsa e: %w", err)
		}
		if !eBig.IsInt64() || eBig.Int64() > int64(^uint32(0)>>1) {
			return nil, errors.New("rsa exponent too large")
		}
		return &rsa.PublicKey{N: n, E: int(eBig.Int64())}, nil

	case "EC":
		var curve elliptic.Curve
		switch k.Crv {
		case "P-256":
			curve = elliptic.P256()
		case "P-384":
			curve = elliptic.P384()
		case "P-521":
			curve = elliptic.P521()
		default:
			return nil, fmt.Errorf("unsupported EC curve: %q", k.Crv)
		}
		x, err := b64uToBigInt(k.X)
		if err != nil {
			return nil, fmt.Errorf("ec x: %w", err)
		}
		y, err := b64uToBigInt(k.Y)
		if err != nil {
			return nil, fmt.Errorf("ec y: %w", err)
		}
		if !curve.IsOnCurve(x, y) {
			return nil, errors.New("ec point not on curve")
		}
		return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil

	default:
		return nil, fmt.Errorf("unsupported kty: %q", k.Kty)
	}
}
