package cache

import (
	"context"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/moneymanager/moneymanager/internal/auth"
)

const (
	keySetPrefix = "jwks:key:"
	// DefaultKeySetTTL bounds how long a published key is shared across processes.
	DefaultKeySetTTL = time.Hour
)

// cachedKey is the Redis representation of a signing key.
type cachedKey struct {
	KeyID     string `json:"kid"`
	Algorithm string `json:"alg"`
	DER       []byte `json:"der"`
}

// KeySetCache stores resolved signing keys in Redis so that every API process
// shares one fetch of the key set. It implements auth.KeyCache.
type KeySetCache struct {
	cache *Cache
	ttl   time.Duration
}

var _ auth.KeyCache = (*KeySetCache)(nil)

// NewKeySetCache creates a KeySetCache. A non-positive ttl uses DefaultKeySetTTL.
func NewKeySetCache(c *Cache, ttl time.Duration) *KeySetCache {
	if ttl <= 0 {
		ttl = DefaultKeySetTTL
	}
	return &KeySetCache{cache: c, ttl: ttl}
}

// Get returns the key for kid, or nil, nil when Redis has no entry.
func (k *KeySetCache) Get(ctx context.Context, kid string) (*auth.SigningKey, error) {
	data, err := k.cache.client.Get(ctx, redisKey(keySetPrefix, kid)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get signing key: %w", err)
	}
	return decodeKey(data)
}

// Set stores key under its kid.
func (k *KeySetCache) Set(ctx context.Context, key *auth.SigningKey) error {
	data, err := encodeKey(key)
	if err != nil {
		return err
	}
	if err := k.cache.client.Set(ctx, redisKey(keySetPrefix, key.KeyID), data, k.ttl).Err(); err != nil {
		return fmt.Errorf("set signing key: %w", err)
	}
	return nil
}

func encodeKey(key *auth.SigningKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(key.Key)
	if err != nil {
		return nil, fmt.Errorf("marshal signing key %q: %w", key.KeyID, err)
	}
	return json.Marshal(cachedKey{KeyID: key.KeyID, Algorithm: key.Algorithm, DER: der})
}

func decodeKey(data []byte) (*auth.SigningKey, error) {
	var ck cachedKey
	if err := json.Unmarshal(data, &ck); err != nil {
		return nil, fmt.Errorf("decode signing key: %w", err)
	}
	pub, err := x509.ParsePKIXPublicKey(ck.DER)
	if err != nil {
		return nil, fmt.Errorf("parse signing key %q: %w", ck.KeyID, err)
	}
	return &auth.SigningKey{KeyID: ck.KeyID, Algorithm: ck.Algorithm, Key: pub}, nil
}
