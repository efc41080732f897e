package auth

import (
	"context"
	"crypto"
	"sync"
)

// SigningKey is a public verification key published in the remote key set.
type SigningKey struct {
	KeyID     string
	Algorithm string // optional "alg" from the key set; empty means unspecified
	Key       crypto.PublicKey
}

// KeyCache stores signing keys by key identifier.
// Get returns (nil, nil) on a miss.
type KeyCache interface {
	Get(ctx context.Context, kid string) (*SigningKey, error)
	Set(ctx context.Context, key *SigningKey) error
}

// MemoryKeyCache is a process-wide key cache. Entries never expire.
type MemoryKeyCache struct {
	mu   sync.RWMutex
	keys map[string]*SigningKey
}

// NewMemoryKeyCache returns a cache pre-populated with keys.
func NewMemoryKeyCache(keys ...*SigningKey) *MemoryKeyCache {
	c := &MemoryKeyCache{keys: make(map[string]*SigningKey, len(keys))}
	for _, k := range keys {
		c.keys[k.KeyID] = k
	}
	return c
}

// Get returns the cached key for kid.
func (c *MemoryKeyCache) Get(_ context.Context, kid string) (*SigningKey, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.keys[kid], nil
}

// Set stores key under its key identifier. Last write wins.
func (c *MemoryKeyCache) Set(_ context.Context, key *SigningKey) error {
	c.mu.Lock()
	c.keys[key.KeyID] = key
	c.mu.Unlock()
	return nil
}

// Len returns the number of cached keys.
func (c *MemoryKeyCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.keys)
}

// ChainKeyCache reads layers in order and back-fills the faster layers on a hit
// in a slower one. Writes go to every layer.
type ChainKeyCache struct {
	layers []KeyCache
}

// NewChainKeyCache returns a cache that consults layers in order.
func NewChainKeyCache(layers ...KeyCache) *ChainKeyCache {
	return &ChainKeyCache{layers: layers}
}

// Get returns the first hit. A layer error is remembered and returned only
// when no layer has the key.
func (c *ChainKeyCache) Get(ctx context.Context, kid string) (*SigningKey, error) {
	var firstErr error
	for i, layer := range c.layers {
		key, err := layer.Get(ctx, kid)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if key == nil {
			continue
		}
		for j := 0; j < i; j++ {
			_ = c.layers[j].Set(ctx, key)
		}
		return key, nil
	}
	return nil, firstErr
}

// Set writes key to every layer and returns the first error.
func (c *ChainKeyCache) Set(ctx context.Context, key *SigningKey) error {
	var firstErr error
	for _, layer := range c.layers {
		if err := layer.Set(ctx, key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
