package testutil

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TestKey is a signing key pair published in a test key set.
type TestKey struct {
	Kid     string
	Alg     string
	Private crypto.Signer
}

// Public returns the public half of the key.
func (k *TestKey) Public() crypto.PublicKey {
	return k.Private.Public()
}

// NewRSAKey generates an RS256 key.
func NewRSAKey(t testing.TB, kid string) *TestKey {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	return &TestKey{Kid: kid, Alg: "RS256", Private: priv}
}

// NewECKey generates an ES256 key.
func NewECKey(t testing.TB, kid string) *TestKey {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate ec key: %v", err)
	}
	return &TestKey{Kid: kid, Alg: "ES256", Private: priv}
}

// JWK renders the public key as a JSON Web Key.
func (k *TestKey) JWK() map[string]string {
	out := map[string]string{"kid": k.Kid, "alg": k.Alg, "use": "sig"}
	switch pub := k.Public().(type) {
	case *rsa.PublicKey:
		out["kty"] = "RSA"
		out["n"] = b64u(pub.N.Bytes())
		out["e"] = b64u(big.NewInt(int64(pub.E)).Bytes())
	case *ecdsa.PublicKey:
		size := (pub.Curve.Params().BitSize + 7) / 8
		out["kty"] = "EC"
		out["crv"] = pub.Curve.Params().Name
		out["x"] = b64u(pub.X.FillBytes(make([]byte, size)))
		out["y"] = b64u(pub.Y.FillBytes(make([]byte, size)))
	}
	return out
}

// KeySetJSON renders keys as a key-set document.
func KeySetJSON(t testing.TB, keys ...*TestKey) []byte {
	t.Helper()
	jwks := make([]map[string]string, 0, len(keys))
	for _, k := range keys {
		jwks = append(jwks, k.JWK())
	}
	data, err := json.Marshal(map[string]any{"keys": jwks})
	if err != nil {
		t.Fatalf("marshal key set: %v", err)
	}
	return data
}

// SignToken signs claims with key, setting the kid header.
func SignToken(t testing.TB, key *TestKey, claims jwt.Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.GetSigningMethod(key.Alg), claims)
	token.Header["kid"] = key.Kid
	signed, err := token.SignedString(key.Private)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

// TokenFor signs a one-hour token for subject.
func TokenFor(t testing.TB, key *TestKey, subject string) string {
	t.Helper()
	now := time.Now()
	return SignToken(t, key, jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    "test-issuer",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	})
}

// KeySetServer serves a key-set document and counts requests.
type KeySetServer struct {
	*httptest.Server
	hits atomic.Int64
}

// Hits returns the number of requests served.
func (s *KeySetServer) Hits() int64 {
	return s.hits.Load()
}

// NewKeySetServer starts a server publishing keys. It is closed on test cleanup.
func NewKeySetServer(t testing.TB, keys ...*TestKey) *KeySetServer {
	t.Helper()
	body := KeySetJSON(t, keys...)
	s := &KeySetServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(s.Close)
	return s
}

func b64u(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}
