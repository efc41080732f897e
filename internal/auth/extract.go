package auth

import (
	"net/http"
	"strings"
)

// Extractor pulls a raw token from a request. It reports false when the
// request carries nothing it recognises.
type Extractor func(r *http.Request) (string, bool)

// DefaultExtractors tries the Authorization header before cookies.
var DefaultExtractors = []Extractor{BearerHeader, TokenCookie}

// BearerHeader reads "Authorization: Bearer <token>".
func BearerHeader(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

// TokenCookie returns the first cookie, in request order, whose value looks
// like a compact JWT (exactly two '.' separators). Cookie names vary between
// identity provider SDKs, so the name is not checked.
func TokenCookie(r *http.Request) (string, bool) {
	for _, c := range r.Cookies() {
		if IsTokenShaped(c.Value) {
			return c.Value, true
		}
	}
	return "", false
}

// IsTokenShaped reports whether s has exactly two '.' separators.
func IsTokenShaped(s string) bool {
	return strings.Count(s, ".") == 2
}

// ExtractToken runs extractors in order and returns the first match.
func ExtractToken(r *http.Request, extractors ...Extractor) (string, bool) {
	for _, extract := range extractors {
		if token, ok := extract(r); ok {
			return token, true
		}
	}
	return "", false
}
