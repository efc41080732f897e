package middleware

import (
	"log/slog"
	"net/http"

	"github.com/moneymanager/moneymanager/internal/auth"
	"github.com/moneymanager/moneymanager/internal/metrics"
)

// Response bodies for rejected credentials. Invalid and unverifiable tokens
// share one message.
const (
	msgNoToken      = "No token provided"
	msgInvalidToken = "Invalid token"
)

// Verifier verifies the credential carried by a request.
type Verifier interface {
	Verify(r *http.Request) (auth.Identity, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger   *slog.Logger
	Verifier Verifier
	Metrics  metrics.Recorder
	// Extractors locate the token for the log fingerprint. Defaults to
	// auth.DefaultExtractors and should match the verifier's.
	Extractors []auth.Extractor
}

// Authenticate returns a middleware that verifies the request credential and
// attaches the caller's identity to the request context. Requests without a
// credential get 401; every other failure gets 403.
func Authenticate(cfg AuthConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	extractors := cfg.Extractors
	if len(extractors) == 0 {
		extractors = auth.DefaultExtractors
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := cfg.Verifier.Verify(r)
			if err != nil {
				kind := auth.KindOf(err)
				if kind == "" {
					kind = auth.KindInvalidSignature
				}
				recorder.IncAuthFailure(string(kind))

				token, _ := auth.ExtractToken(r, extractors...)
				attrs := []any{
					slog.String("reason", string(kind)),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("token_fp", auth.Fingerprint(token)),
					slog.String("request_id", GetRequestID(r.Context())),
				}

				switch kind {
				case auth.KindNoCredential:
					logger.Warn("authentication failed", attrs...)
					w.Header().Set("WWW-Authenticate", "Bearer")
					writeError(w, http.StatusUnauthorized, msgNoToken)
				case auth.KindKeyUnavailable:
					logger.Error("authentication failed", append(attrs, slog.String("error", err.Error()))...)
					writeError(w, http.StatusForbidden, msgInvalidToken)
				default:
					logger.Warn("authentication failed", append(attrs, slog.String("error", err.Error()))...)
					writeError(w, http.StatusForbidden, msgInvalidToken)
				}
				return
			}

			recorder.IncAuthSuccess()
			logger.Debug("authentication successful",
				slog.String("subject", identity.Subject),
				slog.String("endpoint", r.Method+" "+r.URL.Path),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			ctx := auth.ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
