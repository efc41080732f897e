// Package main is the entrypoint for the moneymanager API server.
package main

import (
	"cmp"
	"context"
	"io"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/moneymanager/moneymanager/internal/auth"
	"github.com/moneymanager/moneymanager/internal/cache"
	"github.com/moneymanager/moneymanager/internal/config"
	"github.com/moneymanager/moneymanager/internal/handler"
	"github.com/moneymanager/moneymanager/internal/metrics"
	"github.com/moneymanager/moneymanager/internal/middleware"
	"github.com/moneymanager/moneymanager/internal/repository"
	"github.com/moneymanager/moneymanager/internal/server"
	"github.com/moneymanager/moneymanager/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		repo.Close()
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	metricsRecorder := metrics.NewInMemory()

	// Keys are looked up in process memory first, then in Redis, and only
	// then fetched from the identity provider.
	resolver, err := auth.NewResolver(auth.ResolverConfig{
		URL:     cfg.JWKSURL(),
		Timeout: cfg.AuthJWKSTimeout,
		Cache: auth.NewChainKeyCache(
			auth.NewMemoryKeyCache(),
			cache.NewKeySetCache(cacheClient, cfg.AuthJWKSSharedTTL),
		),
		Logger:  logger,
		Metrics: metricsRecorder,
	})
	if err != nil {
		logger.Error("failed to configure key resolver", "error", err)
		os.Exit(1)
	}
	verifier := auth.NewVerifier(auth.VerifierConfig{
		Resolver: resolver,
		Issuer:   cfg.AuthIssuer,
		Audience: cfg.AuthAudience,
		Leeway:   cfg.AuthLeeway,
	})

	transactionService := service.NewTransactionService(repo.Transactions(), metricsRecorder)
	categoryService := service.NewCategoryService(repo.Categories(), metricsRecorder)

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	r := handler.NewRouter(handler.RouterConfig{
		Logger:       logger,
		Transactions: handler.NewTransactionHandler(transactionService, logger),
		Categories:   handler.NewCategoryHandler(categoryService, logger),
		Health:       handler.NewHealthHandler(repo, cacheClient, logger),
		Metrics:      handler.NewMetricsHandler(metricsRecorder),
		Auth: middleware.AuthConfig{
			Logger:   logger,
			Verifier: verifier,
			Metrics:  metricsRecorder,
		},
		RateLimit: middleware.RateLimitConfig{
			Logger:            logger,
			Limiter:           cacheClient,
			Enabled:           cfg.RateLimitEnabled,
			RequestsPerMinute: cfg.RateLimitRPM,
			Burst:             cfg.RateLimitBurst,
		},
		Security:    middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()},
		CORS:        corsCfg,
		MaxBodySize: cfg.MaxRequestBodySize,
	})

	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	// Registered first, closed last.
	srv.OnShutdown("postgres", func(context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("redis", func(context.Context) error {
		return cacheClient.Close()
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"jwks_url", cfg.JWKSURL(),
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// makes it the slog default.
func initLogger(cfg *config.Config) *slog.Logger {
	logger := newLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	return logger
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(level)}

	var h slog.Handler
	if strings.EqualFold(format, "text") {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(h).With(slog.String("service", "moneymanager"))
}

// parseLogLevel accepts slog level names in any case, including offsets
// such as "warn+2". Anything else means info.
func parseLogLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

var passwordPattern = regexp.MustCompile(`(?i)(password=)[^\s&]+`)

// redactURL drops the password from a connection URL, keeping the user name.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}
	if parsed.User != nil {
		name := parsed.User.Username()
		if name == "" {
			name = "redacted"
		}
		parsed.User = url.User(name)
	}
	if q := parsed.Query(); q.Has("password") {
		q.Set("password", "redacted")
		parsed.RawQuery = q.Encode()
	}
	return parsed.String()
}

// sanitizeError renders err with every secret replaced by its redacted form
// and any "password=" pair masked.
func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		msg = strings.ReplaceAll(msg, secret, cmp.Or(redactURL(secret), "[redacted]"))
		if u, perr := url.Parse(secret); perr == nil && u.User != nil {
			if pw, ok := u.User.Password(); ok && pw != "" {
				msg = strings.ReplaceAll(msg, pw, "redacted")
			}
		}
	}
	return passwordPattern.ReplaceAllString(msg, "${1}redacted")
}
