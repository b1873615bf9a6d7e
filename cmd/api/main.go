package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/salestrack/internal/auth"
	"github.com/geocoder89/salestrack/internal/config"
	"github.com/geocoder89/salestrack/internal/db"
	httpx "github.com/geocoder89/salestrack/internal/http"
	"github.com/geocoder89/salestrack/internal/observability"
	"github.com/geocoder89/salestrack/internal/ratelimit"
	"github.com/geocoder89/salestrack/internal/repo/memory"
	"github.com/geocoder89/salestrack/internal/repo/postgres"
	"github.com/geocoder89/salestrack/internal/service"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run() (err error) {
	// a missing .env is fine outside local development
	_ = godotenv.Load()

	// Load the config set up
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// cleanups run in reverse order on the way out; their errors are joined
	// into the returned one
	var cleanups []func(context.Context) error
	defer func() {
		shutdownCtx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()
		for i := len(cleanups) - 1; i >= 0; i-- {
			err = multierr.Append(err, cleanups[i](shutdownCtx))
		}
	}()

	if cfg.OTELEnabled {
		shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName: "salestrack",
			Env:         cfg.Env,
			Endpoint:    cfg.OTELEndpoint,
			SampleRatio: cfg.OTELSampleRatio,
		})
		if err != nil {
			return err
		}
		cleanups = append(cleanups, shutdownTracer)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	repos, closeRepos, err := openStorage(ctx, cfg, prom, log)
	if err != nil {
		return err
	}
	cleanups = append(cleanups, closeRepos)

	limiter, closeLimiter := newLimiter(ctx, cfg, log)
	cleanups = append(cleanups, closeLimiter)

	if cfg.JWTSecret == "" {
		cfg.JWTSecret, err = randomSecret()
		if err != nil {
			return err
		}
		log.Warn("JWT_SECRET not set; using an ephemeral secret, tokens will not survive a restart")
	}

	users := service.NewUserService(repos.Users, log)
	created, err := users.EnsureAdministrator(ctx, cfg.AdminUsername, cfg.AdminPassword, cfg.AdminName)
	if err != nil {
		return fmt.Errorf("bootstrap administrator: %w", err)
	}
	if !created && cfg.AdminPassword == "" {
		log.Info("ADMIN_PASSWORD not set; skipping administrator bootstrap")
	}

	fallback, err := fallbackIdentity(ctx, cfg, repos)
	if err != nil {
		return err
	}

	router := httpx.NewRouter(log, cfg, httpx.Deps{
		Repos:    repos,
		Limiter:  limiter,
		Prom:     prom,
		Gatherer: reg,
		Fallback: fallback,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "storage", cfg.Storage)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info("server shutting down")

	shutdownCtx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}

func openStorage(ctx context.Context, cfg config.Config, prom *observability.Prom, log *slog.Logger) (httpx.Repositories, func(context.Context) error, error) {
	if cfg.Storage == "memory" {
		log.Warn("using in-memory storage; data is lost on restart")
		store := memory.NewStore()
		return httpx.Repositories{
			Leads:   store.Leads(),
			Users:   store.Users(),
			APIKeys: store.APIKeys(),
		}, func(context.Context) error { return nil }, nil
	}

	pool, err := db.NewPool(ctx, cfg.DBURL, cfg.DBMaxConns)
	if err != nil {
		return httpx.Repositories{}, nil, err
	}

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return httpx.Repositories{}, nil, err
		}
		log.Info("database migrations applied")
	}

	return httpx.Repositories{
			Leads:   postgres.NewLeadsRepo(pool, prom),
			Users:   postgres.NewUsersRepo(pool, prom),
			APIKeys: postgres.NewAPIKeysRepo(pool, prom),
			Ping:    pool.Ping,
		}, func(context.Context) error {
			pool.Close()
			return nil
		}, nil
}

// newLimiter prefers Redis so limits hold across replicas, and falls back
// to a per-process limiter when Redis is not configured or unreachable.
func newLimiter(ctx context.Context, cfg config.Config, log *slog.Logger) (ratelimit.Limiter, func(context.Context) error) {
	noop := func(context.Context) error { return nil }

	if cfg.RedisAddr == "" {
		return ratelimit.NewMemoryLimiter(cfg.APIRateLimit, cfg.APIRateWindow), noop
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	client, err := ratelimit.NewRedisClient(pingCtx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Warn("redis unavailable; using in-process rate limiter", "err", err)
		return ratelimit.NewMemoryLimiter(cfg.APIRateLimit, cfg.APIRateWindow), noop
	}

	return ratelimit.NewRedisLimiter(client, cfg.APIRateLimit, cfg.APIRateWindow), func(context.Context) error {
		return client.Close()
	}
}

func fallbackIdentity(ctx context.Context, cfg config.Config, repos httpx.Repositories) (*auth.Identity, error) {
	if cfg.AuthDevFallbackUserID == 0 {
		return nil, nil
	}

	u, err := repos.Users.GetByID(ctx, cfg.AuthDevFallbackUserID)
	if err != nil {
		return nil, fmt.Errorf("AUTH_DEV_FALLBACK_USER_ID=%d: %w", cfg.AuthDevFallbackUserID, err)
	}

	id := auth.IdentityOf(u)
	slog.Warn("development fallback identity enabled", "user_id", id.UserID, "role", id.Role)
	return &id, nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
