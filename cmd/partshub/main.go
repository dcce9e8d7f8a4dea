package main

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"PartsHub/internal/api"
	"PartsHub/internal/config"
	"PartsHub/internal/session"
	"PartsHub/internal/store"
	"PartsHub/pkg/kit"
)

const startupTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		// no logger yet
		panic(err)
	}

	service := "partshub"
	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	catalog, err := buildStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("store init failed", zap.Error(err))
	}

	sessions, cleanup, err := buildSessions(ctx, cfg)
	if err != nil {
		log.Fatal("session store init failed", zap.Error(err))
	}
	defer cleanup()

	s := &api.Server{
		Store:        catalog,
		Sessions:     sessions,
		Log:          log,
		SessionTTL:   cfg.SessionTTL,
		CookieSecure: cfg.CookieSecure,
	}

	h := api.NewHandler(s, api.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       prometheus.NewRegistry(),
		MetricsEnabled: cfg.MetricsEnabled,
		MetricsToken:   cfg.MetricsToken,
	})

	if err := kit.RunHTTPServer(cfg.Addr, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

// buildStore picks the catalog backend and seeds it. A failed seed is
// fatal: the process must not serve an empty or partial catalog.
func buildStore(ctx context.Context, cfg config.Config, log *zap.Logger) (store.Store, error) {
	seed := store.DefaultSeed()

	if cfg.StoreBackend == config.BackendMemory {
		return store.NewMemStore(seed)
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := store.RunMigrations(db, cfg.MigrationsDir); err != nil {
		return nil, err
	}
	log.Info("database migrations applied")

	pg := store.NewPostgresStore(db)
	if err := pg.SeedIfEmpty(ctx, seed); err != nil {
		return nil, err
	}
	return pg, nil
}

func buildSessions(ctx context.Context, cfg config.Config) (session.Store, func(), error) {
	if cfg.SessionBackend == config.BackendMemory {
		s := session.NewMemStore()
		return s, func() { _ = s.Close() }, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, nil, err
	}
	return session.NewRedisStore(client), func() { _ = client.Close() }, nil
}
