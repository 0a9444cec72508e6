package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/crewparty/shiptasks/internal/bus"
	"github.com/crewparty/shiptasks/internal/config"
	"github.com/crewparty/shiptasks/internal/crew"
	"github.com/crewparty/shiptasks/internal/database"
	"github.com/crewparty/shiptasks/internal/migrations"
	"github.com/crewparty/shiptasks/internal/server"
	"github.com/crewparty/shiptasks/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	// --- Event bus ---
	var eventBus bus.Bus
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()

		redisBus := bus.NewRedisBus(ctx, rdb, "shiptasks:events", logger)
		defer redisBus.Close()
		eventBus = redisBus
		logger.Info("using redis event bus")
	} else {
		eventBus = bus.NewMemoryBus()
	}

	// --- Coordination core ---
	kv := store.NewSQLiteStore(db)
	mgr := crew.NewManager(ctx, kv, eventBus, logger)
	gw := crew.NewGateway(mgr, kv, logger)

	passcodeHash, err := bcrypt.GenerateFromPassword([]byte(cfg.HostPasscode), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing host passcode: %w", err)
	}

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Manager:          mgr,
		Gateway:          gw,
		Bus:              eventBus,
		DB:               db,
		Redis:            rdb,
		HostPasscodeHash: passcodeHash,
		PublicURL:        cfg.PublicURL,
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}
