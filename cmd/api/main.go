package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backend-tripline/internal/config"
	"backend-tripline/internal/db"
	"backend-tripline/internal/logging"
	"backend-tripline/internal/server"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var mainDepsProvider = defaultDeps
var mainRunner = realMain

func main() {
	mainRunner(mainDepsProvider())
}

type mainDeps struct {
	loadConfig   func() config.Config
	newLogger    func(level string) *zap.Logger
	openStores   func(context.Context, config.Config) (server.Stores, func(), error)
	connectRedis func(config.Config) *redis.Client
	notify       func(chan<- os.Signal, ...os.Signal)
	run          func(context.Context, config.Config, *zap.Logger, server.Stores, *redis.Client, <-chan os.Signal, ListenFunc) error
}

func defaultDeps() mainDeps {
	return mainDeps{
		loadConfig:   config.Load,
		newLogger:    logging.New,
		openStores:   openStores,
		connectRedis: db.ConnectRedis,
		notify:       signal.Notify,
		run:          Run,
	}
}

func realMain(deps mainDeps) {
	cfg := deps.loadConfig()
	log := deps.newLogger(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", zap.Error(err))
		return
	}

	stores, closeStores, err := deps.openStores(context.Background(), cfg)
	if err != nil {
		log.Error("store unavailable", zap.String("driver", cfg.StoreDriver), zap.Error(err))
		return
	}
	defer closeStores()

	rdb := deps.connectRedis(cfg)
	if rdb == nil {
		log.Info("redis not configured, live updates stay on this instance")
	}

	signals := make(chan os.Signal, 1)
	deps.notify(signals, syscall.SIGINT, syscall.SIGTERM)

	if err := deps.run(context.Background(), cfg, log, stores, rdb, signals, nil); err != nil {
		log.Error("server exited with error", zap.Error(err))
	}
}

// openStores connects the configured backend and makes sure its schema exists.
func openStores(ctx context.Context, cfg config.Config) (server.Stores, func(), error) {
	switch cfg.StoreDriver {
	case "sqlite":
		conn, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return server.Stores{}, nil, err
		}
		if err := db.EnsureSQLiteSchema(ctx, conn); err != nil {
			conn.Close()
			return server.Stores{}, nil, err
		}
		return server.SQLiteStores(conn), func() { conn.Close() }, nil
	case "postgres":
		pool, err := db.ConnectPostgres(cfg)
		if err != nil {
			return server.Stores{}, nil, err
		}
		if err := db.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return server.Stores{}, nil, err
		}
		return server.PostgresStores(pool), pool.Close, nil
	default:
		return server.Stores{}, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

type ListenFunc func(app *fiber.App, addr string) error

var defaultListen ListenFunc = func(app *fiber.App, addr string) error {
	return app.Listen(addr)
}

var shutdownFn = func(app *fiber.App, ctx context.Context) error {
	return app.ShutdownWithContext(ctx)
}

// Run starts the HTTP server and waits for termination signals.
func Run(ctx context.Context, cfg config.Config, log *zap.Logger, stores server.Stores, rdb *redis.Client, signals <-chan os.Signal, listen ListenFunc) error {
	if log == nil {
		log = zap.NewNop()
	}
	srv := server.NewServer(cfg, log, stores, rdb)

	if listen == nil {
		listen = defaultListen
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- listen(srv.App, cfg.ServerPort)
	}()
	log.Info("server started", zap.String("addr", cfg.ServerPort), zap.String("store", cfg.StoreDriver))

	select {
	case sig := <-signals:
		log.Info("shutting down", zap.Any("signal", sig))
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			_ = srv.Close()
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := shutdownFn(srv.App, shutdownCtx); err != nil {
		return err
	}
	if err := srv.Close(); err != nil {
		log.Warn("event sinks closed with error", zap.Error(err))
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	return nil
}
