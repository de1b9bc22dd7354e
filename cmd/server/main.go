// Command vault-server starts the encrypted-vault HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/iota-pi/flock-sub001/internal/limiter"
	"github.com/iota-pi/flock-sub001/internal/migrate"
	httpserver "github.com/iota-pi/flock-sub001/internal/server/http"
	"github.com/iota-pi/flock-sub001/internal/service"
	"github.com/iota-pi/flock-sub001/internal/storage"
	"github.com/iota-pi/flock-sub001/internal/storage/memory"
	"github.com/iota-pi/flock-sub001/internal/storage/postgres"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main parses configuration, runs migrations, and starts the HTTP server.
func main() {
	addr := flag.String("addr", ":8080", "listen address")
	dsn := flag.String("dsn", "", "PostgreSQL DSN (required unless --dev)")
	dev := flag.Bool("dev", false, "run on in-memory storage (no DSN needed)")
	allocRetries := flag.Int("alloc-retries", service.DefaultAllocRetries, "account id allocation retry budget")
	maxBatch := flag.Int("max-batch", 1000, "max batch write size")
	loginWindow := flag.Duration("login-window", 15*time.Minute, "login failure counting window")
	loginMaxFails := flag.Int("login-max-fails", 5, "failed logins before temporary block")
	loginBlock := flag.Duration("login-block", 15*time.Minute, "temporary login block duration")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", *addr),
		zap.Bool("dev", *dev),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		driver storage.Driver
		lim    limiter.Limiter
	)
	if *dev {
		driver = memory.New().Driver()
		lim = limiter.NewMemory(*loginWindow, *loginMaxFails, *loginBlock)
	} else {
		if *dsn == "" {
			logger.Fatal("missing PostgreSQL DSN (--dsn)")
		}
		if err := migrate.Up(ctx, *dsn); err != nil {
			logger.Fatal("migrate up", zap.Error(err))
		}
		db, err := postgres.New(ctx, *dsn)
		if err != nil {
			logger.Fatal("postgres.New", zap.Error(err))
		}
		defer db.Close()
		driver = postgres.NewDriver(db)
		lim = limiter.NewPGWithQuerier(db.Pool, *loginWindow, *loginMaxFails, *loginBlock)
	}

	authSvc := service.NewAuthService(driver.Accounts, lim, *allocRetries)
	itemSvc := service.NewItemService(driver.Items, *maxBatch)
	subSvc := service.NewSubscriptionService(driver.Subscriptions)

	app := httpserver.New(authSvc, itemSvc, subSvc, logger)
	srv := &http.Server{
		Addr:              *addr,
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", *addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
