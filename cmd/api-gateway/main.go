package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-habit-api/api/swagger"
	"github.com/noah-isme/sma-habit-api/internal/app"
	"github.com/noah-isme/sma-habit-api/pkg/config"
	"github.com/noah-isme/sma-habit-api/pkg/database"
	"github.com/noah-isme/sma-habit-api/pkg/logger"
	"github.com/noah-isme/sma-habit-api/pkg/observability"
)

const release = "0.1.0"

// @title SMA Habit API
// @version 0.1.0
// @description Onboarding imports, habit submissions and activity reports for school homerooms.
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	flush, err := observability.InitSentry(cfg.Sentry, release)
	if err != nil {
		logr.Warn("sentry disabled", zap.Error(err))
	} else {
		defer flush()
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db.DB); err != nil {
			logr.Fatal("failed to run migrations", zap.Error(err))
		}
		if version, err := database.MigrationVersion(db.DB); err == nil {
			logr.Info("database migrated", zap.Int64("version", version))
		}
	}

	locker, closeLocker, err := app.NewLocker(cfg.Redis, logr)
	if err != nil {
		logr.Fatal("failed to init import lock", zap.Error(err))
	}
	defer closeLocker()

	svcs, err := app.NewServices(cfg, db, locker, logr)
	if err != nil {
		logr.Fatal("failed to wire services", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go app.RunCleanup(ctx, svcs.Exports, cfg.Reports.CleanupInterval, logr.Named("cleanup"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.NewRouter(cfg, svcs, db, logr),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
