// Command server runs the maintenance compliance HTTP API.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"fleetworks/internal/asset"
	assethandler "fleetworks/internal/asset/handler"
	"fleetworks/internal/category"
	categoryhandler "fleetworks/internal/category/handler"
	"fleetworks/internal/completion"
	completionhandler "fleetworks/internal/completion/handler"
	httpapi "fleetworks/internal/http"
	"fleetworks/internal/jwttoken"
	"fleetworks/internal/ledger"
	ledgerhandler "fleetworks/internal/ledger/handler"
	ledgermetrics "fleetworks/internal/ledger/metrics"
	"fleetworks/internal/platform/config"
	"fleetworks/internal/platform/httpserver"
	"fleetworks/internal/platform/logger"
	platformmetrics "fleetworks/internal/platform/metrics"
	platformredis "fleetworks/internal/platform/redis"
	"fleetworks/internal/reconcile"
	reconcilehandler "fleetworks/internal/reconcile/handler"
	"fleetworks/internal/status"
	statushandler "fleetworks/internal/status/handler"
	statusmetrics "fleetworks/internal/status/metrics"
	"fleetworks/internal/task"
)

func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if cfg.Database.DSN == "" {
		return errors.New("DATABASE_DSN is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return err
	}

	rdb, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	httpMetrics := platformmetrics.New()

	// Stores.
	factStore := ledger.NewPostgresFactStore(db)
	historyStore := ledger.NewPostgresHistoryStore(db)
	txRunner := ledger.NewPostgresTxRunner(db)
	categoryStore := category.NewPostgresStore(db)
	assetStore := asset.NewPostgresStore(db)
	taskStore := task.NewPostgresStore(db)

	// Ledger.
	ledgerService, err := ledger.NewService(factStore, historyStore, txRunner, log, ledgermetrics.New())
	if err != nil {
		return err
	}

	// Status reads.
	statusService, err := status.NewService(
		status.NewCalculator(cfg.Windows),
		assetStore, categoryStore, factStore, log, statusmetrics.New())
	if err != nil {
		return err
	}

	// Completion feedback.
	completionService, err := completion.NewService(taskStore, categoryStore, ledgerService, log)
	if err != nil {
		return err
	}

	// Administration.
	categoryService, err := category.NewService(categoryStore, log)
	if err != nil {
		return err
	}
	assetService, err := asset.NewService(assetStore, log)
	if err != nil {
		return err
	}

	// External-source reconciliation.
	reconcileService, err := reconcile.Build(cfg, rdb, log,
		categoryStore, assetStore, ledgerService)
	if err != nil {
		return err
	}

	validator := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer)

	router := httpapi.NewRouter(log, httpMetrics, validator,
		statushandler.New(statusService, log),
		completionhandler.New(completionService, log),
		categoryhandler.New(categoryService, log),
		assethandler.New(assetService, log),
		ledgerhandler.New(ledgerService, log),
		reconcilehandler.New(reconcileService, log),
	)

	srv := httpserver.New(cfg.Server.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
