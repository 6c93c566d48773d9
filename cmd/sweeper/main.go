// Command sweeper runs the scheduled jobs: the nightly external-source sync
// sweep and the morning reminder sweep. Scheduling lives here, outside the
// engine; the services only know how to sweep once.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/robfig/cron/v3"

	"fleetworks/internal/asset"
	"fleetworks/internal/category"
	"fleetworks/internal/ledger"
	ledgermetrics "fleetworks/internal/ledger/metrics"
	"fleetworks/internal/notify"
	notifymetrics "fleetworks/internal/notify/metrics"
	"fleetworks/internal/platform/config"
	"fleetworks/internal/platform/logger"
	platformredis "fleetworks/internal/platform/redis"
	"fleetworks/internal/reconcile"
	"fleetworks/internal/routing"
	"fleetworks/internal/status"
	statusmetrics "fleetworks/internal/status/metrics"
)

func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("sweeper exited", "error", err)
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

	factStore := ledger.NewPostgresFactStore(db)
	historyStore := ledger.NewPostgresHistoryStore(db)
	txRunner := ledger.NewPostgresTxRunner(db)
	categoryStore := category.NewPostgresStore(db)
	assetStore := asset.NewPostgresStore(db)

	ledgerService, err := ledger.NewService(factStore, historyStore, txRunner, log, ledgermetrics.New())
	if err != nil {
		return err
	}

	reconciler, err := reconcile.Build(cfg, rdb, log, categoryStore, assetStore, ledgerService)
	if err != nil {
		return err
	}

	sweeper, publisher, err := buildSweeper(ctx, cfg, log, assetStore, categoryStore, factStore)
	if err != nil {
		return err
	}
	if publisher != nil {
		defer publisher.Close()
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.Sweep.SyncSchedule, func() {
		result, err := reconciler.SyncAll(ctx)
		if err != nil {
			log.Error("sync sweep failed", "error", err)
			return
		}
		log.Info("sync sweep finished", "assets", result.Assets, "failed", result.Failures)
	}); err != nil {
		return err
	}
	if sweeper != nil {
		if _, err := c.AddFunc(cfg.Sweep.ReminderSchedule, func() {
			if err := sweeper.Sweep(ctx); err != nil {
				log.Error("reminder sweep failed", "error", err)
			}
		}); err != nil {
			return err
		}
	} else {
		log.Warn("reminder sweep disabled: no Kafka brokers configured")
	}

	log.Info("sweeper started",
		"sync_schedule", cfg.Sweep.SyncSchedule,
		"reminder_schedule", cfg.Sweep.ReminderSchedule,
	)
	c.Start()
	<-ctx.Done()

	log.Info("shutting down")
	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
	}
	return nil
}

func buildSweeper(ctx context.Context, cfg config.Config, log *slog.Logger,
	assets *asset.PostgresStore, categories *category.PostgresStore, facts *ledger.PostgresFactStore,
) (*notify.Sweeper, *notify.KafkaPublisher, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil, nil
	}

	publisher, err := notify.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
	if err != nil {
		return nil, nil, err
	}
	if err := publisher.EnsureTopic(ctx, 3, 1); err != nil {
		publisher.Close()
		return nil, nil, err
	}

	statusService, err := status.NewService(status.NewCalculator(cfg.Windows),
		assets, categories, facts, log, statusmetrics.New())
	if err != nil {
		publisher.Close()
		return nil, nil, err
	}
	router, err := routing.New(cfg.Routing.OfficeRecipients, cfg.Routing.WorkshopRecipients)
	if err != nil {
		publisher.Close()
		return nil, nil, err
	}
	sweeper, err := notify.NewSweeper(statusService, assets, categories, router, publisher, log, notifymetrics.New())
	if err != nil {
		publisher.Close()
		return nil, nil, err
	}
	return sweeper, publisher, nil
}
