package reconcile

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"

	"fleetworks/internal/platform/config"
	platformredis "fleetworks/internal/platform/redis"
	"fleetworks/internal/reconcile/cache"
	"fleetworks/internal/reconcile/metrics"
	"fleetworks/internal/reconcile/source"
	"fleetworks/internal/reconcile/source/mot"
	"fleetworks/internal/reconcile/source/ves"
)

// Build assembles the source clients, the optional Redis cache layer, and the
// reconciliation service from configuration. Both binaries wire the
// reconciler through here so their assembly cannot drift.
func Build(cfg config.Config, rdb *platformredis.Client, log *slog.Logger,
	categories CategoryStore, assets AssetStore, ldg Ledger,
) (*Service, error) {
	tokens, err := mot.NewTokenSource(&http.Client{Timeout: cfg.TestHistory.Timeout},
		cfg.TestHistory.TokenURL, cfg.TestHistory.ClientID, cfg.TestHistory.ClientSecret, cfg.TestHistory.Scope)
	if err != nil {
		return nil, err
	}
	historyClient, err := mot.NewClient(&http.Client{Timeout: cfg.TestHistory.Timeout},
		cfg.TestHistory.BaseURL, cfg.TestHistory.APIKey, tokens, log)
	if err != nil {
		return nil, err
	}
	regClient, err := ves.NewClient(&http.Client{Timeout: cfg.Registration.Timeout},
		cfg.Registration.BaseURL, cfg.Registration.APIKey, log)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	history := source.TestHistoryClient(historyClient)
	registration := source.RegistrationClient(regClient)
	if rdb != nil {
		c, err := cache.New(rdb.Client, cfg.Redis.CacheTTL, log, m)
		if err != nil {
			return nil, err
		}
		history = c.TestHistory(history)
		registration = c.Registration(registration)
	}

	return NewService(history, registration, categories, assets, ldg,
		cfg.Fixtures, log, m, otel.Tracer("fleetworks/reconcile"))
}
