package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ledonna/billing/internal/billing"
	"github.com/ledonna/billing/internal/handler"
	"github.com/ledonna/billing/internal/metrics"
	"github.com/ledonna/billing/internal/storage/postgres"
	"github.com/ledonna/billing/internal/stripe"
	"github.com/ledonna/billing/pkg/config"
	"github.com/ledonna/billing/pkg/httpserver"
	"github.com/ledonna/billing/pkg/logger"
	"github.com/ledonna/billing/pkg/pg"
)

type appConfig struct {
	LogLevel  slog.Level    `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat logger.Format `env:"LOG_FORMAT" envDefault:"json"`

	HTTP   httpserver.Config
	PG     pg.Config
	Stripe stripe.Config
}

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.New(
		logger.WithLevel(cfg.LogLevel),
		logger.WithFormat(cfg.LogFormat),
		logger.WithService("billing"),
	)
	logger.SetAsDefault(log)

	ctx := context.Background()

	pool, err := pg.Connect(ctx, cfg.PG)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, cfg.PG, log); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	provider, err := stripe.NewProvider(cfg.Stripe, log)
	if err != nil {
		log.Error("stripe client initialization failed", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	customers := postgres.NewCustomerStore(pool)
	subscriptions := postgres.NewSubscriptionStore(pool)

	checkout := billing.NewCheckoutService(billing.DefaultCatalog(), provider, customers, log)
	reconciler := billing.NewReconciler(provider, customers, subscriptions, log)

	router := handler.NewRouter(handler.RouterConfig{
		Checkout:    handler.NewCheckoutHandler(checkout, collector, log),
		Webhook:     handler.NewWebhookHandler(provider, reconciler, collector, log),
		Healthcheck: pg.Healthcheck(pool),
		Gatherer:    registry,
		Log:         log,
	})

	srv := httpserver.New(
		httpserver.WithAddr(cfg.HTTP.Addr),
		httpserver.WithReadTimeout(cfg.HTTP.ReadTimeout),
		httpserver.WithWriteTimeout(cfg.HTTP.WriteTimeout),
		httpserver.WithIdleTimeout(cfg.HTTP.IdleTimeout),
		httpserver.WithShutdownTimeout(cfg.HTTP.ShutdownTimeout),
		httpserver.WithLogger(log),
	)
	if err := srv.Run(ctx, router); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}
