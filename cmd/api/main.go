package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/cleanbook/internal/api/router"
	"github.com/wolfman30/cleanbook/internal/catalog"
	appconfig "github.com/wolfman30/cleanbook/internal/config"
	"github.com/wolfman30/cleanbook/internal/http/handlers"
	"github.com/wolfman30/cleanbook/internal/observability/metrics"
	"github.com/wolfman30/cleanbook/internal/pricing"
	"github.com/wolfman30/cleanbook/internal/session"
	"github.com/wolfman30/cleanbook/internal/strapi"
	"github.com/wolfman30/cleanbook/internal/wizard"
	"github.com/wolfman30/cleanbook/pkg/logging"
)

func main() {
	// In development a .env file stands in for real environment config.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting cleanbook API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	strapiClient := strapi.NewClient(cfg.StrapiBaseURL, cfg.StrapiAPIToken, logger,
		strapi.WithTimeout(cfg.StrapiTimeout),
	)

	cat := catalog.New(strapiClient, logger,
		catalog.WithBusinessHours(cfg.BusinessHoursStart, cfg.BusinessHoursEnd),
	)
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), cfg.StrapiTimeout)
	if err := cat.Load(loadCtx); err != nil {
		// Serve anyway: sessions open with the services-loading flag set
		// and pick the list up once a refresh succeeds.
		logger.Error("initial catalog load failed", "error", err)
	}
	cancelLoad()

	sessions := buildSessionStore(cfg, logger)

	registry := prometheus.NewRegistry()
	bookingMetrics := metrics.NewBookingMetrics(registry)

	pricingCfg := pricing.Config{
		PropertyMultipliers: map[pricing.PropertyType]float64{
			pricing.PropertyHouse: cfg.PropertyMultiplierHouse,
			pricing.PropertyFlat:  cfg.PropertyMultiplierFlat,
		},
		CleaningSuppliesFee: cfg.CleaningSuppliesFee,
	}

	submitter := wizard.NewSubmitter(strapiClient, cat, logger,
		wizard.WithMetrics(bookingMetrics),
	)

	wizardHandler := handlers.NewWizardHandler(handlers.WizardHandlerConfig{
		Sessions:  sessions,
		Catalog:   cat,
		Submitter: submitter,
		Reader:    strapiClient,
		Pricing:   pricingCfg,
		Metrics:   bookingMetrics,
		Logger:    logger,
	})

	r := router.New(&router.Config{
		Logger:                logger,
		Wizard:                wizardHandler,
		MetricsHandler:        promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins:    cfg.CORSAllowedOrigins,
		SessionRatePerSec:     cfg.SessionRatePerSec,
		SessionRateBurst:      cfg.SessionRateBurst,
		SessionRateSweepEvery: cfg.SessionRateSweepEvery,
		SessionRateIdleAfter:  cfg.SessionRateIdleAfter,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Refresh reference data periodically so slot and price changes on the
	// data service show up without a restart.
	refreshCtx, cancelRefresh := context.WithCancel(context.Background())
	go refreshCatalog(refreshCtx, cat, cfg.StrapiTimeout, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	cancelRefresh()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server exited")
}

// buildSessionStore picks Redis when configured, falling back to the
// in-process store for development.
func buildSessionStore(cfg *appconfig.Config, logger *logging.Logger) session.Store {
	if cfg.RedisAddr == "" {
		logger.Info("using in-memory session store")
		return session.NewMemoryStore(cfg.SessionTTL)
	}

	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("redis unreachable, falling back to in-memory sessions", "error", err)
		return session.NewMemoryStore(cfg.SessionTTL)
	}

	logger.Info("using redis session store", "addr", cfg.RedisAddr)
	return session.NewRedisStore(client, cfg.SessionTTL)
}

func refreshCatalog(ctx context.Context, cat *catalog.Catalog, timeout time.Duration, logger *logging.Logger) {
	ticker := time.NewTicker(15 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			loadCtx, cancel := context.WithTimeout(ctx, timeout)
			if err := cat.Load(loadCtx); err != nil {
				logger.Error("catalog refresh failed", "error", err)
			}
			cancel()
		}
	}
}
