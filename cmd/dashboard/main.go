package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"deposit-dashboard/internal/apiclient"
	"deposit-dashboard/internal/config"
	"deposit-dashboard/internal/dashboard"
	"deposit-dashboard/internal/deposit"
	"deposit-dashboard/internal/httpx"
	"deposit-dashboard/internal/invalidation"
	"deposit-dashboard/internal/listview"
	"deposit-dashboard/internal/logging"
	"deposit-dashboard/internal/platform"
	"deposit-dashboard/internal/querycache"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	metricCacheHits          = "dashboard_query_cache_hits_total"
	metricCacheMisses        = "dashboard_query_cache_misses_total"
	metricCacheInvalidations = "dashboard_query_cache_invalidations_total"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadDashboard()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.LogFormat)
	os.Exit(run(cfg, logger))
}

func run(cfg config.Dashboard, logger *slog.Logger) int {
	hits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: metricCacheHits,
		Help: "Queries served from a fresh cache entry",
	})
	misses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: metricCacheMisses,
		Help: "Queries that started or joined a fetch",
	})
	invalidations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: metricCacheInvalidations,
		Help: "Cache invalidations after mutations or product events",
	})
	prometheus.MustRegister(hits, misses, invalidations)

	cache := querycache.New(querycache.Options{
		Logger:        logger,
		MaxEntries:    cfg.CacheMaxEntries,
		Hits:          hits,
		Misses:        misses,
		Invalidations: invalidations,
	})
	client := apiclient.New(cfg.APIBaseURL, &http.Client{Timeout: cfg.APITimeout})

	templates, err := dashboard.NewTemplates()
	if err != nil {
		logger.Error("parse templates", "error", err)
		return 1
	}
	handler := dashboard.NewHandler(client, cache, logger, dashboard.Options{
		RenderWait: cfg.RenderWait,
	})

	router := httpx.NewEngine(logger)
	dashboard.RegisterRoutes(router, handler, templates)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var tasks []platform.Task
	if cfg.RabbitMQURL != "" {
		conn, err := amqp.Dial(cfg.RabbitMQURL)
		if err != nil {
			logger.Error("connect rabbitmq", "error", err)
			return 1
		}
		defer conn.Close()

		consumer, err := invalidation.NewConsumer(conn, listview.ProductsResource, cache, logger)
		if err != nil {
			logger.Error("init consumer", "error", err)
			return 1
		}
		defer consumer.Close()

		logger.Info("product event consumer started", "exchange", deposit.EventsExchange, "queue", consumer.Queue())
		tasks = append(tasks, consumer.Listen)
	} else {
		logger.Info("RABBITMQ_URL not set, cross-client invalidation disabled")
	}

	srv := platform.Server{
		HTTP: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           router,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		},
		Logger:          logger.With("component", "dashboard", "api", cfg.APIBaseURL),
		ShutdownTimeout: cfg.ShutdownTimeout,
	}
	if err := srv.Run(ctx, tasks...); err != nil {
		logger.Error("dashboard stopped", "error", err)
		return 1
	}
	return 0
}
