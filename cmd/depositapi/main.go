package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"deposit-dashboard/internal/config"
	deposithttp "deposit-dashboard/internal/deposit/http"
	"deposit-dashboard/internal/deposit/messaging"
	"deposit-dashboard/internal/deposit/repository"
	"deposit-dashboard/internal/deposit/service"
	"deposit-dashboard/internal/httpx"
	"deposit-dashboard/internal/logging"
	"deposit-dashboard/internal/platform"

	_ "deposit-dashboard/docs"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
)

const metricCreatedTotal = "deposit_products_created_total"

// @title        Deposit API
// @version      1.0
// @description  Deposit product registry with event notifications.
// @host         localhost:3001
// @BasePath     /
func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadAPI()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.LogFormat)
	os.Exit(run(cfg, logger))
}

func run(cfg config.API, logger *slog.Logger) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := platform.Migrate(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		logger.Error("run migrations", "error", err)
		return 1
	}

	db, err := platform.OpenPostgres(ctx, platform.PostgresOptions{
		URL:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		PingTimeout:     cfg.DBPingTimeout,
	})
	if err != nil {
		logger.Error("connect postgres", "error", err)
		return 1
	}
	defer db.Close()

	rabbitConn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		logger.Error("connect rabbitmq", "error", err)
		return 1
	}
	defer rabbitConn.Close()

	publisher, err := messaging.NewRabbitPublisher(rabbitConn)
	if err != nil {
		logger.Error("init publisher", "error", err)
		return 1
	}
	defer publisher.Close()

	created := prometheus.NewCounter(prometheus.CounterOpts{
		Name: metricCreatedTotal,
		Help: "Total number of deposit products registered",
	})
	prometheus.MustRegister(created)

	repo := repository.NewPostgres(db)
	router := httpx.NewEngine(logger)
	deposithttp.RegisterRoutes(router, deposithttp.NewHandler(service.New(repo, publisher, logger, created)), repo)

	srv := platform.Server{
		HTTP: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           router,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		},
		Logger:          logger.With("component", "deposit-api"),
		ShutdownTimeout: cfg.ShutdownTimeout,
	}
	if err := srv.Run(ctx); err != nil {
		logger.Error("deposit api stopped", "error", err)
		return 1
	}
	return 0
}
