package config

import (
	"fmt"
	"time"
)

const (
	defaultAPIHTTPAddr    = ":3001"
	defaultMigrationsPath = "migrations/deposit"

	defaultDBMaxOpenConns    = 25
	defaultDBMaxIdleConns    = 5
	defaultDBConnMaxLifetime = 5 * time.Minute
	defaultDBPingTimeout     = 5 * time.Second
)

type API struct {
	DatabaseURL       string
	RabbitMQURL       string
	HTTPAddr          string
	MigrationsPath    string
	LogFormat         string
	ShutdownTimeout   time.Duration
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBPingTimeout     time.Duration
	ReadHeaderTimeout time.Duration
}

func LoadAPI() (API, error) {
	cfg := API{
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		RabbitMQURL:       getEnv("RABBITMQ_URL", ""),
		HTTPAddr:          getEnv("HTTP_ADDR", defaultAPIHTTPAddr),
		MigrationsPath:    getEnv("MIGRATIONS_PATH", defaultMigrationsPath),
		LogFormat:         getEnv("LOG_FORMAT", defaultLogFormat),
		ShutdownTimeout:   defaultShutdownTimeout,
		DBMaxOpenConns:    defaultDBMaxOpenConns,
		DBMaxIdleConns:    defaultDBMaxIdleConns,
		DBConnMaxLifetime: defaultDBConnMaxLifetime,
		DBPingTimeout:     defaultDBPingTimeout,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
	}

	if cfg.DatabaseURL == "" {
		return API{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RabbitMQURL == "" {
		return API{}, fmt.Errorf("RABBITMQ_URL is required")
	}

	return cfg, nil
}
