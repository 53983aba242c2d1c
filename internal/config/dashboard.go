package config

import (
	"fmt"
	"net/url"
	"time"
)

const (
	defaultDashboardHTTPAddr = ":8080"
	defaultAPIBaseURL        = "http://localhost:3001"
	defaultRenderWait        = 1500 * time.Millisecond
	defaultCacheMaxEntries   = 512
	defaultAPITimeout        = 10 * time.Second
)

type Dashboard struct {
	APIBaseURL string
	// RabbitMQURL is optional; without it cross-client invalidation is off.
	RabbitMQURL       string
	HTTPAddr          string
	LogFormat         string
	RenderWait        time.Duration
	CacheMaxEntries   int
	APITimeout        time.Duration
	ShutdownTimeout   time.Duration
	ReadHeaderTimeout time.Duration
}

func LoadDashboard() (Dashboard, error) {
	cfg := Dashboard{
		APIBaseURL:        getEnv("API_BASE_URL", defaultAPIBaseURL),
		RabbitMQURL:       getEnv("RABBITMQ_URL", ""),
		HTTPAddr:          getEnv("HTTP_ADDR", defaultDashboardHTTPAddr),
		LogFormat:         getEnv("LOG_FORMAT", defaultLogFormat),
		ShutdownTimeout:   defaultShutdownTimeout,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
	}

	var err error
	if cfg.RenderWait, err = getEnvDuration("RENDER_WAIT", defaultRenderWait); err != nil {
		return Dashboard{}, err
	}
	if cfg.CacheMaxEntries, err = getEnvInt("CACHE_MAX_ENTRIES", defaultCacheMaxEntries); err != nil {
		return Dashboard{}, err
	}
	if cfg.APITimeout, err = getEnvDuration("API_TIMEOUT", defaultAPITimeout); err != nil {
		return Dashboard{}, err
	}

	if u, err := url.Parse(cfg.APIBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return Dashboard{}, fmt.Errorf("API_BASE_URL must be an absolute URL")
	}
	if cfg.RenderWait <= 0 {
		return Dashboard{}, fmt.Errorf("RENDER_WAIT must be positive")
	}

	return cfg, nil
}
