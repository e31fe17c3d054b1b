package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	defaultServiceName        = "dropfour-server"
	defaultServerPort         = 8080
	defaultAllowedOrigin      = "*"
	defaultPromotionDelay     = 10 * time.Second
	defaultForfeitDelay       = 30 * time.Second
	defaultStoreTimeout       = 5 * time.Second
	defaultLeaderboardBackend = "memory"
	defaultLogLevel           = "info"
	defaultLogFormat          = "json"
)

// Config armazena todas as configurações do servidor.
type Config struct {
	ServiceName    string
	ServerPort     int
	AdvertisedHost string
	AllowedOrigin  string

	PromotionDelay time.Duration
	ForfeitDelay   time.Duration
	StoreTimeout   time.Duration

	LeaderboardBackend string
	PostgresDSN        string
	RedisURL           string

	NATSURL     string
	NATSSubject string

	ConsulAddrs string

	LogLevel  string
	LogFormat string
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive, got %s", key, raw)
	}
	return d, nil
}

// loadConfig carrega a configuração a partir de variáveis de ambiente.
func loadConfig() (*Config, error) {
	cfg := &Config{
		ServiceName:        getenv("SERVICE_NAME", defaultServiceName),
		AdvertisedHost:     os.Getenv("SERVICE_ADVERTISED_HOSTNAME"),
		AllowedOrigin:      getenv("ALLOWED_ORIGIN", defaultAllowedOrigin),
		LeaderboardBackend: getenv("LEADERBOARD_BACKEND", defaultLeaderboardBackend),
		PostgresDSN:        os.Getenv("POSTGRES_DSN"),
		RedisURL:           os.Getenv("REDIS_URL"),
		NATSURL:            os.Getenv("NATS_URL"),
		NATSSubject:        os.Getenv("NATS_SUBJECT"),
		ConsulAddrs:        os.Getenv("CONSUL_HTTP_ADDR"),
		LogLevel:           getenv("LOG_LEVEL", defaultLogLevel),
		LogFormat:          getenv("LOG_FORMAT", defaultLogFormat),
	}

	portStr := getenv("SERVER_PORT", strconv.Itoa(defaultServerPort))
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid SERVER_PORT: %d out of range", port)
	}
	cfg.ServerPort = port

	if cfg.PromotionDelay, err = durationEnv("PROMOTION_DELAY", defaultPromotionDelay); err != nil {
		return nil, err
	}
	if cfg.ForfeitDelay, err = durationEnv("FORFEIT_DELAY", defaultForfeitDelay); err != nil {
		return nil, err
	}
	if cfg.StoreTimeout, err = durationEnv("STORE_TIMEOUT", defaultStoreTimeout); err != nil {
		return nil, err
	}

	switch cfg.LeaderboardBackend {
	case "memory":
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("LEADERBOARD_BACKEND=postgres requires POSTGRES_DSN")
		}
	case "redis":
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("LEADERBOARD_BACKEND=redis requires REDIS_URL")
		}
	default:
		return nil, fmt.Errorf("unknown LEADERBOARD_BACKEND %q", cfg.LeaderboardBackend)
	}

	if cfg.ConsulAddrs != "" && cfg.AdvertisedHost == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve hostname: %w", err)
		}
		cfg.AdvertisedHost = hostname
	}

	return cfg, nil
}

func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	zcfg := zap.NewProductionConfig()
	if format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}
