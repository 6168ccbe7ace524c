package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/service"
)

// Store backends for the shown-notification ledger.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config is the full process configuration.
type Config struct {
	Server       Server
	Notification service.Config
	Store        Store
	Redis        RedisConfig
	Kafka        KafkaConfig
	Log          LogConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	APISigningKey string
}

type Store struct {
	Backend     string
	DatabaseURL string
}

// RedisConfig configures the go-redis client. An empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the server-notification feed. No brokers means the
// feed is off and records arrive only through the control API.
type KafkaConfig struct {
	Brokers     []string
	Topic       string
	Group       string
	CreateTopic bool
}

type LogConfig struct {
	Format string
	Level  string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	var errs []string
	duration := func(key string, def time.Duration) time.Duration {
		raw := os.Getenv(key)
		if raw == "" {
			return def
		}
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			errs = append(errs, fmt.Sprintf("%s: invalid duration %q", key, raw))
			return def
		}
		return d
	}
	integer := func(key string, def int) int {
		raw := os.Getenv(key)
		if raw == "" {
			return def
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			errs = append(errs, fmt.Sprintf("%s: invalid integer %q", key, raw))
			return def
		}
		return n
	}

	notification := service.DefaultConfig()
	notification.DeliveryInterval = duration("NOTIFY_DELIVERY_INTERVAL", notification.DeliveryInterval)
	notification.TapDebounce = duration("NOTIFY_TAP_DEBOUNCE", notification.TapDebounce)
	notification.WarmNavigationDelay = duration("NOTIFY_WARM_NAV_DELAY", notification.WarmNavigationDelay)
	notification.ColdNavigationDelay = duration("NOTIFY_COLD_NAV_DELAY", notification.ColdNavigationDelay)
	notification.NotificationsRoute = env("NOTIFY_NOTIFICATIONS_ROUTE", notification.NotificationsRoute)
	notification.Channel.ID = env("NOTIFY_CHANNEL_ID", notification.Channel.ID)
	if notification.DeliveryInterval == 0 {
		errs = append(errs, "NOTIFY_DELIVERY_INTERVAL: must be positive")
	}

	signingKey := os.Getenv("NOTIFYD_API_SIGNING_KEY")
	if signingKey == "" {
		// Use a default for development - should be overridden in production
		signingKey = "dev-secret-key-change-in-production"
	}

	cfg := Config{
		Server: Server{
			Addr:          env("NOTIFYD_ADDR", ":8090"),
			APISigningKey: signingKey,
		},
		Notification: notification,
		Store: Store{
			Backend:     strings.ToLower(env("STORE_BACKEND", StoreMemory)),
			DatabaseURL: os.Getenv("DATABASE_URL"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:     splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:       env("KAFKA_TOPIC", "wallet.notifications"),
			Group:       env("KAFKA_GROUP", "notifyd"),
			CreateTopic: os.Getenv("KAFKA_CREATE_TOPIC") == "true",
		},
		Log: LogConfig{
			Format: env("LOG_FORMAT", "json"),
			Level:  env("LOG_LEVEL", "info"),
		},
	}

	switch cfg.Store.Backend {
	case StoreMemory:
	case StoreRedis:
		if cfg.Redis.URL == "" {
			errs = append(errs, "REDIS_URL: required when STORE_BACKEND=redis")
		}
	case StorePostgres:
		if cfg.Store.DatabaseURL == "" {
			errs = append(errs, "DATABASE_URL: required when STORE_BACKEND=postgres")
		}
	default:
		errs = append(errs, fmt.Sprintf("STORE_BACKEND: unknown backend %q", cfg.Store.Backend))
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
