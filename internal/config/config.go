// Package config loads all service connection settings from environment
// variables (optionally seeded from a .env file), with defaults for local
// development. No secrets are ever hardcoded.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"
)

type Config struct {
	AppEnv    string
	APIPort   string
	LogLevel  string
	LogFormat string

	// Document store
	StoreDriver   string // mongo | postgres
	MongoURI      string
	MongoDatabase string
	PostgresDSN   string

	// Elasticsearch. Empty URL means search falls back to in-process matching.
	ElasticsearchURL      string
	ElasticsearchUsername string
	ElasticsearchPassword string
	ElasticsearchAPIKey   string
	SearchIndex           string
	SearchSyncMode        string // direct | queue

	// RabbitMQ, required in queue sync mode
	RabbitMQURL string

	// Read cache
	CacheDriver string // memory | redis | none
	CacheTTL    time.Duration
	RedisAddr   string

	// Admin auth
	AuthProvider      string // firebase | hmac
	FirebaseProjectID string
	FirebaseCertsURL  string
	AuthHMACSecret    string
	AdminEmailDomain  string

	// Scheduled full reindex (cron syntax, e.g. "@daily"). Empty disables it.
	ReindexSchedule string

	RateLimitRPS       float64
	RateLimitBurst     int
	CORSAllowedOrigins []string
}

// IsProduction reports whether destructive maintenance must be refused.
func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

// IsDevelopment reports whether error details may be exposed to clients.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

// SearchEnabled reports whether a hosted search index is configured.
func (c *Config) SearchEnabled() bool {
	return c.ElasticsearchURL != ""
}

// Load reads the .env file (if any) and the environment, applies defaults and
// validates that every setting required by the selected drivers is present.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		AppEnv:                strings.ToLower(v.GetString("APP_ENV")),
		APIPort:               v.GetString("API_PORT"),
		LogLevel:              v.GetString("LOG_LEVEL"),
		LogFormat:             v.GetString("LOG_FORMAT"),
		StoreDriver:           strings.ToLower(v.GetString("STORE_DRIVER")),
		MongoURI:              v.GetString("MONGO_URI"),
		MongoDatabase:         v.GetString("MONGO_DATABASE"),
		PostgresDSN:           v.GetString("POSTGRES_DSN"),
		ElasticsearchURL:      v.GetString("ELASTICSEARCH_URL"),
		ElasticsearchUsername: v.GetString("ELASTICSEARCH_USERNAME"),
		ElasticsearchPassword: v.GetString("ELASTICSEARCH_PASSWORD"),
		ElasticsearchAPIKey:   v.GetString("ELASTICSEARCH_API_KEY"),
		SearchIndex:           v.GetString("SEARCH_INDEX"),
		SearchSyncMode:        strings.ToLower(v.GetString("SEARCH_SYNC_MODE")),
		RabbitMQURL:           v.GetString("RABBITMQ_URL"),
		CacheDriver:           strings.ToLower(v.GetString("CACHE_DRIVER")),
		CacheTTL:              v.GetDuration("CACHE_TTL"),
		RedisAddr:             v.GetString("REDIS_ADDR"),
		AuthProvider:          strings.ToLower(v.GetString("AUTH_PROVIDER")),
		FirebaseProjectID:     v.GetString("FIREBASE_PROJECT_ID"),
		FirebaseCertsURL:      v.GetString("FIREBASE_CERTS_URL"),
		AuthHMACSecret:        v.GetString("AUTH_HMAC_SECRET"),
		AdminEmailDomain:      v.GetString("ADMIN_EMAIL_DOMAIN"),
		ReindexSchedule:       v.GetString("REINDEX_SCHEDULE"),
		RateLimitRPS:          v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst:        v.GetInt("RATE_LIMIT_BURST"),
		CORSAllowedOrigins:    splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", EnvDevelopment)
	v.SetDefault("API_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("STORE_DRIVER", "mongo")
	v.SetDefault("MONGO_DATABASE", "carrental")
	v.SetDefault("SEARCH_INDEX", "cars")
	v.SetDefault("SEARCH_SYNC_MODE", "direct")
	v.SetDefault("CACHE_DRIVER", "memory")
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("AUTH_PROVIDER", "firebase")
	v.SetDefault("FIREBASE_CERTS_URL", "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com")
	v.SetDefault("RATE_LIMIT_RPS", 10)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
}

func validateConfig(cfg *Config) error {
	switch cfg.AppEnv {
	case EnvDevelopment, EnvTest, EnvProduction:
	default:
		return fmt.Errorf("APP_ENV %q is not one of development, test, production", cfg.AppEnv)
	}

	switch cfg.StoreDriver {
	case "mongo":
		if cfg.MongoURI == "" {
			return errors.New("MONGO_URI is required")
		}
		if cfg.MongoDatabase == "" {
			return errors.New("MONGO_DATABASE is required")
		}
	case "postgres":
		if cfg.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	switch cfg.SearchSyncMode {
	case "direct":
	case "queue":
		if cfg.RabbitMQURL == "" {
			return errors.New("RABBITMQ_URL is required when SEARCH_SYNC_MODE=queue")
		}
		if cfg.ElasticsearchURL == "" {
			return errors.New("ELASTICSEARCH_URL is required when SEARCH_SYNC_MODE=queue")
		}
	default:
		return fmt.Errorf("unknown SEARCH_SYNC_MODE %q", cfg.SearchSyncMode)
	}

	switch cfg.CacheDriver {
	case "memory", "none":
	case "redis":
		if cfg.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required when CACHE_DRIVER=redis")
		}
	default:
		return fmt.Errorf("unknown CACHE_DRIVER %q", cfg.CacheDriver)
	}
	if cfg.CacheTTL <= 0 {
		return errors.New("CACHE_TTL must be positive")
	}

	switch cfg.AuthProvider {
	case "firebase":
		if cfg.FirebaseProjectID == "" {
			return errors.New("FIREBASE_PROJECT_ID is required")
		}
	case "hmac":
		if cfg.AuthHMACSecret == "" {
			return errors.New("AUTH_HMAC_SECRET is required")
		}
	default:
		return fmt.Errorf("unknown AUTH_PROVIDER %q", cfg.AuthProvider)
	}
	if strings.Trim(cfg.AdminEmailDomain, "@ ") == "" {
		return errors.New("ADMIN_EMAIL_DOMAIN is required")
	}

	if cfg.RateLimitRPS <= 0 || cfg.RateLimitBurst <= 0 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

// loadEnvFile seeds the environment from the nearest .env, walking up to the
// module root. Variables already set in the environment win.
func loadEnvFile() {
	dir, err := os.Getwd()
	if err != nil {
		return
	}
	for {
		path := filepath.Join(dir, ".env")
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
