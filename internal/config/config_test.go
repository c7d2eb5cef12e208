package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setMinimalEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "test")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("FIREBASE_PROJECT_ID", "esrent-test")
	t.Setenv("ADMIN_EMAIL_DOMAIN", "esrent.ae")
}

func TestLoad_Defaults(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.APIPort)
	assert.Equal(t, "mongo", cfg.StoreDriver)
	assert.Equal(t, "cars", cfg.SearchIndex)
	assert.Equal(t, "direct", cfg.SearchSyncMode)
	assert.Equal(t, "memory", cfg.CacheDriver)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.SearchEnabled())
}

func TestLoad_FailsFast(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"missing mongo uri", map[string]string{"MONGO_URI": ""}, "MONGO_URI is required"},
		{"missing postgres dsn", map[string]string{"STORE_DRIVER": "postgres"}, "POSTGRES_DSN is required"},
		{"unknown store", map[string]string{"STORE_DRIVER": "sqlite"}, `unknown STORE_DRIVER "sqlite"`},
		{"missing admin domain", map[string]string{"ADMIN_EMAIL_DOMAIN": ""}, "ADMIN_EMAIL_DOMAIN is required"},
		{"missing firebase project", map[string]string{"FIREBASE_PROJECT_ID": ""}, "FIREBASE_PROJECT_ID is required"},
		{"missing hmac secret", map[string]string{"AUTH_PROVIDER": "hmac"}, "AUTH_HMAC_SECRET is required"},
		{"queue without rabbit", map[string]string{"SEARCH_SYNC_MODE": "queue", "ELASTICSEARCH_URL": "http://es:9200"}, "RABBITMQ_URL is required"},
		{"queue without es", map[string]string{"SEARCH_SYNC_MODE": "queue", "RABBITMQ_URL": "amqp://x"}, "ELASTICSEARCH_URL is required"},
		{"redis without addr", map[string]string{"CACHE_DRIVER": "redis"}, "REDIS_ADDR is required"},
		{"bad env", map[string]string{"APP_ENV": "staging"}, `APP_ENV "staging"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setMinimalEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_Production(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://esrent.ae, https://admin.esrent.ae")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"https://esrent.ae", "https://admin.esrent.ae"}, cfg.CORSAllowedOrigins)
}
