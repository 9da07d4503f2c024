package configs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"ENVIRONMENT", "PORT", "ALLOWED_ORIGINS", "JWT_SECRET", "CONNECT_RATE", "CONNECT_BURST",
	"STORAGE_DRIVER", "DATABASE_URL", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "DISPLAY_CACHE_TTL",
	"S3_BUCKET_NAME", "S3_ENDPOINT", "S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY", "AVATAR_URL_TTL",
	"SESSION_QUEUE_SIZE", "STORE_TIMEOUT", "STRICT_ROOM_ACCESS", "TIME_ZONE",
}

// clearEnv blanks every variable LoadConfig reads, restoring them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.False(t, cfg.S3Enabled())
	assert.Equal(t, 256, cfg.SessionQueueSize)
	assert.Equal(t, 10*time.Second, cfg.StoreTimeout)
	assert.Equal(t, 5*time.Minute, cfg.DisplayCacheTTL)
	assert.False(t, cfg.StrictRoomAccess)
	assert.Equal(t, "UTC", cfg.TimeZone.String())
}

func TestLoadConfigOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("STORAGE_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://x@db/chat")
	t.Setenv("STRICT_ROOM_ACCESS", "true")
	t.Setenv("STORE_TIMEOUT", "3s")
	t.Setenv("TIME_ZONE", "Europe/Berlin")
	t.Setenv("S3_BUCKET_NAME", "avatars")
	t.Setenv("S3_ENDPOINT", "https://s3.example")
	t.Setenv("S3_ACCESS_KEY_ID", "id")
	t.Setenv("S3_SECRET_ACCESS_KEY", "key")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, StoragePostgres, cfg.StorageDriver)
	assert.True(t, cfg.StrictRoomAccess)
	assert.Equal(t, 3*time.Second, cfg.StoreTimeout)
	assert.Equal(t, "Europe/Berlin", cfg.TimeZone.String())
	assert.True(t, cfg.S3Enabled())
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"privileged port", map[string]string{"PORT": "80"}},
		{"non numeric port", map[string]string{"PORT": "http"}},
		{"secret required in production", map[string]string{"ENVIRONMENT": "production"}},
		{"dsn required in production", map[string]string{"ENVIRONMENT": "production", "JWT_SECRET": "x", "STORAGE_DRIVER": "postgres"}},
		{"unknown driver", map[string]string{"STORAGE_DRIVER": "mongo"}},
		{"partial s3", map[string]string{"S3_BUCKET_NAME": "avatars"}},
		{"bad duration", map[string]string{"STORE_TIMEOUT": "soon"}},
		{"bad bool", map[string]string{"STRICT_ROOM_ACCESS": "maybe"}},
		{"empty queue", map[string]string{"SESSION_QUEUE_SIZE": "0"}},
		{"bad zone", map[string]string{"TIME_ZONE": "Mars/Olympus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
