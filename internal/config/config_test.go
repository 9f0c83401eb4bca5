package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s3cret")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "PK", cfg.DefaultRegion)
	assert.Equal(t, 10*time.Minute, cfg.CodeTTL)
	assert.Equal(t, int64(50<<20), cfg.MediaMaxBytes)
	assert.Equal(t, "slide-backgrounds", cfg.S3Bucket)
	assert.False(t, cfg.WhatsAppEnabled)
	assert.Equal(t, "http://localhost:8080", cfg.SiteURL)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("DEFAULT_REGION", "gb")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("WHATSAPP_ENABLED", "true")
	t.Setenv("MEDIA_BASE_URL", "https://cdn.example.com/media/")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "GB", cfg.DefaultRegion)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.WhatsAppEnabled)
	assert.Equal(t, "https://cdn.example.com/media", cfg.MediaBaseURL)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := map[string]map[string]string{
		"missing secret": {"SESSION_SECRET": ""},
		"bad driver":     {"SESSION_SECRET": "x", "DB_DRIVER": "mysql"},
		"bad media":      {"SESSION_SECRET": "x", "MEDIA_BACKEND": "ftp"},
		"bad duration":   {"SESSION_SECRET": "x", "CODE_TTL": "soon"},
		"bad bool":       {"SESSION_SECRET": "x", "WHATSAPP_ENABLED": "maybe"},
		"bad region":     {"SESSION_SECRET": "x", "DEFAULT_REGION": "PAK"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
