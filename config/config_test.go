package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:50005", cfg.BindAddress)
	assert.Equal(t, 0.55, cfg.Threshold)
	assert.Equal(t, 100.0, cfg.Scale)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "biometria.sqlite", cfg.SQLiteFile)
	assert.Len(t, cfg.AllowedOrigins, 4)
	assert.Positive(t, cfg.Workers)
	assert.Equal(t, "sqlite", cfg.Backend())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("API_KEY", "1526105")
	t.Setenv("MATCH_THRESHOLD", "0.4")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("MYSQL_DSN", "root:@tcp(127.0.0.1:3306)/biometria")
	t.Setenv("BACKUP_S3_BUCKET", "backups")
	t.Setenv("EXTRACT_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "1526105", cfg.APIKey)
	assert.Equal(t, 0.4, cfg.Threshold)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "mysql", cfg.Backend())
	assert.Equal(t, "backups", cfg.S3.Bucket)
	assert.Equal(t, "biometria/", cfg.S3.Prefix)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.NoError(t, cfg.Validate())
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv("MATCH_THRESHOLD", "not-a-number")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(c *Config) {}, ""},
		{"missing key", func(c *Config) { c.APIKey = "" }, "API_KEY is required"},
		{"zero threshold", func(c *Config) { c.Threshold = 0 }, "MATCH_THRESHOLD"},
		{"negative scale", func(c *Config) { c.Scale = -1 }, "SIMILARITY_SCALE"},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "EXTRACT_TIMEOUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{APIKey: "k", Threshold: 0.55, Scale: 100, Timeout: time.Second, MaxBodyMB: 50}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
