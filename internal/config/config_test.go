package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("VECTABLE_CONFIG", filepath.Join(t.TempDir(), "missing.json"))

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.Remote.BaseURL)
	assert.Equal(t, "30s", cfg.Remote.Timeout)
	assert.Equal(t, 10, cfg.Database.MaxConnections)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.False(t, cfg.Embedding.Enabled)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json")

	fileConfig := Config{
		Remote: RemoteConfig{
			BaseURL: "https://tables.example.com",
			APIKey:  "test-key",
		},
		Logging: LoggingConfig{
			Level: "debug",
		},
	}

	data, err := json.Marshal(fileConfig)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(configPath, data, 0600))

	t.Setenv("VECTABLE_CONFIG", configPath)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://tables.example.com", cfg.Remote.BaseURL)
	assert.Equal(t, "test-key", cfg.Remote.APIKey)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched fields still get defaults
	assert.Equal(t, "30s", cfg.Database.QueryTimeout)
}

func TestLoadConfigInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(configPath, []byte("{not json"), 0600))

	t.Setenv("VECTABLE_CONFIG", configPath)

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("VECTABLE_CONFIG", filepath.Join(t.TempDir(), "missing.json"))
	t.Setenv("VECTABLE_REMOTE_BASE_URL", "https://env.example.com")
	t.Setenv("VECTABLE_LOG_LEVEL", "warn")
	t.Setenv("VECTABLE_EMBEDDING_MODEL", "text-embedding-3-large")
	// The prefix applies exactly once
	t.Setenv("VECTABLE_VECTABLE_REMOTE_TIMEOUT", "5s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com", cfg.Remote.BaseURL)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "text-embedding-3-large", cfg.Embedding.Model)
	assert.Equal(t, "30s", cfg.Remote.Timeout)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "invalid log level",
		},
		{
			name:    "invalid log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "invalid log format",
		},
		{
			name:    "invalid remote timeout",
			mutate:  func(c *Config) { c.Remote.Timeout = "soon" },
			wantErr: "invalid remote timeout",
		},
		{
			name:    "non-positive max connections",
			mutate:  func(c *Config) { c.Database.MaxConnections = 0 },
			wantErr: "max connections must be positive",
		},
		{
			name: "embedding enabled without dimensions",
			mutate: func(c *Config) {
				c.Embedding.Enabled = true
				c.Embedding.Dimensions = 0
			},
			wantErr: "embedding dimensions must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBaseConfig()
			tt.mutate(cfg)

			err := validateConfig(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	require.NoError(t, validateConfig(validBaseConfig()))
}

func validBaseConfig() *Config {
	return &Config{
		Remote: RemoteConfig{
			BaseURL: "http://localhost:8080",
			Timeout: "30s",
		},
		Database: DatabaseConfig{
			Path:           "./catalog.db",
			MaxConnections: 10,
			QueryTimeout:   "30s",
		},
		Embedding: EmbeddingConfig{
			Dimensions: 1536,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, filepath.Join(home, "data"), ExpandPath("~/data"))
	assert.Equal(t, "/tmp/data", ExpandPath("/tmp/data"))
}
