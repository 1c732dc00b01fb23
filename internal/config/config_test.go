package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 0.02, cfg.Rules.Tolerance)
	assert.Equal(t, 4, cfg.Extractor.Workers)
	assert.False(t, cfg.Extractor.AIFallback)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"negative tolerance", func(c *Config) { c.Rules.Tolerance = -0.01 }},
		{"zero workers", func(c *Config) { c.Extractor.Workers = 0 }},
		{"ai fallback without key", func(c *Config) {
			c.Extractor.AIFallback = true
			c.OpenAI.APIKey = ""
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
rules:
  tolerance: 0.05
extractor:
  workers: 2
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 0.05, cfg.Rules.Tolerance)
	assert.Equal(t, 2, cfg.Extractor.Workers)
	// Unset keys fall back to defaults.
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "data/invoice_qc.db", cfg.Database.Path)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
