package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "last-write-wins", cfg.DefaultPolicy)
	assert.Equal(t, 5, cfg.RetryCeiling)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
store_path: /var/lib/stillsync/dev.db
retry_ceiling: 10
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/stillsync/dev.db", cfg.StorePath)
	assert.Equal(t, 10, cfg.RetryCeiling)
	// Unspecified fields keep their defaults.
	assert.Equal(t, "stillsync", cfg.Namespace)
	assert.Equal(t, "last-write-wins", cfg.DefaultPolicy)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_policy: newest\n"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "default_policy")
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store_path: [unclosed\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(*Config) {}, false},
		{"empty store path", func(c *Config) { c.StorePath = "" }, true},
		{"empty namespace", func(c *Config) { c.Namespace = "" }, true},
		{"negative ceiling", func(c *Config) { c.RetryCeiling = -1 }, true},
		{"zero ceiling disables abandonment", func(c *Config) { c.RetryCeiling = 0 }, false},
		{"bad policy", func(c *Config) { c.DefaultPolicy = "coin-flip" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
