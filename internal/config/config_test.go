package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{"NDSTREAM_MODEL", "NDSTREAM_ENDPOINT", "NDSTREAM_READ_SIZE", "NDSTREAM_CONNECT_TIMEOUT"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return home
}

func TestLoad_Defaults(t *testing.T) {
	setupHome(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, defaultModel, cfg.Model)
	assert.Equal(t, defaultEndpoint, cfg.Endpoint)
	assert.Equal(t, defaultReadSize, cfg.ReadSize)
	assert.Equal(t, defaultConnectTimeout, cfg.ConnectTimeout)
	assert.True(t, cfg.History)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_ModelFromEnv(t *testing.T) {
	setupHome(t)
	t.Setenv("NDSTREAM_MODEL", "llama3.1:latest")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "llama3.1:latest", cfg.Model)
}

func TestLoad_DurationAndSizeFromEnv(t *testing.T) {
	setupHome(t)
	t.Setenv("NDSTREAM_CONNECT_TIMEOUT", "12s")
	t.Setenv("NDSTREAM_READ_SIZE", "512")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 12*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 512, cfg.ReadSize)
}

func TestLoad_FromFile(t *testing.T) {
	home := setupHome(t)
	dir := filepath.Join(home, dirName)
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"),
		[]byte(`{"model":"gemma3:1b","endpoint":"http://gpu-box:11434"}`), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gemma3:1b", cfg.Model)
	assert.Equal(t, "http://gpu-box:11434", cfg.Endpoint)
	assert.Equal(t, defaultReadSize, cfg.ReadSize)
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	home := setupHome(t)
	dir := filepath.Join(home, dirName)
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"model":"from-file"}`), 0o600))
	t.Setenv("NDSTREAM_MODEL", "from-env")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Model)
}

func TestLoad_CorruptFileFallsBackToDefaults(t *testing.T) {
	home := setupHome(t)
	dir := filepath.Join(home, dirName)
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{not json`), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, defaultModel, cfg.Model)
}

func TestSetModel_Persists(t *testing.T) {
	setupHome(t)

	require.NoError(t, SetModel("mistral:7b"))
	require.NoError(t, SetEndpoint("http://example.com:11434/"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "mistral:7b", cfg.Model)
	assert.Equal(t, "http://example.com:11434", cfg.Endpoint)

	info, err := os.Stat(Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestSetModel_RejectsEmpty(t *testing.T) {
	setupHome(t)
	assert.Error(t, SetModel("  "))
}

func TestSetEndpoint_RejectsNonHTTP(t *testing.T) {
	setupHome(t)
	assert.Error(t, SetEndpoint("ftp://example.com"))
	assert.Error(t, SetEndpoint("localhost:11434"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"empty model", func(c *Config) { c.Model = "" }, true},
		{"bad endpoint", func(c *Config) { c.Endpoint = "not a url" }, true},
		{"zero read size", func(c *Config) { c.ReadSize = 0 }, true},
		{"negative timeout", func(c *Config) { c.ConnectTimeout = -time.Second }, true},
		{"https endpoint", func(c *Config) { c.Endpoint = "https://ollama.internal" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			if tt.wantErr {
				assert.Error(t, c.Validate())
			} else {
				assert.NoError(t, c.Validate())
			}
		})
	}
}
