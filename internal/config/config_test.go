package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	assert.Equal(t, filepath.Join("data", "output"), cfg.Artifacts.Dir)
	assert.Equal(t, filepath.Join("data", "output", "kg.ttl"), cfg.Store.Path)
	assert.Equal(t, "sqlite3", cfg.Staging.Driver)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Store.Path, cfg.Store.Path)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
artifacts:
  dir: /data/artifacts
store:
  path: /data/kg.ttl
staging:
  driver: postgres
  dsn: postgres://localhost/skg
server:
  addr: ":9090"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/artifacts", cfg.Artifacts.Dir)
	assert.Equal(t, "/data/kg.ttl", cfg.Store.Path)
	assert.Equal(t, "postgres", cfg.Staging.Driver)
	assert.Equal(t, "postgres://localhost/skg", cfg.Staging.DSN)
	assert.Equal(t, ":9090", cfg.Server.Addr)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":7070\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, Default().Artifacts.Dir, cfg.Artifacts.Dir)
	assert.Equal(t, Default().Staging.Driver, cfg.Staging.Driver)
}

func TestLoadMalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\nnot yaml ["), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SKG_ARTIFACTS_DIR", "/env/artifacts")
	t.Setenv("SKG_STORE_PATH", "/env/kg.ttl")
	t.Setenv("SKG_SERVER_ADDR", ":6060")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/env/artifacts", cfg.Artifacts.Dir)
	assert.Equal(t, "/env/kg.ttl", cfg.Store.Path)
	assert.Equal(t, ":6060", cfg.Server.Addr)
}

func TestWriteDefaultRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, WriteDefault(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
