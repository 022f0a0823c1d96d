package config_test

import (
	"testing"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/stepwise/app/config"
)

func TestConfigLoadMissingFile(t *testing.T) {
	t.Parallel()

	cfg := config.New(memoryfs.New(), "/config/config.json")
	require.NoError(t, cfg.Load())

	assert.False(t, cfg.Database.Driver.Valid)
	assert.False(t, cfg.BlockStore.Mode.Valid)
	assert.Empty(t, cfg.TransitionsDirs)
}

func TestConfigLoad(t *testing.T) {
	t.Parallel()

	fs := memoryfs.New()
	require.NoError(t, fs.MkdirAll("/config", 0o755))
	require.NoError(t, vfs.WriteFile(fs, "/config/config.json", []byte(`{
		"database": {"driver": "postgres", "dsn": "postgres://localhost/iroha"},
		"block_store": {"mode": "filesystem", "path": "/blocks"},
		"transitions_dirs": ["/custom"]
	}`), 0o644))

	cfg := config.New(fs, "/config/config.json")
	require.NoError(t, cfg.Load())

	assert.Equal(t, "postgres", cfg.Database.Driver.V)
	assert.Equal(t, "postgres://localhost/iroha", cfg.Database.DSN.V)
	assert.Equal(t, "filesystem", cfg.BlockStore.Mode.V)
	assert.Equal(t, "/blocks", cfg.BlockStore.Path.V)
	assert.Equal(t, []string{"/custom"}, cfg.TransitionsDirs)
}

func TestConfigLoadInvalid(t *testing.T) {
	t.Parallel()

	fs := memoryfs.New()
	require.NoError(t, fs.MkdirAll("/config", 0o755))
	require.NoError(t, vfs.WriteFile(fs, "/config/config.json",
		[]byte("not json"), 0o644))

	err := config.New(fs, "/config/config.json").Load()
	assert.ErrorContains(t, err, "failed parsing configuration file")
}

func TestConfigSaveRoundtrip(t *testing.T) {
	t.Parallel()

	fs := memoryfs.New()
	cfg := config.New(fs, "/config/config.json")
	require.NoError(t, cfg.Load())

	cfg.BlockStore.Mode.V, cfg.BlockStore.Mode.Valid = "filesystem", true
	cfg.BlockStore.Path.V, cfg.BlockStore.Path.Valid = "/blocks", true
	require.NoError(t, cfg.Save())

	loaded := config.New(fs, "/config/config.json")
	require.NoError(t, loaded.Load())
	assert.Equal(t, "filesystem", loaded.BlockStore.Mode.V)
	assert.Equal(t, "/blocks", loaded.BlockStore.Path.V)
	assert.False(t, loaded.Database.Driver.Valid)
}
