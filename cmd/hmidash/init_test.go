package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hmidash/internal/config"
	"hmidash/internal/conflict"
)

func withConfigPath(t *testing.T, path string) {
	t.Helper()
	previous := configPath
	configPath = path
	t.Cleanup(func() { configPath = previous })
}

func TestRunInit(t *testing.T) {
	t.Setenv(config.EnvDatabaseDSN, "")
	t.Setenv(config.EnvLogLevel, "")

	dir := t.TempDir()
	withConfigPath(t, filepath.Join(dir, "hmidash.yaml"))

	require.NoError(t, runInit("field study", "sqlite://:memory:"))

	cfg, err := config.LoadProjectConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, "field study", cfg.Project)
	assert.Equal(t, "sqlite://:memory:", cfg.Database.DSN)
	assert.Equal(t, conflict.Countries(), cfg.CountryCodes())
	assert.Equal(t, 10.1, cfg.MarkerScaling(conflict.Afghanistan))
	assert.Equal(t, 3.7, cfg.MarkerScaling(conflict.Iraq))

	info, err := os.Stat(filepath.Join(dir, "data", "SOM", "knox", "highres"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	err = runInit("again", "sqlite://./hmidash.db")
	require.Error(t, err)
}
