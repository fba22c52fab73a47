package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hmidash/internal/conflict"
	"hmidash/internal/knox"
)

func TestLoadProjectConfig(t *testing.T) {
	t.Setenv(EnvDatabaseDSN, "")
	t.Setenv(EnvLogLevel, "")

	t.Run("valid config loads", func(t *testing.T) {
		cfg, err := LoadProjectConfig(filepath.Join("testdata", "valid_config.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "hmi-dashboard", cfg.Project)
		assert.Equal(t, "sqlite://./hmidash.db", cfg.Database.DSN)
		assert.Equal(t, []conflict.Country{conflict.Afghanistan, conflict.Iraq, conflict.SriLanka, conflict.Somalia}, cfg.CountryCodes())
		assert.Equal(t, 10.1, cfg.MarkerScaling(conflict.Afghanistan))
		assert.Equal(t, []conflict.Weighting{1, 3, 5}, cfg.LinkageWeightings())
		assert.Equal(t, "highres", cfg.Knox.Resolution)
	})

	t.Run("defaults applied", func(t *testing.T) {
		cfg, err := LoadProjectConfig(writeTempConfig(t, minimalConfig))
		require.NoError(t, err)
		assert.Equal(t, "sqlite://:memory:", cfg.Database.DSN)
		assert.Equal(t, "./data", cfg.DataDir)
		assert.Equal(t, "average", cfg.Linkage.Method)
		assert.Len(t, cfg.LinkageWeightings(), 5)
		assert.Equal(t, knox.DefaultColorScale, cfg.Knox.ColorDomain)
		assert.Equal(t, "lowres", cfg.Knox.Resolution)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, 1.0, cfg.MarkerScaling(conflict.Afghanistan))
		assert.Equal(t, 1.0, cfg.MarkerScaling(conflict.Iraq))
	})

	t.Run("environment overrides dsn", func(t *testing.T) {
		t.Setenv(EnvDatabaseDSN, "postgres://localhost/hmi")
		t.Setenv(EnvLogLevel, "debug")
		cfg, err := LoadProjectConfig(writeTempConfig(t, minimalConfig))
		require.NoError(t, err)
		assert.Equal(t, "postgres://localhost/hmi", cfg.Database.DSN)
		assert.Equal(t, "debug", cfg.Log.Level)
	})

	invalid := map[string]struct {
		contents string
		wantErr  string
	}{
		"missing project name": {"version: 1\ndatabase:\n  dsn: \"sqlite://:memory:\"\ncountries:\n  - code: AFG\n", "project name is required"},
		"unsupported version":  {"project: test\nversion: 2\ndatabase:\n  dsn: \"sqlite://:memory:\"\ncountries:\n  - code: AFG\n", "unsupported version: 2"},
		"missing dsn":          {"project: test\nversion: 1\ncountries:\n  - code: AFG\n", "database dsn is required"},
		"no countries":         {"project: test\nversion: 1\ndatabase:\n  dsn: \"sqlite://:memory:\"\n", "at least one country is required"},
		"unknown country":      {"project: test\nversion: 1\ndatabase:\n  dsn: \"sqlite://:memory:\"\ncountries:\n  - code: NLD\n", "unknown country"},
		"duplicate country":    {"project: test\nversion: 1\ndatabase:\n  dsn: \"sqlite://:memory:\"\ncountries:\n  - code: AFG\n  - code: afg\n", "duplicate country: AFG"},
		"negative scaling":     {"project: test\nversion: 1\ndatabase:\n  dsn: \"sqlite://:memory:\"\ncountries:\n  - code: AFG\n    marker_scaling: -2\n", "marker scaling must be positive"},
		"bad method":           {minimalConfig + "linkage:\n  method: ward\n", "unsupported linkage method"},
		"bad weighting":        {minimalConfig + "linkage:\n  weightings: [0]\n", "weighting must be between 1 and 5"},
		"bad resolution":       {minimalConfig + "knox:\n  resolution: medium\n", "unknown knox resolution"},
		"off-centre domain":    {minimalConfig + "knox:\n  color_domain:\n    min: 0.75\n    max: 1.75\n", "must be centred on 1"},
		"domain excludes one":  {minimalConfig + "knox:\n  color_domain:\n    min: 1.2\n    max: 1.8\n", "must contain 1"},
		"invalid yaml":         {"project: [\n", "yaml:"},
		"unquoted memory dsn":  {"project: test\nversion: 1\ndatabase:\n  dsn: sqlite://:memory:\ncountries:\n  - code: AFG\n", "yaml:"},
	}
	for name, tc := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := LoadProjectConfig(writeTempConfig(t, tc.contents))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}

	t.Run("file not found", func(t *testing.T) {
		_, err := LoadProjectConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
	})
}

const minimalConfig = "project: test\nversion: 1\ndatabase:\n  dsn: \"sqlite://:memory:\"\ncountries:\n  - code: AFG\n"

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}
