package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clem.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_FileValues(t *testing.T) {
	path := writeConfig(t, `
simulation:
  start: "2020-01-01"
  end: "2020-12-31"
  arbitration: proportional
logging:
  level: debug
storage:
  path: runs.db
metrics:
  enabled: true
`)

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, "2020-01-01", cfg.Simulation.Start)
	assert.Equal(t, "proportional", cfg.Simulation.Arbitration)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format, "default applied")
	assert.Equal(t, "runs.db", cfg.Storage.Path)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "clem", cfg.Metrics.Namespace)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "simulation:\n  arbitration: proportional\n")
	t.Setenv("CLEM_SIMULATION_ARBITRATION", "first-come")
	t.Setenv("CLEM_LOGGING_FORMAT", "json")

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, "first-come", cfg.Simulation.Arbitration)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown policy", "simulation:\n  arbitration: lottery\n"},
		{"bad date", "simulation:\n  start: 01/02/2020\n"},
		{"bad level", "logging:\n  level: loud\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "first-come", cfg.Simulation.Arbitration)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "stderr", cfg.Logging.Output)
	assert.NoError(t, ValidateConfig(cfg))
}
