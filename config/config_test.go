package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
horizon:
  total_hours: 24
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 24, cfg.Horizon.TotalHours)
	require.Equal(t, "2022-01-01", cfg.Horizon.ReferenceDate)
	require.Equal(t, 15, cfg.Horizon.StepMinutes)
	require.Equal(t, []string{"commuter"}, cfg.Mobility.Groups)
	require.Equal(t, "immediate", cfg.Charging.Strategy)
	require.Equal(t, "db", cfg.Database.Path)
	require.Equal(t, "household", cfg.Results.ScenarioName)
	require.Equal(t, 11.0, cfg.Scenario.WallboxKW)
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{"charging": {"strategy": "balanced"}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "balanced", cfg.Charging.Strategy)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("K_HORIZON__TOTAL_HOURS", "48")
	t.Setenv("K_RESULTS__SCENARIO_NAME", "office")

	path := writeConfig(t, "config.yaml", "horizon:\n  total_hours: 24\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 48, cfg.Horizon.TotalHours)
	require.Equal(t, "office", cfg.Results.ScenarioName)
}

func TestLoadUnsupportedFormat(t *testing.T) {
	path := writeConfig(t, "config.toml", "x = 1\n")
	_, err := Load(path)
	require.ErrorContains(t, err, "unsupported config format")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := writeConfig(t, "config.yaml", "charging:\n  strategy: greedy\n")
	_, err := Load(path)
	require.ErrorContains(t, err, "unknown charging strategy")
}

func TestHorizonConfigBuildsHorizon(t *testing.T) {
	c := HorizonConfig{ReferenceDate: "2022-01-03", TotalHours: 48, StepMinutes: 30}
	h, err := c.Horizon()
	require.NoError(t, err)
	require.Equal(t, 96, h.Periods)

	c.ReferenceDate = "03.01.2022"
	_, err = c.Horizon()
	require.Error(t, err)
}
