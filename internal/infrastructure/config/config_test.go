package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  allowed_origins:
    - https://dashboard.example.com
storage:
  database_path: /tmp/test.db
costing:
  unit_weights:
    pineapple: 1500
  pnl:
    classes:
      labour wages: I
    excluded:
      - sales
observability:
  logging:
    level: debug
    format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://dashboard.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "/tmp/test.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 1500.0, cfg.Costing.UnitWeights["pineapple"])
	assert.Equal(t, "I", cfg.Costing.PnL.Classes["labour wages"])
	assert.Equal(t, "debug", cfg.Observability.Logging.Level)
	assert.Equal(t, "json", cfg.Observability.Logging.Format)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_DB_PATH", "/var/data/produce.db")
	path := writeConfig(t, `
storage:
  database_path: ${TEST_DB_PATH}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/data/produce.db", cfg.Storage.DatabasePath)
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeConfig(t, `server: {}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "produce_costs.db", cfg.Storage.DatabasePath)
	assert.Equal(t, "info", cfg.Observability.Logging.Level)
	assert.NotEmpty(t, cfg.Costing.UnitWeights)
	assert.NotEmpty(t, cfg.Costing.PnL.Classes)
	assert.Contains(t, cfg.Costing.PnL.Excluded, "sales")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PRODUCE_API_PORT", "7070")
	t.Setenv("PRODUCE_DB_PATH", "/tmp/env.db")
	t.Setenv("LOG_FORMAT", "json")

	cfg := LoadFromEnv()

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "/tmp/env.db", cfg.Storage.DatabasePath)
	assert.Equal(t, "json", cfg.Observability.Logging.Format)
	assert.NotEmpty(t, cfg.Costing.UnitWeights)
}

func TestLoadOrEnvWithPath_FallsBack(t *testing.T) {
	cfg := LoadOrEnvWithPath(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestDefaultTables(t *testing.T) {
	classes := DefaultPnLClasses()
	assert.Equal(t, "I", classes["labour wages"])
	assert.Equal(t, "O", classes["carriage inward"])
	assert.Equal(t, "B", classes["rent"])

	weights := DefaultUnitWeights()
	assert.Equal(t, 3000.0, weights["watermelon"])
}
