package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, 40, cfg.Game.StartingLife)
	assert.Equal(t, 7, cfg.Game.OpeningHand)
	assert.Equal(t, 3, cfg.Game.ShufflePasses)
	assert.Equal(t, 20.0, cfg.Game.TokenOffset)
	assert.Equal(t, time.Hour, cfg.Database.MaxConnLifetime)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
storage:
  driver: memory
logging:
  level: debug
  format: console
game:
  starting_life: 20
  opening_hand: 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, 20, cfg.Game.StartingLife)
	assert.Equal(t, 5, cfg.Game.OpeningHand)
	assert.Equal(t, 200, cfg.Game.MaxPageSize)
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("TABLE_STORAGE_DRIVER", "memory")
	t.Setenv("TABLE_GAME_STARTING_LIFE", "30")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 30, cfg.Game.StartingLife)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("TABLE_STORAGE_DRIVER", "mysql")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.driver")
}
