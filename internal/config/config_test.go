package config

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pyrometer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("Missing file yields defaults", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("File overrides defaults", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, `
project:
  root: contracts
analysis:
  workers: 2
  log_level: debug
storage:
  db: out.db
`))
		require.NoError(t, err)
		assert.Equal(t, "contracts", cfg.Project.Root)
		assert.Equal(t, 2, cfg.Analysis.Workers)
		assert.Equal(t, []string{".csol"}, cfg.Analysis.Extensions)
		assert.Equal(t, "out.db", cfg.Storage.DB)

		level, err := cfg.Level()
		require.NoError(t, err)
		assert.Equal(t, slog.LevelDebug, level)
	})

	t.Run("Environment wins", func(t *testing.T) {
		t.Setenv("PYROMETER_DB", "env.db")
		t.Setenv("PYROMETER_LOG_LEVEL", "warn")
		t.Setenv("PYROMETER_WORKERS", "8")
		cfg, err := LoadConfig(writeConfig(t, "storage:\n  db: file.db\n"))
		require.NoError(t, err)
		assert.Equal(t, "env.db", cfg.Storage.DB)
		assert.Equal(t, "warn", cfg.Analysis.LogLevel)
		assert.Equal(t, 8, cfg.Analysis.Workers)
	})

	t.Run("Invalid values", func(t *testing.T) {
		for name, body := range map[string]string{
			"workers":    "analysis:\n  workers: 0\n",
			"log level":  "analysis:\n  log_level: loud\n",
			"extensions": "analysis:\n  extensions: []\n",
			"yaml":       "analysis: [",
		} {
			_, err := LoadConfig(writeConfig(t, body))
			assert.Error(t, err, name)
		}

		t.Setenv("PYROMETER_WORKERS", "many")
		_, err := LoadConfig(writeConfig(t, ""))
		assert.Error(t, err)
	})

	t.Run("Schema rejects malformed files", func(t *testing.T) {
		for name, body := range map[string]string{
			"unknown section":   "output:\n  format: json\n",
			"misspelled key":    "analysis:\n  worker: 2\n",
			"workers type":      "analysis:\n  workers: two\n",
			"fractional":        "analysis:\n  workers: 1.5\n",
			"extension pattern": "analysis:\n  extensions: [csol]\n",
			"db type":           "storage:\n  db: [a, b]\n",
			"top level list":    "- project\n",
		} {
			_, err := LoadConfig(writeConfig(t, body))
			require.Error(t, err, name)
			assert.Contains(t, err.Error(), "schema validation", name)
		}
	})

	t.Run("Schema accepts comments and empty files", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, "# nothing configured\n"))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)

		cfg, err = LoadConfig(writeConfig(t, "analysis:\n  extensions: [.csol, .sol]\n"))
		require.NoError(t, err)
		assert.Equal(t, []string{".csol", ".sol"}, cfg.Analysis.Extensions)
	})
}

func TestConfig_Logger(t *testing.T) {
	cfg := Default()
	cfg.Analysis.LogLevel = "warn"
	var buf bytes.Buffer
	logger, err := cfg.Logger(&buf)
	require.NoError(t, err)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	logger.Warn("kept")
	assert.Contains(t, buf.String(), "msg=kept")

	// a level changed after LoadConfig is checked again
	cfg.Analysis.LogLevel = "loud"
	logger, err = cfg.Logger(&buf)
	require.Error(t, err)
	assert.Nil(t, logger)
	assert.Contains(t, err.Error(), "loud")
}
