package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gugo-beep/bazi-backend/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := config.Load(config.New())

	assert.Equal(t, "./data/bazi_data.db", cfg.Source)
	assert.Equal(t, "./data/bazi_data_v2.db", cfg.Target)
	assert.True(t, cfg.Overwrite)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NoError(t, cfg.ValidateUpgrade())
	assert.NoError(t, cfg.ValidateServe())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("BAZI_SOURCE", "/srv/old.db")
	t.Setenv("BAZI_TARGET", "/srv/new.db")
	t.Setenv("BAZI_OVERWRITE", "false")
	t.Setenv("BAZI_LOG_LEVEL", "debug")

	cfg := config.Load(config.New())

	assert.Equal(t, "/srv/old.db", cfg.Source)
	assert.Equal(t, "/srv/new.db", cfg.Target)
	assert.False(t, cfg.Overwrite)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bazi.yaml")
	require.NoError(t, os.WriteFile(path, []byte("source: /data/a.db\naddr: \":9000\"\n"), 0o644))

	v := config.New()
	require.NoError(t, config.ReadFile(v, path))
	cfg := config.Load(v)

	assert.Equal(t, "/data/a.db", cfg.Source)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.NoError(t, config.ReadFile(v, ""))
	assert.Error(t, config.ReadFile(v, filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("BAZI_DB=/data/from-dotenv.db\n"), 0o644))
	t.Setenv("BAZI_DB", "")
	require.NoError(t, os.Unsetenv("BAZI_DB"))

	require.NoError(t, config.LoadDotEnv(path))
	t.Cleanup(func() { os.Unsetenv("BAZI_DB") })

	assert.Equal(t, "/data/from-dotenv.db", config.Load(config.New()).DB)
	assert.NoError(t, config.LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
}

func TestValidate(t *testing.T) {
	cfg := config.Config{Source: "a.db", Target: "a.db"}
	assert.Error(t, cfg.ValidateUpgrade())

	cfg = config.Config{Source: "", Target: "b.db"}
	assert.Error(t, cfg.ValidateUpgrade())

	cfg = config.Config{DB: "b.db"}
	assert.Error(t, cfg.ValidateServe())
}
