package shared_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelterfinder/internal/shared"
)

func flags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	f := pflag.NewFlagSet("test", pflag.ContinueOnError)
	shared.RegisterFlags(f)
	require.NoError(t, f.Parse(args))
	return f
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := shared.Load(flags(t))
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, 1, cfg.Nights)
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, 4, cfg.RPS)
	assert.Equal(t, "ids_cache.json", cfg.CacheLocation)
	assert.Equal(t, "available_shelters.csv", cfg.Out)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Regions)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	conf := filepath.Join(dir, "shelters.yaml")
	require.NoError(t, os.WriteFile(conf, []byte("nights: 3\nworkers: 2\nrps: 2\n"), 0o644))

	t.Setenv("SHELTERS_WORKERS", "6")
	t.Setenv("SHELTERS_RPS", "8")
	t.Setenv("SHELTERS_REGION", "Fyn, Bornholm")

	cfg, err := shared.Load(flags(t, "--config", conf, "--rps", "1", "--quiet"))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Nights, "config file over default")
	assert.Equal(t, 6, cfg.Workers, "env over config file")
	assert.Equal(t, 1, cfg.RPS, "explicit flag over env")
	assert.Equal(t, []string{"Fyn", "Bornholm"}, cfg.Regions)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_DotEnvAndRepeatedRegion(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("APP_ENV=prod\nSHELTERS_CACHE_FILE=redis://localhost:6379/0\n"), 0o644))
	t.Setenv("APP_ENV", "")
	os.Unsetenv("APP_ENV")
	t.Setenv("SHELTERS_CACHE_FILE", "")
	os.Unsetenv("SHELTERS_CACHE_FILE")

	cfg, err := shared.Load(flags(t, "--region", "Sjælland", "--region", "Fyn,Møn"))
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.AppEnv)
	assert.Equal(t, "redis://localhost:6379/0", cfg.CacheLocation)
	assert.Equal(t, []string{"Sjælland", "Fyn", "Møn"}, cfg.Regions)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := shared.Load(flags(t, "--config", "nope.yaml"))
	assert.Error(t, err)
}
