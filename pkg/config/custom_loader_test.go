package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/requil/requil/pkg/config"
)

type customEnvConfig struct {
	TestString string   `env:"TEST_CUSTOM_STRING"`
	TestInt    int      `env:"TEST_CUSTOM_INT"`
	TestArray  []string `env:"TEST_CUSTOM_ARRAY" envSeparator:","`
}

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env.custom")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadEnv_CustomPath(t *testing.T) {
	os.Unsetenv("TEST_CUSTOM_STRING")
	os.Unsetenv("TEST_CUSTOM_INT")
	os.Unsetenv("TEST_CUSTOM_ARRAY")
	config.ResetCache()

	path := writeEnvFile(t, "TEST_CUSTOM_STRING=custom_value\nTEST_CUSTOM_INT=1234\nTEST_CUSTOM_ARRAY=item1,item2,item3\n")
	require.NoError(t, config.LoadEnv(path))

	var cfg customEnvConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "custom_value", cfg.TestString)
	assert.Equal(t, 1234, cfg.TestInt)
	assert.Equal(t, []string{"item1", "item2", "item3"}, cfg.TestArray)
}

func TestLoadEnv_NonExistentPath(t *testing.T) {
	err := config.LoadEnv("testdata/non_existent_file.env")
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrLoadingEnv)
}

func TestMustLoadEnv(t *testing.T) {
	path := writeEnvFile(t, "TEST_MUST_LOAD=1\n")
	assert.NotPanics(t, func() {
		config.MustLoadEnv(path)
	})
	assert.Panics(t, func() {
		config.MustLoadEnv("testdata/non_existent_file.env")
	})
}

type reloadConfig struct {
	Value string `env:"TEST_RELOAD_VALUE" envDefault:"initial"`
}

func TestForceReloadConfig(t *testing.T) {
	os.Unsetenv("TEST_RELOAD_VALUE")
	config.ResetCache()

	var cfg reloadConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "initial", cfg.Value)

	t.Setenv("TEST_RELOAD_VALUE", "updated")

	// Load serves the cached copy; ForceReloadConfig re-parses.
	var cached reloadConfig
	require.NoError(t, config.Load(&cached))
	assert.Equal(t, "initial", cached.Value)

	var reloaded reloadConfig
	require.NoError(t, config.ForceReloadConfig(&reloaded))
	assert.Equal(t, "updated", reloaded.Value)
}
