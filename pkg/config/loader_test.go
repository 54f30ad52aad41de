package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magnetarhq/portalcore/pkg/config"
)

type testConfig struct {
	Name    string `env:"CONFIG_TEST_NAME" envDefault:"fallback"`
	Retries int    `env:"CONFIG_TEST_RETRIES" envDefault:"3"`
}

type requiredConfig struct {
	Secret string `env:"CONFIG_TEST_SECRET,required"`
}

func TestLoad_Defaults(t *testing.T) {
	config.ResetCache()

	var cfg testConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "fallback", cfg.Name)
	assert.Equal(t, 3, cfg.Retries)
}

func TestLoad_FromEnvironment(t *testing.T) {
	config.ResetCache()
	t.Setenv("CONFIG_TEST_NAME", "portal")
	t.Setenv("CONFIG_TEST_RETRIES", "7")

	var cfg testConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "portal", cfg.Name)
	assert.Equal(t, 7, cfg.Retries)
}

func TestLoad_CachesByType(t *testing.T) {
	config.ResetCache()
	t.Setenv("CONFIG_TEST_NAME", "first")

	var cfg testConfig
	require.NoError(t, config.Load(&cfg))
	require.Equal(t, "first", cfg.Name)

	// A later env change is not visible through the cache.
	t.Setenv("CONFIG_TEST_NAME", "second")
	var again testConfig
	require.NoError(t, config.Load(&again))
	assert.Equal(t, "first", again.Name)

	// ForceReload bypasses the cache.
	require.NoError(t, config.ForceReload(&again))
	assert.Equal(t, "second", again.Name)
}

func TestLoad_MissingRequired(t *testing.T) {
	config.ResetCache()

	var cfg requiredConfig
	err := config.Load(&cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestLoad_NilPointer(t *testing.T) {
	err := config.Load[testConfig](nil)
	assert.ErrorIs(t, err, config.ErrNilPointer)
}

func TestMustLoad_PanicsOnMissingRequired(t *testing.T) {
	config.ResetCache()

	assert.Panics(t, func() {
		var cfg requiredConfig
		config.MustLoad(&cfg)
	})
}

func TestLoadEnv_NonExistentFile(t *testing.T) {
	err := config.LoadEnv("testdata/does-not-exist.env")
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrLoadingEnvFile)
}
