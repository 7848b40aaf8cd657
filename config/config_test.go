package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quellabs/objectquel/config"
)

func TestLoadReturnsDefaultsWithNoFileOrFlags(t *testing.T) {
	cfg, err := config.Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadAppliesFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "objectquelc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("window_size: 25\noutput_format: json\n"), 0o600))

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(25), cfg.WindowSize)
	assert.Equal(t, "json", cfg.OutputFormat)
	assert.False(t, cfg.InValuesAreFinal)
}

func TestLoadIgnoresMissingFile(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadFlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "objectquelc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("window_size: 25\n"), 0o600))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.RegisterFlags(flags, config.Default())
	require.NoError(t, flags.Parse([]string{"--window-size=100"}))

	cfg, err := config.Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, uint32(100), cfg.WindowSize)
}
