package driverconfig_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"redex/pkg/driverconfig"
)

func TestLoadFileOverlaysNonZeroFields(t *testing.T) {
	path := t.TempDir() + "/redex.yaml"
	require.NoError(t, os.WriteFile(path, []byte("time_quota: 500\nlog_level: debug\n"), 0o644))

	cfg, err := driverconfig.LoadFile(driverconfig.Defaults(), path)
	require.NoError(t, err)
	require.Equal(t, 500, cfg.TimeQuota)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, driverconfig.Defaults().SpaceQuota, cfg.SpaceQuota)
}

func TestLoadFileMissingIsNotAnError(t *testing.T) {
	cfg, err := driverconfig.LoadFile(driverconfig.Defaults(), "/nonexistent/redex.yaml")
	require.NoError(t, err)
	require.Equal(t, driverconfig.Defaults(), cfg)
}

func TestLoadEnvOverridesSetVariables(t *testing.T) {
	t.Setenv(driverconfig.EnvTimeQuota, "42")
	t.Setenv(driverconfig.EnvImage, "/tmp/image.md")

	cfg, err := driverconfig.LoadEnv(driverconfig.Defaults())
	require.NoError(t, err)
	require.Equal(t, 42, cfg.TimeQuota)
	require.Equal(t, "/tmp/image.md", cfg.Image)
}

func TestLoadEnvInvalidIntIsAnError(t *testing.T) {
	t.Setenv(driverconfig.EnvSpaceQuota, "not-a-number")
	_, err := driverconfig.LoadEnv(driverconfig.Defaults())
	require.Error(t, err)
}
