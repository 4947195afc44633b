package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	require.Equal(t, "dev\n", out.String())
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	require.NoError(t, serveCmd.Flags().Set("addr", ":9191"))
	require.NoError(t, serveCmd.Flags().Set("log-level", "debug"))
	require.NoError(t, serveCmd.Flags().Set("workload", "true"))

	cfg, err := loadConfig(serveCmd)
	require.NoError(t, err)
	require.Equal(t, ":9191", cfg.HTTPAddr)
	require.Equal(t, "debug", cfg.LogLevel)
	require.True(t, cfg.Workload.Enabled)
}
