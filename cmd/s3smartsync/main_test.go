package main

import (
	"log/slog"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerboseFlagRaisesLogLevel(t *testing.T) {
	t.Cleanup(func() {
		viper.Reset()
		logLevel.Set(slog.LevelInfo)
		// Restore the flag without leaving it marked Changed, which would
		// take precedence over env bindings in later tests.
		f := rootCmd.Flags().Lookup("verbose")
		require.NoError(t, f.Value.Set("false"))
		f.Changed = false
	})

	require.NoError(t, rootCmd.Flags().Set("verbose", "true"))
	require.NoError(t, bindConfig(rootCmd))

	assert.Equal(t, slog.LevelDebug, logLevel.Level())
}

func TestVerboseEnvRaisesLogLevel(t *testing.T) {
	t.Cleanup(func() {
		viper.Reset()
		logLevel.Set(slog.LevelInfo)
	})

	t.Setenv("S3SMARTSYNC_VERBOSE", "true")
	require.NoError(t, bindConfig(rootCmd))

	assert.Equal(t, slog.LevelDebug, logLevel.Level())
}

func TestDefaultLogLevelIsInfo(t *testing.T) {
	t.Cleanup(func() {
		viper.Reset()
		logLevel.Set(slog.LevelInfo)
	})

	require.NoError(t, bindConfig(rootCmd))

	assert.Equal(t, slog.LevelInfo, logLevel.Level())
}
