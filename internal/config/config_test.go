package config

import (
	"bytes"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiredVariables(t *testing.T) {
	clearEnv := func() {
		os.Unsetenv("GOOGLE_TTS_API_KEY")
		os.Unsetenv("TTS_MAX_ATTEMPTS")
		os.Unsetenv("VOXCUE_RUNS_DIR")
		os.Unsetenv("FFPROBE_PATH")
		os.Unsetenv("S3_BUCKET")
		os.Unsetenv("S3_REGION")
		os.Unsetenv("AWS_ACCESS_KEY_ID")
		os.Unsetenv("AWS_SECRET_ACCESS_KEY")
		os.Unsetenv("LOG_FORMAT")
		os.Unsetenv("LOG_LEVEL")
	}

	t.Run("missing GOOGLE_TTS_API_KEY returns error", func(t *testing.T) {
		clearEnv()

		_, err := Load()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrAPIKeyRequired)
	})

	t.Run("api key present succeeds", func(t *testing.T) {
		clearEnv()
		t.Setenv("GOOGLE_TTS_API_KEY", "test-api-key")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "test-api-key", cfg.APIKey)
	})
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GOOGLE_TTS_API_KEY", "test-api-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "runs", cfg.RunsDir)
	assert.Equal(t, 4, cfg.MaxAttempts)
	assert.Equal(t, "ffprobe", cfg.FFprobePath)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.S3Enabled())
}

func TestLoad_CustomValues(t *testing.T) {
	t.Setenv("GOOGLE_TTS_API_KEY", "custom-api-key")
	t.Setenv("TTS_MAX_ATTEMPTS", "7")
	t.Setenv("VOXCUE_RUNS_DIR", "/var/voxcue/runs")
	t.Setenv("S3_BUCKET", "my-bucket")
	t.Setenv("S3_REGION", "us-east-1")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.MaxAttempts)
	assert.Equal(t, "/var/voxcue/runs", cfg.RunsDir)
	assert.True(t, cfg.S3Enabled())
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	assert.ErrorIs(t, cfg.Validate(), ErrAPIKeyRequired)

	cfg.APIKey = "k"
	assert.NoError(t, cfg.Validate())
}

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.level))
		})
	}
}

func TestString_MasksSecrets(t *testing.T) {
	cfg := &Config{
		APIKey:             "super-secret",
		AWSSecretAccessKey: "aws-secret",
		RunsDir:            "runs",
	}

	var buf bytes.Buffer
	buf.WriteString(cfg.String())

	assert.NotContains(t, buf.String(), "super-secret")
	assert.NotContains(t, buf.String(), "aws-secret")
	assert.Contains(t, buf.String(), "runs")
}
