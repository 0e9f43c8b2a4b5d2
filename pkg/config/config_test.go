package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.RefreshInterval)
	assert.Equal(t, 15, cfg.SampleHistoryCapacity)
	assert.Equal(t, 30*time.Second, cfg.ConnectTimeout)
	assert.True(t, cfg.AllowDuplicates)
	assert.Equal(t, 30*time.Second, cfg.StaleTimeout)
	assert.Equal(t, 64, cfg.EventBufferSize)
	assert.Equal(t, 128, cfg.AdvertisementBuffer)
	assert.Empty(t, cfg.ServiceAllowList)
	assert.Empty(t, cfg.CharacteristicAllowList)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_NewLogger(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
		want     logrus.Level
	}{
		{name: "creates logger with debug level", logLevel: "debug", want: logrus.DebugLevel},
		{name: "creates logger with info level", logLevel: "info", want: logrus.InfoLevel},
		{name: "creates logger with warn level", logLevel: "warn", want: logrus.WarnLevel},
		{name: "falls back to info on garbage", logLevel: "chatty", want: logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.logLevel}

			logger := cfg.NewLogger()

			assert.NotNil(t, logger)
			assert.Equal(t, tt.want, logger.GetLevel())

			// Verify formatter is set correctly
			formatter, ok := logger.Formatter.(*logrus.TextFormatter)
			assert.True(t, ok)
			assert.True(t, formatter.FullTimestamp)
			assert.Equal(t, time.RFC3339, formatter.TimestampFormat)
		})
	}
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blecentral.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
refresh_interval: 1s
sample_history_capacity: 4
allow_duplicates: false
service_allow_list: ["180d", "180f"]
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, time.Second, cfg.RefreshInterval)
	assert.Equal(t, 4, cfg.SampleHistoryCapacity)
	assert.False(t, cfg.AllowDuplicates)
	assert.Equal(t, []string{"180d", "180f"}, cfg.ServiceAllowList)
	assert.Equal(t, 30*time.Second, cfg.ConnectTimeout, "untouched keys keep defaults")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blecentral.yaml")
	require.NoError(t, os.WriteFile(path, []byte("refresh_interval: 1s\n"), 0o600))

	t.Setenv("BLECENTRAL_REFRESH_INTERVAL", "250ms")
	t.Setenv("BLECENTRAL_SAMPLE_HISTORY_CAPACITY", "7")
	t.Setenv("BLECENTRAL_ALLOW_DUPLICATES", "false")
	t.Setenv("BLECENTRAL_CHARACTERISTIC_ALLOW_LIST", "2a37, 2a39,")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.RefreshInterval)
	assert.Equal(t, 7, cfg.SampleHistoryCapacity)
	assert.False(t, cfg.AllowDuplicates)
	assert.Equal(t, []string{"2a37", "2a39"}, cfg.CharacteristicAllowList)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.ErrorContains(t, err, "reading config file")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("refresh_interval: [\n"), 0o600))
		_, err := Load(path)
		assert.ErrorContains(t, err, "parsing config file")
	})

	t.Run("bad env value", func(t *testing.T) {
		t.Setenv("BLECENTRAL_STALE_TIMEOUT", "soon")
		_, err := Load("")
		assert.ErrorContains(t, err, "BLECENTRAL_STALE_TIMEOUT")
	})

	t.Run("invalid values", func(t *testing.T) {
		t.Setenv("BLECENTRAL_SAMPLE_HISTORY_CAPACITY", "0")
		t.Setenv("BLECENTRAL_LOG_LEVEL", "chatty")
		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sample_history_capacity must be positive")
		assert.Contains(t, err.Error(), "log_level")
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"negative refresh", func(c *Config) { c.RefreshInterval = -time.Second }, "refresh_interval"},
		{"zero connect timeout", func(c *Config) { c.ConnectTimeout = 0 }, "connect_timeout"},
		{"negative stale timeout", func(c *Config) { c.StaleTimeout = -1 }, "stale_timeout"},
		{"zero event buffer", func(c *Config) { c.EventBufferSize = 0 }, "event_buffer_size"},
		{"zero advertisement buffer", func(c *Config) { c.AdvertisementBuffer = 0 }, "advertisement_buffer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.errMsg)
		})
	}

	t.Run("zero refresh accepts every sample", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.RefreshInterval = 0
		assert.NoError(t, cfg.Validate())
	})
}

func BenchmarkDefaultConfig(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = DefaultConfig()
	}
}
