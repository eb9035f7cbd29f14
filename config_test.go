package oglog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearLogEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"SERVICE_NAME", "ENVIRONMENT", "LOG_LEVEL", "LOG_OUTPUT",
		"LOG_DIR", "LOG_MAX_MB", "LOG_RETENTION_COUNT", "LOG_RETENTION_TYPE",
		"JSON_LOGS",
	} {
		t.Setenv(k, "")
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	t.Run("development defaults", func(t *testing.T) {
		clearLogEnv(t)
		var cfg Config
		cfg.ApplyDefaults()

		assert.Equal(t, defaultServiceName, cfg.ServiceName)
		assert.Equal(t, defaultEnvironment, cfg.Environment)
		assert.Equal(t, defaultLevel, cfg.Level)
		assert.Equal(t, outputBoth, cfg.Output)
		require.NotNil(t, cfg.JSONOutput)
		assert.False(t, *cfg.JSONOutput)
		assert.Equal(t, defaultLogDir, cfg.LogDir)
		assert.Equal(t, defaultMaxMB, cfg.MaxMB)
		assert.Equal(t, defaultRetentionCount, cfg.RetentionCount)
		assert.Equal(t, retainDays, cfg.RetentionType)
		assert.Equal(t, defaultQueueCapacity, cfg.QueueCapacity)
		assert.Equal(t, defaultLockTimeout, cfg.LockTimeout)
		assert.Equal(t, defaultShutdownGrace, cfg.ShutdownGrace)
	})

	t.Run("production flips stdout and json", func(t *testing.T) {
		clearLogEnv(t)
		cfg := Config{Environment: "production"}
		cfg.ApplyDefaults()

		assert.Equal(t, outputStdout, cfg.Output)
		require.NotNil(t, cfg.JSONOutput)
		assert.True(t, *cfg.JSONOutput)
	})

	t.Run("environment variable fallbacks", func(t *testing.T) {
		clearLogEnv(t)
		t.Setenv("SERVICE_NAME", "env-api")
		t.Setenv("LOG_LEVEL", "WARNING")
		t.Setenv("LOG_OUTPUT", "file")
		t.Setenv("LOG_DIR", "/var/log/env-api")
		t.Setenv("LOG_MAX_MB", "50")
		t.Setenv("LOG_RETENTION_COUNT", "14")
		t.Setenv("LOG_RETENTION_TYPE", "hours")
		t.Setenv("JSON_LOGS", "true")

		var cfg Config
		cfg.ApplyDefaults()

		assert.Equal(t, "env-api", cfg.ServiceName)
		assert.Equal(t, "warn", cfg.Level)
		assert.Equal(t, outputFile, cfg.Output)
		assert.Equal(t, "/var/log/env-api", cfg.LogDir)
		assert.Equal(t, 50, cfg.MaxMB)
		assert.Equal(t, 14, cfg.RetentionCount)
		assert.Equal(t, retainHours, cfg.RetentionType)
		assert.True(t, *cfg.JSONOutput)
	})

	t.Run("explicit fields beat environment", func(t *testing.T) {
		clearLogEnv(t)
		t.Setenv("SERVICE_NAME", "env-api")
		t.Setenv("LOG_LEVEL", "error")

		cfg := Config{ServiceName: "arg-api", Level: "debug"}
		cfg.ApplyDefaults()

		assert.Equal(t, "arg-api", cfg.ServiceName)
		assert.Equal(t, "debug", cfg.Level)
	})

	t.Run("idempotent", func(t *testing.T) {
		clearLogEnv(t)
		var cfg Config
		cfg.ApplyDefaults()
		snapshot := cfg
		cfg.ApplyDefaults()
		assert.Equal(t, snapshot, cfg)
	})
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.ApplyDefaults()
		return cfg
	}

	t.Run("defaults pass", func(t *testing.T) {
		clearLogEnv(t)
		require.NoError(t, validateConfig(valid()))
	})

	t.Run("nil config", func(t *testing.T) {
		require.Error(t, validateConfig(nil))
	})

	t.Run("rejects bad values", func(t *testing.T) {
		clearLogEnv(t)
		cases := map[string]func(*Config){
			"bad level":          func(c *Config) { c.Level = "verbose" },
			"bad output":         func(c *Config) { c.Output = "syslog" },
			"bad retention type": func(c *Config) { c.RetentionType = "months" },
			"zero retention":     func(c *Config) { c.RetentionCount = -1 },
			"zero max size":      func(c *Config) { c.MaxMB = -5 },
			"missing service":    func(c *Config) { c.ServiceName = "" },
			"missing dir":        func(c *Config) { c.LogDir = "" },
			"zero lock timeout":  func(c *Config) { c.LockTimeout = -time.Second },
		}
		for name, mutate := range cases {
			t.Run(name, func(t *testing.T) {
				cfg := valid()
				mutate(cfg)
				assert.Error(t, validateConfig(cfg))
			})
		}
	})
}

func TestNormalizeLevel(t *testing.T) {
	assert.Equal(t, "warn", normalizeLevel("WARNING"))
	assert.Equal(t, "warn", normalizeLevel("warn"))
	assert.Equal(t, "debug", normalizeLevel(" DEBUG "))
	assert.Equal(t, "info", normalizeLevel("info"))
}
