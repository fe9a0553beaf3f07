/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		bind:           "127.0.0.1",
		maxMessageSize: 4096,
		port:           8080,
		rateBurst:      40,
		rateLimit:      20,
		sessionTimeout: 4 * time.Hour,
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"reaper disabled", func(c *Config) { c.sessionTimeout = 0 }, false},
		{"tls pair", func(c *Config) { c.tlsCert, c.tlsKey = "cert.pem", "key.pem" }, false},
		{"client url", func(c *Config) { c.clientURL = "https://watch.example.com/app" }, false},
		{"port zero", func(c *Config) { c.port = 0 }, true},
		{"port too high", func(c *Config) { c.port = 65536 }, true},
		{"cert without key", func(c *Config) { c.tlsCert = "cert.pem" }, true},
		{"key without cert", func(c *Config) { c.tlsKey = "key.pem" }, true},
		{"negative timeout", func(c *Config) { c.sessionTimeout = -time.Second }, true},
		{"zero rate", func(c *Config) { c.rateLimit = 0 }, true},
		{"zero burst", func(c *Config) { c.rateBurst = 0 }, true},
		{"tiny frames", func(c *Config) { c.maxMessageSize = 100 }, true},
		{"relative client url", func(c *Config) { c.clientURL = "/app" }, true},
		{"broken client url", func(c *Config) { c.clientURL = "http://[::1" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigScheme(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "http", cfg.scheme())

	cfg.tlsCert, cfg.tlsKey = "cert.pem", "key.pem"
	assert.Equal(t, "https", cfg.scheme())
}

func execute(t *testing.T, args ...string) (*Config, string, error) {
	t.Helper()

	cfg := &Config{}
	cmd := newCmd(cfg)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return cfg, out.String(), err
}

func TestNewCmd(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, out, err := execute(t, "--version")
		require.NoError(t, err)

		assert.Equal(t, "watchparty v"+releaseVersion+"\n", out)
		assert.Equal(t, "0.0.0.0", cfg.bind)
		assert.Equal(t, 8080, cfg.port)
		assert.Zero(t, cfg.sessionTimeout, "idle reaper is opt-in")
		assert.Equal(t, float64(20), cfg.rateLimit)
		assert.Equal(t, 40, cfg.rateBurst)
		assert.Equal(t, int64(4096), cfg.maxMessageSize)
		assert.False(t, cfg.metrics)
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("WATCHPARTY_PORT", "9000")
		t.Setenv("WATCHPARTY_SESSION_TIMEOUT", "30m")
		t.Setenv("WATCHPARTY_METRICS", "true")
		t.Setenv("WATCHPARTY_CLIENT_URL", "https://watch.example.com")

		cfg, _, err := execute(t, "--version")
		require.NoError(t, err)

		assert.Equal(t, 9000, cfg.port)
		assert.Equal(t, 30*time.Minute, cfg.sessionTimeout)
		assert.True(t, cfg.metrics)
		assert.Equal(t, "https://watch.example.com", cfg.clientURL)
	})

	t.Run("flags beat environment", func(t *testing.T) {
		t.Setenv("WATCHPARTY_PORT", "9000")

		cfg, _, err := execute(t, "--port", "9100", "--version")
		require.NoError(t, err)
		assert.Equal(t, 9100, cfg.port)
	})

	t.Run("underscores normalise", func(t *testing.T) {
		cfg, _, err := execute(t, "--rate_limit", "5", "--max_message_size=1024", "--version")
		require.NoError(t, err)
		assert.Equal(t, float64(5), cfg.rateLimit)
		assert.Equal(t, int64(1024), cfg.maxMessageSize)
	})

	t.Run("invalid config never serves", func(t *testing.T) {
		_, _, err := execute(t, "--port", "0")
		assert.ErrorContains(t, err, "invalid port")
	})

	t.Run("positional args rejected", func(t *testing.T) {
		_, _, err := execute(t, "extra")
		assert.Error(t, err)
	})
}
