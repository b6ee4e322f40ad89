package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Valid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"relative site URL", func(c *Config) { c.Site.BaseURL = "www.webmd.com" }, "BaseURL"},
		{"search path without slash", func(c *Config) { c.Site.SearchPath = "search" }, "SearchPath"},
		{"negative workers", func(c *Config) { c.Concurrency.PageWorkers = -1 }, "PageWorkers"},
		{"negative rate", func(c *Config) { c.RateLimiting.RequestsPerSecond = -2 }, "RequestsPerSecond"},
		{"unknown log format", func(c *Config) { c.Output.LogFormat = "xml" }, "LogFormat"},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "gemini" }, "Provider"},
		{"single label", func(c *Config) { c.LLM.Labels = []string{"positive"} }, "Labels"},
		{"redis without address", func(c *Config) { c.Cache.Backend = "redis" }, "RedisAddr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestConfig_ValidateAcceptsRedis(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cache.Backend = "redis"
	cfg.Cache.RedisAddr = "localhost:6379"
	cfg.LLM.Provider = "ollama"

	assert.NoError(t, cfg.Validate())
}
