package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "chain-gateway", cfg.App.Name)
	assert.Equal(t, 0, cfg.HTTPClient.RetryMax)
	assert.Equal(t, 300*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, "https://mayanode.mayachain.info", cfg.Chains.Maya.NodeURL)
	assert.Empty(t, cfg.Chains.CosmosOverrides)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("CACHE_TTL", "1m")
	t.Setenv("HTTP_RETRY_MAX", "not-a-number")
	t.Setenv("DB_ENABLED", "true")
	t.Setenv("COSMOS_REST_OVERRIDES", "gaia=http://localhost:1317, osmosis=http://osmo ,broken")

	cfg := Load()

	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 0, cfg.HTTPClient.RetryMax)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, map[string]string{
		"gaia":    "http://localhost:1317",
		"osmosis": "http://osmo",
	}, cfg.Chains.CosmosOverrides)
}
