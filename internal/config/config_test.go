package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	tempDir := t.TempDir()

	configContent := `
[server]
port = 9090
rpc_timeout = 15

[event_log]
enabled = true
backend = "memory"
compressor = "none"

[index]
enabled = true
host = "db.internal"
database = "auctions_prod"
username = "dutchd"
password = "secret"

[[assets]]
id = "SOLD"

[assets.balances]
alice = 1000

[assets.approvals]
alice = 1000

[[assets]]
id = "PAID"

[assets.balances]
bob = 10000
`

	configPath := filepath.Join(tempDir, "dutchd.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	config, err := LoadConfig(configPath)
	require.NoError(t, err)
	require.NotNil(t, config)

	assert.Equal(t, configPath, config.GetConfigPath())
	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, 15, config.Server.RPCTimeoutSecs)

	assert.True(t, config.EventLog.Enabled)
	assert.Equal(t, "memory", config.EventLog.Backend)
	assert.Equal(t, "none", config.EventLog.Compressor)
	// Defaults survive partial sections
	assert.Equal(t, 1024, config.EventLog.CacheSize)

	assert.True(t, config.Index.Enabled)
	assert.Equal(t, "db.internal", config.Index.Host)
	assert.Equal(t, "auctions_prod", config.Index.Database)
	assert.Equal(t, 5432, config.Index.Port)

	require.Len(t, config.Assets, 2)
	assert.Equal(t, "SOLD", config.Assets[0].ID)
	assert.Equal(t, uint64(1000), config.Assets[0].Balances["alice"])
	assert.Equal(t, uint64(1000), config.Assets[0].Approvals["alice"])
	assert.Equal(t, "PAID", config.Assets[1].ID)
}

func TestLoadConfigDefaults(t *testing.T) {
	// Run from a directory with no dutchd.toml
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	defer os.Chdir(wd)

	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Empty(t, config.GetConfigPath())
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, 30, config.Server.RPCTimeoutSecs)
	assert.True(t, config.EventLog.Enabled)
	assert.Equal(t, "pebble", config.EventLog.Backend)
	assert.Equal(t, "lz4", config.EventLog.Compressor)
	assert.False(t, config.Index.Enabled)
	assert.Empty(t, config.Assets)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestLoadConfigEnvironmentOverride(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	defer os.Chdir(wd)

	t.Setenv("DUTCHD_SERVER_PORT", "7000")
	t.Setenv("DUTCHD_EVENT_LOG_BACKEND", "leveldb")

	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 7000, config.Server.Port)
	assert.Equal(t, "leveldb", config.EventLog.Backend)
}

func TestValidateConfig(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server: ServerConfig{Port: 8080, RPCTimeoutSecs: 30},
		}
	}

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, ValidateConfig(base()))
	})

	t.Run("bad port", func(t *testing.T) {
		cfg := base()
		cfg.Server.Port = 0
		require.Error(t, ValidateConfig(cfg))
	})

	t.Run("bad timeout", func(t *testing.T) {
		cfg := base()
		cfg.Server.RPCTimeoutSecs = -1
		require.Error(t, ValidateConfig(cfg))
	})

	t.Run("asset without id", func(t *testing.T) {
		cfg := base()
		cfg.Assets = []AssetConfig{{}}
		require.Error(t, ValidateConfig(cfg))
	})

	t.Run("duplicate asset id", func(t *testing.T) {
		cfg := base()
		cfg.Assets = []AssetConfig{{ID: "SOLD"}, {ID: "SOLD"}}
		require.Error(t, ValidateConfig(cfg))
	})

	t.Run("event log enabled without path", func(t *testing.T) {
		cfg := base()
		cfg.EventLog.Enabled = true
		cfg.EventLog.Backend = "pebble"
		require.Error(t, ValidateConfig(cfg))
	})
}
