// Package config loads and validates the dutchd configuration from
// defaults, an optional TOML file, and DUTCHD_-prefixed environment
// variables, in that priority order.
package config

import (
	"github.com/hola-official/ReverseDutchAuctionSwap/internal/storage/eventlog"
	"github.com/hola-official/ReverseDutchAuctionSwap/internal/storage/relationaldb"
)

// Config represents the complete dutchd configuration.
type Config struct {
	// Server section: RPC listener settings.
	Server ServerConfig `toml:"server" mapstructure:"server"`

	// EventLog section: the persistent append-only event log.
	EventLog EventLogConfig `toml:"event_log" mapstructure:"event_log"`

	// Index section: the optional relational query index.
	Index IndexConfig `toml:"index" mapstructure:"index"`

	// Assets section: token ledgers seeded at startup. The engine only
	// trades assets listed here.
	Assets []AssetConfig `toml:"assets" mapstructure:"assets"`

	// Internal field for configuration management
	configPath string `toml:"-" mapstructure:"-"`
}

// ServerConfig holds the RPC listener settings.
type ServerConfig struct {
	// BindAddress is the interface to listen on; empty means all.
	BindAddress string `toml:"bind_address" mapstructure:"bind_address"`

	// Port is the shared HTTP and WebSocket port.
	Port int `toml:"port" mapstructure:"port"`

	// RPCTimeoutSecs bounds a single RPC call.
	RPCTimeoutSecs int `toml:"rpc_timeout" mapstructure:"rpc_timeout"`
}

// EventLogConfig wraps the event log settings with an enable switch.
type EventLogConfig struct {
	Enabled bool `toml:"enabled" mapstructure:"enabled"`

	eventlog.Config `mapstructure:",squash"`
}

// IndexConfig wraps the relational index settings with an enable switch.
type IndexConfig struct {
	Enabled bool `toml:"enabled" mapstructure:"enabled"`

	relationaldb.Config `mapstructure:",squash"`
}

// AssetConfig declares one token ledger and its starting state.
type AssetConfig struct {
	// ID is the asset identifier auctions reference.
	ID string `toml:"id" mapstructure:"id"`

	// Balances maps account ids to their minted starting balance.
	Balances map[string]uint64 `toml:"balances" mapstructure:"balances"`

	// Approvals maps account ids to the allowance each grants the
	// engine's escrow account. Without an approval an account cannot
	// sell (or buy with) this asset.
	Approvals map[string]uint64 `toml:"approvals" mapstructure:"approvals"`
}

// GetConfigPath returns the path of the loaded configuration file, or
// empty when running on defaults.
func (c *Config) GetConfigPath() string {
	return c.configPath
}
