package config

import "github.com/spf13/viper"

// setDefaults sets all default values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.bind_address", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rpc_timeout", 30)

	// Event log defaults
	v.SetDefault("event_log.enabled", true)
	v.SetDefault("event_log.backend", "pebble")
	v.SetDefault("event_log.path", "./data/eventlog")
	v.SetDefault("event_log.cache_size", 1024)
	v.SetDefault("event_log.compressor", "lz4")
	v.SetDefault("event_log.compression_level", 1)
	v.SetDefault("event_log.create_if_missing", true)

	// Index defaults; disabled until a database is configured
	v.SetDefault("index.enabled", false)
	v.SetDefault("index.host", "localhost")
	v.SetDefault("index.port", 5432)
	v.SetDefault("index.database", "auctions")
	v.SetDefault("index.username", "auctions")
	v.SetDefault("index.ssl_mode", "prefer")
	v.SetDefault("index.max_open_conns", 25)
	v.SetDefault("index.max_idle_conns", 5)
	v.SetDefault("index.conn_max_lifetime", "1h")
	v.SetDefault("index.default_timeout", "30s")
}
