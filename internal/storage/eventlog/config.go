package eventlog

import (
	"errors"
	"fmt"
)

// Config holds configuration options for the event log.
type Config struct {
	// Backend specifies the storage backend to use
	Backend string `json:"backend" mapstructure:"backend"`

	// Path specifies the file system path for data storage
	Path string `json:"path" mapstructure:"path"`

	// CacheSize is the number of recently read entries kept in memory
	CacheSize int `json:"cache_size" mapstructure:"cache_size"`

	// Compression configuration
	Compressor       string `json:"compressor" mapstructure:"compressor"`
	CompressionLevel int    `json:"compression_level" mapstructure:"compression_level"`

	// CreateIfMissing controls whether the backing store is created on open
	CreateIfMissing bool `json:"create_if_missing" mapstructure:"create_if_missing"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Backend:          "pebble",
		Path:             "./eventlog",
		CacheSize:        1024,
		Compressor:       "lz4",
		CompressionLevel: 1,
		CreateIfMissing:  true,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Backend == "" {
		return errors.New("backend must be specified")
	}

	if c.Backend != "memory" && c.Path == "" {
		return errors.New("path must be specified")
	}

	if c.CacheSize < 0 {
		return errors.New("cache_size must be non-negative")
	}

	if c.CompressionLevel < 0 || c.CompressionLevel > 9 {
		return errors.New("compression_level must be between 0 and 9")
	}

	validCompressors := map[string]bool{
		"lz4":  true,
		"none": true,
	}
	if !validCompressors[c.Compressor] {
		return fmt.Errorf("unsupported compressor: %s", c.Compressor)
	}

	return nil
}

// Option represents a functional option for configuring the event log.
type Option func(*Config)

// WithBackend sets the storage backend.
func WithBackend(backend string) Option {
	return func(c *Config) {
		c.Backend = backend
	}
}

// WithPath sets the storage path.
func WithPath(path string) Option {
	return func(c *Config) {
		c.Path = path
	}
}

// WithCacheSize sets the read cache size (number of entries).
func WithCacheSize(size int) Option {
	return func(c *Config) {
		c.CacheSize = size
	}
}

// WithCompression sets the compression algorithm and level.
func WithCompression(compressor string, level int) Option {
	return func(c *Config) {
		c.Compressor = compressor
		c.CompressionLevel = level
	}
}

// ApplyOptions applies the given options to the config.
func (c *Config) ApplyOptions(options ...Option) {
	for _, option := range options {
		option(c)
	}
}

// String returns a string representation of the configuration.
func (c *Config) String() string {
	return fmt.Sprintf("EventLog{backend: %s, path: %s, cache: %d, compression: %s(%d)}",
		c.Backend, c.Path, c.CacheSize, c.Compressor, c.CompressionLevel)
}
