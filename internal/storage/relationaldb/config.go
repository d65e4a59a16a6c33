package relationaldb

import (
	"fmt"
	"net/url"
	"time"
)

// Config contains database configuration settings
type Config struct {
	// Database connection settings
	ConnectionString string `json:"connection_string" mapstructure:"connection_string"`
	Host             string `json:"host" mapstructure:"host"`
	Port             int    `json:"port" mapstructure:"port"`
	Database         string `json:"database" mapstructure:"database"`
	Username         string `json:"username" mapstructure:"username"`
	Password         string `json:"password" mapstructure:"password"`
	SSLMode          string `json:"ssl_mode" mapstructure:"ssl_mode"`

	// Connection pool settings
	MaxOpenConns    int           `json:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`

	// Query timeout
	DefaultTimeout time.Duration `json:"default_timeout" mapstructure:"default_timeout"`
}

// NewConfig creates a new Config with sensible defaults
func NewConfig() *Config {
	return &Config{
		Host:            "localhost",
		Port:            5432,
		Database:        "auctions",
		Username:        "auctions",
		SSLMode:         "prefer",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		DefaultTimeout:  time.Second * 30,
	}
}

// Validate checks the configuration for common errors
func (c *Config) Validate() error {
	if c.ConnectionString != "" {
		// A full DSN overrides the individual fields.
		return nil
	}

	if c.Host == "" {
		return ErrMissingHost
	}
	if c.Port <= 0 || c.Port > 65535 {
		return ErrInvalidPort
	}
	if c.Database == "" {
		return ErrMissingDatabase
	}
	if c.Username == "" {
		return ErrMissingUsername
	}

	switch c.SSLMode {
	case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
	default:
		return fmt.Errorf("invalid SSL mode: %s", c.SSLMode)
	}

	if c.DefaultTimeout <= 0 {
		return ErrInvalidTimeout
	}

	return nil
}

// BuildConnectionString builds a PostgreSQL DSN from the config.
func (c *Config) BuildConnectionString() (string, error) {
	if c.ConnectionString != "" {
		return c.ConnectionString, nil
	}

	params := url.Values{}
	params.Set("sslmode", c.SSLMode)
	params.Set("connect_timeout", "30")
	params.Set("application_name", "auction-index")

	u := url.URL{
		Scheme:   "postgres",
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: params.Encode(),
	}
	if c.Username != "" {
		if c.Password != "" {
			u.User = url.UserPassword(c.Username, c.Password)
		} else {
			u.User = url.User(c.Username)
		}
	}

	return u.String(), nil
}

// String returns a string representation of the config with the password
// redacted.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Host: %s, Port: %d, Database: %s, User: %s}",
		c.Host, c.Port, c.Database, c.Username)
}
