package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration from multiple sources in priority order:
// 1. Default values
// 2. Configuration file (dutchd.toml), when present
// 3. Environment variables (DUTCHD_ prefix)
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults first
	setDefaults(v)

	// 2. Load configuration file. A missing file is only an error when
	// the caller named one explicitly.
	loadedPath, err := loadConfigFile(v, configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// 3. Set up environment variable support
	v.SetEnvPrefix("DUTCHD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Unmarshal into struct
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.configPath = loadedPath

	// 5. Validate the complete configuration
	if err := ValidateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// loadConfigFile merges a TOML file into v. It returns the path that was
// actually read, or empty when running on defaults.
func loadConfigFile(v *viper.Viper, configPath string) (string, error) {
	if configPath == "" {
		// Look for dutchd.toml in the working directory, silently
		// falling back to defaults when absent.
		configPath = "dutchd.toml"
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return "", nil
		}
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return "", fmt.Errorf("config file does not exist: %s", configPath)
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return "", fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	return configPath, nil
}
