package config

import "fmt"

// ValidateConfig performs validation on the complete configuration
func ValidateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}

	if config.EventLog.Enabled {
		if err := config.EventLog.Config.Validate(); err != nil {
			return fmt.Errorf("event_log validation failed: %w", err)
		}
	}

	if config.Index.Enabled {
		if err := config.Index.Config.Validate(); err != nil {
			return fmt.Errorf("index validation failed: %w", err)
		}
	}

	if err := validateAssets(config.Assets); err != nil {
		return fmt.Errorf("assets validation failed: %w", err)
	}

	return nil
}

func validateServerConfig(server *ServerConfig) error {
	if server.Port < 1 || server.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", server.Port)
	}
	if server.RPCTimeoutSecs <= 0 {
		return fmt.Errorf("rpc_timeout must be positive, got %d", server.RPCTimeoutSecs)
	}
	return nil
}

func validateAssets(assets []AssetConfig) error {
	seen := make(map[string]struct{}, len(assets))
	for i, asset := range assets {
		if asset.ID == "" {
			return fmt.Errorf("asset %d is missing an id", i)
		}
		if _, dup := seen[asset.ID]; dup {
			return fmt.Errorf("duplicate asset id %q", asset.ID)
		}
		seen[asset.ID] = struct{}{}
	}
	return nil
}
