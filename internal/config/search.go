package config

import (
	"fmt"

	"factseeker/pkg/config"
)

// SearchProvidersConfig configures the two independently wired
// ports.SearchProvider instances: primary and secondary. ClaimProcessor
// falls back from primary to secondary when the primary pass yields
// low confidence (the secondary-provider cascade).
type SearchProvidersConfig struct {
	Primary   SearchProviderConfig
	Secondary SearchProviderConfig
}

// SearchProviderConfig configures one websearch.Provider instance.
type SearchProviderConfig struct {
	BaseURL           string
	APIKey            string
	RequestsPerSecond float64
	Burst             int
}

// LoadSearchProvidersConfig loads SearchProvidersConfig from the
// environment, validating both instances.
func LoadSearchProvidersConfig() (*SearchProvidersConfig, error) {
	cfg := &SearchProvidersConfig{
		Primary: SearchProviderConfig{
			BaseURL:           config.GetEnvString("PRIMARY_SEARCH_BASE_URL", ""),
			APIKey:            config.GetEnvString("PRIMARY_SEARCH_API_KEY", ""),
			RequestsPerSecond: float64(float32GetEnv("PRIMARY_SEARCH_RPS", 5)),
			Burst:             config.GetEnvInt("PRIMARY_SEARCH_BURST", 10),
		},
		Secondary: SearchProviderConfig{
			BaseURL:           config.GetEnvString("SECONDARY_SEARCH_BASE_URL", ""),
			APIKey:            config.GetEnvString("SECONDARY_SEARCH_API_KEY", ""),
			RequestsPerSecond: float64(float32GetEnv("SECONDARY_SEARCH_RPS", 5)),
			Burst:             config.GetEnvInt("SECONDARY_SEARCH_BURST", 10),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid search provider configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration correctness.
func (c *SearchProvidersConfig) Validate() error {
	if c.Primary.BaseURL == "" {
		return fmt.Errorf("PRIMARY_SEARCH_BASE_URL must be set")
	}
	if c.Secondary.BaseURL == "" {
		return fmt.Errorf("SECONDARY_SEARCH_BASE_URL must be set")
	}
	if c.Primary.RequestsPerSecond <= 0 || c.Secondary.RequestsPerSecond <= 0 {
		return fmt.Errorf("search provider RPS must be positive")
	}
	if c.Primary.Burst <= 0 || c.Secondary.Burst <= 0 {
		return fmt.Errorf("search provider burst must be positive")
	}
	return nil
}
