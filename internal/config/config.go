// Package config provides configuration management for the hibachi CLI.
// It loads configuration from an optional YAML file and environment
// variables, with environment variables taking precedence.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the hibachi CLI
type Config struct {
	// APIURL is the trading API base URL
	APIURL string `yaml:"api_url"`

	// DataAPIURL is the market data API base URL
	DataAPIURL string `yaml:"data_api_url"`

	// AccountID is the trading account identifier
	AccountID int64 `yaml:"account_id"`

	// APIKey authenticates account and trade endpoints
	APIKey string `yaml:"api_key"`

	// PublicKey is the account public key used for deposits and transfers
	PublicKey string `yaml:"public_key"`

	// PrivateKey signs order, withdraw, and transfer requests
	PrivateKey string `yaml:"private_key"`
}

// New creates a new Config instance. When path is non-empty the YAML file
// at path is loaded first; environment variables then override individual
// fields.
func New(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from HIBACHI_* environment variables.
func (c *Config) applyEnv() error {
	if v := os.Getenv("HIBACHI_API_URL"); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv("HIBACHI_DATA_API_URL"); v != "" {
		c.DataAPIURL = v
	}
	if v := os.Getenv("HIBACHI_ACCOUNT_ID"); v != "" {
		accountID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid HIBACHI_ACCOUNT_ID: %w", err)
		}
		if accountID <= 0 {
			return fmt.Errorf("HIBACHI_ACCOUNT_ID must be positive, got: %d", accountID)
		}
		c.AccountID = accountID
	}
	if v := os.Getenv("HIBACHI_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("HIBACHI_PUBLIC_KEY"); v != "" {
		c.PublicKey = v
	}
	if v := os.Getenv("HIBACHI_PRIVATE_KEY"); v != "" {
		c.PrivateKey = v
	}
	return nil
}

// RequireAccount validates that the fields needed by account and trade
// endpoints are present.
func (c *Config) RequireAccount() error {
	if c.AccountID == 0 {
		return fmt.Errorf("account id is required; set HIBACHI_ACCOUNT_ID or account_id in the config file")
	}
	if c.APIKey == "" {
		return fmt.Errorf("api key is required; set HIBACHI_API_KEY or api_key in the config file")
	}
	return nil
}

// RequireSigning validates that the private key needed by order and
// capital operations is present.
func (c *Config) RequireSigning() error {
	if c.PrivateKey == "" {
		return fmt.Errorf("private key is required; set HIBACHI_PRIVATE_KEY or private_key in the config file")
	}
	return nil
}
