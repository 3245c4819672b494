package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// BackendConfig points at the external code-generation service that receives
// accepted placement payloads. previewd only stores these values; the POST +
// poll contract is consumed elsewhere.
type BackendConfig struct {
	BaseURL string `json:"base_url,omitempty"`
	Token   string `json:"token,omitempty"`
}

// Config contains the persisted previewd configuration
type Config struct {
	Backend       BackendConfig `json:"backend,omitempty"`
	Browser       string        `json:"browser,omitempty"` // "system" or "none"
	Notifications bool          `json:"notifications"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Browser:       "system",
		Notifications: true,
	}
}

// GetConfigDir returns the previewd configuration directory
func GetConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return LocalConfigDir
	}
	return filepath.Join(homeDir, LocalConfigDir)
}

// GetConfigPath returns the path to the main config file
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), LocalConfigFile)
}

// LoadConfig loads the configuration, returning defaults if no file exists
func LoadConfig() (*Config, error) {
	path := GetConfigPath()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig writes the configuration to disk
func SaveConfig(cfg *Config) error {
	dir := GetConfigDir()
	if err := os.MkdirAll(dir, PermDirectory); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(GetConfigPath(), data, PermConfigFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
