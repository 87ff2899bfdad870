/**
 * @description
 * Configuration for the session service, loaded from environment variables
 * via Viper with defaults suitable for running against a local backend.
 */
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the session service.
type Config struct {
	ServerPort            string `mapstructure:"SERVER_PORT"`
	BankAPIBaseURL        string `mapstructure:"BANK_API_BASE_URL"`
	BankAPITimeoutSeconds int    `mapstructure:"BANK_API_TIMEOUT_SECONDS"`
	StateDir              string `mapstructure:"STATE_DIR"`
	ReconcileSchedule     string `mapstructure:"RECONCILE_SCHEDULE"`
}

// BankAPITimeout returns the per-fetch timeout as a duration.
func (c Config) BankAPITimeout() time.Duration {
	return time.Duration(c.BankAPITimeoutSeconds) * time.Second
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	viper.SetDefault("SERVER_PORT", "8090")
	viper.SetDefault("BANK_API_BASE_URL", "http://localhost:3031")
	viper.SetDefault("BANK_API_TIMEOUT_SECONDS", 15)
	viper.SetDefault("STATE_DIR", "state")
	viper.SetDefault("RECONCILE_SCHEDULE", "@every 10s")
	viper.AutomaticEnv()

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("BANK_API_BASE_URL")
	_ = viper.BindEnv("BANK_API_TIMEOUT_SECONDS")
	_ = viper.BindEnv("STATE_DIR")
	_ = viper.BindEnv("RECONCILE_SCHEDULE")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.BankAPIBaseURL = strings.TrimRight(strings.TrimSpace(config.BankAPIBaseURL), "/")
	config.StateDir = strings.TrimSpace(config.StateDir)
	if config.StateDir == "" {
		config.StateDir = "state"
	}
	if config.BankAPITimeoutSeconds <= 0 {
		config.BankAPITimeoutSeconds = 15
	}
	if strings.TrimSpace(config.ReconcileSchedule) == "" {
		config.ReconcileSchedule = "@every 10s"
	}

	return &config, nil
}
