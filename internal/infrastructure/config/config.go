package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Marketcore.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Registry  RegistryConfig  `yaml:"registry"`
	Database  DatabaseConfig  `yaml:"database"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	API       APIConfig       `yaml:"api"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// Registry client modes.
const (
	// RegistryModeRPC talks to a real chain node over JSON-RPC.
	RegistryModeRPC = "rpc"

	// RegistryModeMemory uses the in-process registry, for development
	// and integration testing without a chain node.
	RegistryModeMemory = "memory"
)

// RegistryConfig contains settings for the on-chain device registry client.
type RegistryConfig struct {
	// Mode selects the registry backend: "rpc" or "memory".
	Mode string `yaml:"mode"`

	// RPCURL is the JSON-RPC endpoint of the chain node (rpc mode only).
	RPCURL string `yaml:"rpc_url"`

	// ContractAddress is the deployed DeviceRegistry contract address
	// (0x-prefixed hex, rpc mode only).
	ContractAddress string `yaml:"contract_address"`

	// SignerKey is the hex-encoded private key used to sign write
	// transactions. Leave empty for a read-only client; writes will
	// fail with a signer-unset error.
	// Always set via MARKETCORE_SIGNER_KEY in production.
	SignerKey string `yaml:"signer_key"`
}

// DatabaseConfig contains SQLite database settings for local state
// (discovery hints, subscription overlays).
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// DiscoveryConfig contains marketplace discovery settings.
type DiscoveryConfig struct {
	// MarketplaceLimit is the default maximum number of hint entries
	// resolved by a marketplace discovery request.
	MarketplaceLimit int `yaml:"marketplace_limit"`

	// MaxConcurrentHydrations bounds the per-batch fan-out of metadata
	// reads against the registry.
	MaxConcurrentHydrations int `yaml:"max_concurrent_hydrations"`
}

// MQTTConfig contains MQTT broker connection settings for reading publication.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// TelemetryConfig contains InfluxDB connection settings for the
// reading store that backs derived device statistics.
type TelemetryConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from the given YAML file path.
//
// Configuration is resolved in three layers:
//  1. Built-in defaults
//  2. YAML file values
//  3. MARKETCORE_* environment variable overrides
//
// The merged configuration is validated before being returned.
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Registry: RegistryConfig{
			Mode: RegistryModeMemory,
		},
		Database: DatabaseConfig{
			Path:        "./data/marketcore.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Discovery: DiscoveryConfig{
			MarketplaceLimit:        50,
			MaxConcurrentHydrations: 8,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "marketcore",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: MARKETCORE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Registry
	if v := os.Getenv("MARKETCORE_REGISTRY_MODE"); v != "" {
		cfg.Registry.Mode = v
	}
	if v := os.Getenv("MARKETCORE_RPC_URL"); v != "" {
		cfg.Registry.RPCURL = v
	}
	if v := os.Getenv("MARKETCORE_CONTRACT_ADDRESS"); v != "" {
		cfg.Registry.ContractAddress = v
	}
	if v := os.Getenv("MARKETCORE_SIGNER_KEY"); v != "" {
		cfg.Registry.SignerKey = v
	}

	// Database
	if v := os.Getenv("MARKETCORE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("MARKETCORE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("MARKETCORE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("MARKETCORE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Telemetry
	if v := os.Getenv("MARKETCORE_INFLUXDB_TOKEN"); v != "" {
		cfg.Telemetry.Token = v
	}

	// API
	if v := os.Getenv("MARKETCORE_API_HOST"); v != "" {
		cfg.API.Host = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	// Registry validation
	switch c.Registry.Mode {
	case RegistryModeRPC:
		if c.Registry.RPCURL == "" {
			errs = append(errs, "registry.rpc_url is required in rpc mode")
		}
		if c.Registry.ContractAddress == "" {
			errs = append(errs, "registry.contract_address is required in rpc mode (set MARKETCORE_CONTRACT_ADDRESS)")
		}
	case RegistryModeMemory:
		// No further settings required
	default:
		errs = append(errs, fmt.Sprintf("registry.mode must be %q or %q", RegistryModeRPC, RegistryModeMemory))
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// Discovery validation
	if c.Discovery.MarketplaceLimit < 1 {
		errs = append(errs, "discovery.marketplace_limit must be positive")
	}
	if c.Discovery.MaxConcurrentHydrations < 1 {
		errs = append(errs, "discovery.max_concurrent_hydrations must be positive")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// Telemetry validation
	if c.Telemetry.Enabled && c.Telemetry.URL == "" {
		errs = append(errs, "telemetry.url is required when telemetry is enabled")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
