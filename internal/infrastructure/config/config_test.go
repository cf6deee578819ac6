package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
registry:
  mode: "rpc"
  rpc_url: "https://dream-rpc.somnia.network"
  contract_address: "0x1111111111111111111111111111111111111111"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
api:
  host: "0.0.0.0"
  port: 8080
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Registry.Mode != RegistryModeRPC {
		t.Errorf("Registry.Mode = %q, want %q", cfg.Registry.Mode, RegistryModeRPC)
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}

	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "localhost")
	}

	// Defaults fill in the sections the file omits.
	if cfg.Discovery.MarketplaceLimit != 50 {
		t.Errorf("Discovery.MarketplaceLimit = %d, want 50", cfg.Discovery.MarketplaceLimit)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_RPCModeRequiresContractAddress(t *testing.T) {
	content := `
registry:
  mode: "rpc"
  rpc_url: "https://dream-rpc.somnia.network"
database:
  path: "/tmp/test.db"
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Fatal("Load() expected error for missing contract address, got nil")
	}
	if !strings.Contains(err.Error(), "contract_address") {
		t.Errorf("Load() error = %v, want mention of contract_address", err)
	}
}

func TestLoad_InvalidRegistryMode(t *testing.T) {
	content := `
registry:
  mode: "carrier-pigeon"
database:
  path: "/tmp/test.db"
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Fatal("Load() expected error for invalid registry mode, got nil")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	content := `
registry:
  mode: "memory"
database:
  path: "/tmp/test.db"
`
	t.Setenv("MARKETCORE_DATABASE_PATH", "/tmp/override.db")

	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != "/tmp/override.db" {
		t.Errorf("Database.Path = %q, want env override", cfg.Database.Path)
	}
}

func TestValidate_QoSBounds(t *testing.T) {
	cfg := defaultConfig()
	cfg.MQTT.QoS = 3
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for qos=3, got nil")
	}
}
