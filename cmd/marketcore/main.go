// Marketcore - Decentralised IoT Data-Stream Marketplace Core
//
// This is the main entry point for the Marketcore service. Marketcore keeps
// a local discovery layer reconciled against an on-chain device registry:
//   - Device registration, ownership, and pricing on chain
//   - Time-bounded subscriber access with local overlay state
//   - Sensor-payload validation gating MQTT publication
//   - Optional InfluxDB telemetry enrichment
package main

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	_ "github.com/somniastreams/marketcore/migrations"

	"github.com/somniastreams/marketcore/internal/api"
	"github.com/somniastreams/marketcore/internal/discovery"
	"github.com/somniastreams/marketcore/internal/infrastructure/config"
	"github.com/somniastreams/marketcore/internal/infrastructure/database"
	"github.com/somniastreams/marketcore/internal/infrastructure/logging"
	"github.com/somniastreams/marketcore/internal/infrastructure/mqtt"
	"github.com/somniastreams/marketcore/internal/infrastructure/telemetry"
	"github.com/somniastreams/marketcore/internal/registry"
	"github.com/somniastreams/marketcore/internal/sensordata"
	"github.com/somniastreams/marketcore/internal/subscription"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Marketcore",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Build the registry client
	client, err := buildRegistryClient(cfg, log)
	if err != nil {
		return fmt.Errorf("building registry client: %w", err)
	}

	// Connect to InfluxDB (optional)
	var telemetryClient *telemetry.Client
	if cfg.Telemetry.Enabled {
		telemetryClient, err = telemetry.Connect(cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := telemetryClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.Telemetry.URL,
			"org", cfg.Telemetry.Org,
			"bucket", cfg.Telemetry.Bucket,
		)

		telemetryClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	} else {
		log.Info("MQTT disabled, reading publication unavailable")
	}

	// Discovery engine over the local hint store
	hints := discovery.NewSQLiteHintStore(db)
	engine := discovery.NewEngine(client, hints, cfg.Discovery.MaxConcurrentHydrations)
	engine.SetLogger(log)
	if telemetryClient != nil {
		engine.SetStatsSource(telemetryClient)
	}

	// Subscription lifecycle over the local overlay store
	overlays := subscription.NewSQLiteOverlayRepository(db)
	subs := subscription.NewService(client, overlays)
	subs.SetLogger(log)

	// Reading publisher (requires a broker)
	var publisher *sensordata.Publisher
	if mqttClient != nil {
		publisher = sensordata.NewPublisher(client, mqttClient)
		publisher.SetLogger(log)
		if telemetryClient != nil {
			publisher.SetRecorder(telemetryClient)
		}
	}

	// Start the HTTP API
	server, err := api.New(api.Deps{
		Config:        cfg.API,
		Logger:        log,
		Registry:      client,
		Engine:        engine,
		Subscriptions: subs,
		Publisher:     publisher,
		Version:       version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port))

	// Verify infrastructure connections are healthy
	if err := healthCheck(ctx, db, mqttClient, telemetryClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server
	// 2. MQTT (if enabled)
	// 3. InfluxDB (if enabled)
	// 4. Database

	log.Info("Marketcore stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses MARKETCORE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("MARKETCORE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// buildRegistryClient creates the registry client for the configured mode.
//
// In memory mode the registry lives in process, which is enough for local
// development and integration testing. In rpc mode the client talks to the
// deployed contract through a JSON-RPC node; without a signer key the client
// is read-only and write calls fail with a signer-unset error.
func buildRegistryClient(cfg *config.Config, log *logging.Logger) (registry.Client, error) {
	switch cfg.Registry.Mode {
	case config.RegistryModeMemory:
		log.Info("registry client in memory mode")
		return registry.NewMemoryClient(), nil

	case config.RegistryModeRPC:
		backend, err := ethclient.Dial(cfg.Registry.RPCURL)
		if err != nil {
			return nil, fmt.Errorf("dialling chain node %s: %w", cfg.Registry.RPCURL, err)
		}

		if !common.IsHexAddress(cfg.Registry.ContractAddress) {
			return nil, fmt.Errorf("invalid contract address %q", cfg.Registry.ContractAddress)
		}
		contract := common.HexToAddress(cfg.Registry.ContractAddress)

		var key *ecdsa.PrivateKey
		if cfg.Registry.SignerKey != "" {
			parsed, keyErr := crypto.HexToECDSA(strings.TrimPrefix(cfg.Registry.SignerKey, "0x"))
			if keyErr != nil {
				return nil, fmt.Errorf("parsing signer key: %w", keyErr)
			}
			key = parsed
		}

		client, err := registry.NewContractClient(backend, contract, key)
		if err != nil {
			return nil, err
		}

		log.Info("registry client in rpc mode",
			"node", cfg.Registry.RPCURL,
			"contract", contract.Hex(),
			"read_only", key == nil,
		)
		return client, nil
	}

	return nil, fmt.Errorf("unknown registry mode %q", cfg.Registry.Mode)
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - telemetryClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, telemetryClient *telemetry.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if telemetryClient != nil {
		if err := telemetryClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
