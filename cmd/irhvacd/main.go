// irhvacd - Networked IR HVAC Controller
//
// This is the main entry point for the irhvac-core daemon. It drives
// air conditioning units over infrared from three front doors sharing
// one command engine:
//   - Line-delimited JSON commands over persistent TCP (port 4998)
//   - An HTTP management API with a WebSocket state feed
//   - An MQTT gateway for home automation platforms
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/irhvac-core/migrations"

	"github.com/nerrad567/irhvac-core/internal/api"
	"github.com/nerrad567/irhvac-core/internal/gateway"
	"github.com/nerrad567/irhvac-core/internal/hvac"
	"github.com/nerrad567/irhvac-core/internal/infrastructure/config"
	"github.com/nerrad567/irhvac-core/internal/infrastructure/database"
	"github.com/nerrad567/irhvac-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/irhvac-core/internal/infrastructure/logging"
	"github.com/nerrad567/irhvac-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/irhvac-core/internal/irdriver"
	"github.com/nerrad567/irhvac-core/internal/telnet"
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
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting irhvac-core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

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

	// Open database and apply migrations
	db, err := database.Open(database.Config{
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

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Device registry over SQLite persistence
	repo := hvac.NewSQLiteRepository(db.DB)
	states := hvac.NewStateStore()
	registry := hvac.NewRegistry(repo, states)
	registry.SetLogger(log)
	if refreshErr := registry.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading device registry: %w", refreshErr)
	}
	log.Info("device registry initialised", "devices", registry.Count())

	// Emitter table. The simulated hardware binding logs transmissions
	// instead of driving GPIO; physical bindings implement
	// irdriver.Hardware and slot in here.
	hardware := irdriver.NewSimulatedHardware()
	hardware.SetLogger(log)
	emitters := irdriver.NewTable(hardware, cfg.Limits.MaxEmitters)
	emitters.SetLogger(log)

	emitterConfigs, err := repo.ListEmitters(ctx)
	if err != nil {
		return fmt.Errorf("loading emitter table: %w", err)
	}
	gpios := make([]int, len(emitterConfigs))
	for i, ec := range emitterConfigs {
		gpios[i] = ec.GPIO
	}
	if rebuildErr := emitters.Rebuild(gpios); rebuildErr != nil {
		return fmt.Errorf("building emitter table: %w", rebuildErr)
	}
	if emitters.Len() == 0 {
		log.Warn("no emitters configured; sends will fail until channels are added")
	} else {
		log.Info("emitter table built", "channels", emitters.Len())
	}

	// Command engine
	engine := hvac.NewEngine(registry, emitters)
	engine.SetLogger(log)

	// Telnet command server
	telnetSrv := telnet.NewServer(telnet.Config{
		Host:         cfg.Telnet.Host,
		Port:         cfg.Telnet.Port,
		MaxSessions:  cfg.Limits.MaxSessions,
		MaxLineBytes: cfg.Telnet.MaxLineBytes,
		IdleTimeout:  time.Duration(cfg.Telnet.IdleTimeout) * time.Second,
	}, engine)
	telnetSrv.SetLogger(log)
	if startErr := telnetSrv.Start(ctx); startErr != nil {
		return fmt.Errorf("starting telnet server: %w", startErr)
	}
	defer func() {
		log.Info("stopping telnet server")
		telnetSrv.Stop()
	}()
	log.Info("telnet server listening", "address", fmt.Sprintf("%s:%d", cfg.Telnet.Host, cfg.Telnet.Port))

	notifiers := hvac.MultiNotifier{telnetSrv}

	// MQTT gateway (optional)
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
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		gw := gateway.New(mqttClient, engine, registry)
		gw.SetLogger(log)
		if startErr := gw.Start(); startErr != nil {
			return fmt.Errorf("starting MQTT gateway: %w", startErr)
		}
		notifiers = append(notifiers, gw)
	} else {
		log.Info("MQTT disabled")
	}

	// InfluxDB telemetry (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		engine.SetMetrics(influxClient)
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Management API (optional)
	if cfg.API.Enabled {
		apiSrv, newErr := api.New(api.Deps{
			Config:   cfg.API,
			WS:       cfg.WebSocket,
			Limits:   cfg.Limits,
			Logger:   log,
			Registry: registry,
			Engine:   engine,
			Emitters: emitters,
			Repo:     repo,
			Version:  version,
		})
		if newErr != nil {
			return fmt.Errorf("creating API server: %w", newErr)
		}
		if startErr := apiSrv.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			log.Info("stopping API server")
			if closeErr := apiSrv.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
		notifiers = append(notifiers, apiSrv.Hub())
	} else {
		log.Info("management API disabled")
	}

	// Every front door observes every committed state change.
	engine.SetNotifier(notifiers)

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses IRHVAC_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("IRHVAC_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
// Optional clients may be nil when their subsystem is disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
