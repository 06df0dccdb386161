// Hearth Core - Smart Home Backend
//
// This is the main entry point for the Hearth Core application. Hearth
// is an offline-first smart-home backend: device and room registry,
// cookie-based session management, MQTT telemetry ingest, and a REST +
// WebSocket API for panels and dashboards.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	_ "github.com/rowanfell/hearth-core/migrations"

	"github.com/rowanfell/hearth-core/internal/api"
	"github.com/rowanfell/hearth-core/internal/audit"
	"github.com/rowanfell/hearth-core/internal/auth"
	"github.com/rowanfell/hearth-core/internal/device"
	"github.com/rowanfell/hearth-core/internal/infrastructure/config"
	"github.com/rowanfell/hearth-core/internal/infrastructure/database"
	"github.com/rowanfell/hearth-core/internal/infrastructure/influxdb"
	"github.com/rowanfell/hearth-core/internal/infrastructure/logging"
	"github.com/rowanfell/hearth-core/internal/infrastructure/mqtt"
	"github.com/rowanfell/hearth-core/internal/location"
	"github.com/rowanfell/hearth-core/internal/product"
	"github.com/rowanfell/hearth-core/internal/telemetry"
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
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Hearth Core",
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

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Repositories
	userRepo := auth.NewUserRepository(db.DB)
	tokenRepo := auth.NewTokenRepository(db.DB)
	roomRepo := location.NewSQLiteRepository(db.DB)
	deviceRepo := device.NewSQLiteRepository(db.DB)
	dataRepo := device.NewSQLiteDataRepository(db.DB)
	productRepo := product.NewSQLiteRepository(db.DB)

	// Seed the initial admin account on first boot
	if _, seedErr := auth.SeedAdmin(ctx, userRepo, log); seedErr != nil {
		return fmt.Errorf("seeding admin account: %w", seedErr)
	}

	// Session management
	codec := auth.NewCodec(cfg.Security.JWT.Secret, cfg.GetAccessTokenTTL(), cfg.GetRefreshTokenTTL())
	sessions := auth.NewSessionService(userRepo, tokenRepo, codec, log)
	authenticator := auth.NewAuthenticator(userRepo, codec)
	cookies := auth.NewCookieTransport(cfg.Security.JWT.AccessCookieMaxAge, cfg.Security.JWT.RefreshCookieMaxAge)

	// WebSocket hub, shared by the API server and the telemetry ingestor
	hub := api.NewHub(cfg.WebSocket, log)
	go hub.Run(ctx)

	// Connect to InfluxDB (optional telemetry mirror)
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
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Connect to MQTT and start telemetry ingest (optional)
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

		mqttClient.SetLogger(log.With("component", "mqtt"))
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		// The ingestor takes the mirror as a nil-able interface; a typed nil
		// *influxdb.Client inside a non-nil interface would dodge its nil
		// check, so only assign when the mirror is actually connected.
		var mirror telemetry.Mirror
		if influxClient != nil {
			mirror = influxClient
		}
		ingestor := telemetry.NewIngestor(deviceRepo, dataRepo, mirror, hub, log)
		if startErr := ingestor.Start(mqttClient); startErr != nil {
			return fmt.Errorf("starting telemetry ingest: %w", startErr)
		}
		log.Info("telemetry ingest started", "topic_prefix", cfg.MQTT.TopicPrefix)
	} else {
		log.Info("MQTT disabled, telemetry ingest inactive")
	}

	// Connect to Redis (optional, backs the auth rate limiter)
	var redisClient *redis.Client
	if cfg.Security.RateLimit.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() {
			log.Info("closing Redis connection")
			if closeErr := redisClient.Close(); closeErr != nil {
				log.Error("error closing Redis", "error", closeErr)
			}
		}()

		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
			pingCancel()
			return fmt.Errorf("connecting to Redis: %w", pingErr)
		}
		pingCancel()
		log.Info("Redis connected", "addr", cfg.Redis.Addr)
	} else {
		log.Info("rate limiting disabled")
	}

	// Start API server
	server, err := api.New(api.Deps{
		Config:        cfg.API,
		WS:            cfg.WebSocket,
		RateLimit:     cfg.Security.RateLimit,
		Logger:        log,
		Sessions:      sessions,
		Authenticator: authenticator,
		Cookies:       cookies,
		Users:         userRepo,
		Rooms:         roomRepo,
		Devices:       deviceRepo,
		Data:          dataRepo,
		Importer:      device.NewImporter(deviceRepo, roomRepo, log),
		Audit:         audit.NewSQLiteRepository(db.DB),
		Redis:         redisClient,
		Products:      productRepo,
		DB:            db.DB,
		ExternalHub:   hub,
		Version:       version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error stopping API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. Redis (if enabled)
	// 3. MQTT (if enabled)
	// 4. InfluxDB (if enabled)
	// 5. Database

	log.Info("Hearth Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses HEARTH_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("HEARTH_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
// mqttClient and influxClient may be nil when disabled.
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
