// Pitchside Core - Venue Portal Lifecycle Service
//
// This is the main entry point for the Pitchside Core service. It owns the
// ordered bootstrap of the portal's backend subsystems through the
// lifecycle registry and exposes re-initialisation triggers over HTTP and
// MQTT so content regions can be replayed after partial updates.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/pitchside/pitchside-core/migrations"

	"github.com/pitchside/pitchside-core/internal/action"
	"github.com/pitchside/pitchside-core/internal/api"
	"github.com/pitchside/pitchside-core/internal/auth"
	"github.com/pitchside/pitchside-core/internal/history"
	"github.com/pitchside/pitchside-core/internal/infrastructure/config"
	"github.com/pitchside/pitchside-core/internal/infrastructure/database"
	"github.com/pitchside/pitchside-core/internal/infrastructure/influxdb"
	"github.com/pitchside/pitchside-core/internal/infrastructure/logging"
	"github.com/pitchside/pitchside-core/internal/infrastructure/mqtt"
	"github.com/pitchside/pitchside-core/internal/lifecycle"
	"github.com/pitchside/pitchside-core/internal/refresh"
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

// Component priorities. Higher runs first; infrastructure before the
// surfaces that depend on it.
const (
	priorityDatabase  = 100
	priorityHistory   = 90
	priorityMQTT      = 80
	priorityTelemetry = 70
	priorityRefresh   = 60
	priorityAPI       = 50
)

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds the subsystem handles populated by lifecycle component
// callbacks during bootstrap.
type app struct {
	cfg        *config.Config
	log        *logging.Logger
	registry   *lifecycle.Registry
	dispatcher *action.Dispatcher

	db          *database.DB
	historyRepo history.Repository
	mqttClient  *mqtt.Client
	influx      *influxdb.Client
	bridge      *refresh.Bridge
	server      *api.Server
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	start := time.Now()

	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Pitchside Core",
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

	a := &app{
		cfg:        cfg,
		log:        log,
		registry:   lifecycle.NewRegistry(),
		dispatcher: action.NewDispatcher(),
	}
	a.registry.SetLogger(log)
	a.dispatcher.SetLogger(log)
	defer a.shutdown()

	if err := a.registerActions(); err != nil {
		return fmt.Errorf("registering actions: %w", err)
	}
	if err := a.registerComponents(ctx); err != nil {
		return fmt.Errorf("registering components: %w", err)
	}

	// Ordered bootstrap: every registered component runs once, highest
	// priority first.
	if err := a.registry.Run(ctx); err != nil {
		return fmt.Errorf("running bootstrap: %w", err)
	}

	failures := 0
	for _, st := range a.registry.Status() {
		if st.LastError != "" {
			failures++
			log.Warn("component failed during bootstrap",
				"component", st.Name,
				"error", st.LastError,
			)
		}
	}

	// Abort if a required subsystem did not come up; content components
	// may fail without taking the service down, infrastructure may not.
	if a.db == nil || a.server == nil {
		return fmt.Errorf("bootstrap failed: %d of %d components errored",
			failures, a.registry.Count())
	}

	if a.influx != nil {
		a.influx.WriteBootstrapSummary(cfg.Site.ID, a.registry.Count(), failures, time.Since(start))
	}

	if err := a.healthCheck(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("bootstrap complete, waiting for shutdown signal",
		"components", a.registry.Count(),
		"failures", failures,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// registerActions binds the dispatcher's action table. The dispatcher is
// the single choke point for re-initialisation triggers from both the HTTP
// API and the MQTT refresh bridge.
func (a *app) registerActions() error {
	if err := a.dispatcher.Register(action.KindReinit, func(ctx context.Context, req action.Request) error {
		invoked := a.registry.Reinit(ctx, req.Components, req.Scope)
		a.log.Info("reinit dispatched",
			"requested", len(req.Components),
			"invoked", invoked,
			"scope", req.Scope.String(),
			"source", req.Source,
		)
		return nil
	}); err != nil {
		return err
	}

	if err := a.dispatcher.Register(action.KindReinitAll, func(ctx context.Context, req action.Request) error {
		invoked := a.registry.Reinit(ctx, []string{lifecycle.All}, req.Scope)
		a.log.Info("reinit-all dispatched",
			"invoked", invoked,
			"scope", req.Scope.String(),
			"source", req.Source,
		)
		return nil
	}); err != nil {
		return err
	}

	return a.dispatcher.Register(action.KindStatus, func(_ context.Context, req action.Request) error {
		for _, st := range a.registry.Status() {
			a.log.Info("component status",
				"component", st.Name,
				"priority", st.Priority,
				"initialised", st.Initialized,
				"runs", st.RunCount,
				"source", req.Source,
			)
		}
		return nil
	})
}

// registerComponents declares the service's subsystems with the lifecycle
// registry. Registration only records the callbacks; nothing starts until
// Run.
func (a *app) registerComponents(ctx context.Context) error {
	if err := a.registry.Register("database", a.initDatabase,
		lifecycle.Options{
			Priority:    priorityDatabase,
			Description: "SQLite store and schema migrations",
		}); err != nil {
		return err
	}

	if err := a.registry.Register("history", a.initHistory,
		lifecycle.Options{
			Priority:    priorityHistory,
			Description: "component run-event persistence",
		}); err != nil {
		return err
	}

	if a.cfg.MQTT.Enabled {
		if err := a.registry.Register("mqtt", a.initMQTT,
			lifecycle.Options{
				Priority:    priorityMQTT,
				Description: "broker connection with LWT status",
			}); err != nil {
			return err
		}

		if err := a.registry.Register("refresh-bridge", a.initRefreshBridge,
			lifecycle.Options{
				Priority:        priorityRefresh,
				Reinitializable: true,
				Description:     "MQTT refresh trigger consumer",
			}); err != nil {
			return err
		}
	} else {
		a.log.Info("MQTT disabled, refresh triggers limited to HTTP")
	}

	if a.cfg.InfluxDB.Enabled {
		if err := a.registry.Register("telemetry", a.initTelemetry,
			lifecycle.Options{
				Priority:        priorityTelemetry,
				Reinitializable: true,
				Description:     "InfluxDB component timing export",
			}); err != nil {
			return err
		}
	} else {
		a.log.Info("InfluxDB disabled")
	}

	// The API server captures the outer context so its background
	// goroutines stop on shutdown.
	initAPI := func(_ context.Context, scope lifecycle.Scope) error {
		return a.initAPI(ctx, scope)
	}
	return a.registry.Register("api", initAPI,
		lifecycle.Options{
			Priority:    priorityAPI,
			Description: "HTTP admin API and WebSocket hub",
		})
}

func (a *app) initDatabase(ctx context.Context, _ lifecycle.Scope) error {
	db, err := database.Open(database.Config{
		Path:        a.cfg.Database.Path,
		WALMode:     a.cfg.Database.WALMode,
		BusyTimeout: a.cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close() //nolint:errcheck // open failed mid-bootstrap, close is best effort
		return fmt.Errorf("running migrations: %w", err)
	}

	a.db = db
	a.log.Info("database connected", "path", a.cfg.Database.Path)
	return nil
}

func (a *app) initHistory(_ context.Context, _ lifecycle.Scope) error {
	if a.db == nil {
		return fmt.Errorf("history requires the database component")
	}

	a.historyRepo = history.NewSQLiteRepository(a.db.DB)
	a.registry.AddObserver(history.Recorder(a.historyRepo, a.log))
	a.log.Info("run history recorder attached")
	return nil
}

func (a *app) initMQTT(_ context.Context, _ lifecycle.Scope) error {
	client, err := mqtt.Connect(a.cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	client.SetLogger(a.log)
	client.SetOnConnect(func() {
		a.log.Info("MQTT reconnected")
	})
	client.SetOnDisconnect(func(err error) {
		a.log.Warn("MQTT disconnected", "error", err)
	})

	a.mqttClient = client
	a.log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", a.cfg.MQTT.Broker.Host, a.cfg.MQTT.Broker.Port),
		"client_id", a.cfg.MQTT.Broker.ClientID,
	)
	return nil
}

// initTelemetry connects InfluxDB and attaches the timing observer. On
// reinit it flushes pending writes instead of reconnecting.
func (a *app) initTelemetry(_ context.Context, _ lifecycle.Scope) error {
	if a.influx != nil {
		a.influx.Flush()
		return nil
	}

	client, err := influxdb.Connect(a.cfg.InfluxDB)
	if err != nil {
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	}
	client.SetOnError(func(err error) {
		a.log.Error("InfluxDB write error", "error", err)
	})

	a.influx = client
	a.registry.AddObserver(func(event lifecycle.Event) {
		outcome := "ok"
		if event.Err != nil {
			outcome = "error"
		}
		client.WriteComponentTiming(event.Component, string(event.Kind), outcome, event.Duration)
	})

	a.log.Info("InfluxDB connected",
		"url", a.cfg.InfluxDB.URL,
		"org", a.cfg.InfluxDB.Org,
		"bucket", a.cfg.InfluxDB.Bucket,
	)
	return nil
}

// initRefreshBridge subscribes to the refresh topic family. Reinit
// re-subscribes, which is harmless when the subscription is already live.
func (a *app) initRefreshBridge(_ context.Context, _ lifecycle.Scope) error {
	if a.mqttClient == nil {
		return fmt.Errorf("refresh bridge requires the mqtt component")
	}

	if a.bridge == nil {
		bridge, err := refresh.New(a.mqttClient, a.dispatcher, byte(a.cfg.MQTT.QoS), a.log)
		if err != nil {
			return fmt.Errorf("creating refresh bridge: %w", err)
		}
		a.bridge = bridge
		a.registry.AddObserver(bridge.LifecycleObserver())
	}

	if err := a.bridge.Start(); err != nil {
		return fmt.Errorf("starting refresh bridge: %w", err)
	}
	a.log.Info("refresh bridge started")
	return nil
}

func (a *app) initAPI(ctx context.Context, _ lifecycle.Scope) error {
	users, err := auth.NewStore(a.cfg.Security.Users)
	if err != nil {
		return fmt.Errorf("loading user accounts: %w", err)
	}
	if users.Count() == 0 {
		a.log.Warn("no user accounts configured, admin API login disabled")
	}

	server, err := api.New(api.Deps{
		Config:     a.cfg.API,
		WS:         a.cfg.WebSocket,
		Security:   a.cfg.Security,
		Logger:     a.log,
		Registry:   a.registry,
		Dispatcher: a.dispatcher,
		Users:      users,
		History:    a.historyRepo,
		MQTT:       a.mqttClient,
		DB:         a.db,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}

	a.server = server
	a.registry.AddObserver(server.Hub().LifecycleObserver())

	a.log.Info("API server started",
		"address", fmt.Sprintf("%s:%d", a.cfg.API.Host, a.cfg.API.Port),
		"tls", a.cfg.API.TLS.Enabled,
	)
	return nil
}

// shutdown closes subsystems in reverse bootstrap order. Nil handles mean
// the component never ran.
func (a *app) shutdown() {
	if a.server != nil {
		a.log.Info("stopping API server")
		if err := a.server.Close(); err != nil {
			a.log.Error("error closing API server", "error", err)
		}
	}
	if a.influx != nil {
		a.log.Info("closing InfluxDB connection")
		if err := a.influx.Close(); err != nil {
			a.log.Error("error closing InfluxDB", "error", err)
		}
	}
	if a.mqttClient != nil {
		a.log.Info("disconnecting from MQTT")
		if err := a.mqttClient.Close(); err != nil {
			a.log.Error("error closing MQTT", "error", err)
		}
	}
	if a.db != nil {
		a.log.Info("closing database")
		if err := a.db.Close(); err != nil {
			a.log.Error("error closing database", "error", err)
		}
	}
	a.log.Info("Pitchside Core stopped")
}

// healthCheck verifies all bootstrapped subsystems respond.
func (a *app) healthCheck(ctx context.Context) error {
	if err := a.db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if a.mqttClient != nil {
		if err := a.mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if a.influx != nil {
		if err := a.influx.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	if err := a.server.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

// getConfigPath returns the configuration file path.
// Uses PITCHSIDE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("PITCHSIDE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
