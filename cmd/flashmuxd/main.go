// flashmuxd routes LED flash strobe signals through shared multiplexers.
//
// The daemon loads the board topology, registers every configured flash with
// the strobe routing manager, records each routed strobe, and exposes the
// flashes and asynchronous muxes on MQTT.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"periph.io/x/host/v3"

	"github.com/nerrad567/flashmux/internal/asyncmux"
	"github.com/nerrad567/flashmux/internal/control"
	"github.com/nerrad567/flashmux/internal/flash"
	"github.com/nerrad567/flashmux/internal/gpiomux"
	"github.com/nerrad567/flashmux/internal/history"
	"github.com/nerrad567/flashmux/internal/infrastructure/config"
	"github.com/nerrad567/flashmux/internal/infrastructure/database"
	"github.com/nerrad567/flashmux/internal/infrastructure/influxdb"
	"github.com/nerrad567/flashmux/internal/infrastructure/logging"
	"github.com/nerrad567/flashmux/internal/infrastructure/mqtt"
	"github.com/nerrad567/flashmux/internal/strobe"
	"github.com/nerrad567/flashmux/internal/topology"
	"github.com/nerrad567/flashmux/migrations"
)

// Version information, set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	defaultConfigPath = "configs/flashmux.yaml"

	pruneInterval = 24 * time.Hour
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the daemon body, separated from main for testability. It returns
// nil on a clean shutdown.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting flashmuxd",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"site", cfg.Site.ID,
		"flashes", len(cfg.Flashes),
	)

	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", db.Path())

	historyRepo := history.NewSQLiteRepository(db.DB)
	recorder := history.NewRecorder(historyRepo)
	recorder.SetLogger(log.Component("history"))
	if cfg.History.RetentionDays > 0 {
		retention := time.Duration(cfg.History.RetentionDays) * 24 * time.Hour
		go pruneHistory(ctx, historyRepo, retention, log)
	}

	influxClient, err := influxdb.Connect(cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("InfluxDB disabled")
	case err != nil:
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	default:
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		recorder.SetMetrics(influxClient)
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

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
		mqttClient.SetLogger(log.Component("mqtt"))
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		recorder.SetPublisher(mqttClient)
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("initialising GPIO host drivers: %w", err)
	}

	muxFactory := gpiomux.NewFactory()
	muxFactory.SetLogger(log.Component("gpiomux"))
	mgr := strobe.NewManager(muxFactory)
	mgr.SetLogger(log.Component("strobe"))
	mgr.SetRecorder(recorder)

	flashes, err := registerFlashes(cfg, mgr, log)
	if err != nil {
		return err
	}
	defer func() {
		for _, dev := range flashes {
			dev.Unregister()
		}
	}()

	if mqttClient != nil {
		bridge := asyncmux.NewBridge(mgr, mqttClient)
		bridge.SetLogger(log.Component("asyncmux"))
		if err := bridge.Start(); err != nil {
			return fmt.Errorf("starting async mux bridge: %w", err)
		}
		defer func() {
			log.Info("stopping async mux bridge")
			bridge.Stop()
		}()

		handler := control.NewHandler(mqttClient, asControlled(flashes)...)
		handler.SetHistory(historyRepo)
		handler.SetLogger(log.Component("control"))
		if err := handler.Start(); err != nil {
			return fmt.Errorf("starting control handler: %w", err)
		}
		defer func() {
			log.Info("stopping control handler")
			handler.Stop()
		}()
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	log.Info("initialisation complete, waiting for shutdown signal",
		"managed", mgr.Devices(),
		"muxes", len(mgr.Muxes()),
	)

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse: control, bridge, flashes, MQTT,
	// InfluxDB, database.
	log.Info("flashmuxd stopped")
	return nil
}

// getConfigPath returns FLASHMUX_CONFIG if set, otherwise the default path.
func getConfigPath() string {
	if path := os.Getenv("FLASHMUX_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// registerFlashes creates a device per configured flash and hands each
// topology node to the manager. Devices without a node stay unmanaged.
func registerFlashes(cfg *config.Config, mgr *strobe.Manager, log *logging.Logger) ([]*flash.Device, error) {
	var tree *topology.Tree
	for _, f := range cfg.Flashes {
		if f.Node == "" {
			continue
		}
		t, err := topology.Load(cfg.Topology.Path)
		if err != nil {
			return nil, fmt.Errorf("loading topology: %w", err)
		}
		tree = t
		log.Info("topology loaded", "path", cfg.Topology.Path, "nodes", tree.Len())
		break
	}

	devices := make([]*flash.Device, 0, len(cfg.Flashes))
	cleanup := func() {
		for _, d := range devices {
			d.Unregister()
		}
	}

	for _, f := range cfg.Flashes {
		dev, err := newFlash(f)
		if err != nil {
			cleanup()
			return nil, err
		}
		dev.SetLogger(log.Component("flash").With("device", f.Name))

		var node *topology.Node
		if f.Node != "" {
			if node, err = tree.Lookup(f.Node); err != nil {
				cleanup()
				return nil, fmt.Errorf("flash %s: %w", f.Name, err)
			}
		}
		if err := dev.Register(mgr, node); err != nil {
			cleanup()
			return nil, fmt.Errorf("registering flash %s: %w", f.Name, err)
		}
		devices = append(devices, dev)

		log.Debug("flash configured",
			"device", f.Name,
			"node", f.Node,
			"strobe_pin", f.StrobePin,
			"providers", dev.ProviderNames(),
		)
	}
	return devices, nil
}

func newFlash(f config.FlashConfig) (*flash.Device, error) {
	ops, err := flash.NewGPIOOps(f.StrobePin)
	if err != nil {
		return nil, fmt.Errorf("flash %s: %w", f.Name, err)
	}
	dev, err := flash.New(flash.Config{
		Name:       f.Name,
		Timeout:    setting(f.Timeout),
		Brightness: setting(f.Brightness),
	}, ops)
	if err != nil {
		return nil, fmt.Errorf("flash %s: %w", f.Name, err)
	}
	return dev, nil
}

func setting(s config.SettingConfig) flash.Setting {
	return flash.Setting{Min: s.Min, Max: s.Max, Step: s.Step, Val: s.Default}
}

func asControlled(devices []*flash.Device) []control.Flash {
	out := make([]control.Flash, len(devices))
	for i, d := range devices {
		out[i] = d
	}
	return out
}

// pruneHistory drops strobe history older than retention, once at startup
// and then daily until ctx is cancelled.
func pruneHistory(ctx context.Context, repo *history.SQLiteRepository, retention time.Duration, log *logging.Logger) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		n, err := repo.Prune(ctx, retention)
		switch {
		case err != nil && ctx.Err() == nil:
			log.Warn("pruning strobe history failed", "error", err)
		case n > 0:
			log.Info("pruned strobe history", "removed", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// healthCheck verifies the infrastructure connections. Disabled clients are
// nil and skipped.
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
