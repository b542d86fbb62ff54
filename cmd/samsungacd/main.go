// samsungacd is the bridge daemon for Samsung port-2878 air conditioners.
//
// It maintains a single authenticated TLS session to the unit, polls it
// on a fixed interval, and exposes the cached state through MQTT, an
// HTTP API, a WebSocket stream, and Prometheus metrics.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/nerrad567/samsung2878/internal/api"
	"github.com/nerrad567/samsung2878/internal/bridge"
	"github.com/nerrad567/samsung2878/internal/infrastructure/config"
	"github.com/nerrad567/samsung2878/internal/infrastructure/logging"
	"github.com/nerrad567/samsung2878/internal/infrastructure/mqtt"
	"github.com/nerrad567/samsung2878/internal/poller"
	"github.com/nerrad567/samsung2878/internal/samsung2878"
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
	log.Info("starting samsungacd",
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

	// Device identifier: explicit DUID wins, otherwise derived from MAC
	duid := cfg.Device.DUID
	if duid == "" {
		duid = samsung2878.DUIDFromMAC(cfg.Device.MAC)
	}

	// Device client over the vendor TLS certificate
	dialer, err := samsung2878.NewTLSDialer(cfg.Device.CertFile)
	if err != nil {
		return fmt.Errorf("loading device certificate: %w", err)
	}
	client := samsung2878.NewClient(samsung2878.ClientConfig{
		Host:   cfg.Device.Host,
		Port:   cfg.Device.Port,
		Token:  cfg.Device.Token,
		DUID:   duid,
		Dialer: dialer,
	})
	client.SetLogger(log.With("component", "device"))
	log.Info("device client initialised",
		"host", cfg.Device.Host,
		"port", cfg.Device.Port,
		"duid", duid,
	)

	// Reconciliation loop over the single device session
	p := poller.New(client, cfg.GetPollInterval(), log)
	defer func() {
		log.Info("stopping poller")
		p.Stop()
	}()

	// Prometheus registry with the device collector
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		poller.NewMetricsCollector(p, duid),
	)

	// MQTT bridge (optional)
	if cfg.MQTT.Enabled {
		mqttClient, err := mqtt.Connect(cfg.MQTT)
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
			"topic_prefix", cfg.MQTT.TopicPrefix,
		)

		mqttClient.SetLogger(log.With("component", "mqtt"))
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		//nolint:gosec // QoS is validated to 0..2 by config.Validate
		b := bridge.New(mqttClient, client, p, mqttClient.Topics(), duid, byte(cfg.MQTT.QoS), log)
		if err := b.Start(ctx); err != nil {
			return fmt.Errorf("starting MQTT bridge: %w", err)
		}
		p.AddListener(b.HandleState)
		p.AddStatusListener(b.HandleStatus)
		log.Info("MQTT bridge started")
	} else {
		log.Info("MQTT bridge disabled")
	}

	// HTTP API (optional)
	if cfg.API.Enabled {
		server, err := api.New(api.Deps{
			Config:   cfg.API,
			WS:       cfg.WebSocket,
			Logger:   log,
			State:    p,
			Device:   client,
			Gatherer: registry,
			DUID:     duid,
			Version:  version,
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
				log.Error("error closing API server", "error", closeErr)
			}
		}()
		p.AddListener(server.Hub().BroadcastState)
		p.AddStatusListener(server.Hub().BroadcastStatus)
		log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)
	} else {
		log.Info("API server disabled")
	}

	// Start polling last so listeners see the first snapshot
	p.Start(ctx)

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order:
	// 1. API server (if enabled)
	// 2. MQTT (if enabled)
	// 3. Poller (disconnects the device session)

	log.Info("samsungacd stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses SAMSUNGAC_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("SAMSUNGAC_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
