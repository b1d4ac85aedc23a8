package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for flashmuxd.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	Topology TopologyConfig `yaml:"topology"`
	Flashes  []FlashConfig  `yaml:"flashes"`
	Database DatabaseConfig `yaml:"database"`
	History  HistoryConfig  `yaml:"history"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SiteConfig identifies the board this daemon runs on.
type SiteConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// TopologyConfig points at the strobe topology description.
type TopologyConfig struct {
	Path string `yaml:"path"`
}

// FlashConfig describes one flash output.
type FlashConfig struct {
	// Name identifies the flash in logs, MQTT topics and history.
	Name string `yaml:"name"`

	// Node is the topology path of the flash node, e.g. "/flash-led@0".
	// Empty means the flash has no routed strobe.
	Node string `yaml:"node"`

	// StrobePin is the periph name of the GPIO driving the flash strobe input.
	StrobePin string `yaml:"strobe_pin"`

	// Timeout is the flash timeout range in microseconds.
	Timeout SettingConfig `yaml:"timeout"`

	// Brightness is the flash current range in microamperes.
	Brightness SettingConfig `yaml:"brightness"`
}

// SettingConfig is a bounded, stepped device parameter.
type SettingConfig struct {
	Min     uint32 `yaml:"min"`
	Max     uint32 `yaml:"max"`
	Step    uint32 `yaml:"step"`
	Default uint32 `yaml:"default"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// HistoryConfig controls strobe history retention.
type HistoryConfig struct {
	// RetentionDays is how long strobe history is kept. Zero keeps it forever.
	RetentionDays int `yaml:"retention_days"`
}

// MQTTConfig contains MQTT broker connection settings.
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

// MQTTReconnectConfig contains MQTT reconnection settings, in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: FLASHMUX_SECTION_KEY
// For example: FLASHMUX_DATABASE_PATH, FLASHMUX_MQTT_HOST
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:   "board-001",
			Name: "flashmux",
		},
		Topology: TopologyConfig{
			Path: "./configs/topology.yaml",
		},
		Database: DatabaseConfig{
			Path:        "./data/flashmux.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		History: HistoryConfig{
			RetentionDays: 30,
		},
		MQTT: MQTTConfig{
			Enabled: true,
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "flashmuxd",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FLASHMUX_TOPOLOGY_PATH"); v != "" {
		cfg.Topology.Path = v
	}

	if v := os.Getenv("FLASHMUX_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	if v := os.Getenv("FLASHMUX_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("FLASHMUX_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("FLASHMUX_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("FLASHMUX_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	if v := os.Getenv("FLASHMUX_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	if v := os.Getenv("FLASHMUX_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}
	if c.History.RetentionDays < 0 {
		errs = append(errs, "history.retention_days must not be negative")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled && (c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535) {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required when influxdb is enabled")
		}
	}

	needTopology := false
	names := make(map[string]bool, len(c.Flashes))
	for i, f := range c.Flashes {
		prefix := fmt.Sprintf("flashes[%d]", i)
		if f.Name == "" {
			errs = append(errs, prefix+".name is required")
		} else if names[f.Name] {
			errs = append(errs, fmt.Sprintf("%s.name %q is duplicated", prefix, f.Name))
		}
		names[f.Name] = true

		if f.StrobePin == "" {
			errs = append(errs, prefix+".strobe_pin is required")
		}
		if f.Node != "" {
			needTopology = true
			if !strings.HasPrefix(f.Node, "/") {
				errs = append(errs, prefix+".node must be an absolute topology path")
			}
		}
		if msg := f.Timeout.validate(prefix + ".timeout"); msg != "" {
			errs = append(errs, msg)
		}
		if msg := f.Brightness.validate(prefix + ".brightness"); msg != "" {
			errs = append(errs, msg)
		}
	}
	if needTopology && c.Topology.Path == "" {
		errs = append(errs, "topology.path is required when a flash names a topology node")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

func (s SettingConfig) validate(field string) string {
	switch {
	case s.Step == 0:
		return field + ".step must be positive"
	case s.Min > s.Max:
		return field + ".min must not exceed max"
	}
	return ""
}
