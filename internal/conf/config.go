// Package conf loads and validates the aquamon configuration.
package conf

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/aquamon/aquamon-go/internal/errors"
)

// Settings is the root configuration structure.
type Settings struct {
	Database   DatabaseSettings   `mapstructure:"database"`
	Simulation SimulationSettings `mapstructure:"simulation"`
	HTTP       HTTPSettings       `mapstructure:"http"`
	MQTT       MQTTSettings       `mapstructure:"mqtt"`
	Logging    LoggingSettings    `mapstructure:"logging"`
}

// DatabaseSettings selects the persistence backend.
type DatabaseSettings struct {
	// Driver is "sqlite" or "mysql".
	Driver string `mapstructure:"driver"`
	// DSN is the driver-specific data source name. For sqlite this is the
	// database file path.
	DSN string `mapstructure:"dsn"`
}

// SimulationSettings holds the default simulation parameters. Start requests
// may override them per run.
type SimulationSettings struct {
	// AutoStart runs the simulation with these parameters as soon as the
	// server comes up, without waiting for a start request.
	AutoStart         bool     `mapstructure:"auto_start"`
	IntervalMinutes   int      `mapstructure:"interval_minutes"`
	AnomalyChance     float64  `mapstructure:"anomaly_chance"`
	PowerOutageChance float64  `mapstructure:"power_outage_chance"`
	// DeviceDelay is the fixed pause between devices within one cycle,
	// throttling load on the telemetry and alert stores.
	DeviceDelay Duration `mapstructure:"device_delay"`
}

// HTTPSettings configures the control API listener.
type HTTPSettings struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// MQTTSettings configures the optional telemetry publisher.
type MQTTSettings struct {
	Enabled  bool   `mapstructure:"enabled"`
	Broker   string `mapstructure:"broker"`
	ClientID string `mapstructure:"client_id"`
	Topic    string `mapstructure:"topic"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// LoggingSettings configures log output.
type LoggingSettings struct {
	Level string `mapstructure:"level"`
	// Format is "text" or "json".
	Format string `mapstructure:"format"`
}

// Load reads configuration from the given file path (optional) plus AQUAMON_*
// environment variables, applies defaults, and validates the result.
func Load(configPath string) (*Settings, error) {
	v := viper.New()

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "aquamon.db")
	v.SetDefault("simulation.auto_start", false)
	v.SetDefault("simulation.interval_minutes", 5)
	v.SetDefault("simulation.anomaly_chance", 0.1)
	v.SetDefault("simulation.power_outage_chance", 0.05)
	v.SetDefault("simulation.device_delay", "100ms")
	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.topic", "aquamon/telemetry")
	v.SetDefault("mqtt.client_id", "aquamon")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetEnvPrefix("AQUAMON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configPath, err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings, viper.DecodeHook(DurationDecodeHook())); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Validate checks configured values against their allowed ranges.
func (s *Settings) Validate() error {
	switch s.Database.Driver {
	case "sqlite", "mysql":
	default:
		return errors.Configurationf("unsupported database driver %q", s.Database.Driver)
	}
	if s.Simulation.IntervalMinutes < 1 {
		return errors.Configurationf("simulation interval must be at least 1 minute, got %d", s.Simulation.IntervalMinutes)
	}
	if s.Simulation.AnomalyChance < 0 || s.Simulation.AnomalyChance > 1 {
		return errors.Configurationf("anomaly chance must be in [0,1], got %g", s.Simulation.AnomalyChance)
	}
	if s.Simulation.PowerOutageChance < 0 || s.Simulation.PowerOutageChance > 1 {
		return errors.Configurationf("power outage chance must be in [0,1], got %g", s.Simulation.PowerOutageChance)
	}
	if s.Simulation.DeviceDelay.Std() < 0 || s.Simulation.DeviceDelay.Std() > 10*time.Second {
		return errors.Configurationf("device delay must be in [0,10s], got %s", s.Simulation.DeviceDelay.Std())
	}
	if s.HTTP.Port < 1 || s.HTTP.Port > 65535 {
		return errors.Configurationf("http port must be in [1,65535], got %d", s.HTTP.Port)
	}
	if s.MQTT.Enabled && s.MQTT.Broker == "" {
		return errors.Configurationf("mqtt enabled but no broker configured")
	}
	return nil
}
