package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	settings, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", settings.Database.Driver)
	assert.Equal(t, "aquamon.db", settings.Database.DSN)
	assert.False(t, settings.Simulation.AutoStart)
	assert.Equal(t, 5, settings.Simulation.IntervalMinutes)
	assert.InDelta(t, 0.1, settings.Simulation.AnomalyChance, 1e-9)
	assert.InDelta(t, 0.05, settings.Simulation.PowerOutageChance, 1e-9)
	assert.Equal(t, 100*time.Millisecond, settings.Simulation.DeviceDelay.Std())
	assert.Equal(t, "0.0.0.0", settings.HTTP.Host)
	assert.Equal(t, 8080, settings.HTTP.Port)
	assert.False(t, settings.MQTT.Enabled)
	assert.Equal(t, "aquamon/telemetry", settings.MQTT.Topic)
	assert.Equal(t, "info", settings.Logging.Level)
	assert.Equal(t, "text", settings.Logging.Format)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: mysql
  dsn: "user:pass@tcp(localhost:3306)/aquamon?parseTime=true"
simulation:
  interval_minutes: 10
  anomaly_chance: 0.2
  device_delay: 250ms
http:
  port: 9090
mqtt:
  enabled: true
  broker: tcp://localhost:1883
logging:
  level: debug
  format: json
`)

	settings, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "mysql", settings.Database.Driver)
	assert.Equal(t, 10, settings.Simulation.IntervalMinutes)
	assert.InDelta(t, 0.2, settings.Simulation.AnomalyChance, 1e-9)
	assert.Equal(t, 250*time.Millisecond, settings.Simulation.DeviceDelay.Std())
	// Unset keys keep their defaults.
	assert.InDelta(t, 0.05, settings.Simulation.PowerOutageChance, 1e-9)
	assert.Equal(t, 9090, settings.HTTP.Port)
	assert.True(t, settings.MQTT.Enabled)
	assert.Equal(t, "tcp://localhost:1883", settings.MQTT.Broker)
	assert.Equal(t, "debug", settings.Logging.Level)
	assert.Equal(t, "json", settings.Logging.Format)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("AQUAMON_SIMULATION_INTERVAL_MINUTES", "15")
	t.Setenv("AQUAMON_HTTP_PORT", "8888")

	settings, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 15, settings.Simulation.IntervalMinutes)
	assert.Equal(t, 8888, settings.HTTP.Port)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() Settings {
		return Settings{
			Database:   DatabaseSettings{Driver: "sqlite", DSN: "test.db"},
			Simulation: SimulationSettings{IntervalMinutes: 5, AnomalyChance: 0.1, PowerOutageChance: 0.05, DeviceDelay: Duration(100 * time.Millisecond)},
			HTTP:       HTTPSettings{Host: "127.0.0.1", Port: 8080},
			Logging:    LoggingSettings{Level: "info", Format: "text"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{"valid", func(*Settings) {}, false},
		{"unknown driver", func(s *Settings) { s.Database.Driver = "postgres" }, true},
		{"zero interval", func(s *Settings) { s.Simulation.IntervalMinutes = 0 }, true},
		{"anomaly chance above one", func(s *Settings) { s.Simulation.AnomalyChance = 1.1 }, true},
		{"negative outage chance", func(s *Settings) { s.Simulation.PowerOutageChance = -0.2 }, true},
		{"device delay too long", func(s *Settings) { s.Simulation.DeviceDelay = Duration(time.Minute) }, true},
		{"port out of range", func(s *Settings) { s.HTTP.Port = 70000 }, true},
		{"mqtt enabled without broker", func(s *Settings) { s.MQTT.Enabled = true }, true},
		{"mqtt enabled with broker", func(s *Settings) { s.MQTT.Enabled = true; s.MQTT.Broker = "tcp://localhost:1883" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			settings := valid()
			tt.mutate(&settings)
			err := settings.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
