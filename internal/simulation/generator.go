package simulation

import (
	"math/rand/v2"
	"time"

	"github.com/aquamon/aquamon-go/internal/alerting"
	"github.com/aquamon/aquamon-go/internal/datastore/entities"
	"github.com/aquamon/aquamon-go/internal/errors"
	"github.com/aquamon/aquamon-go/internal/logger"
)

// Branch identifies which mutually exclusive generation branch produced a
// sample.
type Branch string

const (
	BranchNormal   Branch = "normal"
	BranchAnomaly  Branch = "anomaly"
	BranchOutage   Branch = "outage"
	BranchScenario Branch = "scenario"
)

// GeneratorConfig holds the per-tick generation parameters.
type GeneratorConfig struct {
	IntervalMinutes   int
	AnomalyChance     float64
	PowerOutageChance float64
}

// Generator produces exactly one telemetry sample per device per tick by
// mutating the device's stored state. It performs no I/O; the caller
// persists the sample and feeds it to the rule engine.
type Generator struct {
	states *StateStore
	rng    *rand.Rand
	log    logger.Logger
}

// NewGenerator creates a Generator. The rand source is injectable so tests
// can pin the draw sequence; the generator is only ever driven from the
// engine's serialized cycle, so the source needs no locking.
func NewGenerator(states *StateStore, rng *rand.Rand, log logger.Logger) *Generator {
	return &Generator{states: states, rng: rng, log: log}
}

// NextSample advances a device's state by one tick and returns the resulting
// sample. The device must have been initialized first; a missing state is a
// fatal precondition, not silently recovered.
func (g *Generator) NextSample(deviceID, deviceType string, cfg GeneratorConfig) (alerting.TelemetrySample, Branch, error) {
	state, ok := g.states.Get(deviceID)
	if !ok {
		return alerting.TelemetrySample{}, "", errors.NotFoundf("device %s not initialized in simulation", deviceID)
	}

	params, known := ParamsFor(deviceType)
	if !known {
		g.log.Warn("unknown device type, using default simulation ranges",
			logger.String("device_id", deviceID),
			logger.String("type", deviceType))
	}

	var branch Branch
	switch {
	case g.rng.Float64() < cfg.PowerOutageChance:
		branch = BranchOutage
		state.Power = 0
		state.Current = 0
		state.PowerOutage = true
	case g.rng.Float64() < cfg.AnomalyChance:
		branch = BranchAnomaly
		if g.rng.Float64() > 0.5 {
			state.Temperature = params.Temperature.Max + g.rng.Float64()*AnomalyTempExcess
		} else {
			state.FlowRate = params.Flow.Max + g.rng.Float64()*AnomalyFlowExcess
		}
		state.Power *= StressPowerFactor
		state.Current *= StressPowerFactor
		state.PowerOutage = false
	default:
		branch = BranchNormal
		state.Temperature = g.fluctuate(state.Temperature, params.Temperature, TempFluctuation)
		state.Humidity = g.fluctuate(state.Humidity, params.Humidity, HumidityFluctuation)
		state.FlowRate = g.fluctuate(state.FlowRate, params.Flow, FlowFluctuation)
		state.Current = g.fluctuate(state.Current, params.Current, params.Current.Max*CurrentFluctuationFrac)
		state.Power = state.Current * LineVoltage
		state.PowerOutage = false
	}

	// Integrate instantaneous power over the elapsed interval. Power is
	// never negative, so cumulative power is monotone.
	state.CumulativePower += state.Power * (float64(cfg.IntervalMinutes) / 60)

	g.states.Set(deviceID, state)
	return g.toSample(deviceID, state, params, branch), branch, nil
}

// EmitCurrent produces a sample from the device's stored state verbatim,
// without any random branch. Scenario triggers use this path so their state
// overrides are not drifted or clamped away before they surface.
func (g *Generator) EmitCurrent(deviceID, deviceType string, intervalMinutes int) (alerting.TelemetrySample, error) {
	state, ok := g.states.Get(deviceID)
	if !ok {
		return alerting.TelemetrySample{}, errors.NotFoundf("device %s not initialized in simulation", deviceID)
	}
	params, _ := ParamsFor(deviceType)

	state.CumulativePower += state.Power * (float64(intervalMinutes) / 60)
	g.states.Set(deviceID, state)
	return g.toSample(deviceID, state, params, BranchScenario), nil
}

func (g *Generator) toSample(deviceID string, state DeviceState, params TypeParams, branch Branch) alerting.TelemetrySample {
	return alerting.TelemetrySample{
		DeviceID:        deviceID,
		Timestamp:       time.Now(),
		Temperature:     state.Temperature,
		Humidity:        state.Humidity,
		FlowRate:        state.FlowRate,
		Current:         state.Current,
		Power:           state.Power,
		CumulativePower: state.CumulativePower,
		Status:          deriveStatus(state, params),
		Anomaly:         branch == BranchAnomaly,
		PowerOutage:     state.PowerOutage,
	}
}

// fluctuate performs one step of a bounded random walk.
func (g *Generator) fluctuate(current float64, bounds Range, fluctuation float64) float64 {
	next := current + (g.rng.Float64()*2-1)*fluctuation
	return clamp(next, bounds.Min, bounds.Max)
}

// deriveStatus computes the display/health status from the resulting state.
// Independent of rule-based alerting.
func deriveStatus(state DeviceState, params TypeParams) string {
	if state.PowerOutage {
		return entities.StatusOffline
	}
	if state.Temperature > params.Temperature.Max*WarningTempFactor {
		return entities.StatusWarning
	}
	if state.FlowRate > params.Flow.Max*WarningFlowFactor {
		return entities.StatusWarning
	}
	return entities.StatusOnline
}

func clamp(v, minV, maxV float64) float64 {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}
