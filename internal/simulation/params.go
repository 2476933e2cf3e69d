// Package simulation contains the per-device telemetry generator and the
// scheduler that drives the simulate→evaluate→alert pipeline.
package simulation

import "github.com/aquamon/aquamon-go/internal/datastore/entities"

// Range is a [Min,Max] nominal bound for one metric.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Width returns the span of the range.
func (r Range) Width() float64 {
	return r.Max - r.Min
}

// TypeParams holds the nominal ranges for one device type. They seed initial
// state and bound the normal-drift branch.
type TypeParams struct {
	Temperature Range `json:"temperature"`
	Humidity    Range `json:"humidity"`
	Flow        Range `json:"flow"`
	Current     Range `json:"current"`
	Power       Range `json:"power"`
}

// Simulation constants.
const (
	// LineVoltage recomputes power from current in the normal-drift branch.
	LineVoltage = 240.0
	// StressPowerFactor scales power and current down during an anomaly.
	StressPowerFactor = 0.7
	// AnomalyTempExcess is the upper bound of the random push past the
	// nominal temperature maximum.
	AnomalyTempExcess = 20.0
	// AnomalyFlowExcess is the upper bound of the random push past the
	// nominal flow maximum.
	AnomalyFlowExcess = 50.0
	// WarningTempFactor marks the temperature level, relative to the nominal
	// maximum, above which the derived status becomes warning.
	WarningTempFactor = 1.2
	// WarningFlowFactor is the flow-rate counterpart of WarningTempFactor.
	WarningFlowFactor = 1.5

	// Fixed scenario overrides.
	ScenarioTempExcess = 15.0
	ScenarioFlowExcess = 30.0
)

// Per-metric drift fluctuation constants. Current drifts by a tenth of its
// nominal maximum instead of a fixed amount because its scale varies two
// orders of magnitude across device types.
const (
	TempFluctuation        = 2.0
	HumidityFluctuation    = 5.0
	FlowFluctuation        = 10.0
	CurrentFluctuationFrac = 0.1
)

// cumulativePowerSeed is the wide independent range representing prior
// accumulated usage, used when a device state is first initialized.
var cumulativePowerSeed = Range{Min: 1000, Max: 100000}

// typeParams is the closed table of nominal ranges per device type.
var typeParams = map[string]TypeParams{
	entities.DeviceTypeLeakDetector: {
		Temperature: Range{Min: 15, Max: 35},
		Humidity:    Range{Min: 60, Max: 90},
		Flow:        Range{Min: 0, Max: 5},
		Current:     Range{Min: 0.1, Max: 0.5},
		Power:       Range{Min: 2.4, Max: 12},
	},
	entities.DeviceTypeWaterPump: {
		Temperature: Range{Min: 20, Max: 45},
		Humidity:    Range{Min: 40, Max: 80},
		Flow:        Range{Min: 50, Max: 250},
		Current:     Range{Min: 10, Max: 100},
		Power:       Range{Min: 2400, Max: 24000},
	},
	entities.DeviceTypeHVAC: {
		Temperature: Range{Min: 18, Max: 30},
		Humidity:    Range{Min: 30, Max: 70},
		Flow:        Range{Min: 20, Max: 100},
		Current:     Range{Min: 5, Max: 50},
		Power:       Range{Min: 1200, Max: 12000},
	},
}

// ParamsFor returns the nominal ranges for a device type. Unknown types fall
// back to the leak detector table; the second return reports whether the
// type was known.
func ParamsFor(deviceType string) (TypeParams, bool) {
	params, ok := typeParams[deviceType]
	if !ok {
		return typeParams[entities.DeviceTypeLeakDetector], false
	}
	return params, true
}
