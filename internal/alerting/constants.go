// Package alerting provides the threshold alerting rules engine.
package alerting

// Metric names identify the telemetry fields a condition may reference.
// The set is closed; validation rejects anything else.
const (
	MetricTemperature     = "temperature"
	MetricHumidity        = "humidity"
	MetricFlowRate        = "flowRate"
	MetricCurrent         = "current"
	MetricPower           = "power"
	MetricCumulativePower = "cumulativePower"
)

// Condition operators. Standard numeric comparison semantics.
const (
	OperatorGT  = "gt"
	OperatorLT  = "lt"
	OperatorGTE = "gte"
	OperatorLTE = "lte"
	OperatorEQ  = "eq"
	OperatorNEQ = "neq"
)

// validMetrics is the metric whitelist for condition validation.
var validMetrics = map[string]struct{}{
	MetricTemperature:     {},
	MetricHumidity:        {},
	MetricFlowRate:        {},
	MetricCurrent:         {},
	MetricPower:           {},
	MetricCumulativePower: {},
}

// validOperators is the operator whitelist for condition validation.
var validOperators = map[string]struct{}{
	OperatorGT:  {},
	OperatorLT:  {},
	OperatorGTE: {},
	OperatorLTE: {},
	OperatorEQ:  {},
	OperatorNEQ: {},
}
