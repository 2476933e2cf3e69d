package alerting

import "github.com/aquamon/aquamon-go/internal/datastore/entities"

// Schema describes the catalog of metrics, operators, and severities
// available for rule authoring. Served to rule-editing UIs.
type Schema struct {
	Metrics    []MetricSchema   `json:"metrics"`
	Operators  []OperatorSchema `json:"operators"`
	Severities []string         `json:"severities"`
}

// MetricSchema describes one metric available for condition building.
type MetricSchema struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Unit  string `json:"unit"`
}

// OperatorSchema describes a comparison operator for the UI.
type OperatorSchema struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// GetSchema returns the full rule-authoring schema.
func GetSchema() Schema {
	return Schema{
		Metrics: []MetricSchema{
			{Name: MetricTemperature, Label: "Temperature", Unit: "°C"},
			{Name: MetricHumidity, Label: "Humidity", Unit: "%"},
			{Name: MetricFlowRate, Label: "Flow Rate", Unit: "m³/h"},
			{Name: MetricCurrent, Label: "Current", Unit: "A"},
			{Name: MetricPower, Label: "Power", Unit: "W"},
			{Name: MetricCumulativePower, Label: "Cumulative Power", Unit: "Wh"},
		},
		Operators: []OperatorSchema{
			{Name: OperatorGT, Label: "greater than"},
			{Name: OperatorLT, Label: "less than"},
			{Name: OperatorGTE, Label: "greater or equal"},
			{Name: OperatorLTE, Label: "less or equal"},
			{Name: OperatorEQ, Label: "equal to"},
			{Name: OperatorNEQ, Label: "not equal to"},
		},
		Severities: []string{
			entities.SeverityCritical,
			entities.SeverityHigh,
			entities.SeverityMedium,
			entities.SeverityLow,
		},
	}
}
