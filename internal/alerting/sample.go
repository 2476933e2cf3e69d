package alerting

import "time"

// TelemetrySample is the transient, immutable view of one reading that rules
// are evaluated against. It is passed by value and never retained.
type TelemetrySample struct {
	DeviceID        string    `json:"device_id"`
	Timestamp       time.Time `json:"timestamp"`
	Temperature     float64   `json:"temperature"`
	Humidity        float64   `json:"humidity"`
	FlowRate        float64   `json:"flow_rate"`
	Current         float64   `json:"current"`
	Power           float64   `json:"power"`
	CumulativePower float64   `json:"cumulative_power"`
	Status          string    `json:"status"`
	Anomaly         bool      `json:"anomaly"`
	PowerOutage     bool      `json:"power_outage"`
}

// MetricValue extracts the named metric from the sample. The second return
// is false for metrics outside the whitelist.
func MetricValue(sample TelemetrySample, metric string) (float64, bool) {
	switch metric {
	case MetricTemperature:
		return sample.Temperature, true
	case MetricHumidity:
		return sample.Humidity, true
	case MetricFlowRate:
		return sample.FlowRate, true
	case MetricCurrent:
		return sample.Current, true
	case MetricPower:
		return sample.Power, true
	case MetricCumulativePower:
		return sample.CumulativePower, true
	default:
		return 0, false
	}
}
