package entities

import "time"

// Device status values derived from simulated state. Display/health values,
// independent of rule-based alerting.
const (
	StatusOnline  = "online"
	StatusWarning = "warning"
	StatusOffline = "offline"
)

// Telemetry is one stored sensor reading.
type Telemetry struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	DeviceID        string    `gorm:"size:64;not null;index:idx_telemetry_device_ts,priority:1" json:"device_id"`
	Timestamp       time.Time `gorm:"not null;index:idx_telemetry_device_ts,priority:2" json:"timestamp"`
	Temperature     float64   `json:"temperature"`
	Humidity        float64   `json:"humidity"`
	FlowRate        float64   `json:"flow_rate"`
	Current         float64   `json:"current"`
	Power           float64   `json:"power"`
	CumulativePower float64   `json:"cumulative_power"`
	Status          string    `gorm:"size:20;not null;default:'online'" json:"status"`
	Simulated       bool      `gorm:"not null;default:false" json:"simulated"`
	Anomaly         bool      `gorm:"not null;default:false" json:"anomaly"`
	PowerOutage     bool      `gorm:"not null;default:false" json:"power_outage"`
	ReceivedAt      time.Time `gorm:"autoCreateTime" json:"received_at"`
}

// TableName returns the table name for GORM.
func (Telemetry) TableName() string {
	return "telemetry"
}
