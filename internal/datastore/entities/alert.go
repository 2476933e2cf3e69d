package entities

import "time"

// Alert status values. Transitions are monotonic: active → acknowledged →
// resolved, or active → resolved directly. An alert never reverts.
const (
	AlertStatusActive       = "active"
	AlertStatusAcknowledged = "acknowledged"
	AlertStatusResolved     = "resolved"
)

// Alert records one firing of an alert rule for a device, with a snapshot of
// the metric values that triggered it.
type Alert struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	CorrelationID  string     `gorm:"size:36;not null;index" json:"correlation_id"`
	DeviceID       string     `gorm:"size:64;not null;index:idx_alerts_device_rule,priority:1" json:"device_id"`
	RuleID         uint       `gorm:"not null" json:"rule_id"`
	RuleName       string     `gorm:"size:255;not null;index:idx_alerts_device_rule,priority:2" json:"rule_name"`
	Description    string     `gorm:"size:1000;default:''" json:"description"`
	Severity       string     `gorm:"size:20;not null;default:'medium'" json:"severity"`
	Status         string     `gorm:"size:20;not null;default:'active';index" json:"status"`
	Message        string     `gorm:"size:1000;default:''" json:"message"`
	TriggeredAt    time.Time  `gorm:"not null;index" json:"triggered_at"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	AcknowledgedBy string     `gorm:"size:255;default:''" json:"acknowledged_by,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Snapshot of the triggering metric values.
	Temperature     float64 `json:"temperature"`
	Humidity        float64 `json:"humidity"`
	FlowRate        float64 `json:"flow_rate"`
	Current         float64 `json:"current"`
	Power           float64 `json:"power"`
	CumulativePower float64 `json:"cumulative_power"`
}

// TableName returns the table name for GORM.
func (Alert) TableName() string {
	return "alerts"
}
