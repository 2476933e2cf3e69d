// Package entities defines the persisted data model.
package entities

import "time"

// Device type identifiers. Unknown types fall back to the leak detector
// simulation parameters.
const (
	DeviceTypeLeakDetector = "leak_detector"
	DeviceTypeWaterPump    = "water_pump"
	DeviceTypeHVAC         = "hvac"
)

// Device is a registered sensor device. Only devices with IsActive set are
// picked up by the simulation when no explicit device list is given.
type Device struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	DeviceID   string     `gorm:"size:64;uniqueIndex;not null" json:"device_id"`
	Name       string     `gorm:"size:255;default:''" json:"name"`
	Type       string     `gorm:"size:50;not null;index" json:"type"`
	IsActive   bool       `gorm:"not null;default:true;index" json:"is_active"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for GORM.
func (Device) TableName() string {
	return "devices"
}
