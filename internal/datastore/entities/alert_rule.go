package entities

import "time"

// Alert severity levels. Ordinal labels only; they carry no automated
// behavior beyond being stored on the rule and propagated to alerts.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// AlertRule defines a configurable threshold rule. All conditions in a rule
// use AND logic; the rule fires only when every condition holds.
type AlertRule struct {
	ID              uint             `gorm:"primaryKey" json:"id"`
	Name            string           `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Description     string           `gorm:"size:1000;default:''" json:"description"`
	Severity        string           `gorm:"size:20;not null;default:'medium'" json:"severity"`
	CooldownMinutes int              `gorm:"not null;default:30" json:"cooldown_minutes"`
	IsActive        bool             `gorm:"not null;default:true;index" json:"is_active"`
	BuiltIn         bool             `gorm:"not null;default:false" json:"built_in"`
	CreatedAt       time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
	Conditions      []AlertCondition `gorm:"foreignKey:RuleID;constraint:OnDelete:CASCADE" json:"conditions"`
}

// TableName returns the table name for GORM.
func (AlertRule) TableName() string {
	return "alert_rules"
}
