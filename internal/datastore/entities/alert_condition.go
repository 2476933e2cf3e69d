package entities

// AlertCondition is a single metric/operator/threshold comparison within an
// alert rule. Metric and Operator are closed enums validated at construction.
type AlertCondition struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	RuleID    uint    `gorm:"not null;index" json:"rule_id"`
	Metric    string  `gorm:"size:50;not null" json:"metric"`
	Operator  string  `gorm:"size:10;not null" json:"operator"`
	Threshold float64 `gorm:"not null" json:"threshold"`
	SortOrder int     `gorm:"default:0" json:"sort_order"`
}

// TableName returns the table name for GORM.
func (AlertCondition) TableName() string {
	return "alert_conditions"
}
