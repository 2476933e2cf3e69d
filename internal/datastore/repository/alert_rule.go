package repository

import (
	"context"

	"github.com/aquamon/aquamon-go/internal/datastore/entities"
)

// AlertRuleRepository handles alert rule CRUD.
type AlertRuleRepository interface {
	ListRules(ctx context.Context, filter AlertRuleFilter) ([]entities.AlertRule, error)
	GetRule(ctx context.Context, id uint) (*entities.AlertRule, error)
	CreateRule(ctx context.Context, rule *entities.AlertRule) error
	UpdateRule(ctx context.Context, rule *entities.AlertRule) error
	DeleteRule(ctx context.Context, id uint) error
	ToggleRule(ctx context.Context, id uint, isActive bool) error

	// GetActiveRules returns all rules with IsActive set, conditions included.
	GetActiveRules(ctx context.Context) ([]entities.AlertRule, error)
	CountByName(ctx context.Context, name string) (int64, error)
}

// AlertRuleFilter controls rule listing queries.
type AlertRuleFilter struct {
	IsActive *bool
	BuiltIn  *bool
	Severity string
}
