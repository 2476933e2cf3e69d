package alerting

import (
	"context"

	"github.com/aquamon/aquamon-go/internal/datastore/entities"
	"github.com/aquamon/aquamon-go/internal/datastore/repository"
	"github.com/aquamon/aquamon-go/internal/logger"
)

// DefaultRules returns the built-in alert rules seeded on first start.
func DefaultRules() []entities.AlertRule {
	return []entities.AlertRule{
		{
			Name:            "High Temperature & Flow",
			Description:     "Temperature > 40°C AND Flow Rate > 12 m³/h",
			Severity:        entities.SeverityCritical,
			CooldownMinutes: 30,
			IsActive:        true,
			BuiltIn:         true,
			Conditions: []entities.AlertCondition{
				{Metric: MetricTemperature, Operator: OperatorGT, Threshold: 40, SortOrder: 0},
				{Metric: MetricFlowRate, Operator: OperatorGT, Threshold: 12, SortOrder: 1},
			},
		},
		{
			Name:            "Power Outage",
			Description:     "Power = 0 (no power at site)",
			Severity:        entities.SeverityCritical,
			CooldownMinutes: 15,
			IsActive:        true,
			BuiltIn:         true,
			Conditions: []entities.AlertCondition{
				{Metric: MetricPower, Operator: OperatorEQ, Threshold: 0, SortOrder: 0},
			},
		},
	}
}

// SeedDefaults ensures every built-in rule exists. It checks by name so a
// partial seed from a previous run self-heals on restart.
func SeedDefaults(ctx context.Context, repo repository.AlertRuleRepository, log logger.Logger) error {
	existing, err := repo.ListRules(ctx, repository.AlertRuleFilter{})
	if err != nil {
		return err
	}

	existingNames := make(map[string]struct{}, len(existing))
	for i := range existing {
		existingNames[existing[i].Name] = struct{}{}
	}

	defaults := DefaultRules()
	var created int
	for i := range defaults {
		if _, exists := existingNames[defaults[i].Name]; exists {
			continue
		}
		if err := repo.CreateRule(ctx, &defaults[i]); err != nil {
			return err
		}
		created++
	}
	if created > 0 {
		log.Info("seeded default alert rules", logger.Int("created", created))
	}
	return nil
}
