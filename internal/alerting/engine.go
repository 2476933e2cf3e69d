package alerting

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/aquamon/aquamon-go/internal/datastore/entities"
	"github.com/aquamon/aquamon-go/internal/datastore/repository"
	"github.com/aquamon/aquamon-go/internal/errors"
	"github.com/aquamon/aquamon-go/internal/logger"
	"github.com/aquamon/aquamon-go/internal/metrics"
)

const (
	// activeRulesCacheKey holds the cached active rule set.
	activeRulesCacheKey = "active_rules"
	// activeRulesTTL bounds staleness of the active rule cache. Rule CRUD
	// through this engine invalidates it immediately.
	activeRulesTTL = 30 * time.Second
)

// Engine evaluates telemetry samples against configured alert rules and
// creates alerts, suppressing duplicates while a cooldown window is open.
type Engine struct {
	rules  repository.AlertRuleRepository
	alerts repository.AlertRepository
	cache  *gocache.Cache
	log    logger.Logger
}

// NewEngine creates a new alerting rules engine.
func NewEngine(rules repository.AlertRuleRepository, alerts repository.AlertRepository, log logger.Logger) *Engine {
	return &Engine{
		rules:  rules,
		alerts: alerts,
		cache:  gocache.New(activeRulesTTL, 2*activeRulesTTL),
		log:    log,
	}
}

// Evaluate runs every active rule against the sample. A rule fires when all
// of its conditions hold; a fired rule creates an alert unless an active
// alert for the same device and rule name was triggered inside the rule's
// cooldown window. One malformed rule is logged and skipped without blocking
// the rest.
func (e *Engine) Evaluate(ctx context.Context, deviceID string, sample TelemetrySample) error {
	rules, err := e.activeRules(ctx)
	if err != nil {
		return errors.Transientf(err, "failed to load active rules")
	}

	for i := range rules {
		rule := &rules[i]
		fired, _, err := EvaluateConditions(rule.Conditions, sample)
		if err != nil {
			metrics.RuleEvaluationErrors.Inc()
			e.log.Error("skipping malformed alert rule",
				logger.Uint64("rule_id", uint64(rule.ID)),
				logger.String("rule_name", rule.Name),
				logger.Error(err))
			continue
		}
		if !fired {
			continue
		}

		if e.inCooldown(ctx, deviceID, rule) {
			metrics.AlertsSuppressed.Inc()
			e.log.Debug("alert suppressed by cooldown",
				logger.String("device_id", deviceID),
				logger.String("rule_name", rule.Name))
			continue
		}

		if err := e.createAlert(ctx, deviceID, rule, sample); err != nil {
			e.log.Error("failed to create alert",
				logger.String("device_id", deviceID),
				logger.String("rule_name", rule.Name),
				logger.Error(err))
			continue
		}
		metrics.AlertsCreated.WithLabelValues(rule.Severity).Inc()
		e.log.Info("alert created",
			logger.String("device_id", deviceID),
			logger.String("rule_name", rule.Name),
			logger.String("severity", rule.Severity))
	}
	return nil
}

// inCooldown reports whether an active alert for the device/rule pair was
// triggered within the rule's cooldown window. Only still-active alerts
// suppress: an active alert older than the window does not, and an
// acknowledged alert never does. A failed lookup is treated as not in
// cooldown so a flaky alert store cannot silence alerting entirely.
func (e *Engine) inCooldown(ctx context.Context, deviceID string, rule *entities.AlertRule) bool {
	window := time.Duration(rule.CooldownMinutes) * time.Minute
	_, err := e.alerts.FindRecentActive(ctx, deviceID, rule.Name, window)
	if err == nil {
		return true
	}
	if !errors.IsNotFound(err) {
		e.log.Warn("cooldown lookup failed",
			logger.String("device_id", deviceID),
			logger.String("rule_name", rule.Name),
			logger.Error(err))
	}
	return false
}

func (e *Engine) createAlert(ctx context.Context, deviceID string, rule *entities.AlertRule, sample TelemetrySample) error {
	description := rule.Description
	if description == "" {
		description = conditionText(rule.Conditions)
	}
	alert := &entities.Alert{
		CorrelationID:   newCorrelationID(),
		DeviceID:        deviceID,
		RuleID:          rule.ID,
		RuleName:        rule.Name,
		Description:     description,
		Severity:        rule.Severity,
		Status:          entities.AlertStatusActive,
		Message:         fmt.Sprintf("%s: %s", rule.Name, conditionText(rule.Conditions)),
		TriggeredAt:     time.Now(),
		Temperature:     sample.Temperature,
		Humidity:        sample.Humidity,
		FlowRate:        sample.FlowRate,
		Current:         sample.Current,
		Power:           sample.Power,
		CumulativePower: sample.CumulativePower,
	}
	return e.alerts.Create(ctx, alert)
}

// TestResult is the outcome of a rule dry-run.
type TestResult struct {
	Triggered  bool              `json:"triggered"`
	Conditions []ConditionResult `json:"conditions"`
	Message    string            `json:"message"`
}

// TestRule evaluates a rule against a caller-supplied sample without any
// cooldown check or alert creation. Every condition is reported with its
// observed value and verdict.
func (e *Engine) TestRule(ctx context.Context, id uint, sample TelemetrySample) (*TestResult, error) {
	rule, err := e.rules.GetRule(ctx, id)
	if err != nil {
		return nil, err
	}

	triggered, results, err := EvaluateConditions(rule.Conditions, sample)
	if err != nil {
		return nil, err
	}

	message := fmt.Sprintf("rule %q would trigger with the given data", rule.Name)
	if !triggered {
		var failed []entities.AlertCondition
		var observed []float64
		for i := range results {
			if !results[i].Passed {
				failed = append(failed, results[i].Condition)
				observed = append(observed, results[i].Value)
			}
		}
		message = fmt.Sprintf("rule %q would NOT trigger, failed conditions:", rule.Name)
		for i := range failed {
			message += fmt.Sprintf(" %s %s %g (got %g)", failed[i].Metric, failed[i].Operator, failed[i].Threshold, observed[i])
			if i < len(failed)-1 {
				message += ","
			}
		}
	}

	return &TestResult{Triggered: triggered, Conditions: results, Message: message}, nil
}

/* ----------------------- Rule management ----------------------- */

// CreateRule validates and stores a new rule. Duplicate names are rejected
// before persistence.
func (e *Engine) CreateRule(ctx context.Context, rule *entities.AlertRule) error {
	if rule.Name == "" {
		return errors.Validationf("rule name is required")
	}
	if err := ValidateConditions(rule.Conditions); err != nil {
		return err
	}
	if rule.Severity == "" {
		rule.Severity = entities.SeverityMedium
	}
	if !validSeverity(rule.Severity) {
		return errors.Validationf("invalid severity %q", rule.Severity)
	}
	if rule.CooldownMinutes < 0 {
		return errors.Validationf("cooldown minutes must not be negative")
	}
	if rule.CooldownMinutes == 0 {
		rule.CooldownMinutes = 30
	}

	count, err := e.rules.CountByName(ctx, rule.Name)
	if err != nil {
		return errors.Transientf(err, "failed to check rule name uniqueness")
	}
	if count > 0 {
		return errors.Validationf("an alert rule named %q already exists", rule.Name)
	}

	if err := e.rules.CreateRule(ctx, rule); err != nil {
		return err
	}
	e.invalidateCache()
	return nil
}

// ListRules returns rules matching the filter.
func (e *Engine) ListRules(ctx context.Context, filter repository.AlertRuleFilter) ([]entities.AlertRule, error) {
	return e.rules.ListRules(ctx, filter)
}

// GetRule returns a single rule by ID.
func (e *Engine) GetRule(ctx context.Context, id uint) (*entities.AlertRule, error) {
	return e.rules.GetRule(ctx, id)
}

// DeleteRule removes a rule.
func (e *Engine) DeleteRule(ctx context.Context, id uint) error {
	if err := e.rules.DeleteRule(ctx, id); err != nil {
		return err
	}
	e.invalidateCache()
	return nil
}

// SetRuleActive enables or disables a rule.
func (e *Engine) SetRuleActive(ctx context.Context, id uint, isActive bool) error {
	if err := e.rules.ToggleRule(ctx, id, isActive); err != nil {
		return err
	}
	e.invalidateCache()
	return nil
}

func (e *Engine) activeRules(ctx context.Context) ([]entities.AlertRule, error) {
	if cached, ok := e.cache.Get(activeRulesCacheKey); ok {
		return cached.([]entities.AlertRule), nil
	}
	rules, err := e.rules.GetActiveRules(ctx)
	if err != nil {
		return nil, err
	}
	e.cache.SetDefault(activeRulesCacheKey, rules)
	return rules, nil
}

func (e *Engine) invalidateCache() {
	e.cache.Delete(activeRulesCacheKey)
}

func validSeverity(severity string) bool {
	switch severity {
	case entities.SeverityCritical, entities.SeverityHigh, entities.SeverityMedium, entities.SeverityLow:
		return true
	default:
		return false
	}
}
