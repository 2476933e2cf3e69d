package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aquamon/aquamon-go/internal/alerting"
	"github.com/aquamon/aquamon-go/internal/datastore/entities"
	"github.com/aquamon/aquamon-go/internal/datastore/repository"
	"github.com/aquamon/aquamon-go/internal/errors"
)

// createRuleRequest is the body of POST /alert-rules.
type createRuleRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	Severity        string `json:"severity"`
	CooldownMinutes int    `json:"cooldown_minutes"`
	IsActive        *bool  `json:"is_active"`
	Conditions      []struct {
		Metric    string  `json:"metric"`
		Operator  string  `json:"operator"`
		Threshold float64 `json:"threshold"`
	} `json:"conditions"`
}

// GetRuleSchema returns the metric/operator catalog for rule authoring.
func (c *Controller) GetRuleSchema(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, alerting.GetSchema())
}

// ListAlertRules returns all rules, optionally filtered by active flag or
// severity.
func (c *Controller) ListAlertRules(ctx echo.Context) error {
	filter := repository.AlertRuleFilter{
		Severity: ctx.QueryParam("severity"),
	}
	if activeParam := ctx.QueryParam("active"); activeParam != "" {
		v := activeParam == "true"
		filter.IsActive = &v
	}

	rules, err := c.ruleEngine.ListRules(ctx.Request().Context(), filter)
	if err != nil {
		return c.handleError(ctx, err, "Failed to list alert rules")
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"rules": rules,
		"count": len(rules),
	})
}

// GetAlertRule returns one rule by ID.
func (c *Controller) GetAlertRule(ctx echo.Context) error {
	id, err := parseUintParam(ctx, "id")
	if err != nil {
		return c.handleError(ctx, err, "")
	}
	rule, err := c.ruleEngine.GetRule(ctx.Request().Context(), id)
	if err != nil {
		return c.handleError(ctx, err, "Failed to get alert rule")
	}
	return ctx.JSON(http.StatusOK, rule)
}

// CreateAlertRule validates and stores a new rule.
func (c *Controller) CreateAlertRule(ctx echo.Context) error {
	var req createRuleRequest
	if err := ctx.Bind(&req); err != nil {
		return c.handleError(ctx, errors.Validationf("invalid rule definition: %v", err), "")
	}

	rule := &entities.AlertRule{
		Name:            req.Name,
		Description:     req.Description,
		Severity:        req.Severity,
		CooldownMinutes: req.CooldownMinutes,
		IsActive:        true,
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	for i, cond := range req.Conditions {
		rule.Conditions = append(rule.Conditions, entities.AlertCondition{
			Metric:    cond.Metric,
			Operator:  cond.Operator,
			Threshold: cond.Threshold,
			SortOrder: i,
		})
	}

	if err := c.ruleEngine.CreateRule(ctx.Request().Context(), rule); err != nil {
		return c.handleError(ctx, err, "Failed to create alert rule")
	}
	return ctx.JSON(http.StatusCreated, rule)
}

// DeleteAlertRule removes a rule.
func (c *Controller) DeleteAlertRule(ctx echo.Context) error {
	id, err := parseUintParam(ctx, "id")
	if err != nil {
		return c.handleError(ctx, err, "")
	}
	if err := c.ruleEngine.DeleteRule(ctx.Request().Context(), id); err != nil {
		return c.handleError(ctx, err, "Failed to delete alert rule")
	}
	return ctx.JSON(http.StatusOK, map[string]string{"message": "alert rule deleted"})
}

// ToggleAlertRule enables or disables a rule.
func (c *Controller) ToggleAlertRule(ctx echo.Context) error {
	id, err := parseUintParam(ctx, "id")
	if err != nil {
		return c.handleError(ctx, err, "")
	}
	var req struct {
		IsActive bool `json:"is_active"`
	}
	if err := ctx.Bind(&req); err != nil {
		return c.handleError(ctx, errors.Validationf("invalid toggle request: %v", err), "")
	}
	if err := c.ruleEngine.SetRuleActive(ctx.Request().Context(), id, req.IsActive); err != nil {
		return c.handleError(ctx, err, "Failed to toggle alert rule")
	}
	return ctx.JSON(http.StatusOK, map[string]any{"id": id, "is_active": req.IsActive})
}

// TestAlertRule dry-runs a rule against a caller-supplied sample.
func (c *Controller) TestAlertRule(ctx echo.Context) error {
	id, err := parseUintParam(ctx, "id")
	if err != nil {
		return c.handleError(ctx, err, "")
	}
	var sample alerting.TelemetrySample
	if err := ctx.Bind(&sample); err != nil {
		return c.handleError(ctx, errors.Validationf("invalid test sample: %v", err), "")
	}
	result, err := c.ruleEngine.TestRule(ctx.Request().Context(), id, sample)
	if err != nil {
		return c.handleError(ctx, err, "Failed to test alert rule")
	}
	return ctx.JSON(http.StatusOK, result)
}
