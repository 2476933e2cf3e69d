package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/aquamon/aquamon-go/internal/datastore/repository"
	"github.com/aquamon/aquamon-go/internal/errors"
)

const maxListLimit = 200

// ListAlerts returns alerts, newest first, filterable by device, status, and
// severity.
func (c *Controller) ListAlerts(ctx echo.Context) error {
	filter := repository.AlertFilter{
		DeviceID: ctx.QueryParam("device_id"),
		Status:   ctx.QueryParam("status"),
		Severity: ctx.QueryParam("severity"),
		Limit:    parseIntQuery(ctx, "limit", 50),
		Offset:   parseIntQuery(ctx, "offset", 0),
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}

	alerts, total, err := c.alerts.List(ctx.Request().Context(), filter)
	if err != nil {
		return c.handleError(ctx, err, "Failed to list alerts")
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"alerts": alerts,
		"total":  total,
	})
}

// AcknowledgeAlert moves an active alert to acknowledged.
func (c *Controller) AcknowledgeAlert(ctx echo.Context) error {
	id, err := parseUintParam(ctx, "id")
	if err != nil {
		return c.handleError(ctx, err, "")
	}
	var req struct {
		By string `json:"by"`
	}
	if err := ctx.Bind(&req); err != nil {
		return c.handleError(ctx, errors.Validationf("invalid acknowledge request: %v", err), "")
	}
	alert, err := c.alerts.Acknowledge(ctx.Request().Context(), id, req.By)
	if err != nil {
		return c.handleError(ctx, err, "Failed to acknowledge alert")
	}
	return ctx.JSON(http.StatusOK, alert)
}

// ResolveAlert moves an alert to resolved.
func (c *Controller) ResolveAlert(ctx echo.Context) error {
	id, err := parseUintParam(ctx, "id")
	if err != nil {
		return c.handleError(ctx, err, "")
	}
	alert, err := c.alerts.Resolve(ctx.Request().Context(), id)
	if err != nil {
		return c.handleError(ctx, err, "Failed to resolve alert")
	}
	return ctx.JSON(http.StatusOK, alert)
}

func parseIntQuery(ctx echo.Context, name string, fallback int) int {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
