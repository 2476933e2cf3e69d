// Package api exposes the HTTP control surface: simulation lifecycle, rule
// management, and alert queries. Transport only; all behavior lives in the
// simulation and alerting packages.
package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aquamon/aquamon-go/internal/alerting"
	"github.com/aquamon/aquamon-go/internal/datastore/repository"
	"github.com/aquamon/aquamon-go/internal/errors"
	"github.com/aquamon/aquamon-go/internal/logger"
	"github.com/aquamon/aquamon-go/internal/simulation"
)

// Controller wires HTTP routes to the engines and repositories.
type Controller struct {
	sim        *simulation.Engine
	ruleEngine *alerting.Engine
	devices    repository.DeviceRepository
	telemetry  repository.TelemetryRepository
	alerts     repository.AlertRepository
	log        logger.Logger
}

// NewController creates a Controller.
func NewController(
	sim *simulation.Engine,
	ruleEngine *alerting.Engine,
	devices repository.DeviceRepository,
	telemetry repository.TelemetryRepository,
	alerts repository.AlertRepository,
	log logger.Logger,
) *Controller {
	return &Controller{
		sim:        sim,
		ruleEngine: ruleEngine,
		devices:    devices,
		telemetry:  telemetry,
		alerts:     alerts,
		log:        log,
	}
}

// Register attaches all routes to the echo instance.
func (c *Controller) Register(e *echo.Echo) {
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := e.Group("/api/v1")

	sim := v1.Group("/simulation")
	sim.POST("/start", c.StartSimulation)
	sim.POST("/stop", c.StopSimulation)
	sim.GET("/status", c.SimulationStatus)
	sim.POST("/cycle", c.ForceCycle)
	sim.POST("/scenario", c.TriggerScenario)

	rules := v1.Group("/alert-rules")
	rules.GET("/schema", c.GetRuleSchema)
	rules.GET("", c.ListAlertRules)
	rules.POST("", c.CreateAlertRule)
	rules.GET("/:id", c.GetAlertRule)
	rules.DELETE("/:id", c.DeleteAlertRule)
	rules.PATCH("/:id/toggle", c.ToggleAlertRule)
	rules.POST("/:id/test", c.TestAlertRule)

	alerts := v1.Group("/alerts")
	alerts.GET("", c.ListAlerts)
	alerts.PATCH("/:id/acknowledge", c.AcknowledgeAlert)
	alerts.PATCH("/:id/resolve", c.ResolveAlert)

	devices := v1.Group("/devices")
	devices.GET("", c.ListDevices)
	devices.POST("", c.CreateDevice)
	devices.GET("/:deviceId/telemetry", c.ListDeviceTelemetry)
}

// handleError maps application error categories to HTTP status codes.
// Validation failures are the caller's fault, missing resources are 404,
// everything else is an internal error.
func (c *Controller) handleError(ctx echo.Context, err error, msg string) error {
	switch {
	case errors.IsValidation(err):
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.IsNotFound(err):
		return ctx.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		c.log.Error(msg, logger.Error(err))
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": msg})
	}
}

// parseUintParam parses a numeric path parameter.
func parseUintParam(ctx echo.Context, name string) (uint, error) {
	raw := ctx.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, errors.Validationf("invalid %s %q", name, raw)
	}
	return uint(id), nil
}
