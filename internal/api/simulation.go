package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aquamon/aquamon-go/internal/errors"
	"github.com/aquamon/aquamon-go/internal/simulation"
)

// scenarioRequest is the body of POST /simulation/scenario.
type scenarioRequest struct {
	DeviceID string `json:"device_id"`
	Scenario string `json:"scenario"`
}

// StartSimulation starts (or restarts) the simulation with the given config.
func (c *Controller) StartSimulation(ctx echo.Context) error {
	var cfg simulation.Config
	if err := ctx.Bind(&cfg); err != nil {
		return c.handleError(ctx, errors.Validationf("invalid simulation config: %v", err), "")
	}
	if err := c.sim.Start(ctx.Request().Context(), cfg); err != nil {
		return c.handleError(ctx, err, "Failed to start simulation")
	}
	return ctx.JSON(http.StatusOK, c.sim.Status())
}

// StopSimulation stops the simulation timer.
func (c *Controller) StopSimulation(ctx echo.Context) error {
	c.sim.Stop()
	return ctx.JSON(http.StatusOK, c.sim.Status())
}

// SimulationStatus returns the engine state, active devices, and per-device
// simulated state.
func (c *Controller) SimulationStatus(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, c.sim.Status())
}

// ForceCycle runs one simulation cycle immediately. An optional body
// overrides the active config for this cycle only.
func (c *Controller) ForceCycle(ctx echo.Context) error {
	var override *simulation.Config
	if ctx.Request().ContentLength > 0 {
		var cfg simulation.Config
		if err := ctx.Bind(&cfg); err != nil {
			return c.handleError(ctx, errors.Validationf("invalid simulation config: %v", err), "")
		}
		override = &cfg
	}
	if err := c.sim.ForceCycle(ctx.Request().Context(), override); err != nil {
		return c.handleError(ctx, err, "Failed to run cycle")
	}
	return ctx.JSON(http.StatusOK, c.sim.Status())
}

// TriggerScenario forces a named condition on one device.
func (c *Controller) TriggerScenario(ctx echo.Context) error {
	var req scenarioRequest
	if err := ctx.Bind(&req); err != nil {
		return c.handleError(ctx, errors.Validationf("invalid scenario request: %v", err), "")
	}
	if req.DeviceID == "" {
		return c.handleError(ctx, errors.Validationf("device_id is required"), "")
	}
	if err := c.sim.TriggerScenario(ctx.Request().Context(), req.DeviceID, req.Scenario); err != nil {
		return c.handleError(ctx, err, "Failed to trigger scenario")
	}
	return ctx.JSON(http.StatusOK, map[string]string{
		"device_id": req.DeviceID,
		"scenario":  req.Scenario,
		"result":    "triggered",
	})
}
