package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/aquamon/aquamon-go/internal/datastore/entities"
	"github.com/aquamon/aquamon-go/internal/datastore/repository"
	"github.com/aquamon/aquamon-go/internal/errors"
)

// createDeviceRequest is the body of POST /devices. An empty device_id gets
// a generated identifier.
type createDeviceRequest struct {
	DeviceID string `json:"device_id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	IsActive *bool  `json:"is_active"`
}

// ListDevices returns all registered devices.
func (c *Controller) ListDevices(ctx echo.Context) error {
	devices, err := c.devices.List(ctx.Request().Context())
	if err != nil {
		return c.handleError(ctx, err, "Failed to list devices")
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"devices": devices,
		"count":   len(devices),
	})
}

// CreateDevice registers a device.
func (c *Controller) CreateDevice(ctx echo.Context) error {
	var req createDeviceRequest
	if err := ctx.Bind(&req); err != nil {
		return c.handleError(ctx, errors.Validationf("invalid device definition: %v", err), "")
	}
	if req.Type == "" {
		return c.handleError(ctx, errors.Validationf("device type is required"), "")
	}

	device := &entities.Device{
		DeviceID: req.DeviceID,
		Name:     req.Name,
		Type:     req.Type,
		IsActive: true,
	}
	if device.DeviceID == "" {
		device.DeviceID = uuid.NewString()
	}
	if req.IsActive != nil {
		device.IsActive = *req.IsActive
	}

	if err := c.devices.Create(ctx.Request().Context(), device); err != nil {
		return c.handleError(ctx, err, "Failed to create device")
	}
	return ctx.JSON(http.StatusCreated, device)
}

// ListDeviceTelemetry returns stored readings for one device.
func (c *Controller) ListDeviceTelemetry(ctx echo.Context) error {
	deviceID := ctx.Param("deviceId")
	if _, err := c.devices.GetByDeviceID(ctx.Request().Context(), deviceID); err != nil {
		return c.handleError(ctx, err, "Failed to look up device")
	}

	filter := repository.TelemetryFilter{
		Limit:  parseIntQuery(ctx, "limit", 50),
		Offset: parseIntQuery(ctx, "offset", 0),
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}

	samples, total, err := c.telemetry.ListByDevice(ctx.Request().Context(), deviceID, filter)
	if err != nil {
		return c.handleError(ctx, err, "Failed to list telemetry")
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"telemetry": samples,
		"total":     total,
	})
}
