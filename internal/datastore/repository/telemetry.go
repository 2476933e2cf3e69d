package repository

import (
	"context"

	"github.com/aquamon/aquamon-go/internal/datastore/entities"
)

// TelemetryRepository stores and queries sensor readings.
type TelemetryRepository interface {
	// Append stores a reading, assigning its ID and received-at timestamp.
	Append(ctx context.Context, sample *entities.Telemetry) error
	ListByDevice(ctx context.Context, deviceID string, filter TelemetryFilter) ([]entities.Telemetry, int64, error)
	LatestByDevice(ctx context.Context, deviceID string) (*entities.Telemetry, error)
}

// TelemetryFilter controls telemetry listing queries.
type TelemetryFilter struct {
	Limit  int
	Offset int
}
