package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/aquamon/aquamon-go/internal/datastore/entities"
	"github.com/aquamon/aquamon-go/internal/errors"
)

// telemetryRepository implements TelemetryRepository on gorm.
type telemetryRepository struct {
	db *gorm.DB
}

// NewTelemetryRepository creates a new TelemetryRepository.
func NewTelemetryRepository(db *gorm.DB) TelemetryRepository {
	return &telemetryRepository{db: db}
}

// Append stores a telemetry reading.
func (r *telemetryRepository) Append(ctx context.Context, sample *entities.Telemetry) error {
	if err := r.db.WithContext(ctx).Create(sample).Error; err != nil {
		return fmt.Errorf("failed to append telemetry for %s: %w", sample.DeviceID, err)
	}
	return nil
}

// ListByDevice returns readings for a device, newest first, with pagination.
func (r *telemetryRepository) ListByDevice(ctx context.Context, deviceID string, filter TelemetryFilter) ([]entities.Telemetry, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&entities.Telemetry{}).
		Where("device_id = ?", deviceID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count telemetry for %s: %w", deviceID, err)
	}

	query := r.db.WithContext(ctx).Where("device_id = ?", deviceID).Order("timestamp DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var samples []entities.Telemetry
	if err := query.Find(&samples).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list telemetry for %s: %w", deviceID, err)
	}
	return samples, total, nil
}

// LatestByDevice returns the most recent reading for a device.
func (r *telemetryRepository) LatestByDevice(ctx context.Context, deviceID string) (*entities.Telemetry, error) {
	var sample entities.Telemetry
	err := r.db.WithContext(ctx).Where("device_id = ?", deviceID).
		Order("timestamp DESC").First(&sample).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFoundf("no telemetry for device %s", deviceID)
		}
		return nil, fmt.Errorf("failed to get latest telemetry for %s: %w", deviceID, err)
	}
	return &sample, nil
}
