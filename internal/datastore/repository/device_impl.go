package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/aquamon/aquamon-go/internal/datastore/entities"
	"github.com/aquamon/aquamon-go/internal/errors"
)

// deviceRepository implements DeviceRepository on gorm.
type deviceRepository struct {
	db *gorm.DB
}

// NewDeviceRepository creates a new DeviceRepository.
func NewDeviceRepository(db *gorm.DB) DeviceRepository {
	return &deviceRepository{db: db}
}

// ListActive returns all devices flagged active, in stable device-id order.
func (r *deviceRepository) ListActive(ctx context.Context) ([]entities.Device, error) {
	var devices []entities.Device
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("device_id ASC").Find(&devices).Error; err != nil {
		return nil, fmt.Errorf("failed to list active devices: %w", err)
	}
	return devices, nil
}

// List returns all registered devices.
func (r *deviceRepository) List(ctx context.Context) ([]entities.Device, error) {
	var devices []entities.Device
	if err := r.db.WithContext(ctx).Order("device_id ASC").Find(&devices).Error; err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, nil
}

// GetByDeviceID returns a device by its external identifier.
func (r *deviceRepository) GetByDeviceID(ctx context.Context, deviceID string) (*entities.Device, error) {
	var device entities.Device
	if err := r.db.WithContext(ctx).Where("device_id = ?", deviceID).First(&device).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFoundf("device %s not found", deviceID)
		}
		return nil, fmt.Errorf("failed to get device %s: %w", deviceID, err)
	}
	return &device, nil
}

// Create registers a new device.
func (r *deviceRepository) Create(ctx context.Context, device *entities.Device) error {
	if err := r.db.WithContext(ctx).Create(device).Error; err != nil {
		return fmt.Errorf("failed to create device: %w", err)
	}
	return nil
}

// TouchLastSeen updates a device's last-seen timestamp.
func (r *deviceRepository) TouchLastSeen(ctx context.Context, deviceID string, seenAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&entities.Device{}).
		Where("device_id = ?", deviceID).
		Update("last_seen_at", seenAt)
	if result.Error != nil {
		return fmt.Errorf("failed to touch device %s: %w", deviceID, result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NotFoundf("device %s not found", deviceID)
	}
	return nil
}
