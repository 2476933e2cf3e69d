// Package repository provides persistence access behind narrow interfaces.
package repository

import (
	"context"
	"time"

	"github.com/aquamon/aquamon-go/internal/datastore/entities"
)

// DeviceRepository is the device directory consumed by the simulation.
type DeviceRepository interface {
	ListActive(ctx context.Context) ([]entities.Device, error)
	GetByDeviceID(ctx context.Context, deviceID string) (*entities.Device, error)
	Create(ctx context.Context, device *entities.Device) error
	List(ctx context.Context) ([]entities.Device, error)
	TouchLastSeen(ctx context.Context, deviceID string, seenAt time.Time) error
}
