package repository

import (
	"context"
	"time"

	"github.com/aquamon/aquamon-go/internal/datastore/entities"
)

// AlertRepository stores alerts and answers the cooldown lookup.
type AlertRepository interface {
	Create(ctx context.Context, alert *entities.Alert) error
	// FindRecentActive returns the most recent alert for the device/rule pair
	// that is still active and was triggered inside the window, or a
	// not-found error when none exists. This is the cooldown check.
	FindRecentActive(ctx context.Context, deviceID, ruleName string, window time.Duration) (*entities.Alert, error)
	List(ctx context.Context, filter AlertFilter) ([]entities.Alert, int64, error)
	Get(ctx context.Context, id uint) (*entities.Alert, error)
	Acknowledge(ctx context.Context, id uint, by string) (*entities.Alert, error)
	Resolve(ctx context.Context, id uint) (*entities.Alert, error)
}

// AlertFilter controls alert listing queries.
type AlertFilter struct {
	DeviceID string
	Status   string
	Severity string
	Limit    int
	Offset   int
}
