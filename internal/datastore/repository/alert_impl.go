package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/aquamon/aquamon-go/internal/datastore/entities"
	"github.com/aquamon/aquamon-go/internal/errors"
)

// alertRepository implements AlertRepository on gorm.
type alertRepository struct {
	db *gorm.DB
}

// NewAlertRepository creates a new AlertRepository.
func NewAlertRepository(db *gorm.DB) AlertRepository {
	return &alertRepository{db: db}
}

// Create stores a new alert.
func (r *alertRepository) Create(ctx context.Context, alert *entities.Alert) error {
	if err := r.db.WithContext(ctx).Create(alert).Error; err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

// FindRecentActive implements the cooldown lookup: only alerts that are still
// active and were triggered inside the trailing window suppress a new alert.
// Acknowledged or resolved alerts do not count, and neither does an active
// alert triggered before the window opened.
func (r *alertRepository) FindRecentActive(ctx context.Context, deviceID, ruleName string, window time.Duration) (*entities.Alert, error) {
	cutoff := time.Now().Add(-window)
	var alert entities.Alert
	err := r.db.WithContext(ctx).
		Where("device_id = ? AND rule_name = ? AND status = ? AND triggered_at >= ?",
			deviceID, ruleName, entities.AlertStatusActive, cutoff).
		Order("triggered_at DESC").
		First(&alert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFoundf("no recent active alert for %s/%s", deviceID, ruleName)
		}
		return nil, fmt.Errorf("failed to query recent alerts for %s/%s: %w", deviceID, ruleName, err)
	}
	return &alert, nil
}

// List returns alerts matching the filter, newest first, with pagination.
func (r *alertRepository) List(ctx context.Context, filter AlertFilter) ([]entities.Alert, int64, error) {
	applyFilter := func(q *gorm.DB) *gorm.DB {
		if filter.DeviceID != "" {
			q = q.Where("device_id = ?", filter.DeviceID)
		}
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if filter.Severity != "" {
			q = q.Where("severity = ?", filter.Severity)
		}
		return q
	}

	var total int64
	if err := applyFilter(r.db.WithContext(ctx).Model(&entities.Alert{})).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count alerts: %w", err)
	}

	query := applyFilter(r.db.WithContext(ctx)).Order("triggered_at DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var alerts []entities.Alert
	if err := query.Find(&alerts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list alerts: %w", err)
	}
	return alerts, total, nil
}

// Get returns a single alert by ID.
func (r *alertRepository) Get(ctx context.Context, id uint) (*entities.Alert, error) {
	var alert entities.Alert
	if err := r.db.WithContext(ctx).First(&alert, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFoundf("alert %d not found", id)
		}
		return nil, fmt.Errorf("failed to get alert %d: %w", id, err)
	}
	return &alert, nil
}

// Acknowledge moves an active alert to acknowledged. The transition is
// monotonic: acknowledging a resolved or already acknowledged alert fails.
func (r *alertRepository) Acknowledge(ctx context.Context, id uint, by string) (*entities.Alert, error) {
	alert, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if alert.Status != entities.AlertStatusActive {
		return nil, errors.Validationf("cannot acknowledge alert %d in status %s", id, alert.Status)
	}
	now := time.Now()
	alert.Status = entities.AlertStatusAcknowledged
	alert.AcknowledgedAt = &now
	alert.AcknowledgedBy = by
	if err := r.db.WithContext(ctx).Save(alert).Error; err != nil {
		return nil, fmt.Errorf("failed to acknowledge alert %d: %w", id, err)
	}
	return alert, nil
}

// Resolve moves an active or acknowledged alert to resolved.
func (r *alertRepository) Resolve(ctx context.Context, id uint) (*entities.Alert, error) {
	alert, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if alert.Status == entities.AlertStatusResolved {
		return nil, errors.Validationf("alert %d is already resolved", id)
	}
	now := time.Now()
	alert.Status = entities.AlertStatusResolved
	alert.ResolvedAt = &now
	if err := r.db.WithContext(ctx).Save(alert).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve alert %d: %w", id, err)
	}
	return alert, nil
}
