package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/moneshrallapalli/sentinel/internal/datastore/entities"
	"github.com/moneshrallapalli/sentinel/internal/errors"
)

// alertRepository implements AlertRepository.
type alertRepository struct {
	db *gorm.DB
}

// NewAlertRepository creates a new AlertRepository.
func NewAlertRepository(db *gorm.DB) AlertRepository {
	return &alertRepository{db: db}
}

// SaveAlert persists an alert.
func (r *alertRepository) SaveAlert(ctx context.Context, alert *entities.Alert) error {
	if err := r.db.WithContext(ctx).Create(alert).Error; err != nil {
		return fmt.Errorf("failed to save alert: %w", err)
	}
	return nil
}

// GetAlert returns a single alert by id.
func (r *alertRepository) GetAlert(ctx context.Context, id string) (*entities.Alert, error) {
	var alert entities.Alert
	if err := r.db.WithContext(ctx).First(&alert, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAlertNotFound
		}
		return nil, fmt.Errorf("failed to get alert %s: %w", id, err)
	}
	return &alert, nil
}

// ListAlerts returns alerts matching the filter, newest first, with the
// total matching count.
func (r *alertRepository) ListAlerts(ctx context.Context, filter AlertFilter) ([]entities.Alert, int64, error) {
	query := r.db.WithContext(ctx).Model(&entities.Alert{})

	if filter.Severity != "" {
		query = query.Where("severity = ?", filter.Severity)
	}
	if filter.CameraID != "" {
		query = query.Where("camera_id = ?", filter.CameraID)
	}
	if filter.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count alerts: %w", err)
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var alerts []entities.Alert
	if err := query.Order("created_at DESC").Find(&alerts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list alerts: %w", err)
	}
	return alerts, total, nil
}

// Acknowledge marks an alert read and records the operator response time.
func (r *alertRepository) Acknowledge(ctx context.Context, id string, at time.Time) (*entities.Alert, error) {
	alert, err := r.GetAlert(ctx, id)
	if err != nil {
		return nil, err
	}
	if alert.IsRead {
		return alert, nil
	}

	alert.IsRead = true
	alert.AcknowledgedAt = &at
	alert.ResponseTimeSeconds = at.Sub(alert.CreatedAt).Seconds()

	if err := r.db.WithContext(ctx).Model(alert).Updates(map[string]any{
		"is_read":               true,
		"acknowledged_at":       at,
		"response_time_seconds": alert.ResponseTimeSeconds,
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to acknowledge alert %s: %w", id, err)
	}
	return alert, nil
}

// CountUnread returns the number of unacknowledged alerts.
func (r *alertRepository) CountUnread(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entities.Alert{}).Where("is_read = ?", false).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count unread alerts: %w", err)
	}
	return count, nil
}
