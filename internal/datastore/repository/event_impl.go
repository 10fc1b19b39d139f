package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/moneshrallapalli/sentinel/internal/datastore/entities"
)

// eventRepository implements EventRepository.
type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

// SaveEvent persists an event with its detections.
func (r *eventRepository) SaveEvent(ctx context.Context, event *entities.Event) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to save event: %w", err)
	}
	return nil
}

// RecentEvents returns the most recent events for a camera, newest first.
func (r *eventRepository) RecentEvents(ctx context.Context, cameraID string, limit int) ([]entities.Event, error) {
	if limit <= 0 {
		limit = 10
	}
	var events []entities.Event
	err := r.db.WithContext(ctx).
		Preload("Detections").
		Where("camera_id = ?", cameraID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recent events for %s: %w", cameraID, err)
	}
	return events, nil
}
