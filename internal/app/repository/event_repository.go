package repository

import (
	"context"
	"errors"

	"github.com/lfk/lfk-backend/internal/app/model"
	"github.com/lfk/lfk-backend/pkg/logger"
	"gorm.io/gorm"
)

type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	FindByID(ctx context.Context, id uint) (*model.Event, error)
	FindMembershipPlans(ctx context.Context, eventID uint) ([]model.MembershipPlan, error)
}

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, event *model.Event) error {
	logger.Debug("Creating event in database", map[string]interface{}{
		"alias":    event.Alias,
		"coach_id": event.CoachID,
	})

	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		logger.Error("Failed to create event in database", err, map[string]interface{}{
			"alias": event.Alias,
		})
		return err
	}
	return nil
}

// FindByID returns (nil, nil) when the event does not exist.
func (r *eventRepository) FindByID(ctx context.Context, id uint) (*model.Event, error) {
	logger.Debug("Finding event by ID in database", map[string]interface{}{
		"event_id": id,
	})

	var event model.Event
	err := r.db.WithContext(ctx).First(&event, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		logger.Error("Failed to find event by ID in database", err, map[string]interface{}{
			"event_id": id,
		})
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) FindMembershipPlans(ctx context.Context, eventID uint) ([]model.MembershipPlan, error) {
	var plans []model.MembershipPlan
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("price ASC").
		Find(&plans).Error
	if err != nil {
		logger.Error("Failed to find membership plans in database", err, map[string]interface{}{
			"event_id": eventID,
		})
		return nil, err
	}

	logger.Debug("Membership plans found in database", map[string]interface{}{
		"event_id": eventID,
		"count":    len(plans),
	})
	return plans, nil
}
