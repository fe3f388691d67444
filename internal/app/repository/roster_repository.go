package repository

import (
	"context"

	"github.com/lfk/lfk-backend/internal/app/model"
	"github.com/lfk/lfk-backend/pkg/logger"
	"gorm.io/gorm"
)

type RosterRepository interface {
	Create(ctx context.Context, roster *model.Roster) error
	HasActive(ctx context.Context, childID, eventID uint) (bool, error)
	HasPaid(ctx context.Context, userID, eventID uint) (bool, error)
}

type rosterRepository struct {
	db *gorm.DB
}

func NewRosterRepository(db *gorm.DB) RosterRepository {
	return &rosterRepository{db: db}
}

func (r *rosterRepository) Create(ctx context.Context, roster *model.Roster) error {
	if err := r.db.WithContext(ctx).Create(roster).Error; err != nil {
		logger.Error("Failed to create roster in database", err, map[string]interface{}{
			"child_id": roster.ChildID,
			"event_id": roster.EventID,
		})
		return err
	}
	return nil
}

func (r *rosterRepository) HasActive(ctx context.Context, childID, eventID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Roster{}).
		Where("child_id = ? AND event_id = ? AND active = ?", childID, eventID, true).
		Count(&count).Error
	if err != nil {
		logger.Error("Failed to check active roster", err, map[string]interface{}{
			"child_id": childID,
			"event_id": eventID,
		})
		return false, err
	}
	return count > 0, nil
}

// HasPaid reports whether the user holds any paid roster row for the event,
// active or not.
func (r *rosterRepository) HasPaid(ctx context.Context, userID, eventID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Roster{}).
		Where("user_id = ? AND event_id = ? AND payment_id IS NOT NULL AND payment_id <> ''", userID, eventID).
		Count(&count).Error
	if err != nil {
		logger.Error("Failed to check paid roster", err, map[string]interface{}{
			"user_id":  userID,
			"event_id": eventID,
		})
		return false, err
	}

	logger.Debug("Checked paid roster", map[string]interface{}{
		"user_id":  userID,
		"event_id": eventID,
		"paid":     count > 0,
	})
	return count > 0, nil
}
