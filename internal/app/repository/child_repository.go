package repository

import (
	"context"

	"github.com/lfk/lfk-backend/internal/app/model"
	"github.com/lfk/lfk-backend/pkg/logger"
	"gorm.io/gorm"
)

type ChildRepository interface {
	Create(ctx context.Context, child *model.Child) error
	FindByUserID(ctx context.Context, userID uint) ([]model.Child, error)
}

type childRepository struct {
	db *gorm.DB
}

func NewChildRepository(db *gorm.DB) ChildRepository {
	return &childRepository{db: db}
}

func (r *childRepository) Create(ctx context.Context, child *model.Child) error {
	if err := r.db.WithContext(ctx).Create(child).Error; err != nil {
		logger.Error("Failed to create child in database", err, map[string]interface{}{
			"user_id": child.UserID,
		})
		return err
	}

	logger.Debug("Child created in database", map[string]interface{}{
		"child_id": child.ID,
		"user_id":  child.UserID,
	})
	return nil
}

func (r *childRepository) FindByUserID(ctx context.Context, userID uint) ([]model.Child, error) {
	logger.Debug("Finding children by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var children []model.Child
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("first_name ASC, id ASC").
		Find(&children).Error
	if err != nil {
		logger.Error("Failed to find children in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Debug("Children found in database", map[string]interface{}{
		"user_id": userID,
		"count":   len(children),
	})
	return children, nil
}
