package repository

import (
	"context"
	"errors"
	"time"

	"github.com/lfk/lfk-backend/internal/app/model"
	"github.com/lfk/lfk-backend/pkg/logger"
	"gorm.io/gorm"
)

type CouponRepository interface {
	Create(ctx context.Context, coupon *model.Coupon) error
	FindActiveForUser(ctx context.Context, userID uint, now time.Time) (*model.Coupon, error)
	FindByCode(ctx context.Context, code string) (*model.Coupon, error)
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

type couponRepository struct {
	db *gorm.DB
}

func NewCouponRepository(db *gorm.DB) CouponRepository {
	return &couponRepository{db: db}
}

func (r *couponRepository) Create(ctx context.Context, coupon *model.Coupon) error {
	if err := r.db.WithContext(ctx).Create(coupon).Error; err != nil {
		logger.Error("Failed to create coupon in database", err, map[string]interface{}{
			"code": coupon.Code,
		})
		return err
	}
	return nil
}

// FindActiveForUser returns the newest active individual coupon valid at now,
// or (nil, nil).
func (r *couponRepository) FindActiveForUser(ctx context.Context, userID uint, now time.Time) (*model.Coupon, error) {
	var coupon model.Coupon
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Where("(valid_from IS NULL OR valid_from <= ?)", now).
		Where("(valid_until IS NULL OR valid_until >= ?)", now).
		Order("id DESC").
		First(&coupon).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		logger.Error("Failed to find active coupon", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Debug("Active coupon found", map[string]interface{}{
		"user_id": userID,
		"code":    coupon.Code,
	})
	return &coupon, nil
}

// FindByCode returns (nil, nil) for an unknown code.
func (r *couponRepository) FindByCode(ctx context.Context, code string) (*model.Coupon, error) {
	var coupon model.Coupon
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&coupon).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		logger.Error("Failed to find coupon by code", err, map[string]interface{}{
			"code": code,
		})
		return nil, err
	}
	return &coupon, nil
}

func (r *couponRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.Coupon{}).
		Where("is_active = ? AND valid_until IS NOT NULL AND valid_until < ?", true, now).
		Update("is_active", false)
	if result.Error != nil {
		logger.Error("Failed to deactivate expired coupons", result.Error)
		return 0, result.Error
	}

	logger.Info("Expired coupons deactivated", map[string]interface{}{
		"count": result.RowsAffected,
	})
	return result.RowsAffected, nil
}
