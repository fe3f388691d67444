package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type CouponType string

const (
	CouponTypeFixed      CouponType = "fixed"
	CouponTypePercentage CouponType = "percentage"
)

type Coupon struct {
	ID         uint            `gorm:"primarykey" json:"id"`
	Code       string          `gorm:"uniqueIndex;not null" json:"code"`
	Amount     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Type       CouponType      `gorm:"type:varchar(20);default:'fixed'" json:"type"`
	UserID     *uint           `gorm:"index" json:"user_id,omitempty"` // individual coupon owner
	ValidFrom  *time.Time      `json:"valid_from,omitempty"`
	ValidUntil *time.Time      `json:"valid_until,omitempty"`
	IsActive   bool            `gorm:"not null;index" json:"is_active"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (Coupon) TableName() string {
	return "coupons"
}

// ValidAt reports whether the coupon window contains t.
func (c Coupon) ValidAt(t time.Time) bool {
	if !c.IsActive {
		return false
	}
	if c.ValidFrom != nil && t.Before(*c.ValidFrom) {
		return false
	}
	if c.ValidUntil != nil && t.After(*c.ValidUntil) {
		return false
	}
	return true
}
