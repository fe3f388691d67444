package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MembershipPlan is one subscription option of a membership class.
type MembershipPlan struct {
	ID               uint            `gorm:"primarykey" json:"id"`
	EventID          uint            `gorm:"not null;uniqueIndex:idx_plan_event_type" json:"event_id"`
	SubscriptionType string          `gorm:"type:varchar(30);not null;uniqueIndex:idx_plan_event_type" json:"subscription_type"`
	Price            decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (MembershipPlan) TableName() string {
	return "membership_plans"
}
