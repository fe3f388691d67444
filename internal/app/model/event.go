package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Event is a class offered by a coach.
type Event struct {
	ID             uint            `gorm:"primarykey" json:"id"`
	CoachID        uint            `gorm:"not null;index" json:"coach_id"`
	Title          string          `gorm:"not null" json:"title"`
	Alias          string          `gorm:"uniqueIndex;not null" json:"alias"`
	Description    string          `gorm:"type:text" json:"description"`
	Price          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Enabled        bool            `gorm:"not null" json:"enabled"`
	Frozen         bool            `gorm:"not null" json:"frozen"`
	IsMembership   bool            `gorm:"not null" json:"is_membership"`
	MembershipType string          `gorm:"type:varchar(30)" json:"membership_type,omitempty"`
	PasswordHash   string          `json:"-"` // empty when the class is public
	StartDate      time.Time       `gorm:"not null" json:"start_date"`
	EndDate        time.Time       `gorm:"not null" json:"end_date"`
	HaltDate       *time.Time      `json:"halt_date,omitempty"` // registration closes
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`

	Coach           User             `gorm:"foreignKey:CoachID" json:"coach,omitempty"`
	MembershipPlans []MembershipPlan `gorm:"foreignKey:EventID" json:"membership_plans,omitempty"`
}

func (Event) TableName() string {
	return "events"
}

func (e Event) RequiresPassword() bool {
	return e.PasswordHash != ""
}
