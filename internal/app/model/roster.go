package model

import "time"

// Roster links a child to a class. A row with a PaymentID has been paid for.
type Roster struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	ChildID   uint      `gorm:"not null;index:idx_roster_child_event" json:"child_id"`
	EventID   uint      `gorm:"not null;index:idx_roster_child_event" json:"event_id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Active    bool      `gorm:"not null;index" json:"active"`
	PaymentID *string   `gorm:"type:varchar(100)" json:"payment_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Child Child `gorm:"foreignKey:ChildID" json:"child,omitempty"`
	Event Event `gorm:"foreignKey:EventID" json:"-"`
}

func (Roster) TableName() string {
	return "rosters"
}
