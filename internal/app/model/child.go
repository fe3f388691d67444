package model

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type Child struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"` // parent
	FirstName string         `gorm:"not null" json:"first_name"`
	LastName  string         `json:"last_name"`
	BirthDate *time.Time     `json:"birth_date,omitempty"`
	Gender    string         `gorm:"type:varchar(10)" json:"gender,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Child) TableName() string {
	return "children"
}

func (c Child) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}
