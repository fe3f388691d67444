package model

import (
	"time"

	"github.com/lfk/lfk-backend/internal/cart"
)

// CartSession is the per-user session state persisted between requests.
type CartSession struct {
	UserID             uint      `json:"user_id"`
	Cart               cart.Cart `json:"cart"`
	AutoEnroll         bool      `json:"auto_enroll"`
	ConfirmedPasswords []uint    `json:"confirmed_passwords,omitempty"` // class ids
	UpdatedAt          time.Time `json:"updated_at"`
}

func (s *CartSession) PasswordConfirmed(classID uint) bool {
	for _, id := range s.ConfirmedPasswords {
		if id == classID {
			return true
		}
	}
	return false
}

func (s *CartSession) ConfirmPassword(classID uint) {
	if !s.PasswordConfirmed(classID) {
		s.ConfirmedPasswords = append(s.ConfirmedPasswords, classID)
	}
}
