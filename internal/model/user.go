package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Status is a user account's lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusBanned    Status = "banned"
)

type User struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Username           string     `gorm:"size:100;not null;uniqueIndex" json:"username"`
	Status             Status     `gorm:"size:20;not null" json:"status"`
	Email              []byte     `json:"-"` // encrypted at rest
	CreatedAt          time.Time  `json:"created_at"`
	PasswordHash       string     `gorm:"size:64;not null" json:"-"`
	ConfirmationToken  *string    `gorm:"size:64" json:"-"`
	ConfirmationSentAt *time.Time `json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
