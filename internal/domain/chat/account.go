package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserAccount tracks premium status and the remaining message credits of a user.
type UserAccount struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID string    `gorm:"column:user_id;not null;uniqueIndex" json:"user_id"`

	Premium bool `gorm:"column:premium;not null;default:false" json:"premium"`
	Credits int  `gorm:"column:credits;not null;default:0" json:"credits"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (UserAccount) TableName() string { return "user_account" }

func (a *UserAccount) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
