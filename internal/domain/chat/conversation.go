package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ConversationHandle maps a user to the hosted assistant thread holding their exchange.
type ConversationHandle struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID string    `gorm:"column:user_id;not null;uniqueIndex" json:"user_id"`

	ThreadID    string `gorm:"column:thread_id;not null" json:"thread_id"`
	AssistantID string `gorm:"column:assistant_id" json:"assistant_id"`

	MessageCount  int64      `gorm:"column:message_count;not null;default:0" json:"message_count"`
	LastMessageAt *time.Time `gorm:"column:last_message_at" json:"last_message_at,omitempty"`

	// Preferences sent with the latest message.
	LastPreferences datatypes.JSON `gorm:"column:last_preferences" json:"last_preferences,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (ConversationHandle) TableName() string { return "conversation_handle" }

func (h *ConversationHandle) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
