package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EmotionalMemory holds the relationship facts inferred for one user.
type EmotionalMemory struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID string    `gorm:"column:user_id;not null;uniqueIndex" json:"user_id"`

	LovedOneName       string `gorm:"column:loved_one_name;not null;default:''" json:"loved_one_name"`
	RelationshipStatus string `gorm:"column:relationship_status;not null;default:''" json:"relationship_status"`
	Intent             string `gorm:"column:intent;not null;default:''" json:"intent"`
	RelationalStyle    string `gorm:"column:relational_style;not null;default:''" json:"relational_style"`
	EmotionalState     string `gorm:"column:emotional_state;not null;default:''" json:"emotional_state"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (EmotionalMemory) TableName() string { return "emotional_memory" }

func (m *EmotionalMemory) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
