package db

import (
	types "github.com/yungbote/heartthread-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.ConversationHandle{},
		&types.EmotionalMemory{},
		&types.UserAccount{},
	)
}
