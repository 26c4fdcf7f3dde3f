package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/heartthread-backend/internal/data/repos/chat"
	"github.com/yungbote/heartthread-backend/internal/platform/logger"
)

type ConversationHandleRepo = chat.ConversationHandleRepo
type EmotionalMemoryRepo = chat.EmotionalMemoryRepo
type UserAccountRepo = chat.UserAccountRepo

func NewConversationHandleRepo(db *gorm.DB, baseLog *logger.Logger) ConversationHandleRepo {
	return chat.NewConversationHandleRepo(db, baseLog)
}

func NewEmotionalMemoryRepo(db *gorm.DB, baseLog *logger.Logger) EmotionalMemoryRepo {
	return chat.NewEmotionalMemoryRepo(db, baseLog)
}

func NewUserAccountRepo(db *gorm.DB, baseLog *logger.Logger) UserAccountRepo {
	return chat.NewUserAccountRepo(db, baseLog)
}
