package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/heartthread-backend/internal/data/repos"
	"github.com/yungbote/heartthread-backend/internal/platform/logger"
)

type Repos struct {
	ConversationHandle repos.ConversationHandleRepo
	EmotionalMemory    repos.EmotionalMemoryRepo
	UserAccount        repos.UserAccountRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		ConversationHandle: repos.NewConversationHandleRepo(db, log),
		EmotionalMemory:    repos.NewEmotionalMemoryRepo(db, log),
		UserAccount:        repos.NewUserAccountRepo(db, log),
	}
}
