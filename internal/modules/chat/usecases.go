package chat

import (
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/heartthread-backend/internal/data/repos"
	"github.com/yungbote/heartthread-backend/internal/modules/chat/steps"
	"github.com/yungbote/heartthread-backend/internal/platform/keylock"
	"github.com/yungbote/heartthread-backend/internal/platform/logger"
	"github.com/yungbote/heartthread-backend/internal/platform/openai"
	"github.com/yungbote/heartthread-backend/internal/platform/redisx"
)

const defaultRequestTimeout = 60 * time.Second

type UsecasesDeps struct {
	DB  *gorm.DB
	Log *logger.Logger

	AI openai.Client

	Handles  repos.ConversationHandleRepo
	Memory   repos.EmotionalMemoryRepo
	Accounts repos.UserAccountRepo

	// Optional: defaults to a miss-only cache.
	HandleCache redisx.HandleCache

	// Optional: defaults to an in-process keyed lock.
	Locker keylock.Locker

	// Optional: defaults to keyword extraction.
	Extractor steps.Extractor

	Entitlements EntitlementConfig
	Poll         steps.PollPolicy

	// RequestTimeout bounds Send once the user lock is held. Keep it below the lock TTL.
	RequestTimeout time.Duration
}

type Usecases struct {
	deps UsecasesDeps
}

func New(deps UsecasesDeps) Usecases {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	deps.Log = deps.Log.With("module", "chat")
	if deps.HandleCache == nil {
		deps.HandleCache = redisx.NopHandleCache{}
	}
	if deps.Locker == nil {
		deps.Locker = keylock.NewLocal(10 * time.Second)
	}
	if deps.RequestTimeout <= 0 {
		deps.RequestTimeout = defaultRequestTimeout
	}
	if deps.Extractor == nil {
		deps.Extractor = steps.KeywordExtractor{}
	}
	return Usecases{deps: deps}
}

type (
	Preferences = steps.Preferences
	Facts       = steps.Facts
	Profile     = steps.Profile
)
