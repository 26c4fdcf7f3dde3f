package app

import (
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/heartthread-backend/internal/modules/chat"
	"github.com/yungbote/heartthread-backend/internal/modules/chat/steps"
	"github.com/yungbote/heartthread-backend/internal/platform/keylock"
	"github.com/yungbote/heartthread-backend/internal/platform/logger"
	"github.com/yungbote/heartthread-backend/internal/platform/redisx"
)

type Usecases struct {
	Chat chat.Usecases
}

func wireUsecases(db *gorm.DB, log *logger.Logger, cfg Config, clients Clients, reposet Repos) Usecases {
	log.Info("Wiring usecases...")

	// Without redis, serialization only holds within this process.
	var (
		locker keylock.Locker
		cache  redisx.HandleCache = redisx.NopHandleCache{}
	)
	if clients.Redis != nil {
		locker = redisx.NewLocker(clients.Redis, log, cfg.LockTTL(), cfg.LockWait())
		cache = redisx.NewHandleCache(clients.Redis, log, time.Duration(cfg.Redis.HandleTTLSeconds)*time.Second)
	} else {
		log.Warn("REDIS_ADDR unset; per-user locking is process-local")
		locker = keylock.NewLocal(cfg.LockWait())
	}

	var extractor steps.Extractor = steps.KeywordExtractor{}
	if cfg.Chat.MemoryExtraction == steps.ExtractionModel {
		extractor = steps.ModelExtractor{
			AI:         clients.OpenAI,
			Fallback:   steps.KeywordExtractor{},
			MaxRetries: cfg.Chat.ExtractMaxRetries,
			Log:        log.With("component", "ModelExtractor"),
		}
	}

	return Usecases{
		Chat: chat.New(chat.UsecasesDeps{
			DB:          db,
			Log:         log,
			AI:          clients.OpenAI,
			Handles:     reposet.ConversationHandle,
			Memory:      reposet.EmotionalMemory,
			Accounts:    reposet.UserAccount,
			HandleCache: cache,
			Locker:      locker,
			Extractor:   extractor,
			Entitlements: chat.EntitlementConfig{
				FreeAssistantID:    cfg.Chat.FreeAssistantID,
				PremiumAssistantID: cfg.Chat.PremiumAssistantID,
				PremiumUserIDs:     cfg.Chat.PremiumUserIDs,
				FreeCredits:        cfg.Chat.FreeCredits,
			},
			Poll:           cfg.PollPolicy(),
			RequestTimeout: cfg.RequestTimeout(),
		}),
	}
}
