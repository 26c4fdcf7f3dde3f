package domain

import (
	"github.com/yungbote/heartthread-backend/internal/domain/chat"
)

type ConversationHandle = chat.ConversationHandle
type EmotionalMemory = chat.EmotionalMemory
type UserAccount = chat.UserAccount
