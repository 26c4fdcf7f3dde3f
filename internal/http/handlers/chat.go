package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/heartthread-backend/internal/domain"
	"github.com/yungbote/heartthread-backend/internal/http/middleware"
	"github.com/yungbote/heartthread-backend/internal/http/response"
	"github.com/yungbote/heartthread-backend/internal/modules/chat"
)

// ChatUsecases is the slice of the chat module the HTTP layer depends on.
type ChatUsecases interface {
	Send(ctx context.Context, in chat.SendInput) (chat.SendOutput, error)
	GetMemory(ctx context.Context, userID string) (*domain.EmotionalMemory, error)
	GetConversation(ctx context.Context, userID string) (*domain.ConversationHandle, error)
	ForgetConversation(ctx context.Context, userID string) error
	GetCredits(ctx context.Context, userID string) (chat.CreditsOutput, error)
}

var _ ChatUsecases = chat.Usecases{}

var errForbidden = errors.New("token does not grant access to this user")

type ChatHandler struct {
	chat ChatUsecases
}

func NewChatHandler(uc ChatUsecases) *ChatHandler {
	return &ChatHandler{chat: uc}
}

type sendMessageReq struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`

	Tonalite     string `json:"tonalite"`
	Intensite    string `json:"intensite"`
	Longueur     string `json:"longueur"`
	Personnalite string `json:"personnalite"`
	Humeur       string `json:"humeur"`
}

type sendMessageResp struct {
	Response         string `json:"response"`
	Premium          bool   `json:"premium"`
	CreditsRemaining *int   `json:"credits_remaining"`
}

// POST /chat, POST /api/chat
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, chat.CodeInvalidRequest, err)
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID != "" && !middleware.CallerAllowed(c, req.UserID) {
		response.RespondError(c, http.StatusForbidden, "forbidden", errForbidden)
		return
	}
	out, err := h.chat.Send(c.Request.Context(), chat.SendInput{
		UserID:  req.UserID,
		Message: req.Message,
		Preferences: chat.Preferences{
			Tonalite:     req.Tonalite,
			Intensite:    req.Intensite,
			Longueur:     req.Longueur,
			Personnalite: req.Personnalite,
			Humeur:       req.Humeur,
		},
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, sendMessageResp{
		Response:         out.Reply,
		Premium:          out.Premium,
		CreditsRemaining: out.CreditsRemaining,
	})
}
