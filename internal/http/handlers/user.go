package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/heartthread-backend/internal/http/middleware"
	"github.com/yungbote/heartthread-backend/internal/http/response"
)

type UserHandler struct {
	chat ChatUsecases
}

func NewUserHandler(uc ChatUsecases) *UserHandler {
	return &UserHandler{chat: uc}
}

func (uh *UserHandler) userID(c *gin.Context) (string, bool) {
	userID := strings.TrimSpace(c.Param("user_id"))
	if !middleware.CallerAllowed(c, userID) {
		response.RespondError(c, http.StatusForbidden, "forbidden", errForbidden)
		return "", false
	}
	return userID, true
}

// GET /api/users/:user_id/memory
func (uh *UserHandler) GetMemory(c *gin.Context) {
	userID, ok := uh.userID(c)
	if !ok {
		return
	}
	m, err := uh.chat.GetMemory(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"memory": m})
}

// GET /api/users/:user_id/conversation
func (uh *UserHandler) GetConversation(c *gin.Context) {
	userID, ok := uh.userID(c)
	if !ok {
		return
	}
	conv, err := uh.chat.GetConversation(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"conversation": conv})
}

// DELETE /api/users/:user_id/conversation
func (uh *UserHandler) ForgetConversation(c *gin.Context) {
	userID, ok := uh.userID(c)
	if !ok {
		return
	}
	if err := uh.chat.ForgetConversation(c.Request.Context(), userID); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/users/:user_id/credits
func (uh *UserHandler) GetCredits(c *gin.Context) {
	userID, ok := uh.userID(c)
	if !ok {
		return
	}
	out, err := uh.chat.GetCredits(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, out)
}
