package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/yungbote/heartthread-backend/internal/modules/chat/steps"
	"github.com/yungbote/heartthread-backend/internal/platform/apierr"
	"github.com/yungbote/heartthread-backend/internal/platform/keylock"
)

const (
	CodeInvalidRequest       = "invalid_request"
	CodeCreditsExhausted     = "credits_exhausted"
	CodeConversationBusy     = "conversation_busy"
	CodeAssistantFailed      = "assistant_failed"
	CodeAssistantUnavailable = "assistant_unavailable"
	CodeAssistantTimeout     = "assistant_timeout"
	CodeRequestCancelled     = "request_cancelled"
	CodeMemoryNotFound       = "memory_not_found"
	CodeConversationNotFound = "conversation_not_found"
	CodeInternal             = "internal_error"
)

var (
	ErrInvalidRequest       = errors.New("user_id and message are required")
	ErrCreditsExhausted     = errors.New("no credits left")
	ErrConversationBusy     = errors.New("another message for this user is still being answered")
	ErrAssistantUnavailable = errors.New("assistant service unavailable")
)

// statusClientClosedRequest is the de-facto status for a caller that went away.
const statusClientClosedRequest = 499

func invalid(err error) error {
	return apierr.New(http.StatusBadRequest, CodeInvalidRequest, err)
}

func internal(code string, err error) error {
	return apierr.New(http.StatusInternalServerError, code, err)
}

func lockError(err error) error {
	switch {
	case errors.Is(err, keylock.ErrTimeout):
		return apierr.New(http.StatusConflict, CodeConversationBusy, ErrConversationBusy)
	case errors.Is(err, context.Canceled):
		return apierr.New(statusClientClosedRequest, CodeRequestCancelled, err)
	default:
		return internal("lock_failed", err)
	}
}

// budgetExceeded reports a request that ran out of time as an assistant timeout,
// whatever step it was in.
func budgetExceeded(err error, budget time.Duration) error {
	if ae, ok := apierr.From(err); ok && ae.Code == CodeAssistantTimeout {
		return err
	}
	return apierr.New(http.StatusGatewayTimeout, CodeAssistantTimeout, fmt.Errorf("request exceeded %s: %w", budget, err))
}

// assistantError maps a failure of the assistant round trip to its HTTP surface.
func assistantError(err error) error {
	if _, ok := apierr.From(err); ok {
		return err
	}
	switch {
	case errors.Is(err, steps.ErrRunFailed):
		return apierr.New(http.StatusInternalServerError, CodeAssistantFailed, err)
	case errors.Is(err, steps.ErrRunTimeout):
		return apierr.New(http.StatusGatewayTimeout, CodeAssistantTimeout, err)
	case errors.Is(err, context.Canceled):
		return apierr.New(statusClientClosedRequest, CodeRequestCancelled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return apierr.New(http.StatusGatewayTimeout, CodeAssistantTimeout, err)
	default:
		return apierr.New(http.StatusBadGateway, CodeAssistantUnavailable, errors.Join(ErrAssistantUnavailable, err))
	}
}
