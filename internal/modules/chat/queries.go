package chat

import (
	"context"
	"errors"
	"net/http"
	"strings"

	types "github.com/yungbote/heartthread-backend/internal/domain"
	"github.com/yungbote/heartthread-backend/internal/platform/apierr"
	"github.com/yungbote/heartthread-backend/internal/platform/dbctx"
)

func (u Usecases) GetMemory(ctx context.Context, userID string) (*types.EmotionalMemory, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, invalid(errors.New("missing user_id"))
	}
	if u.deps.Memory == nil {
		return nil, internal("memory_repo_missing", errors.New("missing deps"))
	}
	m, err := u.deps.Memory.GetByUserID(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, internal("load_memory_failed", err)
	}
	if m == nil {
		return nil, apierr.New(http.StatusNotFound, CodeMemoryNotFound, nil)
	}
	return m, nil
}

func (u Usecases) GetConversation(ctx context.Context, userID string) (*types.ConversationHandle, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, invalid(errors.New("missing user_id"))
	}
	h, err := u.deps.Handles.GetByUserID(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, internal("load_conversation_failed", err)
	}
	if h == nil {
		return nil, apierr.New(http.StatusNotFound, CodeConversationNotFound, nil)
	}
	return h, nil
}

// ForgetConversation drops the stored handle so the next message opens a fresh
// conversation. Emotional memory is kept.
func (u Usecases) ForgetConversation(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return invalid(errors.New("missing user_id"))
	}
	release, err := u.deps.Locker.Acquire(ctx, userID)
	if err != nil {
		return lockError(err)
	}
	defer release()

	deleted, err := u.forgetHandle(ctx, userID)
	if err != nil {
		return internal("forget_conversation_failed", err)
	}
	if !deleted {
		return apierr.New(http.StatusNotFound, CodeConversationNotFound, nil)
	}
	u.deps.Log.Info("Conversation forgotten", "user_id", userID)
	return nil
}

func (u Usecases) forgetHandle(ctx context.Context, userID string) (bool, error) {
	deleted, err := u.deps.Handles.DeleteByUserID(dbctx.Context{Ctx: ctx}, userID)
	u.deps.HandleCache.Delete(ctx, userID)
	return deleted, err
}

type CreditsOutput struct {
	UserID         string `json:"user_id"`
	Premium        bool   `json:"premium"`
	CreditsEnabled bool   `json:"credits_enabled"`
	Credits        *int   `json:"credits"`
}

// GetCredits reports the balance without charging. Unknown free users see the
// allowance they would start with.
func (u Usecases) GetCredits(ctx context.Context, userID string) (CreditsOutput, error) {
	userID = strings.TrimSpace(userID)
	cfg := u.deps.Entitlements
	out := CreditsOutput{UserID: userID, CreditsEnabled: cfg.CreditsEnabled()}
	if userID == "" {
		return out, invalid(errors.New("missing user_id"))
	}
	out.Premium = cfg.listedPremium(userID)

	if u.deps.Accounts != nil {
		acct, err := u.deps.Accounts.GetByUserID(dbctx.Context{Ctx: ctx}, userID)
		if err != nil {
			return out, internal("load_account_failed", err)
		}
		if acct != nil {
			out.Premium = out.Premium || acct.Premium
			if out.CreditsEnabled {
				n := acct.Credits
				out.Credits = &n
			}
		} else if out.CreditsEnabled {
			n := cfg.FreeCredits
			out.Credits = &n
		}
	}
	if out.Premium {
		out.Credits = nil
	}
	return out, nil
}
