package chat

import (
	"context"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/heartthread-backend/internal/observability"
	"github.com/yungbote/heartthread-backend/internal/platform/apierr"
	"github.com/yungbote/heartthread-backend/internal/platform/dbctx"
)

type EntitlementConfig struct {
	FreeAssistantID    string
	PremiumAssistantID string
	PremiumUserIDs     []string
	// FreeCredits > 0 turns on per-message credits for non-premium users.
	FreeCredits int
}

func (c EntitlementConfig) CreditsEnabled() bool { return c.FreeCredits > 0 }

func (c EntitlementConfig) listedPremium(userID string) bool {
	for _, id := range c.PremiumUserIDs {
		if strings.TrimSpace(id) == userID {
			return true
		}
	}
	return false
}

type Entitlement struct {
	Premium     bool
	AssistantID string
	// Charged is true when a credit was taken for this request.
	Charged          bool
	CreditsRemaining *int
}

func (e Entitlement) Tier() string {
	if e.Premium {
		return "premium"
	}
	return "free"
}

// entitle decides premium status and, for free users with credits enabled, takes one credit.
// Account creation and the charge commit together.
func (u Usecases) entitle(ctx context.Context, userID string) (Entitlement, error) {
	cfg := u.deps.Entitlements
	ent := Entitlement{Premium: cfg.listedPremium(userID)}
	exhausted := false

	if u.deps.Accounts != nil && !ent.Premium {
		err := u.inTx(ctx, func(dbc dbctx.Context) error {
			if !cfg.CreditsEnabled() {
				acct, err := u.deps.Accounts.GetByUserID(dbc, userID)
				if err != nil {
					return internal("load_account_failed", err)
				}
				ent.Premium = acct != nil && acct.Premium
				return nil
			}
			acct, err := u.deps.Accounts.EnsureExists(dbc, userID, cfg.FreeCredits)
			if err != nil {
				return internal("load_account_failed", err)
			}
			if ent.Premium = acct.Premium; ent.Premium {
				return nil
			}
			remaining, ok, err := u.deps.Accounts.ConsumeCredit(dbc, userID)
			if err != nil {
				return internal("consume_credit_failed", err)
			}
			if !ok {
				exhausted = true
				remaining = 0
			}
			ent.Charged = ok
			ent.CreditsRemaining = &remaining
			return nil
		})
		if err != nil {
			ent.Charged = false
			ent.CreditsRemaining = nil
			return ent, err
		}
	}

	ent.AssistantID = cfg.FreeAssistantID
	if ent.Premium && strings.TrimSpace(cfg.PremiumAssistantID) != "" {
		ent.AssistantID = cfg.PremiumAssistantID
	}

	switch {
	case exhausted:
		observability.Current().IncCreditEvent("exhausted")
		return ent, apierr.New(http.StatusPaymentRequired, CodeCreditsExhausted, ErrCreditsExhausted)
	case ent.Charged:
		observability.Current().IncCreditEvent("consumed")
	}
	return ent, nil
}

// inTx runs fn in a database transaction when the module has a DB handle.
func (u Usecases) inTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if u.deps.DB == nil {
		return fn(dbctx.Context{Ctx: ctx})
	}
	return u.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}

// refund returns a credit taken by entitle. It runs detached from the request context.
func (u Usecases) refund(ctx context.Context, userID string, ent *Entitlement) {
	if ent == nil || !ent.Charged || u.deps.Accounts == nil {
		return
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refundTimeout)
	defer cancel()
	if err := u.deps.Accounts.RefundCredit(dbctx.Context{Ctx: rctx}, userID); err != nil {
		u.deps.Log.Error("Credit refund failed", "user_id", userID, "error", err)
		return
	}
	observability.Current().IncCreditEvent("refunded")
	ent.Charged = false
	if ent.CreditsRemaining != nil {
		n := *ent.CreditsRemaining + 1
		ent.CreditsRemaining = &n
	}
}
