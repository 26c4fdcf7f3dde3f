package chat

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/heartthread-backend/internal/data/repos/testutil"
	types "github.com/yungbote/heartthread-backend/internal/domain"
	"github.com/yungbote/heartthread-backend/internal/platform/dbctx"
)

func TestUserAccountRepoCredits(t *testing.T) {
	db := testutil.DB(t)
	repo := NewUserAccountRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}
	userID := "user_" + uuid.NewString()

	acct, err := repo.EnsureExists(dbc, userID, 2)
	if err != nil {
		t.Fatalf("EnsureExists: %v", err)
	}
	if acct.Credits != 2 || acct.Premium {
		t.Fatalf("unexpected account: %+v", acct)
	}
	acct, err = repo.EnsureExists(dbc, userID, 10)
	if err != nil || acct.Credits != 2 {
		t.Fatalf("EnsureExists must not reset credits: acct=%+v err=%v", acct, err)
	}

	remaining, ok, err := repo.ConsumeCredit(dbc, userID)
	if err != nil || !ok || remaining != 1 {
		t.Fatalf("ConsumeCredit 1: remaining=%d ok=%v err=%v", remaining, ok, err)
	}
	remaining, ok, err = repo.ConsumeCredit(dbc, userID)
	if err != nil || !ok || remaining != 0 {
		t.Fatalf("ConsumeCredit 2: remaining=%d ok=%v err=%v", remaining, ok, err)
	}
	if _, ok, err = repo.ConsumeCredit(dbc, userID); err != nil || ok {
		t.Fatalf("ConsumeCredit on empty: ok=%v err=%v", ok, err)
	}

	if err := repo.RefundCredit(dbc, userID); err != nil {
		t.Fatalf("RefundCredit: %v", err)
	}
	acct, err = repo.GetByUserID(dbc, userID)
	if err != nil || acct == nil || acct.Credits != 1 {
		t.Fatalf("after refund: acct=%+v err=%v", acct, err)
	}
}

func TestUserAccountRepoReadsPremiumFlag(t *testing.T) {
	db := testutil.DB(t)
	repo := NewUserAccountRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}
	userID := "user_" + uuid.NewString()

	if _, err := repo.EnsureExists(dbc, userID, 0); err != nil {
		t.Fatalf("EnsureExists: %v", err)
	}
	// The flag is owned by billing, which writes the row directly.
	if err := db.Model(&types.UserAccount{}).Where("user_id = ?", userID).Update("premium", true).Error; err != nil {
		t.Fatalf("update premium: %v", err)
	}
	acct, err := repo.GetByUserID(dbc, userID)
	if err != nil || acct == nil || !acct.Premium {
		t.Fatalf("premium not read: acct=%+v err=%v", acct, err)
	}
}
