package chat

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/heartthread-backend/internal/data/repos/testutil"
	types "github.com/yungbote/heartthread-backend/internal/domain"
	"github.com/yungbote/heartthread-backend/internal/platform/dbctx"
)

func TestConversationHandleRepo(t *testing.T) {
	db := testutil.DB(t)
	repo := NewConversationHandleRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}
	userID := "user_" + uuid.NewString()

	got, err := repo.GetByUserID(dbc, userID)
	if err != nil || got != nil {
		t.Fatalf("GetByUserID on empty: got=%v err=%v", got, err)
	}

	first, created, err := repo.CreateIfAbsent(dbc, &types.ConversationHandle{UserID: userID, ThreadID: "thread_a", AssistantID: "asst_1"})
	if err != nil || !created {
		t.Fatalf("CreateIfAbsent first: created=%v err=%v", created, err)
	}
	if first.ThreadID != "thread_a" {
		t.Fatalf("ThreadID=%q", first.ThreadID)
	}

	second, created, err := repo.CreateIfAbsent(dbc, &types.ConversationHandle{UserID: userID, ThreadID: "thread_b"})
	if err != nil {
		t.Fatalf("CreateIfAbsent second: %v", err)
	}
	if created {
		t.Fatalf("second insert should not create")
	}
	if second.ThreadID != "thread_a" {
		t.Fatalf("existing handle must win, got %q", second.ThreadID)
	}

	at := time.Now().UTC().Truncate(time.Second)
	prefs := datatypes.JSON([]byte(`{"tonalite":"douce"}`))
	if err := repo.Touch(dbc, userID, at, prefs); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	if err := repo.Touch(dbc, userID, at, nil); err != nil {
		t.Fatalf("Touch 2: %v", err)
	}
	got, err = repo.GetByUserID(dbc, userID)
	if err != nil || got == nil {
		t.Fatalf("GetByUserID: got=%v err=%v", got, err)
	}
	if got.MessageCount != 2 {
		t.Fatalf("MessageCount=%d", got.MessageCount)
	}
	if got.LastMessageAt == nil {
		t.Fatalf("LastMessageAt not set")
	}
	if string(got.LastPreferences) != `{"tonalite":"douce"}` {
		t.Fatalf("LastPreferences=%s", string(got.LastPreferences))
	}

	deleted, err := repo.DeleteByUserID(dbc, userID)
	if err != nil || !deleted {
		t.Fatalf("DeleteByUserID: deleted=%v err=%v", deleted, err)
	}
	deleted, err = repo.DeleteByUserID(dbc, userID)
	if err != nil || deleted {
		t.Fatalf("second DeleteByUserID: deleted=%v err=%v", deleted, err)
	}
}

func TestConversationHandleRepoValidation(t *testing.T) {
	db := testutil.DB(t)
	repo := NewConversationHandleRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	if _, _, err := repo.CreateIfAbsent(dbc, &types.ConversationHandle{UserID: " "}); err == nil {
		t.Fatalf("expected error for blank user")
	}
	if _, _, err := repo.CreateIfAbsent(dbc, &types.ConversationHandle{UserID: "u"}); err == nil {
		t.Fatalf("expected error for blank thread")
	}
	if _, err := repo.GetByUserID(dbc, ""); err == nil {
		t.Fatalf("expected error for blank user")
	}
}
