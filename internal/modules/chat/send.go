package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	types "github.com/yungbote/heartthread-backend/internal/domain"
	"github.com/yungbote/heartthread-backend/internal/modules/chat/steps"
	"github.com/yungbote/heartthread-backend/internal/observability"
	"github.com/yungbote/heartthread-backend/internal/platform/apierr"
	"github.com/yungbote/heartthread-backend/internal/platform/dbctx"
	"github.com/yungbote/heartthread-backend/internal/platform/httpx"
)

const (
	refundTimeout   = 5 * time.Second
	maxMessageRunes = 8000
)

type SendInput struct {
	UserID      string
	Message     string
	Preferences Preferences
}

type SendOutput struct {
	Reply            string
	Premium          bool
	CreditsRemaining *int
	ThreadID         string
	NewConversation  bool
}

// Send answers one user message: it serializes on the user, charges a credit when
// required, reconciles the conversation handle and emotional memory, then runs the
// assistant to completion.
func (u Usecases) Send(ctx context.Context, in SendInput) (out SendOutput, err error) {
	in.UserID = strings.TrimSpace(in.UserID)
	if in.UserID == "" || strings.TrimSpace(in.Message) == "" {
		return out, invalid(ErrInvalidRequest)
	}
	if len([]rune(in.Message)) > maxMessageRunes {
		return out, invalid(fmt.Errorf("message longer than %d characters", maxMessageRunes))
	}
	if u.deps.AI == nil || u.deps.Handles == nil {
		return out, internal("chat_not_configured", fmt.Errorf("missing deps"))
	}
	prefs := in.Preferences.WithDefaults()

	ctx, span := observability.StartSpan(ctx, "chat.send")
	defer span.End()

	lockStart := time.Now()
	release, err := u.deps.Locker.Acquire(ctx, in.UserID)
	if err != nil {
		observability.Current().ObserveLockWait("rejected", time.Since(lockStart))
		span.SetStatus(codes.Error, "lock")
		return out, lockError(err)
	}
	defer release()
	observability.Current().ObserveLockWait("acquired", time.Since(lockStart))

	// The budget ends before the lock TTL, so a live request never outlasts its lock.
	caller := ctx
	ctx, cancel := context.WithTimeout(ctx, u.deps.RequestTimeout)
	defer cancel()
	defer func() {
		if err != nil && caller.Err() == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = budgetExceeded(err, u.deps.RequestTimeout)
		}
	}()

	ent, err := u.entitle(ctx, in.UserID)
	out.Premium = ent.Premium
	out.CreditsRemaining = ent.CreditsRemaining
	if err != nil {
		return out, err
	}
	span.SetAttributes(attribute.String("chat.tier", ent.Tier()))
	if strings.TrimSpace(ent.AssistantID) == "" {
		u.refund(ctx, in.UserID, &ent)
		return out, internal("assistant_not_configured", fmt.Errorf("no assistant id for tier %s", ent.Tier()))
	}

	succeeded := false
	defer func() {
		if !succeeded {
			u.refund(ctx, in.UserID, &ent)
		}
	}()

	threadID, memory, err := u.loadState(ctx, in.UserID)
	if err != nil {
		span.SetStatus(codes.Error, "load_state")
		return out, internal("load_state_failed", err)
	}

	newConversation := false
	if threadID == "" {
		threadID, newConversation, err = u.openConversation(ctx, in.UserID, ent.AssistantID)
		if err != nil {
			span.SetStatus(codes.Error, "open_conversation")
			return out, assistantError(err)
		}
	}

	facts := u.reconcileMemory(ctx, in.UserID, in.Message, memory)
	profile := steps.AnalyzeProfile(in.Message)
	instructions := steps.BuildInstructions(prefs, profile, facts)

	u.deps.Log.Info("Sending message",
		"user_id", in.UserID,
		"thread_id", threadID,
		"tier", ent.Tier(),
		"new_conversation", newConversation,
		"tone", profile.Tone,
	)

	respondDeps := steps.RespondDeps{Log: u.deps.Log, AI: u.deps.AI, Poll: u.deps.Poll}
	respondIn := steps.RespondInput{
		ThreadID:     threadID,
		AssistantID:  ent.AssistantID,
		Message:      in.Message,
		Instructions: instructions,
	}
	res, err := steps.Respond(ctx, respondDeps, respondIn)
	if err != nil && !newConversation && httpx.StatusCode(err) == http.StatusNotFound {
		// The stored thread no longer exists upstream; start over once.
		u.deps.Log.Warn("Stored conversation missing upstream, reopening", "user_id", in.UserID, "thread_id", threadID)
		if _, derr := u.forgetHandle(ctx, in.UserID); derr != nil {
			return out, internal("forget_conversation_failed", derr)
		}
		threadID, newConversation, err = u.openConversation(ctx, in.UserID, ent.AssistantID)
		if err != nil {
			return out, assistantError(err)
		}
		respondIn.ThreadID = threadID
		res, err = steps.Respond(ctx, respondDeps, respondIn)
	}
	observability.Current().ObserveRun(ent.Tier(), runOutcome(err), res.Poll.Elapsed, res.Poll.Polls)
	if err != nil {
		u.deps.Log.Warn("Assistant round trip failed",
			"user_id", in.UserID,
			"thread_id", threadID,
			"run_id", res.RunID,
			"polls", res.Poll.Polls,
			"error", err,
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, "respond")
		return out, assistantError(err)
	}
	succeeded = true

	u.touch(ctx, in.UserID, prefs)

	out.Reply = res.Reply
	out.ThreadID = threadID
	out.NewConversation = newConversation
	out.CreditsRemaining = ent.CreditsRemaining
	return out, nil
}

// loadState fetches the stored thread id and memory concurrently.
func (u Usecases) loadState(ctx context.Context, userID string) (string, *types.EmotionalMemory, error) {
	var (
		threadID string
		memory   *types.EmotionalMemory
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if cached, ok := u.deps.HandleCache.Get(gctx, userID); ok {
			threadID = cached
			return nil
		}
		h, err := u.deps.Handles.GetByUserID(dbctx.Context{Ctx: gctx}, userID)
		if err != nil {
			return fmt.Errorf("load conversation handle: %w", err)
		}
		if h != nil {
			threadID = h.ThreadID
			u.deps.HandleCache.Set(gctx, userID, h.ThreadID)
		}
		return nil
	})
	if u.deps.Memory != nil {
		g.Go(func() error {
			m, err := u.deps.Memory.GetByUserID(dbctx.Context{Ctx: gctx}, userID)
			if err != nil {
				return fmt.Errorf("load emotional memory: %w", err)
			}
			memory = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", nil, err
	}
	return threadID, memory, nil
}

// openConversation creates an upstream thread and records it. When another writer
// stored a handle first, theirs wins.
func (u Usecases) openConversation(ctx context.Context, userID, assistantID string) (string, bool, error) {
	threadID, err := u.deps.AI.CreateThread(ctx)
	if err != nil {
		return "", false, err
	}
	stored, created, err := u.deps.Handles.CreateIfAbsent(dbctx.Context{Ctx: ctx}, &types.ConversationHandle{
		UserID:      userID,
		ThreadID:    threadID,
		AssistantID: assistantID,
	})
	if err != nil {
		return "", false, internal("store_conversation_failed", err)
	}
	if !created && stored.ThreadID != threadID {
		u.deps.Log.Warn("Conversation created concurrently, discarding new thread",
			"user_id", userID,
			"thread_id", stored.ThreadID,
			"orphan_thread", threadID,
		)
	}
	u.deps.HandleCache.Set(ctx, userID, stored.ThreadID)
	return stored.ThreadID, created, nil
}

// reconcileMemory extracts facts from message and persists them when they change.
// Failures are logged and the stored facts are used as-is.
func (u Usecases) reconcileMemory(ctx context.Context, userID, message string, memory *types.EmotionalMemory) Facts {
	current := steps.FactsFromMemory(memory)
	mode := u.deps.Extractor.Name()

	observed, err := u.deps.Extractor.Extract(ctx, message, current)
	if err != nil {
		observability.Current().IncExtraction(mode, "error")
		u.deps.Log.Warn("Memory extraction failed", "user_id", userID, "mode", mode, "error", err)
		return current
	}
	merged, changed := steps.Merge(current, observed)
	if !changed {
		observability.Current().IncExtraction(mode, "unchanged")
		return merged
	}
	observability.Current().IncExtraction(mode, "updated")
	if u.deps.Memory == nil {
		return merged
	}
	row := &types.EmotionalMemory{UserID: userID}
	merged.ApplyTo(row)
	if err := u.deps.Memory.Upsert(dbctx.Context{Ctx: ctx}, row); err != nil {
		u.deps.Log.Warn("Memory upsert failed", "user_id", userID, "error", err)
	}
	return merged
}

func (u Usecases) touch(ctx context.Context, userID string, prefs Preferences) {
	raw, err := json.Marshal(prefs)
	if err != nil {
		raw = nil
	}
	if err := u.deps.Handles.Touch(dbctx.Context{Ctx: context.WithoutCancel(ctx)}, userID, time.Now(), datatypes.JSON(raw)); err != nil {
		u.deps.Log.Warn("Conversation touch failed", "user_id", userID, "error", err)
	}
}

func runOutcome(err error) string {
	if err == nil {
		return "completed"
	}
	if ae, ok := apierr.From(assistantError(err)); ok {
		return ae.Code
	}
	return "error"
}
