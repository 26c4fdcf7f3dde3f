package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/heartthread-backend/internal/platform/logger"
	"github.com/yungbote/heartthread-backend/internal/platform/openai"
)

type RespondDeps struct {
	Log  *logger.Logger
	AI   openai.Client
	Poll PollPolicy
}

type RespondInput struct {
	ThreadID     string
	AssistantID  string
	Message      string
	Instructions string
}

type RespondOutput struct {
	Reply string
	RunID string
	Poll  PollResult
}

// Respond posts the message on the thread, runs the assistant to completion and
// returns its reply.
func Respond(ctx context.Context, deps RespondDeps, in RespondInput) (RespondOutput, error) {
	var out RespondOutput
	if deps.AI == nil {
		return out, fmt.Errorf("respond: missing assistant client")
	}
	if strings.TrimSpace(in.ThreadID) == "" || strings.TrimSpace(in.AssistantID) == "" {
		return out, fmt.Errorf("respond: thread and assistant ids required")
	}

	if err := deps.AI.AddUserMessage(ctx, in.ThreadID, in.Message); err != nil {
		return out, err
	}
	run, err := deps.AI.StartRun(ctx, in.ThreadID, in.AssistantID, in.Instructions)
	if err != nil {
		return out, err
	}
	out.RunID = run.ID

	res, err := WaitForRun(ctx, deps.AI, deps.Log, in.ThreadID, run, deps.Poll)
	out.Poll = res
	if err != nil {
		return out, err
	}

	reply, err := deps.AI.LatestAssistantMessage(ctx, in.ThreadID, run.ID)
	if err != nil {
		return out, err
	}
	out.Reply = reply
	return out, nil
}
