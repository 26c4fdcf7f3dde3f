// Package openaitest provides a scripted in-memory assistant for tests.
package openaitest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yungbote/heartthread-backend/internal/platform/openai"
)

// Fake implements openai.Client. Each GetRun pops the next status from Statuses;
// the last one repeats.
type Fake struct {
	mu sync.Mutex

	Statuses []openai.RunStatus
	Reply    string
	JSON     map[string]any

	CreateThreadErr error
	AddMessageErr   error
	StartRunErr     error
	GetRunErr       error
	ReplyErr        error
	JSONErr         error
	// ThreadErrs fails AddUserMessage for specific thread ids.
	ThreadErrs map[string]error
	// AddMessageDelay stalls AddUserMessage until it elapses or ctx ends.
	AddMessageDelay time.Duration
	// OnGetRun runs before each status poll, outside the lock.
	OnGetRun func(call int)

	Threads      []string
	Messages     map[string][]string
	Runs         []StartedRun
	Cancelled    []string
	GetRunCalls  int
	JSONRequests int

	threadSeq int
	runSeq    int
}

type StartedRun struct {
	ThreadID     string
	RunID        string
	AssistantID  string
	Instructions string
}

var _ openai.Client = (*Fake)(nil)

func New(reply string, statuses ...openai.RunStatus) *Fake {
	if len(statuses) == 0 {
		statuses = []openai.RunStatus{openai.RunCompleted}
	}
	return &Fake{Reply: reply, Statuses: statuses, Messages: map[string][]string{}}
}

func (f *Fake) CreateThread(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateThreadErr != nil {
		return "", f.CreateThreadErr
	}
	f.threadSeq++
	id := fmt.Sprintf("thread_%d", f.threadSeq)
	f.Threads = append(f.Threads, id)
	return id, nil
}

func (f *Fake) AddUserMessage(ctx context.Context, threadID, content string) error {
	if d := f.AddMessageDelay; d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.AddMessageErr != nil {
		return f.AddMessageErr
	}
	if err := f.ThreadErrs[threadID]; err != nil {
		return err
	}
	if f.Messages == nil {
		f.Messages = map[string][]string{}
	}
	f.Messages[threadID] = append(f.Messages[threadID], content)
	return nil
}

func (f *Fake) StartRun(ctx context.Context, threadID, assistantID, instructions string) (openai.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.StartRunErr != nil {
		return openai.Run{}, f.StartRunErr
	}
	f.runSeq++
	id := fmt.Sprintf("run_%d", f.runSeq)
	f.Runs = append(f.Runs, StartedRun{ThreadID: threadID, RunID: id, AssistantID: assistantID, Instructions: instructions})
	return openai.Run{ID: id, ThreadID: threadID, Status: openai.RunQueued}, nil
}

func (f *Fake) GetRun(ctx context.Context, threadID, runID string) (openai.Run, error) {
	if err := ctx.Err(); err != nil {
		return openai.Run{}, err
	}
	if f.OnGetRun != nil {
		f.mu.Lock()
		call := f.GetRunCalls + 1
		f.mu.Unlock()
		f.OnGetRun(call)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GetRunCalls++
	if f.GetRunErr != nil {
		return openai.Run{}, f.GetRunErr
	}
	status := openai.RunCompleted
	if len(f.Statuses) > 0 {
		status = f.Statuses[0]
		if len(f.Statuses) > 1 {
			f.Statuses = f.Statuses[1:]
		}
	}
	run := openai.Run{ID: runID, ThreadID: threadID, Status: status}
	if status == openai.RunFailed {
		run.LastError = "server_error: scripted failure"
	}
	return run, nil
}

func (f *Fake) CancelRun(ctx context.Context, threadID, runID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Cancelled = append(f.Cancelled, runID)
	return nil
}

func (f *Fake) LatestAssistantMessage(ctx context.Context, threadID, runID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ReplyErr != nil {
		return "", f.ReplyErr
	}
	if f.Reply == "" {
		return "", errors.New("no assistant reply in thread")
	}
	return f.Reply, nil
}

func (f *Fake) GenerateJSON(ctx context.Context, system, user string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.JSONRequests++
	if f.JSONErr != nil {
		return nil, f.JSONErr
	}
	return f.JSON, nil
}

// CancelledRuns returns a copy of the cancelled run ids.
func (f *Fake) CancelledRuns() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Cancelled...)
}

func (f *Fake) StartedRuns() []StartedRun {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]StartedRun(nil), f.Runs...)
}
