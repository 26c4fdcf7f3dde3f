package steps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yungbote/heartthread-backend/internal/platform/httpx"
	"github.com/yungbote/heartthread-backend/internal/platform/logger"
	"github.com/yungbote/heartthread-backend/internal/platform/openai"
)

var (
	ErrRunFailed  = errors.New("assistant run failed")
	ErrRunTimeout = errors.New("assistant run timed out")
)

// RunError describes a run that ended in a non-success terminal status.
type RunError struct {
	Status openai.RunStatus
	Reason string
}

func (e *RunError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("assistant run %s: %s", e.Status, e.Reason)
	}
	return fmt.Sprintf("assistant run %s", e.Status)
}

func (e *RunError) Unwrap() error { return ErrRunFailed }

type PollPolicy struct {
	Initial  time.Duration
	Max      time.Duration
	Factor   float64
	Deadline time.Duration
}

func DefaultPollPolicy() PollPolicy {
	return PollPolicy{
		Initial:  500 * time.Millisecond,
		Max:      3 * time.Second,
		Factor:   1.5,
		Deadline: 30 * time.Second,
	}
}

func (p PollPolicy) normalized() PollPolicy {
	def := DefaultPollPolicy()
	if p.Initial <= 0 {
		p.Initial = def.Initial
	}
	if p.Max <= 0 {
		p.Max = def.Max
	}
	if p.Max < p.Initial {
		p.Max = p.Initial
	}
	if p.Factor < 1 {
		p.Factor = def.Factor
	}
	if p.Deadline <= 0 {
		p.Deadline = def.Deadline
	}
	return p
}

type RunPoller interface {
	GetRun(ctx context.Context, threadID, runID string) (openai.Run, error)
	CancelRun(ctx context.Context, threadID, runID string) error
}

type PollResult struct {
	Run     openai.Run
	Polls   int
	Elapsed time.Duration
}

// WaitForRun polls run until it reaches a terminal status, backing off between polls.
// Past the policy deadline the run is cancelled upstream and ErrRunTimeout returned;
// when the caller cancels, the run is cancelled and the context error returned.
func WaitForRun(ctx context.Context, ai RunPoller, log *logger.Logger, threadID string, run openai.Run, policy PollPolicy) (PollResult, error) {
	p := policy.normalized()
	start := time.Now()
	pctx, cancel := context.WithTimeout(ctx, p.Deadline)
	defer cancel()

	res := PollResult{Run: run}
	interval := p.Initial
poll:
	for {
		switch {
		case res.Run.Status == openai.RunCompleted:
			res.Elapsed = time.Since(start)
			return res, nil
		case res.Run.Status.Terminal():
			res.Elapsed = time.Since(start)
			return res, &RunError{Status: res.Run.Status, Reason: res.Run.LastError}
		}

		if err := httpx.Sleep(pctx, interval); err != nil {
			break poll
		}
		next, err := ai.GetRun(pctx, threadID, run.ID)
		res.Polls++
		if err != nil {
			if pctx.Err() != nil {
				break poll
			}
			res.Elapsed = time.Since(start)
			return res, err
		}
		res.Run = next
		if log != nil {
			log.Debug("Run polled", "run_id", run.ID, "status", string(next.Status), "poll", res.Polls)
		}

		interval = time.Duration(float64(interval) * p.Factor)
		if interval > p.Max {
			interval = p.Max
		}
	}

	res.Elapsed = time.Since(start)
	cancelRun(ctx, ai, log, threadID, run.ID)
	if errors.Is(ctx.Err(), context.Canceled) {
		return res, ctx.Err()
	}
	return res, ErrRunTimeout
}

func cancelRun(ctx context.Context, ai RunPoller, log *logger.Logger, threadID, runID string) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := ai.CancelRun(cctx, threadID, runID); err != nil && log != nil {
		log.Warn("Failed to cancel abandoned run", "run_id", runID, "thread_id", threadID, "error", err)
	}
}
