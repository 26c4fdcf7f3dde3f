package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/yungbote/heartthread-backend/internal/observability"
	"github.com/yungbote/heartthread-backend/internal/platform/httpx"
	"github.com/yungbote/heartthread-backend/internal/platform/logger"
)

type RunStatus string

const (
	RunQueued         RunStatus = "queued"
	RunInProgress     RunStatus = "in_progress"
	RunRequiresAction RunStatus = "requires_action"
	RunCancelling     RunStatus = "cancelling"
	RunCancelled      RunStatus = "cancelled"
	RunFailed         RunStatus = "failed"
	RunCompleted      RunStatus = "completed"
	RunIncomplete     RunStatus = "incomplete"
	RunExpired        RunStatus = "expired"
)

// Terminal reports whether no further status change is expected.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunCompleted, RunFailed, RunCancelled, RunExpired, RunIncomplete, RunRequiresAction:
		return true
	default:
		return false
	}
}

type Run struct {
	ID        string
	ThreadID  string
	Status    RunStatus
	LastError string
}

// Client is the slice of the hosted assistant API the service relies on.
type Client interface {
	CreateThread(ctx context.Context) (string, error)
	AddUserMessage(ctx context.Context, threadID, content string) error
	StartRun(ctx context.Context, threadID, assistantID, instructions string) (Run, error)
	GetRun(ctx context.Context, threadID, runID string) (Run, error)
	CancelRun(ctx context.Context, threadID, runID string) error
	// LatestAssistantMessage returns the text of the newest assistant message,
	// restricted to runID when it is non-empty.
	LatestAssistantMessage(ctx context.Context, threadID, runID string) (string, error)
	// GenerateJSON runs a chat completion in JSON-object mode and decodes the reply.
	GenerateJSON(ctx context.Context, system, user string) (map[string]any, error)
}

type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

type client struct {
	log        *logger.Logger
	api        *goopenai.Client
	model      string
	maxRetries int
	backoff    time.Duration
}

func NewClient(cfg Config, log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	apiCfg := goopenai.DefaultConfig(apiKey)
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		apiCfg.BaseURL = base
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	apiCfg.HTTPClient = &http.Client{Timeout: timeout}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = goopenai.GPT4oMini
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &client{
		log:        log.With("service", "AssistantClient"),
		api:        goopenai.NewClientWithConfig(apiCfg),
		model:      model,
		maxRetries: maxRetries,
		backoff:    500 * time.Millisecond,
	}, nil
}

// StatusError carries the upstream HTTP status of a failed API call.
type StatusError struct {
	Code int
	Err  error
}

func (e *StatusError) Error() string {
	if e.Err == nil {
		return "openai http " + strconv.Itoa(e.Code)
	}
	return e.Err.Error()
}

func (e *StatusError) Unwrap() error { return e.Err }

func (e *StatusError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.Code
}

func wrapAPIError(err error) error {
	if err == nil {
		return nil
	}
	if httpx.StatusCode(err) != 0 {
		return err
	}
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &StatusError{Code: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &StatusError{Code: reqErr.HTTPStatusCode, Err: err}
	}
	return err
}

// retryable decides whether a failed call may be sent again. Calls that create
// state upstream are only resent when the API refused them outright.
func retryable(err error, idempotent bool) bool {
	if idempotent {
		return httpx.IsRetryableError(err)
	}
	return httpx.IsThrottleStatus(httpx.StatusCode(err))
}

func (c *client) call(ctx context.Context, op string, idempotent bool, fn func(ctx context.Context) error) error {
	backoff := c.backoff
	start := time.Now()

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := wrapAPIError(fn(ctx))
		if err == nil {
			observability.Current().ObserveAssistantCall(op, "200", time.Since(start))
			return nil
		}
		status := strconv.Itoa(httpx.StatusCode(err))
		if attempt >= c.maxRetries || !retryable(err, idempotent) {
			observability.Current().ObserveAssistantCall(op, status, time.Since(start))
			return fmt.Errorf("openai %s: %w", op, err)
		}

		sleepFor := httpx.JitterSleep(min(backoff, 10*time.Second))
		c.log.Warn("Assistant request retrying",
			"op", op,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		if err := httpx.Sleep(ctx, sleepFor); err != nil {
			return err
		}
		backoff *= 2
	}
}

func (c *client) CreateThread(ctx context.Context) (string, error) {
	var id string
	err := c.call(ctx, "create_thread", false, func(ctx context.Context) error {
		th, err := c.api.CreateThread(ctx, goopenai.ThreadRequest{})
		if err != nil {
			return err
		}
		id = th.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(id) == "" {
		return "", errors.New("openai create_thread: missing thread id")
	}
	return id, nil
}

func (c *client) AddUserMessage(ctx context.Context, threadID, content string) error {
	if strings.TrimSpace(threadID) == "" {
		return errors.New("thread id required")
	}
	return c.call(ctx, "create_message", false, func(ctx context.Context) error {
		_, err := c.api.CreateMessage(ctx, threadID, goopenai.MessageRequest{
			Role:    "user",
			Content: content,
		})
		return err
	})
}

func (c *client) StartRun(ctx context.Context, threadID, assistantID, instructions string) (Run, error) {
	if strings.TrimSpace(assistantID) == "" {
		return Run{}, errors.New("assistant id required")
	}
	var out Run
	err := c.call(ctx, "create_run", false, func(ctx context.Context) error {
		r, err := c.api.CreateRun(ctx, threadID, goopenai.RunRequest{
			AssistantID:  assistantID,
			Instructions: instructions,
		})
		if err != nil {
			return err
		}
		out = fromAPIRun(r)
		return nil
	})
	if err != nil {
		return Run{}, err
	}
	if out.ID == "" {
		return Run{}, errors.New("openai create_run: missing run id")
	}
	return out, nil
}

func (c *client) GetRun(ctx context.Context, threadID, runID string) (Run, error) {
	var out Run
	err := c.call(ctx, "retrieve_run", true, func(ctx context.Context) error {
		r, err := c.api.RetrieveRun(ctx, threadID, runID)
		if err != nil {
			return err
		}
		out = fromAPIRun(r)
		return nil
	})
	return out, err
}

func (c *client) CancelRun(ctx context.Context, threadID, runID string) error {
	return c.call(ctx, "cancel_run", true, func(ctx context.Context) error {
		_, err := c.api.CancelRun(ctx, threadID, runID)
		return err
	})
}

func (c *client) LatestAssistantMessage(ctx context.Context, threadID, runID string) (string, error) {
	limit := 20
	order := "desc"
	var runFilter *string
	if runID != "" {
		runFilter = &runID
	}

	var text string
	err := c.call(ctx, "list_messages", true, func(ctx context.Context) error {
		list, err := c.api.ListMessage(ctx, threadID, &limit, &order, nil, nil, runFilter)
		if err != nil {
			return err
		}
		text = latestAssistantText(list.Messages)
		return nil
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("no assistant reply in thread")
	}
	return text, nil
}

// latestAssistantText expects messages newest first.
func latestAssistantText(msgs []goopenai.Message) string {
	for _, m := range msgs {
		if m.Role != "assistant" {
			continue
		}
		var parts []string
		for _, part := range m.Content {
			if part.Text == nil {
				continue
			}
			if v := strings.TrimSpace(part.Text.Value); v != "" {
				parts = append(parts, v)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, "\n\n")
		}
	}
	return ""
}

func (c *client) GenerateJSON(ctx context.Context, system, user string) (map[string]any, error) {
	var content string
	err := c.call(ctx, "chat_completion", true, func(ctx context.Context) error {
		resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
			Model: c.model,
			Messages: []goopenai.ChatCompletionMessage{
				{Role: goopenai.ChatMessageRoleSystem, Content: system},
				{Role: goopenai.ChatMessageRoleUser, Content: user},
			},
			ResponseFormat: &goopenai.ChatCompletionResponseFormat{
				Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Temperature: 0.1,
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return errors.New("no choices in completion")
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.New("empty completion content")
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(content), &obj); err != nil {
		return nil, fmt.Errorf("failed to parse model JSON: %w", err)
	}
	return obj, nil
}

func fromAPIRun(r goopenai.Run) Run {
	out := Run{
		ID:       r.ID,
		ThreadID: r.ThreadID,
		Status:   RunStatus(strings.ToLower(strings.TrimSpace(string(r.Status)))),
	}
	if r.LastError != nil {
		code := strings.TrimSpace(string(r.LastError.Code))
		msg := strings.TrimSpace(r.LastError.Message)
		switch {
		case code != "" && msg != "":
			out.LastError = code + ": " + msg
		case code != "":
			out.LastError = code
		default:
			out.LastError = msg
		}
	}
	return out
}
