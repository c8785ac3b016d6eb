package agent

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	loggerpkg "github.com/lennoxconsulting/aiops-assistant/pkg/logger"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/time/rate"
)

// Completer performs one chat completion and returns the first choice.
type Completer interface {
	Complete(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletionMessage, error)
}

// OpenAISettings configures the OpenAI-backed Completer.
type OpenAISettings struct {
	Token   string
	BaseURL string
	Timeout time.Duration
	// MaxRetries bounds retries of transient failures (429, 5xx, network).
	MaxRetries int
	// RequestsPerMinute throttles calls; 0 disables throttling.
	RequestsPerMinute int
}

// OpenAICompleter calls the chat completions API with client-side rate
// limiting and bounded exponential retry.
type OpenAICompleter struct {
	client     openai.Client
	limiter    *rate.Limiter
	maxRetries int
	logger     loggerpkg.Logger
	newBackOff func() backoff.BackOff
}

// NewOpenAICompleter builds a client with configuration from settings.
func NewOpenAICompleter(settings OpenAISettings, logger loggerpkg.Logger) *OpenAICompleter {
	// Retries are handled here so they can be logged and bounded by max_retries.
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if baseURL := strings.TrimSpace(settings.BaseURL); baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if settings.Token != "" {
		opts = append(opts, option.WithAPIKey(settings.Token))
	}
	if settings.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(settings.Timeout))
	}

	var limiter *rate.Limiter
	if settings.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(settings.RequestsPerMinute)), 1)
	}

	maxRetries := settings.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &OpenAICompleter{
		client:     openai.NewClient(opts...),
		limiter:    limiter,
		maxRetries: maxRetries,
		logger:     loggerpkg.OrNop(logger),
		newBackOff: defaultBackOff,
	}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 2 * time.Minute
	return b
}

// Complete sends params and returns the first choice's message.
func (c *OpenAICompleter) Complete(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletionMessage, error) {
	var message openai.ChatCompletionMessage
	attempt := 0

	operation := func() error {
		attempt++
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}

		c.logger.Debug("sending chat completion", map[string]any{
			"model":    params.Model,
			"messages": len(params.Messages),
			"tools":    len(params.Tools),
			"attempt":  attempt,
		})
		completion, err := c.client.Chat.Completions.New(ctx, params)
		if err != nil {
			if isTransient(ctx, err) {
				return err
			}
			return backoff.Permanent(err)
		}
		if len(completion.Choices) == 0 {
			return backoff.Permanent(errors.New("empty completion choices"))
		}

		c.logger.Info("model token usage", map[string]any{
			"prompt":     completion.Usage.PromptTokens,
			"completion": completion.Usage.CompletionTokens,
			"total":      completion.Usage.TotalTokens,
		})
		message = completion.Choices[0].Message
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), uint64(c.maxRetries)), ctx)
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("model call failed, retrying", map[string]any{
			"attempt": attempt,
			"wait":    wait.String(),
			"error":   err.Error(),
		})
	}
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return openai.ChatCompletionMessage{}, err
	}
	return message, nil
}

// isTransient reports whether a failed call is worth retrying.
func isTransient(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusRequestTimeout, http.StatusConflict, http.StatusTooManyRequests:
			return true
		}
		return apiErr.StatusCode >= http.StatusInternalServerError
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
