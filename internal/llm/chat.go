package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/mycelian/mycelian-journal/internal/model"
)

// Config for an OpenAI-compatible chat completions endpoint.
type Config struct {
	BaseURL        string
	APIKey         string
	Model          string
	Timeout        time.Duration
	MaxRetries     int
	RatePerSec     float64
	InitialBackoff time.Duration
}

// ChatClient posts to {BaseURL}/chat/completions with bearer auth. Transport
// errors, 429 and 5xx responses are retried with exponential backoff.
type ChatClient struct {
	client  *resty.Client
	cfg     Config
	limiter *rate.Limiter
	log     zerolog.Logger
}

var _ Completer = (*ChatClient)(nil)

// NewChatClient applies defaults: model deepseek-chat, 20s timeout, 5 req/s.
func NewChatClient(cfg Config, log zerolog.Logger) *ChatClient {
	if cfg.Model == "" {
		cfg.Model = "deepseek-chat"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 5
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 250 * time.Millisecond
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	c := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(cfg.APIKey).
		SetTimeout(cfg.Timeout)

	return &ChatClient{
		client:  c,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1),
		log:     log,
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage map[string]any `json:"usage"`
}

// Complete returns the first choice's content.
func (c *ChatClient) Complete(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	out, err := c.complete(ctx, req)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		c.log.Warn().Err(err).Str("model", c.cfg.Model).Dur("elapsed", time.Since(start)).Msg("chat completion failed")
		err = fmt.Errorf("%w: %v", model.ErrBackendUnavailable, err)
	}
	requestDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	return out, err
}

func (c *ChatClient) complete(ctx context.Context, req Request) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	body := chatRequest{
		Model:       c.cfg.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.cfg.InitialBackoff
	exp.MaxInterval = 4 * c.cfg.InitialBackoff
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(c.cfg.MaxRetries)), ctx)

	var content string
	op := func() error {
		resp, err := c.client.R().SetContext(ctx).SetBody(&body).Post("/chat/completions")
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("chat request: %w", err)
		}
		status := resp.StatusCode()
		if status == http.StatusTooManyRequests || status >= 500 {
			return fmt.Errorf("chat status %d", status)
		}
		if status < 200 || status >= 300 {
			return backoff.Permanent(fmt.Errorf("chat status %d: %s", status, truncate(resp.String(), 200)))
		}

		var out chatResponse
		if err := json.Unmarshal(resp.Body(), &out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode chat response: %w", err))
		}
		if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
			return backoff.Permanent(errors.New("chat response has no content"))
		}
		content = out.Choices[0].Message.Content
		return nil
	}

	if err := backoff.Retry(op, policy); err != nil {
		return "", err
	}
	return content, nil
}

// HealthPing implements health.HealthPinger by listing models.
func (c *ChatClient) HealthPing(ctx context.Context) error {
	resp, err := c.client.R().SetContext(ctx).Get("/models")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("llm status %d", resp.StatusCode())
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
