package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/Epistemic-Technology/schemacast/internal/logger"
)

const (
	DefaultModel   = "gpt-4o"
	DefaultTimeout = 2 * time.Minute
)

// Config holds everything needed to construct a Client. The credential is
// passed in explicitly; the client never reads the environment itself.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration

	// TokensPerSecond and BurstTokens size the client-side throttle.
	// A zero rate disables throttling.
	TokensPerSecond int
	BurstTokens     int
}

// Request is a single completion: one system instruction, one user message.
// Responses are always requested in JSON-object mode.
type Request struct {
	Stage       string
	System      string
	User        string
	Model       string // falls back to the client's model when empty
	Temperature float64
}

// Completer performs one round trip to a completion service and returns the
// raw text of the first choice.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Client is a Completer backed by the OpenAI Chat Completions API.
type Client struct {
	api      openai.Client
	model    string
	timeout  time.Duration
	throttle *Throttle
	log      logger.Logger
}

func NewClient(cfg Config, log logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("an API key is required to create a completion client")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	// Retries belong to the caller; a rate limited call must surface at once.
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		api:      openai.NewClient(opts...),
		model:    cfg.Model,
		timeout:  cfg.Timeout,
		throttle: NewThrottle(cfg.TokensPerSecond, cfg.BurstTokens),
		log:      log,
	}, nil
}

// Model reports the model used when a Request does not name one.
func (c *Client) Model() string { return c.model }

func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.throttle.Wait(ctx, EstimateTokens(req.System, req.User)); err != nil {
		return "", c.classify(err)
	}

	c.log.Debug("Calling %s for %s (%d system chars, %d user chars)", model, req.Stage, len(req.System), len(req.User))
	started := time.Now()
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
		Temperature: openai.Float(req.Temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		classified := c.classify(err)
		c.log.Warn("%s call failed after %s: %v", req.Stage, time.Since(started).Round(time.Millisecond), classified)
		return "", classified
	}

	if len(resp.Choices) == 0 {
		return "", &ServiceError{Err: errors.New("response contained no choices")}
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", &ServiceError{Err: errors.New("response content was empty")}
	}

	c.log.Debug("%s call returned %d chars in %s", req.Stage, len(content), time.Since(started).Round(time.Millisecond))
	return content, nil
}

func (c *Client) classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests {
			return &RateLimitError{Err: err}
		}
		return &ServiceError{StatusCode: apiErr.StatusCode, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Timeout: c.timeout, Err: err}
	}
	if isRateLimitError(err) {
		return &RateLimitError{Err: err}
	}
	return &ServiceError{Err: err}
}
