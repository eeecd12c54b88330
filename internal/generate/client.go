package generate

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ppiankov/vignette/internal/llm"
	"github.com/ppiankov/vignette/internal/model"
	"github.com/ppiankov/vignette/internal/throttle"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// RetryPolicy bounds the attempts of one Generate call
type RetryPolicy struct {
	MaxAttempts int           // total attempts, including the first
	Backoff     time.Duration // fixed wait between attempts
}

// DefaultRetryPolicy matches the configuration defaults
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Backoff: 5 * time.Second}
}

// Client turns a prompt into a validated payload
type Client struct {
	provider       llm.Provider
	limiter        *throttle.Limiter
	validate       *validator.Validate
	logger         *zap.Logger
	minExplanation int // characters; 0 disables the check
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithLimiter paces provider calls
func WithLimiter(l *throttle.Limiter) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.limiter = l
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMinExplanation rejects payloads whose explanation is shorter than n
// characters, matching the minimum the prompt asks for
func WithMinExplanation(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.minExplanation = n
		}
	}
}

// NewClient creates a generation client backed by provider
func NewClient(provider llm.Provider, opts ...ClientOption) *Client {
	c := &Client{
		provider: provider,
		limiter:  throttle.Unlimited(),
		validate: validator.New(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate calls the provider until a reply yields a valid payload or
// policy.MaxAttempts attempts have failed. Exhaustion returns an error
// wrapping ErrGenerationFailed and the last attempt's cause; nothing is
// written anywhere on either path.
func (c *Client) Generate(ctx context.Context, prompt string, policy RetryPolicy) (*model.GeneratedPayload, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}

	maxAttempts := policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	backoff := policy.Backoff
	if backoff <= 0 {
		// NewConstant rejects non-positive durations
		backoff = time.Nanosecond
	}

	var (
		payload  *model.GeneratedPayload
		attempts int
		lastErr  error
	)

	b := retry.WithMaxRetries(uint64(maxAttempts-1), retry.NewConstant(backoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempts++

		p, err := c.attempt(ctx, prompt)
		if err != nil {
			lastErr = err
			c.logger.Warn("generation attempt failed",
				zap.Int("attempt", attempts),
				zap.Int("max_attempts", maxAttempts),
				zap.Error(err))
			return retry.RetryableError(err)
		}

		payload = p
		return nil
	})
	if err != nil {
		cause := lastErr
		if cause == nil || ctx.Err() != nil {
			cause = err
		}
		return nil, fmt.Errorf("%w after %d attempts: %w", ErrGenerationFailed, attempts, cause)
	}

	return payload, nil
}

// attempt is one call + extract + parse + validate cycle
func (c *Client) attempt(ctx context.Context, prompt string) (*model.GeneratedPayload, error) {
	if err := c.limiter.Wait(ctx, c.provider.Name()); err != nil {
		return nil, err
	}

	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		System: GenerationSystem,
		Prompt: prompt,
		JSON:   true,
	})
	if err != nil {
		return nil, err
	}

	var wire payloadWire
	if err := decodeObject(resp.Text, &wire); err != nil {
		return nil, err
	}

	payload := wire.payload()
	payload.Normalize()

	if err := c.validate.Struct(payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if c.minExplanation > 0 {
		if err := c.validate.Var(payload.Explanation, "min="+strconv.Itoa(c.minExplanation)); err != nil {
			return nil, fmt.Errorf("%w: answer_explanation shorter than %d characters", ErrInvalidPayload, c.minExplanation)
		}
	}

	return &payload, nil
}

// payloadWire tolerates numeric fields sent as strings
type payloadWire struct {
	Question      string    `json:"question"`
	Anchor        string    `json:"anchor"`
	ChoiceA       string    `json:"answerchoice_a"`
	ChoiceB       string    `json:"answerchoice_b"`
	ChoiceC       string    `json:"answerchoice_c"`
	ChoiceD       string    `json:"answerchoice_d"`
	ChoiceE       string    `json:"answerchoice_e"`
	CorrectAnswer string    `json:"correct_answer"`
	Explanation   string    `json:"answer_explanation"`
	Age           flexFloat `json:"age"`
}

func (w payloadWire) payload() model.GeneratedPayload {
	return model.GeneratedPayload{
		Question:      strings.TrimSpace(w.Question),
		Anchor:        strings.TrimSpace(w.Anchor),
		ChoiceA:       strings.TrimSpace(w.ChoiceA),
		ChoiceB:       strings.TrimSpace(w.ChoiceB),
		ChoiceC:       strings.TrimSpace(w.ChoiceC),
		ChoiceD:       strings.TrimSpace(w.ChoiceD),
		ChoiceE:       strings.TrimSpace(w.ChoiceE),
		CorrectAnswer: w.CorrectAnswer,
		Explanation:   strings.TrimSpace(w.Explanation),
		Age:           w.Age.Value,
	}
}
