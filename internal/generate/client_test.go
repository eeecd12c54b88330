package generate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/vignette/internal/llm"
	"github.com/ppiankov/vignette/internal/llm/llmtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validReply = `Sure, here is your question:
{
  "question": "A 5-year-old girl is brought to the clinic with 6 days of fever...",
  "anchor": "What is the most likely diagnosis?",
  "answerchoice_a": "Measles",
  "answerchoice_b": "Kawasaki disease",
  "answerchoice_c": "Scarlet fever",
  "answerchoice_d": "Roseola",
  "answerchoice_e": "Fifth disease",
  "correct_answer": "B",
  "answer_explanation": "Fever for at least five days with mucocutaneous findings suggests Kawasaki disease.",
  "age": "5"
}`

var fastRetry = RetryPolicy{MaxAttempts: 3, Backoff: time.Millisecond}

func TestClient_Generate_Success(t *testing.T) {
	provider := llmtest.New(llmtest.Reply{Text: validReply})

	payload, err := NewClient(provider).Generate(context.Background(), "prompt", fastRetry)
	require.NoError(t, err)

	assert.Equal(t, "b", payload.CorrectAnswer, "correct answer is case-normalized")
	assert.Equal(t, "Kawasaki disease", payload.ChoiceB)
	assert.Equal(t, 5.0, payload.Age)
	assert.Equal(t, 1, provider.Calls())
	assert.Equal(t, GenerationSystem, provider.Requests()[0].System)
	assert.True(t, provider.Requests()[0].JSON)
}

func TestClient_Generate_RetryBound(t *testing.T) {
	boom := errors.New("connection reset")
	provider := llmtest.New().WithResponder(func(llm.CompletionRequest) (llmtest.Reply, bool) {
		return llmtest.Reply{Err: boom}, true
	})

	start := time.Now()
	_, err := NewClient(provider).Generate(context.Background(), "prompt", RetryPolicy{MaxAttempts: 3, Backoff: 10 * time.Millisecond})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, provider.Calls(), "exactly MaxAttempts attempts")
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond, "backoff between attempts")
}

func TestClient_Generate_RecoversAfterBadReplies(t *testing.T) {
	provider := llmtest.New(
		llmtest.Reply{Text: "I'm sorry, I can't do that."},
		llmtest.Reply{Text: validReply},
	)

	payload, err := NewClient(provider).Generate(context.Background(), "prompt", fastRetry)
	require.NoError(t, err)
	assert.Equal(t, "b", payload.CorrectAnswer)
	assert.Equal(t, 2, provider.Calls())
}

func TestClient_Generate_ValidationFailuresRetry(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		cause error
	}{
		{"bad letter", `{"question": "q", "answerchoice_a": "1", "answerchoice_b": "2", "answerchoice_c": "3", "answerchoice_d": "4", "answerchoice_e": "5", "correct_answer": "F", "answer_explanation": "x"}`, ErrInvalidPayload},
		{"missing choice", `{"question": "q", "answerchoice_a": "1", "answerchoice_b": "2", "answerchoice_c": "3", "answerchoice_d": "4", "correct_answer": "a", "answer_explanation": "x"}`, ErrInvalidPayload},
		{"malformed", `{"question": "q",`, ErrNoObject},
		{"trailing comma", `{"question": "q",}`, ErrMalformedPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := llmtest.New(llmtest.Reply{Text: tt.reply}, llmtest.Reply{Text: tt.reply})

			_, err := NewClient(provider).Generate(context.Background(), "prompt", RetryPolicy{MaxAttempts: 2, Backoff: time.Millisecond})
			require.ErrorIs(t, err, ErrGenerationFailed)
			assert.ErrorIs(t, err, tt.cause)
			assert.Equal(t, 2, provider.Calls())
		})
	}
}

func TestClient_Generate_SingleAttempt(t *testing.T) {
	provider := llmtest.New(llmtest.Reply{Err: errors.New("nope")}, llmtest.Reply{Text: validReply})

	_, err := NewClient(provider).Generate(context.Background(), "prompt", RetryPolicy{MaxAttempts: 0})
	require.ErrorIs(t, err, ErrGenerationFailed)
	assert.Equal(t, 1, provider.Calls(), "non-positive MaxAttempts means one attempt")
}

func TestClient_Generate_EmptyPrompt(t *testing.T) {
	provider := llmtest.New()
	_, err := NewClient(provider).Generate(context.Background(), "   ", fastRetry)
	assert.ErrorIs(t, err, ErrEmptyPrompt)
	assert.Equal(t, 0, provider.Calls())
}

func TestClient_Generate_ContextCancelled(t *testing.T) {
	provider := llmtest.New().WithResponder(func(llm.CompletionRequest) (llmtest.Reply, bool) {
		return llmtest.Reply{Err: errors.New("timeout")}, true
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := NewClient(provider).Generate(ctx, "prompt", RetryPolicy{MaxAttempts: 100, Backoff: 20 * time.Millisecond})
	require.ErrorIs(t, err, ErrGenerationFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, provider.Calls(), 100)
}

func TestClient_Generate_MinExplanation(t *testing.T) {
	long := strings.Replace(validReply,
		`"Fever for at least five days with mucocutaneous findings suggests Kawasaki disease."`,
		`"`+strings.Repeat("Fever for five days with mucocutaneous findings suggests Kawasaki disease. ", 4)+`"`, 1)
	provider := llmtest.New(
		llmtest.Reply{Text: validReply}, // explanation under 200 characters
		llmtest.Reply{Text: long},
	)

	payload, err := NewClient(provider, WithMinExplanation(200)).Generate(context.Background(), "prompt", fastRetry)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(payload.Explanation), 200)
	assert.Equal(t, 2, provider.Calls(), "short explanation is retried")
}

func TestClient_Generate_MinExplanationExhausts(t *testing.T) {
	provider := llmtest.New(
		llmtest.Reply{Text: validReply},
		llmtest.Reply{Text: validReply},
		llmtest.Reply{Text: validReply},
	)

	_, err := NewClient(provider, WithMinExplanation(200)).Generate(context.Background(), "prompt", fastRetry)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestNewRecordID(t *testing.T) {
	id := NewRecordID()
	assert.Len(t, id, 6)
	assert.Regexp(t, `^[0-9A-F]{6}$`, id)
	assert.NotEqual(t, id, NewRecordID())
}
