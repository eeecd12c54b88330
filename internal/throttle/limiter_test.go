package throttle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	assert.Equal(t, 5, limiter.defaultBurst)

	l2 := NewLimiter(10, -1)
	assert.Equal(t, 1, l2.defaultBurst, "non-positive burst falls back to 1")
}

func TestLimiter_Unlimited(t *testing.T) {
	limiter := Unlimited()
	for i := 0; i < 100; i++ {
		require.True(t, limiter.Allow("openai"))
	}
}

func TestLimiter_RateLimit(t *testing.T) {
	limiter := NewLimiter(1, 1)
	ctx := context.Background()

	require.NoError(t, limiter.Wait(ctx, "openai"))

	assert.False(t, limiter.Allow("openai"), "token consumed")
	assert.True(t, limiter.Allow("ollama"), "providers are limited independently")
}

func TestLimiter_SetProviderRate(t *testing.T) {
	limiter := NewLimiter(1000, 10)
	limiter.SetProviderRate("anthropic", 1, 1)

	assert.True(t, limiter.Allow("anthropic"))
	assert.False(t, limiter.Allow("anthropic"))
	assert.True(t, limiter.Allow("openai"))
}

func TestLimiter_WaitRespectsContext(t *testing.T) {
	limiter := NewLimiter(0.001, 1)
	require.True(t, limiter.Allow("openai"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.Error(t, limiter.Wait(ctx, "openai"))
}
