// Package llmtest provides an in-memory llm.Provider for tests.
package llmtest

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/ppiankov/vignette/internal/llm"
)

// ErrScriptExhausted is returned when no reply is left for a call
var ErrScriptExhausted = errors.New("llmtest: no scripted reply left")

// Reply is one scripted provider outcome
type Reply struct {
	Text string
	Err  error
}

// Responder decides the reply for a request; return ok=false to fall
// through to the queued replies.
type Responder func(req llm.CompletionRequest) (Reply, bool)

// Provider replays scripted replies in order and records every request
type Provider struct {
	mu        sync.Mutex
	name      string
	queue     []Reply
	responder Responder
	requests  []llm.CompletionRequest
}

// New creates a provider that returns replies in order
func New(replies ...Reply) *Provider {
	return &Provider{name: "scripted", queue: replies}
}

// WithResponder installs a request-dependent responder
func (p *Provider) WithResponder(r Responder) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responder = r
	return p
}

// Push appends replies to the queue
func (p *Provider) Push(replies ...Reply) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue = append(p.queue, replies...)
}

// Name returns the provider name
func (p *Provider) Name() string { return p.name }

// IsAvailable always reports true
func (p *Provider) IsAvailable(context.Context) bool { return true }

// Complete returns the next scripted reply
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.requests = append(p.requests, req)

	var reply Reply
	handled := false
	if p.responder != nil {
		reply, handled = p.responder(req)
	}
	if !handled {
		if len(p.queue) == 0 {
			return nil, ErrScriptExhausted
		}
		reply, p.queue = p.queue[0], p.queue[1:]
	}

	if reply.Err != nil {
		return nil, reply.Err
	}
	return &llm.CompletionResponse{Text: strings.TrimSpace(reply.Text), Model: "scripted"}, nil
}

// Calls returns the number of Complete calls so far
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

// Requests returns a copy of the recorded requests
func (p *Provider) Requests() []llm.CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]llm.CompletionRequest(nil), p.requests...)
}
