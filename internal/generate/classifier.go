package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/vignette/internal/cache"
	"github.com/ppiankov/vignette/internal/fingerprint"
	"github.com/ppiankov/vignette/internal/llm"
	"github.com/ppiankov/vignette/internal/model"
	"github.com/ppiankov/vignette/internal/throttle"
	"go.uber.org/zap"
)

const classifierSystem = "You classify pediatric board-review questions. Reply with a single JSON object and nothing else."

// Classifier maps a source question onto the subject/category taxonomy
type Classifier struct {
	provider llm.Provider
	limiter  *throttle.Limiter
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// ClassifierOption configures a Classifier
type ClassifierOption func(*Classifier)

// WithClassifierCache memoises classifications by content fingerprint
func WithClassifierCache(c cache.Cache, ttl time.Duration) ClassifierOption {
	return func(cl *Classifier) {
		if c != nil {
			cl.cache = c
			cl.cacheTTL = ttl
		}
	}
}

// WithClassifierLimiter paces provider calls
func WithClassifierLimiter(l *throttle.Limiter) ClassifierOption {
	return func(cl *Classifier) {
		if l != nil {
			cl.limiter = l
		}
	}
}

// WithClassifierLogger sets the logger
func WithClassifierLogger(l *zap.Logger) ClassifierOption {
	return func(cl *Classifier) {
		if l != nil {
			cl.logger = l
		}
	}
}

// NewClassifier creates a classifier backed by provider
func NewClassifier(provider llm.Provider, opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		provider: provider,
		limiter:  throttle.Unlimited(),
		cache:    cache.Nop{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type classifierReply struct {
	Topic    string  `json:"topic"`
	Subject  flexInt `json:"subject"`
	Category flexInt `json:"nbme_cat"`
	Anchor   string  `json:"anchor"`
}

// Classify asks the provider for the taxonomy placement of text. Missing
// or out-of-taxonomy fields fall back to the sentinel defaults; a failed
// call or an unparseable reply returns ErrClassificationFailed.
func (c *Classifier) Classify(ctx context.Context, text string) (model.Classification, error) {
	key := cache.Key("classify", fingerprint.Of(text))
	if data, ok := c.cache.Get(key); ok {
		var cached model.Classification
		if err := json.Unmarshal(data, &cached); err == nil {
			c.logger.Debug("classification cache hit", zap.String("key", key))
			return cached, nil
		}
	}

	if err := c.limiter.Wait(ctx, c.provider.Name()); err != nil {
		return model.Classification{}, fmt.Errorf("%w: %w", ErrClassificationFailed, err)
	}

	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		System: classifierSystem,
		Prompt: ClassificationPrompt(text),
		JSON:   true,
	})
	if err != nil {
		return model.Classification{}, fmt.Errorf("%w: %w", ErrClassificationFailed, err)
	}

	var reply classifierReply
	if err := decodeObject(resp.Text, &reply); err != nil {
		return model.Classification{}, fmt.Errorf("%w: %w", ErrClassificationFailed, err)
	}

	result := reply.classification()

	if data, err := json.Marshal(result); err == nil {
		if err := c.cache.Set(key, data, c.cacheTTL); err != nil {
			c.logger.Warn("classification cache write failed", zap.Error(err))
		}
	}

	return result, nil
}

func (r classifierReply) classification() model.Classification {
	out := model.DefaultClassification()
	out.Topic = strings.TrimSpace(r.Topic)

	if r.Subject.Set && model.ValidSubject(r.Subject.Value) {
		out.SubjectCode = r.Subject.Value
	}
	if r.Category.Set && model.ValidCategory(r.Category.Value) {
		out.CategoryCode = r.Category.Value
	}
	if anchor := strings.TrimSpace(r.Anchor); anchor != "" {
		out.Anchor = anchor
	}
	return out
}

// ClassificationPrompt builds the classification instruction for text
func ClassificationPrompt(text string) string {
	var b strings.Builder

	b.WriteString("Classify the following pediatric board-review question.\n\n")
	b.WriteString("Respond with exactly these fields as one JSON object:\n")
	b.WriteString(`{"topic": string, "subject": integer, "nbme_cat": integer, "anchor": string}` + "\n\n")
	b.WriteString("- topic: the specific condition or concept tested, in a few words\n")
	b.WriteString("- subject: one number from the subject map\n")
	b.WriteString("- nbme_cat: one number from the category map\n")
	b.WriteString(`- anchor: the question posed to the reader, e.g. "` + model.DefaultAnchor + `"` + "\n\n")

	b.WriteString("Subject map:\n")
	writeTaxonomy(&b, model.Subjects, model.SubjectPending)
	b.WriteString("\nCategory map:\n")
	writeTaxonomy(&b, model.Categories, -1)

	b.WriteString("\nQuestion:\n")
	b.WriteString(strings.TrimSpace(text))
	b.WriteString("\n")

	return b.String()
}

func writeTaxonomy(b *strings.Builder, m map[int]string, skip int) {
	codes := make([]int, 0, len(m))
	for code := range m {
		if code != skip {
			codes = append(codes, code)
		}
	}
	sort.Ints(codes)
	for _, code := range codes {
		fmt.Fprintf(b, "%d = %s\n", code, m[code])
	}
}
