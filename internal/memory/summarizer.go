package memory

import (
	"context"
	"strings"
	"time"

	"github.com/virajd/persona-memory/internal/ai"
)

// EmptyHistorySummary is returned for an empty history without touching the
// text-generation service.
const EmptyHistorySummary = "No chat history to summarize."

const summaryPromptPrefix = "Please summarize the following chat history:\n"

// Summarizer compresses an ordered message sequence into one text via a
// single, non-retried provider call.
type Summarizer struct {
	provider ai.Provider
	timeout  time.Duration
}

func NewSummarizer(provider ai.Provider, timeout time.Duration) *Summarizer {
	return &Summarizer{provider: provider, timeout: timeout}
}

// Summarize joins the history with newlines and returns the provider's
// response verbatim: no parsing, truncation or validation here.
func (s *Summarizer) Summarize(ctx context.Context, history []string) (string, error) {
	if len(history) == 0 {
		return EmptyHistorySummary, nil
	}

	prompt := summaryPromptPrefix + strings.Join(history, "\n")

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.provider.Generate(ctx, prompt)
}
