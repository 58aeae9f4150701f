package memory

import (
	"context"
	"sync"

	"github.com/virajd/persona-memory/internal/logging"
)

// Outcome is the terminal result of handling one message.
type Outcome string

const (
	OutcomeProcessed   Outcome = "processed"
	OutcomeRateLimited Outcome = "rate_limited"
)

// SummaryCache mirrors the latest summary for downstream retrieval. The
// users table stays authoritative; cache failures are best-effort.
type SummaryCache interface {
	SetSummary(ctx context.Context, userID, summary string) error
}

// Workflow orchestrates admission, persistence, counter updates and the
// threshold-triggered summarize-then-rotate cycle. All steps for one user
// run under that user's mutex, so a message can never slip in between the
// history read and the log clear; distinct users proceed in parallel.
type Workflow struct {
	users      *UserStore
	log        *MessageLog
	limiter    *RateLimiter
	summarizer *Summarizer
	cache      SummaryCache // may be nil
	chatLimit  int64

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewWorkflow(users *UserStore, log *MessageLog, limiter *RateLimiter, summarizer *Summarizer, cache SummaryCache, chatLimit int64) *Workflow {
	if chatLimit <= 0 {
		chatLimit = 10
	}
	return &Workflow{
		users:      users,
		log:        log,
		limiter:    limiter,
		summarizer: summarizer,
		cache:      cache,
		chatLimit:  chatLimit,
		locks:      make(map[string]*sync.Mutex),
	}
}

func (w *Workflow) userLock(userID string) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()
	l, ok := w.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		w.locks[userID] = l
	}
	return l
}

// HandleMessage processes one incoming chat message. A failure after the
// message has been appended never rolls the append back; it is reported and
// the message still counts as processed.
func (w *Workflow) HandleMessage(ctx context.Context, userID, content string, threshold int) (Outcome, error) {
	if threshold <= 0 {
		threshold = 3
	}

	lock := w.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	// 1) idempotent bootstrap
	if err := w.users.EnsureUser(ctx, userID); err != nil {
		return "", err
	}

	// 2) admission check; storage errors are permissive
	over, err := w.limiter.IsOverLimit(ctx, userID, w.chatLimit)
	if err != nil {
		logging.Warnw("rate limit check failed, admitting", "user_id", userID, "error", err)
	}
	if over {
		logging.Infow("rate limit exceeded, message not processed", "user_id", userID)
		return OutcomeRateLimited, nil
	}

	// 3) persist the message, then update counters
	if _, err := w.log.Append(ctx, userID, content); err != nil {
		logging.Errorw("store chat message failed", "user_id", userID, "error", err)
	}
	if err := w.users.RecordChatTurn(ctx, userID); err != nil {
		logging.Errorw("update chat info failed", "user_id", userID, "error", err)
	}

	// 4) full history since the last rotation
	history, err := w.log.Recent(ctx, userID, 0)
	if err != nil {
		logging.Errorw("read chat history failed", "user_id", userID, "error", err)
		return OutcomeProcessed, nil
	}

	// 5) periodic cadence: exactly threshold messages between cycles
	if len(history) > 0 && len(history)%threshold == 0 {
		logging.Infow("summarization threshold crossed", "user_id", userID, "messages", len(history))
		if err := w.summarizeAndRotate(ctx, userID, Contents(history)); err != nil {
			logging.Errorw("summarization cycle failed", "user_id", userID, "error", err)
		}
	}

	// 6) the caller never sees summarization failures
	return OutcomeProcessed, nil
}

// summarizeAndRotate runs summarize -> save -> clear. The log is cleared
// only after the summary is durably saved, so a failed save leaves the
// messages in place for the next threshold crossing.
func (w *Workflow) summarizeAndRotate(ctx context.Context, userID string, history []string) error {
	summary, err := w.summarizer.Summarize(ctx, history)
	if err != nil {
		return err
	}

	if err := w.users.SaveSummary(ctx, userID, summary); err != nil {
		return err
	}

	if w.cache != nil {
		if err := w.cache.SetSummary(ctx, userID, summary); err != nil {
			logging.Warnw("summary cache write failed", "user_id", userID, "error", err)
		}
	}

	deleted, err := w.log.Clear(ctx, userID)
	if err != nil {
		return err
	}
	logging.Infow("summarization cycle complete", "user_id", userID, "messages_cleared", deleted)
	return nil
}

// RunSummaryCycle summarizes whatever history currently exists for the
// user, saves it and rotates the log. An empty history is a no-op success.
// Used by the async job worker; holds the same per-user lock as
// HandleMessage.
func (w *Workflow) RunSummaryCycle(ctx context.Context, userID string) error {
	lock := w.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	history, err := w.log.Recent(ctx, userID, 0)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		logging.Infow("no history to summarize", "user_id", userID)
		return nil
	}
	return w.summarizeAndRotate(ctx, userID, Contents(history))
}
