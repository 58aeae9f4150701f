package memory

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/virajd/persona-memory/internal/logging"
)

// RateLimiter evaluates the rolling 24h admission policy against UserStore
// state. The check is not a pure predicate: once the window has lapsed it
// resets the stored counter as a side effect, which folds the rollover into
// the read path instead of a background sweep. Counters of users who never
// message again go stale harmlessly; they gate only future admission.
type RateLimiter struct {
	users *UserStore
}

func NewRateLimiter(users *UserStore) *RateLimiter {
	return &RateLimiter{users: users}
}

// IsOverLimit reports whether userID has exhausted limit chats in the
// current 24h window. Unknown users are never limited.
func (r *RateLimiter) IsOverLimit(ctx context.Context, userID string, limit int64) (bool, error) {
	u, err := r.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// a new user has no history to count against
			return false, nil
		}
		return false, err
	}

	// A null timestamp counts as "now": zero elapsed hours, no rollover
	// on a brand-new row.
	last := time.Now()
	if u.LastChatTimestamp != nil {
		last = *u.LastChatTimestamp
	}

	count := u.ChatCount24h
	if time.Since(last).Hours() >= 24 {
		if err := r.users.ResetChatCount(ctx, userID); err != nil {
			logging.Warnw("rate limit rollover reset failed", "user_id", userID, "error", err)
		}
		count = 0
	}

	return count >= limit, nil
}
