package memory

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/virajd/persona-memory/internal/logging"
)

// UserStore is the durable record of per-user rate-limit state and the
// latest conversation summary.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// EnsureUser inserts a zeroed user row if absent. Idempotent: an existing
// row is left untouched.
func (s *UserStore) EnsureUser(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&User{UserID: userID, ChatCount24h: 0}).Error
}

// GetUser returns the user row or gorm.ErrRecordNotFound. Not-found is a
// valid state; callers decide what it means.
func (s *UserStore) GetUser(ctx context.Context, userID string) (*User, error) {
	var u User
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// RecordChatTurn stamps last_chat_timestamp and increments the 24h counter.
// A missing user is reported, not fatal; EnsureUser must run first.
func (s *UserStore) RecordChatTurn(ctx context.Context, userID string) error {
	now := time.Now()
	res := s.db.WithContext(ctx).Model(&User{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"last_chat_timestamp": now,
			"chat_count_24h":      gorm.Expr("chat_count_24h + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		logging.Warnw("record chat turn: user not found", "user_id", userID)
	}
	return nil
}

// ResetChatCount zeroes the 24h counter. Used by the rollover in the rate
// limiter and available standalone.
func (s *UserStore) ResetChatCount(ctx context.Context, userID string) error {
	res := s.db.WithContext(ctx).Model(&User{}).
		Where("user_id = ?", userID).
		Update("chat_count_24h", 0)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		logging.Warnw("reset chat count: user not found", "user_id", userID)
	}
	return nil
}

// SaveSummary overwrites chat_history_summary. Last writer wins; prior
// summaries are unrecoverable once overwritten.
func (s *UserStore) SaveSummary(ctx context.Context, userID, summary string) error {
	res := s.db.WithContext(ctx).Model(&User{}).
		Where("user_id = ?", userID).
		Update("chat_history_summary", summary)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		logging.Warnw("save summary: user not found", "user_id", userID)
	}
	return nil
}
