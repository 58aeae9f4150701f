package memory

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// MessageLog is the append-only per-user message sequence. It enforces no
// size cap; growth is bounded by the summarize-then-rotate cycle.
type MessageLog struct {
	db *gorm.DB
}

func NewMessageLog(db *gorm.DB) *MessageLog {
	return &MessageLog{db: db}
}

// Append inserts a message with a server-assigned timestamp.
func (l *MessageLog) Append(ctx context.Context, userID, content string) (*ChatMessage, error) {
	m := &ChatMessage{
		UserID:    userID,
		Content:   content,
		Timestamp: time.Now(),
	}
	if err := l.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// Recent returns up to max messages in chronological order. The query is
// newest-first and reversed before returning. max <= 0 means unbounded.
func (l *MessageLog) Recent(ctx context.Context, userID string, max int) ([]ChatMessage, error) {
	q := l.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("message_id DESC")
	if max > 0 {
		q = q.Limit(max)
	}

	var msgs []ChatMessage
	if err := q.Find(&msgs).Error; err != nil {
		return nil, err
	}

	// reverse to ASC (oldest -> newest)
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// Clear deletes all messages for the user and reports how many went away.
func (l *MessageLog) Clear(ctx context.Context, userID string) (int64, error) {
	res := l.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&ChatMessage{})
	return res.RowsAffected, res.Error
}

// Contents extracts the message bodies from a chronological slice.
func Contents(msgs []ChatMessage) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Content)
	}
	return out
}
