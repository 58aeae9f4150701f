package memory

import "time"

// User anchors rate-limit state and the rolling conversation summary.
// user_id is externally supplied and never generated here.
type User struct {
	UserID             string     `gorm:"column:user_id;type:varchar(128);primaryKey" json:"user_id"`
	LastChatTimestamp  *time.Time `gorm:"column:last_chat_timestamp" json:"last_chat_timestamp"`
	ChatCount24h       int64      `gorm:"column:chat_count_24h;not null;default:0" json:"chat_count_24h"`
	ChatHistorySummary *string    `gorm:"column:chat_history_summary;type:text" json:"chat_history_summary"`
}

func (User) TableName() string { return "users" }

// ChatMessage is one raw chat turn. Rows are leaves owned by the user row
// and are bulk-deleted after a successful summarization cycle.
type ChatMessage struct {
	MessageID uint64    `gorm:"column:message_id;primaryKey;autoIncrement" json:"message_id"`
	UserID    string    `gorm:"column:user_id;type:varchar(128);index;not null" json:"user_id"`
	Content   string    `gorm:"column:message_content;type:text;not null" json:"message_content"`
	Timestamp time.Time `gorm:"column:timestamp;index;not null" json:"timestamp"`
}

func (ChatMessage) TableName() string { return "chat_messages" }
