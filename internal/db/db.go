package db

import (
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/virajd/persona-memory/internal/memory"
)

// Connect opens the sqlite database at path. The DSN may also be an
// in-memory form like "file::memory:?cache=shared" for tests.
func Connect(path string) (*gorm.DB, error) {
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

// Migrate creates the users, chat_messages and summary_jobs tables if absent.
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(&memory.User{}, &memory.ChatMessage{}, &memory.SummaryJob{})
}
