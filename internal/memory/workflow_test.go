package memory

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"
)

func newTestWorkflow(t *testing.T, prov *fakeProvider, chatLimit int64) (*Workflow, *gorm.DB) {
	t.Helper()
	db := openTestDB(t)
	users := NewUserStore(db)
	log := NewMessageLog(db)
	limiter := NewRateLimiter(users)
	summarizer := NewSummarizer(prov, time.Minute)
	return NewWorkflow(users, log, limiter, summarizer, nil, chatLimit), db
}

func TestHandleMessage_ThresholdCadence(t *testing.T) {
	prov := &fakeProvider{reply: "compressed history"}
	w, db := newTestWorkflow(t, prov, 10)
	ctx := context.Background()

	for i, content := range []string{"m1", "m2"} {
		outcome, err := w.HandleMessage(ctx, "alice", content, 3)
		if err != nil {
			t.Fatalf("handle message %d: %v", i, err)
		}
		if outcome != OutcomeProcessed {
			t.Fatalf("expected processed, got %v", outcome)
		}
	}

	if prov.calls != 0 {
		t.Fatalf("summarizer must not run before the threshold, got %d calls", prov.calls)
	}

	var u User
	if err := db.First(&u, "user_id = ?", "alice").Error; err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u.ChatHistorySummary != nil {
		t.Fatalf("expected summary still null before threshold")
	}

	// third message crosses the threshold
	if _, err := w.HandleMessage(ctx, "alice", "m3", 3); err != nil {
		t.Fatalf("handle message 3: %v", err)
	}

	if prov.calls != 1 {
		t.Fatalf("expected exactly one summarize call, got %d", prov.calls)
	}
	want := "Please summarize the following chat history:\nm1\nm2\nm3"
	if prov.prompts[0] != want {
		t.Fatalf("expected all 3 messages in order:\nwant %q\ngot  %q", want, prov.prompts[0])
	}

	if err := db.First(&u, "user_id = ?", "alice").Error; err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u.ChatHistorySummary == nil || *u.ChatHistorySummary != "compressed history" {
		t.Fatalf("expected summary persisted, got %v", u.ChatHistorySummary)
	}

	var msgCount int64
	if err := db.Model(&ChatMessage{}).Where("user_id = ?", "alice").Count(&msgCount).Error; err != nil {
		t.Fatalf("count messages: %v", err)
	}
	if msgCount != 0 {
		t.Fatalf("expected message log rotated after summarization, got %d rows", msgCount)
	}
}

func TestHandleMessage_RateLimitedNotStored(t *testing.T) {
	prov := &fakeProvider{}
	w, db := newTestWorkflow(t, prov, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		outcome, err := w.HandleMessage(ctx, "alice", "hello", 100)
		if err != nil {
			t.Fatalf("handle message %d: %v", i, err)
		}
		if outcome != OutcomeProcessed {
			t.Fatalf("expected processed, got %v", outcome)
		}
	}

	outcome, err := w.HandleMessage(ctx, "alice", "third", 100)
	if err != nil {
		t.Fatalf("handle third message: %v", err)
	}
	if outcome != OutcomeRateLimited {
		t.Fatalf("expected rate_limited, got %v", outcome)
	}

	var msgCount int64
	if err := db.Model(&ChatMessage{}).Where("user_id = ?", "alice").Count(&msgCount).Error; err != nil {
		t.Fatalf("count messages: %v", err)
	}
	if msgCount != 2 {
		t.Fatalf("rejected message must not be stored; expected 2, got %d", msgCount)
	}

	var u User
	if err := db.First(&u, "user_id = ?", "alice").Error; err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u.ChatCount24h != 2 {
		t.Fatalf("rejected message must not count; expected 2, got %d", u.ChatCount24h)
	}
}

func TestHandleMessage_SummarizeFailureStillProcessed(t *testing.T) {
	prov := &fakeProvider{err: errors.New("upstream timeout")}
	w, db := newTestWorkflow(t, prov, 10)
	ctx := context.Background()

	outcome, err := w.HandleMessage(ctx, "alice", "only message", 1)
	if err != nil {
		t.Fatalf("handle message: %v", err)
	}
	if outcome != OutcomeProcessed {
		t.Fatalf("summarization failure must not surface; got %v", outcome)
	}

	// no rollback of the append, no rotation without a saved summary
	var msgCount int64
	if err := db.Model(&ChatMessage{}).Where("user_id = ?", "alice").Count(&msgCount).Error; err != nil {
		t.Fatalf("count messages: %v", err)
	}
	if msgCount != 1 {
		t.Fatalf("expected message retained after failed cycle, got %d", msgCount)
	}

	var u User
	if err := db.First(&u, "user_id = ?", "alice").Error; err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u.ChatHistorySummary != nil {
		t.Fatalf("expected no summary after provider failure")
	}
}

func TestHandleMessage_UserIsolation(t *testing.T) {
	prov := &fakeProvider{}
	w, db := newTestWorkflow(t, prov, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := w.HandleMessage(ctx, "alice", "hi", 100); err != nil {
			t.Fatalf("alice message %d: %v", i, err)
		}
	}

	// alice is at her limit; bob must be unaffected
	outcome, err := w.HandleMessage(ctx, "bob", "hello", 100)
	if err != nil {
		t.Fatalf("bob message: %v", err)
	}
	if outcome != OutcomeProcessed {
		t.Fatalf("bob must not inherit alice's limit, got %v", outcome)
	}

	var bob User
	if err := db.First(&bob, "user_id = ?", "bob").Error; err != nil {
		t.Fatalf("get bob: %v", err)
	}
	if bob.ChatCount24h != 1 {
		t.Fatalf("expected bob count 1, got %d", bob.ChatCount24h)
	}
}

func TestRunSummaryCycle(t *testing.T) {
	prov := &fakeProvider{reply: "offline summary"}
	w, db := newTestWorkflow(t, prov, 10)
	ctx := context.Background()

	// empty history is a no-op success with no provider call
	if err := w.RunSummaryCycle(ctx, "alice"); err != nil {
		t.Fatalf("empty cycle: %v", err)
	}
	if prov.calls != 0 {
		t.Fatalf("expected no provider call for empty history")
	}

	for _, content := range []string{"a", "b"} {
		if _, err := w.HandleMessage(ctx, "alice", content, 100); err != nil {
			t.Fatalf("handle message: %v", err)
		}
	}

	if err := w.RunSummaryCycle(ctx, "alice"); err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if prov.calls != 1 {
		t.Fatalf("expected one summarize call, got %d", prov.calls)
	}
	if !strings.Contains(prov.prompts[0], "a\nb") {
		t.Fatalf("expected chronological history in prompt, got %q", prov.prompts[0])
	}

	var u User
	if err := db.First(&u, "user_id = ?", "alice").Error; err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u.ChatHistorySummary == nil || *u.ChatHistorySummary != "offline summary" {
		t.Fatalf("expected summary saved, got %v", u.ChatHistorySummary)
	}

	var msgCount int64
	if err := db.Model(&ChatMessage{}).Where("user_id = ?", "alice").Count(&msgCount).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if msgCount != 0 {
		t.Fatalf("expected log rotated, got %d rows", msgCount)
	}
}
