package memory

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"
)

func TestJobStore_Lifecycle(t *testing.T) {
	db := openTestDB(t)
	jobs := NewJobStore(db)
	ctx := context.Background()

	job := &SummaryJob{ID: "01TESTJOBID000000000000000", UserID: "alice", Status: JobQueued}
	if err := jobs.Create(ctx, job); err != nil {
		t.Fatalf("create job: %v", err)
	}

	if err := jobs.MarkRunning(ctx, job.ID); err != nil {
		t.Fatalf("mark running: %v", err)
	}
	j, err := jobs.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if j.Status != JobRunning {
		t.Fatalf("expected running, got %s", j.Status)
	}

	if err := jobs.MarkFailed(ctx, job.ID, "provider down"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	j, err = jobs.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if j.Status != JobFailed || j.Error == nil || *j.Error != "provider down" {
		t.Fatalf("expected failed with error, got %+v", j)
	}

	if err := jobs.MarkSucceeded(ctx, job.ID); err != nil {
		t.Fatalf("mark succeeded: %v", err)
	}
	j, err = jobs.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if j.Status != JobSucceeded || j.Error != nil {
		t.Fatalf("expected succeeded with cleared error, got %+v", j)
	}
}

func TestJobStore_GetMissing(t *testing.T) {
	db := openTestDB(t)
	jobs := NewJobStore(db)

	_, err := jobs.Get(context.Background(), "no-such-job")
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found, got %v", err)
	}
}
