package database

import (
	"context"
	"errors"
	"testing"
)

func TestEnqueueTaskIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	added, err := db.EnqueueTask(ctx, "/photos/a.jpg", "jpg")
	if err != nil || !added {
		t.Fatalf("first EnqueueTask() = (%v, %v), want (true, nil)", added, err)
	}
	added, err = db.EnqueueTask(ctx, "/photos/a.jpg", "jpg")
	if err != nil || added {
		t.Fatalf("second EnqueueTask() = (%v, %v), want (false, nil)", added, err)
	}

	n, err := db.EnqueueTasks(ctx, []Task{
		{Path: "/photos/a.jpg", Ext: "jpg"},
		{Path: "/photos/b.png", Ext: "png"},
		{Path: "/photos/c.mp4", Ext: "mp4"},
	})
	if err != nil || n != 2 {
		t.Fatalf("EnqueueTasks() = (%d, %v), want (2, nil)", n, err)
	}

	pending, err := db.PendingTasks(ctx)
	if err != nil {
		t.Fatalf("PendingTasks() error = %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("got %d pending tasks, want 3", len(pending))
	}
	if pending[0].Path != "/photos/a.jpg" || pending[0].Status != TaskPending {
		t.Errorf("first pending task = %+v", pending[0])
	}
}

func TestCompleteTaskDeletesRow(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.EnqueueTask(ctx, "/photos/a.jpg", "jpg"); err != nil {
		t.Fatal(err)
	}
	pending, _ := db.PendingTasks(ctx)

	if err := db.CompleteTask(ctx, pending[0].ID); err != nil {
		t.Fatalf("CompleteTask() error = %v", err)
	}
	if _, err := db.GetTask(ctx, pending[0].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetTask() after complete error = %v, want ErrNotFound", err)
	}
}

func TestFailTaskBoundedRetry(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.EnqueueTask(ctx, "/photos/broken.jpg", "jpg"); err != nil {
		t.Fatal(err)
	}
	pending, _ := db.PendingTasks(ctx)
	id := pending[0].ID

	for attempt, want := range []int{TaskPending, TaskPending, TaskFailed} {
		status, err := db.FailTask(ctx, id, "decode error", 3)
		if err != nil {
			t.Fatalf("FailTask() error = %v", err)
		}
		if status != want {
			t.Errorf("attempt %d: status = %d, want %d", attempt+1, status, want)
		}
	}

	task, err := db.GetTask(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if task.Attempts != 3 || task.LastError != "decode error" {
		t.Errorf("task = %+v", task)
	}

	pending, _ = db.PendingTasks(ctx)
	if len(pending) != 0 {
		t.Errorf("failed task still pending: %+v", pending)
	}
	failed, _ := db.FailedTasks(ctx)
	if len(failed) != 1 {
		t.Fatalf("got %d failed tasks, want 1", len(failed))
	}

	n, err := db.ResetFailedTasks(ctx)
	if err != nil || n != 1 {
		t.Fatalf("ResetFailedTasks() = (%d, %v), want (1, nil)", n, err)
	}
	task, _ = db.GetTask(ctx, id)
	if task.Status != TaskPending || task.Attempts != 0 {
		t.Errorf("after reset task = %+v", task)
	}
}

func TestAbandonTask(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.EnqueueTask(ctx, "/models/a.stl", "stl"); err != nil {
		t.Fatal(err)
	}
	pending, _ := db.PendingTasks(ctx)

	if err := db.AbandonTask(ctx, pending[0].ID, "no plugin"); err != nil {
		t.Fatalf("AbandonTask() error = %v", err)
	}
	task, _ := db.GetTask(ctx, pending[0].ID)
	if task.Status != TaskFailed || task.LastError != "no plugin" {
		t.Errorf("task = %+v", task)
	}
}
