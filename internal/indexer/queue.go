package indexer

import (
	"context"
	"errors"
	"fmt"

	"pixel-basket/internal/database"
	"pixel-basket/internal/logging"
	"pixel-basket/internal/media"
	"pixel-basket/internal/scanner"
)

// DefaultMaxAttempts is how many failed scans a task gets before it stops
// being drained.
const DefaultMaxAttempts = 3

// TaskStore is the persisted work queue.
type TaskStore interface {
	EnqueueTasks(ctx context.Context, tasks []database.Task) (int, error)
	PendingTasks(ctx context.Context) ([]database.Task, error)
	CompleteTask(ctx context.Context, id int64) error
	FailTask(ctx context.Context, id int64, reason string, maxAttempts int) (int, error)
	AbandonTask(ctx context.Context, id int64, reason string) error
	HasCurrentItem(ctx context.Context, fullPath string, size int64, modified string) (bool, error)
}

// Queue applies the retry policy on top of a TaskStore.
type Queue struct {
	store       TaskStore
	maxAttempts int
	log         *logging.Logger
}

// NewQueue wraps store. maxAttempts below 1 means DefaultMaxAttempts.
func NewQueue(store TaskStore, maxAttempts int) *Queue {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Queue{store: store, maxAttempts: maxAttempts, log: logging.With("queue")}
}

// MaxAttempts returns the retry limit.
func (q *Queue) MaxAttempts() int { return q.maxAttempts }

// Enqueue adds a pending task per file. Paths already queued and files whose
// path, size and modification time match a live item are skipped. It returns
// the number of tasks added.
func (q *Queue) Enqueue(ctx context.Context, files []File) (int, error) {
	tasks := make([]database.Task, 0, len(files))
	for _, f := range files {
		facts, err := media.Stat(f.Path)
		if err == nil {
			current, err := q.store.HasCurrentItem(ctx, f.Path, facts.Size, media.FormatTime(facts.Modified))
			if err != nil {
				return 0, fmt.Errorf("check %s: %w", f.Path, err)
			}
			if current {
				continue
			}
		} else {
			// the scan will report it
			q.log.Debug("Enqueueing %s without stat: %v", f.Path, err)
		}
		tasks = append(tasks, database.Task{Path: f.Path, Ext: f.Ext})
	}
	if len(tasks) == 0 {
		return 0, nil
	}
	return q.store.EnqueueTasks(ctx, tasks)
}

// DrainPending returns every pending task.
func (q *Queue) DrainPending(ctx context.Context) ([]database.Task, error) {
	return q.store.PendingTasks(ctx)
}

// Complete removes a finished task.
func (q *Queue) Complete(ctx context.Context, id int64) error {
	return q.store.CompleteTask(ctx, id)
}

// Fail records a failed scan. Tasks no plugin can take are failed at once;
// others stay pending until they reach the retry limit. It returns the new
// task status.
func (q *Queue) Fail(ctx context.Context, task database.Task, cause error) (int, error) {
	reason := cause.Error()
	if errors.Is(cause, scanner.ErrUnsupported) {
		return database.TaskFailed, q.store.AbandonTask(ctx, task.ID, reason)
	}
	return q.store.FailTask(ctx, task.ID, reason, q.maxAttempts)
}
