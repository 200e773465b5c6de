package database

import (
	"context"
	"fmt"

	"pixel-basket/internal/snowflake"
)

const taskColumns = `id, path, ext, status, attempts, last_error`

func scanTask(row RowScanner) (Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.Path, &t.Ext, &t.Status, &t.Attempts, &t.LastError)
	return t, err
}

// EnqueueTask queues path for scanning. A path already in the queue, pending
// or failed, is left as it is. It reports whether a row was added.
func (d *Database) EnqueueTask(ctx context.Context, path, ext string) (bool, error) {
	n, err := enqueueOn(ctx, d.db, path, ext)
	return n > 0, err
}

// EnqueueTasks queues many files in one transaction and returns how many
// rows were added.
func (d *Database) EnqueueTasks(ctx context.Context, tasks []Task) (int, error) {
	var added int
	err := d.InBatch(ctx, func(b *Batch) error {
		for _, t := range tasks {
			n, err := enqueueOn(ctx, b, t.Path, t.Ext)
			if err != nil {
				return err
			}
			added += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

func enqueueOn(ctx context.Context, q Querier, path, ext string) (int64, error) {
	n, err := execOn(ctx, q, "enqueue_task",
		`INSERT INTO task (id, path, ext, status) VALUES (?, ?, ?, ?) ON CONFLICT(path) DO NOTHING`,
		snowflake.NextID(), path, ext, TaskPending)
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue %s: %w", path, err)
	}
	return n, nil
}

// PendingTasks returns every task with status 0 in id order.
func (d *Database) PendingTasks(ctx context.Context) ([]Task, error) {
	return d.tasksWithStatus(ctx, TaskPending)
}

// FailedTasks returns tasks that exhausted their attempts.
func (d *Database) FailedTasks(ctx context.Context) ([]Task, error) {
	return d.tasksWithStatus(ctx, TaskFailed)
}

func (d *Database) tasksWithStatus(ctx context.Context, status int) ([]Task, error) {
	tasks, err := selectOn(ctx, d.db, "list_tasks", scanTask,
		`SELECT `+taskColumns+` FROM task WHERE status = ? ORDER BY id`, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// GetTask returns a task by id.
func (d *Database) GetTask(ctx context.Context, id int64) (Task, error) {
	return getOne(ctx, d.db, "get_task", scanTask, `SELECT `+taskColumns+` FROM task WHERE id = ?`, id)
}

// CompleteTask removes a finished task.
func (d *Database) CompleteTask(ctx context.Context, id int64) error {
	if _, err := execOn(ctx, d.db, "complete_task", `DELETE FROM task WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to complete task %d: %w", id, err)
	}
	return nil
}

// FailTask records a failed attempt. Once attempts reaches maxAttempts the
// task is marked failed and no longer drained. It returns the new status.
func (d *Database) FailTask(ctx context.Context, id int64, reason string, maxAttempts int) (int, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	_, err := execOn(ctx, d.db, "fail_task", `
		UPDATE task
		SET attempts = attempts + 1,
		    last_error = ?,
		    status = CASE WHEN attempts + 1 >= ? THEN ? ELSE status END
		WHERE id = ?`,
		reason, maxAttempts, TaskFailed, id)
	if err != nil {
		return 0, fmt.Errorf("failed to record failure of task %d: %w", id, err)
	}

	t, err := d.GetTask(ctx, id)
	if err != nil {
		return 0, err
	}
	return t.Status, nil
}

// AbandonTask marks a task failed regardless of its attempt count.
func (d *Database) AbandonTask(ctx context.Context, id int64, reason string) error {
	_, err := execOn(ctx, d.db, "abandon_task",
		`UPDATE task SET status = ?, attempts = attempts + 1, last_error = ? WHERE id = ?`,
		TaskFailed, reason, id)
	if err != nil {
		return fmt.Errorf("failed to abandon task %d: %w", id, err)
	}
	return nil
}

// ResetFailedTasks returns failed tasks to the pending set with a fresh
// attempt count.
func (d *Database) ResetFailedTasks(ctx context.Context) (int64, error) {
	n, err := execOn(ctx, d.db, "reset_failed_tasks",
		`UPDATE task SET status = ?, attempts = 0 WHERE status = ?`, TaskPending, TaskFailed)
	if err != nil {
		return 0, fmt.Errorf("failed to reset failed tasks: %w", err)
	}
	return n, nil
}
