package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"pixel-basket/internal/database"
	"pixel-basket/internal/logging"
	"pixel-basket/internal/metrics"
	"pixel-basket/internal/scanner"
	"pixel-basket/internal/workers"
)

// ErrJobUsed is returned when Run or RunPending is called twice on a Job.
var ErrJobUsed = errors.New("scan job already started")

// State is the stage a job is in.
type State int32

const (
	StateIdle State = iota
	StateDiscovering
	StatePersistingFolders
	StatePersistingBasket
	StateEnqueuing
	StateScanning
	StateDraining
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDiscovering:
		return "discovering"
	case StatePersistingFolders:
		return "persisting-folders"
	case StatePersistingBasket:
		return "persisting-basket"
	case StateEnqueuing:
		return "enqueuing"
	case StateScanning:
		return "scanning"
	case StateDraining:
		return "draining"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// FolderStore persists the folder tree and basket roots of a walk.
type FolderStore interface {
	SaveFolders(ctx context.Context, folders []database.Folder) error
	SaveBasket(ctx context.Context, name string, roots []string) (int64, error)
}

// Throttle delays dispatching, e.g. under memory pressure.
type Throttle interface {
	Wait(ctx context.Context) error
}

// Deps wires a Job. Throttle is optional.
type Deps struct {
	Registry *scanner.Registry
	Scan     *scanner.ScanContext
	Queue    *Queue
	Folders  FolderStore
	Throttle Throttle
}

// Job is one run of the scan state machine. A Job runs once.
type Job struct {
	ID string

	deps     Deps
	log      *logging.Logger
	progress *progress
	state    atomic.Int32
	started  atomic.Bool

	done     chan struct{}
	mu       sync.Mutex
	summary  Summary
	err      error
	finished time.Time
}

// NewJob creates an idle job with a fresh id.
func NewJob(deps Deps) *Job {
	id := uuid.NewString()
	return &Job{
		ID:   id,
		deps: deps,
		log:  logging.With("job " + id[:8]),
		done: make(chan struct{}),
	}
}

// Events returns the progress stream. It must be called before the job
// starts and then read until done; without it the job reports nothing.
func (j *Job) Events() <-chan Event {
	if j.progress == nil {
		j.progress = newProgress(j.ID)
	}
	return j.progress.ch
}

// State returns the current stage.
func (j *Job) State() State {
	return State(j.state.Load())
}

// Wait blocks until the job finished and returns its outcome.
func (j *Job) Wait() (Summary, error) {
	<-j.done
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.summary, j.err
}

// FinishedAt returns when the job finished, or the zero time.
func (j *Job) FinishedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.finished
}

// Done is closed when the job finished.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

func (j *Job) setState(s State) {
	j.state.Store(int32(s))
	j.log.Debug("State -> %s", s)
}

func (j *Job) emit(e Event) {
	if j.progress != nil {
		j.progress.emit(e)
	}
}

// Run walks dirs, records their folders under basket name, queues every
// new file and scans the whole pending queue. Stage failures are logged and
// the job continues with what it has. The returned error is ctx.Err() when
// the job was cancelled.
func (j *Job) Run(ctx context.Context, name string, dirs []string) (Summary, error) {
	if !j.started.CompareAndSwap(false, true) {
		return Summary{}, ErrJobUsed
	}
	return j.execute(ctx, "basket", func(s *Summary) {
		j.setState(StateDiscovering)
		found, err := NewWalker(j.deps.Registry, j.log).Walk(ctx, dirs)
		if err != nil {
			j.stageError(StateDiscovering, err)
		}
		s.Discovered, s.Folders = len(found.Files), len(found.Folders)
		metrics.FilesDiscovered.Add(float64(len(found.Files)))
		j.emit(Event{Kind: EventFileCount, Count: len(found.Files)})
		if ctx.Err() != nil {
			return
		}

		j.setState(StatePersistingFolders)
		if err := j.io(func() error { return j.deps.Folders.SaveFolders(ctx, found.Folders) }); err != nil {
			j.stageError(StatePersistingFolders, err)
		}

		j.setState(StatePersistingBasket)
		if err := j.io(func() error {
			_, err := j.deps.Folders.SaveBasket(ctx, name, dirs)
			return err
		}); err != nil {
			j.stageError(StatePersistingBasket, err)
		}

		j.setState(StateEnqueuing)
		if err := j.io(func() error {
			n, err := j.deps.Queue.Enqueue(ctx, found.Files)
			s.Enqueued = n
			return err
		}); err != nil {
			j.stageError(StateEnqueuing, err)
		}

		j.drain(ctx, s)
	})
}

// RunPending scans the tasks already in the queue.
func (j *Job) RunPending(ctx context.Context) (Summary, error) {
	if !j.started.CompareAndSwap(false, true) {
		return Summary{}, ErrJobUsed
	}
	return j.execute(ctx, "pending", func(s *Summary) {
		j.drain(ctx, s)
	})
}

func (j *Job) execute(ctx context.Context, kind string, body func(*Summary)) (Summary, error) {
	start := time.Now()
	metrics.ScanJobsRunning.Inc()
	j.log.Info("Starting %s scan", kind)

	var s Summary
	body(&s)

	s.Duration = time.Since(start)
	err := ctx.Err()
	status := "success"
	if err != nil {
		status = "cancelled"
	}
	metrics.ScanJobsRunning.Dec()
	metrics.ScanJobsTotal.WithLabelValues(kind).Inc()
	metrics.ScanJobDuration.WithLabelValues(kind).Observe(s.Duration.Seconds())

	j.setState(StateDone)
	if j.progress != nil {
		if j.progress.dropped > 0 {
			j.log.Debug("Dropped %d progress events", j.progress.dropped)
		}
		j.progress.finish(s)
	}
	j.log.Info("Finished %s scan (%s): %d dispatched, %d inserted, %d duplicates, %d failed, %d cancelled in %v",
		kind, status, s.Dispatched, s.Inserted, s.Duplicates, s.Failed, s.Cancelled, s.Duration)

	j.mu.Lock()
	j.summary, j.err, j.finished = s, err, time.Now()
	j.mu.Unlock()
	close(j.done)
	return s, err
}

// drain dispatches every pending task, then awaits the statuses in
// submission order. Tasks not dispatched before cancellation stay pending.
func (j *Job) drain(ctx context.Context, s *Summary) {
	j.setState(StateScanning)
	tasks, err := workers.SubmitAndWait(j.deps.Scan.IO, func() ([]database.Task, error) {
		return j.deps.Queue.DrainPending(ctx)
	})
	if err != nil {
		j.stageError(StateScanning, err)
		return
	}
	j.emit(Event{Kind: EventTaskCount, Count: len(tasks)})

	statuses := make([]*scanner.TaskStatus, 0, len(tasks))
	for _, t := range tasks {
		if err := j.waitTurn(ctx); err != nil {
			j.log.Info("Cancelled with %d tasks left pending", len(tasks)-len(statuses))
			break
		}
		statuses = append(statuses, j.deps.Registry.Dispatch(ctx, t, j.deps.Scan))
	}
	s.Dispatched = len(statuses)

	j.setState(StateDraining)
	// results are persisted even when ctx is cancelled
	persistCtx := context.WithoutCancel(ctx)
	for _, st := range statuses {
		res, err := st.Wait()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				s.Cancelled++
				continue
			}
			s.Failed++
			j.fail(persistCtx, st.Task, err)
			continue
		}

		if res.Duplicate {
			s.Duplicates++
		} else {
			s.Inserted++
		}
		if err := j.io(func() error { return j.deps.Queue.Complete(persistCtx, st.Task.ID) }); err != nil {
			j.log.Error("Failed to complete task %d: %v", st.Task.ID, err)
		}
		j.emit(Event{Kind: EventTaskDone, Path: st.Task.Path})
	}
}

func (j *Job) waitTurn(ctx context.Context) error {
	if j.deps.Throttle != nil {
		if err := j.deps.Throttle.Wait(ctx); err != nil {
			return err
		}
	}
	return ctx.Err()
}

func (j *Job) fail(ctx context.Context, t database.Task, cause error) {
	var status int
	err := j.io(func() error {
		var err error
		status, err = j.deps.Queue.Fail(ctx, t, cause)
		return err
	})
	if err != nil {
		j.log.Error("Failed to record failure of task %d: %v", t.ID, err)
	} else if status == database.TaskFailed {
		j.log.Warn("Giving up on %s: %v", t.Path, cause)
	}
	j.emit(Event{Kind: EventTaskFailed, Path: t.Path, Error: cause.Error()})
}

func (j *Job) io(fn func() error) error {
	return workers.Do(j.deps.Scan.IO, fn)
}

func (j *Job) stageError(stage State, err error) {
	metrics.ScanStageErrors.WithLabelValues(stage.String()).Inc()
	j.log.Error("%s: %v", stage, err)
}
