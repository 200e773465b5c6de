package indexer

import (
	"time"

	"pixel-basket/internal/logging"
)

// EventKind names a progress event.
type EventKind string

const (
	EventFileCount  EventKind = "file-count"
	EventTaskCount  EventKind = "task-count"
	EventTaskDone   EventKind = "task-done"
	EventTaskFailed EventKind = "task-failed"
	EventDone       EventKind = "done"
)

const (
	progressBuffer  = 16
	progressTimeout = 250 * time.Millisecond
)

// Event is one progress report of a job.
type Event struct {
	Kind  EventKind `json:"kind"`
	JobID string    `json:"jobId"`
	// Count is set for file-count and task-count.
	Count int `json:"count,omitempty"`
	// Path is the task path for task-done and task-failed.
	Path  string `json:"path,omitempty"`
	Error string `json:"error,omitempty"`
	// Summary is set for done.
	Summary *Summary `json:"summary,omitempty"`
}

// Summary totals a finished job.
type Summary struct {
	Discovered int           `json:"discovered"`
	Folders    int           `json:"folders"`
	Enqueued   int           `json:"enqueued"`
	Dispatched int           `json:"dispatched"`
	Inserted   int           `json:"inserted"`
	Duplicates int           `json:"duplicates"`
	Failed     int           `json:"failed"`
	Cancelled  int           `json:"cancelled"`
	Duration   time.Duration `json:"duration"`
}

// progress is the bounded event stream of one job. Slow consumers lose
// intermediate events but always receive done.
type progress struct {
	jobID   string
	ch      chan Event
	dropped int
}

func newProgress(jobID string) *progress {
	return &progress{jobID: jobID, ch: make(chan Event, progressBuffer)}
}

func (p *progress) emit(e Event) {
	e.JobID = p.jobID
	select {
	case p.ch <- e:
		return
	default:
	}

	timer := time.NewTimer(progressTimeout)
	defer timer.Stop()
	select {
	case p.ch <- e:
	case <-timer.C:
		p.dropped++
	}
}

// finish sends done and closes the stream.
func (p *progress) finish(s Summary) {
	p.ch <- Event{Kind: EventDone, JobID: p.jobID, Summary: &s}
	close(p.ch)
}

// Monitor reads events until done or the stream closes, logging each one
// and passing it to fn when fn is not nil. It returns the summary carried
// by done, or nil.
func Monitor(events <-chan Event, fn func(Event)) *Summary {
	for e := range events {
		log := logging.With(e.JobID)
		switch e.Kind {
		case EventFileCount:
			log.Info("Discovered %d files", e.Count)
		case EventTaskCount:
			log.Info("Scanning %d tasks", e.Count)
		case EventTaskDone:
			log.Debug("Scanned %s", e.Path)
		case EventTaskFailed:
			log.Warn("Scan of %s failed: %s", e.Path, e.Error)
		case EventDone:
			log.Info("Job done: %d inserted, %d duplicates, %d failed in %v",
				e.Summary.Inserted, e.Summary.Duplicates, e.Summary.Failed, e.Summary.Duration)
		}
		if fn != nil {
			fn(e)
		}
		if e.Kind == EventDone {
			return e.Summary
		}
	}
	return nil
}
