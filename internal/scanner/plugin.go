package scanner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pixel-basket/internal/database"
	"pixel-basket/internal/media"
	"pixel-basket/internal/snowflake"
	"pixel-basket/internal/workers"
)

// ErrUnsupported resolves the status of a task no plugin could take.
var ErrUnsupported = errors.New("unsupported extension")

// Store is the part of the catalog the scan pipeline writes to.
type Store interface {
	FingerprintExists(ctx context.Context, sha1 string) (bool, error)
	InsertMetadata(ctx context.Context, m *database.Metadata) (bool, error)
}

// ScanContext is what a plugin needs to run a task.
type ScanContext struct {
	// CPU runs decoding, hashing, resizing and clustering.
	CPU *workers.Pool
	// IO runs every Store call. It must have a single worker.
	IO *workers.Pool
	// CacheDir receives derived artifacts such as thumbnails.
	CacheDir string
	Store    Store

	Images *media.ImageLoader
	FFmpeg *media.FFmpeg

	// NextID and Now default to snowflake.NextID and time.Now.
	NextID func() int64
	Now    func() time.Time
}

// NewScanContext fills in the default loaders and clocks.
func NewScanContext(cpu, io *workers.Pool, cacheDir string, store Store) *ScanContext {
	ff := media.NewFFmpeg(media.DefaultToolTimeout)
	return &ScanContext{
		CPU:      cpu,
		IO:       io,
		CacheDir: cacheDir,
		Store:    store,
		Images:   &media.ImageLoader{FFmpeg: ff},
		FFmpeg:   ff,
		NextID:   snowflake.NextID,
		Now:      time.Now,
	}
}

func (sc *ScanContext) nextID() int64 {
	if sc.NextID == nil {
		return snowflake.NextID()
	}
	return sc.NextID()
}

func (sc *ScanContext) now() time.Time {
	if sc.Now == nil {
		return time.Now()
	}
	return sc.Now()
}

// Plugin analyzes one media family.
type Plugin interface {
	Name() string
	// IsSupport reports whether the plugin claims a lower-case extension.
	IsSupport(ext string) bool
	// Scan returns at once. The work runs on sc.CPU and the returned
	// status resolves when its result is persisted.
	Scan(ctx context.Context, task database.Task, sc *ScanContext) *TaskStatus
}

// Result describes a finished scan.
type Result struct {
	// ItemID is the new metadata id when Inserted.
	ItemID   int64
	Inserted bool
	// Duplicate means a live item already has the same content.
	Duplicate bool
}

// TaskStatus is the pending outcome of one task.
type TaskStatus struct {
	Task   database.Task
	Plugin string
	future *workers.Future[Result]
}

// Wait blocks until the scan finished.
func (s *TaskStatus) Wait() (Result, error) {
	return s.future.Wait()
}

// WaitContext is Wait bounded by ctx.
func (s *TaskStatus) WaitContext(ctx context.Context) (Result, error) {
	return s.future.WaitContext(ctx)
}

// Done is closed once the outcome is known.
func (s *TaskStatus) Done() <-chan struct{} {
	return s.future.Done()
}

// Unsupported is an already failed status for a task plugin cannot take.
func Unsupported(task database.Task, plugin string) *TaskStatus {
	return &TaskStatus{
		Task:   task,
		Plugin: plugin,
		future: workers.Resolved(Result{}, fmt.Errorf("%s: %q: %w", plugin, task.Ext, ErrUnsupported)),
	}
}
