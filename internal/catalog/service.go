package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"pixel-basket/internal/database"
	"pixel-basket/internal/indexer"
	"pixel-basket/internal/logging"
	"pixel-basket/internal/media"
	"pixel-basket/internal/mediatypes"
	"pixel-basket/internal/metrics"
	"pixel-basket/internal/scanner"
	"pixel-basket/internal/workers"
)

// ErrInvalidArgument wraps rejected command input.
var ErrInvalidArgument = errors.New("invalid argument")

// Options configures a Service.
type Options struct {
	CacheDir      string
	CPUWorkers    int
	MaxAttempts   int
	FFmpegTimeout time.Duration
	UseVips       bool
	// Registry defaults to scanner.DefaultRegistry.
	Registry *scanner.Registry
	// OnProgress receives the progress events of every job.
	OnProgress func(indexer.Event)
	// Throttle pauses dispatching, typically a memory.Monitor.
	Throttle indexer.Throttle
}

// Status describes the service for health checks.
type Status struct {
	StartedAt  time.Time        `json:"startedAt"`
	Scanning   bool             `json:"scanning"`
	JobID      string           `json:"jobId,omitempty"`
	State      string           `json:"state,omitempty"`
	LastJobID  string           `json:"lastJobId,omitempty"`
	LastJobEnd time.Time        `json:"lastJobEnd,omitempty"`
	LastJob    *indexer.Summary `json:"lastJob,omitempty"`
}

// Service is the command surface of the catalog. Jobs run one at a time in
// the background; catalog writes share the job's I/O pool.
type Service struct {
	db         *database.Database
	reconciler *Reconciler
	registry   *scanner.Registry
	scan       *scanner.ScanContext
	queue      *indexer.Queue
	cpu        *workers.Pool
	io         *workers.Pool
	onProgress func(indexer.Event)
	throttle   indexer.Throttle

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	// jobSlot holds a token while a job or a basket deletion runs.
	jobSlot chan struct{}

	mu        sync.Mutex
	startedAt time.Time
	current   *indexer.Job
	last      *indexer.Job
}

// NewService wires the pools, scanner and reconciler around db. The cache
// directory is created if needed.
func NewService(db *database.Database, opts Options) (*Service, error) {
	if opts.CacheDir == "" {
		return nil, fmt.Errorf("%w: cache directory is required", ErrInvalidArgument)
	}
	if err := os.MkdirAll(media.ThumbnailDir(opts.CacheDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	cpuWorkers := opts.CPUWorkers
	if cpuWorkers < 1 {
		cpuWorkers = workers.ForCPU(0)
	}
	registry := opts.Registry
	if registry == nil {
		registry = scanner.DefaultRegistry()
	}

	cpu := workers.NewPool("cpu", cpuWorkers)
	io := workers.NewPool("io", 1)

	sc := scanner.NewScanContext(cpu, io, opts.CacheDir, db)
	if opts.FFmpegTimeout > 0 {
		sc.FFmpeg.Timeout = opts.FFmpegTimeout
	}
	sc.Images.UseVips = opts.UseVips && media.IsVipsAvailable()
	if !sc.FFmpeg.Available() {
		logging.Warn("ffmpeg or ffprobe not on PATH, video files will fail to scan")
	}
	metrics.InitializeMetrics(registry.Names())

	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		db:         db,
		reconciler: NewReconciler(db),
		registry:   registry,
		scan:       sc,
		queue:      indexer.NewQueue(db, opts.MaxAttempts),
		cpu:        cpu,
		io:         io,
		onProgress: opts.OnProgress,
		throttle:   opts.Throttle,
		ctx:        ctx,
		cancel:     cancel,
		jobSlot:    make(chan struct{}, 1),
		startedAt:  time.Now(),
	}
	logging.Info("Catalog service ready: %d CPU workers, plugins %s, max attempts %d",
		cpuWorkers, strings.Join(registry.Names(), ","), s.queue.MaxAttempts())
	return s, nil
}

// Close cancels running jobs, waits for them to persist what they started
// and stops the pools.
func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
	s.cpu.Close()
	s.io.Close()
}

// Registry returns the installed scanner plugins.
func (s *Service) Registry() *scanner.Registry { return s.registry }

func (s *Service) acquire(ctx context.Context) error {
	select {
	case s.jobSlot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) release() { <-s.jobSlot }

func (s *Service) deps() indexer.Deps {
	return indexer.Deps{
		Registry: s.registry,
		Scan:     s.scan,
		Queue:    s.queue,
		Folders:  s.reconciler,
		Throttle: s.throttle,
	}
}

// startJob runs a new job in the background once the job slot is free.
func (s *Service) startJob(run func(ctx context.Context, j *indexer.Job) (indexer.Summary, error)) *indexer.Job {
	j := indexer.NewJob(s.deps())
	events := j.Events()

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		indexer.Monitor(events, s.onProgress)
	}()
	go func() {
		defer s.wg.Done()
		if err := s.acquire(s.ctx); err != nil {
			// still run so the progress stream closes
			_, _ = run(s.ctx, j)
			return
		}
		defer s.release()

		s.mu.Lock()
		s.current = j
		s.mu.Unlock()

		_, err := run(s.ctx, j)
		if err != nil {
			logging.Warn("Scan job %s ended: %v", j.ID, err)
		}

		s.mu.Lock()
		s.current, s.last = nil, j
		s.mu.Unlock()
	}()
	return j
}

// CreateBasket starts a job that records dirs as the roots of basket name
// and scans them. Relative directories are made absolute.
func (s *Service) CreateBasket(ctx context.Context, name string, dirs []string) (*indexer.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: basket name is empty", ErrInvalidArgument)
	}
	if len(dirs) == 0 {
		return nil, fmt.Errorf("%w: basket %q has no directories", ErrInvalidArgument, name)
	}

	roots := make([]string, 0, len(dirs))
	for _, d := range dirs {
		abs, err := filepath.Abs(d)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArgument, d, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidArgument, abs)
		}
		roots = append(roots, abs)
	}

	logging.Info("Creating basket %q with %d directories", name, len(roots))
	return s.startJob(func(ctx context.Context, j *indexer.Job) (indexer.Summary, error) {
		return j.Run(ctx, name, roots)
	}), nil
}

// RerunPendingTasks starts a job that drains the pending queue.
func (s *Service) RerunPendingTasks(ctx context.Context) (*indexer.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.startJob(func(ctx context.Context, j *indexer.Job) (indexer.Summary, error) {
		return j.RunPending(ctx)
	}), nil
}

// RetryFailedTasks returns failed tasks to the queue and drains it.
func (s *Service) RetryFailedTasks(ctx context.Context) (int64, *indexer.Job, error) {
	n, err := workers.SubmitAndWait(s.io, func() (int64, error) {
		return s.db.ResetFailedTasks(ctx)
	})
	if err != nil {
		return 0, nil, err
	}
	j, err := s.RerunPendingTasks(ctx)
	return n, j, err
}

// Ingest queues the given files and directories, as reported by the
// watcher, and starts a job draining the queue when anything was added.
// Directories are walked and their folders recorded.
func (s *Service) Ingest(ctx context.Context, paths []string) (int, *indexer.Job, error) {
	var dirs []string
	var files []indexer.File
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if info.IsDir() {
			dirs = append(dirs, p)
		} else if s.registry.Classify(p) {
			files = append(files, indexer.File{Path: p, Ext: mediatypes.NormalizeExt(p)})
		}
	}

	if len(dirs) > 0 {
		found, err := indexer.NewWalker(s.registry, nil).Walk(ctx, dirs)
		if err != nil {
			logging.Warn("Ingest walk: %v", err)
		}
		if err := workers.Do(s.io, func() error { return s.reconciler.SaveFolders(ctx, found.Folders) }); err != nil {
			return 0, nil, err
		}
		files = append(files, found.Files...)
	}

	n, err := workers.SubmitAndWait(s.io, func() (int, error) {
		return s.queue.Enqueue(ctx, files)
	})
	if err != nil || n == 0 {
		return 0, nil, err
	}
	j, err := s.RerunPendingTasks(ctx)
	return n, j, err
}

// WatchRoots lists every folder in the catalog.
func (s *Service) WatchRoots(ctx context.Context) ([]string, error) {
	folders, err := s.db.ListFolders(ctx, 0)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(folders))
	for i, f := range folders {
		paths[i] = f.Path
	}
	return paths, nil
}

// ListBaskets returns every basket with its roots.
func (s *Service) ListBaskets(ctx context.Context) ([]database.Basket, error) {
	return s.db.ListBaskets(ctx)
}

// GetBasket returns one basket.
func (s *Service) GetBasket(ctx context.Context, id int64) (database.Basket, error) {
	return s.db.GetBasket(ctx, id)
}

// DeleteBasket removes a basket and the catalog entries only it reaches. It
// waits for a running job to finish first.
func (s *Service) DeleteBasket(ctx context.Context, id int64) (DeleteResult, error) {
	if err := s.acquire(ctx); err != nil {
		return DeleteResult{}, err
	}
	defer s.release()

	res, err := workers.SubmitAndWait(s.io, func() (DeleteResult, error) {
		return s.reconciler.DeleteBasket(ctx, id)
	})
	if err != nil {
		return DeleteResult{}, err
	}
	logging.Info("Deleted basket %d: %d folders, %d tasks, %d thumbnails", id, res.Folders, res.Tasks, res.Thumbnails)
	return res, nil
}

// ListFolders returns the folders of a basket, or all folders for 0.
func (s *Service) ListFolders(ctx context.Context, basketID int64) ([]database.Folder, error) {
	return s.db.ListFolders(ctx, basketID)
}

// ListItems returns items matching f.
func (s *Service) ListItems(ctx context.Context, f database.ItemFilter) ([]database.Metadata, error) {
	return s.db.ListItems(ctx, f)
}

// ListItemsByDir returns the live items of dir, and of its subdirectories
// when recursive.
func (s *Service) ListItemsByDir(ctx context.Context, dir string, recursive bool) ([]database.Metadata, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: directory is empty", ErrInvalidArgument)
	}
	return s.db.ListItems(ctx, database.ItemFilter{Dir: filepath.Clean(dir), Recursive: recursive})
}

// GetItem returns a live item.
func (s *Service) GetItem(ctx context.Context, id int64) (database.Metadata, error) {
	return s.db.GetItem(ctx, id)
}

// SoftDeleteItem hides an item. Its content can be indexed again.
func (s *Service) SoftDeleteItem(ctx context.Context, id int64) error {
	return workers.Do(s.io, func() error { return s.db.SoftDeleteItem(ctx, id) })
}

// PendingTasks returns the queued tasks.
func (s *Service) PendingTasks(ctx context.Context) ([]database.Task, error) {
	return s.db.PendingTasks(ctx)
}

// FailedTasks returns tasks that exhausted their attempts.
func (s *Service) FailedTasks(ctx context.Context) ([]database.Task, error) {
	return s.db.FailedTasks(ctx)
}

// GetSetting returns a preference value.
func (s *Service) GetSetting(ctx context.Context, key string) (string, error) {
	return s.db.GetSetting(ctx, key)
}

// ListSettings returns every preference.
func (s *Service) ListSettings(ctx context.Context) ([]database.Setting, error) {
	return s.db.ListSettings(ctx)
}

// SetSetting stores a preference.
func (s *Service) SetSetting(ctx context.Context, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: setting key is empty", ErrInvalidArgument)
	}
	return workers.Do(s.io, func() error { return s.db.SetSetting(ctx, key, value) })
}

// DeleteSetting removes a preference.
func (s *Service) DeleteSetting(ctx context.Context, key string) error {
	return workers.Do(s.io, func() error { return s.db.DeleteSetting(ctx, key) })
}

// CatalogStats counts catalog rows.
func (s *Service) CatalogStats(ctx context.Context) (metrics.CatalogStats, error) {
	return s.db.CatalogStats(ctx)
}

// Status reports the running and the last finished job.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{StartedAt: s.startedAt}
	last := s.last
	if cur := s.current; cur != nil {
		select {
		case <-cur.Done():
			last = cur
		default:
			st.Scanning = true
			st.JobID = cur.ID
			st.State = cur.State().String()
		}
	}
	if last != nil {
		summary, _ := last.Wait()
		st.LastJobID = last.ID
		st.LastJob = &summary
		st.LastJobEnd = last.FinishedAt()
	}
	return st
}
