package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixel_basket_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pixel_basket_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pixel_basket_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixel_basket_db_queries_total",
			Help: "Total number of catalog queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pixel_basket_db_query_duration_seconds",
			Help:    "Catalog query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pixel_basket_db_transaction_duration_seconds",
			Help:    "Catalog transaction duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"outcome"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pixel_basket_db_connections_open",
			Help: "Number of open catalog connections",
		},
	)
)

// Scan job metrics
var (
	ScanJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixel_basket_scan_jobs_total",
			Help: "Scan jobs run, by kind (basket, pending)",
		},
		[]string{"kind"},
	)

	ScanJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pixel_basket_scan_job_duration_seconds",
			Help:    "Wall time of a scan job",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600},
		},
		[]string{"kind"},
	)

	ScanJobsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pixel_basket_scan_jobs_running",
			Help: "Scan jobs currently running",
		},
	)

	ScanStageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixel_basket_scan_stage_errors_total",
			Help: "Scan job stages that ended in error",
		},
		[]string{"stage"},
	)

	FilesDiscovered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pixel_basket_files_discovered_total",
			Help: "Supported files found while walking basket directories",
		},
	)
)

// Task metrics
var (
	TasksDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixel_basket_tasks_dispatched_total",
			Help: "Scan tasks handed to a plugin",
		},
		[]string{"plugin"},
	)

	TaskResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixel_basket_task_results_total",
			Help: "Scan task outcomes by plugin",
		},
		[]string{"plugin", "result"},
	)

	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pixel_basket_task_duration_seconds",
			Help:    "Time spent scanning one file",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"plugin"},
	)

	TasksPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pixel_basket_tasks_pending",
			Help: "Tasks waiting in the queue",
		},
	)

	TasksFailed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pixel_basket_tasks_failed",
			Help: "Tasks that exhausted their attempts",
		},
	)

	DuplicatesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pixel_basket_duplicates_skipped_total",
			Help: "Files whose fingerprint was already cataloged",
		},
	)

	ThumbnailsWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pixel_basket_thumbnails_written_total",
			Help: "Thumbnail files written to the cache directory",
		},
	)

	ImageDecodeByFormat = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixel_basket_image_decode_total",
			Help: "Image decodes by loader and result",
		},
		[]string{"loader", "result"},
	)

	ExternalToolRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixel_basket_external_tool_runs_total",
			Help: "ffmpeg/ffprobe invocations by result",
		},
		[]string{"tool", "result"},
	)
)

// Catalog metrics
var (
	CatalogItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pixel_basket_catalog_items",
			Help: "Live (not deleted) items in the catalog",
		},
	)

	CatalogFolders = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pixel_basket_catalog_folders",
			Help: "Folders in the shared folder tree",
		},
	)

	CatalogBaskets = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pixel_basket_catalog_baskets",
			Help: "Baskets in the catalog",
		},
	)

	WatcherEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixel_basket_watcher_events_total",
			Help: "Filesystem events seen by the basket watcher",
		},
		[]string{"op"},
	)

	WatchedDirectories = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pixel_basket_watched_directories",
			Help: "Directories watched for new files",
		},
	)
)

// Filesystem metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixel_basket_filesystem_retry_attempts_total",
			Help: "Retries after stale file handle errors",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixel_basket_filesystem_retry_success_total",
			Help: "Operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixel_basket_filesystem_retry_failures_total",
			Help: "Operations that failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixel_basket_filesystem_stale_errors_total",
			Help: "ESTALE errors seen",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pixel_basket_filesystem_retry_duration_seconds",
			Help:    "Duration of filesystem operations including retries",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pixel_basket_memory_usage_ratio",
			Help: "Heap in use as a fraction of the memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pixel_basket_memory_paused",
			Help: "1 while dispatching is paused for memory pressure",
		},
	)

	MemoryPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pixel_basket_memory_pauses_total",
			Help: "Times dispatching paused for memory pressure",
		},
	)
)

// App info
var AppInfo = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "pixel_basket_app_info",
		Help: "Build information",
	},
	[]string{"version", "commit", "go_version"},
)
