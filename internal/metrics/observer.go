package metrics

import "pixel-basket/internal/filesystem"

// filesystemObserver records filesystem retry behaviour into the counters
// declared in metrics.go.
type filesystemObserver struct{}

// NewFilesystemObserver returns a filesystem.Observer backed by Prometheus.
func NewFilesystemObserver() filesystem.Observer {
	return &filesystemObserver{}
}

func (o *filesystemObserver) ObserveRetryAttempt(op, volume string) {
	FilesystemRetryAttempts.WithLabelValues(op, volume).Inc()
}

func (o *filesystemObserver) ObserveRetrySuccess(op, volume string) {
	FilesystemRetrySuccess.WithLabelValues(op, volume).Inc()
}

func (o *filesystemObserver) ObserveRetryFailure(op, volume string) {
	FilesystemRetryFailures.WithLabelValues(op, volume).Inc()
}

func (o *filesystemObserver) ObserveRetryDuration(op, volume string, seconds float64) {
	FilesystemRetryDuration.WithLabelValues(op, volume).Observe(seconds)
}

func (o *filesystemObserver) ObserveStaleError(op, volume string) {
	FilesystemStaleErrors.WithLabelValues(op, volume).Inc()
}
