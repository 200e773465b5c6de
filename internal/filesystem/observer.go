package filesystem

// Observer receives retry metrics. The metrics package implements it, which
// keeps this package free of a Prometheus dependency.
type Observer interface {
	ObserveRetryAttempt(op, volume string)
	ObserveRetrySuccess(op, volume string)
	ObserveRetryFailure(op, volume string)
	ObserveRetryDuration(op, volume string, seconds float64)
	ObserveStaleError(op, volume string)
}

// defaultObserver is nil in tests; recording is skipped then.
var defaultObserver Observer

// SetObserver installs the package-level observer. Call once at startup.
func SetObserver(o Observer) {
	defaultObserver = o
}

func observe() Observer {
	return defaultObserver
}
