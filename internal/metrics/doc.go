// Package metrics declares the Prometheus instrumentation for pixel-basket.
//
// All metrics are registered with promauto at package init and prefixed with
// "pixel_basket_". They fall into five groups:
//
//   - HTTP: request counts, latency and in-flight requests (middleware).
//   - Database: query counts and latency by operation, transaction latency.
//   - Scan jobs: runs, duration, stage errors, files discovered.
//   - Tasks: dispatches and outcomes per plugin, pending and failed queue
//     size, duplicates skipped, thumbnails written, decoder and ffmpeg use.
//   - Filesystem: ESTALE retry behaviour, recorded through the observer
//     returned by NewFilesystemObserver.
//
// The Collector polls a StatsProvider (the catalog service) for row counts
// that are too expensive to track incrementally.
package metrics
