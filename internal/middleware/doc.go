// Package middleware provides HTTP middleware for the catalog API.
//
// [Logger] writes one W3C-style line per request through the logging
// package; [Metrics] records Prometheus request counters labelled by the
// matched mux route.
//
//	r := h.Router()
//	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
//	handler := middleware.Logger(middleware.DefaultLoggingConfig())(r)
package middleware
