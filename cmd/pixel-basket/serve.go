package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"pixel-basket/internal/handlers"
	"pixel-basket/internal/indexer"
	"pixel-basket/internal/logging"
	"pixel-basket/internal/metrics"
	"pixel-basket/internal/middleware"
	"pixel-basket/internal/startup"
	"pixel-basket/internal/watcher"
)

const (
	shutdownTimeout   = 30 * time.Second
	statsInterval     = time.Minute
	dbMetricsInterval = 30 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and watch basket folders",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	startTime := time.Now()
	ctx := cmd.Context()

	if configFile != "" {
		os.Setenv("CONFIG_FILE", configFile)
	}
	cfg, err := startup.LoadConfig()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	metrics.AppInfo.WithLabelValues(startup.Version, startup.Commit, startup.GoVersion).Set(1)

	// a finished job may have added folders worth watching
	resync := make(chan struct{}, 1)
	onProgress := func(e indexer.Event) {
		if e.Kind != indexer.EventDone {
			return
		}
		select {
		case resync <- struct{}{}:
		default:
		}
	}

	dbStart := time.Now()
	a, err := openApp(ctx, cfg, onProgress)
	if err != nil {
		return err
	}
	startup.LogDatabaseInit(time.Since(dbStart))
	startup.LogToolsInit(cfg.VipsEnabled)

	collector := metrics.NewCollector(a.svc, statsInterval)
	collector.Start()

	bgCtx, stopBackground := context.WithCancel(context.WithoutCancel(ctx))
	var bg sync.WaitGroup
	bg.Add(1)
	go func() {
		defer bg.Done()
		refreshDBMetrics(bgCtx, a)
	}()

	watched := 0
	if cfg.WatchEnabled {
		w, err := newWatcher(a, cfg.WatchDebounce)
		if err != nil {
			stopBackground()
			collector.Stop()
			a.Close()
			return err
		}
		if watched, err = w.Sync(bgCtx); err != nil {
			logging.Warn("Failed to watch basket folders: %v", err)
		}
		bg.Add(2)
		go func() {
			defer bg.Done()
			if err := w.Run(bgCtx); err != nil {
				logging.Error("Watcher stopped: %v", err)
			}
		}()
		go func() {
			defer bg.Done()
			resyncLoop(bgCtx, w, resync)
		}()
	}

	resumePending(ctx, a)

	h := handlers.New(a.svc)
	if a.monitor != nil {
		h.WithMemory(a.monitor)
	}
	router := h.Router()
	router.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
	startup.LogHTTPRoutes(router, cfg.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = cfg.LogHealthChecks

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      middleware.Logger(loggingConfig)(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	startup.LogServerStarted(startup.ServerConfig{
		Port:            cfg.Port,
		WatchEnabled:    cfg.WatchEnabled,
		WatchedDirs:     watched,
		StartupDuration: time.Since(startTime),
	})

	var runErr error
	select {
	case <-ctx.Done():
		startup.LogShutdownInitiated("interrupt")
	case runErr = <-serveErr:
		startup.LogShutdownInitiated("server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("HTTP server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Stopping watcher and collectors")
	stopBackground()
	bg.Wait()
	collector.Stop()
	startup.LogShutdownStepComplete("Background workers stopped")

	startup.LogShutdownStep("Stopping scan jobs")
	a.Close()
	startup.LogShutdownStepComplete("Catalog closed")

	startup.LogShutdownComplete()
	return runErr
}

// newWatcher feeds created files into the catalog as pending tasks.
func newWatcher(a *app, debounce time.Duration) (*watcher.Watcher, error) {
	return watcher.New(watcher.Config{
		Roots: a.svc.WatchRoots,
		Flush: func(ctx context.Context, paths []string) error {
			n, _, err := a.svc.Ingest(ctx, paths)
			if err == nil && n > 0 {
				logging.Info("Queued %d new files from basket folders", n)
			}
			return err
		},
		Debounce: debounce,
	})
}

func resyncLoop(ctx context.Context, w *watcher.Watcher, resync <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-resync:
			n, err := w.Sync(ctx)
			if err != nil {
				logging.Warn("Failed to refresh watched folders: %v", err)
			} else if n > 0 {
				logging.Info("Watching %d more folders (%d total)", n, w.Watched())
			}
		}
	}
}

func refreshDBMetrics(ctx context.Context, a *app) {
	a.db.UpdateDBMetrics()
	ticker := time.NewTicker(dbMetricsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.db.UpdateDBMetrics()
		}
	}
}

// resumePending restarts tasks left pending by an earlier run.
func resumePending(ctx context.Context, a *app) {
	pending, err := a.svc.PendingTasks(ctx)
	if err != nil {
		logging.Warn("Failed to read pending tasks: %v", err)
		return
	}
	if len(pending) == 0 {
		return
	}
	j, err := a.svc.RerunPendingTasks(ctx)
	if err != nil {
		logging.Warn("Failed to resume pending tasks: %v", err)
		return
	}
	logging.Info("Resuming %d pending tasks (job %s)", len(pending), j.ID)
}
