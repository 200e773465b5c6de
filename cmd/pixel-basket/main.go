package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"pixel-basket/internal/catalog"
	"pixel-basket/internal/database"
	"pixel-basket/internal/filesystem"
	"pixel-basket/internal/indexer"
	"pixel-basket/internal/logging"
	"pixel-basket/internal/media"
	"pixel-basket/internal/memory"
	"pixel-basket/internal/metrics"
	"pixel-basket/internal/startup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "pixel-basket",
	Short:         "Index media folders into a searchable catalog",
	SilenceUsage: true,
	Version:      startup.Version,
}

var (
	configFile string
	verbose    bool
)

// app is the catalog opened for one command. The caller must call Close.
type app struct {
	cfg     *startup.Config
	db      *database.Database
	svc     *catalog.Service
	monitor *memory.Monitor
	vips    bool
}

// loadConfig reads the configuration quietly for CLI commands. serve uses
// startup.LoadConfig instead, which also prints the banner.
func loadConfig() (*startup.Config, error) {
	file := configFile
	if file == "" {
		file = os.Getenv("CONFIG_FILE")
	}
	cfg, err := startup.Load(file)
	if err != nil {
		return nil, err
	}
	if !verbose && os.Getenv("LOG_LEVEL") == "" {
		logging.SetLevel(logging.LevelWarn)
	}
	if err := cfg.PrepareDirs(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openApp opens the catalog and starts the scan service. onProgress may be
// nil.
func openApp(ctx context.Context, cfg *startup.Config, onProgress func(indexer.Event)) (*app, error) {
	filesystem.SetObserver(metrics.NewFilesystemObserver())

	limit := memory.ApplyLimit(os.Getenv("GOMEMLIMIT"), cfg.MemoryLimit, cfg.MemoryRatio)

	a := &app{cfg: cfg}
	if cfg.VipsEnabled {
		if err := media.InitVips(); err != nil {
			logging.Warn("libvips unavailable: %v", err)
		} else {
			a.vips = true
		}
	}

	db, err := database.New(ctx, cfg.DatabasePath)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	a.db = db

	opts := catalog.Options{
		CacheDir:      cfg.CacheDir,
		CPUWorkers:    cfg.CPUWorkers,
		MaxAttempts:   cfg.TaskMaxAttempts,
		FFmpegTimeout: cfg.FFmpegTimeout,
		UseVips:       a.vips,
		OnProgress:    onProgress,
	}
	if limit.Configured() {
		a.monitor = memory.NewMonitor(memory.DefaultConfig())
		a.monitor.Start()
		opts.Throttle = a.monitor
	}

	svc, err := catalog.NewService(db, opts)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.svc = svc

	volumes := filesystem.NewVolumeResolver(map[string]string{"data": cfg.DataDir, "cache": cfg.CacheDir})
	if baskets, err := svc.ListBaskets(ctx); err == nil {
		for _, b := range baskets {
			for _, root := range b.Roots {
				volumes.Add("basket", root)
			}
		}
	}
	filesystem.SetDefaultVolumeResolver(volumes)
	return a, nil
}

// withApp loads the configuration, opens the catalog and runs fn.
func withApp(cmd *cobra.Command, onProgress func(indexer.Event), fn func(ctx context.Context, a *app) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := openApp(cmd.Context(), cfg, onProgress)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(cmd.Context(), a)
}

// Close stops the service, then releases the catalog and libvips.
func (a *app) Close() {
	if a.svc != nil {
		a.svc.Close()
	}
	if a.monitor != nil {
		a.monitor.Stop()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			logging.Warn("failed to close catalog: %v", err)
		}
	}
	if a.vips {
		media.ShutdownVips()
	}
}

// waitJob blocks until j finishes. On interrupt the service is closed,
// which cancels the job; tasks it did not reach stay pending.
func waitJob(ctx context.Context, a *app, j *indexer.Job) (indexer.Summary, error) {
	select {
	case <-j.Done():
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "\nInterrupted, finishing in-flight tasks...")
		a.svc.Close()
	}
	return j.Wait()
}

// confirm asks a yes/no question on a terminal. Without a terminal it
// returns false so scripts must pass --yes.
func confirm(in *os.File, out io.Writer, question string) bool {
	if !term.IsTerminal(int(in.Fd())) {
		return false
	}
	fmt.Fprintf(out, "%s [y/N] ", question)
	answer, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "TOML config file (default $CONFIG_FILE)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at info level")
	rootCmd.PersistentFlags().Bool("json", false, "Print listings as JSON")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(basketCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(itemCmd)
	rootCmd.AddCommand(settingCmd)
}
