package metrics

import (
	"context"
	"time"

	"pixel-basket/internal/logging"
)

// CatalogStats is a point-in-time count of catalog rows.
type CatalogStats struct {
	Items        int64 `json:"items"`
	Folders      int64 `json:"folders"`
	Baskets      int64 `json:"baskets"`
	PendingTasks int64 `json:"pendingTasks"`
	FailedTasks  int64 `json:"failedTasks"`
}

// StatsProvider supplies catalog counts to the collector.
type StatsProvider interface {
	CatalogStats(ctx context.Context) (CatalogStats, error)
}

// Collector refreshes the catalog gauges on an interval.
type Collector struct {
	provider StatsProvider
	interval time.Duration
	stopChan chan struct{}
}

// NewCollector creates a collector; call Start to begin polling.
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Collector{
		provider: provider,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the collection loop in the background.
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop ends the collection loop.
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.Collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Collect()
		case <-c.stopChan:
			return
		}
	}
}

// Collect refreshes the gauges once.
func (c *Collector) Collect() {
	if c.provider == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats, err := c.provider.CatalogStats(ctx)
	if err != nil {
		logging.Warn("metrics: failed to collect catalog stats: %v", err)
		return
	}

	CatalogItems.Set(float64(stats.Items))
	CatalogFolders.Set(float64(stats.Folders))
	CatalogBaskets.Set(float64(stats.Baskets))
	TasksPending.Set(float64(stats.PendingTasks))
	TasksFailed.Set(float64(stats.FailedTasks))
}
