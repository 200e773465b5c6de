package database

import (
	"context"
	"fmt"

	"pixel-basket/internal/metrics"
)

// CatalogStats counts live items, folders, baskets and queued tasks.
func (d *Database) CatalogStats(ctx context.Context) (metrics.CatalogStats, error) {
	var s metrics.CatalogStats
	counts := []struct {
		dest  *int64
		query string
		args  []any
	}{
		{&s.Items, `SELECT COUNT(*) FROM metadata WHERE is_del = 0`, nil},
		{&s.Folders, `SELECT COUNT(*) FROM folder`, nil},
		{&s.Baskets, `SELECT COUNT(*) FROM basket`, nil},
		{&s.PendingTasks, `SELECT COUNT(*) FROM task WHERE status = ?`, []any{TaskPending}},
		{&s.FailedTasks, `SELECT COUNT(*) FROM task WHERE status = ?`, []any{TaskFailed}},
	}
	for _, c := range counts {
		n, err := countOn(ctx, d.db, "catalog_stats", c.query, c.args...)
		if err != nil {
			return s, fmt.Errorf("failed to collect catalog stats: %w", err)
		}
		*c.dest = n
	}
	return s, nil
}
