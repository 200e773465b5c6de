package metrics

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeProvider struct {
	stats CatalogStats
	err   error
	calls atomic.Int32
}

func (f *fakeProvider) CatalogStats(ctx context.Context) (CatalogStats, error) {
	f.calls.Add(1)
	return f.stats, f.err
}

func TestCollectorCollect(t *testing.T) {
	p := &fakeProvider{stats: CatalogStats{Items: 12, Folders: 4, Baskets: 2, PendingTasks: 3, FailedTasks: 1}}
	c := NewCollector(p, time.Hour)
	c.Collect()

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"items", testutil.ToFloat64(CatalogItems), 12},
		{"folders", testutil.ToFloat64(CatalogFolders), 4},
		{"baskets", testutil.ToFloat64(CatalogBaskets), 2},
		{"pending", testutil.ToFloat64(TasksPending), 3},
		{"failed", testutil.ToFloat64(TasksFailed), 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s gauge = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestCollectorKeepsGaugesOnError(t *testing.T) {
	CatalogItems.Set(5)
	p := &fakeProvider{err: errors.New("db closed")}
	NewCollector(p, time.Hour).Collect()

	if got := testutil.ToFloat64(CatalogItems); got != 5 {
		t.Errorf("items gauge changed on error: %v", got)
	}
	if n := p.calls.Load(); n != 1 {
		t.Errorf("provider called %d times, want 1", n)
	}
}

func TestCollectorNilProvider(t *testing.T) {
	NewCollector(nil, 0).Collect()
}

func TestCollectorStartStop(t *testing.T) {
	p := &fakeProvider{}
	c := NewCollector(p, 5*time.Millisecond)
	c.Start()
	time.Sleep(30 * time.Millisecond)
	c.Stop()
	if p.calls.Load() == 0 {
		t.Error("collector never polled the provider")
	}
}

func TestFilesystemObserver(t *testing.T) {
	o := NewFilesystemObserver()
	before := testutil.ToFloat64(FilesystemStaleErrors.WithLabelValues("stat", "library"))
	o.ObserveStaleError("stat", "library")
	after := testutil.ToFloat64(FilesystemStaleErrors.WithLabelValues("stat", "library"))
	if after != before+1 {
		t.Errorf("stale errors = %v, want %v", after, before+1)
	}
}

func TestInitializeMetrics(t *testing.T) {
	InitializeMetrics([]string{"image", "video"})
	if got := testutil.ToFloat64(TaskResults.WithLabelValues("image", "success")); got < 0 {
		t.Errorf("unexpected counter value %v", got)
	}
}
