package catalog

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"pixel-basket/internal/database"
	"pixel-basket/internal/indexer"
)

func newTestService(t *testing.T) (*Service, *database.Database) {
	t.Helper()
	db := setupTestDB(t)
	svc, err := NewService(db, Options{CacheDir: t.TempDir(), CPUWorkers: 2})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	t.Cleanup(svc.Close)
	return svc, db
}

func writePNG(t *testing.T, path string, c color.RGBA) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	img := image.NewRGBA(image.Rect(0, 0, 30, 20))
	for x := 0; x < 30; x++ {
		for y := 0; y < 20; y++ {
			img.SetRGBA(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func waitJob(t *testing.T, j *indexer.Job) indexer.Summary {
	t.Helper()
	s, err := j.Wait()
	if err != nil {
		t.Fatalf("job %s: %v", j.ID, err)
	}
	return s
}

func TestNewServiceRequiresCacheDir(t *testing.T) {
	db := setupTestDB(t)
	if _, err := NewService(db, Options{}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("got %v, want ErrInvalidArgument", err)
	}
}

func TestCreateBasketValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	file := filepath.Join(t.TempDir(), "f.png")
	writePNG(t, file, color.RGBA{1, 2, 3, 255})

	tests := []struct {
		name string
		dirs []string
	}{
		{"", []string{t.TempDir()}},
		{"empty", nil},
		{"missing", []string{filepath.Join(t.TempDir(), "nope")}},
		{"file", []string{file}},
	}
	for _, tt := range tests {
		if _, err := svc.CreateBasket(ctx, tt.name, tt.dirs); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("CreateBasket(%q, %v) = %v, want ErrInvalidArgument", tt.name, tt.dirs, err)
		}
	}
}

func TestCreateListDeleteBasket(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "red.png"), color.RGBA{255, 0, 0, 255})
	writePNG(t, filepath.Join(dir, "sub", "blue.png"), color.RGBA{0, 0, 255, 255})

	job, err := svc.CreateBasket(ctx, "colors", []string{dir})
	if err != nil {
		t.Fatal(err)
	}
	if s := waitJob(t, job); s.Inserted != 2 {
		t.Fatalf("summary %+v, want 2 inserted", s)
	}

	baskets, err := svc.ListBaskets(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(baskets) != 1 || baskets[0].Name != "colors" || len(baskets[0].Roots) != 1 || baskets[0].Roots[0] != dir {
		t.Fatalf("baskets = %+v", baskets)
	}
	id := baskets[0].ID

	folders, err := svc.ListFolders(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(folders) != 2 {
		t.Errorf("got %d folders, want 2", len(folders))
	}

	items, err := svc.ListItems(ctx, database.ItemFilter{BasketID: id})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	top, err := svc.ListItemsByDir(ctx, dir, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 1 || top[0].Name != "red" {
		t.Errorf("ListItemsByDir(non-recursive) = %+v", top)
	}
	all, err := svc.ListItemsByDir(ctx, dir, true)
	if err != nil || len(all) != 2 {
		t.Errorf("ListItemsByDir(recursive) = %d items, %v", len(all), err)
	}

	item, err := svc.GetItem(ctx, top[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if item.Shape != "3:2" || item.Colors == "" {
		t.Errorf("item = %+v", item)
	}

	res, err := svc.DeleteBasket(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if res.Folders != 2 || res.Thumbnails != 2 {
		t.Errorf("delete result = %+v", res)
	}
	stats, err := svc.CatalogStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Items != 0 || stats.Folders != 0 || stats.Baskets != 0 {
		t.Errorf("stats after delete = %+v", stats)
	}
}

func TestSoftDeleteItem(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), color.RGBA{9, 9, 9, 255})

	job, err := svc.CreateBasket(ctx, "one", []string{dir})
	if err != nil {
		t.Fatal(err)
	}
	waitJob(t, job)
	items, err := svc.ListItems(ctx, database.ItemFilter{})
	if err != nil || len(items) != 1 {
		t.Fatalf("ListItems = %d, %v", len(items), err)
	}

	if err := svc.SoftDeleteItem(ctx, items[0].ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetItem(ctx, items[0].ID); !database.IsNotFound(err) {
		t.Errorf("GetItem after soft delete = %v, want not found", err)
	}
	if err := svc.SoftDeleteItem(ctx, items[0].ID); !database.IsNotFound(err) {
		t.Errorf("second soft delete = %v, want not found", err)
	}
}

func TestRerunPendingTasks(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "p.png")
	writePNG(t, path, color.RGBA{0, 200, 0, 255})

	if _, err := db.EnqueueTasks(ctx, []database.Task{{Path: path, Ext: "png"}}); err != nil {
		t.Fatal(err)
	}
	pending, err := svc.PendingTasks(ctx)
	if err != nil || len(pending) != 1 {
		t.Fatalf("PendingTasks = %d, %v", len(pending), err)
	}

	job, err := svc.RerunPendingTasks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s := waitJob(t, job); s.Inserted != 1 {
		t.Errorf("summary = %+v", s)
	}
	if pending, _ := svc.PendingTasks(ctx); len(pending) != 0 {
		t.Errorf("%d tasks still pending", len(pending))
	}

	st := svc.Status()
	if st.Scanning || st.LastJobID != job.ID || st.LastJob == nil || st.LastJob.Inserted != 1 {
		t.Errorf("status = %+v", st)
	}
}

func TestRetryFailedTasks(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	if _, err := db.EnqueueTasks(ctx, []database.Task{{Path: "/gone/x.png", Ext: "png"}}); err != nil {
		t.Fatal(err)
	}
	tasks, _ := db.PendingTasks(ctx)
	if err := db.AbandonTask(ctx, tasks[0].ID, "boom"); err != nil {
		t.Fatal(err)
	}

	n, job, err := svc.RetryFailedTasks(ctx)
	if err != nil || n != 1 {
		t.Fatalf("RetryFailedTasks = (%d, %v)", n, err)
	}
	if s := waitJob(t, job); s.Failed != 1 {
		t.Errorf("summary = %+v", s)
	}
	failed, err := svc.FailedTasks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(failed) != 0 {
		t.Errorf("task failed again after one attempt: %+v", failed)
	}
}

func TestSettings(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.SetSetting(ctx, " ", "x"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("empty key = %v", err)
	}
	if err := svc.SetSetting(ctx, "theme", "dark"); err != nil {
		t.Fatal(err)
	}
	if v, err := svc.GetSetting(ctx, "theme"); err != nil || v != "dark" {
		t.Errorf("GetSetting = (%q, %v)", v, err)
	}
	all, err := svc.ListSettings(ctx)
	if err != nil || len(all) != 1 {
		t.Errorf("ListSettings = %v, %v", all, err)
	}
	if err := svc.DeleteSetting(ctx, "theme"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetSetting(ctx, "theme"); !database.IsNotFound(err) {
		t.Errorf("GetSetting after delete = %v", err)
	}
}

func TestIngestQueuesNewFiles(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "first.png"), color.RGBA{10, 20, 30, 255})
	job, err := svc.CreateBasket(ctx, "watched", []string{dir})
	if err != nil {
		t.Fatal(err)
	}
	waitJob(t, job)

	added := filepath.Join(dir, "new", "second.png")
	writePNG(t, added, color.RGBA{30, 20, 10, 255})
	n, ingest, err := svc.Ingest(ctx, []string{filepath.Dir(added), filepath.Join(dir, "readme.txt")})
	if err != nil || n != 1 || ingest == nil {
		t.Fatalf("Ingest = (%d, %v, %v), want one queued file and a job", n, ingest, err)
	}
	if s := waitJob(t, ingest); s.Inserted != 1 {
		t.Errorf("ingest summary = %+v", s)
	}

	roots, err := svc.WatchRoots(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(roots) != 2 {
		t.Errorf("watch roots = %v", roots)
	}

	items, err := svc.ListItems(ctx, database.ItemFilter{})
	if err != nil || len(items) != 2 {
		t.Errorf("got %d items, %v", len(items), err)
	}

	// nothing new to queue
	if n, j, err := svc.Ingest(ctx, []string{added}); err != nil || n != 0 || j != nil {
		t.Errorf("second Ingest = (%d, %v, %v)", n, j, err)
	}
}
