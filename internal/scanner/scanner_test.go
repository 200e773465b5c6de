package scanner

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"pixel-basket/internal/database"
	"pixel-basket/internal/workers"
)

// memStore is an in-memory Store keyed by fingerprint.
type memStore struct {
	mu    sync.Mutex
	items map[string]database.Metadata
	calls atomic.Int32
}

func newMemStore() *memStore {
	return &memStore{items: map[string]database.Metadata{}}
}

func (s *memStore) FingerprintExists(_ context.Context, sha1 string) (bool, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[sha1]
	return ok, nil
}

func (s *memStore) InsertMetadata(_ context.Context, m *database.Metadata) (bool, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[m.SHA1]; ok {
		return false, nil
	}
	s.items[m.SHA1] = *m
	return true, nil
}

func (s *memStore) only(t *testing.T) database.Metadata {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) != 1 {
		t.Fatalf("store has %d items, want 1", len(s.items))
	}
	for _, m := range s.items {
		return m
	}
	return database.Metadata{}
}

func newTestContext(t *testing.T, store Store) *ScanContext {
	t.Helper()
	cpu := workers.NewPool("cpu", 2)
	io := workers.NewPool("io", 1)
	t.Cleanup(func() {
		cpu.Close()
		io.Close()
	})

	var next atomic.Int64
	sc := NewScanContext(cpu, io, t.TempDir(), store)
	sc.NextID = func() int64 { return next.Add(1) }
	return sc
}

func writeJPEG(t *testing.T, path string, w, h int, seed uint8) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x) + seed, G: uint8(y), B: seed, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func task(path string) database.Task {
	return database.Task{ID: 1, Path: path, Ext: strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")}
}

func TestRegistryClassify(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		path string
		want bool
	}{
		{"/a/photo.JPG", true},
		{"/a/clip.webm", true},
		{"/a/mesh.obj", true},
		{"/a/DSC_0001.NEF", true},
		{"/a/layers.psd", true},
		{"/a/notes.txt", false},
		{"/a/Makefile", false},
	}
	for _, tt := range tests {
		if got := r.Classify(tt.path); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}

	if got := r.Names(); strings.Join(got, ",") != "image,video,model,raw,psd" {
		t.Errorf("Names() = %v", got)
	}
	if ps := r.PluginsFor("psd"); len(ps) != 1 || ps[0].Name() != "psd" {
		t.Errorf("PluginsFor(psd) = %v", ps)
	}
}

func TestDispatchUnsupported(t *testing.T) {
	store := newMemStore()
	sc := newTestContext(t, store)

	_, err := DefaultRegistry().Dispatch(context.Background(), task("/a/notes.txt"), sc).Wait()
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("Dispatch() error = %v, want ErrUnsupported", err)
	}
}

func TestPluginIgnoresForeignExtension(t *testing.T) {
	store := newMemStore()
	sc := newTestContext(t, store)

	_, err := NewVideoPlugin().Scan(context.Background(), task("/a/photo.jpg"), sc).Wait()
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("Scan() error = %v, want ErrUnsupported", err)
	}
	if store.calls.Load() != 0 {
		t.Error("unsupported scan touched the store")
	}
}

func TestImagePluginScan(t *testing.T) {
	store := newMemStore()
	sc := newTestContext(t, store)

	path := filepath.Join(t.TempDir(), "Beach.JPG")
	writeJPEG(t, path, 400, 300, 0)

	res, err := DefaultRegistry().Dispatch(context.Background(), task(path), sc).Wait()
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if !res.Inserted || res.ItemID == 0 {
		t.Fatalf("result = %+v", res)
	}

	m := store.only(t)
	if m.Width != 400 || m.Height != 300 || m.Shape != "4:3" || m.Name != "Beach" || m.Ext != "jpg" {
		t.Errorf("metadata = %+v", m)
	}
	if n := len(strings.Split(m.Colors, ",")); n != 8 {
		t.Errorf("got %d colors, want 8", n)
	}
	if _, err := os.Stat(m.Thumbnail); err != nil {
		t.Errorf("thumbnail missing: %v", err)
	}
	if !strings.HasPrefix(m.Thumbnail, sc.CacheDir) {
		t.Errorf("thumbnail %s outside cache %s", m.Thumbnail, sc.CacheDir)
	}
}

func TestScanSkipsDuplicateContent(t *testing.T) {
	store := newMemStore()
	sc := newTestContext(t, store)

	dir := t.TempDir()
	first := filepath.Join(dir, "a.jpg")
	writeJPEG(t, first, 50, 40, 7)
	data, err := os.ReadFile(first)
	if err != nil {
		t.Fatal(err)
	}
	second := filepath.Join(dir, "copy-of-a.jpg")
	if err := os.WriteFile(second, data, 0o644); err != nil {
		t.Fatal(err)
	}

	r := DefaultRegistry()
	if _, err := r.Dispatch(context.Background(), task(first), sc).Wait(); err != nil {
		t.Fatal(err)
	}
	res, err := r.Dispatch(context.Background(), task(second), sc).Wait()
	if err != nil {
		t.Fatal(err)
	}
	if !res.Duplicate || res.Inserted {
		t.Errorf("second scan result = %+v, want duplicate", res)
	}
	store.only(t)

	thumbs, _ := os.ReadDir(filepath.Join(sc.CacheDir, "thumbnails"))
	if len(thumbs) != 1 {
		t.Errorf("got %d thumbnails, want 1", len(thumbs))
	}
}

func TestScanCorruptImageFails(t *testing.T) {
	store := newMemStore()
	sc := newTestContext(t, store)

	path := filepath.Join(t.TempDir(), "broken.png")
	if err := os.WriteFile(path, []byte("not really a png"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := DefaultRegistry().Dispatch(context.Background(), task(path), sc).Wait(); err == nil {
		t.Fatal("expected decode error")
	}
	if len(store.items) != 0 {
		t.Error("corrupt file produced a row")
	}
	if thumbs, _ := os.ReadDir(filepath.Join(sc.CacheDir, "thumbnails")); len(thumbs) != 0 {
		t.Errorf("corrupt file left %d thumbnails", len(thumbs))
	}
}

func TestModelPluginRecordsFileFacts(t *testing.T) {
	store := newMemStore()
	sc := newTestContext(t, store)

	path := filepath.Join(t.TempDir(), "cube.obj")
	if err := os.WriteFile(path, []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := DefaultRegistry().Dispatch(context.Background(), task(path), sc).Wait()
	if err != nil || !res.Inserted {
		t.Fatalf("Dispatch() = (%+v, %v)", res, err)
	}
	m := store.only(t)
	if m.Thumbnail != "" || m.Colors != "" || m.Shape != "" || m.Size != 32 {
		t.Errorf("metadata = %+v", m)
	}
}

func TestScanCancelledBeforeStart(t *testing.T) {
	store := newMemStore()
	sc := newTestContext(t, store)

	path := filepath.Join(t.TempDir(), "a.jpg")
	writeJPEG(t, path, 10, 10, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := DefaultRegistry().Dispatch(ctx, task(path), sc).Wait()
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Dispatch() error = %v, want context.Canceled", err)
	}
}

// stubPlugin claims every extension and resolves with a fixed outcome.
type stubPlugin struct {
	name string
	res  Result
	err  error
}

func (p stubPlugin) Name() string { return p.name }
func (p stubPlugin) IsSupport(string) bool { return true }

func (p stubPlugin) Scan(_ context.Context, task database.Task, _ *ScanContext) *TaskStatus {
	return &TaskStatus{Task: task, Plugin: p.name, future: workers.Resolved(p.res, p.err)}
}

func TestDispatchFanOut(t *testing.T) {
	sc := newTestContext(t, newMemStore())
	boom := errors.New("boom")

	tests := []struct {
		name    string
		plugins []Plugin
		wantErr bool
		want    Result
	}{
		{
			name:    "any success wins",
			plugins: []Plugin{stubPlugin{name: "a", err: boom}, stubPlugin{name: "b", res: Result{Inserted: true, ItemID: 9}}},
			want:    Result{Inserted: true, ItemID: 9},
		},
		{
			name:    "insert preferred over duplicate",
			plugins: []Plugin{stubPlugin{name: "a", res: Result{Duplicate: true}}, stubPlugin{name: "b", res: Result{Inserted: true, ItemID: 3}}},
			want:    Result{Inserted: true, ItemID: 3},
		},
		{
			name:    "all fail",
			plugins: []Plugin{stubPlugin{name: "a", err: boom}, stubPlugin{name: "b", err: boom}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := NewRegistry(tt.plugins...).Dispatch(context.Background(), task("/a/x.bin"), sc)
			if status.Plugin != "a+b" {
				t.Errorf("Plugin = %q", status.Plugin)
			}
			res, err := status.Wait()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Wait() error = %v", err)
			}
			if tt.wantErr {
				if !errors.Is(err, boom) {
					t.Errorf("error %v does not wrap boom", err)
				}
				return
			}
			if res != tt.want {
				t.Errorf("Wait() = %+v, want %+v", res, tt.want)
			}
		})
	}
}
