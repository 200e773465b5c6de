package scanner

import (
	"context"
	"fmt"
	"image"
	"os"
	"time"

	"pixel-basket/internal/database"
	"pixel-basket/internal/logging"
	"pixel-basket/internal/media"
	"pixel-basket/internal/metrics"
	"pixel-basket/internal/workers"
)

// decoded is what a family decoder hands to the shared pipeline. img is nil
// for families without a visual (3D models).
type decoded struct {
	img      image.Image
	width    int
	height   int
	exif     string
	duration int64
}

type decodeFunc func(ctx context.Context, path, ext string, sc *ScanContext) (decoded, error)

// familyPlugin is a Plugin made of an extension family and a decoder.
type familyPlugin struct {
	name   string
	claims func(ext string) bool
	decode decodeFunc
}

func (p *familyPlugin) Name() string { return p.name }

func (p *familyPlugin) IsSupport(ext string) bool { return p.claims(ext) }

func (p *familyPlugin) Scan(ctx context.Context, task database.Task, sc *ScanContext) *TaskStatus {
	if !p.IsSupport(task.Ext) {
		return Unsupported(task, p.name)
	}

	metrics.TasksDispatched.WithLabelValues(p.name).Inc()
	fut := workers.Submit(sc.CPU, func() (Result, error) {
		start := time.Now()
		res, err := scanFile(ctx, task, sc, p.decode)
		metrics.TaskDuration.WithLabelValues(p.name).Observe(time.Since(start).Seconds())

		outcome := "inserted"
		switch {
		case err != nil:
			outcome = "error"
		case res.Duplicate:
			outcome = "duplicate"
		}
		metrics.TaskResults.WithLabelValues(p.name, outcome).Inc()
		return res, err
	})
	return &TaskStatus{Task: task, Plugin: p.name, future: fut}
}

// scanFile runs on the CPU pool. Store calls block on the I/O pool so the
// result is persisted before the status resolves.
func scanFile(ctx context.Context, task database.Task, sc *ScanContext, decode decodeFunc) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	// work that started finishes even if the job is cancelled
	persistCtx := context.WithoutCancel(ctx)

	facts, err := media.Inspect(task.Path)
	if err != nil {
		return Result{}, err
	}

	dup, err := workers.SubmitAndWait(sc.IO, func() (bool, error) {
		return sc.Store.FingerprintExists(persistCtx, facts.SHA1)
	})
	if err != nil {
		return Result{}, fmt.Errorf("dedup check: %w", err)
	}
	if dup {
		metrics.DuplicatesSkipped.Inc()
		logging.Debug("Skipping %s: content already indexed", task.Path)
		return Result{Duplicate: true}, nil
	}

	d, err := decode(ctx, task.Path, facts.Ext, sc)
	if err != nil {
		return Result{}, err
	}

	meta := database.Metadata{
		ID:       sc.nextID(),
		FullPath: facts.FullPath,
		Dir:      facts.Dir,
		Name:     facts.Name,
		Ext:      facts.Ext,
		Size:     facts.Size,
		Created:  media.FormatTime(facts.Created),
		Modified: media.FormatTime(facts.Modified),
		Added:    media.FormatTime(sc.now()),
		SHA1:     facts.SHA1,
		Width:    d.width,
		Height:   d.height,
		Duration: d.duration,
		EXIF:     d.exif,
	}

	if d.img != nil {
		if meta.Width == 0 || meta.Height == 0 {
			b := d.img.Bounds()
			meta.Width, meta.Height = b.Dx(), b.Dy()
		}
		thumb := media.Thumbnail(d.img)
		meta.Thumbnail, err = media.WriteThumbnail(sc.CacheDir, meta.ID, thumb)
		if err != nil {
			return Result{}, err
		}
		meta.Colors = media.Palette(thumb)
		meta.Shape = media.AspectRatio(meta.Width, meta.Height)
	}

	inserted, err := workers.SubmitAndWait(sc.IO, func() (bool, error) {
		return sc.Store.InsertMetadata(persistCtx, &meta)
	})
	if err != nil || !inserted {
		removeThumbnail(meta.Thumbnail)
	}
	if err != nil {
		return Result{}, fmt.Errorf("persist: %w", err)
	}
	if !inserted {
		// another task stored the same content in the meantime
		metrics.DuplicatesSkipped.Inc()
		return Result{Duplicate: true}, nil
	}
	return Result{ItemID: meta.ID, Inserted: true}, nil
}

func removeThumbnail(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logging.Warn("failed to remove thumbnail %s: %v", path, err)
	}
}
