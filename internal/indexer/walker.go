package indexer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"pixel-basket/internal/database"
	"pixel-basket/internal/filesystem"
	"pixel-basket/internal/logging"
	"pixel-basket/internal/mediatypes"
)

// Classifier decides which files are worth a scan task.
type Classifier interface {
	Classify(path string) bool
}

// File is a classified file found by the walker.
type File struct {
	Path string
	Ext  string
}

// Discovery is the output of a walk. Folders have PID 0 and are sorted by
// path; files keep walk order.
type Discovery struct {
	Files   []File
	Folders []database.Folder
}

// Walker visits basket directories.
type Walker struct {
	classifier Classifier
	retry      filesystem.RetryConfig
	log        *logging.Logger
}

// NewWalker returns a walker that keeps the files c accepts.
func NewWalker(c Classifier, log *logging.Logger) *Walker {
	if log == nil {
		log = logging.With("")
	}
	return &Walker{classifier: c, retry: filesystem.DefaultRetryConfig(), log: log}
}

// Walk visits every root recursively. Entries whose name starts with "."
// are skipped. Unreadable directories are logged and skipped; a root that
// cannot be used is reported in the returned error while the other roots
// are still walked. Overlapping roots are visited once.
func (w *Walker) Walk(ctx context.Context, roots []string) (Discovery, error) {
	var (
		out     Discovery
		errs    []error
		seenDir = make(map[string]bool)
	)

	for _, root := range roots {
		root = filepath.Clean(root)
		info, err := filesystem.StatWithRetry(root, w.retry)
		if err != nil {
			errs = append(errs, fmt.Errorf("root %s: %w", root, err))
			continue
		}
		if !info.IsDir() {
			errs = append(errs, fmt.Errorf("root %s: not a directory", root))
			continue
		}

		stack := []string{root}
		for len(stack) > 0 {
			if err := ctx.Err(); err != nil {
				return out, err
			}

			dir := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if seenDir[dir] {
				continue
			}
			seenDir[dir] = true
			out.Folders = append(out.Folders, database.Folder{Name: filepath.Base(dir), Path: dir})

			entries, err := filesystem.ReadDirWithRetry(dir, w.retry)
			if err != nil {
				w.log.Warn("Skipping unreadable directory %s: %v", dir, err)
				continue
			}

			// push in reverse so subdirectories pop in name order
			for i := len(entries) - 1; i >= 0; i-- {
				e := entries[i]
				if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
					stack = append(stack, filepath.Join(dir, e.Name()))
				}
			}
			for _, e := range entries {
				name := e.Name()
				if strings.HasPrefix(name, ".") || e.IsDir() || !e.Type().IsRegular() {
					continue
				}
				path := filepath.Join(dir, name)
				if !w.classifier.Classify(path) {
					continue
				}
				out.Files = append(out.Files, File{Path: path, Ext: mediatypes.NormalizeExt(name)})
			}
		}
	}

	sort.Slice(out.Folders, func(i, j int) bool { return out.Folders[i].Path < out.Folders[j].Path })
	w.log.Debug("Walk found %d files in %d folders", len(out.Files), len(out.Folders))
	return out, errors.Join(errs...)
}
