package scanner

import (
	"context"
	"errors"
	"strings"

	"pixel-basket/internal/database"
	"pixel-basket/internal/mediatypes"
	"pixel-basket/internal/workers"
)

// Registry is the ordered set of installed plugins.
type Registry struct {
	plugins []Plugin
}

// NewRegistry installs plugins in the given order.
func NewRegistry(plugins ...Plugin) *Registry {
	return &Registry{plugins: plugins}
}

// DefaultRegistry installs the image, video, model, raw and psd plugins.
func DefaultRegistry() *Registry {
	return NewRegistry(NewImagePlugin(), NewVideoPlugin(), NewModelPlugin(), NewRawPlugin(), NewPSDPlugin())
}

// Names lists installed plugins in order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.plugins))
	for i, p := range r.plugins {
		names[i] = p.Name()
	}
	return names
}

// Classify reports whether any plugin claims the extension of path.
func (r *Registry) Classify(path string) bool {
	return len(r.PluginsFor(mediatypes.NormalizeExt(path))) > 0
}

// PluginsFor returns every plugin claiming ext, in install order.
func (r *Registry) PluginsFor(ext string) []Plugin {
	ext = mediatypes.NormalizeExt(ext)
	var out []Plugin
	for _, p := range r.plugins {
		if p.IsSupport(ext) {
			out = append(out, p)
		}
	}
	return out
}

// Dispatch hands task to every claiming plugin. The returned status
// succeeds when any of them succeeds. Without a claimant it resolves with
// ErrUnsupported.
func (r *Registry) Dispatch(ctx context.Context, task database.Task, sc *ScanContext) *TaskStatus {
	plugins := r.PluginsFor(task.Ext)
	switch len(plugins) {
	case 0:
		return Unsupported(task, "registry")
	case 1:
		return plugins[0].Scan(ctx, task, sc)
	}

	statuses := make([]*TaskStatus, len(plugins))
	names := make([]string, len(plugins))
	for i, p := range plugins {
		statuses[i] = p.Scan(ctx, task, sc)
		names[i] = p.Name()
	}

	fut, resolve := workers.NewFuture[Result]()
	go func() {
		var (
			best Result
			ok   bool
			errs []error
		)
		for _, s := range statuses {
			res, err := s.Wait()
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if !ok || res.Inserted {
				best, ok = res, true
			}
		}
		if ok {
			resolve(best, nil)
			return
		}
		resolve(Result{}, errors.Join(errs...))
	}()
	return &TaskStatus{Task: task, Plugin: strings.Join(names, "+"), future: fut}
}
