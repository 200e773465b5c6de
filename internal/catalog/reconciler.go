package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"pixel-basket/internal/database"
	"pixel-basket/internal/logging"
)

// Reconciler merges walked folders and basket roots into the shared folder
// tree and removes baskets without touching what other baskets still see.
type Reconciler struct {
	db  *database.Database
	log *logging.Logger
}

// NewReconciler returns a Reconciler writing to db.
func NewReconciler(db *database.Database) *Reconciler {
	return &Reconciler{db: db, log: logging.With("reconciler")}
}

// SaveFolders inserts folders missing from the tree and links each one to
// its parent when the parent is known. Existing folders with an unresolved
// parent are healed. Folders are processed by path so parents come first.
func (r *Reconciler) SaveFolders(ctx context.Context, folders []database.Folder) error {
	sorted := append([]database.Folder(nil), folders...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	var inserted, healed int
	err := r.db.InBatch(ctx, func(b *database.Batch) error {
		for _, f := range sorted {
			pid, err := parentID(ctx, b, f.Path)
			if err != nil {
				return err
			}

			existing, err := database.FolderByPath(ctx, b, f.Path)
			switch {
			case err == nil:
				if existing.PID != 0 || pid == 0 {
					continue
				}
				ok, err := database.SetFolderParent(ctx, b, existing.ID, pid)
				if err != nil {
					return err
				}
				if ok {
					healed++
				}
			case database.IsNotFound(err):
				name := f.Name
				if name == "" {
					name = filepath.Base(f.Path)
				}
				if _, err := database.InsertFolder(ctx, b, database.Folder{PID: pid, Name: name, Path: f.Path}); err != nil {
					return err
				}
				inserted++
			default:
				return fmt.Errorf("look up folder %s: %w", f.Path, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save folders: %w", err)
	}
	r.log.Debug("Saved folders: %d new, %d healed", inserted, healed)
	return nil
}

func parentID(ctx context.Context, q database.Querier, path string) (int64, error) {
	parent := filepath.Dir(path)
	if parent == path {
		return 0, nil
	}
	p, err := database.FolderByPath(ctx, q, parent)
	if database.IsNotFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("look up parent of %s: %w", path, err)
	}
	return p.ID, nil
}

// SaveBasket creates the basket if needed and links every root that exists
// in the folder tree. Roots the walk could not record are skipped.
func (r *Reconciler) SaveBasket(ctx context.Context, name string, roots []string) (int64, error) {
	var id int64
	err := r.db.InBatch(ctx, func(b *database.Batch) error {
		basket, err := database.BasketByName(ctx, b, name)
		switch {
		case err == nil:
			id = basket.ID
		case database.IsNotFound(err):
			if id, err = database.InsertBasket(ctx, b, name); err != nil {
				return err
			}
		default:
			return fmt.Errorf("look up basket %q: %w", name, err)
		}

		for _, root := range roots {
			folder, err := database.FolderByPath(ctx, b, filepath.Clean(root))
			if database.IsNotFound(err) {
				r.log.Warn("Basket %q root %s is not in the folder tree", name, root)
				continue
			}
			if err != nil {
				return fmt.Errorf("look up root %s: %w", root, err)
			}
			if _, err := database.LinkBasketFolder(ctx, b, id, folder.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("save basket %q: %w", name, err)
	}
	return id, nil
}

// DeleteResult reports what DeleteBasket removed.
type DeleteResult struct {
	Tasks      int64 `json:"tasks"`
	Folders    int64 `json:"folders"`
	Thumbnails int   `json:"thumbnails"`
}

// DeleteBasket removes a basket in one transaction: items under its
// exclusive roots (except directories another basket reaches), their
// queued tasks, the folders only it reaches, then its links and row.
// Thumbnail files of removed items are deleted after commit.
func (r *Reconciler) DeleteBasket(ctx context.Context, id int64) (DeleteResult, error) {
	var (
		res    DeleteResult
		thumbs []string
	)
	err := r.db.InBatch(ctx, func(b *database.Batch) error {
		exclusive, err := database.ExclusiveRoots(ctx, b, id)
		if err != nil {
			return fmt.Errorf("find exclusive roots: %w", err)
		}
		keep, err := database.OtherBasketPaths(ctx, b, id)
		if err != nil {
			return fmt.Errorf("find folders of other baskets: %w", err)
		}

		roots := make([]string, 0, len(exclusive))
		for _, f := range exclusive {
			if !keep[f.Path] {
				roots = append(roots, f.Path)
			}
		}

		if thumbs, err = database.DeleteItemsUnder(ctx, b, roots, keep); err != nil {
			return err
		}
		if res.Tasks, err = database.DeleteTasksUnder(ctx, b, roots, keep); err != nil {
			return err
		}
		if res.Folders, err = database.DeleteBasketFolders(ctx, b, id); err != nil {
			return err
		}
		if _, err := database.DetachOrphanFolders(ctx, b); err != nil {
			return err
		}
		return database.DeleteBasket(ctx, b, id)
	})
	if err != nil {
		return DeleteResult{}, err
	}

	for _, t := range thumbs {
		if err := os.Remove(t); err != nil && !os.IsNotExist(err) {
			r.log.Warn("Failed to remove thumbnail %s: %v", t, err)
			continue
		}
		res.Thumbnails++
	}
	return res, nil
}
