package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"pixel-basket/internal/snowflake"
)

// BasketByName looks a basket up by name.
func BasketByName(ctx context.Context, q Querier, name string) (Basket, error) {
	return getOne(ctx, q, "basket_by_name", scanBasket, `SELECT id, name FROM basket WHERE name = ?`, name)
}

// InsertBasket creates a basket and returns its id.
func InsertBasket(ctx context.Context, q Querier, name string) (int64, error) {
	id, err := getOne(ctx, q, "insert_basket", scanID,
		`INSERT INTO basket (id, name) VALUES (?, ?) RETURNING id`, snowflake.NextID(), name)
	if err != nil {
		return 0, fmt.Errorf("failed to create basket %q: %w", name, err)
	}
	return id, nil
}

// LinkBasketFolder associates a root folder with a basket. It reports
// whether a new link was created.
func LinkBasketFolder(ctx context.Context, q Querier, basketID, folderID int64) (bool, error) {
	n, err := execOn(ctx, q, "link_basket_folder",
		`INSERT INTO basket_folder (id, basket_id, folder_id) VALUES (?, ?, ?) ON CONFLICT(basket_id, folder_id) DO NOTHING`,
		snowflake.NextID(), basketID, folderID)
	if err != nil {
		return false, fmt.Errorf("failed to link folder %d to basket %d: %w", folderID, basketID, err)
	}
	return n > 0, nil
}

func scanBasket(row RowScanner) (Basket, error) {
	var b Basket
	err := row.Scan(&b.ID, &b.Name)
	return b, err
}

// GetBasket returns a basket with its root paths.
func (d *Database) GetBasket(ctx context.Context, id int64) (Basket, error) {
	b, err := getOne(ctx, d.db, "get_basket", scanBasket, `SELECT id, name FROM basket WHERE id = ?`, id)
	if err != nil {
		return Basket{}, err
	}
	roots, err := BasketRoots(ctx, d.db, id)
	if err != nil {
		return Basket{}, fmt.Errorf("failed to load roots of basket %d: %w", id, err)
	}
	for _, r := range roots {
		b.Roots = append(b.Roots, r.Path)
	}
	return b, nil
}

type basketRoot struct {
	id   int64
	name string
	root sql.NullString
}

// ListBaskets returns every basket with its root paths, ordered by id.
func (d *Database) ListBaskets(ctx context.Context) ([]Basket, error) {
	rows, err := selectOn(ctx, d.db, "list_baskets", func(r RowScanner) (basketRoot, error) {
		var br basketRoot
		err := r.Scan(&br.id, &br.name, &br.root)
		return br, err
	}, `
		SELECT b.id, b.name, f.path FROM basket b
		LEFT JOIN basket_folder bf ON bf.basket_id = b.id
		LEFT JOIN folder f ON f.id = bf.folder_id
		ORDER BY b.id, f.path`)
	if err != nil {
		return nil, fmt.Errorf("failed to list baskets: %w", err)
	}

	var baskets []Basket
	for _, r := range rows {
		if len(baskets) == 0 || baskets[len(baskets)-1].ID != r.id {
			baskets = append(baskets, Basket{ID: r.id, Name: r.name})
		}
		if r.root.Valid {
			last := &baskets[len(baskets)-1]
			last.Roots = append(last.Roots, r.root.String)
		}
	}
	return baskets, nil
}

// ExclusiveRoots returns the roots of a basket that no other basket links.
func ExclusiveRoots(ctx context.Context, q Querier, basketID int64) ([]Folder, error) {
	return selectOn(ctx, q, "exclusive_roots", scanFolder, `
		SELECT f.id, f.pid, f.name, f.path FROM folder f
		JOIN basket_folder bf ON bf.folder_id = f.id
		WHERE bf.basket_id = ?
		  AND (SELECT COUNT(*) FROM basket_folder x WHERE x.folder_id = f.id) = 1
		ORDER BY f.path`, basketID)
}

// OtherBasketPaths returns the paths of every folder reachable from a
// basket other than basketID.
func OtherBasketPaths(ctx context.Context, q Querier, basketID int64) (map[string]bool, error) {
	paths, err := selectOn(ctx, q, "other_basket_paths", func(r RowScanner) (string, error) {
		var p string
		err := r.Scan(&p)
		return p, err
	}, `
		WITH RECURSIVE others(id, path) AS (
			SELECT f.id, f.path FROM folder f
			JOIN basket_folder bf ON bf.folder_id = f.id
			WHERE bf.basket_id != ?
			UNION
			SELECT c.id, c.path FROM folder c
			JOIN others p ON c.pid = p.id
		)
		SELECT path FROM others`, basketID)
	if err != nil {
		return nil, err
	}
	keep := make(map[string]bool, len(paths))
	for _, p := range paths {
		keep[p] = true
	}
	return keep, nil
}

type itemRef struct {
	id        int64
	dir       string
	thumbnail string
}

// DeleteItemsUnder physically removes metadata rows, deleted or not, whose
// directory is a root or lies below one, skipping directories in keep. It
// returns the thumbnail paths of the removed rows.
func DeleteItemsUnder(ctx context.Context, q Querier, roots []string, keep map[string]bool) ([]string, error) {
	var thumbs []string
	for _, root := range roots {
		refs, err := selectOn(ctx, q, "items_under", func(r RowScanner) (itemRef, error) {
			var ref itemRef
			err := r.Scan(&ref.id, &ref.dir, &ref.thumbnail)
			return ref, err
		}, `SELECT id, dir, thumbnail FROM metadata WHERE dir = ? OR dir LIKE ? ESCAPE '\'`, root, likePrefix(root))
		if err != nil {
			return thumbs, fmt.Errorf("failed to find items under %s: %w", root, err)
		}

		for _, ref := range refs {
			if keep[ref.dir] {
				continue
			}
			if _, err := execOn(ctx, q, "delete_item", `DELETE FROM metadata WHERE id = ?`, ref.id); err != nil {
				return thumbs, fmt.Errorf("failed to delete item %d: %w", ref.id, err)
			}
			if ref.thumbnail != "" {
				thumbs = append(thumbs, ref.thumbnail)
			}
		}
	}
	return thumbs, nil
}

// DeleteTasksUnder removes queued tasks for files below any of roots,
// except files whose directory is in keep.
func DeleteTasksUnder(ctx context.Context, q Querier, roots []string, keep map[string]bool) (int64, error) {
	var deleted int64
	for _, root := range roots {
		tasks, err := selectOn(ctx, q, "tasks_under", scanTask,
			`SELECT `+taskColumns+` FROM task WHERE path LIKE ? ESCAPE '\'`, likePrefix(root))
		if err != nil {
			return deleted, fmt.Errorf("failed to find tasks under %s: %w", root, err)
		}
		for _, t := range tasks {
			if keep[filepath.Dir(t.Path)] {
				continue
			}
			n, err := execOn(ctx, q, "delete_task", `DELETE FROM task WHERE id = ?`, t.ID)
			if err != nil {
				return deleted, fmt.Errorf("failed to delete task %d: %w", t.ID, err)
			}
			deleted += n
		}
	}
	return deleted, nil
}

// DeleteBasketFolders removes every folder reachable from basketID that is
// not also reachable from another basket.
func DeleteBasketFolders(ctx context.Context, q Querier, basketID int64) (int64, error) {
	n, err := execOn(ctx, q, "delete_basket_folders", `
		WITH RECURSIVE target(id) AS (
			SELECT folder_id FROM basket_folder WHERE basket_id = ?
			UNION
			SELECT f.id FROM folder f JOIN target t ON f.pid = t.id
		),
		others(id) AS (
			SELECT folder_id FROM basket_folder WHERE basket_id != ?
			UNION
			SELECT f.id FROM folder f JOIN others o ON f.pid = o.id
		)
		DELETE FROM folder WHERE id IN (SELECT id FROM target EXCEPT SELECT id FROM others)`,
		basketID, basketID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete folders of basket %d: %w", basketID, err)
	}
	return n, nil
}

// DeleteBasket removes a basket's links and then the basket row. It returns
// ErrNotFound when no basket has that id.
func DeleteBasket(ctx context.Context, q Querier, basketID int64) error {
	if _, err := execOn(ctx, q, "delete_basket_links", `DELETE FROM basket_folder WHERE basket_id = ?`, basketID); err != nil {
		return fmt.Errorf("failed to unlink basket %d: %w", basketID, err)
	}
	n, err := execOn(ctx, q, "delete_basket", `DELETE FROM basket WHERE id = ?`, basketID)
	if err != nil {
		return fmt.Errorf("failed to delete basket %d: %w", basketID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
