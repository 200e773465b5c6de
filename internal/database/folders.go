package database

import (
	"context"
	"fmt"

	"pixel-basket/internal/snowflake"
)

// folderClosureCTE selects every folder reachable from the roots of one
// basket (the single parameter) into closure(id, path). UNION stops on
// cycles.
const folderClosureCTE = `
	WITH RECURSIVE closure(id, path) AS (
		SELECT f.id, f.path FROM folder f
		JOIN basket_folder bf ON bf.folder_id = f.id
		WHERE bf.basket_id = ?
		UNION
		SELECT c.id, c.path FROM folder c
		JOIN closure p ON c.pid = p.id
	)`

const folderColumns = `id, pid, name, path`

func scanFolder(row RowScanner) (Folder, error) {
	var f Folder
	err := row.Scan(&f.ID, &f.PID, &f.Name, &f.Path)
	return f, err
}

// FolderByPath looks a folder up by its exact path.
func FolderByPath(ctx context.Context, q Querier, path string) (Folder, error) {
	return getOne(ctx, q, "folder_by_path", scanFolder,
		`SELECT `+folderColumns+` FROM folder WHERE path = ?`, path)
}

// InsertFolder adds f and returns its id. It returns ErrNotFound when a
// folder with the same path already exists.
func InsertFolder(ctx context.Context, q Querier, f Folder) (int64, error) {
	id, err := getOne(ctx, q, "insert_folder", scanID,
		`INSERT INTO folder (id, pid, name, path) VALUES (?, ?, ?, ?) ON CONFLICT(path) DO NOTHING RETURNING id`,
		snowflake.NextID(), f.PID, f.Name, f.Path)
	if err != nil {
		return 0, fmt.Errorf("insert folder %s: %w", f.Path, err)
	}
	return id, nil
}

// SetFolderParent sets pid on a folder whose parent is still unresolved.
// It reports whether the row changed.
func SetFolderParent(ctx context.Context, q Querier, id, pid int64) (bool, error) {
	n, err := execOn(ctx, q, "set_folder_parent", `UPDATE folder SET pid = ? WHERE id = ? AND pid = 0`, pid, id)
	if err != nil {
		return false, fmt.Errorf("failed to set parent of folder %d: %w", id, err)
	}
	return n > 0, nil
}

// ListFolders returns all folders when basketID is 0, otherwise the
// folders reachable from that basket's roots. Results are ordered by path.
func (d *Database) ListFolders(ctx context.Context, basketID int64) ([]Folder, error) {
	var (
		folders []Folder
		err     error
	)
	if basketID == 0 {
		folders, err = selectOn(ctx, d.db, "list_folders", scanFolder,
			`SELECT `+folderColumns+` FROM folder ORDER BY path`)
	} else {
		folders, err = selectOn(ctx, d.db, "list_basket_folders", scanFolder,
			folderClosureCTE+` SELECT f.id, f.pid, f.name, f.path FROM folder f
			WHERE f.id IN (SELECT id FROM closure) ORDER BY f.path`, basketID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	return folders, nil
}

// BasketRoots returns the folders linked directly to a basket.
func BasketRoots(ctx context.Context, q Querier, basketID int64) ([]Folder, error) {
	return selectOn(ctx, q, "basket_roots", scanFolder, `
		SELECT f.id, f.pid, f.name, f.path FROM folder f
		JOIN basket_folder bf ON bf.folder_id = f.id
		WHERE bf.basket_id = ?
		ORDER BY f.path`, basketID)
}

func scanID(row RowScanner) (int64, error) {
	var id int64
	err := row.Scan(&id)
	return id, err
}

// DetachOrphanFolders resets pid to 0 on folders whose parent row is gone.
func DetachOrphanFolders(ctx context.Context, q Querier) (int64, error) {
	n, err := execOn(ctx, q, "detach_orphan_folders",
		`UPDATE folder SET pid = 0 WHERE pid != 0 AND pid NOT IN (SELECT id FROM folder)`)
	if err != nil {
		return 0, fmt.Errorf("failed to detach orphan folders: %w", err)
	}
	return n, nil
}
