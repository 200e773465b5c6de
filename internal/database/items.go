package database

import (
	"context"
	"fmt"
	"strings"
)

const metadataColumns = `id, full_path, dir, name, ext, size, created, modified, added, sha1,
	tags, notes, score, is_del, width, height, thumbnail, colors, shape, duration, exif`

func scanMetadata(row RowScanner) (Metadata, error) {
	var m Metadata
	err := row.Scan(&m.ID, &m.FullPath, &m.Dir, &m.Name, &m.Ext, &m.Size, &m.Created, &m.Modified,
		&m.Added, &m.SHA1, &m.Tags, &m.Notes, &m.Score, &m.IsDeleted, &m.Width, &m.Height,
		&m.Thumbnail, &m.Colors, &m.Shape, &m.Duration, &m.EXIF)
	return m, err
}

// InsertMetadata stores m unless a live row already carries its fingerprint.
// It reports whether a row was written.
func (d *Database) InsertMetadata(ctx context.Context, m *Metadata) (bool, error) {
	exists, err := d.FingerprintExists(ctx, m.SHA1)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	n, err := execOn(ctx, d.db, "insert_metadata", `
		INSERT INTO metadata (`+metadataColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`,
		m.ID, m.FullPath, m.Dir, m.Name, m.Ext, m.Size, m.Created, m.Modified, m.Added, m.SHA1,
		m.Tags, m.Notes, m.Score, m.IsDeleted, m.Width, m.Height, m.Thumbnail, m.Colors, m.Shape,
		m.Duration, m.EXIF)
	if err != nil {
		return false, fmt.Errorf("failed to insert metadata for %s: %w", m.FullPath, err)
	}
	return n > 0, nil
}

// FingerprintExists reports whether a live row has the given SHA-1.
func (d *Database) FingerprintExists(ctx context.Context, sha1 string) (bool, error) {
	n, err := countOn(ctx, d.db, "fingerprint_exists",
		`SELECT COUNT(*) FROM metadata WHERE sha1 = ? AND is_del = 0`, sha1)
	if err != nil {
		return false, fmt.Errorf("failed to check fingerprint: %w", err)
	}
	return n > 0, nil
}

// HasCurrentItem reports whether a live row already describes the file at
// fullPath with the given size and modification time.
func (d *Database) HasCurrentItem(ctx context.Context, fullPath string, size int64, modified string) (bool, error) {
	n, err := countOn(ctx, d.db, "has_current_item",
		`SELECT COUNT(*) FROM metadata WHERE full_path = ? AND size = ? AND modified = ? AND is_del = 0`,
		fullPath, size, modified)
	if err != nil {
		return false, fmt.Errorf("failed to look up %s: %w", fullPath, err)
	}
	return n > 0, nil
}

// GetItem returns a live row by id.
func (d *Database) GetItem(ctx context.Context, id int64) (Metadata, error) {
	return getOne(ctx, d.db, "get_item", scanMetadata,
		`SELECT `+metadataColumns+` FROM metadata WHERE id = ? AND is_del = 0`, id)
}

// ListItems returns rows matching f ordered by directory and name.
func (d *Database) ListItems(ctx context.Context, f ItemFilter) ([]Metadata, error) {
	var (
		where []string
		args  []any
	)

	if !f.IncludeDeleted {
		where = append(where, "is_del = 0")
	}
	if f.Dir != "" {
		dir := strings.TrimRight(f.Dir, "/")
		if dir == "" {
			dir = "/"
		}
		if f.Recursive {
			where = append(where, `(dir = ? OR dir LIKE ? ESCAPE '\')`)
			args = append(args, dir, likePrefix(dir))
		} else {
			where = append(where, "dir = ?")
			args = append(args, dir)
		}
	}
	if len(f.Exts) > 0 {
		where = append(where, "ext IN ("+placeholders(len(f.Exts))+")")
		for _, e := range f.Exts {
			args = append(args, strings.ToLower(strings.TrimPrefix(e, ".")))
		}
	}
	if f.BasketID > 0 {
		where = append(where, `dir IN (`+folderClosureCTE+` SELECT path FROM closure)`)
		args = append(args, f.BasketID)
	}

	query := `SELECT ` + metadataColumns + ` FROM metadata`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY dir, name"
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	items, err := selectOn(ctx, d.db, "list_items", scanMetadata, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

// SoftDeleteItem flags a live row as deleted. It returns ErrNotFound when no
// live row has that id.
func (d *Database) SoftDeleteItem(ctx context.Context, id int64) error {
	n, err := execOn(ctx, d.db, "soft_delete_item", `UPDATE metadata SET is_del = 1 WHERE id = ? AND is_del = 0`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// likePrefix returns a LIKE pattern matching paths strictly below dir.
func likePrefix(dir string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	if strings.HasSuffix(dir, "/") {
		return r.Replace(dir) + "%"
	}
	return r.Replace(dir) + "/%"
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
