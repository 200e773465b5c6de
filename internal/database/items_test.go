package database

import (
	"context"
	"errors"
	"testing"
)

func TestInsertMetadataDeduplicates(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	insertItem(t, db, 1, "/photos", "a", "aaaa")

	ok, err := db.InsertMetadata(ctx, &Metadata{ID: 2, FullPath: "/other/b.jpg", Dir: "/other", Name: "b", Ext: "jpg", SHA1: "aaaa"})
	if err != nil {
		t.Fatalf("InsertMetadata() error = %v", err)
	}
	if ok {
		t.Error("duplicate fingerprint was inserted")
	}

	n, _ := db.Count(ctx, `SELECT COUNT(*) FROM metadata`)
	if n != 1 {
		t.Errorf("got %d rows, want 1", n)
	}
}

func TestInsertMetadataAfterSoftDelete(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	insertItem(t, db, 1, "/photos", "a", "aaaa")
	if err := db.SoftDeleteItem(ctx, 1); err != nil {
		t.Fatalf("SoftDeleteItem() error = %v", err)
	}

	exists, err := db.FingerprintExists(ctx, "aaaa")
	if err != nil || exists {
		t.Fatalf("FingerprintExists() = (%v, %v), want (false, nil)", exists, err)
	}
	insertItem(t, db, 2, "/photos", "a-again", "aaaa")
}

func TestGetItem(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	insertItem(t, db, 42, "/photos", "sunset", "ffff")

	got, err := db.GetItem(ctx, 42)
	if err != nil {
		t.Fatalf("GetItem() error = %v", err)
	}
	if got.Name != "sunset" || got.Dir != "/photos" || got.SHA1 != "ffff" || got.IsDeleted {
		t.Errorf("GetItem() = %+v", got)
	}

	if _, err := db.GetItem(ctx, 7); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetItem(missing) error = %v, want ErrNotFound", err)
	}

	if err := db.SoftDeleteItem(ctx, 42); err != nil {
		t.Fatalf("SoftDeleteItem() error = %v", err)
	}
	if _, err := db.GetItem(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetItem(deleted) error = %v, want ErrNotFound", err)
	}
	if err := db.SoftDeleteItem(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("second SoftDeleteItem() error = %v, want ErrNotFound", err)
	}
}

func TestHasCurrentItem(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	insertItem(t, db, 1, "/photos", "a", "aaaa")

	tests := []struct {
		name     string
		size     int64
		modified string
		want     bool
	}{
		{"unchanged", 100, "2024-01-02 03:04:05", true},
		{"size changed", 101, "2024-01-02 03:04:05", false},
		{"touched", 100, "2024-01-02 03:04:06", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.HasCurrentItem(ctx, "/photos/a.jpg", tt.size, tt.modified)
			if err != nil {
				t.Fatalf("HasCurrentItem() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("HasCurrentItem() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestListItems(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	insertItem(t, db, 1, "/photos", "a", "1")
	insertItem(t, db, 2, "/photos/2024", "b", "2")
	insertItem(t, db, 3, "/photos_old", "c", "3")
	insertItem(t, db, 4, "/videos", "d", "4")
	if err := db.SoftDeleteItem(ctx, 4); err != nil {
		t.Fatal(err)
	}

	root := addFolder(t, db, "/photos", 0)
	addFolder(t, db, "/photos/2024", root)
	basket := addBasket(t, db, "holiday", root)

	tests := []struct {
		name   string
		filter ItemFilter
		want   []int64
	}{
		{"all live", ItemFilter{}, []int64{1, 2, 3}},
		{"include deleted", ItemFilter{IncludeDeleted: true}, []int64{1, 2, 3, 4}},
		{"one directory", ItemFilter{Dir: "/photos"}, []int64{1}},
		{"recursive", ItemFilter{Dir: "/photos/", Recursive: true}, []int64{1, 2}},
		{"by extension", ItemFilter{Exts: []string{".JPG"}}, []int64{1, 2, 3}},
		{"other extension", ItemFilter{Exts: []string{"png"}}, nil},
		{"by basket", ItemFilter{BasketID: basket}, []int64{1, 2}},
		{"paged", ItemFilter{Limit: 1, Offset: 1}, []int64{2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := db.ListItems(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListItems() error = %v", err)
			}
			var got []int64
			for _, it := range items {
				got = append(got, it.ID)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ListItems() ids = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("ListItems() ids = %v, want %v", got, tt.want)
				}
			}
		})
	}
}
