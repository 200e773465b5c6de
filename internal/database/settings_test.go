package database

import (
	"context"
	"errors"
	"testing"
)

func TestSettings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.GetSetting(ctx, "theme"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetSetting(missing) error = %v, want ErrNotFound", err)
	}

	if err := db.SetSetting(ctx, "theme", "dark"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetSetting(ctx, "theme", "light"); err != nil {
		t.Fatal(err)
	}
	if v, err := db.GetSetting(ctx, "theme"); err != nil || v != "light" {
		t.Errorf("GetSetting() = (%q, %v), want (light, nil)", v, err)
	}

	if err := db.SetSetting(ctx, "page_size", "50"); err != nil {
		t.Fatal(err)
	}
	all, err := db.ListSettings(ctx)
	if err != nil || len(all) != 2 || all[0].Key != "page_size" {
		t.Errorf("ListSettings() = (%+v, %v)", all, err)
	}

	if err := db.DeleteSetting(ctx, "theme"); err != nil {
		t.Fatal(err)
	}
	if err := db.DeleteSetting(ctx, "theme"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteSetting() error = %v, want ErrNotFound", err)
	}
}

func TestCatalogStats(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	insertItem(t, db, 1, "/x", "a", "1")
	insertItem(t, db, 2, "/x", "b", "2")
	if err := db.SoftDeleteItem(ctx, 2); err != nil {
		t.Fatal(err)
	}
	f := addFolder(t, db, "/x", 0)
	addBasket(t, db, "a", f)
	if _, err := db.EnqueueTask(ctx, "/x/c.jpg", "jpg"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.EnqueueTask(ctx, "/x/d.jpg", "jpg"); err != nil {
		t.Fatal(err)
	}
	tasks, _ := db.PendingTasks(ctx)
	if err := db.AbandonTask(ctx, tasks[1].ID, "bad"); err != nil {
		t.Fatal(err)
	}

	s, err := db.CatalogStats(ctx)
	if err != nil {
		t.Fatalf("CatalogStats() error = %v", err)
	}
	if s.Items != 1 || s.Folders != 1 || s.Baskets != 1 || s.PendingTasks != 1 || s.FailedTasks != 1 {
		t.Errorf("CatalogStats() = %+v", s)
	}
}
