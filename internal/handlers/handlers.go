package handlers

import (
	"context"

	"pixel-basket/internal/catalog"
	"pixel-basket/internal/database"
	"pixel-basket/internal/indexer"
	"pixel-basket/internal/metrics"
)

// Catalog is the command surface served over HTTP. *catalog.Service
// implements it.
type Catalog interface {
	CreateBasket(ctx context.Context, name string, dirs []string) (*indexer.Job, error)
	ListBaskets(ctx context.Context) ([]database.Basket, error)
	GetBasket(ctx context.Context, id int64) (database.Basket, error)
	DeleteBasket(ctx context.Context, id int64) (catalog.DeleteResult, error)
	ListFolders(ctx context.Context, basketID int64) ([]database.Folder, error)

	ListItems(ctx context.Context, f database.ItemFilter) ([]database.Metadata, error)
	GetItem(ctx context.Context, id int64) (database.Metadata, error)
	SoftDeleteItem(ctx context.Context, id int64) error

	RerunPendingTasks(ctx context.Context) (*indexer.Job, error)
	RetryFailedTasks(ctx context.Context) (int64, *indexer.Job, error)
	PendingTasks(ctx context.Context) ([]database.Task, error)
	FailedTasks(ctx context.Context) ([]database.Task, error)

	GetSetting(ctx context.Context, key string) (string, error)
	ListSettings(ctx context.Context) ([]database.Setting, error)
	SetSetting(ctx context.Context, key, value string) error
	DeleteSetting(ctx context.Context, key string) error

	CatalogStats(ctx context.Context) (metrics.CatalogStats, error)
	Status() catalog.Status
}

// MemoryReporter reports heap usage against the configured limit.
type MemoryReporter interface {
	Usage() (current, limit int64, ratio float64)
	Paused() bool
}

// Handlers serves the JSON API.
type Handlers struct {
	catalog Catalog
	memory  MemoryReporter
}

// New returns handlers backed by c.
func New(c Catalog) *Handlers {
	return &Handlers{catalog: c}
}

// WithMemory adds heap usage from m to the health check.
func (h *Handlers) WithMemory(m MemoryReporter) *Handlers {
	h.memory = m
	return h
}
