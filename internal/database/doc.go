// Package database is the SQLite catalog store.
//
// It holds five tables: metadata (one row per unique file content), task
// (the durable scan queue), folder (the shared directory tree), basket and
// basket_folder (named collections of root folders), plus a small settings
// table. The schema is versioned by the migrations subpackage and applied by
// New.
//
// Reads and writes used by a single caller are methods on Database. Steps
// that must share a transaction, such as folder reconciliation and basket
// deletion, are package functions taking a Querier so they run unchanged on
// a Batch:
//
//	err := db.InBatch(ctx, func(b *database.Batch) error {
//	    roots, err := database.ExclusiveRoots(ctx, b, basketID)
//	    ...
//	})
//
// Lookups that match nothing return ErrNotFound.
package database
