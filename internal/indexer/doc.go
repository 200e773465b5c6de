// Package indexer runs scan jobs over basket directories.
//
// A Job walks the directories of a basket, records their folders, queues a
// scan task per supported file and drains the queue through the scanner
// registry:
//
//	Discovering -> PersistingFolders -> PersistingBasket -> Enqueuing -> Scanning -> Draining -> Done
//
// RunPending starts at Scanning and only drains tasks left from earlier
// runs. Tasks live in the catalog, so a job that is cancelled or killed
// leaves its undispatched work pending for the next one.
//
// Every catalog call of a job goes through the single-worker I/O pool.
// Failed scans stay pending until they reach the queue's attempt limit.
//
// Progress is reported on a bounded channel. Intermediate events are
// dropped when the reader falls 250ms behind; the final done event is
// always delivered.
package indexer
