// Package catalog is the command surface of pixel-basket.
//
// Service owns the CPU and I/O worker pools and runs scan jobs one at a
// time. Creating a basket or re-running the queue returns the started
// indexer.Job at once; callers that want the outcome call Job.Wait.
//
// Reconciler keeps the shared folder tree consistent. Folders are unique
// by path and may belong to several baskets. Deleting a basket removes only
// what no other basket still reaches, in one transaction.
package catalog
