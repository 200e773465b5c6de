/*
Package filesystem wraps os.Stat, os.Open and os.ReadDir with retries for
ESTALE (stale NFS file handle) errors.

Media libraries often live on network mounts. A walk or a hash that hits a
stale handle retries with exponential backoff (50ms, 100ms, 200ms by default)
instead of failing the scan task outright. Every other error is returned
immediately.

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())

Retry metrics are labelled with a volume name from a VolumeResolver
("cache", "database", or "library" for anything under a basket root) and
reported through the Observer set with SetObserver.
*/
package filesystem
