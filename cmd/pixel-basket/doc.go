// Package main provides the pixel-basket command.
//
// pixel-basket indexes folders of images, raw photos, PSD files and videos
// into a SQLite catalog. Folders are grouped into named baskets; each file
// becomes a pending task that a scan job turns into an item with a
// thumbnail, dominant colors, an aspect shape and, where present, EXIF data.
//
// # Commands
//
//	pixel-basket serve                          HTTP API, metrics and folder watcher
//	pixel-basket basket create NAME DIR...      create a basket and scan it
//	pixel-basket basket list
//	pixel-basket basket delete ID [--yes]
//	pixel-basket basket folders [ID]
//	pixel-basket task rerun [--failed]          scan pending tasks again
//	pixel-basket task list [--failed]
//	pixel-basket item list [--dir D -r --ext jpg,png --basket ID -n N]
//	pixel-basket item ls DIR [-r]               items of one directory
//	pixel-basket item get ID
//	pixel-basket item delete ID                 soft delete
//	pixel-basket setting get [KEY]
//	pixel-basket setting set KEY VALUE
//	pixel-basket setting delete KEY
//
// Every command reads the same configuration: environment variables,
// overlaid by the TOML file named with --config or CONFIG_FILE. See
// package startup for the keys.
//
// # Server Lifecycle
//
//  1. Configuration is loaded and the data and cache directories are checked.
//  2. GOMEMLIMIT is derived from MEMORY_LIMIT, and a memory monitor pauses
//     dispatching while the heap is near it.
//  3. libvips is started unless VIPS_ENABLED=false.
//  4. The catalog is opened and migrated, and tasks left pending by an
//     earlier run are resumed.
//  5. With WATCH_ENABLED, every basket folder is watched and new files are
//     queued after a short debounce.
//  6. On SIGINT or SIGTERM the HTTP server drains, the watcher flushes, and
//     running scans finish their in-flight tasks. Unreached tasks stay
//     pending for the next run.
//
// Interrupting `basket create` or `task rerun` behaves the same way.
package main
