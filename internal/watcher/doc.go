// Package watcher notices new files under basket folders.
//
// It watches every folder of the catalog with fsnotify. Created and
// written paths are collected until no event arrived for the debounce
// window and then handed to Config.Flush in one batch. Directories created
// inside a watched folder are watched as well. Names starting with "."
// are ignored.
package watcher
