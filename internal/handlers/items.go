package handlers

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"pixel-basket/internal/database"
	"pixel-basket/internal/filesystem"
	"pixel-basket/internal/mediatypes"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

// itemFilter reads ListItems query parameters:
// dir, recursive, ext (repeated or comma separated), basket, deleted,
// limit and offset.
func itemFilter(r *http.Request) (database.ItemFilter, error) {
	q := r.URL.Query()
	f := database.ItemFilter{Limit: defaultPageSize}

	if dir := q.Get("dir"); dir != "" {
		f.Dir = filepath.Clean(dir)
	}
	f.Recursive = queryBool(q.Get("recursive"))
	f.IncludeDeleted = queryBool(q.Get("deleted"))

	for _, v := range q["ext"] {
		for _, e := range strings.Split(v, ",") {
			if e = strings.TrimSpace(e); e == "" {
				continue
			}
			if !mediatypes.IsMediaFile(e) {
				return f, errBadParam("ext", e)
			}
			f.Exts = append(f.Exts, mediatypes.NormalizeExt(e))
		}
	}

	var err error
	if v := q.Get("basket"); v != "" {
		if f.BasketID, err = strconv.ParseInt(v, 10, 64); err != nil || f.BasketID < 0 {
			return f, errBadParam("basket", v)
		}
	}
	if v := q.Get("limit"); v != "" {
		if f.Limit, err = strconv.Atoi(v); err != nil || f.Limit < 1 {
			return f, errBadParam("limit", v)
		}
		f.Limit = min(f.Limit, maxPageSize)
	}
	if v := q.Get("offset"); v != "" {
		if f.Offset, err = strconv.Atoi(v); err != nil || f.Offset < 0 {
			return f, errBadParam("offset", v)
		}
	}
	return f, nil
}

type paramError struct{ name, value string }

func (e paramError) Error() string { return "invalid " + e.name + " " + strconv.Quote(e.value) }

func errBadParam(name, value string) error { return paramError{name, value} }

func queryBool(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}

// ListItems returns catalog items matching the query filter.
func (h *Handlers) ListItems(w http.ResponseWriter, r *http.Request) {
	f, err := itemFilter(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	items, err := h.catalog.ListItems(r.Context(), f)
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	writeJSONCode(w, http.StatusOK, nonNil(items))
}

// GetItem returns one live item.
func (h *Handlers) GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	item, err := h.catalog.GetItem(r.Context(), id)
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	writeJSONCode(w, http.StatusOK, item)
}

// DeleteItem soft-deletes an item.
func (h *Handlers) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.catalog.SoftDeleteItem(r.Context(), id); err != nil {
		writeCatalogError(w, r, err)
		return
	}
	writeJSONStatus(w, "deleted")
}

// GetItemThumbnail serves the cached JPEG thumbnail of an item.
func (h *Handlers) GetItemThumbnail(w http.ResponseWriter, r *http.Request) {
	item, ok := h.itemForFile(w, r)
	if !ok {
		return
	}
	if item.Thumbnail == "" {
		writeJSONError(w, "item has no thumbnail", http.StatusNotFound)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	serveFile(w, r, item.Thumbnail, "image/jpeg")
}

// GetItemFile serves the original file of an item.
func (h *Handlers) GetItemFile(w http.ResponseWriter, r *http.Request) {
	item, ok := h.itemForFile(w, r)
	if !ok {
		return
	}
	w.Header().Set("Cache-Control", "private, max-age=3600")
	serveFile(w, r, item.FullPath, mediatypes.GetMimeType(item.Ext))
}

func (h *Handlers) itemForFile(w http.ResponseWriter, r *http.Request) (database.Metadata, bool) {
	id, err := pathID(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return database.Metadata{}, false
	}
	item, err := h.catalog.GetItem(r.Context(), id)
	if err != nil {
		writeCatalogError(w, r, err)
		return database.Metadata{}, false
	}
	return item, true
}

// serveFile streams path with range support. Missing files answer 404.
func serveFile(w http.ResponseWriter, r *http.Request, path, contentType string) {
	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		writeJSONError(w, "file not found on disk", http.StatusNotFound)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	http.ServeContent(w, r, filepath.Base(path), info.ModTime(), f)
}
