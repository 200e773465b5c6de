package handlers

import (
	"net/http"
)

type createBasketRequest struct {
	Name string   `json:"name"`
	Dirs []string `json:"dirs"`
}

// ListBaskets returns every basket with its roots.
func (h *Handlers) ListBaskets(w http.ResponseWriter, r *http.Request) {
	baskets, err := h.catalog.ListBaskets(r.Context())
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	writeJSONCode(w, http.StatusOK, nonNil(baskets))
}

// CreateBasket starts a scan job for a new basket and answers 202 with the
// job id.
func (h *Handlers) CreateBasket(w http.ResponseWriter, r *http.Request) {
	var req createBasketRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	job, err := h.catalog.CreateBasket(r.Context(), req.Name, req.Dirs)
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	writeJob(w, job, 0)
}

// GetBasket returns one basket.
func (h *Handlers) GetBasket(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	b, err := h.catalog.GetBasket(r.Context(), id)
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	writeJSONCode(w, http.StatusOK, b)
}

// DeleteBasket removes a basket and the entries no other basket reaches.
func (h *Handlers) DeleteBasket(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := h.catalog.DeleteBasket(r.Context(), id)
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	writeJSONCode(w, http.StatusOK, res)
}

// ListBasketFolders returns the folders under a basket's roots.
func (h *Handlers) ListBasketFolders(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := h.catalog.GetBasket(r.Context(), id); err != nil {
		writeCatalogError(w, r, err)
		return
	}
	folders, err := h.catalog.ListFolders(r.Context(), id)
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	writeJSONCode(w, http.StatusOK, nonNil(folders))
}

// ListFolders returns every folder in the catalog.
func (h *Handlers) ListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.catalog.ListFolders(r.Context(), 0)
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	writeJSONCode(w, http.StatusOK, nonNil(folders))
}

// nonNil makes empty lists encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
