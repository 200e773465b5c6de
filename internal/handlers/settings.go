package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"pixel-basket/internal/database"
)

type settingRequest struct {
	Value string `json:"value"`
}

// ListSettings returns every stored preference.
func (h *Handlers) ListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.catalog.ListSettings(r.Context())
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	writeJSONCode(w, http.StatusOK, nonNil(settings))
}

// GetSetting returns one preference.
func (h *Handlers) GetSetting(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	value, err := h.catalog.GetSetting(r.Context(), key)
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	writeJSONCode(w, http.StatusOK, database.Setting{Key: key, Value: value})
}

// PutSetting stores a preference from a {"value": ...} body.
func (h *Handlers) PutSetting(w http.ResponseWriter, r *http.Request) {
	var req settingRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	key := mux.Vars(r)["key"]
	if err := h.catalog.SetSetting(r.Context(), key, req.Value); err != nil {
		writeCatalogError(w, r, err)
		return
	}
	writeJSONCode(w, http.StatusOK, database.Setting{Key: key, Value: req.Value})
}

// DeleteSetting removes a preference.
func (h *Handlers) DeleteSetting(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteSetting(r.Context(), mux.Vars(r)["key"]); err != nil {
		writeCatalogError(w, r, err)
		return
	}
	writeJSONStatus(w, "deleted")
}
