package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Router registers every endpoint on a new mux.Router.
func (h *Handlers) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)
	r.Handle("/metrics", h.MetricsHandler())

	api := r.PathPrefix("/api").Subrouter()
	// A subrouter reports a method mismatch as 404 unless it has its own
	// handler.
	api.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	api.HandleFunc("/baskets", h.ListBaskets).Methods(http.MethodGet)
	api.HandleFunc("/baskets", h.CreateBasket).Methods(http.MethodPost)
	api.HandleFunc("/baskets/{id:[0-9]+}", h.GetBasket).Methods(http.MethodGet)
	api.HandleFunc("/baskets/{id:[0-9]+}", h.DeleteBasket).Methods(http.MethodDelete)
	api.HandleFunc("/baskets/{id:[0-9]+}/folders", h.ListBasketFolders).Methods(http.MethodGet)
	api.HandleFunc("/folders", h.ListFolders).Methods(http.MethodGet)

	api.HandleFunc("/items", h.ListItems).Methods(http.MethodGet)
	api.HandleFunc("/items/{id:[0-9]+}", h.GetItem).Methods(http.MethodGet)
	api.HandleFunc("/items/{id:[0-9]+}", h.DeleteItem).Methods(http.MethodDelete)
	api.HandleFunc("/items/{id:[0-9]+}/thumbnail", h.GetItemThumbnail).Methods(http.MethodGet)
	api.HandleFunc("/items/{id:[0-9]+}/file", h.GetItemFile).Methods(http.MethodGet)

	api.HandleFunc("/tasks", h.ListTasks).Methods(http.MethodGet)
	api.HandleFunc("/tasks/rerun", h.RerunTasks).Methods(http.MethodPost)
	api.HandleFunc("/tasks/retry", h.RetryTasks).Methods(http.MethodPost)

	api.HandleFunc("/settings", h.ListSettings).Methods(http.MethodGet)
	api.HandleFunc("/settings/{key}", h.GetSetting).Methods(http.MethodGet)
	api.HandleFunc("/settings/{key}", h.PutSetting).Methods(http.MethodPut)
	api.HandleFunc("/settings/{key}", h.DeleteSetting).Methods(http.MethodDelete)

	api.HandleFunc("/stats", h.GetStats).Methods(http.MethodGet)

	return r
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSONError(w, r.Method+" not allowed on "+r.URL.Path, http.StatusMethodNotAllowed)
}
