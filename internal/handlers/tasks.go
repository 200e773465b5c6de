package handlers

import (
	"net/http"

	"pixel-basket/internal/database"
)

// ListTasks returns pending tasks, or failed ones with ?status=failed.
func (h *Handlers) ListTasks(w http.ResponseWriter, r *http.Request) {
	var (
		tasks []database.Task
		err   error
	)
	switch status := r.URL.Query().Get("status"); status {
	case "", "pending":
		tasks, err = h.catalog.PendingTasks(r.Context())
	case "failed":
		tasks, err = h.catalog.FailedTasks(r.Context())
	default:
		writeJSONError(w, errBadParam("status", status).Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	writeJSONCode(w, http.StatusOK, nonNil(tasks))
}

// RerunTasks starts a job draining the pending queue.
func (h *Handlers) RerunTasks(w http.ResponseWriter, r *http.Request) {
	job, err := h.catalog.RerunPendingTasks(r.Context())
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	writeJob(w, job, 0)
}

// RetryTasks requeues failed tasks and starts a job draining the queue.
func (h *Handlers) RetryTasks(w http.ResponseWriter, r *http.Request) {
	n, job, err := h.catalog.RetryFailedTasks(r.Context())
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	writeJob(w, job, n)
}
