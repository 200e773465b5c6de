package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"pixel-basket/internal/catalog"
	"pixel-basket/internal/database"
	"pixel-basket/internal/indexer"
	"pixel-basket/internal/logging"
	"pixel-basket/internal/middleware"
	"pixel-basket/internal/workers"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// writeJSON encodes v as JSON and writes it to the response writer.
// Encoding and write errors can only be logged at this point.
func writeJSON(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONCode sets the JSON content type and status before encoding v.
func writeJSONCode(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, v)
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSONCode(w, statusCode, map[string]string{"error": message})
}

// writeJSONStatus writes a simple status response as JSON.
func writeJSONStatus(w http.ResponseWriter, status string) {
	writeJSONCode(w, http.StatusOK, map[string]string{"status": status})
}

// writeCatalogError maps a catalog error to a status code.
func writeCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeJSONError(w, "not found", http.StatusNotFound)
	case errors.Is(err, catalog.ErrInvalidArgument):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, workers.ErrPoolClosed), errors.Is(err, context.Canceled):
		writeJSONError(w, "service is shutting down", http.StatusServiceUnavailable)
	default:
		logging.Error("%s %s: %v", r.Method, r.URL.Path, err)
		writeJSONError(w, "internal error", http.StatusInternalServerError)
	}
}

// pathID parses the {id} route variable.
func pathID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// decodeBody reads a JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// jobResponse is returned by endpoints that start a background job.
type jobResponse struct {
	JobID  string `json:"jobId,omitempty"`
	Queued int64  `json:"queued,omitempty"`
}

// writeJob answers 202 for a started job. The id is also sent as X-Job-ID
// so the access log can record it.
func writeJob(w http.ResponseWriter, job *indexer.Job, queued int64) {
	w.Header().Set(middleware.JobIDHeader, job.ID)
	writeJSONCode(w, http.StatusAccepted, jobResponse{JobID: job.ID, Queued: queued})
}
