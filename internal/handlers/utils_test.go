package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"pixel-basket/internal/catalog"
	"pixel-basket/internal/database"
	"pixel-basket/internal/workers"
)

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"Simple map", map[string]string{"status": "ok"}, `{"status":"ok"}`},
		{"Number", 42, `42`},
		{"Null", nil, `null`},
		{"Empty slice", nonNil[string](nil), `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeJSON(w, tt.input)

			if body := strings.TrimSuffix(w.Body.String(), "\n"); body != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, body)
			}
		})
	}
}

func TestWriteJSONError(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	writeJSONError(w, `bad "input"`, http.StatusBadRequest)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected application/json, got %q", ct)
	}
	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp["error"] != `bad "input"` {
		t.Errorf("error = %q", resp["error"])
	}
}

func TestWriteCatalogError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("basket 4: %w", database.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: name is empty", catalog.ErrInvalidArgument), http.StatusBadRequest},
		{workers.ErrPoolClosed, http.StatusServiceUnavailable},
		{errors.New("disk I/O error"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/items/4", http.NoBody)
			writeCatalogError(w, r, tt.err)
			if w.Code != tt.want {
				t.Errorf("got %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestPathID(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"17":                   true,
		"0":                    false,
		"-3":                   false,
		"abc":                  false,
		"99999999999999999999": false,
	}
	for raw, ok := range tests {
		r := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", http.NoBody), map[string]string{"id": raw})
		_, err := pathID(r)
		if (err == nil) != ok {
			t.Errorf("pathID(%q) error = %v, want ok=%v", raw, err, ok)
		}
	}
}
