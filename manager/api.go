package manager

import (
	"encoding/json"
	"net/http"
	"time"

	"logviewer/logger"
	"logviewer/store"
)

// ManagementAPI exposes gateway state on an internal listener.
type ManagementAPI struct {
	Store   store.Storer
	Targets map[string]string
}

func NewManagementAPI(s store.Storer, targets map[string]string) *ManagementAPI {
	return &ManagementAPI{Store: s, Targets: targets}
}

func (api *ManagementAPI) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/status", api.handleStatus)
	mux.HandleFunc("GET /api/counters/{key}", api.handleCounter)
}

func (api *ManagementAPI) handleStatus(w http.ResponseWriter, r *http.Request) {
	counters, err := api.Store.Counters(r.Context())
	if err != nil {
		logger.Error("Failed to list counters", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to list counters"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "active",
		"targets":   api.Targets,
		"counters":  counters,
		"timestamp": time.Now().UTC(),
	})
}

func (api *ManagementAPI) handleCounter(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	val, err := api.Store.GetCounter(r.Context(), key)
	if err != nil {
		logger.Error("Failed to read counter", "key", key, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to read counter"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"key": key, "value": val})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
