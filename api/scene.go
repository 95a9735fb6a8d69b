package api

import (
	"encoding/json"
	"net/http"

	"rigrename/scene"
)

func (h *handler) getScene(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.scenes.Snapshot())
}

// putScene replaces the whole scene document. The document is validated
// before it becomes live; a bad document changes nothing.
func (h *handler) putScene(w http.ResponseWriter, r *http.Request) {
	var doc scene.Scene
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.scenes.Load(&doc); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) exportScene(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	written, err := h.scenes.ExportFile(req.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": written})
}
