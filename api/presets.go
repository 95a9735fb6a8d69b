package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"rigrename/preset"
)

// storeResponse is the answer to every preset read and mutation: the whole
// store plus the active selection. Warning carries a persist failure whose
// in-memory change stood anyway.
type storeResponse struct {
	Presets []*preset.Preset `json:"presets"`
	Active  string           `json:"active"`
	Warning string           `json:"warning,omitempty"`
}

// respondStore finishes a preset mutation. Validation errors map to their
// status; a persist failure degrades to a warning field because the store
// does not roll the change back.
func (h *handler) respondStore(w http.ResponseWriter, status int, err error) {
	if err != nil && !errors.Is(err, preset.ErrPersist) {
		writeError(w, err)
		return
	}
	store, active := h.presets.Snapshot()
	resp := storeResponse{Presets: store.Presets, Active: active}
	if err != nil {
		resp.Warning = err.Error()
	}
	writeJSON(w, status, resp)
}

func (h *handler) getPresets(w http.ResponseWriter, r *http.Request) {
	h.respondStore(w, http.StatusOK, nil)
}

func (h *handler) createPreset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	h.respondStore(w, http.StatusCreated, h.presets.Create(req.Name))
}

func (h *handler) deletePreset(w http.ResponseWriter, r *http.Request) {
	h.respondStore(w, http.StatusOK, h.presets.Delete(chi.URLParam(r, "name")))
}

func (h *handler) renamePreset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	h.respondStore(w, http.StatusOK, h.presets.Rename(chi.URLParam(r, "name"), req.Name))
}

func (h *handler) duplicatePreset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	h.respondStore(w, http.StatusCreated, h.presets.Duplicate(chi.URLParam(r, "name"), req.Name))
}

func (h *handler) selectPreset(w http.ResponseWriter, r *http.Request) {
	h.respondStore(w, http.StatusOK, h.presets.SetActive(chi.URLParam(r, "name")))
}

func (h *handler) addRuleSet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prefix string `json:"prefix"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	h.respondStore(w, http.StatusCreated, h.presets.AddRuleSet(chi.URLParam(r, "name"), req.Prefix))
}

func (h *handler) removeRuleSet(w http.ResponseWriter, r *http.Request) {
	idx, err := indexParam(r, "idx")
	if err != nil {
		http.Error(w, "invalid ruleset index", http.StatusBadRequest)
		return
	}
	h.respondStore(w, http.StatusOK, h.presets.RemoveRuleSet(chi.URLParam(r, "name"), idx))
}

func (h *handler) renameRuleSet(w http.ResponseWriter, r *http.Request) {
	idx, err := indexParam(r, "idx")
	if err != nil {
		http.Error(w, "invalid ruleset index", http.StatusBadRequest)
		return
	}
	var req struct {
		Prefix string `json:"prefix"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	h.respondStore(w, http.StatusOK, h.presets.RenameRuleSet(chi.URLParam(r, "name"), idx, req.Prefix))
}

func (h *handler) addRule(w http.ResponseWriter, r *http.Request) {
	idx, err := indexParam(r, "idx")
	if err != nil {
		http.Error(w, "invalid ruleset index", http.StatusBadRequest)
		return
	}
	var req struct {
		Old string `json:"old"`
		New string `json:"new"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	h.respondStore(w, http.StatusCreated, h.presets.AddRule(chi.URLParam(r, "name"), idx, req.Old, req.New))
}

func (h *handler) editRule(w http.ResponseWriter, r *http.Request) {
	idx, err := indexParam(r, "idx")
	if err != nil {
		http.Error(w, "invalid ruleset index", http.StatusBadRequest)
		return
	}
	ridx, err := indexParam(r, "ridx")
	if err != nil {
		http.Error(w, "invalid rule index", http.StatusBadRequest)
		return
	}
	var req struct {
		Old string `json:"old"`
		New string `json:"new"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	h.respondStore(w, http.StatusOK, h.presets.EditRule(chi.URLParam(r, "name"), idx, ridx, req.Old, req.New))
}

func (h *handler) removeRule(w http.ResponseWriter, r *http.Request) {
	idx, err := indexParam(r, "idx")
	if err != nil {
		http.Error(w, "invalid ruleset index", http.StatusBadRequest)
		return
	}
	ridx, err := indexParam(r, "ridx")
	if err != nil {
		http.Error(w, "invalid rule index", http.StatusBadRequest)
		return
	}
	h.respondStore(w, http.StatusOK, h.presets.RemoveRule(chi.URLParam(r, "name"), idx, ridx))
}

// importPresets merges a preset document from disk into the store. A read
// or parse failure leaves the store untouched.
func (h *handler) importPresets(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	_, err := h.presets.ImportFile(req.Path)
	if err != nil && !errors.Is(err, preset.ErrPersist) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.respondStore(w, http.StatusOK, err)
}

// exportPresets writes the whole store to a caller-chosen path and reports
// the path actually written.
func (h *handler) exportPresets(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	written, err := h.presets.ExportFile(req.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": written})
}

func indexParam(r *http.Request, key string) (int, error) {
	return strconv.Atoi(chi.URLParam(r, key))
}
