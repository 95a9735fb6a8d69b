// Package api exposes preset management, the scene document, and the
// rename/mirror/undo operations over HTTP, with a WebSocket feed of
// completed operations.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"rigrename/journal"
	"rigrename/preset"
	"rigrename/scene"
)

// RegisterRoutes builds the full HTTP surface. A nil journal disables
// operation recording; the live event feed works either way.
func RegisterRoutes(pm *preset.Manager, sm *scene.Manager, jl *journal.Journal) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	h := &handler{presets: pm, scenes: sm, journal: jl, events: newHub()}

	// Preset management
	r.Get("/api/presets", h.getPresets)
	r.Post("/api/presets", h.createPreset)
	r.Post("/api/presets/import", h.importPresets)
	r.Post("/api/presets/export", h.exportPresets)
	r.Delete("/api/presets/{name}", h.deletePreset)
	r.Post("/api/presets/{name}/rename", h.renamePreset)
	r.Post("/api/presets/{name}/duplicate", h.duplicatePreset)
	r.Post("/api/presets/{name}/select", h.selectPreset)
	r.Post("/api/presets/{name}/rulesets", h.addRuleSet)
	r.Delete("/api/presets/{name}/rulesets/{idx}", h.removeRuleSet)
	r.Post("/api/presets/{name}/rulesets/{idx}/rename", h.renameRuleSet)
	r.Post("/api/presets/{name}/rulesets/{idx}/rules", h.addRule)
	r.Put("/api/presets/{name}/rulesets/{idx}/rules/{ridx}", h.editRule)
	r.Delete("/api/presets/{name}/rulesets/{idx}/rules/{ridx}", h.removeRule)

	// Scene document
	r.Get("/api/scene", h.getScene)
	r.Put("/api/scene", h.putScene)
	r.Post("/api/scene/export", h.exportScene)

	// Engine operations
	r.Post("/api/operations/rename-groups", h.operation(opRename, kindGroups))
	r.Post("/api/operations/rename-joints", h.operation(opRename, kindJoints))
	r.Post("/api/operations/undo-groups", h.operation(opUndo, kindGroups))
	r.Post("/api/operations/undo-joints", h.operation(opUndo, kindJoints))
	r.Post("/api/operations/mirror-groups", h.operation(opMirror, kindGroups))
	r.Post("/api/operations/mirror-joints", h.operation(opMirror, kindJoints))

	// Operation history + live feed
	r.Get("/api/journal", h.getJournal)
	r.Get("/api/events", h.handleEvents)

	return r
}

type handler struct {
	presets *preset.Manager
	scenes  *scene.Manager
	journal *journal.Journal
	events  *hub
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps store and scene sentinels to statuses. Anything
// unrecognized is a 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, preset.ErrNotFound), errors.Is(err, scene.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, preset.ErrDuplicateName):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, preset.ErrProtectedName):
		http.Error(w, err.Error(), http.StatusForbidden)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
