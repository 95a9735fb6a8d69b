package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"rigrename/engine"
	"rigrename/journal"
	"rigrename/preset"
	"rigrename/scene"
)

const (
	opRename = "rename"
	opUndo   = "undo"
	opMirror = "mirror"
)

const (
	kindGroups = "groups"
	kindJoints = "joints"
)

// operationRequest selects the objects an operation runs over. Sync pulls
// each object's linked counterpart into the batch; Preset overrides the
// active preset (mirror ignores it, mirroring needs no rules).
type operationRequest struct {
	Objects []string `json:"objects"`
	Sync    bool     `json:"sync"`
	Preset  string   `json:"preset,omitempty"`
}

// operation builds the handler for one op/kind combination. The whole batch
// runs under the scene write lock, so loads and snapshots never observe a
// half-applied operation.
func (h *handler) operation(op, kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req operationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Objects) == 0 {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		var presetName string
		var p *preset.Preset
		if op != opMirror {
			presetName = req.Preset
			if presetName == "" {
				presetName = h.presets.Active()
			}
			var err error
			p, err = h.presets.Preset(presetName)
			if err != nil {
				writeError(w, err)
				return
			}
		}

		var batch engine.BatchReport
		err := h.scenes.WithScene(func(sc *scene.Scene) error {
			sel, err := selection(sc, kind, req.Objects)
			if err != nil {
				return err
			}
			co := engine.NewCoordinator(counterparts(sc, kind))
			switch op {
			case opRename:
				batch, err = co.Apply(p, sel, req.Sync)
			case opUndo:
				batch, err = co.Undo(p, sel, req.Sync)
			case opMirror:
				batch, err = co.Mirror(sel, req.Sync)
			}
			return err
		})
		if err != nil {
			var ambiguous *engine.AmbiguousLinkError
			if errors.As(err, &ambiguous) {
				http.Error(w, ambiguous.Error(), http.StatusConflict)
				return
			}
			writeError(w, err)
			return
		}

		h.finish(r.Context(), op, kind, presetName, req.Objects, batch)
		writeJSON(w, http.StatusOK, batch)
	}
}

// selection resolves the requested object names against the scene, in
// request order.
func selection(sc *scene.Scene, kind string, names []string) ([]engine.Object, error) {
	sel := make([]engine.Object, 0, len(names))
	for _, name := range names {
		switch kind {
		case kindGroups:
			m, ok := sc.Mesh(name)
			if !ok {
				return nil, fmt.Errorf("mesh %q: %w", name, scene.ErrNotFound)
			}
			sel = append(sel, engine.Object{Name: name, Container: m})
		case kindJoints:
			s, ok := sc.Skeleton(name)
			if !ok {
				return nil, fmt.Errorf("skeleton %q: %w", name, scene.ErrNotFound)
			}
			sel = append(sel, engine.Object{Name: name, Container: s})
		}
	}
	return sel, nil
}

// counterparts is the linkage for a kind: the skeletons deforming a mesh
// for group operations, the deformed meshes for joint operations.
func counterparts(sc *scene.Scene, kind string) engine.Linkage {
	return func(name string) []engine.Object {
		var out []engine.Object
		switch kind {
		case kindGroups:
			for _, s := range sc.SkeletonsOf(name) {
				out = append(out, engine.Object{Name: s.Name, Container: s})
			}
		case kindJoints:
			for _, m := range sc.MeshesOf(name) {
				out = append(out, engine.Object{Name: m.Name, Container: m})
			}
		}
		return out
	}
}

// finish journals and broadcasts a completed operation. Recording failures
// are logged and swallowed; the scene mutation already happened.
func (h *handler) finish(ctx context.Context, op, kind, presetName string, objects []string, batch engine.BatchReport) {
	id := uuid.New().String()
	now := time.Now().UTC()
	renamed, merged, failed := batch.Counts()

	detail, err := json.Marshal(batch)
	if err != nil {
		log.Printf("encode batch report: %v", err)
		detail = nil
	}
	if err := h.journal.Record(ctx, journal.Entry{
		ID:        id,
		CreatedAt: now,
		Op:        op,
		Kind:      kind,
		Preset:    presetName,
		Objects:   objects,
		Renamed:   renamed,
		Merged:    merged,
		Failed:    failed,
		Detail:    detail,
	}); err != nil {
		log.Printf("journal record: %v", err)
	}

	h.events.broadcast(event{
		ID:      id,
		Time:    now,
		Op:      op,
		Kind:    kind,
		Preset:  presetName,
		Objects: objects,
		Report:  batch,
	})
}

func (h *handler) getJournal(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	entries, err := h.journal.Recent(r.Context(), limit)
	if err != nil {
		http.Error(w, "failed to read journal", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
