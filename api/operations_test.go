package api_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"rigrename/api"
	"rigrename/engine"
	"rigrename/journal"
	"rigrename/preset"
	"rigrename/scene"
)

// newTestServerWithJournal is newTestServer plus a real temp-file journal.
func newTestServerWithJournal(t *testing.T) (*httptest.Server, *preset.Manager, *scene.Manager) {
	t.Helper()
	pm, err := preset.NewManager(t.TempDir() + "/presets.json")
	if err != nil {
		t.Fatalf("preset manager: %v", err)
	}
	sm := scene.NewManager()
	jl, err := journal.Open(t.TempDir() + "/journal.db")
	if err != nil {
		t.Fatalf("journal: %v", err)
	}
	t.Cleanup(func() { jl.Close() })
	return httptest.NewServer(api.RegisterRoutes(pm, sm, jl)), pm, sm
}

// loadHeroScene fills sm with one mesh deformed by one skeleton, sharing
// the member names the tests rename.
func loadHeroScene(t *testing.T, sm *scene.Manager) {
	t.Helper()
	doc := &scene.Scene{
		Meshes: []*scene.Mesh{{
			Name:      "Hero_Body",
			Vertices:  2,
			Skeletons: []string{"Hero_Rig"},
			Groups: []*scene.WeightGroup{
				{Name: "hips", Weights: map[int]float64{0: 0.6}},
				{Name: "waist", Weights: map[int]float64{0: 0.5, 1: 0.4}},
			},
		}},
		Skeletons: []*scene.Skeleton{{
			Name: "Hero_Rig",
			Joints: []*scene.Joint{
				{Name: "hips"},
				{Name: "waist"},
				{Name: "L_Arm", Roll: 1},
				{Name: "R_Arm", Roll: 2},
			},
		}},
	}
	if err := sm.Load(doc); err != nil {
		t.Fatalf("load scene: %v", err)
	}
}

// seedRules adds a catch-all ruleset with the given old/new pairs to the
// Default preset.
func seedRules(t *testing.T, pm *preset.Manager, pairs ...string) {
	t.Helper()
	if err := pm.AddRuleSet("Default", ""); err != nil {
		t.Fatalf("add ruleset: %v", err)
	}
	for i := 0; i < len(pairs); i += 2 {
		if err := pm.AddRule("Default", 0, pairs[i], pairs[i+1]); err != nil {
			t.Fatalf("add rule %s: %v", pairs[i], err)
		}
	}
}

func decodeBatch(t *testing.T, resp *http.Response) engine.BatchReport {
	t.Helper()
	defer resp.Body.Close()
	var batch engine.BatchReport
	if err := json.NewDecoder(resp.Body).Decode(&batch); err != nil {
		t.Fatalf("decode batch report: %v", err)
	}
	return batch
}

func TestRenameGroupsUsesActivePreset(t *testing.T) {
	srv, pm, sm := newTestServer(t)
	defer srv.Close()
	loadHeroScene(t, sm)
	seedRules(t, pm, "hips", "Hips", "waist", "Waist")

	resp := postJSON(t, srv.URL+"/api/operations/rename-groups",
		`{"objects":["Hero_Body"]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	batch := decodeBatch(t, resp)
	if len(batch.Results) != 1 || len(batch.Results[0].Report.Renamed) != 2 {
		t.Fatalf("unexpected batch: %+v", batch)
	}

	sc := sm.Snapshot()
	mesh, _ := sc.Mesh("Hero_Body")
	if !mesh.Has("Hips") || !mesh.Has("Waist") {
		t.Fatalf("groups not renamed: %v", mesh.Members())
	}
	// Without sync the skeleton is untouched.
	skel, _ := sc.Skeleton("Hero_Rig")
	if !skel.Has("hips") {
		t.Fatalf("skeleton must be untouched without sync: %v", skel.Members())
	}
}

func TestRenameGroupsSyncRenamesJoints(t *testing.T) {
	srv, pm, sm := newTestServer(t)
	defer srv.Close()
	loadHeroScene(t, sm)
	seedRules(t, pm, "hips", "Hips")

	resp := postJSON(t, srv.URL+"/api/operations/rename-groups",
		`{"objects":["Hero_Body"],"sync":true}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	batch := decodeBatch(t, resp)
	if len(batch.Results) != 2 {
		t.Fatalf("expected mesh and counterpart reports, got %+v", batch.Results)
	}
	if batch.Results[1].Object != "Hero_Rig" || batch.Results[1].Via != "Hero_Body" {
		t.Fatalf("counterpart report should name its origin: %+v", batch.Results[1])
	}

	sc := sm.Snapshot()
	mesh, _ := sc.Mesh("Hero_Body")
	skel, _ := sc.Skeleton("Hero_Rig")
	if !mesh.Has("Hips") || !skel.Has("Hips") {
		t.Fatalf("lock-step rename incomplete: %v / %v", mesh.Members(), skel.Members())
	}
}

func TestRenameJointsSyncRenamesGroups(t *testing.T) {
	srv, pm, sm := newTestServer(t)
	defer srv.Close()
	loadHeroScene(t, sm)
	seedRules(t, pm, "waist", "Waist")

	resp := postJSON(t, srv.URL+"/api/operations/rename-joints",
		`{"objects":["Hero_Rig"],"sync":true}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	sc := sm.Snapshot()
	mesh, _ := sc.Mesh("Hero_Body")
	skel, _ := sc.Skeleton("Hero_Rig")
	if !skel.Has("Waist") || !mesh.Has("Waist") {
		t.Fatalf("joint-side sync incomplete: %v / %v", skel.Members(), mesh.Members())
	}
}

func TestSyncAmbiguousLinkageConflict(t *testing.T) {
	srv, pm, sm := newTestServer(t)
	defer srv.Close()
	seedRules(t, pm, "hips", "Hips")
	if err := sm.Load(&scene.Scene{
		Meshes: []*scene.Mesh{
			{Name: "M", Vertices: 1, Skeletons: []string{"S"},
				Groups: []*scene.WeightGroup{{Name: "hips"}}},
			{Name: "M2", Vertices: 1, Skeletons: []string{"S", "S2"},
				Groups: []*scene.WeightGroup{{Name: "hips"}}},
		},
		Skeletons: []*scene.Skeleton{{Name: "S"}, {Name: "S2"}},
	}); err != nil {
		t.Fatalf("load: %v", err)
	}

	resp := postJSON(t, srv.URL+"/api/operations/rename-groups",
		`{"objects":["M","M2"],"sync":true}`)
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", resp.StatusCode, body)
	}
	if !strings.Contains(body, "M2") {
		t.Fatalf("conflict must name the ambiguous object, got %q", body)
	}

	// The whole batch was rejected, including the unambiguous mesh.
	sc := sm.Snapshot()
	m, _ := sc.Mesh("M")
	if !m.Has("hips") {
		t.Fatalf("no mutation may survive a rejected batch: %v", m.Members())
	}
}

func TestMirrorJoints(t *testing.T) {
	srv, _, sm := newTestServer(t)
	defer srv.Close()
	loadHeroScene(t, sm)

	resp := postJSON(t, srv.URL+"/api/operations/mirror-joints",
		`{"objects":["Hero_Rig"]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	batch := decodeBatch(t, resp)
	if len(batch.Results) != 1 || len(batch.Results[0].Report.Renamed) != 2 {
		t.Fatalf("unexpected mirror batch: %+v", batch)
	}

	sc := sm.Snapshot()
	skel, _ := sc.Skeleton("Hero_Rig")
	l, _ := skel.Pose("L_Arm")
	r, _ := skel.Pose("R_Arm")
	if l.Roll != 2 || r.Roll != 1 {
		t.Fatalf("pair not swapped: L.Roll=%v R.Roll=%v", l.Roll, r.Roll)
	}
}

func TestUndoGroupsRestoresNames(t *testing.T) {
	srv, pm, sm := newTestServer(t)
	defer srv.Close()
	loadHeroScene(t, sm)
	seedRules(t, pm, "hips", "Hips", "waist", "Waist")

	postJSON(t, srv.URL+"/api/operations/rename-groups",
		`{"objects":["Hero_Body"]}`).Body.Close()
	resp := postJSON(t, srv.URL+"/api/operations/undo-groups",
		`{"objects":["Hero_Body"]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	sc := sm.Snapshot()
	mesh, _ := sc.Mesh("Hero_Body")
	if !mesh.Has("hips") || !mesh.Has("waist") {
		t.Fatalf("undo did not restore names: %v", mesh.Members())
	}
}

func TestOperationExplicitPreset(t *testing.T) {
	srv, pm, sm := newTestServer(t)
	defer srv.Close()
	loadHeroScene(t, sm)
	seedRules(t, pm, "hips", "WrongHips") // active preset, must not be used

	if err := pm.Create("Film"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := pm.AddRuleSet("Film", ""); err != nil {
		t.Fatalf("add ruleset: %v", err)
	}
	if err := pm.AddRule("Film", 0, "hips", "FilmHips"); err != nil {
		t.Fatalf("add rule: %v", err)
	}
	if err := pm.SetActive("Default"); err != nil {
		t.Fatalf("set active: %v", err)
	}

	resp := postJSON(t, srv.URL+"/api/operations/rename-groups",
		`{"objects":["Hero_Body"],"preset":"Film"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	sc := sm.Snapshot()
	mesh, _ := sc.Mesh("Hero_Body")
	if !mesh.Has("FilmHips") || mesh.Has("WrongHips") {
		t.Fatalf("expected explicit preset to win: %v", mesh.Members())
	}
}

func TestOperationErrors(t *testing.T) {
	srv, pm, sm := newTestServer(t)
	defer srv.Close()
	loadHeroScene(t, sm)
	seedRules(t, pm, "hips", "Hips")

	resp := postJSON(t, srv.URL+"/api/operations/rename-groups",
		`{"objects":["Ghost"]}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown mesh: expected 404, got %d", resp.StatusCode)
	}

	resp = postJSON(t, srv.URL+"/api/operations/rename-groups",
		`{"objects":["Hero_Body"],"preset":"Ghost"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown preset: expected 404, got %d", resp.StatusCode)
	}

	resp = postJSON(t, srv.URL+"/api/operations/rename-groups", `{"objects":[]}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty selection: expected 400, got %d", resp.StatusCode)
	}

	resp = postJSON(t, srv.URL+"/api/operations/rename-groups", "not-json")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad body: expected 400, got %d", resp.StatusCode)
	}
}

func TestJournalRecordsOperations(t *testing.T) {
	srv, pm, sm := newTestServerWithJournal(t)
	defer srv.Close()
	loadHeroScene(t, sm)
	seedRules(t, pm, "hips", "Hips")

	postJSON(t, srv.URL+"/api/operations/rename-groups",
		`{"objects":["Hero_Body"],"sync":true}`).Body.Close()
	postJSON(t, srv.URL+"/api/operations/mirror-joints",
		`{"objects":["Hero_Rig"]}`).Body.Close()

	resp, err := http.Get(srv.URL + "/api/journal?limit=10")
	if err != nil {
		t.Fatalf("GET /api/journal: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var entries []journal.Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode journal: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	// Newest first: mirror, then rename.
	if entries[0].Op != "mirror" || entries[0].Kind != "joints" {
		t.Fatalf("unexpected newest entry: %+v", entries[0])
	}
	if entries[1].Op != "rename" || entries[1].Preset != "Default" {
		t.Fatalf("unexpected oldest entry: %+v", entries[1])
	}
	if entries[1].Renamed != 2 {
		t.Fatalf("sync rename across both containers should count 2, got %d", entries[1].Renamed)
	}
	if entries[0].ID == "" || entries[0].ID == entries[1].ID {
		t.Fatalf("entries need distinct ids: %q vs %q", entries[0].ID, entries[1].ID)
	}
	var detail engine.BatchReport
	if err := json.Unmarshal(entries[1].Detail, &detail); err != nil {
		t.Fatalf("detail should hold the batch report: %v", err)
	}
	if len(detail.Results) != 2 {
		t.Fatalf("expected full batch in detail, got %+v", detail)
	}
}

func TestJournalEndpointWithoutJournal(t *testing.T) {
	srv, _, _ := newTestServer(t)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/journal")
	if err != nil {
		t.Fatalf("GET /api/journal: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var entries []journal.Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode journal: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty journal, got %+v", entries)
	}
}

func TestJournalLimitValidation(t *testing.T) {
	srv, _, _ := newTestServer(t)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/journal?limit=zero")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}
