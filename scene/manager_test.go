package scene_test

import (
	"os"
	"strings"
	"testing"

	"rigrename/scene"
)

func twoObjectScene() *scene.Scene {
	return &scene.Scene{
		Meshes: []*scene.Mesh{{
			Name:      "Body",
			Vertices:  3,
			Skeletons: []string{"Rig"},
			Groups: []*scene.WeightGroup{
				{Name: "hips", Weights: map[int]float64{0: 0.5}},
				{Name: "chest", Weights: map[int]float64{1: 0.25, 2: 1}},
			},
		}},
		Skeletons: []*scene.Skeleton{{
			Name:   "Rig",
			Joints: []*scene.Joint{{Name: "hips"}, {Name: "chest", Roll: 0.5}},
		}},
	}
}

func TestLoadReplacesScene(t *testing.T) {
	m := scene.NewManager()
	if err := m.Load(twoObjectScene()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	sc := m.Snapshot()
	if len(sc.Meshes) != 1 || sc.Meshes[0].Name != "Body" {
		t.Fatalf("unexpected scene: %+v", sc)
	}
}

func TestLoadRejectsInvalidDocument(t *testing.T) {
	m := scene.NewManager()
	if err := m.Load(twoObjectScene()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	bad := &scene.Scene{Meshes: []*scene.Mesh{
		{Name: "Dup", Vertices: 1},
		{Name: "Dup", Vertices: 1},
	}}
	if err := m.Load(bad); err == nil {
		t.Fatal("expected duplicate mesh error")
	}
	// The previous scene survives a rejected load.
	if sc := m.Snapshot(); len(sc.Meshes) != 1 || sc.Meshes[0].Name != "Body" {
		t.Fatalf("rejected load must not replace the scene: %+v", sc)
	}

	overweight := &scene.Scene{Meshes: []*scene.Mesh{{
		Name: "M", Vertices: 1,
		Groups: []*scene.WeightGroup{{Name: "g", Weights: map[int]float64{0: 1.5}}},
	}}}
	if err := m.Load(overweight); err == nil {
		t.Fatal("expected weight range error")
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	m := scene.NewManager()
	if err := m.Load(twoObjectScene()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	first := m.Snapshot()
	first.Meshes[0].Groups[0].Name = "mutated"
	first.Meshes[0].Groups[0].Weights[0] = 0.9
	first.Skeletons[0].Joints[1].Roll = 99

	second := m.Snapshot()
	if second.Meshes[0].Groups[0].Name != "hips" {
		t.Fatalf("group name leaked: %q", second.Meshes[0].Groups[0].Name)
	}
	if w := second.Meshes[0].Groups[0].Weights[0]; w != 0.5 {
		t.Fatalf("weight leaked: %v", w)
	}
	if second.Skeletons[0].Joints[1].Roll != 0.5 {
		t.Fatalf("roll leaked: %v", second.Skeletons[0].Joints[1].Roll)
	}
}

func TestWithSceneMutatesLive(t *testing.T) {
	m := scene.NewManager()
	if err := m.Load(twoObjectScene()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	err := m.WithScene(func(sc *scene.Scene) error {
		mesh, _ := sc.Mesh("Body")
		return mesh.Rename("hips", "pelvis")
	})
	if err != nil {
		t.Fatalf("WithScene: %v", err)
	}
	sc := m.Snapshot()
	mesh, _ := sc.Mesh("Body")
	if !mesh.Has("pelvis") || mesh.Has("hips") {
		t.Fatalf("mutation lost: %v", mesh.Members())
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	good := dir + "/scene.json"
	doc := `{"meshes":[{"name":"Box","vertices":1,"groups":[]}],"skeletons":[]}`
	if err := os.WriteFile(good, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	m := scene.NewManager()
	if err := m.LoadFile(good); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if sc := m.Snapshot(); len(sc.Meshes) != 1 || sc.Meshes[0].Name != "Box" {
		t.Fatalf("unexpected scene: %+v", m.Snapshot())
	}

	if err := m.LoadFile(dir + "/missing.json"); err == nil {
		t.Fatal("expected error for missing file")
	}

	corrupt := dir + "/corrupt.json"
	if err := os.WriteFile(corrupt, []byte("{nope"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := m.LoadFile(corrupt); err == nil {
		t.Fatal("expected error for corrupt file")
	}
}

func TestExportFileRoundTrip(t *testing.T) {
	m := scene.NewManager()
	if err := m.Load(twoObjectScene()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	path, err := m.ExportFile(t.TempDir() + "/out")
	if err != nil {
		t.Fatalf("ExportFile: %v", err)
	}
	if !strings.HasSuffix(path, ".json") {
		t.Fatalf("expected .json suffix, got %q", path)
	}

	m2 := scene.NewManager()
	if err := m2.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	sc := m2.Snapshot()
	mesh, ok := sc.Mesh("Body")
	if !ok || !mesh.Has("chest") {
		t.Fatalf("round trip lost data: %+v", sc)
	}
	if w, ok := mesh.Weight("chest", 2); !ok || w != 1 {
		t.Fatalf("weights lost: %v %v", w, ok)
	}
}
