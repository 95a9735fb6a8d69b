package scene

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Manager guards the live scene. Engine operations run inside WithScene so
// a whole batch is one atomic step relative to loads and snapshots.
type Manager struct {
	mu    sync.RWMutex
	scene *Scene
}

func NewManager() *Manager {
	return &Manager{scene: &Scene{Meshes: []*Mesh{}, Skeletons: []*Skeleton{}}}
}

// Load validates doc and replaces the current scene with it.
func (m *Manager) Load(doc *Scene) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	if doc.Meshes == nil {
		doc.Meshes = []*Mesh{}
	}
	if doc.Skeletons == nil {
		doc.Skeletons = []*Skeleton{}
	}
	m.mu.Lock()
	m.scene = doc
	m.mu.Unlock()
	return nil
}

// LoadFile reads a JSON scene document from disk.
func (m *Manager) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc Scene
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("scene %s: %w", path, err)
	}
	return m.Load(&doc)
}

// Snapshot returns a deep copy of the scene.
func (m *Manager) Snapshot() *Scene {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.scene.clone()
}

// WithScene runs fn with exclusive access to the live scene.
func (m *Manager) WithScene(fn func(*Scene) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m.scene)
}

// ExportFile writes the scene to path, appending ".json" when the suffix
// is missing (case-insensitive). Returns the path written.
func (m *Manager) ExportFile(path string) (string, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".json") {
		path += ".json"
	}
	data, err := json.MarshalIndent(m.Snapshot(), "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("export scene: %w", err)
	}
	return path, nil
}
