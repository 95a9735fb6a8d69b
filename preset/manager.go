package preset

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Manager owns the rule store: loading, editing, and saving presets, and
// tracking which preset is active. Every mutation persists the whole
// document before returning; a failed write is reported via ErrPersist
// while the in-memory change stands.
type Manager struct {
	mu       sync.RWMutex
	filePath string
	store    *Store
	active   string
}

// NewManager loads the store from filePath. A missing or unreadable file
// starts an empty store; an empty store is seeded with the Default preset.
// Returns an error only on unexpected I/O failures.
func NewManager(filePath string) (*Manager, error) {
	m := &Manager{filePath: filePath, store: &Store{}}

	data, err := os.ReadFile(filePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Fresh start.
	case err != nil:
		return nil, err
	default:
		store, perr := parseDocument(data)
		if perr != nil {
			// A broken file must not lock the tool out. Start over; the
			// next save overwrites it.
			log.Printf("preset store %s unreadable, starting fresh: %v", filePath, perr)
			store = &Store{}
		}
		m.store = store
	}

	if len(m.store.Presets) == 0 {
		m.store.Presets = []*Preset{{Name: DefaultPreset}}
	}
	m.active = m.store.Presets[0].Name
	for _, p := range m.store.Presets {
		if p.Name == DefaultPreset {
			m.active = DefaultPreset
			break
		}
	}
	return m, nil
}

// Snapshot returns a deep copy of the store and the active preset name.
func (m *Manager) Snapshot() (Store, string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return *m.store.clone(), m.active
}

// Preset returns a deep copy of one preset.
func (m *Manager) Preset(name string) (*Preset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, p := m.find(name)
	if p == nil {
		return nil, fmt.Errorf("preset %q: %w", name, ErrNotFound)
	}
	return p.clone(), nil
}

// Active returns the name of the active preset.
func (m *Manager) Active() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

// SetActive selects the preset operations resolve against by default.
// The selection is in-memory only; it is not part of the saved document.
func (m *Manager) SetActive(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, p := m.find(name); p == nil {
		return fmt.Errorf("preset %q: %w", name, ErrNotFound)
	}
	m.active = name
	return nil
}

// Create adds an empty preset and makes it active.
func (m *Manager) Create(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkNewName(name); err != nil {
		return err
	}
	m.store.Presets = append(m.store.Presets, &Preset{Name: name})
	m.active = name
	return m.persist()
}

// Duplicate deep-copies preset src under the name dst and makes dst active.
func (m *Manager) Duplicate(src, dst string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, p := m.find(src)
	if p == nil {
		return fmt.Errorf("preset %q: %w", src, ErrNotFound)
	}
	if err := m.checkNewName(dst); err != nil {
		return err
	}
	cp := p.clone()
	cp.Name = dst
	m.store.Presets = append(m.store.Presets, cp)
	m.active = dst
	return m.persist()
}

// Rename changes a preset's name, keeping its position in the store.
func (m *Manager) Rename(src, dst string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, p := m.find(src)
	if p == nil {
		return fmt.Errorf("preset %q: %w", src, ErrNotFound)
	}
	if err := m.checkNewName(dst); err != nil {
		return err
	}
	p.Name = dst
	if m.active == src {
		m.active = dst
	}
	return m.persist()
}

// Delete removes a preset. The Default preset and the last remaining
// preset are protected. Deleting the active preset activates the first
// remaining one.
func (m *Manager) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, p := m.find(name)
	if p == nil {
		return fmt.Errorf("preset %q: %w", name, ErrNotFound)
	}
	if name == DefaultPreset {
		return fmt.Errorf("preset %q: %w", name, ErrProtectedName)
	}
	if len(m.store.Presets) == 1 {
		return fmt.Errorf("last preset %q: %w", name, ErrProtectedName)
	}
	m.store.Presets = append(m.store.Presets[:i], m.store.Presets[i+1:]...)
	if m.active == name {
		m.active = m.store.Presets[0].Name
	}
	return m.persist()
}

// AddRuleSet appends an empty ruleset for prefix, which is
// whitespace-trimmed. The empty prefix is allowed once per preset and acts
// as the catch-all.
func (m *Manager) AddRuleSet(preset, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, p := m.find(preset)
	if p == nil {
		return fmt.Errorf("preset %q: %w", preset, ErrNotFound)
	}
	prefix = strings.TrimSpace(prefix)
	for _, rs := range p.RuleSets {
		if rs.Prefix == prefix {
			return fmt.Errorf("prefix %q: %w", prefix, ErrDuplicateName)
		}
	}
	p.RuleSets = append(p.RuleSets, &RuleSet{Prefix: prefix})
	return m.persist()
}

// RemoveRuleSet deletes the ruleset at idx.
func (m *Manager) RemoveRuleSet(preset string, idx int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, p := m.find(preset)
	if p == nil {
		return fmt.Errorf("preset %q: %w", preset, ErrNotFound)
	}
	if idx < 0 || idx >= len(p.RuleSets) {
		return fmt.Errorf("ruleset %d: %w", idx, ErrNotFound)
	}
	p.RuleSets = append(p.RuleSets[:idx], p.RuleSets[idx+1:]...)
	return m.persist()
}

// RenameRuleSet changes the prefix of the ruleset at idx, keeping its
// position.
func (m *Manager) RenameRuleSet(preset string, idx int, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, p := m.find(preset)
	if p == nil {
		return fmt.Errorf("preset %q: %w", preset, ErrNotFound)
	}
	if idx < 0 || idx >= len(p.RuleSets) {
		return fmt.Errorf("ruleset %d: %w", idx, ErrNotFound)
	}
	prefix = strings.TrimSpace(prefix)
	for i, rs := range p.RuleSets {
		if i != idx && rs.Prefix == prefix {
			return fmt.Errorf("prefix %q: %w", prefix, ErrDuplicateName)
		}
	}
	p.RuleSets[idx].Prefix = prefix
	return m.persist()
}

// AddRule appends an old→new mapping to the ruleset at idx. Both names
// must be non-empty and old must not already be mapped in that ruleset.
func (m *Manager) AddRule(preset string, idx int, old, new string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rs, err := m.ruleSet(preset, idx)
	if err != nil {
		return err
	}
	if old == "" || new == "" {
		return fmt.Errorf("empty rule name: %w", ErrDuplicateName)
	}
	for _, r := range rs.Rules {
		if r.Old == old {
			return fmt.Errorf("rule %q: %w", old, ErrDuplicateName)
		}
	}
	rs.Rules = append(rs.Rules, Rule{Old: old, New: new})
	return m.persist()
}

// EditRule replaces both sides of the rule at ruleIdx in place, keeping
// its position. Changing old to a name already mapped by a different rule
// in the same ruleset is rejected with no change.
func (m *Manager) EditRule(preset string, idx, ruleIdx int, old, new string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rs, err := m.ruleSet(preset, idx)
	if err != nil {
		return err
	}
	if ruleIdx < 0 || ruleIdx >= len(rs.Rules) {
		return fmt.Errorf("rule %d: %w", ruleIdx, ErrNotFound)
	}
	for i, r := range rs.Rules {
		if i != ruleIdx && r.Old == old {
			return fmt.Errorf("rule %q: %w", old, ErrDuplicateName)
		}
	}
	rs.Rules[ruleIdx] = Rule{Old: old, New: new}
	return m.persist()
}

// RemoveRule deletes the rule at ruleIdx.
func (m *Manager) RemoveRule(preset string, idx, ruleIdx int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rs, err := m.ruleSet(preset, idx)
	if err != nil {
		return err
	}
	if ruleIdx < 0 || ruleIdx >= len(rs.Rules) {
		return fmt.Errorf("rule %d: %w", ruleIdx, ErrNotFound)
	}
	rs.Rules = append(rs.Rules[:ruleIdx], rs.Rules[ruleIdx+1:]...)
	return m.persist()
}

// ImportFile merges an external document into the store. A preset sharing
// a name with a local one replaces its contents in place; new presets
// append in document order. The last preset named in the document becomes
// active and its name is returned. Nothing changes on a read or parse
// error.
func (m *Manager) ImportFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("import: %w", err)
	}
	imported, err := parseDocument(data)
	if err != nil {
		return "", fmt.Errorf("import %s: %w", path, err)
	}
	if len(imported.Presets) == 0 {
		return "", fmt.Errorf("import %s: document has no presets", path)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, in := range imported.Presets {
		if i, p := m.find(in.Name); p != nil {
			m.store.Presets[i] = in
			continue
		}
		m.store.Presets = append(m.store.Presets, in)
	}
	last := imported.Presets[len(imported.Presets)-1].Name
	m.active = last
	return last, m.persist()
}

// ExportFile writes the whole store to path, appending ".json" when the
// suffix is missing (case-insensitive). Returns the path written.
func (m *Manager) ExportFile(path string) (string, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".json") {
		path += ".json"
	}
	m.mu.RLock()
	data, err := marshalDocument(m.store)
	m.mu.RUnlock()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	return path, nil
}

// find locates a preset by name. Caller must hold m.mu.
func (m *Manager) find(name string) (int, *Preset) {
	for i, p := range m.store.Presets {
		if p.Name == name {
			return i, p
		}
	}
	return -1, nil
}

// ruleSet resolves a preset name and ruleset index. Caller must hold m.mu.
func (m *Manager) ruleSet(preset string, idx int) (*RuleSet, error) {
	_, p := m.find(preset)
	if p == nil {
		return nil, fmt.Errorf("preset %q: %w", preset, ErrNotFound)
	}
	if idx < 0 || idx >= len(p.RuleSets) {
		return nil, fmt.Errorf("ruleset %d: %w", idx, ErrNotFound)
	}
	return p.RuleSets[idx], nil
}

func (m *Manager) checkNewName(name string) error {
	if name == "" {
		return fmt.Errorf("empty preset name: %w", ErrDuplicateName)
	}
	if _, p := m.find(name); p != nil {
		return fmt.Errorf("preset %q: %w", name, ErrDuplicateName)
	}
	return nil
}

// persist writes the store to disk. The in-memory mutation has already
// happened; a write failure comes back wrapped in ErrPersist so callers
// can warn without rolling back.
func (m *Manager) persist() error {
	if err := m.writeAtomic(); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}

// writeAtomic writes to a temp file then renames it over filePath.
func (m *Manager) writeAtomic() error {
	dir := filepath.Dir(m.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := marshalDocument(m.store)
	if err != nil {
		return err
	}
	tmp := m.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, m.filePath)
}
