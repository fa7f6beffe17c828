package preset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"regex-workbench/script"
)

// ScriptStore is the slice of the script store the preset manager drives.
type ScriptStore interface {
	Scripts(scope script.Scope, allowedOnly bool) []script.Script
	SaveScripts(scope script.Scope, scripts []script.Script) ([]string, error)
}

// Manager handles loading, saving and applying activation bundles.
type Manager struct {
	mu       sync.RWMutex
	filePath string
	store    ScriptStore
	log      *zap.Logger
	data     presetFile
}

// NewManager loads the preset file from filePath, or starts with empty state
// if the file does not exist. Returns an error only on unexpected I/O failures.
func NewManager(filePath string, store ScriptStore, log *zap.Logger) (*Manager, error) {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{filePath: filePath, store: store, log: log}
	if err := m.Reload(); err != nil {
		return nil, err
	}
	return m, nil
}

// Reload replaces in-memory state with the file's current contents.
func (m *Manager) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// Missing file: start empty.
			m.data = presetFile{Presets: []Preset{}}
			return nil
		}
		return err
	}
	var file presetFile
	if err := json.Unmarshal(data, &file); err != nil {
		return err
	}
	if file.Presets == nil {
		file.Presets = []Preset{}
	}
	m.data = file
	return nil
}

// List returns a copy of all presets.
func (m *Manager) List() []Preset {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Preset, len(m.data.Presets))
	for i, p := range m.data.Presets {
		out[i] = clonePreset(p)
	}
	return out
}

// Selected returns the id of the currently selected preset, or "" when
// nothing is selected.
func (m *Manager) Selected() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.SelectedID
}

// Capture snapshots which scripts are currently enabled, per scope, in list
// order. Order matters for Apply; comparisons ignore it.
func (m *Manager) Capture() Snapshot {
	return Snapshot{
		Global: enabledIDs(m.store.Scripts(script.ScopeGlobal, false)),
		Preset: enabledIDs(m.store.Scripts(script.ScopePreset, false)),
		Scoped: enabledIDs(m.store.Scripts(script.ScopeScoped, false)),
	}
}

// Dirty reports whether the enabled set has drifted from the selected
// preset's stored set. With no selection there is nothing to drift from.
// Reordering alone never counts as drift.
func (m *Manager) Dirty() bool {
	m.mu.RLock()
	selected := m.data.SelectedID
	var stored Snapshot
	found := false
	for _, p := range m.data.Presets {
		if p.ID == selected {
			stored = p.Enabled
			found = true
			break
		}
	}
	m.mu.RUnlock()

	if selected == "" || !found {
		return false
	}
	return !m.Capture().Equal(stored)
}

// Save captures the current enabled state into a new named preset and
// selects it. Names must be unique.
func (m *Manager) Save(name string) (Preset, error) {
	if name == "" {
		return Preset{}, errors.New("empty preset name")
	}
	snap := m.Capture()

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.data.Presets {
		if p.Name == name {
			return Preset{}, ErrNameTaken
		}
	}
	p := Preset{ID: uuid.New().String(), Name: name, Enabled: snap}
	oldPresets, oldSelected := m.data.Presets, m.data.SelectedID
	m.data.Presets = append(append([]Preset{}, oldPresets...), p)
	m.data.SelectedID = p.ID
	if err := m.writeAtomic(); err != nil {
		m.data.Presets, m.data.SelectedID = oldPresets, oldSelected
		return Preset{}, err
	}
	m.log.Info("preset saved", zap.String("id", p.ID), zap.String("name", name))
	return clonePreset(p), nil
}

// Update re-captures the current enabled state into an existing preset and
// selects it, clearing any drift against it.
func (m *Manager) Update(id string) (Preset, error) {
	snap := m.Capture()

	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexLocked(id)
	if idx < 0 {
		return Preset{}, ErrNotFound
	}
	old := m.data.Presets[idx]
	oldSelected := m.data.SelectedID
	m.data.Presets[idx].Enabled = snap
	m.data.SelectedID = id
	if err := m.writeAtomic(); err != nil {
		m.data.Presets[idx] = old
		m.data.SelectedID = oldSelected
		return Preset{}, err
	}
	return clonePreset(m.data.Presets[idx]), nil
}

// Delete removes a preset. Deleting the selected preset clears the selection.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexLocked(id)
	if idx < 0 {
		return ErrNotFound
	}
	oldPresets, oldSelected := m.data.Presets, m.data.SelectedID
	m.data.Presets = append(append([]Preset{}, oldPresets[:idx]...), oldPresets[idx+1:]...)
	if m.data.SelectedID == id {
		m.data.SelectedID = ""
	}
	if err := m.writeAtomic(); err != nil {
		m.data.Presets, m.data.SelectedID = oldPresets, oldSelected
		return err
	}
	return nil
}

// Apply activates one preset. Per scope, scripts named by the preset are
// enabled and moved to the front in the preset's order; every other script
// is disabled and keeps its prior relative order after them. Ids that no
// longer resolve are ignored. While the current selection has unsaved
// enabled-set changes, Apply refuses with ErrDirty unless discard is set.
func (m *Manager) Apply(id string, discard bool) error {
	m.mu.RLock()
	idx := m.indexLocked(id)
	var target Preset
	if idx >= 0 {
		target = clonePreset(m.data.Presets[idx])
	}
	m.mu.RUnlock()

	if idx < 0 {
		return ErrNotFound
	}
	if !discard && m.Dirty() {
		return ErrDirty
	}

	for _, sc := range script.ScopeOrder {
		list := m.store.Scripts(sc, false)
		if len(list) == 0 {
			continue
		}
		if _, err := m.store.SaveScripts(sc, applyOrder(list, target.Enabled.forScope(sc))); err != nil {
			return fmt.Errorf("apply to %s scope: %w", sc, err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	oldSelected := m.data.SelectedID
	m.data.SelectedID = id
	if err := m.writeAtomic(); err != nil {
		m.data.SelectedID = oldSelected
		return err
	}
	m.log.Info("preset applied", zap.String("id", id), zap.String("name", target.Name))
	return nil
}

func (m *Manager) indexLocked(id string) int {
	for i := range m.data.Presets {
		if m.data.Presets[i].ID == id {
			return i
		}
	}
	return -1
}

func (s Snapshot) forScope(scope script.Scope) []string {
	switch scope {
	case script.ScopeGlobal:
		return s.Global
	case script.ScopePreset:
		return s.Preset
	case script.ScopeScoped:
		return s.Scoped
	}
	return nil
}

// applyOrder rewrites one scope's list for a preset: wanted ids first, in
// want order and enabled, everything else after in prior relative order and
// disabled. Unknown and duplicate ids in want are skipped.
func applyOrder(list []script.Script, want []string) []script.Script {
	byID := make(map[string]int, len(list))
	for i := range list {
		byID[list[i].ID] = i
	}
	used := make(map[string]bool, len(want))
	out := make([]script.Script, 0, len(list))
	for _, id := range want {
		i, ok := byID[id]
		if !ok || used[id] {
			continue
		}
		used[id] = true
		s := list[i]
		s.Disabled = false
		out = append(out, s)
	}
	for _, s := range list {
		if used[s.ID] {
			continue
		}
		s.Disabled = true
		out = append(out, s)
	}
	return out
}

func enabledIDs(list []script.Script) []string {
	ids := make([]string, 0, len(list))
	for _, s := range list {
		if !s.Disabled {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

func clonePreset(p Preset) Preset {
	p.Enabled = Snapshot{
		Global: append([]string(nil), p.Enabled.Global...),
		Preset: append([]string(nil), p.Enabled.Preset...),
		Scoped: append([]string(nil), p.Enabled.Scoped...),
	}
	return p
}

// writeAtomic writes to a temp file then renames it over filePath.
// Caller must hold m.mu.
func (m *Manager) writeAtomic() error {
	dir := filepath.Dir(m.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp := m.filePath + ".tmp"
	data, err := json.MarshalIndent(m.data, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, m.filePath)
}
