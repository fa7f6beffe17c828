// Package store owns the persisted regex scripts, partitioned into the
// global, character-scoped and preset-scoped collections, together with the
// allow-lists and ambient context that gate them.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"regex-workbench/macro"
	"regex-workbench/script"
)

// Store handles loading, saving and updating the script collections. All
// methods are safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	filePath string
	log      *zap.Logger
	extras   map[string]string
	data     storeFile
}

// New loads the store from filePath, or creates empty state if the file
// does not exist. Returns an error only on unexpected I/O failures.
func New(filePath string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	st := &Store{filePath: filePath, log: log}
	if err := st.Reload(); err != nil {
		return nil, err
	}
	return st, nil
}

// Reload replaces in-memory state with the file's current contents. A
// missing file resets to empty state. The watcher calls this when the file
// changes on disk behind the service's back.
func (st *Store) Reload() error {
	st.mu.Lock()
	defer st.mu.Unlock()

	data, err := os.ReadFile(st.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			st.data = emptyFile()
			return nil
		}
		return fmt.Errorf("read scripts store: %w", err)
	}
	var file storeFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse scripts store: %w", err)
	}
	st.data = file
	st.repairLocked()
	return nil
}

// repairLocked normalizes records at the load boundary: nil collections,
// missing ids, retired placement tags. The file itself is only rewritten on
// the next save.
func (st *Store) repairLocked() {
	if st.data.Global == nil {
		st.data.Global = []script.Script{}
	}
	if st.data.Characters == nil {
		st.data.Characters = map[string]*characterEntry{}
	}
	if st.data.Presets == nil {
		st.data.Presets = map[string]*presetEntry{}
	}
	if st.data.AllowedCharacters == nil {
		st.data.AllowedCharacters = []string{}
	}
	if st.data.AllowedPresets == nil {
		st.data.AllowedPresets = []PresetKey{}
	}
	repairList := func(list []script.Script) {
		for i := range list {
			if script.Normalize(&list[i]) {
				st.log.Debug("repaired script record", zap.String("script", list[i].Name))
			}
		}
	}
	repairList(st.data.Global)
	for _, entry := range st.data.Characters {
		repairList(entry.Scripts)
	}
	for _, entry := range st.data.Presets {
		repairList(entry.Scripts)
	}
}

// Enabled reports the master switch.
func (st *Store) Enabled() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return !st.data.Settings.Disabled
}

// SetEnabled flips the master switch and persists it.
func (st *Store) SetEnabled(enabled bool) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	old := st.data.Settings.Disabled
	st.data.Settings.Disabled = !enabled
	if err := st.persistLocked(); err != nil {
		st.data.Settings.Disabled = old
		return err
	}
	return nil
}

// Context returns the ambient chat state.
func (st *Store) Context() Context {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.data.Context
}

// SetContext replaces the ambient chat state and persists it.
func (st *Store) SetContext(ctx Context) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	old := st.data.Context
	st.data.Context = ctx
	if err := st.persistLocked(); err != nil {
		st.data.Context = old
		return err
	}
	return nil
}

// SetExtraMacros installs operator-defined macro values (from config).
// Token names are case-insensitive; they are not persisted.
func (st *Store) SetExtraMacros(extras map[string]string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if len(extras) == 0 {
		st.extras = nil
		return
	}
	st.extras = make(map[string]string, len(extras))
	for name, value := range extras {
		st.extras[strings.ToLower(name)] = value
	}
}

// MacroEnv builds the substitution environment for the current context.
func (st *Store) MacroEnv() macro.Env {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return macro.Env{
		Character: st.data.Context.CharacterName,
		User:      st.data.Context.UserName,
		Extra:     st.extras,
	}
}

// Scripts returns a deep copy of one scope's scripts in list order. With
// allowedOnly set, the scoped and preset collections return nothing unless
// the active character/preset is in the matching allow-list. An unknown
// scope is logged and returns nothing.
func (st *Store) Scripts(scope script.Scope, allowedOnly bool) []script.Script {
	st.mu.RLock()
	defer st.mu.RUnlock()

	switch scope {
	case script.ScopeGlobal:
		return script.CloneAll(st.data.Global)
	case script.ScopeScoped:
		avatar := st.data.Context.CharacterAvatar
		if avatar == "" {
			return nil
		}
		if allowedOnly && !st.characterAllowedLocked(avatar) {
			return nil
		}
		entry := st.data.Characters[avatar]
		if entry == nil {
			return nil
		}
		return script.CloneAll(entry.Scripts)
	case script.ScopePreset:
		key := st.activePresetKeyLocked()
		if key.API == "" && key.Name == "" {
			return nil
		}
		if allowedOnly && !st.presetAllowedLocked(key) {
			return nil
		}
		entry := st.data.Presets[key.String()]
		if entry == nil {
			return nil
		}
		return script.CloneAll(entry.Scripts)
	}
	st.log.Warn("unknown scope requested", zap.String("scope", string(scope)))
	return nil
}

// GetScript returns one script by id from a scope.
func (st *Store) GetScript(scope script.Scope, id string) (script.Script, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	for _, s := range st.listLocked(scope) {
		if s.ID == id {
			return s.Clone(), nil
		}
	}
	return script.Script{}, ErrNotFound
}

// SaveScripts replaces one scope's list. Records are repaired and validated
// at this boundary: scripts with no name are dropped with a warning, ids
// colliding with another scope are reassigned, and soft problems (empty
// pattern, empty placement) come back as warnings alongside the save.
func (st *Store) SaveScripts(scope script.Scope, scripts []script.Script) ([]string, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	ref, err := st.scriptsRefLocked(scope)
	if err != nil {
		return nil, err
	}
	taken := st.idsExceptLocked(ref)
	kept := make([]script.Script, 0, len(scripts))
	var warnings []string
	for i := range scripts {
		s := scripts[i].Clone()
		script.Normalize(&s)
		w, err := script.Validate(&s)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("script %d dropped: %v", i+1, err))
			continue
		}
		warnings = append(warnings, w...)
		if taken[s.ID] {
			s.ID = uuid.New().String()
			warnings = append(warnings, fmt.Sprintf("script %q had a duplicate id; assigned a new one", s.Name))
		}
		taken[s.ID] = true
		kept = append(kept, s)
	}

	old := *ref
	*ref = kept
	if err := st.persistLocked(); err != nil {
		*ref = old
		return warnings, err
	}
	return warnings, nil
}

// CreateScript validates and appends one script to a scope.
func (st *Store) CreateScript(scope script.Scope, s script.Script) (script.Script, []string, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	ref, err := st.scriptsRefLocked(scope)
	if err != nil {
		return script.Script{}, nil, err
	}
	s = s.Clone()
	script.Normalize(&s)
	warnings, err := script.Validate(&s)
	if err != nil {
		return script.Script{}, nil, err
	}
	if st.idsExceptLocked(nil)[s.ID] {
		s.ID = uuid.New().String()
	}

	old := *ref
	*ref = append(append([]script.Script{}, old...), s)
	if err := st.persistLocked(); err != nil {
		*ref = old
		return script.Script{}, warnings, err
	}
	return s.Clone(), warnings, nil
}

// UpdateScript replaces one script in place, keeping its id and position.
func (st *Store) UpdateScript(scope script.Scope, id string, s script.Script) (script.Script, []string, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	ref, err := st.scriptsRefLocked(scope)
	if err != nil {
		return script.Script{}, nil, err
	}
	idx := indexByID(*ref, id)
	if idx < 0 {
		return script.Script{}, nil, ErrNotFound
	}
	s = s.Clone()
	s.ID = id
	script.Normalize(&s)
	warnings, err := script.Validate(&s)
	if err != nil {
		return script.Script{}, nil, err
	}

	old := (*ref)[idx]
	(*ref)[idx] = s
	if err := st.persistLocked(); err != nil {
		(*ref)[idx] = old
		return script.Script{}, warnings, err
	}
	return s.Clone(), warnings, nil
}

// DeleteScript removes one script from a scope.
func (st *Store) DeleteScript(scope script.Scope, id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	ref, err := st.scriptsRefLocked(scope)
	if err != nil {
		return err
	}
	idx := indexByID(*ref, id)
	if idx < 0 {
		return ErrNotFound
	}

	old := *ref
	*ref = append(append([]script.Script{}, old[:idx]...), old[idx+1:]...)
	if err := st.persistLocked(); err != nil {
		*ref = old
		return err
	}
	return nil
}

// MoveScript transfers one script between scopes, preserving its id. The
// removal and insertion happen in one critical section, so no observer can
// see the script in zero or two scopes.
func (st *Store) MoveScript(id string, from, to script.Scope) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	fromRef, err := st.scriptsRefLocked(from)
	if err != nil {
		return err
	}
	toRef, err := st.scriptsRefLocked(to)
	if err != nil {
		return err
	}
	idx := indexByID(*fromRef, id)
	if idx < 0 {
		return ErrNotFound
	}
	// Same-scope moves are a no-op, but only for ids that exist.
	if from == to {
		return nil
	}

	moved := (*fromRef)[idx]
	oldFrom, oldTo := *fromRef, *toRef
	*fromRef = append(append([]script.Script{}, oldFrom[:idx]...), oldFrom[idx+1:]...)
	*toRef = append(append([]script.Script{}, oldTo...), moved)
	if err := st.persistLocked(); err != nil {
		*fromRef, *toRef = oldFrom, oldTo
		return err
	}
	return nil
}

// Import parses an uploaded payload (one script object or an array) and
// appends the entries to a scope. Every imported script gets a fresh id.
func (st *Store) Import(scope script.Scope, payload []byte) ([]script.Script, []string, error) {
	incoming, err := script.DecodeImport(payload)
	if err != nil {
		return nil, nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	ref, err := st.scriptsRefLocked(scope)
	if err != nil {
		return nil, nil, err
	}
	imported := make([]script.Script, 0, len(incoming))
	var warnings []string
	for i := range incoming {
		s := incoming[i].Clone()
		s.ID = ""
		script.Normalize(&s)
		w, err := script.Validate(&s)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("import entry %d dropped: %v", i+1, err))
			continue
		}
		warnings = append(warnings, w...)
		imported = append(imported, s)
	}

	old := *ref
	*ref = append(append([]script.Script{}, old...), imported...)
	if err := st.persistLocked(); err != nil {
		*ref = old
		return nil, warnings, err
	}
	return script.CloneAll(imported), warnings, nil
}

// SetCharacterAllowed adds or removes a character avatar id from the
// allow-list that gates scoped script execution.
func (st *Store) SetCharacterAllowed(avatar string, allowed bool) error {
	if avatar == "" {
		return fmt.Errorf("empty avatar id")
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	old := st.data.AllowedCharacters
	has := false
	next := make([]string, 0, len(old)+1)
	for _, a := range old {
		if a == avatar {
			has = true
			if !allowed {
				continue
			}
		}
		next = append(next, a)
	}
	if allowed && !has {
		next = append(next, avatar)
	}
	if allowed == has {
		return nil
	}

	st.data.AllowedCharacters = next
	if err := st.persistLocked(); err != nil {
		st.data.AllowedCharacters = old
		return err
	}
	return nil
}

// SetPresetAllowed adds or removes an (api, name) pair from the allow-list
// that gates preset script execution.
func (st *Store) SetPresetAllowed(key PresetKey, allowed bool) error {
	if key.API == "" && key.Name == "" {
		return fmt.Errorf("empty preset key")
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	old := st.data.AllowedPresets
	has := false
	next := make([]PresetKey, 0, len(old)+1)
	for _, k := range old {
		if k == key {
			has = true
			if !allowed {
				continue
			}
		}
		next = append(next, k)
	}
	if allowed && !has {
		next = append(next, key)
	}
	if allowed == has {
		return nil
	}

	st.data.AllowedPresets = next
	if err := st.persistLocked(); err != nil {
		st.data.AllowedPresets = old
		return err
	}
	return nil
}

func (st *Store) characterAllowedLocked(avatar string) bool {
	for _, a := range st.data.AllowedCharacters {
		if a == avatar {
			return true
		}
	}
	return false
}

func (st *Store) presetAllowedLocked(key PresetKey) bool {
	for _, k := range st.data.AllowedPresets {
		if k == key {
			return true
		}
	}
	return false
}

func (st *Store) activePresetKeyLocked() PresetKey {
	return PresetKey{API: st.data.Context.PresetAPI, Name: st.data.Context.PresetName}
}

// listLocked returns the live backing list for reads; nil when the scope has
// no backing entry yet.
func (st *Store) listLocked(scope script.Scope) []script.Script {
	switch scope {
	case script.ScopeGlobal:
		return st.data.Global
	case script.ScopeScoped:
		if entry := st.data.Characters[st.data.Context.CharacterAvatar]; entry != nil {
			return entry.Scripts
		}
	case script.ScopePreset:
		if entry := st.data.Presets[st.activePresetKeyLocked().String()]; entry != nil {
			return entry.Scripts
		}
	}
	return nil
}

// scriptsRefLocked returns a pointer to the live backing list for writes,
// creating the character/preset entry on demand. Writing to the scoped or
// preset collection requires an active character or preset in the context.
func (st *Store) scriptsRefLocked(scope script.Scope) (*[]script.Script, error) {
	switch scope {
	case script.ScopeGlobal:
		return &st.data.Global, nil
	case script.ScopeScoped:
		avatar := st.data.Context.CharacterAvatar
		if avatar == "" {
			return nil, ErrNoCharacter
		}
		entry := st.data.Characters[avatar]
		if entry == nil {
			entry = &characterEntry{Scripts: []script.Script{}}
			st.data.Characters[avatar] = entry
		}
		return &entry.Scripts, nil
	case script.ScopePreset:
		key := st.activePresetKeyLocked()
		if key.API == "" && key.Name == "" {
			return nil, ErrNoPreset
		}
		entry := st.data.Presets[key.String()]
		if entry == nil {
			entry = &presetEntry{Scripts: []script.Script{}}
			st.data.Presets[key.String()] = entry
		}
		return &entry.Scripts, nil
	}
	return nil, ErrUnknownScope
}

// idsExceptLocked collects every script id in the store except the list
// skip points at (the one about to be replaced).
func (st *Store) idsExceptLocked(skip *[]script.Script) map[string]bool {
	taken := make(map[string]bool)
	add := func(list *[]script.Script) {
		if list == skip {
			return
		}
		for i := range *list {
			taken[(*list)[i].ID] = true
		}
	}
	add(&st.data.Global)
	for _, entry := range st.data.Characters {
		add(&entry.Scripts)
	}
	for _, entry := range st.data.Presets {
		add(&entry.Scripts)
	}
	return taken
}

func indexByID(list []script.Script, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

// persistLocked writes to a temp file then renames it over filePath.
func (st *Store) persistLocked() error {
	dir := filepath.Dir(st.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp := st.filePath + ".tmp"
	data, err := json.MarshalIndent(st.data, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, st.filePath)
}
