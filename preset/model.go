package preset

import (
	"errors"
	"sort"
)

// Snapshot records which script ids are enabled per scope, in list order.
type Snapshot struct {
	Global []string `json:"global"`
	Preset []string `json:"preset"`
	Scoped []string `json:"scoped"`
}

// Equal compares snapshots order-insensitively: two snapshots with the same
// enabled set per scope are equal even when the list order differs.
func (s Snapshot) Equal(other Snapshot) bool {
	return sameSet(s.Global, other.Global) &&
		sameSet(s.Preset, other.Preset) &&
		sameSet(s.Scoped, other.Scoped)
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

// Preset is a named activation bundle: applying it enables exactly the
// recorded scripts and reorders each scope to the recorded order.
type Preset struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Enabled Snapshot `json:"enabled"`
}

// presetFile is the full persistent state.
type presetFile struct {
	Presets    []Preset `json:"presets"`
	SelectedID string   `json:"selectedId"`
}

var (
	ErrNotFound  = errors.New("preset not found")
	ErrNameTaken = errors.New("preset name already in use")
	ErrDirty     = errors.New("unsaved preset changes")
)
