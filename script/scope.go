package script

// Scope names one of the three script partitions.
type Scope string

const (
	// ScopeGlobal scripts apply regardless of character or preset.
	ScopeGlobal Scope = "global"
	// ScopeScoped scripts are bound to a character (by avatar id).
	ScopeScoped Scope = "scoped"
	// ScopePreset scripts are bound to an inference preset.
	ScopePreset Scope = "preset"
)

// ScopeOrder is the priority order used when concatenating scripts across
// scopes for execution: global first, then preset, then character-scoped.
var ScopeOrder = [3]Scope{ScopeGlobal, ScopePreset, ScopeScoped}

// ParseScope maps a wire tag to a Scope.
func ParseScope(s string) (Scope, bool) {
	switch Scope(s) {
	case ScopeGlobal, ScopeScoped, ScopePreset:
		return Scope(s), true
	}
	return "", false
}
