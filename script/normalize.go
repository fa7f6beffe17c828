package script

import (
	"fmt"

	"github.com/google/uuid"
)

// Normalize repairs a record at the storage boundary: assigns a fresh id
// when the script has none, normalizes nil slices, and migrates retired
// placement tags. Returns true when anything was repaired.
func Normalize(s *Script) bool {
	changed := false
	if s.ID == "" {
		s.ID = uuid.New().String()
		changed = true
	}
	if s.TrimStrings == nil {
		s.TrimStrings = []string{}
		changed = true
	}
	if s.Placement == nil {
		s.Placement = []Placement{}
		changed = true
	}
	if migrated, did := MigratePlacements(s.Placement); did {
		s.Placement = migrated
		changed = true
	}
	return changed
}

// Validate reports save-time problems with a script. A missing name is an
// error and the script must not be persisted; everything else comes back as
// warnings and does not block saving.
func Validate(s *Script) ([]string, error) {
	if s.Name == "" {
		return nil, ErrUnnamed
	}
	var warnings []string
	if s.FindRegex == "" {
		warnings = append(warnings, fmt.Sprintf("script %q has an empty find pattern and will never match", s.Name))
	}
	if len(s.Placement) == 0 {
		warnings = append(warnings, fmt.Sprintf("script %q has no placements and will never fire", s.Name))
	}
	for _, p := range s.Placement {
		if !p.Valid() {
			warnings = append(warnings, fmt.Sprintf("script %q has an unknown placement value %d", s.Name, int(p)))
		}
	}
	return warnings, nil
}
