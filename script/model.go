package script

import "errors"

// SubstituteMode controls whether macro substitution runs against the find
// pattern before it is compiled.
type SubstituteMode int

const (
	// SubstituteNone compiles the pattern exactly as written.
	SubstituteNone SubstituteMode = 0
	// SubstituteRaw expands macros in the pattern text verbatim.
	SubstituteRaw SubstituteMode = 1
	// SubstituteEscaped expands macros in the pattern text and regex-escapes
	// every expanded value, so user-supplied text cannot act as syntax.
	SubstituteEscaped SubstituteMode = 2
)

// Script is a single find/replace transformation rule.
type Script struct {
	ID            string         `json:"id"`
	Name          string         `json:"scriptName"`
	FindRegex     string         `json:"findRegex"`
	ReplaceString string         `json:"replaceString"`
	TrimStrings   []string       `json:"trimStrings"`
	Placement     []Placement    `json:"placement"`
	Disabled      bool           `json:"disabled"`
	MarkdownOnly  bool           `json:"markdownOnly"`
	PromptOnly    bool           `json:"promptOnly"`
	RunOnEdit     bool           `json:"runOnEdit"`
	Substitute    SubstituteMode `json:"substituteRegex"`
	MinDepth      *int           `json:"minDepth,omitempty"`
	MaxDepth      *int           `json:"maxDepth,omitempty"`
}

// HasPlacement reports whether the script targets the given placement.
func (s *Script) HasPlacement(p Placement) bool {
	for _, have := range s.Placement {
		if have == p {
			return true
		}
	}
	return false
}

// DepthAllowed reports whether a history entry at the given depth is inside
// the script's depth bounds. Absent or negative bounds are unbounded.
func (s *Script) DepthAllowed(depth int) bool {
	if s.MinDepth != nil && *s.MinDepth >= 0 && depth < *s.MinDepth {
		return false
	}
	if s.MaxDepth != nil && *s.MaxDepth >= 0 && depth > *s.MaxDepth {
		return false
	}
	return true
}

// Clone returns a deep copy of the script.
func (s Script) Clone() Script {
	cp := s
	if s.TrimStrings != nil {
		cp.TrimStrings = append([]string(nil), s.TrimStrings...)
	}
	if s.Placement != nil {
		cp.Placement = append([]Placement(nil), s.Placement...)
	}
	if s.MinDepth != nil {
		v := *s.MinDepth
		cp.MinDepth = &v
	}
	if s.MaxDepth != nil {
		v := *s.MaxDepth
		cp.MaxDepth = &v
	}
	return cp
}

// CloneAll deep-copies a script list.
func CloneAll(list []Script) []Script {
	out := make([]Script, len(list))
	for i, s := range list {
		out[i] = s.Clone()
	}
	return out
}

var ErrUnnamed = errors.New("script has no name")
