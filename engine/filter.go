package engine

import "regex-workbench/script"

// Step records one candidate script's outcome during a trace pass.
type Step struct {
	Scope    script.Scope `json:"scope"`
	ScriptID string       `json:"scriptId"`
	Name     string       `json:"scriptName"`
	Skipped  bool         `json:"skipped"`
	Reason   string       `json:"reason,omitempty"`
	Changed  bool         `json:"changed"`
	Before   string       `json:"before,omitempty"`
	After    string       `json:"after,omitempty"`
}

// Apply returns the transformed form of raw for one placement. Scripts run
// in scope-priority order (global, preset, scoped) and original within-scope
// order, each seeing the previous script's output. It fails soft: a disabled
// subsystem, empty input or an unknown placement all return raw unchanged.
func (e *Engine) Apply(raw string, placement script.Placement, opts Options) string {
	out, _ := e.run(raw, placement, opts, false)
	return out
}

// ApplyTrace is Apply plus one Step per candidate script, for the debugger.
func (e *Engine) ApplyTrace(raw string, placement script.Placement, opts Options) (string, []Step) {
	return e.run(raw, placement, opts, true)
}

// candidate pairs a script with the scope it was fetched from, for trace
// labeling.
type candidate struct {
	scope  script.Scope
	script script.Script
}

func (e *Engine) run(raw string, placement script.Placement, opts Options, trace bool) (string, []Step) {
	if raw == "" || !placement.Valid() {
		return raw, nil
	}
	if e.source == nil || !e.source.Enabled() {
		return raw, nil
	}

	// Snapshot every scope before anything executes; store mutations landing
	// mid-pass do not change the candidate list.
	var candidates []candidate
	for _, scope := range script.ScopeOrder {
		for _, s := range e.source.Scripts(scope, true) {
			candidates = append(candidates, candidate{scope: scope, script: s})
		}
	}

	var steps []Step
	current := raw
	for i := range candidates {
		scope, s := candidates[i].scope, &candidates[i].script
		if reason := skipReason(s, placement, opts); reason != "" {
			if trace {
				steps = append(steps, Step{
					Scope:    scope,
					ScriptID: s.ID,
					Name:     s.Name,
					Skipped:  true,
					Reason:   reason,
				})
			}
			continue
		}
		next := e.RunScript(s, current, opts)
		if trace {
			steps = append(steps, Step{
				Scope:    scope,
				ScriptID: s.ID,
				Name:     s.Name,
				Changed:  next != current,
				Before:   current,
				After:    next,
			})
		}
		current = next
	}
	return current, steps
}

// skipReason decides applicability for one script; "" means run it.
func skipReason(s *script.Script, placement script.Placement, opts Options) string {
	if s.Disabled {
		return "disabled"
	}
	inContext := false
	switch {
	case s.MarkdownOnly && opts.IsMarkdown:
		inContext = true
	case s.PromptOnly && opts.IsPrompt:
		inContext = true
	case !s.MarkdownOnly && !s.PromptOnly && !opts.IsMarkdown && !opts.IsPrompt:
		inContext = true
	}
	if !inContext {
		return "context mismatch"
	}
	if opts.IsEdit && !s.RunOnEdit {
		return "not run on edit"
	}
	if opts.Depth != nil && !s.DepthAllowed(*opts.Depth) {
		return "outside depth bounds"
	}
	if !s.HasPlacement(placement) {
		return "placement not targeted"
	}
	return ""
}
