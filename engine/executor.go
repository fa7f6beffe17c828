package engine

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"regex-workbench/macro"
	"regex-workbench/script"
)

var matchToken = regexp.MustCompile(`(?i)\{\{match\}\}`)

// RunScript applies one script's find/replace to input. Disabled scripts,
// empty patterns, empty input and patterns that fail to compile all leave
// the input unchanged.
func (e *Engine) RunScript(s *script.Script, input string, opts Options) string {
	if s == nil || s.Disabled || s.FindRegex == "" || input == "" {
		return input
	}

	env := e.envFor(opts)
	literal := s.FindRegex
	switch s.Substitute {
	case script.SubstituteRaw:
		literal = e.macros.Expand(literal, env)
	case script.SubstituteEscaped:
		literal = e.macros.ExpandEscaped(literal, env)
	}

	compiled := e.cache.Get(literal)
	if compiled == nil {
		e.log.Debug("pattern failed to compile",
			zap.String("script", s.Name),
			zap.String("pattern", literal))
		return input
	}

	// {{match}} is shorthand for the whole match; fold it into the
	// backreference syntax before walking the template.
	template := matchToken.ReplaceAllLiteralString(s.ReplaceString, "$0")
	return e.replace(compiled, input, template, s, env)
}

func (e *Engine) replace(c *Compiled, input, template string, s *script.Script, env macro.Env) string {
	var matches [][]int
	if c.Global {
		matches = c.RE.FindAllStringSubmatchIndex(input, -1)
	} else if m := c.RE.FindStringSubmatchIndex(input); m != nil {
		matches = [][]int{m}
	}
	if len(matches) == 0 {
		return input
	}

	var b strings.Builder
	b.Grow(len(input))
	last := 0
	for _, m := range matches {
		b.WriteString(input[last:m[0]])
		replacement := e.expand(c, input, m, template, s, env)
		// One final macro pass catches tokens outside backreference
		// positions.
		b.WriteString(e.macros.Expand(replacement, env))
		last = m[1]
	}
	b.WriteString(input[last:])
	return b.String()
}

// expand resolves backreferences in template against one match. Group
// values pass through the script's trim strings before insertion.
// References to groups the pattern does not have, or that did not
// participate in the match, resolve to the empty string; an unrecognized
// dollar sequence is copied through literally.
func (e *Engine) expand(c *Compiled, input string, m []int, template string, s *script.Script, env macro.Env) string {
	var b strings.Builder
	b.Grow(len(template))
	for i := 0; i < len(template); i++ {
		ch := template[i]
		if ch != '$' || i+1 >= len(template) {
			b.WriteByte(ch)
			continue
		}
		next := template[i+1]
		switch {
		case next == '$':
			b.WriteByte('$')
			i++
		case next == '&':
			b.WriteString(e.trim(groupText(input, m, 0), s, env))
			i++
		case next == '`':
			b.WriteString(input[:m[0]])
			i++
		case next == '\'':
			b.WriteString(input[m[1]:])
			i++
		case next == '<':
			end := strings.IndexByte(template[i+2:], '>')
			if end < 0 {
				b.WriteByte(ch)
				continue
			}
			name := template[i+2 : i+2+end]
			if idx, ok := c.GroupIndex(name); ok && 2*idx+1 < len(m) {
				b.WriteString(e.trim(groupText(input, m, idx), s, env))
			}
			i += 2 + end
		case next >= '0' && next <= '9':
			num := int(next - '0')
			width := 1
			if i+2 < len(template) && template[i+2] >= '0' && template[i+2] <= '9' {
				num = num*10 + int(template[i+2]-'0')
				width = 2
			}
			if 2*num+1 < len(m) {
				b.WriteString(e.trim(groupText(input, m, num), s, env))
			}
			i += width
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// trim strips the script's trim strings, macro-expanded, out of a captured
// group value.
func (e *Engine) trim(value string, s *script.Script, env macro.Env) string {
	if value == "" || len(s.TrimStrings) == 0 {
		return value
	}
	for _, raw := range s.TrimStrings {
		t := e.macros.Expand(raw, env)
		if t == "" {
			continue
		}
		value = strings.ReplaceAll(value, t, "")
	}
	return value
}

// groupText returns one capture group's text, or "" when the group did not
// participate in the match.
func groupText(input string, m []int, idx int) string {
	lo, hi := m[2*idx], m[2*idx+1]
	if lo < 0 || hi < 0 {
		return ""
	}
	return input[lo:hi]
}
