package engine

import (
	"fmt"
	"regexp"
	"strings"
)

// Compiled is a pattern ready to execute. Global records the g flag:
// replace every match when set, only the first otherwise.
type Compiled struct {
	RE     *regexp.Regexp
	Global bool

	groups map[string]int
}

// GroupIndex returns the submatch index of a named capture group.
func (c *Compiled) GroupIndex(name string) (int, bool) {
	idx, ok := c.groups[name]
	return idx, ok
}

// ParseLiteral splits a serialized regex literal of the form /pattern/flags.
// The pattern may contain escaped slashes; flags start after the last slash.
func ParseLiteral(literal string) (pattern, flags string, err error) {
	if len(literal) < 2 || literal[0] != '/' {
		return "", "", fmt.Errorf("not a regex literal: %q", literal)
	}
	end := strings.LastIndexByte(literal, '/')
	if end == 0 {
		return "", "", fmt.Errorf("unterminated regex literal: %q", literal)
	}
	return literal[1:end], literal[end+1:], nil
}

// Compile translates a serialized regex literal into an executable pattern.
// The i, m and s flags become inline (?i) (?m) (?s) prefixes; g is recorded
// on the result and handled at replace time; u and y are accepted and
// ignored since Go's engine is Unicode-native and stateless. Named groups
// in either the (?<name>...) or (?P<name>...) form compile natively.
func Compile(literal string) (*Compiled, error) {
	pattern, flags, err := ParseLiteral(literal)
	if err != nil {
		return nil, err
	}
	c := &Compiled{}
	var prefix strings.Builder
	for _, f := range flags {
		switch f {
		case 'g':
			c.Global = true
		case 'i':
			prefix.WriteString("(?i)")
		case 'm':
			prefix.WriteString("(?m)")
		case 's':
			prefix.WriteString("(?s)")
		case 'u', 'y':
		default:
			return nil, fmt.Errorf("unsupported regex flag %q in %q", string(f), literal)
		}
	}
	re, err := regexp.Compile(prefix.String() + pattern)
	if err != nil {
		return nil, err
	}
	c.RE = re
	c.groups = make(map[string]int)
	for i, name := range re.SubexpNames() {
		if name != "" {
			c.groups[name] = i
		}
	}
	return c, nil
}
