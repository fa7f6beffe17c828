// Package macro resolves {{token}} placeholders in script patterns,
// replacement output and trim strings.
package macro

import (
	"regexp"
	"strings"
)

// Env carries the values macros resolve against for one call.
type Env struct {
	Character string
	User      string
	Extra     map[string]string
}

// Expander resolves macros in text. ExpandEscaped additionally
// regex-escapes every substituted value, so expanded text cannot act as
// pattern syntax.
type Expander interface {
	Expand(text string, env Env) string
	ExpandEscaped(text string, env Env) string
}

var tokenPattern = regexp.MustCompile(`\{\{([a-zA-Z][a-zA-Z0-9_]*)\}\}`)

// Substituter is the default Expander. Token names are case-insensitive.
// Unknown tokens are left in place; they may belong to downstream
// collaborators.
type Substituter struct{}

func New() *Substituter {
	return &Substituter{}
}

func (sub *Substituter) Expand(text string, env Env) string {
	return sub.expand(text, env, false)
}

func (sub *Substituter) ExpandEscaped(text string, env Env) string {
	return sub.expand(text, env, true)
}

func (sub *Substituter) expand(text string, env Env, escape bool) string {
	if !strings.Contains(text, "{{") {
		return text
	}
	return tokenPattern.ReplaceAllStringFunc(text, func(token string) string {
		name := strings.ToLower(token[2 : len(token)-2])
		value, ok := lookup(name, env)
		if !ok {
			return token
		}
		if escape {
			return regexp.QuoteMeta(value)
		}
		return value
	})
}

func lookup(name string, env Env) (string, bool) {
	switch name {
	case "char":
		return env.Character, env.Character != ""
	case "user":
		return env.User, env.User != ""
	}
	if env.Extra != nil {
		if value, ok := env.Extra[name]; ok {
			return value, true
		}
	}
	return "", false
}
