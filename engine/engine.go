// Package engine applies regex transformation scripts to chat text: a
// placement filter selects and orders scripts, a cached compiler turns their
// serialized patterns into executable form, and an executor runs each
// find/replace with backreference, trim-string and macro handling.
package engine

import (
	"go.uber.org/zap"

	"regex-workbench/macro"
	"regex-workbench/script"
)

// Source supplies the engine with scripts and ambient context. The script
// store implements it.
type Source interface {
	// Enabled is the master switch; a disabled source makes every
	// transform a pass-through.
	Enabled() bool
	// Scripts returns one scope's scripts in list order. With allowedOnly
	// set, scopes whose allow-list does not admit the current context
	// return nothing.
	Scripts(scope script.Scope, allowedOnly bool) []script.Script
	// MacroEnv is the substitution environment for the current context.
	MacroEnv() macro.Env
}

// Options carries per-call context for transform passes.
type Options struct {
	// CharacterOverride substitutes for the active character name in
	// macro expansion.
	CharacterOverride string
	// IsMarkdown marks a markdown-render call; only markdownOnly scripts
	// fire.
	IsMarkdown bool
	// IsPrompt marks a prompt-construction call; only promptOnly scripts
	// fire.
	IsPrompt bool
	// IsEdit marks a message edit; scripts without runOnEdit are skipped.
	IsEdit bool
	// Depth, when set, is the history distance of the entry being
	// transformed; scripts with depth bounds outside it are skipped.
	Depth *int
}

// Engine runs regex scripts over chat text. All methods fail soft: malformed
// patterns and missing context degrade to returning the input unchanged.
type Engine struct {
	source Source
	macros macro.Expander
	cache  *Cache
	log    *zap.Logger
}

// New builds an engine over a script source. A nil macros falls back to the
// default substituter; cacheSize of zero or less uses DefaultCacheSize.
func New(source Source, macros macro.Expander, cacheSize int, log *zap.Logger) *Engine {
	if macros == nil {
		macros = macro.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		source: source,
		macros: macros,
		cache:  NewCache(cacheSize),
		log:    log,
	}
}

// Cache exposes the compiled-pattern cache for stats and invalidation.
func (e *Engine) Cache() *Cache {
	return e.cache
}

func (e *Engine) envFor(opts Options) macro.Env {
	var env macro.Env
	if e.source != nil {
		env = e.source.MacroEnv()
	}
	if opts.CharacterOverride != "" {
		env.Character = opts.CharacterOverride
	}
	return env
}
