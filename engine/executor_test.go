package engine_test

import (
	"testing"

	"regex-workbench/engine"
	"regex-workbench/script"
)

func TestRunScriptBackreferences(t *testing.T) {
	eng := engine.New(nil, nil, 0, nil)
	s := &script.Script{
		Name:          "swap",
		FindRegex:     `/(\w+)@(\w+)/`,
		ReplaceString: "$2-$1",
	}
	got := eng.RunScript(s, "alice@example", engine.Options{})
	if got != "example-alice" {
		t.Fatalf("expected 'example-alice', got %q", got)
	}
}

func TestRunScriptGlobalCaseInsensitive(t *testing.T) {
	eng := engine.New(nil, nil, 0, nil)
	s := &script.Script{
		Name:          "cats",
		FindRegex:     "/cat/gi",
		ReplaceString: "dog",
	}
	got := eng.RunScript(s, "I have a Cat and a cat.", engine.Options{})
	if got != "I have a dog and a dog." {
		t.Fatalf("expected both cats replaced, got %q", got)
	}
}

func TestRunScriptFirstMatchWithoutGlobal(t *testing.T) {
	eng := engine.New(nil, nil, 0, nil)
	s := &script.Script{Name: "one", FindRegex: "/a/", ReplaceString: "X"}
	got := eng.RunScript(s, "aaa", engine.Options{})
	if got != "Xaa" {
		t.Fatalf("expected only the first match replaced, got %q", got)
	}
}

func TestRunScriptIdempotentWhenOutputNoLongerMatches(t *testing.T) {
	eng := engine.New(nil, nil, 0, nil)
	s := &script.Script{Name: "cats", FindRegex: "/cat/g", ReplaceString: "dog"}
	once := eng.RunScript(s, "a cat and a cat", engine.Options{})
	twice := eng.RunScript(s, once, engine.Options{})
	if twice != once {
		t.Fatalf("expected second pass to be identity, got %q then %q", once, twice)
	}
}

func TestRunScriptIdentityGuards(t *testing.T) {
	eng := engine.New(nil, nil, 0, nil)
	cases := []struct {
		name  string
		s     *script.Script
		input string
	}{
		{"nil script", nil, "text"},
		{"disabled", &script.Script{Name: "off", FindRegex: "/a/", Disabled: true}, "abc"},
		{"empty pattern", &script.Script{Name: "blank"}, "abc"},
		{"empty input", &script.Script{Name: "x", FindRegex: "/a/"}, ""},
		{"bad pattern", &script.Script{Name: "broken", FindRegex: "/[unclosed/"}, "abc"},
	}
	for _, tc := range cases {
		if got := eng.RunScript(tc.s, tc.input, engine.Options{}); got != tc.input {
			t.Fatalf("%s: expected input unchanged, got %q", tc.name, got)
		}
	}
}

func TestRunScriptMatchToken(t *testing.T) {
	eng := engine.New(nil, nil, 0, nil)
	s := &script.Script{
		Name:          "wrap",
		FindRegex:     "/cat/g",
		ReplaceString: "<{{MATCH}}>",
	}
	got := eng.RunScript(s, "a cat sat", engine.Options{})
	if got != "a <cat> sat" {
		t.Fatalf("expected match token to resolve, got %q", got)
	}
}

func TestRunScriptNamedGroups(t *testing.T) {
	eng := engine.New(nil, nil, 0, nil)
	s := &script.Script{
		Name:          "swap",
		FindRegex:     `/(?<user>\w+)@(?<host>\w+)/`,
		ReplaceString: "$<host>-$<user>",
	}
	got := eng.RunScript(s, "alice@example", engine.Options{})
	if got != "example-alice" {
		t.Fatalf("expected named groups to resolve, got %q", got)
	}
}

func TestRunScriptUnknownReferencesResolveEmpty(t *testing.T) {
	eng := engine.New(nil, nil, 0, nil)
	s := &script.Script{Name: "x", FindRegex: "/(a)/", ReplaceString: "[$9][$<none>]"}
	got := eng.RunScript(s, "a", engine.Options{})
	if got != "[][]" {
		t.Fatalf("expected out-of-range references to vanish, got %q", got)
	}
}

func TestRunScriptTwoDigitReferenceIsGreedy(t *testing.T) {
	// $10 reads as group ten, not group one followed by a zero.
	eng := engine.New(nil, nil, 0, nil)
	s := &script.Script{Name: "x", FindRegex: "/(x)/", ReplaceString: "$10"}
	got := eng.RunScript(s, "x", engine.Options{})
	if got != "" {
		t.Fatalf("expected $10 to resolve empty, got %q", got)
	}
}

func TestRunScriptNonParticipatingGroup(t *testing.T) {
	eng := engine.New(nil, nil, 0, nil)
	s := &script.Script{Name: "alt", FindRegex: "/(a)|(b)/", ReplaceString: "[$1]"}
	got := eng.RunScript(s, "b", engine.Options{})
	if got != "[]" {
		t.Fatalf("expected non-participating group to resolve empty, got %q", got)
	}
}

func TestRunScriptDollarForms(t *testing.T) {
	eng := engine.New(nil, nil, 0, nil)
	s := &script.Script{
		Name:          "forms",
		FindRegex:     "/c/",
		ReplaceString: "[$`($&)$']",
	}
	got := eng.RunScript(s, "abcde", engine.Options{})
	if got != "ab[ab(c)de]de" {
		t.Fatalf("expected prefix, match and suffix forms, got %q", got)
	}

	s = &script.Script{Name: "dollar", FindRegex: "/a/", ReplaceString: "$$5"}
	if got := eng.RunScript(s, "a", engine.Options{}); got != "$5" {
		t.Fatalf("expected escaped dollar, got %q", got)
	}
}

func TestRunScriptUnterminatedNamedReference(t *testing.T) {
	eng := engine.New(nil, nil, 0, nil)
	s := &script.Script{Name: "x", FindRegex: "/a/", ReplaceString: "$<oops"}
	got := eng.RunScript(s, "a", engine.Options{})
	if got != "$<oops" {
		t.Fatalf("expected unterminated reference to pass through, got %q", got)
	}
}

func TestRunScriptTrimStrings(t *testing.T) {
	eng := engine.New(nil, nil, 0, nil)
	s := &script.Script{
		Name:          "trim",
		FindRegex:     `/\[(.+)\]/`,
		ReplaceString: "$1",
		TrimStrings:   []string{"ugh "},
	}
	got := eng.RunScript(s, "[ugh word]", engine.Options{})
	if got != "word" {
		t.Fatalf("expected trim string removed from group value, got %q", got)
	}
}

func TestRunScriptTrimSkipsContextForms(t *testing.T) {
	// Trims touch captured group values, not the $` prefix.
	eng := engine.New(nil, nil, 0, nil)
	s := &script.Script{
		Name:          "trim",
		FindRegex:     "/b/",
		ReplaceString: "$`",
		TrimStrings:   []string{"a"},
	}
	got := eng.RunScript(s, "ab", engine.Options{})
	if got != "aa" {
		t.Fatalf("expected prefix untouched by trims, got %q", got)
	}
}

func TestRunScriptRawSubstitution(t *testing.T) {
	eng := engine.New(nil, nil, 0, nil)
	s := &script.Script{
		Name:          "who",
		FindRegex:     "/{{char}}/",
		ReplaceString: "She",
		Substitute:    script.SubstituteRaw,
	}
	opts := engine.Options{CharacterOverride: "Alice"}
	got := eng.RunScript(s, "Alice says hi", opts)
	if got != "She says hi" {
		t.Fatalf("expected macro-substituted pattern to match, got %q", got)
	}
}

func TestRunScriptEscapedSubstitution(t *testing.T) {
	eng := engine.New(nil, nil, 0, nil)
	s := &script.Script{
		Name:          "who",
		FindRegex:     "/{{char}}/",
		ReplaceString: "X",
		Substitute:    script.SubstituteEscaped,
	}
	opts := engine.Options{CharacterOverride: "A.I."}

	if got := eng.RunScript(s, "A.I. speaking", opts); got != "X speaking" {
		t.Fatalf("expected literal name to match, got %q", got)
	}
	// Escaping keeps the dot from acting as a wildcard.
	if got := eng.RunScript(s, "AxIx speaking", opts); got != "AxIx speaking" {
		t.Fatalf("expected escaped pattern not to match, got %q", got)
	}
}

func TestRunScriptReplacementMacroPass(t *testing.T) {
	eng := engine.New(nil, nil, 0, nil)
	s := &script.Script{
		Name:          "sign",
		FindRegex:     "/me/",
		ReplaceString: "{{char}}",
	}
	opts := engine.Options{CharacterOverride: "Alice"}
	got := eng.RunScript(s, "me: hello", opts)
	if got != "Alice: hello" {
		t.Fatalf("expected replacement macros expanded, got %q", got)
	}
}

func TestRunScriptMacroInTrimStrings(t *testing.T) {
	eng := engine.New(nil, nil, 0, nil)
	s := &script.Script{
		Name:          "anon",
		FindRegex:     "/(.+)/",
		ReplaceString: "$1",
		TrimStrings:   []string{"{{char}} "},
	}
	opts := engine.Options{CharacterOverride: "Bob"}
	got := eng.RunScript(s, "Bob says hi", opts)
	if got != "says hi" {
		t.Fatalf("expected macro-expanded trim string removed, got %q", got)
	}
}
