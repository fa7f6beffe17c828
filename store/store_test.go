package store_test

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"regex-workbench/script"
	"regex-workbench/store"
)

func TestNewMissingFile(t *testing.T) {
	path := t.TempDir() + "/scripts.json"
	st, err := store.New(path, nil)
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if !st.Enabled() {
		t.Fatal("expected a fresh store to be enabled")
	}
	if got := st.Scripts(script.ScopeGlobal, false); len(got) != 0 {
		t.Fatalf("expected no scripts, got %d", len(got))
	}
}

func TestCreateAndReopen(t *testing.T) {
	path := t.TempDir() + "/scripts.json"
	st, _ := store.New(path, nil)

	created, _, err := st.CreateScript(script.ScopeGlobal, script.Script{
		Name:      "first",
		FindRegex: "/a/",
		Placement: []script.Placement{script.PlacementAIOutput},
	})
	if err != nil {
		t.Fatalf("expected create to succeed, got %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected a generated id")
	}

	// Reload from disk.
	st2, err := store.New(path, nil)
	if err != nil {
		t.Fatalf("expected reopen to succeed, got %v", err)
	}
	list := st2.Scripts(script.ScopeGlobal, false)
	if len(list) != 1 || list[0].ID != created.ID || list[0].Name != "first" {
		t.Fatalf("expected persisted script back, got %+v", list)
	}
}

func TestReloadRepairsRecords(t *testing.T) {
	path := t.TempDir() + "/scripts.json"
	raw := `{"global":[{"scriptName":"old","findRegex":"/a/","placement":[4]}]}`
	if err := os.WriteFile(path, []byte(raw), 0644); err != nil {
		t.Fatalf("expected seed write to succeed, got %v", err)
	}

	st, err := store.New(path, nil)
	if err != nil {
		t.Fatalf("expected load to succeed, got %v", err)
	}
	list := st.Scripts(script.ScopeGlobal, false)
	if len(list) != 1 {
		t.Fatalf("expected one script, got %d", len(list))
	}
	if list[0].ID == "" {
		t.Fatal("expected repair to assign an id")
	}
	if len(list[0].Placement) != 1 || list[0].Placement[0] != script.PlacementSlashCommand {
		t.Fatalf("expected retired placement migrated, got %v", list[0].Placement)
	}
}

func TestSaveScriptsDropsUnnamed(t *testing.T) {
	path := t.TempDir() + "/scripts.json"
	st, _ := store.New(path, nil)

	warnings, err := st.SaveScripts(script.ScopeGlobal, []script.Script{
		{Name: "keep", FindRegex: "/a/", Placement: []script.Placement{script.PlacementAIOutput}},
		{FindRegex: "/b/"},
	})
	if err != nil {
		t.Fatalf("expected save to succeed, got %v", err)
	}
	list := st.Scripts(script.ScopeGlobal, false)
	if len(list) != 1 || list[0].Name != "keep" {
		t.Fatalf("expected only the named script kept, got %+v", list)
	}
	found := false
	for _, w := range warnings {
		if strings.Contains(w, "dropped") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a dropped warning, got %v", warnings)
	}
}

func TestScopedRequiresCharacter(t *testing.T) {
	path := t.TempDir() + "/scripts.json"
	st, _ := store.New(path, nil)

	_, _, err := st.CreateScript(script.ScopeScoped, script.Script{Name: "s", FindRegex: "/a/"})
	if !errors.Is(err, store.ErrNoCharacter) {
		t.Fatalf("expected ErrNoCharacter, got %v", err)
	}
	if got := st.Scripts(script.ScopeScoped, false); got != nil {
		t.Fatalf("expected no scoped scripts without a character, got %+v", got)
	}

	if err := st.SetContext(store.Context{CharacterAvatar: "alice.png"}); err != nil {
		t.Fatalf("expected context save to succeed, got %v", err)
	}
	if _, _, err := st.CreateScript(script.ScopeScoped, script.Script{Name: "s", FindRegex: "/a/"}); err != nil {
		t.Fatalf("expected scoped create with a character, got %v", err)
	}
	if got := st.Scripts(script.ScopeScoped, false); len(got) != 1 {
		t.Fatalf("expected one scoped script, got %d", len(got))
	}
}

func TestAllowListGatesExecution(t *testing.T) {
	path := t.TempDir() + "/scripts.json"
	st, _ := store.New(path, nil)
	_ = st.SetContext(store.Context{CharacterAvatar: "alice.png"})
	_, _, _ = st.CreateScript(script.ScopeScoped, script.Script{Name: "s", FindRegex: "/a/"})

	// Storage is never gated; execution is.
	if got := st.Scripts(script.ScopeScoped, false); len(got) != 1 {
		t.Fatalf("expected ungated read to see the script, got %d", len(got))
	}
	if got := st.Scripts(script.ScopeScoped, true); got != nil {
		t.Fatalf("expected gated read to be empty before allowing, got %+v", got)
	}

	if err := st.SetCharacterAllowed("alice.png", true); err != nil {
		t.Fatalf("expected allow to succeed, got %v", err)
	}
	if got := st.Scripts(script.ScopeScoped, true); len(got) != 1 {
		t.Fatalf("expected gated read after allowing, got %d", len(got))
	}

	_ = st.SetCharacterAllowed("alice.png", false)
	if got := st.Scripts(script.ScopeScoped, true); got != nil {
		t.Fatalf("expected gated read empty after disallowing, got %+v", got)
	}
}

func TestPresetScope(t *testing.T) {
	path := t.TempDir() + "/scripts.json"
	st, _ := store.New(path, nil)

	_, _, err := st.CreateScript(script.ScopePreset, script.Script{Name: "p", FindRegex: "/a/"})
	if !errors.Is(err, store.ErrNoPreset) {
		t.Fatalf("expected ErrNoPreset, got %v", err)
	}

	_ = st.SetContext(store.Context{PresetAPI: "openai", PresetName: "main"})
	if _, _, err := st.CreateScript(script.ScopePreset, script.Script{Name: "p", FindRegex: "/a/"}); err != nil {
		t.Fatalf("expected preset create with an active preset, got %v", err)
	}

	key := store.PresetKey{API: "openai", Name: "main"}
	if got := st.Scripts(script.ScopePreset, true); got != nil {
		t.Fatalf("expected gated read empty before allowing, got %+v", got)
	}
	if err := st.SetPresetAllowed(key, true); err != nil {
		t.Fatalf("expected allow to succeed, got %v", err)
	}
	if got := st.Scripts(script.ScopePreset, true); len(got) != 1 {
		t.Fatalf("expected gated read after allowing, got %d", len(got))
	}

	// Switching presets hides the other preset's scripts.
	_ = st.SetContext(store.Context{PresetAPI: "openai", PresetName: "other"})
	if got := st.Scripts(script.ScopePreset, false); got != nil {
		t.Fatalf("expected no scripts for the other preset, got %+v", got)
	}
}

func TestUpdateScript(t *testing.T) {
	path := t.TempDir() + "/scripts.json"
	st, _ := store.New(path, nil)
	created, _, _ := st.CreateScript(script.ScopeGlobal, script.Script{Name: "before", FindRegex: "/a/"})

	updated, _, err := st.UpdateScript(script.ScopeGlobal, created.ID, script.Script{Name: "after", FindRegex: "/b/"})
	if err != nil {
		t.Fatalf("expected update to succeed, got %v", err)
	}
	if updated.ID != created.ID {
		t.Fatalf("expected id to be preserved, got %q", updated.ID)
	}
	if updated.Name != "after" {
		t.Fatalf("expected new name, got %q", updated.Name)
	}

	_, _, err = st.UpdateScript(script.ScopeGlobal, "missing", script.Script{Name: "x"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteScript(t *testing.T) {
	path := t.TempDir() + "/scripts.json"
	st, _ := store.New(path, nil)
	created, _, _ := st.CreateScript(script.ScopeGlobal, script.Script{Name: "s", FindRegex: "/a/"})

	if err := st.DeleteScript(script.ScopeGlobal, created.ID); err != nil {
		t.Fatalf("expected delete to succeed, got %v", err)
	}
	if got := st.Scripts(script.ScopeGlobal, false); len(got) != 0 {
		t.Fatalf("expected empty list after delete, got %d", len(got))
	}
	if err := st.DeleteScript(script.ScopeGlobal, created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMoveScript(t *testing.T) {
	path := t.TempDir() + "/scripts.json"
	st, _ := store.New(path, nil)
	_ = st.SetContext(store.Context{CharacterAvatar: "alice.png"})
	created, _, _ := st.CreateScript(script.ScopeGlobal, script.Script{Name: "mover", FindRegex: "/a/"})

	if err := st.MoveScript(created.ID, script.ScopeGlobal, script.ScopeScoped); err != nil {
		t.Fatalf("expected move to succeed, got %v", err)
	}
	if got := st.Scripts(script.ScopeGlobal, false); len(got) != 0 {
		t.Fatalf("expected source scope emptied, got %d", len(got))
	}
	got := st.Scripts(script.ScopeScoped, false)
	if len(got) != 1 || got[0].ID != created.ID {
		t.Fatalf("expected script in target scope with same id, got %+v", got)
	}

	if err := st.MoveScript("missing", script.ScopeGlobal, script.ScopeScoped); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMoveScriptSameScope(t *testing.T) {
	path := t.TempDir() + "/scripts.json"
	st, _ := store.New(path, nil)
	created, _, _ := st.CreateScript(script.ScopeGlobal, script.Script{Name: "stay", FindRegex: "/a/"})

	// Moving a script onto its own scope is a no-op.
	if err := st.MoveScript(created.ID, script.ScopeGlobal, script.ScopeGlobal); err != nil {
		t.Fatalf("expected same-scope move to succeed, got %v", err)
	}
	if got := st.Scripts(script.ScopeGlobal, false); len(got) != 1 || got[0].ID != created.ID {
		t.Fatalf("expected script left in place, got %+v", got)
	}

	// A missing id is still a missing id, same scope or not.
	if err := st.MoveScript("missing", script.ScopeGlobal, script.ScopeGlobal); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestImportAssignsFreshIDs(t *testing.T) {
	path := t.TempDir() + "/scripts.json"
	st, _ := store.New(path, nil)

	payload := `[{"id":"import-1","scriptName":"a","findRegex":"/x/"},{"scriptName":""}]`
	imported, warnings, err := st.Import(script.ScopeGlobal, []byte(payload))
	if err != nil {
		t.Fatalf("expected import to succeed, got %v", err)
	}
	if len(imported) != 1 {
		t.Fatalf("expected one imported script, got %d", len(imported))
	}
	if imported[0].ID == "import-1" || imported[0].ID == "" {
		t.Fatalf("expected a fresh id, got %q", imported[0].ID)
	}
	found := false
	for _, w := range warnings {
		if strings.Contains(w, "dropped") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a dropped warning for the unnamed entry, got %v", warnings)
	}
}

func TestImportSingleObject(t *testing.T) {
	path := t.TempDir() + "/scripts.json"
	st, _ := store.New(path, nil)

	imported, _, err := st.Import(script.ScopeGlobal, []byte(`{"scriptName":"solo","findRegex":"/x/"}`))
	if err != nil {
		t.Fatalf("expected single-object import to succeed, got %v", err)
	}
	if len(imported) != 1 || imported[0].Name != "solo" {
		t.Fatalf("unexpected import result: %+v", imported)
	}
}

func TestImportBadPayload(t *testing.T) {
	path := t.TempDir() + "/scripts.json"
	st, _ := store.New(path, nil)

	_, _, err := st.Import(script.ScopeGlobal, []byte("not json"))
	if !errors.Is(err, script.ErrBadPayload) {
		t.Fatalf("expected ErrBadPayload, got %v", err)
	}
	if got := st.Scripts(script.ScopeGlobal, false); len(got) != 0 {
		t.Fatalf("expected store untouched, got %d scripts", len(got))
	}
}

func TestSetEnabledPersists(t *testing.T) {
	path := t.TempDir() + "/scripts.json"
	st, _ := store.New(path, nil)

	if err := st.SetEnabled(false); err != nil {
		t.Fatalf("expected disable to succeed, got %v", err)
	}
	st2, _ := store.New(path, nil)
	if st2.Enabled() {
		t.Fatal("expected disabled state to survive a reopen")
	}
}

func TestDuplicateIDAcrossScopes(t *testing.T) {
	path := t.TempDir() + "/scripts.json"
	st, _ := store.New(path, nil)
	_ = st.SetContext(store.Context{CharacterAvatar: "alice.png"})

	if _, err := st.SaveScripts(script.ScopeGlobal, []script.Script{
		{ID: "shared", Name: "one", FindRegex: "/a/"},
	}); err != nil {
		t.Fatalf("expected global save to succeed, got %v", err)
	}
	warnings, err := st.SaveScripts(script.ScopeScoped, []script.Script{
		{ID: "shared", Name: "two", FindRegex: "/b/"},
	})
	if err != nil {
		t.Fatalf("expected scoped save to succeed, got %v", err)
	}

	scoped := st.Scripts(script.ScopeScoped, false)
	if len(scoped) != 1 || scoped[0].ID == "shared" {
		t.Fatalf("expected the colliding id reassigned, got %+v", scoped)
	}
	found := false
	for _, w := range warnings {
		if strings.Contains(w, "duplicate id") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a duplicate-id warning, got %v", warnings)
	}
}

func TestUnknownScopeRejected(t *testing.T) {
	path := t.TempDir() + "/scripts.json"
	st, _ := store.New(path, nil)

	_, err := st.SaveScripts(script.Scope("bogus"), nil)
	if !errors.Is(err, store.ErrUnknownScope) {
		t.Fatalf("expected ErrUnknownScope, got %v", err)
	}
}

func TestScriptsReturnsCopies(t *testing.T) {
	path := t.TempDir() + "/scripts.json"
	st, _ := store.New(path, nil)
	_, _, _ = st.CreateScript(script.ScopeGlobal, script.Script{Name: "orig", FindRegex: "/a/"})

	list := st.Scripts(script.ScopeGlobal, false)
	list[0].Name = "mutated"

	if got := st.Scripts(script.ScopeGlobal, false); got[0].Name != "orig" {
		t.Fatalf("expected store state isolated from callers, got %q", got[0].Name)
	}
}

func TestMacroEnv(t *testing.T) {
	path := t.TempDir() + "/scripts.json"
	st, _ := store.New(path, nil)
	_ = st.SetContext(store.Context{CharacterName: "Alice", UserName: "Bob"})
	st.SetExtraMacros(map[string]string{"Model": "gpt"})

	env := st.MacroEnv()
	if env.Character != "Alice" || env.User != "Bob" {
		t.Fatalf("expected context names in env, got %+v", env)
	}
	if env.Extra["model"] != "gpt" {
		t.Fatalf("expected extra macro keys lowercased, got %+v", env.Extra)
	}
}

func TestConcurrentCreates(t *testing.T) {
	path := t.TempDir() + "/scripts.json"
	st, _ := store.New(path, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, _, _ = st.CreateScript(script.ScopeGlobal, script.Script{
				Name:      fmt.Sprintf("s%d", n),
				FindRegex: "/a/",
			})
		}(i)
	}
	wg.Wait()

	if got := st.Scripts(script.ScopeGlobal, false); len(got) != 10 {
		t.Fatalf("expected 10 scripts, got %d", len(got))
	}
}
