package store

import (
	"errors"

	"regex-workbench/script"
)

// characterEntry holds the scripts bound to one character.
type characterEntry struct {
	Scripts []script.Script `json:"scripts"`
}

// presetEntry holds the scripts bound to one inference preset.
type presetEntry struct {
	Scripts []script.Script `json:"scripts"`
}

// PresetKey identifies an inference preset by api id and preset name.
type PresetKey struct {
	API  string `json:"api"`
	Name string `json:"name"`
}

func (k PresetKey) String() string {
	return k.API + "/" + k.Name
}

// Context is the ambient chat state scripts resolve against: the active
// character, the user persona name, and the active inference preset.
type Context struct {
	CharacterAvatar string `json:"characterAvatar"`
	CharacterName   string `json:"characterName"`
	UserName        string `json:"userName"`
	PresetAPI       string `json:"presetApi"`
	PresetName      string `json:"presetName"`
}

// Settings holds the master switch. Persisted as "disabled" so the zero
// value of a fresh or pre-settings file means enabled.
type Settings struct {
	Disabled bool `json:"disabled"`
}

// storeFile is the full persistent state.
type storeFile struct {
	Settings          Settings                   `json:"settings"`
	Context           Context                    `json:"context"`
	Global            []script.Script            `json:"global"`
	Characters        map[string]*characterEntry `json:"characters"`
	Presets           map[string]*presetEntry    `json:"presets"`
	AllowedCharacters []string                   `json:"allowedCharacters"`
	AllowedPresets    []PresetKey                `json:"allowedPresets"`
}

func emptyFile() storeFile {
	return storeFile{
		Global:            []script.Script{},
		Characters:        map[string]*characterEntry{},
		Presets:           map[string]*presetEntry{},
		AllowedCharacters: []string{},
		AllowedPresets:    []PresetKey{},
	}
}

var (
	ErrNotFound     = errors.New("script not found")
	ErrUnknownScope = errors.New("unknown scope")
	ErrNoCharacter  = errors.New("no active character")
	ErrNoPreset     = errors.New("no active preset")
)
