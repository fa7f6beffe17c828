package script

// Placement identifies the pipeline stage a rule is eligible to fire at.
// Values are persisted as small integers and must stay stable across
// releases.
type Placement int

const (
	// PlacementMarkdown is the deprecated markdown-display tag, superseded
	// by the markdownOnly/promptOnly flags. Old saves still carry it.
	PlacementMarkdown Placement = 0

	PlacementUserInput    Placement = 1
	PlacementAIOutput     Placement = 2
	PlacementSlashCommand Placement = 3
	PlacementWorldInfo    Placement = 5
	PlacementReasoning    Placement = 6

	// placementRetired (4) was removed from the enum. MigratePlacements
	// rewrites it on load and import.
	placementRetired Placement = 4
)

// Valid reports whether p is a live enum value.
func (p Placement) Valid() bool {
	switch p {
	case PlacementMarkdown, PlacementUserInput, PlacementAIOutput,
		PlacementSlashCommand, PlacementWorldInfo, PlacementReasoning:
		return true
	}
	return false
}

func (p Placement) String() string {
	switch p {
	case PlacementMarkdown:
		return "markdown"
	case PlacementUserInput:
		return "user-input"
	case PlacementAIOutput:
		return "ai-output"
	case PlacementSlashCommand:
		return "slash-command"
	case PlacementWorldInfo:
		return "world-info"
	case PlacementReasoning:
		return "reasoning"
	}
	return "unknown"
}

// MigratePlacements rewrites the retired tag 4: a list holding only 4
// becomes slash-command; in a mixed list the 4 is dropped and the rest kept.
// Returns the (possibly unchanged) list and whether anything changed.
func MigratePlacements(tags []Placement) ([]Placement, bool) {
	if len(tags) == 1 && tags[0] == placementRetired {
		return []Placement{PlacementSlashCommand}, true
	}
	hasRetired := false
	for _, tag := range tags {
		if tag == placementRetired {
			hasRetired = true
			break
		}
	}
	if !hasRetired {
		return tags, false
	}
	out := make([]Placement, 0, len(tags)-1)
	for _, tag := range tags {
		if tag != placementRetired {
			out = append(out, tag)
		}
	}
	return out, true
}
