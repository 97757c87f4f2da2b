// Package agent defines the fixed catalog of restoration pipeline roles.
// The catalog is the narrative backbone of the theater: every displayed
// message belongs to one of these roles, and theater progress is derived
// from a role's position in the pipeline order.
package agent

import "strings"

// Type identifies a pipeline role.
type Type string

const (
	Scanner       Type = "scanner"
	Linguist      Type = "linguist"
	Historian     Type = "historian"
	Validator     Type = "validator"
	RepairAdvisor Type = "repair_advisor"
)

// Pipeline is the fixed execution order of the swarm. Ordinal positions in
// this slice drive the theater progress calculation.
var Pipeline = []Type{Scanner, Linguist, Historian, Validator, RepairAdvisor}

// Ordinal returns the position of t in the pipeline order, or -1 for an
// unknown role.
func Ordinal(t Type) int {
	for i, a := range Pipeline {
		if a == t {
			return i
		}
	}
	return -1
}

// Parse maps a wire identifier to a Type. Unknown identifiers come back as
// (Scanner, false) so callers can decide whether to drop or default.
func Parse(s string) (Type, bool) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case Scanner:
		return Scanner, true
	case Linguist:
		return Linguist, true
	case Historian:
		return Historian, true
	case Validator:
		return Validator, true
	case RepairAdvisor:
		return RepairAdvisor, true
	}
	return Scanner, false
}

// Profile carries the display metadata for a role.
type Profile struct {
	Type      Type
	Name      string
	Specialty string
	Icon      string
	Color     string
}

var profiles = map[Type]Profile{
	Scanner: {
		Type:      Scanner,
		Name:      "Scanner",
		Specialty: "OCR extraction and image enhancement",
		Icon:      "\U0001F52C",
		Color:     "#06c",
	},
	Linguist: {
		Type:      Linguist,
		Name:      "Linguist",
		Specialty: "Orthography conversion and cultural context",
		Icon:      "\U0001F4DA",
		Color:     "#37a3a3",
	},
	Historian: {
		Type:      Historian,
		Name:      "Historian",
		Specialty: "Period cross-referencing, 1888-1923 records",
		Icon:      "\U0001F4DC",
		Color:     "#f0ab00",
	},
	Validator: {
		Type:      Validator,
		Name:      "Validator",
		Specialty: "Cross-agent consistency and hallucination checks",
		Icon:      "\U0001F50D",
		Color:     "#0066cc",
	},
	RepairAdvisor: {
		Type:      RepairAdvisor,
		Name:      "Repair Advisor",
		Specialty: "Physical condition assessment and treatment",
		Icon:      "\U0001F527",
		Color:     "#3e8635",
	},
}

// ProfileFor returns the display profile for a role. Unknown roles get the
// Scanner profile so the theater always has something to render.
func ProfileFor(t Type) Profile {
	if p, ok := profiles[t]; ok {
		return p
	}
	return profiles[Scanner]
}

// ConfidenceLevel buckets a numeric confidence for display.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// LevelFor buckets a 0-100 confidence score.
func LevelFor(score float64) ConfidenceLevel {
	switch {
	case score >= 80:
		return ConfidenceHigh
	case score >= 60:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
