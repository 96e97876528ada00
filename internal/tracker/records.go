// Package tracker maintains per-character narrative state: experiences,
// pairwise relationships, personality traits, and their evolution logs.
// It stores whatever structured analysis it is given; name normalization
// and schema validation happen upstream, before records reach the store.
package tracker

import "time"

// Experience event types.
const (
	EventAchievement  = "achievement"
	EventConflict     = "conflict"
	EventRelationship = "relationship"
	EventGrowth       = "growth"
	EventTrauma       = "trauma"
	EventUnknown      = "unknown"
)

// Experience impact values.
const (
	ImpactPositive = "positive"
	ImpactNegative = "negative"
	ImpactNeutral  = "neutral"
)

// Relationship types. Open set in practice; the store accepts any string.
const (
	RelationFriend  = "friend"
	RelationEnemy   = "enemy"
	RelationFamily  = "family"
	RelationLover   = "lover"
	RelationMentor  = "mentor"
	RelationRival   = "rival"
	RelationNeutral = "neutral"
)

// Experience is one notable event in a character's life. Immutable once
// created: experiences are only appended, and relocated during merges.
type Experience struct {
	ID                string    `json:"id"`
	ChapterNumber     int       `json:"chapter_number"`
	EventType         string    `json:"event_type"`
	Description       string    `json:"description"`
	Impact            string    `json:"impact"`
	Timestamp         time.Time `json:"timestamp"`
	RelatedCharacters []string  `json:"related_characters"`

	// Narrative enrichment, all optional.
	Context        string `json:"context,omitempty"`
	EmotionalState string `json:"emotional_state,omitempty"`
	Consequence    string `json:"consequence,omitempty"`
	Location       string `json:"location,omitempty"`
	KeyDialogue    string `json:"key_dialogue,omitempty"`
}

// Relationship is a directional bond from its owning character to
// TargetCharacter. A→B and B→A are independent records.
type Relationship struct {
	TargetCharacter  string               `json:"target_character"`
	RelationshipType string               `json:"relationship_type"`
	IntimacyLevel    int                  `json:"intimacy_level"`
	Description      string               `json:"description"`
	EvolutionHistory []RelationshipChange `json:"evolution_history"`
	FirstMetChapter  int                  `json:"first_met_chapter,omitempty"`
}

// RelationshipChange is one append-only evolution entry. Recorded only
// when the type or intimacy actually moved in an update.
type RelationshipChange struct {
	Chapter     int       `json:"chapter"`
	Timestamp   time.Time `json:"timestamp"`
	OldType     string    `json:"old_type"`
	NewType     string    `json:"new_type"`
	OldIntimacy int       `json:"old_intimacy"`
	NewIntimacy int       `json:"new_intimacy"`
	Reason      string    `json:"reason"`
}

// PersonalityTrait is one named trait with a 0-100 intensity, unique per
// character by TraitName.
type PersonalityTrait struct {
	TraitName   string `json:"trait_name"`
	Intensity   int    `json:"intensity"`
	Description string `json:"description"`
}

// PersonalityEvolution records one trait intensity transition.
type PersonalityEvolution struct {
	ChapterNumber int       `json:"chapter_number"`
	TraitName     string    `json:"trait_name"`
	OldIntensity  int       `json:"old_intensity"`
	NewIntensity  int       `json:"new_intensity"`
	Reason        string    `json:"reason"`
	Timestamp     time.Time `json:"timestamp"`
}

// clamp constrains v into [0,100]. Idempotent and range-closed: intimacy
// levels and trait intensities pass through it on every write.
func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
