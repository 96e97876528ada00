package tracker

import (
	"math/rand"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"
)

// Store owns the four per-character mappings. All operations are
// synchronous and in-memory; unknown character names are silent no-ops on
// mutation and empty results on queries, so "no data yet" and "unknown
// character" are indistinguishable. The store is not safe
// for concurrent mutation; callers serialize access per project.
type Store struct {
	experiences          map[string][]*Experience
	relationships        map[string][]*Relationship
	personalityTraits    map[string][]PersonalityTrait
	personalityEvolution map[string][]PersonalityEvolution

	entropy *ulid.MonotonicEntropy
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		experiences:          make(map[string][]*Experience),
		relationships:        make(map[string][]*Relationship),
		personalityTraits:    make(map[string][]PersonalityTrait),
		personalityEvolution: make(map[string][]PersonalityEvolution),
		entropy:              ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

// newID returns a monotonic ULID: lexicographic order is creation order,
// which makes record ids double as the timestamp tiebreaker.
func (s *Store) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

// ── Experiences ──────────────────────────────────────────────────────

// AddExperience appends an experience to character's stream. Duplicate or
// out-of-order chapter numbers are accepted; ordering is imposed at read
// time. Missing event type and impact default to unknown/neutral.
func (s *Store) AddExperience(character string, exp Experience) {
	if exp.EventType == "" {
		exp.EventType = EventUnknown
	}
	if exp.Impact == "" {
		exp.Impact = ImpactNeutral
	}
	if exp.Timestamp.IsZero() {
		exp.Timestamp = time.Now()
	}
	if exp.ID == "" {
		exp.ID = s.newID()
	}
	if exp.RelatedCharacters == nil {
		exp.RelatedCharacters = []string{}
	}
	s.experiences[character] = append(s.experiences[character], &exp)
}

// ChapterRange is an inclusive chapter interval for experience queries.
type ChapterRange struct {
	Start int
	End   int
}

// ExperienceFilter narrows an Experiences query. Zero value matches all.
type ExperienceFilter struct {
	EventType    string
	ChapterRange *ChapterRange
}

// Experiences returns copies of character's experiences matching the
// filter, sorted ascending by chapter number with insertion order
// breaking ties.
func (s *Store) Experiences(character string, filter ExperienceFilter) []Experience {
	var out []Experience
	for _, exp := range s.experiences[character] {
		if filter.EventType != "" && exp.EventType != filter.EventType {
			continue
		}
		if r := filter.ChapterRange; r != nil && (exp.ChapterNumber < r.Start || exp.ChapterNumber > r.End) {
			continue
		}
		out = append(out, copyExperience(exp))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ChapterNumber < out[j].ChapterNumber
	})
	return out
}

func copyExperience(exp *Experience) Experience {
	c := *exp
	c.RelatedCharacters = append([]string(nil), exp.RelatedCharacters...)
	return c
}

// ── Relationships ────────────────────────────────────────────────────

// AddRelationship creates character's relationship to target, or, when
// one already exists, overwrites its type, intimacy, and description in
// place. Overwrites never record an evolution entry; that distinction
// between "set" and "adjust" belongs to UpdateRelationship.
func (s *Store) AddRelationship(character, target, relationshipType string, intimacy int, description string, firstMetChapter int) {
	if rel := s.findRelationship(character, target); rel != nil {
		rel.RelationshipType = relationshipType
		rel.IntimacyLevel = clamp(intimacy)
		rel.Description = description
		return
	}
	s.relationships[character] = append(s.relationships[character], &Relationship{
		TargetCharacter:  target,
		RelationshipType: relationshipType,
		IntimacyLevel:    clamp(intimacy),
		Description:      description,
		FirstMetChapter:  firstMetChapter,
		EvolutionHistory: []RelationshipChange{},
	})
}

// RelationshipUpdate carries the delta for UpdateRelationship. Empty
// NewType keeps the current type; empty Description keeps the current
// description; IntimacyChange is a signed adjustment.
type RelationshipUpdate struct {
	NewType        string
	IntimacyChange int
	Description    string
	Reason         string
	Chapter        int
}

// UpdateRelationship adjusts an existing relationship. No-op when the
// relationship does not exist. An evolution entry is appended only when
// the type changed or IntimacyChange is non-zero; a description-only
// update leaves the history untouched.
func (s *Store) UpdateRelationship(character, target string, upd RelationshipUpdate) {
	rel := s.findRelationship(character, target)
	if rel == nil {
		return
	}

	if upd.Description != "" {
		rel.Description = upd.Description
	}

	oldType := rel.RelationshipType
	oldIntimacy := rel.IntimacyLevel

	if upd.NewType != "" {
		rel.RelationshipType = upd.NewType
	}
	if upd.IntimacyChange != 0 {
		rel.IntimacyLevel = clamp(rel.IntimacyLevel + upd.IntimacyChange)
	}

	if oldType != rel.RelationshipType || upd.IntimacyChange != 0 {
		rel.EvolutionHistory = append(rel.EvolutionHistory, RelationshipChange{
			Chapter:     upd.Chapter,
			Timestamp:   time.Now(),
			OldType:     oldType,
			NewType:     rel.RelationshipType,
			OldIntimacy: oldIntimacy,
			NewIntimacy: rel.IntimacyLevel,
			Reason:      upd.Reason,
		})
	}
}

// Relationship returns a copy of character's relationship to target.
func (s *Store) Relationship(character, target string) (Relationship, bool) {
	rel := s.findRelationship(character, target)
	if rel == nil {
		return Relationship{}, false
	}
	return copyRelationship(rel), true
}

// Relationships returns copies of all of character's relationships.
func (s *Store) Relationships(character string) []Relationship {
	rels := s.relationships[character]
	out := make([]Relationship, 0, len(rels))
	for _, rel := range rels {
		out = append(out, copyRelationship(rel))
	}
	return out
}

// NetworkEdge is one edge in the full relationship graph.
type NetworkEdge struct {
	Target      string `json:"target"`
	Type        string `json:"type"`
	Intimacy    int    `json:"intimacy"`
	Description string `json:"description"`
}

// RelationshipNetwork returns the complete graph, owner name → outgoing
// edges, for visualization.
func (s *Store) RelationshipNetwork() map[string][]NetworkEdge {
	network := make(map[string][]NetworkEdge, len(s.relationships))
	for character, rels := range s.relationships {
		edges := make([]NetworkEdge, 0, len(rels))
		for _, rel := range rels {
			edges = append(edges, NetworkEdge{
				Target:      rel.TargetCharacter,
				Type:        rel.RelationshipType,
				Intimacy:    rel.IntimacyLevel,
				Description: rel.Description,
			})
		}
		network[character] = edges
	}
	return network
}

func (s *Store) findRelationship(character, target string) *Relationship {
	for _, rel := range s.relationships[character] {
		if rel.TargetCharacter == target {
			return rel
		}
	}
	return nil
}

func copyRelationship(rel *Relationship) Relationship {
	c := *rel
	c.EvolutionHistory = append([]RelationshipChange(nil), rel.EvolutionHistory...)
	return c
}

// ── Personality ──────────────────────────────────────────────────────

// SetPersonalityTraits replaces character's entire trait list. Not
// additive: callers who want to add one trait read-modify-write the full
// list. Intensities are clamped on the way in.
func (s *Store) SetPersonalityTraits(character string, traits []PersonalityTrait) {
	replaced := make([]PersonalityTrait, len(traits))
	for i, trait := range traits {
		trait.Intensity = clamp(trait.Intensity)
		replaced[i] = trait
	}
	s.personalityTraits[character] = replaced
}

// PersonalityTraits returns copies of character's traits.
func (s *Store) PersonalityTraits(character string) []PersonalityTrait {
	return append([]PersonalityTrait(nil), s.personalityTraits[character]...)
}

// UpdatePersonalityTrait sets a trait's intensity (clamped) and appends
// exactly one evolution entry. No-op when the character or trait is
// unknown.
func (s *Store) UpdatePersonalityTrait(character, traitName string, newIntensity int, reason string, chapter int) {
	traits := s.personalityTraits[character]
	for i := range traits {
		if traits[i].TraitName != traitName {
			continue
		}
		oldIntensity := traits[i].Intensity
		traits[i].Intensity = clamp(newIntensity)

		s.personalityEvolution[character] = append(s.personalityEvolution[character], PersonalityEvolution{
			ChapterNumber: chapter,
			TraitName:     traitName,
			OldIntensity:  oldIntensity,
			NewIntensity:  traits[i].Intensity,
			Reason:        reason,
			Timestamp:     time.Now(),
		})
		return
	}
}

// PersonalityEvolutionLog returns copies of character's trait evolution
// entries in recording order.
func (s *Store) PersonalityEvolutionLog(character string) []PersonalityEvolution {
	return append([]PersonalityEvolution(nil), s.personalityEvolution[character]...)
}
