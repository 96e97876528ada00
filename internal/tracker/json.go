package tracker

import "encoding/json"

// snapshot is the persisted shape: four top-level mappings, character
// name → record list. The store serializes inside its owning project;
// it has no persistence lifecycle of its own.
type snapshot struct {
	Experiences          map[string][]*Experience          `json:"experiences"`
	Relationships        map[string][]*Relationship        `json:"relationships"`
	PersonalityTraits    map[string][]PersonalityTrait     `json:"personality_traits"`
	PersonalityEvolution map[string][]PersonalityEvolution `json:"personality_evolution"`
}

// MarshalJSON serializes the four mappings.
func (s *Store) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshot{
		Experiences:          s.experiences,
		Relationships:        s.relationships,
		PersonalityTraits:    s.personalityTraits,
		PersonalityEvolution: s.personalityEvolution,
	})
}

// UnmarshalJSON restores the four mappings, tolerating missing keys from
// older project files.
func (s *Store) UnmarshalJSON(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}

	fresh := NewStore()
	*s = *fresh

	if snap.Experiences != nil {
		s.experiences = snap.Experiences
	}
	if snap.Relationships != nil {
		s.relationships = snap.Relationships
	}
	if snap.PersonalityTraits != nil {
		s.personalityTraits = snap.PersonalityTraits
	}
	if snap.PersonalityEvolution != nil {
		s.personalityEvolution = snap.PersonalityEvolution
	}
	return nil
}
