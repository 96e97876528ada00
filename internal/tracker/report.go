package tracker

import (
	"fmt"
	"sort"
)

// GrowthReport aggregates a character's development arc.
type GrowthReport struct {
	TotalExperiences    int            `json:"total_experiences"`
	ExperienceBreakdown map[string]int `json:"experience_breakdown"`
	PositiveEvents      int            `json:"positive_events"`
	NegativeEvents      int            `json:"negative_events"`
	PersonalityChanges  int            `json:"personality_changes"`
	MostChangedTrait    string         `json:"most_changed_trait,omitempty"`
}

// AnalyzeGrowth summarizes character's experiences and personality
// movement. The most-changed trait is the one with the largest cumulative
// absolute intensity delta, first-encountered winning ties.
func (s *Store) AnalyzeGrowth(character string) GrowthReport {
	report := GrowthReport{
		ExperienceBreakdown: make(map[string]int),
	}

	for _, exp := range s.Experiences(character, ExperienceFilter{}) {
		report.TotalExperiences++
		report.ExperienceBreakdown[exp.EventType]++
		switch exp.Impact {
		case ImpactPositive:
			report.PositiveEvents++
		case ImpactNegative:
			report.NegativeEvents++
		}
	}

	evolutions := s.personalityEvolution[character]
	report.PersonalityChanges = len(evolutions)

	deltas := make(map[string]int)
	var order []string
	for _, evo := range evolutions {
		if _, seen := deltas[evo.TraitName]; !seen {
			order = append(order, evo.TraitName)
		}
		delta := evo.NewIntensity - evo.OldIntensity
		if delta < 0 {
			delta = -delta
		}
		deltas[evo.TraitName] += delta
	}
	best := -1
	for _, trait := range order {
		if deltas[trait] > best {
			best = deltas[trait]
			report.MostChangedTrait = trait
		}
	}

	return report
}

// Timeline event kinds.
const (
	TimelineExperience   = "experience"
	TimelineRelationship = "relationship"
	TimelinePersonality  = "personality"
)

// TimelineEvent is one tagged entry in a character's merged timeline.
type TimelineEvent struct {
	Chapter   int    `json:"chapter"`
	Kind      string `json:"kind"`
	Content   string `json:"content"`
	EventType string `json:"event_type,omitempty"`
	Impact    string `json:"impact,omitempty"`
	Trait     string `json:"trait,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Timeline merges character's experiences, relationship changes, and
// personality changes into one list sorted by (chapter, creation time).
func (s *Store) Timeline(character string) []TimelineEvent {
	var timeline []TimelineEvent

	for _, exp := range s.Experiences(character, ExperienceFilter{}) {
		timeline = append(timeline, TimelineEvent{
			Chapter:   exp.ChapterNumber,
			Kind:      TimelineExperience,
			EventType: exp.EventType,
			Content:   exp.Description,
			Impact:    exp.Impact,
			Timestamp: exp.Timestamp.Format("2006-01-02T15:04:05.000000000"),
		})
	}

	for _, rel := range s.relationships[character] {
		for _, change := range rel.EvolutionHistory {
			timeline = append(timeline, TimelineEvent{
				Chapter:   change.Chapter,
				Kind:      TimelineRelationship,
				Content:   fmt.Sprintf("与%s的关系：%s → %s", rel.TargetCharacter, change.OldType, change.NewType),
				Reason:    change.Reason,
				Timestamp: change.Timestamp.Format("2006-01-02T15:04:05.000000000"),
			})
		}
	}

	for _, evo := range s.personalityEvolution[character] {
		timeline = append(timeline, TimelineEvent{
			Chapter:   evo.ChapterNumber,
			Kind:      TimelinePersonality,
			Trait:     evo.TraitName,
			Content:   fmt.Sprintf("%s：%d → %d", evo.TraitName, evo.OldIntensity, evo.NewIntensity),
			Reason:    evo.Reason,
			Timestamp: evo.Timestamp.Format("2006-01-02T15:04:05.000000000"),
		})
	}

	sort.SliceStable(timeline, func(i, j int) bool {
		if timeline[i].Chapter != timeline[j].Chapter {
			return timeline[i].Chapter < timeline[j].Chapter
		}
		return timeline[i].Timestamp < timeline[j].Timestamp
	})
	return timeline
}
