package tracker

import "sort"

// MergeCharacters relocates every record under source's key to target's
// key, then removes source from all four mappings. Experiences and
// evolution logs concatenate and re-sort by chapter; relationships and
// traits union, keeping target's entry on collision. References to
// source elsewhere (other characters' relationship targets and
// experiences' related-character lists) are rewritten to target.
//
// Union semantics contrast with RenameCharacter's overwrite semantics;
// both behaviors are load-bearing for callers reconciling aliases.
func (s *Store) MergeCharacters(source, target string) {
	if source == target {
		return
	}

	// Experiences: concatenate, then restore chapter order. Stable sort
	// keeps target-before-source on equal chapters.
	if exps, ok := s.experiences[source]; ok {
		merged := append(s.experiences[target], exps...)
		sort.SliceStable(merged, func(i, j int) bool {
			return merged[i].ChapterNumber < merged[j].ChapterNumber
		})
		s.experiences[target] = merged
		delete(s.experiences, source)
	}

	// Relationships owned by source move under target, dropping entries
	// that collide with target's existing ones and entries that would
	// become self-referential.
	if rels, ok := s.relationships[source]; ok {
		for _, rel := range rels {
			if rel.TargetCharacter == target {
				continue
			}
			if s.findRelationship(target, rel.TargetCharacter) != nil {
				continue
			}
			s.relationships[target] = append(s.relationships[target], rel)
		}
		delete(s.relationships, source)
	}

	// Every other character's relationships pointing at source now point
	// at target. When an owner already has a relationship to target, its
	// existing entry wins and the redirected one is dropped.
	s.retargetRelationships(source, target)

	// Experiences anywhere that referenced source now reference target.
	s.rewriteRelatedCharacters(source, target)

	// Traits: union, target's entry wins on name collision.
	if traits, ok := s.personalityTraits[source]; ok {
		existing := make(map[string]bool)
		for _, trait := range s.personalityTraits[target] {
			existing[trait.TraitName] = true
		}
		for _, trait := range traits {
			if !existing[trait.TraitName] {
				s.personalityTraits[target] = append(s.personalityTraits[target], trait)
			}
		}
		delete(s.personalityTraits, source)
	}

	// Evolution logs: concatenate, then restore chapter order.
	if evos, ok := s.personalityEvolution[source]; ok {
		merged := append(s.personalityEvolution[target], evos...)
		sort.SliceStable(merged, func(i, j int) bool {
			return merged[i].ChapterNumber < merged[j].ChapterNumber
		})
		s.personalityEvolution[target] = merged
		delete(s.personalityEvolution, source)
	}
}

// RenameCharacter moves every record keyed by old to the key newName.
// Unlike MergeCharacters this is a plain key move: any data newName
// already had is replaced, not unioned. References to old elsewhere are
// rewritten to newName.
func (s *Store) RenameCharacter(old, newName string) {
	if old == newName {
		return
	}

	if exps, ok := s.experiences[old]; ok {
		s.experiences[newName] = exps
		delete(s.experiences, old)
	}
	if rels, ok := s.relationships[old]; ok {
		s.relationships[newName] = rels
		delete(s.relationships, old)
	}
	if traits, ok := s.personalityTraits[old]; ok {
		s.personalityTraits[newName] = traits
		delete(s.personalityTraits, old)
	}
	if evos, ok := s.personalityEvolution[old]; ok {
		s.personalityEvolution[newName] = evos
		delete(s.personalityEvolution, old)
	}

	s.retargetRelationships(old, newName)
	s.rewriteRelatedCharacters(old, newName)
}

// retargetRelationships rewrites relationship targets from to, dropping
// rewritten entries that would duplicate an owner's existing relationship
// to the new target or point an owner at itself.
func (s *Store) retargetRelationships(from, to string) {
	for owner, rels := range s.relationships {
		kept := make([]*Relationship, 0, len(rels))
		for _, rel := range rels {
			if rel.TargetCharacter != from {
				kept = append(kept, rel)
				continue
			}
			if owner == to {
				continue
			}
			duplicate := false
			for _, other := range rels {
				if other != rel && other.TargetCharacter == to {
					duplicate = true
					break
				}
			}
			if duplicate {
				continue
			}
			rel.TargetCharacter = to
			kept = append(kept, rel)
		}
		s.relationships[owner] = kept
	}
}

// rewriteRelatedCharacters replaces from with to in every experience's
// related-character list, de-duplicating the result.
func (s *Store) rewriteRelatedCharacters(from, to string) {
	for _, exps := range s.experiences {
		for _, exp := range exps {
			changed := false
			for i, name := range exp.RelatedCharacters {
				if name == from {
					exp.RelatedCharacters[i] = to
					changed = true
				}
			}
			if changed {
				exp.RelatedCharacters = dedupe(exp.RelatedCharacters)
			}
		}
	}
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := names[:0]
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
