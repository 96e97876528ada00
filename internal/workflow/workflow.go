// Package workflow drives the post-generation tracking loop: identify
// aliases used in a chapter, analyze the chapter for character events,
// normalize names back to the roster, and apply the result to the
// character state store.
package workflow

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/yujiapingyu/novelgrok/internal/assembler"
	"github.com/yujiapingyu/novelgrok/internal/llm"
	"github.com/yujiapingyu/novelgrok/internal/novel"
	"github.com/yujiapingyu/novelgrok/internal/textutil"
	"github.com/yujiapingyu/novelgrok/internal/tracker"
)

// TrackResult counts what an AutoTrack pass applied.
type TrackResult struct {
	NewCharacters      int
	AliasesAdded       int
	Experiences        int
	Relationships      int
	PersonalityChanges int
}

// AutoTrack analyzes a chapter and updates the project's character
// state store: detect new characters, learn aliases, extract events,
// normalize names through the roster, apply. Detection and alias
// failures are non-fatal; only the analysis itself can fail the pass.
func AutoTrack(client *llm.Client, p *novel.Project, ch *novel.Chapter) (*TrackResult, error) {
	result := &TrackResult{}

	found, err := llm.DetectNewCharacters(client, ch.Content, p.CharacterNames())
	if err != nil {
		slog.Warn("new character detection failed, continuing without",
			"chapter", ch.ChapterNumber, "error", err)
	}
	for _, nc := range found {
		if p.Character(nc.Name) != nil {
			continue
		}
		p.AddCharacter(novel.NewCharacterProfile(nc.Name, nc.Description, nc.Personality))
		result.NewCharacters++
		slog.Info("new character added to roster", "name", nc.Name, "chapter", ch.ChapterNumber)
	}

	if len(p.Characters) > 0 {
		aliases, err := llm.IdentifyAliases(client, ch.Content, p.CharacterNames())
		if err != nil {
			slog.Warn("alias identification failed, continuing without",
				"chapter", ch.ChapterNumber, "error", err)
		}
		for name, found := range aliases {
			c := p.Character(name)
			if c == nil {
				continue
			}
			for _, alias := range found {
				if c.AddAlias(alias) {
					result.AliasesAdded++
					slog.Debug("alias added", "character", name, "alias", alias)
				}
			}
		}
	}

	analysis, err := llm.AnalyzeChapter(client, &llm.AnalysisRequest{
		NovelTitle:     p.Title,
		Genre:          p.Genre,
		ChapterNumber:  ch.ChapterNumber,
		ChapterTitle:   ch.Title,
		WordCount:      ch.WordCount,
		Content:        ch.Content,
		KnownNames:     p.CharacterNames(),
		CharacterLines: characterStatusLines(p),
	})
	if err != nil {
		return result, fmt.Errorf("chapter %d analysis: %w", ch.ChapterNumber, err)
	}

	normalizeNames(p, analysis)
	ApplyAnalysis(p.Tracker, analysis, ch.ChapterNumber, result)

	slog.Info("chapter tracked",
		"chapter", ch.ChapterNumber,
		"experiences", result.Experiences,
		"relationships", result.Relationships,
		"personality_changes", result.PersonalityChanges,
		"aliases_added", result.AliasesAdded,
		"new_characters", result.NewCharacters,
	)
	return result, nil
}

// normalizeNames rewrites every character reference in an analysis to
// its canonical roster name.
func normalizeNames(p *novel.Project, analysis *llm.ChapterAnalysis) {
	for i := range analysis.Experiences {
		exp := &analysis.Experiences[i]
		exp.Character = p.CanonicalName(exp.Character)
		for j, name := range exp.RelatedCharacters {
			exp.RelatedCharacters[j] = p.CanonicalName(name)
		}
	}
	for i := range analysis.Relationships {
		rel := &analysis.Relationships[i]
		rel.Character = p.CanonicalName(rel.Character)
		rel.Target = p.CanonicalName(rel.Target)
	}
	for i := range analysis.PersonalityChanges {
		analysis.PersonalityChanges[i].Character = p.CanonicalName(analysis.PersonalityChanges[i].Character)
	}
}

// ApplyAnalysis writes an analysis into the state store. Relationships
// are created at first sight before the update is applied, and traits
// are seeded at intensity 50 so the change lands on a baseline.
func ApplyAnalysis(store *tracker.Store, analysis *llm.ChapterAnalysis, chapter int, result *TrackResult) {
	if result == nil {
		result = &TrackResult{}
	}

	for _, exp := range analysis.Experiences {
		store.AddExperience(exp.Character, tracker.Experience{
			ChapterNumber:     chapter,
			EventType:         exp.EventType,
			Description:       exp.Description,
			Impact:            exp.Impact,
			RelatedCharacters: exp.RelatedCharacters,
			Context:           exp.Context,
			EmotionalState:    exp.EmotionalState,
			Consequence:       exp.Consequence,
			Location:          exp.Location,
			KeyDialogue:       exp.KeyDialogue,
		})
		result.Experiences++
	}

	for _, rel := range analysis.Relationships {
		if _, ok := store.Relationship(rel.Character, rel.Target); !ok {
			store.AddRelationship(rel.Character, rel.Target, rel.Type, 50, rel.Description, chapter)
		}
		store.UpdateRelationship(rel.Character, rel.Target, tracker.RelationshipUpdate{
			NewType:        rel.Type,
			IntimacyChange: rel.IntimacyChange,
			Description:    rel.Description,
			Reason:         rel.Reason,
			Chapter:        chapter,
		})
		result.Relationships++
	}

	for _, pc := range analysis.PersonalityChanges {
		traits := store.PersonalityTraits(pc.Character)
		current := -1
		for _, t := range traits {
			if t.TraitName == pc.Trait {
				current = t.Intensity
				break
			}
		}
		if current == -1 {
			current = 50
			store.SetPersonalityTraits(pc.Character, append(traits, tracker.PersonalityTrait{
				TraitName: pc.Trait,
				Intensity: current,
			}))
		}
		store.UpdatePersonalityTrait(pc.Character, pc.Trait, current+pc.IntensityChange, pc.Reason, chapter)
		result.PersonalityChanges++
	}
}

// CharacterState renders each roster character's current state for
// prompt injection: personality, recent experiences, relationships,
// and traits.
func CharacterState(p *novel.Project) string {
	if len(p.Characters) == 0 {
		return ""
	}

	var blocks []string
	for _, c := range p.Characters {
		lines := []string{"【" + c.Name + "】"}
		if c.Personality != "" {
			lines = append(lines, "性格："+c.Personality)
		}

		experiences := p.Tracker.Experiences(c.Name, tracker.ExperienceFilter{})
		if len(experiences) > 0 {
			recent := experiences
			if len(recent) > 5 {
				recent = recent[len(recent)-5:]
			}
			parts := make([]string, len(recent))
			for i, e := range recent {
				parts[i] = textutil.TruncateRunes(e.Description, 50, "")
			}
			lines = append(lines, "最近经历："+strings.Join(parts, "；"))
		}

		rels := p.Tracker.Relationships(c.Name)
		if len(rels) > 0 {
			if len(rels) > 3 {
				rels = rels[:3]
			}
			parts := make([]string, len(rels))
			for i, r := range rels {
				parts[i] = fmt.Sprintf("%s(%s,亲密度%d)", r.TargetCharacter, r.RelationshipType, r.IntimacyLevel)
			}
			lines = append(lines, "关系："+strings.Join(parts, "，"))
		}

		traits := p.Tracker.PersonalityTraits(c.Name)
		if len(traits) > 0 {
			if len(traits) > 3 {
				traits = traits[:3]
			}
			parts := make([]string, len(traits))
			for i, t := range traits {
				parts[i] = fmt.Sprintf("%s(%d)", t.TraitName, t.Intensity)
			}
			lines = append(lines, "特质："+strings.Join(parts, "，"))
		}

		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return strings.Join(blocks, "\n\n")
}

// HappenedEvents summarizes what already happened, one line per
// chapter per character, capped to the most recent ten.
func HappenedEvents(p *novel.Project) string {
	if len(p.Characters) == 0 || len(p.Chapters) == 0 {
		return ""
	}

	var events []string
	for _, c := range p.Characters {
		experiences := p.Tracker.Experiences(c.Name, tracker.ExperienceFilter{})
		if len(experiences) == 0 {
			continue
		}
		firstPerChapter := make(map[int]string)
		for _, exp := range experiences {
			if _, seen := firstPerChapter[exp.ChapterNumber]; !seen {
				firstPerChapter[exp.ChapterNumber] = textutil.TruncateRunes(exp.Description, 60, "")
			}
		}
		chapters := make([]int, 0, len(firstPerChapter))
		for n := range firstPerChapter {
			chapters = append(chapters, n)
		}
		sort.Ints(chapters)
		for _, n := range chapters {
			events = append(events, fmt.Sprintf("第%d章：%s", n, firstPerChapter[n]))
		}
	}

	if len(events) == 0 {
		return ""
	}
	if len(events) > 10 {
		events = events[len(events)-10:]
	}
	return strings.Join(events, "\n")
}

// characterStatusLines builds the compact per-character lines the
// analysis prompt lists as known characters.
func characterStatusLines(p *novel.Project) []string {
	lines := make([]string, 0, len(p.Characters))
	for _, c := range p.Characters {
		var b strings.Builder
		b.WriteString(c.Name)
		if len(c.Aliases) > 0 {
			b.WriteString("（别名：" + strings.Join(c.Aliases, ", ") + "）")
		}

		b.WriteString("（")
		if traits := p.Tracker.PersonalityTraits(c.Name); len(traits) > 0 {
			if len(traits) > 2 {
				traits = traits[:2]
			}
			parts := make([]string, len(traits))
			for i, t := range traits {
				parts[i] = fmt.Sprintf("%s(%d)", t.TraitName, t.Intensity)
			}
			b.WriteString("特质:" + strings.Join(parts, ",") + "；")
		}
		if rels := p.Tracker.Relationships(c.Name); len(rels) > 0 {
			if len(rels) > 2 {
				rels = rels[:2]
			}
			parts := make([]string, len(rels))
			for i, r := range rels {
				parts[i] = fmt.Sprintf("%s(%d)", r.TargetCharacter, r.IntimacyLevel)
			}
			b.WriteString("关系:" + strings.Join(parts, ","))
		}
		b.WriteString("）")

		lines = append(lines, b.String())
	}
	return lines
}

// PrevEnding returns the tail of the latest chapter for continuity
// prompts: the last five paragraphs, or the last 500 runes when the
// paragraphs come up short.
func PrevEnding(ch *novel.Chapter) string {
	if ch == nil || ch.Content == "" {
		return ""
	}
	paragraphs := strings.Split(ch.Content, "\n")
	if len(paragraphs) > 5 {
		paragraphs = paragraphs[len(paragraphs)-5:]
	}
	ending := strings.Join(paragraphs, "\n")

	runes := []rune(ch.Content)
	if len([]rune(ending)) < 500 && len(runes) > 500 {
		ending = string(runes[len(runes)-500:])
	}
	return ending
}

// GenerateChapter assembles the full writing context, asks the model
// for the next chapter, and appends it to the project.
func GenerateChapter(client *llm.Client, asm *assembler.Assembler, p *novel.Project, title, writingPrompt string, targetLength int) (*novel.Chapter, error) {
	req := &llm.ChapterRequest{
		Context:           asm.BuildWritingContext(p, 3, 10),
		HappenedEvents:    HappenedEvents(p),
		CharacterState:    CharacterState(p),
		NextChapterNumber: len(p.Chapters) + 1,
		Title:             title,
		WritingPrompt:     writingPrompt,
		TargetLength:      targetLength,
	}
	if prev := p.LatestChapter(); prev != nil {
		req.PrevChapterNumber = prev.ChapterNumber
		req.PrevChapterTitle = prev.Title
		req.PrevEnding = PrevEnding(prev)
	}

	chapterTitle, content, err := llm.GenerateChapter(client, req)
	if err != nil {
		return nil, err
	}

	ch := novel.NewChapter(chapterTitle, content)
	p.AddChapter(ch)
	return ch, nil
}
