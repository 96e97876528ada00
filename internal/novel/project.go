// Package novel defines the project snapshot: metadata, character
// roster, chapters, plot points, and the owned character state store.
// One project is the unit of loading, mutation, and persistence.
package novel

import (
	"fmt"
	"strings"
	"time"

	"github.com/yujiapingyu/novelgrok/internal/tracker"
)

// Project is a complete novel-in-progress. The tracker travels with the
// project: it is serialized inside the project document and has no
// independent lifecycle.
type Project struct {
	Title          string `json:"title"`
	Genre          string `json:"genre,omitempty"`
	Background     string `json:"background,omitempty"`
	PlotOutline    string `json:"plot_outline,omitempty"`
	WritingStyle   string `json:"writing_style,omitempty"`
	TargetAudience string `json:"target_audience,omitempty"`
	StoryGoal      string `json:"story_goal,omitempty"`

	Characters      []*CharacterProfile `json:"characters"`
	Chapters        []*Chapter          `json:"chapters"`
	PlotPoints      []string            `json:"plot_points,omitempty"`
	ChapterOutlines []*ChapterOutline   `json:"chapter_outlines,omitempty"`

	Tracker *tracker.Store `json:"character_tracker"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProject creates an empty project with a fresh tracker.
func NewProject(title string) *Project {
	now := time.Now()
	return &Project{
		Title:     title,
		Tracker:   tracker.NewStore(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (p *Project) touch() {
	p.UpdatedAt = time.Now()
}

// ── Characters ───────────────────────────────────────────────────────

// AddCharacter appends a character to the roster.
func (p *Project) AddCharacter(c *CharacterProfile) {
	p.Characters = append(p.Characters, c)
	p.touch()
}

// Character finds a roster entry by canonical name.
func (p *Project) Character(name string) *CharacterProfile {
	for _, c := range p.Characters {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// RemoveCharacter deletes a roster entry by canonical name. The
// tracker's records for that name are left untouched; callers that want
// them gone merge or rename first.
func (p *Project) RemoveCharacter(name string) bool {
	for i, c := range p.Characters {
		if c.Name == name {
			p.Characters = append(p.Characters[:i], p.Characters[i+1:]...)
			p.touch()
			return true
		}
	}
	return false
}

// CanonicalName resolves a name or alias to the canonical roster name.
// Returns the input unchanged when no roster entry claims it; the
// tracker stores whatever it is given, so unresolved names pass through.
func (p *Project) CanonicalName(nameOrAlias string) string {
	for _, c := range p.Characters {
		if c.Name == nameOrAlias || c.HasAlias(nameOrAlias) {
			return c.Name
		}
	}
	return nameOrAlias
}

// CharacterNames returns the roster's canonical names in order.
func (p *Project) CharacterNames() []string {
	names := make([]string, len(p.Characters))
	for i, c := range p.Characters {
		names[i] = c.Name
	}
	return names
}

// RosterInfo renders every character's full description, for the base
// info layer of the writing context.
func (p *Project) RosterInfo() string {
	if len(p.Characters) == 0 {
		return "暂无角色信息"
	}
	parts := make([]string, len(p.Characters))
	for i, c := range p.Characters {
		parts[i] = c.FullDescription()
	}
	return strings.Join(parts, "\n\n")
}

// ── Chapters ─────────────────────────────────────────────────────────

// AddChapter appends a chapter, assigning the next chapter number.
func (p *Project) AddChapter(c *Chapter) {
	c.ChapterNumber = len(p.Chapters) + 1
	p.Chapters = append(p.Chapters, c)
	p.touch()
}

// Chapter returns the chapter with the given 1-based number, or nil.
func (p *Project) Chapter(number int) *Chapter {
	if number < 1 || number > len(p.Chapters) {
		return nil
	}
	return p.Chapters[number-1]
}

// LatestChapter returns the most recent chapter, or nil when empty.
func (p *Project) LatestChapter() *Chapter {
	if len(p.Chapters) == 0 {
		return nil
	}
	return p.Chapters[len(p.Chapters)-1]
}

// RecentChapters returns the last count chapters in ascending order.
func (p *Project) RecentChapters(count int) []*Chapter {
	if count <= 0 || len(p.Chapters) == 0 {
		return nil
	}
	if count > len(p.Chapters) {
		count = len(p.Chapters)
	}
	return p.Chapters[len(p.Chapters)-count:]
}

// UpdateChapter replaces a chapter's content by number.
func (p *Project) UpdateChapter(number int, content string) bool {
	c := p.Chapter(number)
	if c == nil {
		return false
	}
	c.UpdateContent(content)
	p.touch()
	return true
}

// TotalWordCount sums every chapter's word count.
func (p *Project) TotalWordCount() int {
	total := 0
	for _, c := range p.Chapters {
		total += c.WordCount
	}
	return total
}

// ── Plot points ──────────────────────────────────────────────────────

// AddPlotPoint records a plot note.
func (p *Project) AddPlotPoint(point string) {
	p.PlotPoints = append(p.PlotPoints, point)
	p.touch()
}

// PlotSummary renders the numbered plot-point list.
func (p *Project) PlotSummary() string {
	if len(p.PlotPoints) == 0 {
		return "暂无情节记录"
	}
	lines := make([]string, len(p.PlotPoints))
	for i, point := range p.PlotPoints {
		lines[i] = fmt.Sprintf("%d. %s", i+1, point)
	}
	return strings.Join(lines, "\n")
}

// ── Outlines ─────────────────────────────────────────────────────────

// AddOutline appends a chapter outline.
func (p *Project) AddOutline(o *ChapterOutline) {
	if o.Status == "" {
		o.Status = OutlinePlanned
	}
	p.ChapterOutlines = append(p.ChapterOutlines, o)
	p.touch()
}

// Outline returns the outline for a chapter number, or nil.
func (p *Project) Outline(chapterNumber int) *ChapterOutline {
	for _, o := range p.ChapterOutlines {
		if o.ChapterNumber == chapterNumber {
			return o
		}
	}
	return nil
}

// NextPlannedOutline returns the first outline still in planned status.
func (p *Project) NextPlannedOutline() *ChapterOutline {
	for _, o := range p.ChapterOutlines {
		if o.Status == OutlinePlanned {
			return o
		}
	}
	return nil
}

// Status summarizes the project for CLI and API consumers.
type Status struct {
	Title          string    `json:"title"`
	Genre          string    `json:"genre,omitempty"`
	ChapterCount   int       `json:"chapter_count"`
	CharacterCount int       `json:"character_count"`
	TotalWords     int       `json:"total_words"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ProjectStatus returns the summary counters.
func (p *Project) ProjectStatus() Status {
	return Status{
		Title:          p.Title,
		Genre:          p.Genre,
		ChapterCount:   len(p.Chapters),
		CharacterCount: len(p.Characters),
		TotalWords:     p.TotalWordCount(),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}
