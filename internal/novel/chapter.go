package novel

import (
	"time"

	"github.com/yujiapingyu/novelgrok/internal/textutil"
)

// Chapter is one unit of generated or imported prose. Chapter numbers
// are 1-based and contiguous; the project assigns them on append.
type Chapter struct {
	ChapterNumber int       `json:"chapter_number"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Summary       string    `json:"summary,omitempty"`
	WordCount     int       `json:"word_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewChapter creates a chapter with the word count derived from content.
func NewChapter(title, content string) *Chapter {
	now := time.Now()
	return &Chapter{
		Title:     title,
		Content:   content,
		WordCount: len([]rune(content)),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// UpdateContent replaces the content and refreshes the derived word
// count and timestamp.
func (c *Chapter) UpdateContent(content string) {
	c.Content = content
	c.WordCount = len([]rune(content))
	c.UpdatedAt = time.Now()
}

// Preview returns the first n runes of content, ellipsized.
func (c *Chapter) Preview(n int) string {
	return textutil.TruncateRunes(c.Content, n, "...")
}

// Chapter outline statuses.
const (
	OutlinePlanned   = "planned"
	OutlineGenerated = "generated"
	OutlineCompleted = "completed"
)

// ChapterOutline is a planned chapter: the skeleton the generator fills
// in, tracked through planned → generated → completed.
type ChapterOutline struct {
	ChapterNumber      int      `json:"chapter_number"`
	Title              string   `json:"title"`
	Summary            string   `json:"summary"`
	KeyEvents          []string `json:"key_events,omitempty"`
	InvolvedCharacters []string `json:"involved_characters,omitempty"`
	TargetLength       int      `json:"target_length"`
	Status             string   `json:"status"`
	Notes              string   `json:"notes,omitempty"`
}
