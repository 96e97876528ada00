// Package importer splits external novel text into chapters by
// detecting the heading convention the text uses.
package importer

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
)

// DefaultMaxFileSize caps imported text at 1MB. Zero disables the cap.
const DefaultMaxFileSize = 1024 * 1024

// chapterPatterns are the heading conventions recognized, tried in
// order. The most frequently matching one wins.
var chapterPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^第[0-9零一二三四五六七八九十百千万]+章[：:\s]*.+$`),
	regexp.MustCompile(`(?i)^第[0-9零一二三四五六七八九十百千万]+章\s*$`),
	regexp.MustCompile(`(?i)^第[0-9零一二三四五六七八九十百千万]+回[：:\s]*.+$`),
	regexp.MustCompile(`(?i)^第[0-9零一二三四五六七八九十百千万]+回\s*$`),
	regexp.MustCompile(`(?i)^[0-9]+\.[：:\s]*.+$`),
	regexp.MustCompile(`(?i)^[0-9]+、.+$`),
	regexp.MustCompile(`(?i)^【第[0-9零一二三四五六七八九十百千万]+章】.+$`),
	regexp.MustCompile(`(?i)^Chapter\s+[0-9]+[：:\s]*.+$`),
	regexp.MustCompile(`(?i)^Chapter\s+[0-9]+\s*$`),
}

// ImportedChapter is one chapter carved out of the source text.
type ImportedChapter struct {
	ChapterNumber int    `json:"chapter_number"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	WordCount     int    `json:"word_count"`
}

// Importer splits novel text into chapters.
type Importer struct {
	maxFileSize int
}

// New creates an importer with the given size cap in bytes. Negative
// caps fall back to the default; zero disables the check.
func New(maxFileSize int) *Importer {
	if maxFileSize < 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &Importer{maxFileSize: maxFileSize}
}

// ValidateSize rejects content over the configured byte cap.
func (im *Importer) ValidateSize(content string) error {
	if im.maxFileSize == 0 {
		return nil
	}
	if size := len(content); size > im.maxFileSize {
		return fmt.Errorf("文件大小 %s 超过限制 %s",
			humanize.Bytes(uint64(size)), humanize.Bytes(uint64(im.maxFileSize)))
	}
	return nil
}

// DetectPattern returns the heading pattern matching the most lines,
// or nil when no line looks like a chapter heading.
func (im *Importer) DetectPattern(content string) *regexp.Regexp {
	lines := strings.Split(content, "\n")

	var best *regexp.Regexp
	bestCount := 0
	for _, pattern := range chapterPatterns {
		count := 0
		for _, line := range lines {
			line = strings.TrimSpace(line)
			if line != "" && pattern.MatchString(line) {
				count++
			}
		}
		if count > bestCount {
			best = pattern
			bestCount = count
		}
	}
	return best
}

// SplitChapters carves the text along detected headings. Text with no
// recognizable headings comes back as a single chapter.
func (im *Importer) SplitChapters(content string) []ImportedChapter {
	pattern := im.DetectPattern(content)
	if pattern == nil {
		trimmed := strings.TrimSpace(content)
		return []ImportedChapter{{
			ChapterNumber: 1,
			Title:         "导入章节",
			Content:       trimmed,
			WordCount:     len([]rune(trimmed)),
		}}
	}

	var chapters []ImportedChapter
	var currentLines []string
	currentTitle := ""
	inChapter := false
	chapterNumber := 0

	flush := func() {
		if !inChapter {
			return
		}
		text := strings.TrimSpace(strings.Join(currentLines, "\n"))
		if text == "" {
			return
		}
		chapters = append(chapters, ImportedChapter{
			ChapterNumber: chapterNumber,
			Title:         currentTitle,
			Content:       text,
			WordCount:     len([]rune(text)),
		})
	}

	for _, line := range strings.Split(content, "\n") {
		stripped := strings.TrimSpace(line)
		if stripped != "" && pattern.MatchString(stripped) {
			flush()
			chapterNumber++
			currentTitle = stripped
			currentLines = currentLines[:0]
			inChapter = true
			continue
		}
		if inChapter {
			currentLines = append(currentLines, line)
		}
	}
	flush()

	return chapters
}

// Summary aggregates chapter statistics for reporting after an import.
type Summary struct {
	ChapterCount int `json:"chapter_count"`
	TotalWords   int `json:"total_words"`
	AvgWords     int `json:"avg_words_per_chapter"`
	MinWords     int `json:"min_words"`
	MaxWords     int `json:"max_words"`
}

// Summarize computes statistics over imported chapters.
func Summarize(chapters []ImportedChapter) Summary {
	if len(chapters) == 0 {
		return Summary{}
	}

	s := Summary{
		ChapterCount: len(chapters),
		MinWords:     chapters[0].WordCount,
	}
	for _, ch := range chapters {
		s.TotalWords += ch.WordCount
		if ch.WordCount < s.MinWords {
			s.MinWords = ch.WordCount
		}
		if ch.WordCount > s.MaxWords {
			s.MaxWords = ch.WordCount
		}
	}
	s.AvgWords = s.TotalWords / len(chapters)
	return s
}

// Import validates and splits novel text.
func (im *Importer) Import(content string) ([]ImportedChapter, error) {
	if err := im.ValidateSize(content); err != nil {
		return nil, err
	}

	chapters := im.SplitChapters(content)
	if len(chapters) == 0 {
		return nil, fmt.Errorf("未能识别到任何章节")
	}

	slog.Info("novel imported", "chapters", len(chapters), "bytes", len(content))
	return chapters, nil
}

// Preview renders the first chapters for confirmation before applying
// the import. previewLength is the per-chapter excerpt in runes.
func Preview(chapters []ImportedChapter, previewLength int) string {
	if len(chapters) == 0 {
		return "无章节"
	}
	if previewLength <= 0 {
		previewLength = 100
	}

	var lines []string
	shown := chapters
	if len(shown) > 10 {
		shown = shown[:10]
	}
	for _, ch := range shown {
		excerpt := ch.Content
		if runes := []rune(excerpt); len(runes) > previewLength {
			excerpt = string(runes[:previewLength]) + "..."
		}
		lines = append(lines, fmt.Sprintf("第%d章: %s (%d字)\n  %s\n", ch.ChapterNumber, ch.Title, ch.WordCount, excerpt))
	}
	if len(chapters) > 10 {
		lines = append(lines, fmt.Sprintf("... 还有 %d 章", len(chapters)-10))
	}
	return strings.Join(lines, "\n")
}
