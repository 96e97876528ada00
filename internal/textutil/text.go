package textutil

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Sentence terminators: Chinese full stop, exclamation, question mark,
// plus newline. English periods are not terminators: they collide with
// abbreviations and decimal points, and the corpus this tool targets is
// Chinese-dominant prose.
func isSentenceTerminator(r rune) bool {
	return r == '。' || r == '！' || r == '？' || r == '\n'
}

// SplitSentences breaks text into trimmed, non-empty sentence-like
// segments. Runs of terminators count as a single boundary. This is the
// only cut point the assembler uses, so content never truncates
// mid-sentence.
func SplitSentences(text string) []string {
	var sentences []string
	var b strings.Builder
	flush := func() {
		s := strings.TrimSpace(b.String())
		if s != "" {
			sentences = append(sentences, s)
		}
		b.Reset()
	}
	for _, r := range text {
		if isSentenceTerminator(r) {
			flush()
			continue
		}
		b.WriteRune(r)
	}
	flush()
	return sentences
}

// cjkWordPattern matches 2-4 character CJK runs for keyword extraction.
var cjkWordPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[\x{4e00}-\x{9fff}]{4}`),
	regexp.MustCompile(`[\x{4e00}-\x{9fff}]{3}`),
	regexp.MustCompile(`[\x{4e00}-\x{9fff}]{2}`),
}

var stopwords = map[string]bool{
	"的": true, "了": true, "在": true, "是": true, "我": true, "有": true,
	"和": true, "就": true, "不": true, "人": true, "都": true, "一": true,
	"一个": true, "上": true, "也": true, "很": true, "到": true, "说": true,
	"要": true, "去": true, "你": true, "会": true, "着": true, "没有": true,
	"看": true, "好": true, "自己": true, "这": true, "那": true, "他": true,
	"她": true, "们": true, "吗": true, "吧": true, "啊": true, "呢": true,
}

// ExtractKeywords pulls the most frequent 2-4 character CJK terms from
// text, excluding stopwords. Frequency-based only, no segmentation
// dictionary; good enough for summary garnish.
func ExtractKeywords(text string, topN int) []string {
	freq := make(map[string]int)
	var order []string
	for _, pattern := range cjkWordPatterns {
		for _, word := range pattern.FindAllString(text, -1) {
			if stopwords[word] {
				continue
			}
			if _, seen := freq[word]; !seen {
				order = append(order, word)
			}
			freq[word]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return freq[order[i]] > freq[order[j]]
	})

	if topN > len(order) {
		topN = len(order)
	}
	return order[:topN]
}

// TruncateRunes cuts text to at most maxLen runes, replacing the tail
// with suffix when truncation happens.
func TruncateRunes(text string, maxLen int, suffix string) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	keep := maxLen - len([]rune(suffix))
	if keep < 0 {
		keep = 0
	}
	return string(runes[:keep]) + suffix
}

// CleanText normalizes whitespace: collapses blank-line runs and strips
// per-line leading/trailing space.
func CleanText(text string) string {
	text = regexp.MustCompile(`\n\s*\n`).ReplaceAllString(text, "\n\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.Join(lines, "\n")
}

// Similarity returns a 0-1 character-overlap score (Jaccard over rune
// sets) between two texts.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	setA := make(map[rune]bool)
	for _, r := range a {
		setA[r] = true
	}
	setB := make(map[rune]bool)
	for _, r := range b {
		setB[r] = true
	}
	intersection := 0
	for r := range setA {
		if setB[r] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// FormatWordCount renders a Chinese-style word count (字/千字/万字).
func FormatWordCount(count int) string {
	switch {
	case count < 1000:
		return fmt.Sprintf("%d字", count)
	case count < 20000:
		return fmt.Sprintf("%.1f千字", float64(count)/1000)
	default:
		return fmt.Sprintf("%.1f万字", float64(count)/10000)
	}
}
