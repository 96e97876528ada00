package importer

import (
	"fmt"
	"strings"
	"testing"
)

const sampleNovel = `我的小说

第一章：初见
林歆颜第一次见到他。
是在雨天。

第二章：重逢
三年后他们重逢了。

第三章 离别
没有人说再见。
`

func TestDetectPattern(t *testing.T) {
	im := New(0)

	if got := im.DetectPattern(sampleNovel); got == nil {
		t.Fatal("expected a pattern for 第N章 headings")
	}
	if got := im.DetectPattern("只是一段普通的文字。\n没有任何章节标题。"); got != nil {
		t.Errorf("expected nil pattern, got %v", got)
	}
}

func TestDetectPattern_MostFrequentWins(t *testing.T) {
	// Two numbered-list headings vs one 第N章 heading.
	content := "1. 开端\n正文一。\n2、另一种\n正文二。\n1、编号体\n正文三。\n第一章：孤例\n正文四。"
	im := New(0)
	pattern := im.DetectPattern(content)
	if pattern == nil {
		t.Fatal("expected a pattern")
	}
	if pattern.MatchString("第一章：孤例") {
		t.Error("single-occurrence pattern won over the frequent one")
	}
	if !pattern.MatchString("2、另一种") {
		t.Error("frequent numbered pattern not selected")
	}
}

func TestSplitChapters(t *testing.T) {
	im := New(0)
	chapters := im.SplitChapters(sampleNovel)
	if len(chapters) != 3 {
		t.Fatalf("expected 3 chapters, got %d: %v", len(chapters), chapters)
	}

	first := chapters[0]
	if first.ChapterNumber != 1 || first.Title != "第一章：初见" {
		t.Errorf("first chapter = %+v", first)
	}
	if !strings.Contains(first.Content, "是在雨天") {
		t.Errorf("first chapter content = %q", first.Content)
	}
	if strings.Contains(first.Content, "我的小说") {
		t.Error("preamble leaked into first chapter")
	}
	if first.WordCount != len([]rune(first.Content)) {
		t.Errorf("word count %d does not match rune count", first.WordCount)
	}

	if chapters[2].Title != "第三章 离别" || chapters[2].ChapterNumber != 3 {
		t.Errorf("third chapter = %+v", chapters[2])
	}
}

func TestSplitChapters_NoHeadingsFallback(t *testing.T) {
	im := New(0)
	chapters := im.SplitChapters("  整本书只有一段。\n没有标题。  ")
	if len(chapters) != 1 {
		t.Fatalf("expected 1 chapter, got %d", len(chapters))
	}
	if chapters[0].Title != "导入章节" || chapters[0].ChapterNumber != 1 {
		t.Errorf("fallback chapter = %+v", chapters[0])
	}
	if strings.HasPrefix(chapters[0].Content, " ") {
		t.Error("fallback content not trimmed")
	}
}

func TestSplitChapters_ChapterEnglish(t *testing.T) {
	im := New(0)
	content := "Chapter 1: The Door\nIt was locked.\nchapter 2: The Key\nIt was lost."
	chapters := im.SplitChapters(content)
	if len(chapters) != 2 {
		t.Fatalf("expected 2 chapters, got %d: %v", len(chapters), chapters)
	}
	if chapters[1].Title != "chapter 2: The Key" {
		t.Errorf("second title = %q", chapters[1].Title)
	}
}

func TestValidateSize(t *testing.T) {
	im := New(10)
	if err := im.ValidateSize("短"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := im.ValidateSize(strings.Repeat("长", 10)); err == nil {
		t.Error("expected size error")
	}

	unlimited := New(0)
	if err := unlimited.ValidateSize(strings.Repeat("长", 100000)); err != nil {
		t.Errorf("zero cap should disable the check: %v", err)
	}

	if got := New(-1); got.maxFileSize != DefaultMaxFileSize {
		t.Errorf("negative cap = %d, want default", got.maxFileSize)
	}
}

func TestImport_SizeRejected(t *testing.T) {
	im := New(5)
	if _, err := im.Import("超过五个字节的内容"); err == nil {
		t.Error("expected import to fail on size")
	}
}

func TestSummarize(t *testing.T) {
	chapters := []ImportedChapter{
		{WordCount: 100},
		{WordCount: 300},
		{WordCount: 200},
	}
	s := Summarize(chapters)
	if s.ChapterCount != 3 || s.TotalWords != 600 || s.AvgWords != 200 {
		t.Errorf("summary = %+v", s)
	}
	if s.MinWords != 100 || s.MaxWords != 300 {
		t.Errorf("min/max = %d/%d", s.MinWords, s.MaxWords)
	}

	if got := Summarize(nil); got != (Summary{}) {
		t.Errorf("empty summarize = %+v", got)
	}
}

func TestPreview(t *testing.T) {
	var chapters []ImportedChapter
	for i := 1; i <= 12; i++ {
		chapters = append(chapters, ImportedChapter{
			ChapterNumber: i,
			Title:         fmt.Sprintf("第%d章", i),
			Content:       strings.Repeat("字", 150),
			WordCount:     150,
		})
	}

	out := Preview(chapters, 100)
	if !strings.Contains(out, "第1章: 第1章 (150字)") {
		t.Errorf("missing first chapter line in %q", out)
	}
	if !strings.Contains(out, "... 还有 2 章") {
		t.Errorf("missing overflow line in %q", out)
	}
	if strings.Contains(out, "第11章:") {
		t.Error("preview shows more than 10 chapters")
	}
	if !strings.Contains(out, strings.Repeat("字", 100)+"...") {
		t.Error("excerpt not clipped to preview length")
	}

	if got := Preview(nil, 100); got != "无章节" {
		t.Errorf("empty preview = %q", got)
	}
}
