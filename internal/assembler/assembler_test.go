package assembler

import (
	"fmt"
	"strings"
	"testing"

	"github.com/yujiapingyu/novelgrok/internal/novel"
)

func testProject(chapterCount int) *novel.Project {
	p := novel.NewProject("星海纪元")
	p.Genre = "科幻"
	p.Background = "人类已移居火星殖民地"
	p.WritingStyle = "冷峻写实"
	p.AddCharacter(novel.NewCharacterProfile("林歆颜", "殖民地工程师", "坚韧、寡言"))
	p.AddCharacter(novel.NewCharacterProfile("张远舟", "飞船领航员", ""))
	p.AddPlotPoint("殖民地供氧系统出现故障")
	for i := 1; i <= chapterCount; i++ {
		p.AddChapter(novel.NewChapter(
			fmt.Sprintf("危机第%d天", i),
			fmt.Sprintf("第%d天，林歆颜检查了管线。警报没有停。张远舟发来了坐标。夜里风暴更大了。", i),
		))
	}
	return p
}

func TestNew_DefaultBudget(t *testing.T) {
	if got := New(0).MaxTokens(); got != DefaultMaxTokens {
		t.Errorf("MaxTokens = %d, want %d", got, DefaultMaxTokens)
	}
	if got := New(5000).MaxTokens(); got != 5000 {
		t.Errorf("MaxTokens = %d, want 5000", got)
	}
}

func TestBuildWritingContext_Layers(t *testing.T) {
	p := testProject(12)
	ctx := New(DefaultMaxTokens).BuildWritingContext(p, 2, 5)

	if !strings.Contains(ctx, "【小说基本信息】") {
		t.Error("missing base info header")
	}
	if !strings.Contains(ctx, "标题：星海纪元") {
		t.Error("missing title line")
	}
	if !strings.Contains(ctx, "- 林歆颜：殖民地工程师") {
		t.Error("missing character line")
	}
	if !strings.Contains(ctx, "性格：坚韧、寡言") {
		t.Error("missing personality line")
	}
	if !strings.Contains(ctx, "【重要情节】") {
		t.Error("missing plot points header")
	}

	// recent = chapters 11-12 in full, history = summaries of 6-10.
	if !strings.Contains(ctx, "【前情提要】") {
		t.Error("missing history header")
	}
	for n := 6; n <= 10; n++ {
		if !strings.Contains(ctx, fmt.Sprintf("第%d章《危机第%d天》：", n, n)) {
			t.Errorf("history missing chapter %d summary", n)
		}
	}
	if strings.Contains(ctx, "第5章《") {
		t.Error("history includes chapter beyond summary count")
	}

	if !strings.Contains(ctx, "【最近章节】") {
		t.Error("missing recent header")
	}
	if !strings.Contains(ctx, "## 第11章：危机第11天") || !strings.Contains(ctx, "## 第12章：危机第12天") {
		t.Error("recent chapters missing")
	}
	if !strings.Contains(ctx, "第12天，林歆颜检查了管线") {
		t.Error("recent chapter content missing")
	}

	history := strings.Index(ctx, "【前情提要】")
	recent := strings.Index(ctx, "【最近章节】")
	if history > recent {
		t.Error("history must precede recent content")
	}
	if strings.Index(ctx, "第6章《") > strings.Index(ctx, "第10章《") {
		t.Error("history summaries out of chapter order")
	}
}

func TestBaseInfo_Simplified(t *testing.T) {
	p := testProject(3)
	p.AddCharacter(novel.NewCharacterProfile("陈默", "基地医生", "沉稳"))
	p.AddCharacter(novel.NewCharacterProfile("赵岚", "通讯员", ""))
	asm := New(DefaultMaxTokens)

	got := asm.BaseInfo(p, true)
	if !strings.Contains(got, "主要角色：林歆颜（殖民地工程师）、张远舟（飞船领航员）、陈默（基地医生）") {
		t.Errorf("condensed roster missing or wrong: %q", got)
	}
	if strings.Contains(got, "赵岚") {
		t.Error("condensed roster should cap at three characters")
	}
	if strings.Contains(got, "【角色设定】") || strings.Contains(got, "性格：") {
		t.Error("full roster block present in simplified mode")
	}
	if strings.Contains(got, "【重要情节】") {
		t.Error("plot points present in simplified mode")
	}
	if !strings.Contains(got, "标题：星海纪元") || !strings.Contains(got, "背景设定：人类已移居火星殖民地") {
		t.Errorf("project header missing: %q", got)
	}

	full := asm.BaseInfo(p, false)
	if !strings.Contains(full, "【角色设定】") || !strings.Contains(full, "【重要情节】") {
		t.Errorf("full mode missing roster or plot blocks: %q", full)
	}
	if !strings.Contains(full, "赵岚") {
		t.Error("full mode should list the whole roster")
	}
}

func TestBuildWritingContext_NoHistoryWhenFewChapters(t *testing.T) {
	p := testProject(2)
	ctx := New(DefaultMaxTokens).BuildWritingContext(p, 2, 5)
	if strings.Contains(ctx, "【前情提要】") {
		t.Error("history layer present with no older chapters")
	}
	if !strings.Contains(ctx, "## 第1章：") || !strings.Contains(ctx, "## 第2章：") {
		t.Error("recent chapters missing")
	}
}

func TestBuildWritingContext_TruncatesLongRecent(t *testing.T) {
	p := novel.NewProject("短篇")
	var b strings.Builder
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&b, "第%d个句子写了很多很多内容。", i)
	}
	p.AddChapter(novel.NewChapter("超长章", b.String()))

	ctx := New(200).BuildWritingContext(p, 1, 5)
	if !strings.Contains(ctx, "[内容过长，已截断]") {
		t.Fatal("expected truncation marker")
	}
	// What survives must still be a prefix of the original, cut at a
	// sentence boundary.
	start := strings.Index(ctx, "第0个句子")
	end := strings.Index(ctx, "\n[内容过长，已截断]")
	if start == -1 || end == -1 || end < start {
		t.Fatalf("cannot locate truncated body in %q", ctx)
	}
	body := ctx[start:end]
	if !strings.HasSuffix(body, "。") {
		t.Errorf("truncated body does not end at a sentence boundary: %q", body)
	}
	if !strings.HasPrefix(b.String(), strings.TrimSuffix(body, "。")) {
		t.Error("truncated body is not a prefix of the original content")
	}
}

func TestBuildImprovementContext(t *testing.T) {
	p := testProject(3)
	ch := p.Chapter(2)
	asm := New(DefaultMaxTokens)

	ctx := asm.BuildImprovementContext(ch, p, "增加对话")
	for _, want := range []string{
		"【小说信息】",
		"标题：星海纪元",
		"主要角色：林歆颜、张远舟",
		"【待改进章节】",
		"## 危机第2天",
		ch.Content,
		"【改进重点】\n增加对话",
	} {
		if !strings.Contains(ctx, want) {
			t.Errorf("improvement context missing %q", want)
		}
	}

	if strings.Contains(asm.BuildImprovementContext(ch, p, ""), "【改进重点】") {
		t.Error("focus header present without a focus area")
	}
}

func TestSimpleSummary(t *testing.T) {
	asm := New(DefaultMaxTokens)

	ch := novel.NewChapter("t", "一句。二句。三句。四句。五句。")
	if got := asm.SimpleSummary(ch, 200); got != "一句。二句。三句。五句" {
		t.Errorf("got %q", got)
	}

	short := novel.NewChapter("t", "只有一句。")
	if got := asm.SimpleSummary(short, 200); got != "只有一句" {
		t.Errorf("got %q", got)
	}

	empty := novel.NewChapter("t", "")
	if got := asm.SimpleSummary(empty, 200); got != "本章暂无内容" {
		t.Errorf("got %q", got)
	}

	long := novel.NewChapter("t", strings.Repeat("很", 300)+"。")
	got := asm.SimpleSummary(long, 50)
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis, got %q", got)
	}
	if n := len([]rune(got)); n != 53 {
		t.Errorf("capped length = %d runes, want 53", n)
	}
}

func TestChapterSummary_Keywords(t *testing.T) {
	asm := New(DefaultMaxTokens)
	ch := novel.NewChapter("t", "魔法。魔法。剑士。")
	got := asm.ChapterSummary(ch, 200)
	if got != "魔法。魔法。剑士\n关键词：魔法、剑士" {
		t.Errorf("got %q", got)
	}
}

func TestAnalyzeUsage(t *testing.T) {
	p := testProject(12)
	asm := New(DefaultMaxTokens)
	report := asm.AnalyzeUsage(p)

	if report.MaxTokens != DefaultMaxTokens {
		t.Errorf("max = %d", report.MaxTokens)
	}
	if report.BaseInfo <= 0 || report.RecentContent <= 0 || report.HistorySummary <= 0 {
		t.Errorf("layer counts should all be positive: %+v", report)
	}
	if report.TotalUsed != report.BaseInfo+report.RecentContent+report.HistorySummary {
		t.Errorf("total %d does not sum layers: %+v", report.TotalUsed, report)
	}
	if report.Remaining != report.MaxTokens-report.TotalUsed {
		t.Errorf("remaining inconsistent: %+v", report)
	}
	if report.UsagePercent <= 0 {
		t.Errorf("usage percent = %v", report.UsagePercent)
	}
}

func TestContextPreview_Clipped(t *testing.T) {
	p := testProject(12)
	asm := New(DefaultMaxTokens)

	got := asm.ContextPreview(p, 100)
	if !strings.Contains(got, "... (还有") {
		t.Fatalf("expected clip marker in %q", got)
	}
	head := got[:strings.Index(got, "\n\n... (还有")]
	if n := len([]rune(head)); n != 100 {
		t.Errorf("preview head = %d runes, want 100", n)
	}
	full := asm.BuildWritingContext(p, DefaultRecentCount, DefaultSummaryCount)
	if !strings.HasPrefix(full, head) {
		t.Error("preview is not a prefix of the full context")
	}
}
