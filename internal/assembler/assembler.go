// Package assembler builds token-budgeted prompt context from a novel
// project. Context is layered: base info about the novel, summaries of
// older chapters, and the full text of the most recent chapters. Layers
// degrade independently when the budget runs out.
package assembler

import (
	"fmt"
	"strings"

	"github.com/yujiapingyu/novelgrok/internal/novel"
	"github.com/yujiapingyu/novelgrok/internal/textutil"
)

// Target share of the token budget per layer. Base info is never
// truncated; the ratios steer the history and recent layers.
const (
	baseInfoRatio       = 0.3
	recentContentRatio  = 0.5
	historySummaryRatio = 0.2
)

const (
	// DefaultMaxTokens is the overall context budget.
	DefaultMaxTokens = 20000
	// DefaultRecentCount is how many trailing chapters get full text.
	DefaultRecentCount = 2
	// DefaultSummaryCount is how many older chapters get summarized.
	DefaultSummaryCount = 5
)

// Assembler builds layered context strings within a token budget.
type Assembler struct {
	maxTokens int
	estimator textutil.TokenEstimator
}

// New creates an assembler with the given budget. A maxTokens of zero
// or less falls back to DefaultMaxTokens.
func New(maxTokens int) *Assembler {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Assembler{
		maxTokens: maxTokens,
		estimator: textutil.HeuristicEstimator{},
	}
}

// MaxTokens returns the configured budget.
func (a *Assembler) MaxTokens() int { return a.maxTokens }

func (a *Assembler) countTokens(text string) int {
	return a.estimator.Estimate(text)
}

// BuildWritingContext assembles the prompt context for generating the
// next chapter: base info first, then older-chapter summaries, then the
// most recent chapters in full.
func (a *Assembler) BuildWritingContext(p *novel.Project, recentCount, summaryCount int) string {
	if recentCount <= 0 {
		recentCount = DefaultRecentCount
	}
	if summaryCount <= 0 {
		summaryCount = DefaultSummaryCount
	}

	var parts []string
	budget := a.maxTokens

	baseInfo := a.BaseInfo(p, false)
	parts = append(parts, baseInfo)
	budget -= a.countTokens(baseInfo)

	if len(p.Chapters) > recentCount {
		historyBudget := int(float64(a.maxTokens) * historySummaryRatio)
		historySummary := a.buildHistorySummary(p, recentCount, summaryCount, historyBudget)
		if historySummary != "" {
			parts = append(parts, "\n【前情提要】\n"+historySummary)
			budget -= a.countTokens(historySummary)
		}
	}

	recentContent := a.buildRecentContent(p, recentCount, budget)
	if recentContent != "" {
		parts = append(parts, "\n【最近章节】\n"+recentContent)
	}

	return strings.Join(parts, "\n")
}

// BuildImprovementContext assembles the prompt context for revising an
// existing chapter. focusArea is an optional instruction like 增加对话.
func (a *Assembler) BuildImprovementContext(ch *novel.Chapter, p *novel.Project, focusArea string) string {
	var parts []string

	parts = append(parts, "【小说信息】")
	parts = append(parts, "标题："+p.Title)
	if p.Genre != "" {
		parts = append(parts, "类型："+p.Genre)
	}
	if p.WritingStyle != "" {
		parts = append(parts, "写作风格："+p.WritingStyle)
	}

	if len(p.Characters) > 0 {
		parts = append(parts, "主要角色："+strings.Join(p.CharacterNames(), "、"))
	}

	parts = append(parts, "\n【待改进章节】")
	parts = append(parts, "## "+ch.Title)
	parts = append(parts, ch.Content)

	if focusArea != "" {
		parts = append(parts, "\n【改进重点】\n"+focusArea)
	}

	return strings.Join(parts, "\n")
}

// BaseInfo renders the project header block. Simplified mode condenses
// the roster to the first three characters inline and drops the plot
// points, for callers that want a lighter header.
func (a *Assembler) BaseInfo(p *novel.Project, simplified bool) string {
	parts := []string{"【小说基本信息】"}
	parts = append(parts, "标题："+p.Title)

	if p.Genre != "" {
		parts = append(parts, "类型："+p.Genre)
	}
	if p.Background != "" {
		parts = append(parts, "背景设定："+p.Background)
	}
	if p.PlotOutline != "" {
		parts = append(parts, "故事大纲："+p.PlotOutline)
	}
	if p.WritingStyle != "" {
		parts = append(parts, "写作风格："+p.WritingStyle)
	}

	if simplified && len(p.Characters) > 0 {
		roster := p.Characters
		if len(roster) > 3 {
			roster = roster[:3]
		}
		var entries []string
		for _, c := range roster {
			entries = append(entries, fmt.Sprintf("%s（%s）", c.Name, c.Description))
		}
		parts = append(parts, "主要角色："+strings.Join(entries, "、"))
		return strings.Join(parts, "\n")
	}

	if len(p.Characters) > 0 {
		parts = append(parts, "\n【角色设定】")
		for _, c := range p.Characters {
			parts = append(parts, fmt.Sprintf("- %s：%s", c.Name, c.Description))
			if c.Personality != "" {
				parts = append(parts, "  性格："+c.Personality)
			}
		}
	}

	if len(p.PlotPoints) > 0 {
		parts = append(parts, "\n【重要情节】")
		points := p.PlotPoints
		if len(points) > 5 {
			points = points[len(points)-5:]
		}
		for i, point := range points {
			parts = append(parts, fmt.Sprintf("%d. %s", i+1, point))
		}
	}

	return strings.Join(parts, "\n")
}

// buildHistorySummary packs summary lines newest-first until the budget
// is hit, then emits them in chapter order.
func (a *Assembler) buildHistorySummary(p *novel.Project, excludeRecent, maxCount, tokenBudget int) string {
	if len(p.Chapters) <= excludeRecent {
		return ""
	}

	history := p.Chapters
	if excludeRecent > 0 {
		history = history[:len(history)-excludeRecent]
	}
	if len(history) > maxCount {
		history = history[len(history)-maxCount:]
	}

	var lines []string
	currentTokens := 0
	for i := len(history) - 1; i >= 0; i-- {
		ch := history[i]
		summary := ch.Summary
		if summary == "" {
			summary = a.SimpleSummary(ch, 200)
		}
		line := fmt.Sprintf("第%d章《%s》：%s", ch.ChapterNumber, ch.Title, summary)

		lineTokens := a.countTokens(line)
		if currentTokens+lineTokens > tokenBudget {
			break
		}
		lines = append([]string{line}, lines...)
		currentTokens += lineTokens
	}

	return strings.Join(lines, "\n")
}

// buildRecentContent includes trailing chapters verbatim, truncating at
// sentence boundaries when one chapter alone would blow the budget.
func (a *Assembler) buildRecentContent(p *novel.Project, count, tokenBudget int) string {
	recent := p.RecentChapters(count)
	if len(recent) == 0 {
		return ""
	}

	var parts []string
	currentTokens := 0
	for _, ch := range recent {
		chapterText := fmt.Sprintf("## 第%d章：%s\n%s", ch.ChapterNumber, ch.Title, ch.Content)
		chapterTokens := a.countTokens(chapterText)

		if chapterTokens > tokenBudget-currentTokens {
			available := tokenBudget - currentTokens
			truncated := a.truncateToTokenLimit(ch.Content, available)
			chapterText = fmt.Sprintf("## 第%d章：%s\n%s\n[内容过长，已截断]", ch.ChapterNumber, ch.Title, truncated)
		}

		parts = append(parts, chapterText)
		currentTokens += a.countTokens(chapterText)

		if currentTokens >= tokenBudget {
			break
		}
	}

	return strings.Join(parts, "\n\n")
}

func (a *Assembler) truncateToTokenLimit(text string, tokenLimit int) string {
	sentences := textutil.SplitSentences(text)

	var kept []string
	currentTokens := 0
	for _, sentence := range sentences {
		sentenceTokens := a.countTokens(sentence)
		if currentTokens+sentenceTokens > tokenLimit {
			break
		}
		kept = append(kept, sentence)
		currentTokens += sentenceTokens
	}

	return strings.Join(kept, "。") + "。"
}

// SimpleSummary produces a rule-based chapter summary without calling
// the model: first three sentences plus the last, capped at maxLength
// runes.
func (a *Assembler) SimpleSummary(ch *novel.Chapter, maxLength int) string {
	if maxLength <= 0 {
		maxLength = 200
	}
	sentences := textutil.SplitSentences(ch.Content)
	if len(sentences) == 0 {
		return "本章暂无内容"
	}

	picked := sentences
	if len(sentences) >= 4 {
		picked = append(append([]string{}, sentences[:3]...), sentences[len(sentences)-1])
	}

	summary := strings.Join(picked, "。")
	if runes := []rune(summary); len(runes) > maxLength {
		summary = string(runes[:maxLength]) + "..."
	}
	return summary
}

// ChapterSummary is SimpleSummary plus a trailing keyword line.
func (a *Assembler) ChapterSummary(ch *novel.Chapter, maxLength int) string {
	keywords := textutil.ExtractKeywords(ch.Content, 5)
	summary := a.SimpleSummary(ch, maxLength)
	if len(keywords) > 0 {
		return summary + "\n关键词：" + strings.Join(keywords, "、")
	}
	return summary
}

// UsageReport breaks down how a project's context spends the budget.
type UsageReport struct {
	MaxTokens      int     `json:"max_tokens"`
	TotalUsed      int     `json:"total_used"`
	Remaining      int     `json:"remaining"`
	UsagePercent   float64 `json:"usage_percent"`
	BaseInfo       int     `json:"base_info"`
	RecentContent  int     `json:"recent_content"`
	HistorySummary int     `json:"history_summary"`
}

// AnalyzeUsage measures each layer at its default settings.
func (a *Assembler) AnalyzeUsage(p *novel.Project) UsageReport {
	baseTokens := a.countTokens(a.BaseInfo(p, false))

	recentBudget := int(float64(a.maxTokens) * recentContentRatio)
	recentTokens := a.countTokens(a.buildRecentContent(p, DefaultRecentCount, recentBudget))

	historyBudget := int(float64(a.maxTokens) * historySummaryRatio)
	historyTokens := a.countTokens(a.buildHistorySummary(p, DefaultRecentCount, DefaultSummaryCount, historyBudget))

	total := baseTokens + recentTokens + historyTokens
	return UsageReport{
		MaxTokens:      a.maxTokens,
		TotalUsed:      total,
		Remaining:      a.maxTokens - total,
		UsagePercent:   float64(int(float64(total)/float64(a.maxTokens)*100*100+0.5)) / 100,
		BaseInfo:       baseTokens,
		RecentContent:  recentTokens,
		HistorySummary: historyTokens,
	}
}

// ContextPreview returns the writing context clipped for display.
func (a *Assembler) ContextPreview(p *novel.Project, maxDisplay int) string {
	if maxDisplay <= 0 {
		maxDisplay = 500
	}
	full := a.BuildWritingContext(p, DefaultRecentCount, DefaultSummaryCount)
	runes := []rune(full)
	if len(runes) <= maxDisplay {
		return full
	}
	return string(runes[:maxDisplay]) + fmt.Sprintf("\n\n... (还有%d个字符) ...", len(runes)-maxDisplay)
}
