// Chapter generation and revision prompts.
package llm

import (
	"fmt"
	"strings"
)

// ChapterRequest carries the assembled context a new chapter is written
// from. Context blocks are prebuilt by the caller so the prompt layer
// stays independent of project internals.
type ChapterRequest struct {
	Context        string // layered writing context
	HappenedEvents string // key events so far, to avoid repetition
	CharacterState string // per-character state snapshot

	PrevChapterNumber int
	PrevChapterTitle  string
	PrevEnding        string // tail of the previous chapter

	NextChapterNumber int
	Title             string // optional; empty asks the model to pick one
	WritingPrompt     string
	TargetLength      int // target length in characters
}

// GenerateChapter asks the model for the next chapter and returns the
// title and body. When no title was requested, one is extracted from a
// leading 标题：or # line, falling back to 第N章.
func GenerateChapter(client *Client, req *ChapterRequest) (string, string, error) {
	if !client.Enabled() {
		return "", "", fmt.Errorf("LLM client not configured")
	}

	targetLength := req.TargetLength
	if targetLength <= 0 {
		targetLength = 3500
	}

	system := "你是一位富有创意的小说作家，擅长创作引人入胜、情节连贯的故事内容。"

	var b strings.Builder
	b.WriteString(req.Context)

	if req.HappenedEvents != "" {
		b.WriteString("\n\n【已发生的关键事件（不要重复）】\n")
		b.WriteString(req.HappenedEvents)
	}
	if req.CharacterState != "" {
		b.WriteString("\n\n【角色当前状态】\n")
		b.WriteString(req.CharacterState)
	}

	if req.PrevEnding != "" {
		fmt.Fprintf(&b, "\n\n【上章结尾（第%d章：%s）】\n%s", req.PrevChapterNumber, req.PrevChapterTitle, req.PrevEnding)
		b.WriteString("\n\n连贯性要求：")
		b.WriteString("\n1. 新章节必须从上述结尾的场景、时间、情绪自然延续")
		b.WriteString("\n2. 不要重复上一章已经发生的事情")
		b.WriteString("\n3. 角色的心理状态应该基于上一章结尾时的状态")
		b.WriteString("\n4. 如果上一章有悬念或伏笔，本章应该有所呼应或推进")
	}

	if req.Title != "" {
		b.WriteString("\n\n【新章节标题】\n" + req.Title)
	} else {
		b.WriteString("\n\n【任务】\n请为这个故事创作下一章，并为这章起一个合适的标题。")
	}
	if req.WritingPrompt != "" {
		b.WriteString("\n\n【写作要求】\n" + req.WritingPrompt)
	}

	fmt.Fprintf(&b, "\n\n【写作指引】\n目标字数：约%d字", targetLength)
	b.WriteString("\n情节连贯：确保与上一章自然衔接，避免突兀跳跃")
	b.WriteString("\n角色一致：严格遵循角色性格、关系、当前状态")
	b.WriteString("\n生动描写：使用细腻的描写和自然的对话")
	b.WriteString("\n节奏把控：情节要有起伏和张力，避免平铺直叙")

	b.WriteString("\n\n【重要约束】")
	b.WriteString("\n不要重复之前章节的情节内容")
	b.WriteString("\n不要突然改变角色性格或关系")
	b.WriteString("\n章节结尾必须是具体的情节或对话，不要加“且看下回分解”等总结性语句")
	b.WriteString("\n不要写“本章完”、“未完待续”等提示语")

	if req.NextChapterNumber > 1 {
		fmt.Fprintf(&b, "\n\n【情节发展要求】\n本章是第%d章，情节必须在上一章基础上有所推进，角色关系和心理状态应该有微妙的变化。", req.NextChapterNumber)
	}

	if req.Title == "" {
		b.WriteString("\n\n请按以下格式输出：\n标题：[章节标题]\n\n[正文内容]")
	} else {
		b.WriteString("\n\n请直接输出正文内容。")
	}

	// Roughly one token per character, doubled for headroom.
	maxTokens := targetLength
	if maxTokens < 2000 {
		maxTokens = 2000
	}
	if maxTokens > 100000 {
		maxTokens = 100000
	}

	responseText, err := client.Complete(system, b.String(), 0, maxTokens)
	if err != nil {
		return "", "", fmt.Errorf("generate chapter: %w", err)
	}

	title := req.Title
	content := strings.TrimSpace(responseText)
	if title == "" {
		title, content = extractTitle(content, req.NextChapterNumber)
	}
	return title, content, nil
}

// extractTitle pulls a title from a leading 标题：or # line.
func extractTitle(responseText string, chapterNumber int) (string, string) {
	lines := strings.Split(responseText, "\n")
	first := strings.TrimSpace(lines[0])
	switch {
	case strings.HasPrefix(first, "标题："):
		title := strings.TrimSpace(strings.TrimPrefix(first, "标题："))
		return title, strings.TrimSpace(strings.Join(lines[1:], "\n"))
	case strings.HasPrefix(first, "# "):
		title := strings.TrimSpace(strings.TrimPrefix(first, "# "))
		return title, strings.TrimSpace(strings.Join(lines[1:], "\n"))
	}
	return fmt.Sprintf("第%d章", chapterNumber), strings.TrimSpace(responseText)
}

// ImproveChapter rewrites a chapter against the given improvement
// context. focus defaults to 整体改进.
func ImproveChapter(client *Client, improvementContext, focus string) (string, error) {
	if !client.Enabled() {
		return "", fmt.Errorf("LLM client not configured")
	}
	if focus == "" {
		focus = "整体改进"
	}

	system := "你是一位专业的小说编辑，擅长改进和润色文学作品。"
	user := fmt.Sprintf("%s\n\n【任务】\n请改进上述章节内容，重点关注：%s\n\n直接输出改进后的完整内容。", improvementContext, focus)

	improved, err := client.Complete(system, user, 0, 20000)
	if err != nil {
		return "", fmt.Errorf("improve chapter: %w", err)
	}
	return strings.TrimSpace(improved), nil
}

// SummarizeChapter asks the model for a short chapter summary.
func SummarizeChapter(client *Client, novelTitle, chapterTitle, content string, maxLength int) (string, error) {
	if !client.Enabled() {
		return "", fmt.Errorf("LLM client not configured")
	}
	if maxLength <= 0 {
		maxLength = 200
	}

	system := "你是一位文学编辑，擅长提炼故事的核心情节。"
	user := fmt.Sprintf(`请为以下章节生成一个简洁的摘要（约%d字以内）：

小说：%s
章节：%s

内容：
%s

摘要要求：
- 概括本章的主要情节
- 提及重要的角色和事件
- 简洁明了，便于回顾

请直接输出摘要内容。`, maxLength, novelTitle, chapterTitle, content)

	summary, err := client.Complete(system, user, 0.5, 3500)
	if err != nil {
		return "", fmt.Errorf("summarize chapter: %w", err)
	}
	return strings.TrimSpace(summary), nil
}
