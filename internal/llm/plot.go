// Plot suggestion and chapter idea prompts.
package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// SuggestPlot asks the model for count plot development directions
// based on the current writing context.
func SuggestPlot(client *Client, writingContext string, count int) ([]string, error) {
	if !client.Enabled() {
		return nil, fmt.Errorf("LLM client not configured")
	}
	if count <= 0 {
		count = 3
	}

	system := "你是一位经验丰富的小说策划，擅长构思引人入胜的情节发展。"
	user := fmt.Sprintf(`%s

【任务】
基于目前的故事发展，请提供%d个可能的情节发展方向。每个建议应该：
- 符合现有的角色设定和世界观
- 有一定的戏剧性和吸引力
- 能推动故事向前发展

请按以下格式输出：
1. [建议1]
2. [建议2]
3. [建议3]`, writingContext, count)

	response, err := client.Complete(system, user, 0.9, 0)
	if err != nil {
		return nil, fmt.Errorf("suggest plot: %w", err)
	}

	suggestions := parseNumberedList(response)
	if len(suggestions) > count {
		suggestions = suggestions[:count]
	}
	return suggestions, nil
}

// parseNumberedList pulls entries from numbered or bulleted lines.
func parseNumberedList(response string) []string {
	var items []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		first := []rune(line)[0]
		if (first < '0' || first > '9') && first != '-' && first != '•' {
			continue
		}
		item := strings.TrimSpace(strings.TrimLeft(line, "0123456789.-•) "))
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// ChapterIdea is a generated title plus writing prompt for the next
// chapter.
type ChapterIdea struct {
	Title  string `json:"title"`
	Prompt string `json:"prompt"`
}

// GenerateChapterIdea asks the model for a next-chapter concept. On a
// malformed response it falls back to a generic idea rather than
// failing the caller.
func GenerateChapterIdea(client *Client, writingContext string, nextChapterNumber int, genre string) (ChapterIdea, error) {
	fallback := ChapterIdea{
		Title:  fmt.Sprintf("第%d章", nextChapterNumber),
		Prompt: "继续推进故事发展，展现角色成长和关系变化。",
	}
	if !client.Enabled() {
		return fallback, fmt.Errorf("LLM client not configured")
	}
	if genre == "" {
		genre = "小说"
	}

	system := "你是一位经验丰富的小说策划，擅长构思引人入胜的章节创意。"
	user := fmt.Sprintf(`%s

【任务】
基于当前故事进展，为第%d章生成一个引人入胜的创意。

请按以下JSON格式输出（不要添加任何额外说明）：
`+"```json"+`
{
  "title": "章节标题（简短有力，3-8个字）",
  "prompt": "写作提示（50-150字，包含：情节要点、场景设置、情感基调、角色互动等关键要素）"
}
`+"```"+`

要求：
1. 标题要吸引人，体现章节核心冲突或转折
2. 写作提示要具体明确，便于创作时把握方向
3. 确保与之前章节连贯，推动故事发展
4. 符合%s类型的特点`, writingContext, nextChapterNumber, genre)

	response, err := client.Complete(system, user, 0.8, 0)
	if err != nil {
		return fallback, fmt.Errorf("chapter idea: %w", err)
	}

	var idea ChapterIdea
	if err := json.Unmarshal([]byte(extractJSONObject(response)), &idea); err != nil {
		slog.Warn("chapter idea parse failed, using fallback", "error", err)
		return fallback, nil
	}
	idea.Title = strings.TrimSpace(idea.Title)
	idea.Prompt = strings.TrimSpace(idea.Prompt)
	if idea.Title == "" {
		idea.Title = fallback.Title
	}
	if idea.Prompt == "" {
		idea.Prompt = fallback.Prompt
	}
	return idea, nil
}
