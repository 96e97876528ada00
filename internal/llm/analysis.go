// Chapter analysis: extracts character experiences, relationship
// shifts, and personality changes from generated prose.
package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExperienceRecord is one extracted character event.
type ExperienceRecord struct {
	Character         string   `json:"character"`
	EventType         string   `json:"event_type"`
	Description       string   `json:"description"`
	Impact            string   `json:"impact"`
	RelatedCharacters []string `json:"related_characters"`
	Context           string   `json:"context"`
	EmotionalState    string   `json:"emotional_state"`
	Consequence       string   `json:"consequence"`
	Location          string   `json:"location"`
	KeyDialogue       string   `json:"key_dialogue"`
}

// RelationshipRecord is one extracted relationship shift.
type RelationshipRecord struct {
	Character      string `json:"character"`
	Target         string `json:"target"`
	Type           string `json:"type"`
	IntimacyChange int    `json:"intimacy_change"`
	Description    string `json:"description"`
	Reason         string `json:"reason"`
}

// PersonalityRecord is one extracted trait intensity shift.
type PersonalityRecord struct {
	Character       string `json:"character"`
	Trait           string `json:"trait"`
	IntensityChange int    `json:"intensity_change"`
	Reason          string `json:"reason"`
}

// ChapterAnalysis is the full extraction result for one chapter.
type ChapterAnalysis struct {
	Experiences        []ExperienceRecord   `json:"experiences"`
	Relationships      []RelationshipRecord `json:"relationships"`
	PersonalityChanges []PersonalityRecord  `json:"personality_changes"`
}

// AnalysisRequest describes the chapter under analysis plus the known
// character roster the model is allowed to attribute events to.
type AnalysisRequest struct {
	NovelTitle     string
	Genre          string
	ChapterNumber  int
	ChapterTitle   string
	WordCount      int
	Content        string
	KnownNames     []string
	CharacterLines []string // one status line per character, with aliases
}

const analysisContentLimit = 8000

// AnalyzeChapter extracts character development records from a chapter.
func AnalyzeChapter(client *Client, req *AnalysisRequest) (*ChapterAnalysis, error) {
	if !client.Enabled() {
		return nil, fmt.Errorf("LLM client not configured")
	}

	genre := req.Genre
	if genre == "" {
		genre = "未知"
	}
	content := req.Content
	truncNote := ""
	if runes := []rune(content); len(runes) > analysisContentLimit {
		content = string(runes[:analysisContentLimit])
		truncNote = "..."
	}

	system := "你是一位敏锐的文学分析师，擅长从小说章节中提取角色发展相关信息。"

	user := fmt.Sprintf(`请深度分析以下章节内容，精确提取角色发展的细节信息。

【小说】：%s（类型：%s）
【章节】：第%d章 - %s
【字数】：%d字

【已知角色及当前状态】
%s

【章节内容】
%s%s

【分析要求】
请仔细阅读章节内容，从以下维度分析每个角色：

1. 重要经历：事件类型为 achievement（成就）、conflict（冲突）、relationship（关系）、growth（成长）、trauma（创伤）之一。
   每个事件需要完整描述（背景、经过、反应、结果）、事件背景(context)、情绪状态(emotional_state)、
   事件后果(consequence)、发生场景(location)、关键对话(key_dialogue，可选)。

2. 关系变化：亲密度变化范围-20到+20（只记录明显变化）；
   关系类型为 friend/enemy/family/lover/mentor/rival/neutral；变化原因要具体。

3. 性格演变：从具体行为、对话、心理活动推断特质强度变化，范围-20到+20，说明原因。

【输出格式】
严格按照以下JSON格式输出，不要添加任何注释或说明文字：

`+"```json"+`
{
  "experiences": [
    {
      "character": "角色名（必须是已知角色之一）",
      "event_type": "achievement或conflict或relationship或growth或trauma",
      "description": "事件的完整描述",
      "impact": "positive或negative或neutral",
      "related_characters": ["相关角色1"],
      "context": "事件发生的背景",
      "emotional_state": "角色的情绪状态和变化",
      "consequence": "事件的后果和影响",
      "location": "发生地点",
      "key_dialogue": "关键对话或想法（可选）"
    }
  ],
  "relationships": [
    {
      "character": "角色A（必须是已知角色）",
      "target": "角色B（必须是已知角色）",
      "type": "friend或enemy或family或lover或mentor或rival或neutral",
      "intimacy_change": 5,
      "description": "关系的详细描述",
      "reason": "导致关系变化的具体原因"
    }
  ],
  "personality_changes": [
    {
      "character": "角色名（必须是已知角色）",
      "trait": "性格特质名称",
      "intensity_change": 5,
      "reason": "导致性格变化的详细原因"
    }
  ]
}
`+"```"+`

关键要求：
1. 只分析已知角色：%s
2. 不要遗漏任何对角色有影响的事件
3. intimacy_change和intensity_change是-20到+20之间的整数
4. 如果某类别确实无内容，返回空数组[]`,
		req.NovelTitle, genre, req.ChapterNumber, req.ChapterTitle, req.WordCount,
		strings.Join(req.CharacterLines, "\n"),
		content, truncNote,
		strings.Join(req.KnownNames, "、"))

	response, err := client.Complete(system, user, 0.3, 6000)
	if err != nil {
		return nil, fmt.Errorf("analyze chapter: %w", err)
	}

	var analysis ChapterAnalysis
	if err := json.Unmarshal([]byte(extractJSONObject(response)), &analysis); err != nil {
		return nil, fmt.Errorf("parse analysis: %w", err)
	}
	return &analysis, nil
}

const aliasContentLimit = 10000

// IdentifyAliases finds the alternate names each known character goes
// by in a chapter. Keys are canonical names; characters with no aliases
// are absent.
func IdentifyAliases(client *Client, chapterContent string, knownNames []string) (map[string][]string, error) {
	if !client.Enabled() {
		return nil, fmt.Errorf("LLM client not configured")
	}
	if len(knownNames) == 0 {
		return nil, nil
	}

	if runes := []rune(chapterContent); len(runes) > aliasContentLimit {
		chapterContent = string(runes[:aliasContentLimit])
	}

	nameList := make([]string, len(knownNames))
	for i, name := range knownNames {
		nameList[i] = "- " + name
	}

	system := "你是一位专业的文本分析专家，擅长识别小说中同一个角色的不同称呼。"

	user := fmt.Sprintf(`请分析以下小说章节，识别出每个角色在文中的所有不同称呼（别名、昵称、关系称呼等）。

【已知角色列表】：
%s

【章节内容】：
%s

【分析要求】：
1. 对于每个已知角色，找出在文中出现的所有不同称呼
2. 包括昵称、职业称呼（如“林老师”）、关系称呼（如“妻子”）、敬称（如“张哥”）
3. 只识别明确指代某个角色的称呼，不要包含模糊的代词
4. 如果某个角色在本章没有出现或只用正式名字，则不返回该角色

【输出格式】（必须是有效的JSON）：
`+"```json"+`
{
  "角色正式名字": ["别名1", "别名2"]
}
`+"```"+`

注意：
- 只返回JSON对象，不要其他内容
- 别名应该是实际在文中出现的称呼
- 不要返回正式名字本身`, strings.Join(nameList, "\n"), chapterContent)

	response, err := client.Complete(system, user, 0.2, 2000)
	if err != nil {
		return nil, fmt.Errorf("identify aliases: %w", err)
	}

	var aliases map[string][]string
	if err := json.Unmarshal([]byte(extractJSONObject(response)), &aliases); err != nil {
		return nil, fmt.Errorf("parse aliases: %w", err)
	}
	return aliases, nil
}

// NewCharacter is a character the model spotted that is not yet on the
// roster.
type NewCharacter struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Personality string `json:"personality"`
}

// DetectNewCharacters scans a chapter for named characters missing from
// the roster. Short chapters are skipped.
func DetectNewCharacters(client *Client, chapterContent string, existing []string) ([]NewCharacter, error) {
	if !client.Enabled() {
		return nil, fmt.Errorf("LLM client not configured")
	}
	if len([]rune(chapterContent)) < 200 {
		return nil, nil
	}
	if runes := []rune(chapterContent); len(runes) > 3000 {
		chapterContent = string(runes[:3000])
	}

	existingText := "无"
	if len(existing) > 0 {
		existingText = strings.Join(existing, "、")
	}

	system := "你是一位资深的小说编辑，擅长识别故事中的重要角色。"

	user := fmt.Sprintf(`请分析以下章节内容，识别是否有新的重要角色出现。

【已知角色】：%s

【章节内容】：
%s

【分析要求】：
1. 只识别有名字且重要的新角色（不要识别路人、服务员等次要角色）
2. 新角色应该有明确的名字、在情节中有重要作用、有一定的描写或对话
3. 对于每个新角色，提取 name、description（外貌、身份、特点）、personality（性格特点）
4. 如果没有发现重要的新角色，返回空数组

【输出格式】（必须是有效的JSON数组）：
`+"```json"+`
[
  {
    "name": "角色名字",
    "description": "角色描述",
    "personality": "性格特点"
  }
]
`+"```"+`

只返回JSON数组，不要其他内容；不要识别已知角色。`, existingText, chapterContent)

	response, err := client.Complete(system, user, 0.3, 1000)
	if err != nil {
		return nil, fmt.Errorf("detect characters: %w", err)
	}

	var found []NewCharacter
	if err := json.Unmarshal([]byte(extractJSONArray(response)), &found); err != nil {
		return nil, fmt.Errorf("parse characters: %w", err)
	}

	known := make(map[string]bool, len(existing))
	for _, name := range existing {
		known[name] = true
	}
	result := found[:0]
	for _, c := range found {
		if c.Name != "" && !known[c.Name] {
			result = append(result, c)
		}
	}
	return result, nil
}

// extractJSONObject finds the outermost {...} in a response that may be
// wrapped in prose or a markdown fence.
func extractJSONObject(response string) string {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end <= start {
		return response
	}
	return response[start : end+1]
}

// extractJSONArray finds the outermost [...] in a response.
func extractJSONArray(response string) string {
	start := strings.Index(response, "[")
	end := strings.LastIndex(response, "]")
	if start == -1 || end == -1 || end <= start {
		return response
	}
	return response[start : end+1]
}
