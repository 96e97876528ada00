package llm

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name        string
		response    string
		wantTitle   string
		wantContent string
	}{
		{
			name:        "labeled title",
			response:    "标题：雨夜重逢\n\n雨一直下着。",
			wantTitle:   "雨夜重逢",
			wantContent: "雨一直下着。",
		},
		{
			name:        "markdown heading",
			response:    "# 雨夜重逢\n雨一直下着。",
			wantTitle:   "雨夜重逢",
			wantContent: "雨一直下着。",
		},
		{
			name:        "no title line",
			response:    "雨一直下着。没有人说话。",
			wantTitle:   "第7章",
			wantContent: "雨一直下着。没有人说话。",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, content := extractTitle(tt.response, 7)
			if title != tt.wantTitle {
				t.Errorf("title = %q, want %q", title, tt.wantTitle)
			}
			if content != tt.wantContent {
				t.Errorf("content = %q, want %q", content, tt.wantContent)
			}
		})
	}
}

func TestParseNumberedList(t *testing.T) {
	response := `以下是三个建议：

1. 主角发现了密室的秘密
2. 宿敌意外现身求和
- 一场风暴摧毁了补给线
• 子弹列表项
这一行没有编号，应该被忽略。
3.
`
	got := parseNumberedList(response)
	want := []string{
		"主角发现了密室的秘密",
		"宿敌意外现身求和",
		"一场风暴摧毁了补给线",
		"子弹列表项",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseNumberedList_Empty(t *testing.T) {
	if got := parseNumberedList("没有列表的回复。"); len(got) != 0 {
		t.Errorf("expected no items, got %v", got)
	}
}

func TestExtractJSONObject(t *testing.T) {
	fenced := "好的，分析结果如下：\n```json\n{\"title\": \"雨夜\", \"prompt\": \"重逢\"}\n```\n以上。"
	var idea ChapterIdea
	if err := json.Unmarshal([]byte(extractJSONObject(fenced)), &idea); err != nil {
		t.Fatalf("unmarshal extracted object: %v", err)
	}
	if idea.Title != "雨夜" || idea.Prompt != "重逢" {
		t.Errorf("idea = %+v", idea)
	}

	if got := extractJSONObject("no braces here"); got != "no braces here" {
		t.Errorf("missing braces should return input, got %q", got)
	}
}

func TestExtractJSONObject_Nested(t *testing.T) {
	response := "```json\n{\"experiences\": [{\"character\": \"林歆颜\", \"event_type\": \"growth\"}], \"relationships\": [], \"personality_changes\": []}\n```"
	var analysis ChapterAnalysis
	if err := json.Unmarshal([]byte(extractJSONObject(response)), &analysis); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(analysis.Experiences) != 1 || analysis.Experiences[0].Character != "林歆颜" {
		t.Errorf("analysis = %+v", analysis)
	}
	if analysis.Relationships == nil || analysis.PersonalityChanges == nil {
		t.Error("empty arrays should decode as non-nil slices")
	}
}

func TestExtractJSONArray(t *testing.T) {
	response := "识别结果：\n```json\n[{\"name\": \"陈默\", \"description\": \"神秘的旅人\", \"personality\": \"沉默\"}]\n```"
	var found []NewCharacter
	if err := json.Unmarshal([]byte(extractJSONArray(response)), &found); err != nil {
		t.Fatalf("unmarshal extracted array: %v", err)
	}
	if len(found) != 1 || found[0].Name != "陈默" {
		t.Errorf("found = %+v", found)
	}

	if got := extractJSONArray("nothing"); got != "nothing" {
		t.Errorf("missing brackets should return input, got %q", got)
	}
}

func TestNewClient_Disabled(t *testing.T) {
	var c *Client
	if c.Enabled() {
		t.Error("nil client reported enabled")
	}
	if got := NewClient("", "", ""); got != nil {
		t.Error("empty api key should yield a nil client")
	}
	if got := NewClient("key", "", ""); !got.Enabled() {
		t.Error("client with key should be enabled")
	}
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient("key", "", "")
	if c.Model() != DefaultModel {
		t.Errorf("model = %q, want %q", c.Model(), DefaultModel)
	}
	if c.BaseURL() != DefaultBaseURL {
		t.Errorf("base url = %q, want %q", c.BaseURL(), DefaultBaseURL)
	}

	custom := NewClient("key", "https://example.com/v1", "grok-4")
	if custom.BaseURL() != "https://example.com/v1" || custom.Model() != "grok-4" {
		t.Errorf("custom client = %q %q", custom.BaseURL(), custom.Model())
	}
}
