package textutil

import (
	"reflect"
	"testing"
)

func TestSplitSentences_Basic(t *testing.T) {
	got := SplitSentences("她推开门。外面下着雨！谁在那里？")
	want := []string{"她推开门", "外面下着雨", "谁在那里"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSplitSentences_TerminatorRuns(t *testing.T) {
	got := SplitSentences("真的吗？！！\n\n当然。")
	want := []string{"真的吗", "当然"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSplitSentences_NoTerminator(t *testing.T) {
	got := SplitSentences("  一段未完的句子  ")
	want := []string{"一段未完的句子"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSplitSentences_Empty(t *testing.T) {
	if got := SplitSentences(""); len(got) != 0 {
		t.Errorf("expected no sentences, got %v", got)
	}
}

func TestExtractKeywords_FrequencyOrder(t *testing.T) {
	got := ExtractKeywords("魔法。魔法。魔法。剑士。剑士。古城。", 2)
	want := []string{"魔法", "剑士"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExtractKeywords_SkipsStopwords(t *testing.T) {
	for _, kw := range ExtractKeywords("自己。自己。自己。宝剑。", 5) {
		if kw == "自己" {
			t.Fatal("stopword leaked into keywords")
		}
	}
}

func TestExtractKeywords_TopNClamped(t *testing.T) {
	got := ExtractKeywords("宝剑。", 10)
	want := []string{"宝剑"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		text   string
		maxLen int
		suffix string
		want   string
	}{
		{"短文本", 10, "...", "短文本"},
		{"一二三四五六七八", 5, "…", "一二三四…"},
		{"一二三四五", 5, "", "一二三四五"},
		{"一二三四五六", 2, "......", "......"},
	}
	for _, tt := range tests {
		if got := TruncateRunes(tt.text, tt.maxLen, tt.suffix); got != tt.want {
			t.Errorf("TruncateRunes(%q, %d, %q) = %q, want %q",
				tt.text, tt.maxLen, tt.suffix, got, tt.want)
		}
	}
}

func TestCleanText(t *testing.T) {
	got := CleanText("  第一行  \n\n\n  第二行\t")
	want := "第一行\n\n第二行"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSimilarity(t *testing.T) {
	if got := Similarity("", "什么"); got != 0 {
		t.Errorf("empty input should score 0, got %v", got)
	}
	if got := Similarity("魔法", "魔法"); got != 1 {
		t.Errorf("identical texts should score 1, got %v", got)
	}
	// {魔,法} vs {魔,剑}: intersection 1, union 3.
	got := Similarity("魔法", "魔剑")
	if got < 0.33 || got > 0.34 {
		t.Errorf("expected ~1/3, got %v", got)
	}
}

func TestFormatWordCount(t *testing.T) {
	tests := []struct {
		count int
		want  string
	}{
		{500, "500字"},
		{999, "999字"},
		{1500, "1.5千字"},
		{19999, "20.0千字"},
		{30000, "3.0万字"},
	}
	for _, tt := range tests {
		if got := FormatWordCount(tt.count); got != tt.want {
			t.Errorf("FormatWordCount(%d) = %q, want %q", tt.count, got, tt.want)
		}
	}
}
