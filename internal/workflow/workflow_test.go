package workflow

import (
	"strings"
	"testing"

	"github.com/yujiapingyu/novelgrok/internal/llm"
	"github.com/yujiapingyu/novelgrok/internal/novel"
	"github.com/yujiapingyu/novelgrok/internal/tracker"
)

func trackedProject() *novel.Project {
	p := novel.NewProject("测试小说")
	lin := novel.NewCharacterProfile("林歆颜", "工程师", "坚韧")
	lin.AddAlias("小颜")
	p.AddCharacter(lin)
	p.AddCharacter(novel.NewCharacterProfile("张远舟", "领航员", ""))
	return p
}

func TestApplyAnalysis_Experiences(t *testing.T) {
	p := trackedProject()
	result := &TrackResult{}
	analysis := &llm.ChapterAnalysis{
		Experiences: []llm.ExperienceRecord{
			{
				Character:         "林歆颜",
				EventType:         "growth",
				Description:       "独自修复了反应堆",
				Impact:            "positive",
				RelatedCharacters: []string{"张远舟"},
				Location:          "机舱",
			},
		},
	}

	ApplyAnalysis(p.Tracker, analysis, 3, result)

	if result.Experiences != 1 {
		t.Errorf("experience count = %d", result.Experiences)
	}
	exps := p.Tracker.Experiences("林歆颜", tracker.ExperienceFilter{})
	if len(exps) != 1 {
		t.Fatalf("expected 1 experience, got %d", len(exps))
	}
	exp := exps[0]
	if exp.ChapterNumber != 3 {
		t.Errorf("chapter = %d, want 3", exp.ChapterNumber)
	}
	if exp.EventType != tracker.EventGrowth || exp.Impact != tracker.ImpactPositive {
		t.Errorf("event = %q/%q", exp.EventType, exp.Impact)
	}
	if exp.Location != "机舱" {
		t.Errorf("location = %q", exp.Location)
	}
}

func TestApplyAnalysis_RelationshipSeededAtBaseline(t *testing.T) {
	p := trackedProject()
	analysis := &llm.ChapterAnalysis{
		Relationships: []llm.RelationshipRecord{
			{
				Character:      "林歆颜",
				Target:         "张远舟",
				Type:           "friend",
				IntimacyChange: 10,
				Reason:         "共同排险",
			},
		},
	}

	ApplyAnalysis(p.Tracker, analysis, 2, nil)

	rel, ok := p.Tracker.Relationship("林歆颜", "张远舟")
	if !ok {
		t.Fatal("relationship not created")
	}
	// First sighting: created at 50, then the +10 applied on top.
	if rel.IntimacyLevel != 60 {
		t.Errorf("intimacy = %d, want 60", rel.IntimacyLevel)
	}
	if rel.FirstMetChapter != 2 {
		t.Errorf("first met = %d, want 2", rel.FirstMetChapter)
	}
	if len(rel.EvolutionHistory) != 1 {
		t.Errorf("expected 1 evolution entry, got %d", len(rel.EvolutionHistory))
	}
}

func TestApplyAnalysis_RelationshipExistingAdjusted(t *testing.T) {
	p := trackedProject()
	p.Tracker.AddRelationship("林歆颜", "张远舟", tracker.RelationFriend, 70, "", 1)

	ApplyAnalysis(p.Tracker, &llm.ChapterAnalysis{
		Relationships: []llm.RelationshipRecord{
			{Character: "林歆颜", Target: "张远舟", Type: "lover", IntimacyChange: 15},
		},
	}, 4, nil)

	rel, _ := p.Tracker.Relationship("林歆颜", "张远舟")
	if rel.IntimacyLevel != 85 {
		t.Errorf("intimacy = %d, want 85", rel.IntimacyLevel)
	}
	if rel.RelationshipType != tracker.RelationLover {
		t.Errorf("type = %q", rel.RelationshipType)
	}
}

func TestApplyAnalysis_TraitSeededAtBaseline(t *testing.T) {
	p := trackedProject()
	result := &TrackResult{}

	ApplyAnalysis(p.Tracker, &llm.ChapterAnalysis{
		PersonalityChanges: []llm.PersonalityRecord{
			{Character: "林歆颜", Trait: "果断", IntensityChange: 15, Reason: "危机抉择"},
		},
	}, 5, result)

	traits := p.Tracker.PersonalityTraits("林歆颜")
	if len(traits) != 1 || traits[0].Intensity != 65 {
		t.Errorf("traits = %v, want 果断 at 65", traits)
	}
	log := p.Tracker.PersonalityEvolutionLog("林歆颜")
	if len(log) != 1 || log[0].OldIntensity != 50 || log[0].NewIntensity != 65 {
		t.Errorf("evolution log = %v", log)
	}
	if result.PersonalityChanges != 1 {
		t.Errorf("counter = %d", result.PersonalityChanges)
	}
}

func TestApplyAnalysis_TraitExistingAdjusted(t *testing.T) {
	p := trackedProject()
	p.Tracker.SetPersonalityTraits("林歆颜", []tracker.PersonalityTrait{
		{TraitName: "果断", Intensity: 80},
	})

	ApplyAnalysis(p.Tracker, &llm.ChapterAnalysis{
		PersonalityChanges: []llm.PersonalityRecord{
			{Character: "林歆颜", Trait: "果断", IntensityChange: -20},
		},
	}, 6, nil)

	traits := p.Tracker.PersonalityTraits("林歆颜")
	if traits[0].Intensity != 60 {
		t.Errorf("intensity = %d, want 60", traits[0].Intensity)
	}
}

func TestNormalizeNames(t *testing.T) {
	p := trackedProject()
	analysis := &llm.ChapterAnalysis{
		Experiences: []llm.ExperienceRecord{
			{Character: "小颜", RelatedCharacters: []string{"张远舟", "陌生人"}},
		},
		Relationships: []llm.RelationshipRecord{
			{Character: "小颜", Target: "张远舟"},
		},
		PersonalityChanges: []llm.PersonalityRecord{
			{Character: "小颜", Trait: "果断"},
		},
	}

	normalizeNames(p, analysis)

	if got := analysis.Experiences[0].Character; got != "林歆颜" {
		t.Errorf("experience character = %q", got)
	}
	if got := analysis.Experiences[0].RelatedCharacters[1]; got != "陌生人" {
		t.Errorf("unknown name should pass through, got %q", got)
	}
	if got := analysis.Relationships[0].Character; got != "林歆颜" {
		t.Errorf("relationship character = %q", got)
	}
	if got := analysis.PersonalityChanges[0].Character; got != "林歆颜" {
		t.Errorf("personality character = %q", got)
	}
}

func TestCharacterState(t *testing.T) {
	p := trackedProject()
	p.Tracker.AddExperience("林歆颜", tracker.Experience{ChapterNumber: 1, Description: "修复了管线"})
	p.Tracker.AddRelationship("林歆颜", "张远舟", tracker.RelationFriend, 60, "", 1)
	p.Tracker.SetPersonalityTraits("林歆颜", []tracker.PersonalityTrait{
		{TraitName: "果断", Intensity: 70},
	})

	state := CharacterState(p)
	for _, want := range []string{
		"【林歆颜】",
		"性格：坚韧",
		"最近经历：修复了管线",
		"关系：张远舟(friend,亲密度60)",
		"特质：果断(70)",
		"【张远舟】",
	} {
		if !strings.Contains(state, want) {
			t.Errorf("state missing %q:\n%s", want, state)
		}
	}
}

func TestCharacterState_EmptyRoster(t *testing.T) {
	if got := CharacterState(novel.NewProject("空")); got != "" {
		t.Errorf("expected empty state, got %q", got)
	}
}

func TestHappenedEvents(t *testing.T) {
	p := trackedProject()
	p.AddChapter(novel.NewChapter("第一章", "内容"))
	p.Tracker.AddExperience("林歆颜", tracker.Experience{ChapterNumber: 1, Description: "第一件事"})
	p.Tracker.AddExperience("林歆颜", tracker.Experience{ChapterNumber: 1, Description: "同章第二件事"})
	p.Tracker.AddExperience("林歆颜", tracker.Experience{ChapterNumber: 2, Description: "第二件事"})

	got := HappenedEvents(p)
	if !strings.Contains(got, "第1章：第一件事") {
		t.Errorf("missing first event: %q", got)
	}
	if strings.Contains(got, "同章第二件事") {
		t.Error("only the first event per chapter should be listed")
	}
	if !strings.Contains(got, "第2章：第二件事") {
		t.Errorf("missing second chapter event: %q", got)
	}
}

func TestHappenedEvents_Empty(t *testing.T) {
	p := trackedProject()
	if got := HappenedEvents(p); got != "" {
		t.Errorf("no chapters should yield empty, got %q", got)
	}
}

func TestCharacterStatusLines(t *testing.T) {
	p := trackedProject()
	p.Tracker.SetPersonalityTraits("林歆颜", []tracker.PersonalityTrait{
		{TraitName: "果断", Intensity: 70},
	})
	p.Tracker.AddRelationship("林歆颜", "张远舟", tracker.RelationFriend, 60, "", 1)

	lines := characterStatusLines(p)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	first := lines[0]
	for _, want := range []string{"林歆颜", "（别名：小颜）", "特质:果断(70)", "关系:张远舟(60)"} {
		if !strings.Contains(first, want) {
			t.Errorf("status line missing %q: %q", want, first)
		}
	}
}

func TestPrevEnding(t *testing.T) {
	if got := PrevEnding(nil); got != "" {
		t.Errorf("nil chapter = %q", got)
	}

	short := novel.NewChapter("t", "只有一段。")
	if got := PrevEnding(short); got != "只有一段。" {
		t.Errorf("short chapter = %q", got)
	}

	manyShort := novel.NewChapter("t", "一\n二\n三\n四\n五\n六\n七")
	if got := PrevEnding(manyShort); got != "三\n四\n五\n六\n七" {
		t.Errorf("expected last five paragraphs, got %q", got)
	}

	long := novel.NewChapter("t", strings.Repeat("段落内容很长。\n", 200))
	ending := PrevEnding(long)
	if n := len([]rune(ending)); n != 500 {
		t.Errorf("long ending = %d runes, want 500", n)
	}
	if !strings.HasSuffix(long.Content, ending) {
		t.Error("ending is not a suffix of the content")
	}
}
