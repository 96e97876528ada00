package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yujiapingyu/novelgrok/internal/tracker"
	"github.com/yujiapingyu/novelgrok/internal/workflow"
)

func init() {
	analyze := &cobra.Command{
		Use:   "analyze-chapter <project> <chapter>",
		Short: "Analyze a chapter and update character tracking",
		Args:  cobra.ExactArgs(2),
		Run:   runAnalyzeChapter,
	}
	RootCmd.AddCommand(analyze)

	timeline := &cobra.Command{
		Use:   "timeline <project> <character>",
		Short: "Show a character's chronological event timeline",
		Args:  cobra.ExactArgs(2),
		Run:   runTimeline,
	}
	RootCmd.AddCommand(timeline)

	growth := &cobra.Command{
		Use:   "growth <project> <character>",
		Short: "Show a character's growth report",
		Args:  cobra.ExactArgs(2),
		Run:   runGrowth,
	}
	RootCmd.AddCommand(growth)
}

func runAnalyzeChapter(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	client := requireClient(cfg)
	db := openDB(cfg)
	defer db.Close()

	p := mustProject(db, args[0])
	ch := mustChapter(p, args[1])

	result, err := workflow.AutoTrack(client, p, ch)
	if err != nil {
		exitErr("analyze chapter", err)
	}
	saveProject(db, p)

	fmt.Printf("第%d章《%s》分析完成\n", ch.ChapterNumber, ch.Title)
	fmt.Printf("经历 %d | 关系变化 %d | 性格变化 %d | 新别名 %d | 新角色 %d\n",
		result.Experiences, result.Relationships, result.PersonalityChanges,
		result.AliasesAdded, result.NewCharacters)
}

func runTimeline(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	db := openDB(cfg)
	defer db.Close()

	p := mustProject(db, args[0])
	name := p.CanonicalName(args[1])

	events := p.Tracker.Timeline(name)
	if len(events) == 0 {
		fmt.Printf("%s 暂无记录\n", name)
		return
	}

	for _, e := range events {
		marker := ""
		switch e.Kind {
		case tracker.TimelineExperience:
			marker = "[经历]"
		case tracker.TimelineRelationship:
			marker = "[关系]"
		case tracker.TimelinePersonality:
			marker = "[性格]"
		}
		fmt.Printf("第%d章 %s %s\n", e.Chapter, marker, e.Content)
	}
}

func runGrowth(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	db := openDB(cfg)
	defer db.Close()

	p := mustProject(db, args[0])
	name := p.CanonicalName(args[1])

	report := p.Tracker.AnalyzeGrowth(name)
	fmt.Printf("【%s 成长报告】\n", name)
	fmt.Printf("总经历：%d（正面 %d，负面 %d）\n",
		report.TotalExperiences, report.PositiveEvents, report.NegativeEvents)
	if len(report.ExperienceBreakdown) > 0 {
		fmt.Println("经历类型：")
		for eventType, count := range report.ExperienceBreakdown {
			fmt.Printf("  %s: %d\n", eventType, count)
		}
	}
	fmt.Printf("性格变化：%d\n", report.PersonalityChanges)
	if report.MostChangedTrait != "" {
		fmt.Printf("变化最大的特质：%s\n", report.MostChangedTrait)
	}
}
