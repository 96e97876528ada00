package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/yujiapingyu/novelgrok/internal/novel"
	"github.com/yujiapingyu/novelgrok/internal/textutil"
)

func init() {
	create := &cobra.Command{
		Use:   "create-project <title>",
		Short: "Create a new novel project",
		Args:  cobra.ExactArgs(1),
		Run:   runCreateProject,
	}
	create.Flags().String("genre", "", "Genre, e.g. 都市情感")
	create.Flags().String("background", "", "World and setting background")
	create.Flags().String("outline", "", "Overall plot outline")
	create.Flags().String("style", "", "Writing style")
	create.Flags().String("audience", "", "Target audience")
	create.Flags().String("goal", "", "Story goal / intended ending state")
	RootCmd.AddCommand(create)

	list := &cobra.Command{
		Use:   "list-projects",
		Short: "List all projects",
		Args:  cobra.NoArgs,
		Run:   runListProjects,
	}
	RootCmd.AddCommand(list)

	status := &cobra.Command{
		Use:   "status <title>",
		Short: "Show project status",
		Args:  cobra.ExactArgs(1),
		Run:   runStatus,
	}
	status.Flags().Bool("context", false, "Include context token usage analysis")
	RootCmd.AddCommand(status)

	del := &cobra.Command{
		Use:   "delete-project <title>",
		Short: "Delete a project",
		Args:  cobra.ExactArgs(1),
		Run:   runDeleteProject,
	}
	RootCmd.AddCommand(del)
}

func runCreateProject(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	db := openDB(cfg)
	defer db.Close()

	title := args[0]
	if _, err := db.LoadProject(title); err == nil {
		exitErr("create project", fmt.Errorf("project %q already exists", title))
	}

	p := novel.NewProject(title)
	p.Genre, _ = cmd.Flags().GetString("genre")
	p.Background, _ = cmd.Flags().GetString("background")
	p.PlotOutline, _ = cmd.Flags().GetString("outline")
	p.WritingStyle, _ = cmd.Flags().GetString("style")
	p.TargetAudience, _ = cmd.Flags().GetString("audience")
	p.StoryGoal, _ = cmd.Flags().GetString("goal")

	saveProject(db, p)
	fmt.Printf("created project %q\n", title)
}

func runListProjects(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	db := openDB(cfg)
	defer db.Close()

	infos, err := db.ListProjects()
	if err != nil {
		exitErr("list projects", err)
	}
	if len(infos) == 0 {
		fmt.Println("no projects")
		return
	}
	for _, info := range infos {
		updated := info.UpdatedAt
		if t, err := time.Parse(time.RFC3339Nano, info.UpdatedAt); err == nil {
			updated = humanize.Time(t)
		}
		fmt.Printf("%-26s  %s  (updated %s)\n", info.Title, info.ID, updated)
	}
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	db := openDB(cfg)
	defer db.Close()

	p := mustProject(db, args[0])
	showContext, _ := cmd.Flags().GetBool("context")

	fmt.Printf("项目：%s\n", p.Title)
	if p.Genre != "" {
		fmt.Printf("类型：%s\n", p.Genre)
	}
	fmt.Printf("章节：%d\n", len(p.Chapters))
	fmt.Printf("角色：%d\n", len(p.Characters))
	fmt.Printf("总字数：%s\n", textutil.FormatWordCount(p.TotalWordCount()))
	fmt.Printf("更新于：%s\n", humanize.Time(p.UpdatedAt))

	if latest := p.LatestChapter(); latest != nil {
		fmt.Printf("最新章节：第%d章《%s》（%s）\n",
			latest.ChapterNumber, latest.Title, textutil.FormatWordCount(latest.WordCount))
	}

	if showContext {
		asm := newAssembler(cfg)
		usage := asm.AnalyzeUsage(p)
		fmt.Printf("\n上下文预算：%s tokens\n", humanize.Comma(int64(usage.MaxTokens)))
		fmt.Printf("已用：%s（%.1f%%），剩余 %s\n",
			humanize.Comma(int64(usage.TotalUsed)), usage.UsagePercent, humanize.Comma(int64(usage.Remaining)))
		fmt.Printf("  基础信息 %d | 最近章节 %d | 历史摘要 %d\n",
			usage.BaseInfo, usage.RecentContent, usage.HistorySummary)
	}
}

func runDeleteProject(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	db := openDB(cfg)
	defer db.Close()

	if err := db.DeleteProject(args[0]); err != nil {
		exitErr("delete project", err)
	}
	fmt.Printf("deleted project %q\n", args[0])
}
