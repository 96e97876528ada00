package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yujiapingyu/novelgrok/internal/importer"
	"github.com/yujiapingyu/novelgrok/internal/llm"
	"github.com/yujiapingyu/novelgrok/internal/novel"
	"github.com/yujiapingyu/novelgrok/internal/textutil"
	"github.com/yujiapingyu/novelgrok/internal/workflow"
)

func init() {
	generate := &cobra.Command{
		Use:   "generate-chapter <project>",
		Short: "Generate the next chapter with AI",
		Args:  cobra.ExactArgs(1),
		Run:   runGenerateChapter,
	}
	generate.Flags().String("title", "", "Chapter title (AI picks one if empty)")
	generate.Flags().String("prompt", "", "Writing instructions for this chapter")
	generate.Flags().Int("length", 3500, "Target length in characters")
	generate.Flags().Bool("track", true, "Run character tracking after generation")
	RootCmd.AddCommand(generate)

	improve := &cobra.Command{
		Use:   "improve-chapter <project> <chapter>",
		Short: "Revise an existing chapter with AI",
		Args:  cobra.ExactArgs(2),
		Run:   runImproveChapter,
	}
	improve.Flags().String("focus", "整体改进", "Improvement focus, e.g. 增加对话")
	RootCmd.AddCommand(improve)

	summary := &cobra.Command{
		Use:   "generate-summary <project> <chapter>",
		Short: "Generate and store a chapter summary",
		Args:  cobra.ExactArgs(2),
		Run:   runGenerateSummary,
	}
	summary.Flags().Bool("ai", false, "Use the model instead of the rule-based summarizer")
	RootCmd.AddCommand(summary)

	imp := &cobra.Command{
		Use:   "import-novel <project> <file>",
		Short: "Import external novel text, splitting chapters automatically",
		Args:  cobra.ExactArgs(2),
		Run:   runImportNovel,
	}
	imp.Flags().Bool("preview", false, "Show the split result without saving")
	RootCmd.AddCommand(imp)
}

func runGenerateChapter(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	client := requireClient(cfg)
	db := openDB(cfg)
	defer db.Close()

	p := mustProject(db, args[0])
	title, _ := cmd.Flags().GetString("title")
	prompt, _ := cmd.Flags().GetString("prompt")
	length, _ := cmd.Flags().GetInt("length")
	track, _ := cmd.Flags().GetBool("track")

	asm := newAssembler(cfg)
	fmt.Printf("generating chapter %d...\n", len(p.Chapters)+1)
	ch, err := workflow.GenerateChapter(client, asm, p, title, prompt, length)
	if err != nil {
		exitErr("generate chapter", err)
	}
	fmt.Printf("第%d章《%s》（%s）\n", ch.ChapterNumber, ch.Title, textutil.FormatWordCount(ch.WordCount))

	if track {
		result, err := workflow.AutoTrack(client, p, ch)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: tracking failed: %v\n", err)
		} else {
			fmt.Printf("tracked: %d experiences, %d relationships, %d personality changes, %d aliases, %d new characters\n",
				result.Experiences, result.Relationships, result.PersonalityChanges,
				result.AliasesAdded, result.NewCharacters)
		}
	}

	saveProject(db, p)
}

func runImproveChapter(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	client := requireClient(cfg)
	db := openDB(cfg)
	defer db.Close()

	p := mustProject(db, args[0])
	ch := mustChapter(p, args[1])
	focus, _ := cmd.Flags().GetString("focus")

	asm := newAssembler(cfg)
	improved, err := llm.ImproveChapter(client, asm.BuildImprovementContext(ch, p, focus), focus)
	if err != nil {
		exitErr("improve chapter", err)
	}

	p.UpdateChapter(ch.ChapterNumber, improved)
	saveProject(db, p)
	fmt.Printf("improved 第%d章《%s》（now %s）\n",
		ch.ChapterNumber, ch.Title, textutil.FormatWordCount(ch.WordCount))
}

func runGenerateSummary(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	db := openDB(cfg)
	defer db.Close()

	p := mustProject(db, args[0])
	ch := mustChapter(p, args[1])
	useAI, _ := cmd.Flags().GetBool("ai")

	var summary string
	if useAI {
		client := requireClient(cfg)
		var err error
		summary, err = llm.SummarizeChapter(client, p.Title, ch.Title, ch.Content, 200)
		if err != nil {
			exitErr("summarize chapter", err)
		}
	} else {
		summary = newAssembler(cfg).ChapterSummary(ch, 200)
	}

	ch.Summary = summary
	saveProject(db, p)
	fmt.Println(summary)
}

func runImportNovel(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	db := openDB(cfg)
	defer db.Close()

	p := mustProject(db, args[0])

	content, err := os.ReadFile(args[1])
	if err != nil {
		exitErr("read file", err)
	}

	im := importer.New(importer.DefaultMaxFileSize)
	chapters, err := im.Import(string(content))
	if err != nil {
		exitErr("import novel", err)
	}

	previewOnly, _ := cmd.Flags().GetBool("preview")
	if previewOnly {
		fmt.Println(importer.Preview(chapters, 100))
		return
	}

	for _, imp := range chapters {
		p.AddChapter(novel.NewChapter(imp.Title, imp.Content))
	}
	saveProject(db, p)

	s := importer.Summarize(chapters)
	fmt.Printf("imported %d chapters, %s total (avg %s per chapter)\n",
		s.ChapterCount, textutil.FormatWordCount(s.TotalWords), textutil.FormatWordCount(s.AvgWords))
}

func mustChapter(p *novel.Project, numberStr string) *novel.Chapter {
	var number int
	if _, err := fmt.Sscanf(numberStr, "%d", &number); err != nil {
		exitErr("chapter", fmt.Errorf("invalid chapter number %q", numberStr))
	}
	ch := p.Chapter(number)
	if ch == nil {
		exitErr("chapter", fmt.Errorf("chapter %d not found", number))
	}
	return ch
}
