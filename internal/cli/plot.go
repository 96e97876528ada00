package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yujiapingyu/novelgrok/internal/assembler"
	"github.com/yujiapingyu/novelgrok/internal/llm"
)

func init() {
	suggest := &cobra.Command{
		Use:   "suggest-plot <project>",
		Short: "Suggest plot development directions",
		Args:  cobra.ExactArgs(1),
		Run:   runSuggestPlot,
	}
	suggest.Flags().Int("count", 3, "Number of suggestions")
	RootCmd.AddCommand(suggest)

	idea := &cobra.Command{
		Use:   "chapter-idea <project>",
		Short: "Generate a title and writing prompt for the next chapter",
		Args:  cobra.ExactArgs(1),
		Run:   runChapterIdea,
	}
	RootCmd.AddCommand(idea)
}

func runSuggestPlot(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	client := requireClient(cfg)
	db := openDB(cfg)
	defer db.Close()

	p := mustProject(db, args[0])
	count, _ := cmd.Flags().GetInt("count")

	asm := newAssembler(cfg)
	ctx := asm.BuildWritingContext(p, assembler.DefaultRecentCount, assembler.DefaultSummaryCount)
	suggestions, err := llm.SuggestPlot(client, ctx, count)
	if err != nil {
		exitErr("suggest plot", err)
	}

	for i, s := range suggestions {
		fmt.Printf("%d. %s\n", i+1, s)
	}
}

func runChapterIdea(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	client := requireClient(cfg)
	db := openDB(cfg)
	defer db.Close()

	p := mustProject(db, args[0])

	asm := newAssembler(cfg)
	ctx := asm.BuildWritingContext(p, assembler.DefaultRecentCount, assembler.DefaultSummaryCount)
	idea, err := llm.GenerateChapterIdea(client, ctx, len(p.Chapters)+1, p.Genre)
	if err != nil {
		exitErr("chapter idea", err)
	}

	fmt.Printf("标题：%s\n", idea.Title)
	fmt.Printf("写作提示：%s\n", idea.Prompt)
}
