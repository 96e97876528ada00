package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yujiapingyu/novelgrok/internal/novel"
)

func init() {
	add := &cobra.Command{
		Use:   "add-character <project> <name>",
		Short: "Add a character to a project",
		Args:  cobra.ExactArgs(2),
		Run:   runAddCharacter,
	}
	add.Flags().String("description", "", "Appearance, identity, traits")
	add.Flags().String("personality", "", "Personality sketch")
	add.Flags().String("background", "", "Backstory")
	RootCmd.AddCommand(add)

	merge := &cobra.Command{
		Use:   "merge-characters <project> <source> <target>",
		Short: "Fold one character's tracked state into another",
		Long: "Moves every experience, relationship, and personality record from source\n" +
			"to target, rewrites references, and removes source from the roster.",
		Args: cobra.ExactArgs(3),
		Run:  runMergeCharacters,
	}
	RootCmd.AddCommand(merge)

	rename := &cobra.Command{
		Use:   "rename-character <project> <old> <new>",
		Short: "Rename a character across all tracked state",
		Args:  cobra.ExactArgs(3),
		Run:   runRenameCharacter,
	}
	RootCmd.AddCommand(rename)
}

func runAddCharacter(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	db := openDB(cfg)
	defer db.Close()

	p := mustProject(db, args[0])
	name := args[1]
	if p.Character(name) != nil {
		exitErr("add character", fmt.Errorf("character %q already exists", name))
	}

	description, _ := cmd.Flags().GetString("description")
	personality, _ := cmd.Flags().GetString("personality")
	c := novel.NewCharacterProfile(name, description, personality)
	c.Background, _ = cmd.Flags().GetString("background")
	p.AddCharacter(c)

	saveProject(db, p)
	fmt.Printf("added character %q to %q\n", name, p.Title)
}

func runMergeCharacters(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	db := openDB(cfg)
	defer db.Close()

	p := mustProject(db, args[0])
	source, target := args[1], args[2]
	if source == target {
		exitErr("merge characters", fmt.Errorf("source and target are the same"))
	}

	p.Tracker.MergeCharacters(source, target)
	p.RemoveCharacter(source)

	saveProject(db, p)
	fmt.Printf("merged %q into %q\n", source, target)
}

func runRenameCharacter(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	db := openDB(cfg)
	defer db.Close()

	p := mustProject(db, args[0])
	old, newName := args[1], args[2]
	if old == newName {
		exitErr("rename character", fmt.Errorf("old and new names are the same"))
	}

	p.Tracker.RenameCharacter(old, newName)
	if c := p.Character(old); c != nil {
		c.Name = newName
	}

	saveProject(db, p)
	fmt.Printf("renamed %q to %q\n", old, newName)
}
