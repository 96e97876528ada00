// Package cli implements the novelgrok CLI commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yujiapingyu/novelgrok/internal/assembler"
	"github.com/yujiapingyu/novelgrok/internal/config"
	"github.com/yujiapingyu/novelgrok/internal/llm"
	"github.com/yujiapingyu/novelgrok/internal/novel"
	"github.com/yujiapingyu/novelgrok/internal/persistence"
)

var dbFlag string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "novelgrok",
	Short: "AI-assisted novel writing with character state tracking",
	Long: "novelgrok manages novel projects: chapter generation via the Grok API,\n" +
		"token-budgeted context assembly, and per-character experience, relationship,\n" +
		"and personality tracking. SQLite-backed, single binary.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbFlag, "db", "d", "", "Database path (default: $NOVELGROK_DB or novelgrok.db)")
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		exitErr("load config", err)
	}
	if dbFlag != "" {
		cfg.DBPath = dbFlag
	}
	return cfg
}

func openDB(cfg *config.Config) *persistence.DB {
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		exitErr("open database", err)
	}
	return db
}

// newClient builds the API client; nil when no key is configured.
func newClient(cfg *config.Config) *llm.Client {
	return llm.NewClient(cfg.APIKey, cfg.BaseURL, cfg.Model)
}

// requireClient exits when AI features are not configured.
func requireClient(cfg *config.Config) *llm.Client {
	client := newClient(cfg)
	if !client.Enabled() {
		exitErr("llm", fmt.Errorf("XAI_API_KEY not set"))
	}
	return client
}

func newAssembler(cfg *config.Config) *assembler.Assembler {
	return assembler.New(cfg.MaxTokens)
}

func mustProject(db *persistence.DB, title string) *novel.Project {
	p, err := db.LoadProject(title)
	if err != nil {
		exitErr("load project", err)
	}
	return p
}

func saveProject(db *persistence.DB, p *novel.Project) {
	if err := db.SaveProject(p); err != nil {
		exitErr("save project", err)
	}
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
