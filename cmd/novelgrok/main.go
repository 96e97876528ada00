// Command novelgrok is the CLI for AI-assisted novel writing.
package main

import (
	"log/slog"
	"os"

	"github.com/yujiapingyu/novelgrok/internal/cli"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
