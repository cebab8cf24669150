package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/johnquangdev/handoff-assistant/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "handoffctl",
		Short: "handoffctl - operator tooling for the handoff assistant",
		Long: `handoffctl replays handoff analyses offline, validates rule tables, manages database migrations
and browses the transcript archive.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cli.AnalyzeCmd())
	rootCmd.AddCommand(cli.RulesCmd())
	rootCmd.AddCommand(cli.MigrateCmd())
	rootCmd.AddCommand(cli.SignCmd())
	rootCmd.AddCommand(cli.ArchiveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
