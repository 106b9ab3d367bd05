// Package main provides the CLI entry point for the AI bot traffic analyzer.
// The pipeline runs in stages, each with its own command:
// 1. fetch     - download rotated access logs from the hosting provider via SFTP
// 2. aggregate - parse the logs and extract GET requests made by known AI crawlers
// 3. report    - tally hit counts per resource and per bot identity
// 4. load      - import an aggregate CSV into SQLite
// 5. query     - execute read-only SQL against the stored bot traffic
// 6. insights  - ask an LLM for a qualitative summary of the traffic
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ai-bot-analyzer/internal/commands"
)

func main() {
	// Root command defines the base command when called without any subcommands
	var rootCmd = &cobra.Command{
		Use:   "ai-bot-analyzer",
		Short: "A CLI tool for analyzing AI crawler traffic in web-server access logs",
		Long: `AI Bot Analyzer identifies requests made by AI crawlers (GPTBot, ClaudeBot,
PerplexityBot, Google-Extended, Googlebot) in raw access logs and aggregates
them into CSV artifacts for counting and reporting.

A typical run fetches the latest rotated logs, aggregates the bot traffic
and reports hit counts:

  ai-bot-analyzer fetch
  ai-bot-analyzer aggregate --start-date 2025-07-01
  ai-bot-analyzer report

Aggregates can also be loaded into SQLite for ad-hoc SQL analysis.`,
	}

	// Add subcommands
	rootCmd.AddCommand(commands.NewFetchCommand())
	rootCmd.AddCommand(commands.NewAggregateCommand())
	rootCmd.AddCommand(commands.NewReportCommand())
	rootCmd.AddCommand(commands.NewLoadCommand())
	rootCmd.AddCommand(commands.NewQueryCommand())
	rootCmd.AddCommand(commands.NewInsightsCommand())

	// Execute the root command
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}
