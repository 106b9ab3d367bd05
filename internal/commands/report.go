package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ai-bot-analyzer/internal/config"
	"ai-bot-analyzer/internal/report"
)

// NewReportCommand creates the 'report' subcommand for hit-count analysis
// Usage: ai-bot-analyzer report [--file data/processed/ai_bot_traffic_20250707_000340.csv]
func NewReportCommand() *cobra.Command {
	var configFile string
	var aggregateFile string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Tally resource hit counts from an aggregate CSV artifact",
		Long: `Count how often each resource was requested, overall and broken down by
bot identity. Without --file, the most recent aggregate artifact in the
processed directory is analyzed.

Resources are normalized by trimming surrounding slashes; bot traffic whose
user agent matches no configured keyword is bucketed under "other".

Example:
  ai-bot-analyzer report
  ai-bot-analyzer report --file data/processed/ai_bot_traffic_20250707_000340.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReportCommand(configFile, cmd.Flags().Changed("config"), aggregateFile)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", config.DefaultConfigFile, configFlagUsage)
	cmd.Flags().StringVarP(&aggregateFile, "file", "f", "", "Aggregate CSV to analyze (default: most recent)")

	return cmd
}

// runReportCommand executes the hit-count analysis
func runReportCommand(configFile string, explicitConfig bool, aggregateFile string) error {
	rc, err := newRunContext(configFile, explicitConfig)
	if err != nil {
		return err
	}
	defer rc.close()

	if aggregateFile == "" {
		aggregateFile, err = report.LatestAggregate(rc.cfg.ProcessedDir)
		if err != nil {
			return err
		}
	}

	fmt.Printf("Analyzing file: %s\n\n", aggregateFile)

	hits, err := report.Analyze(aggregateFile, rc.classifier)
	if err != nil {
		return fmt.Errorf("hit count analysis failed: %w", err)
	}

	report.Render(os.Stdout, hits)
	return nil
}
