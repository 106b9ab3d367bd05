package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ai-bot-analyzer/internal/aggregate"
	"ai-bot-analyzer/internal/config"
	"ai-bot-analyzer/internal/insights"
	"ai-bot-analyzer/internal/report"
)

// NewInsightsCommand creates the 'insights' subcommand for LLM-based
// qualitative analysis of an aggregate artifact
// Usage: ai-bot-analyzer insights [--file aggregate.csv] [--fresh]
func NewInsightsCommand() *cobra.Command {
	var configFile string
	var aggregateFile string
	var fresh bool
	var startDate string
	var endDate string

	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Ask an LLM for a qualitative summary of aggregated bot traffic",
		Long: `Send an aggregate CSV artifact to the configured OpenAI-compatible model
and print its qualitative analysis of the crawler traffic.

Without --file, the most recent artifact is used; with --fresh, a new
aggregation run is performed first (honoring --start-date/--end-date).

Requires llm.api_key in the config file. The model and endpoint default to
gpt-4 against the OpenAI API but any compatible endpoint can be configured.

Example:
  ai-bot-analyzer insights
  ai-bot-analyzer insights --fresh --start-date 2025-07-01`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInsightsCommand(cmd.Context(), configFile, cmd.Flags().Changed("config"),
				aggregateFile, fresh, startDate, endDate)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", config.DefaultConfigFile, configFlagUsage)
	cmd.Flags().StringVarP(&aggregateFile, "file", "f", "", "Aggregate CSV to analyze (default: most recent)")
	cmd.Flags().BoolVar(&fresh, "fresh", false, "Run a new aggregation before analyzing")
	cmd.Flags().StringVar(&startDate, "start-date", "", "Start date for --fresh aggregation (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end-date", "", "End date for --fresh aggregation (YYYY-MM-DD)")

	return cmd
}

// runInsightsCommand executes the qualitative analysis
func runInsightsCommand(ctx context.Context, configFile string, explicitConfig bool, aggregateFile string, fresh bool, startDate, endDate string) error {
	rc, err := newRunContext(configFile, explicitConfig)
	if err != nil {
		return err
	}
	defer rc.close()

	if fresh {
		start, err := parseDateFlag(startDate, "start date")
		if err != nil {
			return err
		}
		end, err := parseDateFlag(endDate, "end date")
		if err != nil {
			return err
		}

		out, _, err := aggregate.Run(rc.log, rc.classifier, aggregate.Options{
			RawDir:       rc.cfg.RawDir,
			ProcessedDir: rc.cfg.ProcessedDir,
			Start:        start,
			End:          end,
		})
		if err != nil {
			return fmt.Errorf("aggregation failed: %w", err)
		}
		if out == "" {
			return fmt.Errorf("aggregation found no bot traffic to analyze")
		}
		aggregateFile = out
	}

	if aggregateFile == "" {
		aggregateFile, err = report.LatestAggregate(rc.cfg.ProcessedDir)
		if err != nil {
			return err
		}
	}

	fmt.Printf("Qualitative analysis of file: %s\n", aggregateFile)

	summary, err := insights.Summarize(ctx, rc.cfg.LLM, aggregateFile)
	if err != nil {
		return err
	}

	fmt.Println("\n=== LLM Qualitative Insights ===")
	fmt.Println(summary)
	return nil
}
