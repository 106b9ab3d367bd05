package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"ai-bot-analyzer/internal/aggregate"
	"ai-bot-analyzer/internal/config"
)

// NewAggregateCommand creates the 'aggregate' subcommand, the core pipeline:
// scan raw access logs, keep GET requests from known AI bots and write them
// to a timestamped CSV artifact.
// Usage: ai-bot-analyzer aggregate [--start-date 2025-07-01] [--end-date 2025-07-31]
func NewAggregateCommand() *cobra.Command {
	var configFile string
	var startDate string
	var endDate string
	var rawDir string
	var outDir string

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate AI bot traffic from raw access logs into a CSV artifact",
		Long: `Scan the raw access log directory for files matching 'access.log*', parse
every line and collect the GET requests made by known AI crawlers.

Matched records are written to a CSV artifact named
ai_bot_traffic_<timestamp>.csv in the processed directory; the artifact path
is printed on stdout so it can feed the report, load and insights commands.

Lines that cannot be parsed are logged and skipped; a bad line never aborts
the run. Optional --start-date/--end-date bounds restrict the run to requests
whose calendar date falls inside the inclusive range.

Example:
  ai-bot-analyzer aggregate
  ai-bot-analyzer aggregate --start-date 2025-07-01 --end-date 2025-07-31`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAggregateCommand(configFile, cmd.Flags().Changed("config"),
				startDate, endDate, rawDir, outDir)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", config.DefaultConfigFile, configFlagUsage)
	cmd.Flags().StringVar(&startDate, "start-date", "", "Start date (YYYY-MM-DD, inclusive)")
	cmd.Flags().StringVar(&endDate, "end-date", "", "End date (YYYY-MM-DD, inclusive)")
	cmd.Flags().StringVar(&rawDir, "raw-dir", "", "Directory of raw access logs (default from config)")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Directory for aggregate CSV artifacts (default from config)")

	return cmd
}

// runAggregateCommand executes the aggregation pipeline
func runAggregateCommand(configFile string, explicitConfig bool, startDate, endDate, rawDir, outDir string) error {
	start, err := parseDateFlag(startDate, "start date")
	if err != nil {
		return err
	}
	end, err := parseDateFlag(endDate, "end date")
	if err != nil {
		return err
	}

	rc, err := newRunContext(configFile, explicitConfig)
	if err != nil {
		return err
	}
	defer rc.close()

	if rawDir == "" {
		rawDir = rc.cfg.RawDir
	}
	if outDir == "" {
		outDir = rc.cfg.ProcessedDir
	}

	out, _, err := aggregate.Run(rc.log, rc.classifier, aggregate.Options{
		RawDir:       rawDir,
		ProcessedDir: outDir,
		Start:        start,
		End:          end,
	})
	if err != nil {
		return fmt.Errorf("aggregation failed: %w", err)
	}

	if out != "" {
		fmt.Println(out)
	}
	return nil
}
