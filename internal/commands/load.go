package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ai-bot-analyzer/internal/aggregate"
	"ai-bot-analyzer/internal/config"
	"ai-bot-analyzer/internal/database"
	"ai-bot-analyzer/internal/report"
)

// NewLoadCommand creates the 'load' subcommand for importing an aggregate CSV
// into SQLite for ad-hoc querying
// Usage: ai-bot-analyzer load [--file aggregate.csv] [--db bot_traffic.db] [--append]
func NewLoadCommand() *cobra.Command {
	var configFile string
	var aggregateFile string
	var dbFile string
	var appendMode bool

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load an aggregate CSV artifact into a SQLite database",
		Long: `Parse an aggregate CSV artifact and store its records in a SQLite database
for efficient querying. Without --file, the most recent artifact in the
processed directory is loaded.

Each record's bot identity is derived from its user agent using the
configured keyword table, so queries can group by the 'bot' column directly.

By default, loading data will replace any existing data in the database.
Use the --append flag to add data without clearing it.

Example:
  ai-bot-analyzer load --db bot_traffic.db
  ai-bot-analyzer load --file data/processed/ai_bot_traffic_20250707_000340.csv --append`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoadCommand(configFile, cmd.Flags().Changed("config"),
				aggregateFile, dbFile, appendMode)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", config.DefaultConfigFile, configFlagUsage)
	cmd.Flags().StringVarP(&aggregateFile, "file", "f", "", "Aggregate CSV to load (default: most recent)")
	cmd.Flags().StringVarP(&dbFile, "db", "d", config.DefaultDatabaseFile, config.DatabaseFileDescription)
	cmd.Flags().BoolVar(&appendMode, "append", false, "Append data to existing database (default: replace existing data)")

	return cmd
}

// runLoadCommand executes the CSV loading logic
func runLoadCommand(configFile string, explicitConfig bool, aggregateFile, dbFile string, appendMode bool) error {
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
	if _, err := os.Stat(aggregateFile); os.IsNotExist(err) {
		return fmt.Errorf("aggregate file does not exist: %s", aggregateFile)
	}

	fmt.Printf("Loading aggregate file: %s\n", aggregateFile)
	fmt.Printf("Target database: %s\n", dbFile)
	if appendMode {
		fmt.Printf("Mode: Append to existing database\n")
	} else {
		fmt.Printf("Mode: Replace existing data\n")
	}

	records, err := aggregate.ReadArtifact(aggregateFile)
	if err != nil {
		return fmt.Errorf("failed to parse aggregate file: %w", err)
	}

	// Derive the bot identity column from each user agent
	for i := range records {
		records[i].Bot = rc.classifier.Identify(records[i].UserAgent)
	}

	fmt.Printf("Parsed %d bot traffic records\n", len(records))

	db, err := database.Initialize(dbFile)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	count, err := database.InsertBotRecords(db, records, appendMode)
	if err != nil {
		return fmt.Errorf("failed to insert records: %w", err)
	}

	fmt.Printf("Successfully loaded %d records into database\n", count)
	return nil
}
