package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"ai-bot-analyzer/internal/config"
	"ai-bot-analyzer/internal/fetch"
)

// NewFetchCommand creates the 'fetch' subcommand for downloading rotated logs
// Usage: ai-bot-analyzer fetch [--config config/analyzer.yaml]
func NewFetchCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download rotated access logs from the hosting provider via SFTP",
		Long: `Connect to the configured SFTP server, list the remote log directory and
download every completed rotation (access.log-YYYY-MM-DD-<ts>) that is not
already present in the raw directory. Rotations dated today or later are
still being written and are skipped, as are compressed archives.

SFTP credentials come from the 'sftp' section of the config file.

Example:
  ai-bot-analyzer fetch --config config/analyzer.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetchCommand(configFile, cmd.Flags().Changed("config"))
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", config.DefaultConfigFile, configFlagUsage)

	return cmd
}

// runFetchCommand executes the SFTP download
func runFetchCommand(configFile string, explicitConfig bool) error {
	rc, err := newRunContext(configFile, explicitConfig)
	if err != nil {
		return err
	}
	defer rc.close()

	if rc.cfg.SFTP.Hostname == "" {
		return fmt.Errorf("no SFTP host configured: set sftp.hostname in %s", configFile)
	}

	client, err := fetch.Connect(rc.cfg.SFTP, rc.log)
	if err != nil {
		return fmt.Errorf("failed to establish SFTP connection: %w", err)
	}
	defer client.Close()

	downloaded, err := client.Run(rc.cfg.SFTP.RemoteDir, rc.cfg.RawDir)
	if err != nil {
		return fmt.Errorf("log download failed: %w", err)
	}

	for _, name := range downloaded {
		fmt.Println(name)
	}
	return nil
}
