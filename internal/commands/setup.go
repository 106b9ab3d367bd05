// Package commands implements the CLI commands for the AI bot traffic analyzer
package commands

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"ai-bot-analyzer/internal/classifier"
	"ai-bot-analyzer/internal/config"
	"ai-bot-analyzer/internal/logging"
)

// runContext bundles what every command needs: the resolved configuration,
// a run-scoped logger and the classifier built from the configured keyword
// tables. close flushes the logger and must be deferred.
type runContext struct {
	cfg        *config.Config
	log        *zap.SugaredLogger
	classifier *classifier.Classifier
	close      func()
}

// newRunContext loads the YAML config (explicit when the user passed
// --config) and builds the logger and classifier for one command invocation
func newRunContext(configFile string, explicit bool) (*runContext, error) {
	cfg, err := config.Load(configFile, explicit)
	if err != nil {
		return nil, err
	}

	log, closeLog, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	return &runContext{
		cfg:        cfg,
		log:        log,
		classifier: classifier.New(cfg.BotKeywords, cfg.GooglebotExclusions),
		close:      closeLog,
	}, nil
}

// parseDateFlag converts a YYYY-MM-DD flag value to a date bound; an empty
// value means unbounded
func parseDateFlag(value, name string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: expected YYYY-MM-DD", name, value)
	}
	return &t, nil
}

// configFlagUsage is the shared help text for the --config flag
const configFlagUsage = "Path to YAML config file"
