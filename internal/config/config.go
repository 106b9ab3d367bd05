// Package config provides shared configuration constants and the optional
// YAML configuration file for the AI bot traffic analyzer
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFile is where the analyzer looks for its YAML configuration
	// when no --config flag is provided. A missing file is not an error; all
	// settings fall back to the defaults below.
	DefaultConfigFile = "config/analyzer.yaml"

	// DefaultRawDir is the directory scanned for downloaded access log files
	DefaultRawDir = "data/raw"

	// DefaultProcessedDir is where aggregate CSV artifacts are written
	DefaultProcessedDir = "data/processed"

	// DefaultDatabaseFile is the default SQLite database filename
	// used by both load and query commands when no --db flag is provided
	DefaultDatabaseFile = "bot_traffic.db"

	// DatabaseFileDescription is the help text description for the database file flag
	DatabaseFileDescription = "Path to SQLite database file"

	// RawLogPattern matches the access log files the aggregator consumes
	RawLogPattern = "access.log*"

	// AggregatePrefix and AggregatePattern name the CSV artifacts produced by
	// each aggregation run; the suffix is the run's wall-clock timestamp.
	AggregatePrefix  = "ai_bot_traffic_"
	AggregatePattern = "ai_bot_traffic_*.csv"

	// AggregateTimeFormat stamps output artifacts, e.g. ai_bot_traffic_20250707_000340.csv
	AggregateTimeFormat = "20060102_150405"
)

// Keyword binds a user-agent substring to the bot identity it implies.
// Table order is priority order: the first matching keyword wins.
type Keyword struct {
	Match string `yaml:"match"`
	Bot   string `yaml:"bot"`
}

// DefaultBotKeywords is the built-in keyword table, highest priority first.
// googlebot must stay last: a google-extended user agent would otherwise be
// swallowed by the broader googlebot substring.
func DefaultBotKeywords() []Keyword {
	return []Keyword{
		{Match: "gptbot", Bot: "gptbot"},
		{Match: "claudebot", Bot: "claudebot"},
		{Match: "perplexitybot", Bot: "perplexitybot"},
		{Match: "google-extended", Bot: "google-extended"},
		{Match: "googlebot", Bot: "googlebot"},
	}
}

// DefaultGooglebotExclusions lists crawler sub-agents that contain "googlebot"
// but do not count as the core indexing bot.
func DefaultGooglebotExclusions() []string {
	return []string{"googlebot-image", "googlebot-video"}
}

// SFTPConfig holds the connection details for the fetch command
type SFTPConfig struct {
	Hostname  string `yaml:"hostname"`
	Port      int    `yaml:"port"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	KeyFile   string `yaml:"key_file"`
	RemoteDir string `yaml:"remote_dir"`
}

// LLMConfig holds credentials for the insights command. BaseURL may point at
// any OpenAI-compatible chat completions endpoint.
type LLMConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// LoggingConfig controls the run log file written alongside console output
type LoggingConfig struct {
	File       string `yaml:"file"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Config is the full YAML configuration file
type Config struct {
	RawDir              string        `yaml:"raw_dir"`
	ProcessedDir        string        `yaml:"processed_dir"`
	BotKeywords         []Keyword     `yaml:"bot_keywords"`
	GooglebotExclusions []string      `yaml:"googlebot_exclusions"`
	SFTP                SFTPConfig    `yaml:"sftp"`
	LLM                 LLMConfig     `yaml:"llm"`
	Logging             LoggingConfig `yaml:"logging"`
}

// Default returns a Config populated with the built-in settings
func Default() *Config {
	return &Config{
		RawDir:              DefaultRawDir,
		ProcessedDir:        DefaultProcessedDir,
		BotKeywords:         DefaultBotKeywords(),
		GooglebotExclusions: DefaultGooglebotExclusions(),
		SFTP: SFTPConfig{
			Port:      22,
			RemoteDir: "/home/logs",
		},
		LLM: LLMConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4",
		},
		Logging: LoggingConfig{
			File:       "data/analyzer.log",
			Level:      "debug",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 30,
		},
	}
}

// Load reads the YAML configuration at path and overlays it on the defaults.
// A missing file at the default location yields the defaults; a missing file
// at an explicitly requested path is an error.
func Load(path string, explicit bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	// An empty keyword list would classify nothing; treat it as "use the
	// defaults" rather than silently matching no traffic.
	if len(cfg.BotKeywords) == 0 {
		cfg.BotKeywords = DefaultBotKeywords()
	}
	if len(cfg.GooglebotExclusions) == 0 {
		cfg.GooglebotExclusions = DefaultGooglebotExclusions()
	}

	return cfg, nil
}
