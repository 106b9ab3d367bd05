// Package models defines the data structures used throughout the application
package models

import (
	"fmt"
	"strings"
)

// BotRecord represents one accepted AI-bot request from an access log.
// This structure maps directly to the aggregate CSV columns:
// log_file, user_agent, requested_resource, log_line
type BotRecord struct {
	ID        int64  `db:"id" json:"id"`                               // Auto-increment primary key (database only)
	LogFile   string `db:"log_file" json:"log_file"`                   // Name of the source access log file
	UserAgent string `db:"user_agent" json:"user_agent"`               // Raw user-agent string from the request
	Bot       string `db:"bot" json:"bot"`                             // Bot identity keyword, or "other" (database only)
	Resource  string `db:"requested_resource" json:"requested_resource"` // Quoted request line as it appeared in the log
	Line      string `db:"log_line" json:"log_line"`                   // The full raw log line, trimmed
}

// String returns a human-readable representation of the record
func (r BotRecord) String() string {
	return fmt.Sprintf("%s: %s -> %s", r.LogFile, r.UserAgent, r.Resource)
}

// CSVRow returns the record's fields in aggregate CSV column order.
func (r BotRecord) CSVRow() []string {
	return []string{r.LogFile, r.UserAgent, r.Resource, strings.TrimSpace(r.Line)}
}

// CSVHeader is the header row of every aggregate CSV artifact.
var CSVHeader = []string{"log_file", "user_agent", "requested_resource", "log_line"}
