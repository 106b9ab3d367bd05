package fetch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ai-bot-analyzer/internal/logging"
)

func TestParseLogFilenameDate(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		wantOK   bool
		wantDate string
	}{
		{"valid rotation", "access.log-2025-08-13-1755043209", true, "2025-08-13"},
		{"plain access log", "access.log", false, ""},
		{"missing rotation timestamp", "access.log-2025-08-13", false, ""},
		{"impossible date", "access.log-2025-13-40-1755043209", false, ""},
		{"unrelated file", "error.log-2025-08-13-1755043209", false, ""},
		{"trailing suffix", "access.log-2025-08-13-1755043209.gz", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date, ok := ParseLogFilenameDate(tt.filename)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantDate, date.Format("2006-01-02"))
			}
		})
	}
}

func TestIsValidLogFile(t *testing.T) {
	assert.True(t, isValidLogFile("access.log-2025-08-13-1755043209"))
	assert.False(t, isValidLogFile("access.log-2025-08-13-1755043209.gz"))
	assert.False(t, isValidLogFile("access.log.tar"))
	assert.False(t, isValidLogFile("bundle.zip"))
}

func TestFilterFiles(t *testing.T) {
	day := func(s string) time.Time {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			t.Fatalf("bad test date %q: %v", s, err)
		}
		return d
	}
	now := day("2025-08-14")

	files := []remoteFile{
		{name: "access.log-2025-08-12-100", date: day("2025-08-12")},
		{name: "access.log-2025-08-13-200", date: day("2025-08-13")},
		{name: "access.log-2025-08-14-300", date: day("2025-08-14")}, // today: still rotating
		{name: "access.log-2025-08-15-400", date: day("2025-08-15")}, // future
		{name: "access.log-2025-08-11-500.gz", date: day("2025-08-11")},
	}
	existing := map[string]bool{"access.log-2025-08-12-100": true}

	got := filterFiles(files, existing, now, logging.Nop())

	assert.Equal(t, []remoteFile{
		{name: "access.log-2025-08-13-200", date: day("2025-08-13")},
	}, got)
}
