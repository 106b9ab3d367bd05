package extractor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const sampleLine = `1.2.3.4 - - [07/Jul/2025:00:03:40 +0000] "GET /robots.txt HTTP/1.1" 200 15 "-" "GPTBot/1.0"`

// observedExtractor returns an extractor whose diagnostics are captured for
// assertions
func observedExtractor(start, end *time.Time) (*Extractor, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return New(zap.New(core).Sugar(), start, end), logs
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestExtractWellFormedLine(t *testing.T) {
	ext, logs := observedExtractor(nil, nil)

	fields, outcome := ext.Extract(sampleLine)

	require.Equal(t, OutcomeOK, outcome)
	// The resource is the entire quoted request line, not just the path
	assert.Equal(t, "GET /robots.txt HTTP/1.1", fields.Resource)
	assert.Equal(t, "GPTBot/1.0", fields.UserAgent)
	assert.Zero(t, logs.Len(), "well-formed line should not log diagnostics")
}

func TestExtractRejections(t *testing.T) {
	tests := []struct {
		name        string
		line        string
		wantOutcome Outcome
		wantErrLog  bool
	}{
		{
			name:        "no timestamp",
			line:        `1.2.3.4 - - "GET /x HTTP/1.1" 200 15 "-" "GPTBot/1.0"`,
			wantOutcome: OutcomeMalformed,
			wantErrLog:  true,
		},
		{
			name:        "fewer than six quoted segments",
			line:        `1.2.3.4 - - [07/Jul/2025:00:03:40 +0000] "GET /x HTTP/1.1" 200 15`,
			wantOutcome: OutcomeMalformed,
			wantErrLog:  true,
		},
		{
			name:        "POST request",
			line:        `1.2.3.4 - - [07/Jul/2025:00:03:40 +0000] "POST /form HTTP/1.1" 200 15 "-" "GPTBot/1.0"`,
			wantOutcome: OutcomeNonGET,
			wantErrLog:  false,
		},
		{
			name:        "DELETE request with otherwise well-formed fields",
			line:        `1.2.3.4 - - [07/Jul/2025:00:03:40 +0000] "DELETE /x HTTP/1.1" 200 15 "-" "curl/8.0"`,
			wantOutcome: OutcomeNonGET,
			wantErrLog:  false,
		},
		{
			name:        "empty line",
			line:        "",
			wantOutcome: OutcomeMalformed,
			wantErrLog:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, logs := observedExtractor(nil, nil)

			fields, outcome := ext.Extract(tt.line)

			assert.Equal(t, tt.wantOutcome, outcome)
			assert.Empty(t, fields.Resource, "rejected line must not leak fields")
			assert.Empty(t, fields.UserAgent, "rejected line must not leak fields")

			errLogs := logs.FilterLevelExact(zapcore.ErrorLevel).Len()
			if tt.wantErrLog {
				assert.Equal(t, 1, errLogs, "expected an error-level diagnostic")
			} else {
				assert.Zero(t, errLogs, "expected silent rejection")
			}
		})
	}
}

func TestExtractDashUserAgentIsEmpty(t *testing.T) {
	ext, _ := observedExtractor(nil, nil)

	line := `1.2.3.4 - - [07/Jul/2025:00:03:40 +0000] "GET /robots.txt HTTP/1.1" 200 15 "-" "-"`
	fields, outcome := ext.Extract(line)

	require.Equal(t, OutcomeOK, outcome)
	assert.Empty(t, fields.UserAgent)
	assert.Equal(t, "GET /robots.txt HTTP/1.1", fields.Resource)
}

func TestExtractDateRange(t *testing.T) {
	tests := []struct {
		name        string
		start, end  *time.Time
		wantOutcome Outcome
	}{
		{"inside range", date(2025, time.July, 1), date(2025, time.July, 31), OutcomeOK},
		{"before start", date(2025, time.July, 8), date(2025, time.July, 31), OutcomeOutOfRange},
		{"after end", date(2025, time.June, 1), date(2025, time.July, 6), OutcomeOutOfRange},
		{"on start boundary", date(2025, time.July, 7), nil, OutcomeOK},
		{"on end boundary", nil, date(2025, time.July, 7), OutcomeOK},
		{"unbounded", nil, nil, OutcomeOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, logs := observedExtractor(tt.start, tt.end)

			_, outcome := ext.Extract(sampleLine) // timestamped 2025-07-07

			assert.Equal(t, tt.wantOutcome, outcome)
			assert.Zero(t, logs.FilterLevelExact(zapcore.ErrorLevel).Len(),
				"date filtering must reject silently")
		})
	}
}

func TestExtractIsIdempotent(t *testing.T) {
	ext, _ := observedExtractor(nil, nil)

	first, firstOutcome := ext.Extract(sampleLine)
	second, secondOutcome := ext.Extract(sampleLine)

	assert.Equal(t, first, second)
	assert.Equal(t, firstOutcome, secondOutcome)
}
