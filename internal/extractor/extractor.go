// Package extractor parses raw access-log lines into the fields the
// aggregation pipeline needs. Parsing is best-effort: a malformed line is
// reported as a rejection outcome, never as an error that could abort the
// batch, and processing of subsequent lines continues unaffected.
package extractor

import (
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// The expected log format quotes the request line as the first quoted span
// and the user agent as the fifth. Splitting the raw line on double quotes
// therefore yields the request line at segment 1 and the user agent at
// segment 5, for a minimum of 6 segments on a well-formed line.
const (
	requestSegment   = 1
	userAgentSegment = 5
	minSegments      = 6
)

var (
	// timestampPattern matches e.g. [07/Jul/2025:00:03:40 +0000]
	timestampPattern = regexp.MustCompile(`\[(\d{2}/[A-Za-z]{3}/\d{4}:\d{2}:\d{2}:\d{2}) [+\-]\d{4}\]`)

	// methodPattern finds the HTTP method anywhere in the line
	methodPattern = regexp.MustCompile(`(GET|POST|HEAD|PUT|DELETE|OPTIONS|PATCH)\s+\S+`)
)

const timestampLayout = "02/Jan/2006:15:04:05"

// Outcome classifies the result of extracting a single line
type Outcome int

const (
	// OutcomeOK means the line parsed and survived all filters
	OutcomeOK Outcome = iota
	// OutcomeMalformed means the line had no timestamp or too few quoted
	// segments; it is logged at error level and rejected
	OutcomeMalformed
	// OutcomeNonGET means the line parsed but is not a GET request;
	// rejected silently (expected, high-volume, not a fault)
	OutcomeNonGET
	// OutcomeOutOfRange means the line's date fell outside the configured
	// date range; rejected silently
	OutcomeOutOfRange
)

// String returns the outcome name for logs and tests
func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeMalformed:
		return "malformed"
	case OutcomeNonGET:
		return "non-get"
	case OutcomeOutOfRange:
		return "out-of-range"
	default:
		return "unknown"
	}
}

// Fields holds the values extracted from one accepted log line. A rejected
// line always yields zero-value Fields; partially populated records never
// flow downstream.
type Fields struct {
	Resource  string // trimmed first quoted segment: the full request line as logged
	UserAgent string // trimmed fifth quoted segment; "-" normalizes to empty
}

// Extractor parses lines against an optional inclusive calendar-date range.
// It holds no mutable state; Extract is idempotent and safe for concurrent
// use from multiple goroutines.
type Extractor struct {
	log   *zap.SugaredLogger
	start *time.Time
	end   *time.Time
}

// New creates an Extractor. start and end bound the accepted calendar dates
// (inclusive on both ends, time of day ignored); either may be nil for
// unbounded on that side.
func New(log *zap.SugaredLogger, start, end *time.Time) *Extractor {
	return &Extractor{log: log, start: start, end: end}
}

// Extract parses one raw log line.
//
// The returned Fields are only meaningful when the Outcome is OutcomeOK.
// Note that an OK line may still carry an empty user agent (the log records
// it as "-"); callers are expected to skip those records.
func (e *Extractor) Extract(line string) (Fields, Outcome) {
	m := timestampPattern.FindStringSubmatch(line)
	if m == nil {
		e.log.Errorf("could not extract timestamp from log line: %s", line)
		return Fields{}, OutcomeMalformed
	}

	ts, err := time.Parse(timestampLayout, m[1])
	if err != nil {
		e.log.Errorf("could not parse timestamp %q in log line: %s", m[1], line)
		return Fields{}, OutcomeMalformed
	}
	if !e.inRange(ts) {
		return Fields{}, OutcomeOutOfRange
	}

	segments := strings.Split(line, `"`)
	if len(segments) < minSegments {
		e.log.Errorf("could not extract all fields from log line: %s", line)
		return Fields{}, OutcomeMalformed
	}

	resource := strings.TrimSpace(segments[requestSegment])

	// The method is matched against the whole line, independently of the
	// segment split; a non-GET method rejects the line even when every
	// field was extractable.
	if mm := methodPattern.FindStringSubmatch(line); mm != nil && mm[1] != "GET" {
		return Fields{}, OutcomeNonGET
	}

	userAgent := strings.TrimSpace(segments[userAgentSegment])
	if userAgent == "-" {
		userAgent = ""
	}

	return Fields{Resource: resource, UserAgent: userAgent}, OutcomeOK
}

// inRange compares the calendar date of ts against the configured bounds,
// ignoring time of day and zone offset
func (e *Extractor) inRange(ts time.Time) bool {
	day := dateOnly(ts)
	if e.start != nil && day.Before(dateOnly(*e.start)) {
		return false
	}
	if e.end != nil && day.After(dateOnly(*e.end)) {
		return false
	}
	return true
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
