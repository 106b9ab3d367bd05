// Package aggregate implements the batch pipeline that turns raw access logs
// into a CSV artifact of AI-bot requests: stream lines, extract fields,
// classify user agents, accumulate matches, write one artifact per run.
package aggregate

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"ai-bot-analyzer/internal/classifier"
	"ai-bot-analyzer/internal/config"
	"ai-bot-analyzer/internal/extractor"
	"ai-bot-analyzer/internal/models"
)

// Lines in real access logs occasionally exceed bufio's default 64kB token
// limit (very long query strings, garbage from port scanners).
const maxLineBytes = 1024 * 1024

// Stats counts what happened to every line of a run
type Stats struct {
	Files      int
	Lines      int
	Malformed  int
	NonGET     int
	OutOfRange int
	NoAgent    int
	BotHits    int
}

// Options configures one aggregation run
type Options struct {
	RawDir       string
	ProcessedDir string
	Start        *time.Time // inclusive lower date bound, nil for unbounded
	End          *time.Time // inclusive upper date bound, nil for unbounded
}

// Run processes every access log in opts.RawDir and writes the matched bot
// records to a timestamped CSV under opts.ProcessedDir.
//
// The returned path is empty when no bot traffic was found; that is not an
// error. Line-level problems never abort the run: malformed lines are logged
// and counted, unreadable files are logged and skipped.
func Run(log *zap.SugaredLogger, cls *classifier.Classifier, opts Options) (string, Stats, error) {
	log.Infof("starting log aggregation (start=%s, end=%s)",
		formatBound(opts.Start), formatBound(opts.End))

	files, err := filepath.Glob(filepath.Join(opts.RawDir, config.RawLogPattern))
	if err != nil {
		return "", Stats{}, fmt.Errorf("failed to list log files in %s: %w", opts.RawDir, err)
	}
	sort.Strings(files)

	ext := extractor.New(log, opts.Start, opts.End)

	var stats Stats
	var records []models.BotRecord

	for _, file := range files {
		log.Infof("processing access log file: %s", file)
		stats.Files++

		if err := processFile(file, ext, cls, &records, &stats); err != nil {
			log.Errorf("error processing %s: %v", file, err)
			continue
		}
	}

	stats.BotHits = len(records)
	log.Infof("aggregation scanned %d lines in %d files: %d bot hits, %d malformed, %d non-GET, %d out of range, %d without user agent",
		stats.Lines, stats.Files, stats.BotHits, stats.Malformed, stats.NonGET, stats.OutOfRange, stats.NoAgent)

	if len(records) == 0 {
		log.Info("no AI bot traffic records found")
		return "", stats, nil
	}

	out, err := writeArtifact(opts.ProcessedDir, time.Now(), records)
	if err != nil {
		return "", stats, err
	}
	log.Infof("%d AI bot traffic records saved to %s", len(records), out)
	return out, stats, nil
}

// processFile streams one log file through the extract/classify pipeline,
// appending matches to records. Invalid UTF-8 in a line is stripped rather
// than failing the file.
func processFile(path string, ext *extractor.Extractor, cls *classifier.Classifier,
	records *[]models.BotRecord, stats *Stats) error {

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	name := filepath.Base(path)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		stats.Lines++
		line := strings.ToValidUTF8(scanner.Text(), "")

		fields, outcome := ext.Extract(line)
		switch outcome {
		case extractor.OutcomeMalformed:
			stats.Malformed++
			continue
		case extractor.OutcomeNonGET:
			stats.NonGET++
			continue
		case extractor.OutcomeOutOfRange:
			stats.OutOfRange++
			continue
		}

		if fields.UserAgent == "" {
			stats.NoAgent++
			continue
		}

		if match := cls.Classify(fields.UserAgent); match.IsBot {
			*records = append(*records, models.BotRecord{
				LogFile:   name,
				UserAgent: fields.UserAgent,
				Bot:       match.Bot,
				Resource:  fields.Resource,
				Line:      strings.TrimSpace(line),
			})
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed reading log file: %w", err)
	}
	return nil
}

// writeArtifact writes the aggregate CSV stamped with the run time and
// returns its path
func writeArtifact(dir string, at time.Time, records []models.BotRecord) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	name := config.AggregatePrefix + at.Format(config.AggregateTimeFormat) + ".csv"
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create output file %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(models.CSVHeader); err != nil {
		return "", fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range records {
		if err := w.Write(r.CSVRow()); err != nil {
			return "", fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush CSV output: %w", err)
	}
	return path, nil
}

func formatBound(t *time.Time) string {
	if t == nil {
		return "none"
	}
	return t.Format("2006-01-02")
}
