// Package report tallies hit counts from an aggregate CSV artifact, overall
// and per bot identity.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"ai-bot-analyzer/internal/classifier"
	"ai-bot-analyzer/internal/config"
)

// HitCounts holds the tally for one aggregate artifact
type HitCounts struct {
	Overall map[string]int            // hits per normalized resource, all bots
	PerBot  map[string]map[string]int // hits per resource, keyed by bot identity
}

// LatestAggregate returns the most recently modified aggregate CSV in
// processedDir. An empty directory is an error: there is nothing to report on
// until an aggregation run has produced an artifact.
func LatestAggregate(processedDir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(processedDir, config.AggregatePattern))
	if err != nil {
		return "", fmt.Errorf("failed to list aggregate files in %s: %w", processedDir, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no aggregated bot traffic files found in %s", processedDir)
	}

	latest := ""
	var latestMod int64
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().UnixNano() > latestMod {
			latest = m
			latestMod = info.ModTime().UnixNano()
		}
	}
	return latest, nil
}

// Analyze reads an aggregate CSV and tallies hits per resource and per bot.
// Resources are normalized by trimming leading and trailing slashes; rows
// with an empty resource or user agent are skipped.
func Analyze(csvPath string, cls *classifier.Classifier) (*HitCounts, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open aggregate file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	resourceCol, agentCol := -1, -1
	for i, name := range header {
		switch name {
		case "requested_resource":
			resourceCol = i
		case "user_agent":
			agentCol = i
		}
	}
	if resourceCol < 0 || agentCol < 0 {
		return nil, fmt.Errorf("aggregate file %s is missing expected columns", csvPath)
	}

	hits := &HitCounts{
		Overall: make(map[string]int),
		PerBot:  make(map[string]map[string]int),
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		if resourceCol >= len(row) || agentCol >= len(row) {
			continue
		}

		resource := strings.Trim(strings.TrimSpace(row[resourceCol]), "/")
		userAgent := row[agentCol]
		if resource == "" || userAgent == "" {
			continue
		}

		bot := cls.Identify(userAgent)
		hits.Overall[resource]++
		if hits.PerBot[bot] == nil {
			hits.PerBot[bot] = make(map[string]int)
		}
		hits.PerBot[bot][resource]++
	}

	return hits, nil
}

// Render writes the tally as tables: one overall, then one per bot identity
func Render(w io.Writer, hits *HitCounts) {
	fmt.Fprintln(w, "Overall resource hit counts (all AI bots):")
	renderCounts(w, hits.Overall)

	bots := make([]string, 0, len(hits.PerBot))
	for bot := range hits.PerBot {
		bots = append(bots, bot)
	}
	sort.Strings(bots)

	for _, bot := range bots {
		fmt.Fprintf(w, "\nBot: %s\n", bot)
		renderCounts(w, hits.PerBot[bot])
	}
}

func renderCounts(w io.Writer, counts map[string]int) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Resource", "Hits"})
	for _, e := range sortedCounts(counts) {
		t.AppendRow(table.Row{e.resource, e.count})
	}
	t.Render()
}

type countEntry struct {
	resource string
	count    int
}

// sortedCounts orders by hit count descending, then resource name for a
// stable display
func sortedCounts(counts map[string]int) []countEntry {
	entries := make([]countEntry, 0, len(counts))
	for resource, count := range counts {
		entries = append(entries, countEntry{resource, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].resource < entries[j].resource
	})
	return entries
}
