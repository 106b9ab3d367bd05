package aggregate

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-bot-analyzer/internal/classifier"
	"ai-bot-analyzer/internal/logging"
	"ai-bot-analyzer/internal/models"
)

const sampleLog = `1.2.3.4 - - [07/Jul/2025:00:03:40 +0000] "GET /robots.txt HTTP/1.1" 200 15 "-" "GPTBot/1.0"
5.6.7.8 - - [07/Jul/2025:00:04:02 +0000] "GET /blog/post HTTP/1.1" 200 8211 "-" "Mozilla/5.0 (compatible; ClaudeBot/1.0)"
9.9.9.9 - - [07/Jul/2025:00:05:00 +0000] "POST /contact HTTP/1.1" 200 12 "-" "GPTBot/1.0"
1.1.1.1 - - [07/Jul/2025:00:06:00 +0000] "GET /index.html HTTP/1.1" 200 512 "-" "Mozilla/5.0 (Windows NT 10.0)"
2.2.2.2 - - [07/Jul/2025:00:07:00 +0000] "GET /favicon.ico HTTP/1.1" 200 0 "-" "-"
this line is complete garbage
3.3.3.3 - - [08/Jul/2025:10:00:00 +0000] "GET /sitemap.xml HTTP/1.1" 200 99 "-" "Mozilla/5.0 (compatible; Googlebot/2.1)"
`

// writeRawLog drops sampleLog into a fresh raw directory and returns both dirs
func writeRawLog(t *testing.T) (rawDir, outDir string) {
	t.Helper()
	base := t.TempDir()
	rawDir = filepath.Join(base, "raw")
	outDir = filepath.Join(base, "processed")
	require.NoError(t, os.MkdirAll(rawDir, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(rawDir, "access.log-2025-07-08-1751932800"), []byte(sampleLog), 0o644))
	return rawDir, outDir
}

func TestRun(t *testing.T) {
	rawDir, outDir := writeRawLog(t)

	out, stats, err := Run(logging.Nop(), classifier.Default(), Options{
		RawDir:       rawDir,
		ProcessedDir: outDir,
	})
	require.NoError(t, err)
	require.NotEmpty(t, out)

	assert.Equal(t, 1, stats.Files)
	assert.Equal(t, 7, stats.Lines)
	assert.Equal(t, 1, stats.Malformed)
	assert.Equal(t, 1, stats.NonGET)
	assert.Equal(t, 1, stats.NoAgent)
	assert.Equal(t, 3, stats.BotHits)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4, "header plus three bot records")

	assert.Equal(t, models.CSVHeader, rows[0])
	assert.Equal(t, "access.log-2025-07-08-1751932800", rows[1][0])
	assert.Equal(t, "GPTBot/1.0", rows[1][1])
	assert.Equal(t, "GET /robots.txt HTTP/1.1", rows[1][2])
	assert.Equal(t, "Mozilla/5.0 (compatible; ClaudeBot/1.0)", rows[2][1])
	assert.Equal(t, "Mozilla/5.0 (compatible; Googlebot/2.1)", rows[3][1])
}

func TestRunDateRange(t *testing.T) {
	rawDir, outDir := writeRawLog(t)

	start := time.Date(2025, time.July, 8, 0, 0, 0, 0, time.UTC)
	out, stats, err := Run(logging.Nop(), classifier.Default(), Options{
		RawDir:       rawDir,
		ProcessedDir: outDir,
		Start:        &start,
	})
	require.NoError(t, err)
	require.NotEmpty(t, out)

	// Only the 08/Jul googlebot line survives the bound
	assert.Equal(t, 1, stats.BotHits)
	assert.Equal(t, 5, stats.OutOfRange)
}

func TestRunNoMatchesWritesNothing(t *testing.T) {
	base := t.TempDir()
	rawDir := filepath.Join(base, "raw")
	outDir := filepath.Join(base, "processed")
	require.NoError(t, os.MkdirAll(rawDir, 0o755))
	line := `1.1.1.1 - - [07/Jul/2025:00:06:00 +0000] "GET / HTTP/1.1" 200 1 "-" "Mozilla/5.0"` + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(rawDir, "access.log-2025-07-08-1"), []byte(line), 0o644))

	out, stats, err := Run(logging.Nop(), classifier.Default(), Options{
		RawDir:       rawDir,
		ProcessedDir: outDir,
	})
	require.NoError(t, err, "an empty batch is not an error")
	assert.Empty(t, out)
	assert.Zero(t, stats.BotHits)

	_, statErr := os.Stat(outDir)
	assert.True(t, os.IsNotExist(statErr), "no artifact directory should be created for an empty result")
}

func TestRunEmptyRawDir(t *testing.T) {
	base := t.TempDir()

	out, stats, err := Run(logging.Nop(), classifier.Default(), Options{
		RawDir:       filepath.Join(base, "missing"),
		ProcessedDir: filepath.Join(base, "processed"),
	})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Zero(t, stats.Files)
}

func TestRunToleratesInvalidUTF8(t *testing.T) {
	base := t.TempDir()
	rawDir := filepath.Join(base, "raw")
	outDir := filepath.Join(base, "processed")
	require.NoError(t, os.MkdirAll(rawDir, 0o755))

	line := append([]byte(`1.2.3.4 - - [07/Jul/2025:00:03:40 +0000] "GET /x`), 0xff, 0xfe)
	line = append(line, []byte(` HTTP/1.1" 200 15 "-" "GPTBot/1.0"`+"\n")...)
	require.NoError(t, os.WriteFile(filepath.Join(rawDir, "access.log-2025-07-08-1"), line, 0o644))

	out, stats, err := Run(logging.Nop(), classifier.Default(), Options{
		RawDir:       rawDir,
		ProcessedDir: outDir,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.BotHits, "invalid bytes are stripped, not fatal")
	assert.NotEmpty(t, out)
}

func TestReadArtifactRoundTrip(t *testing.T) {
	dir := t.TempDir()
	records := []models.BotRecord{
		{LogFile: "access.log-2025-07-08-1", UserAgent: "GPTBot/1.0", Resource: "GET /robots.txt HTTP/1.1", Line: "raw line one"},
		{LogFile: "access.log-2025-07-08-1", UserAgent: "ClaudeBot/1.0", Resource: "GET /blog HTTP/1.1", Line: "raw line two"},
	}

	path, err := writeArtifact(dir, time.Date(2025, time.July, 8, 12, 30, 0, 0, time.UTC), records)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ai_bot_traffic_20250708_123000.csv"), path)

	got, err := ReadArtifact(path)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestReadArtifactRejectsForeignCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "other.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b,c,d\n1,2,3,4\n"), 0o644))

	_, err := ReadArtifact(path)
	assert.Error(t, err)
}
