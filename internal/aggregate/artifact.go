package aggregate

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"ai-bot-analyzer/internal/models"
)

// ReadArtifact parses an aggregate CSV produced by Run back into records.
// The header row is required and must carry the expected columns; the Bot
// field is left empty for the caller to derive.
func ReadArtifact(path string) ([]models.BotRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open aggregate file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = len(models.CSVHeader)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i, want := range models.CSVHeader {
		if header[i] != want {
			return nil, fmt.Errorf("unexpected CSV header %q, want %q: not an aggregate artifact", header[i], want)
		}
	}

	var records []models.BotRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		records = append(records, models.BotRecord{
			LogFile:   row[0],
			UserAgent: row[1],
			Resource:  row[2],
			Line:      row[3],
		})
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no bot traffic records found in %s", path)
	}
	return records, nil
}
