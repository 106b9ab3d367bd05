// Package database provides SQLite storage for aggregated bot traffic records
package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"ai-bot-analyzer/internal/models"
)

// DB interface defines database operations for easier testing and extensibility
// This interface could be extended to support other database backends (PostgreSQL, MySQL, etc.)
type DB interface {
	Close() error
	Query(query string, args ...interface{}) (*sql.Rows, error)
	Exec(query string, args ...interface{}) (sql.Result, error)
	Begin() (*sql.Tx, error)
}

// sqliteDB implements the DB interface for SQLite
type sqliteDB struct {
	*sql.DB
}

// Initialize creates a new SQLite database connection and sets up the schema
// Returns a DB interface that can be used for all database operations
func Initialize(dbPath string) (DB, error) {
	// Open SQLite database connection
	// Creates the file if it doesn't exist
	sqlDB, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &sqliteDB{sqlDB}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Create tables if they don't exist
	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

// createTables sets up the database schema
// The bot_traffic table mirrors the aggregate CSV columns plus the derived
// bot identity, with indexes on the columns report queries group by
func createTables(db DB) error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS bot_traffic (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		log_file TEXT NOT NULL,
		user_agent TEXT NOT NULL,
		bot TEXT NOT NULL,
		requested_resource TEXT NOT NULL,
		log_line TEXT NOT NULL
	);

	-- Create indexes for commonly queried columns
	CREATE INDEX IF NOT EXISTS idx_bot_traffic_bot ON bot_traffic(bot);
	CREATE INDEX IF NOT EXISTS idx_bot_traffic_user_agent ON bot_traffic(user_agent);
	CREATE INDEX IF NOT EXISTS idx_bot_traffic_log_file ON bot_traffic(log_file);
	CREATE INDEX IF NOT EXISTS idx_bot_traffic_resource ON bot_traffic(requested_resource);
	CREATE INDEX IF NOT EXISTS idx_bot_traffic_bot_resource ON bot_traffic(bot, requested_resource);
	`

	_, err := db.Exec(createTableSQL)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

// InsertBotRecords bulk inserts bot traffic records into the database.
// All rows go in within a single transaction; if appendMode is false,
// existing data is cleared first in the same transaction.
func InsertBotRecords(db DB, records []models.BotRecord, appendMode bool) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if !appendMode {
		if _, err := tx.Exec("DELETE FROM bot_traffic"); err != nil {
			return 0, fmt.Errorf("failed to clear existing data: %w", err)
		}
	}

	stmt, err := tx.Prepare(`
	INSERT INTO bot_traffic (log_file, user_agent, bot, requested_resource, log_line)
	VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	var insertedCount int64
	for _, r := range records {
		if _, err := stmt.Exec(r.LogFile, r.UserAgent, r.Bot, r.Resource, r.Line); err != nil {
			return 0, fmt.Errorf("failed to insert record: %w", err)
		}
		insertedCount++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return insertedCount, nil
}

// ExecuteQuery executes a SQL query and returns results as a slice of maps
// This generic approach allows for flexible query results without predefined structs
func ExecuteQuery(db DB, query string) ([]map[string]interface{}, error) {
	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query execution failed: %w", err)
	}
	defer rows.Close()

	// Get column names
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	// Prepare result slice
	var results []map[string]interface{}

	// Process each row
	for rows.Next() {
		// Create a slice of interfaces to hold row values
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))

		for i := range values {
			valuePtrs[i] = &values[i]
		}

		// Scan row values
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		// Create map for this row
		row := make(map[string]interface{})
		for i, column := range columns {
			// Handle NULL values and convert byte slices to strings
			val := values[i]
			if b, ok := val.([]byte); ok {
				val = string(b)
			}
			row[column] = val
		}

		results = append(results, row)
	}

	// Check for iteration errors
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}

	return results, nil
}
