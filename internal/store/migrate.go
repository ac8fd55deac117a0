package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

const (
	recordsTable   = "records"
	llmEventsTable = "llm_request_events"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

// ddl creates the tables described in ent/schema when they are missing.
// Columns are listed in the same order as the schema fields.
var ddl = []string{
	`CREATE TABLE IF NOT EXISTS ` + recordsTable + ` (
		id TEXT NOT NULL PRIMARY KEY,
		sequence INTEGER NOT NULL UNIQUE,
		timestamp TEXT NOT NULL,
		age TEXT NOT NULL DEFAULT '',
		gender TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL,
		score REAL NOT NULL,
		confidence REAL NOT NULL,
		fallback BOOLEAN NOT NULL DEFAULT false,
		catalog_version TEXT NOT NULL DEFAULT '',
		responses JSON NOT NULL,
		free_text_concern TEXT NOT NULL DEFAULT '',
		all_scores JSON NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS record_category ON ` + recordsTable + ` (category)`,
	`CREATE INDEX IF NOT EXISTS record_age ON ` + recordsTable + ` (age)`,
	`CREATE INDEX IF NOT EXISTS record_gender ON ` + recordsTable + ` (gender)`,
	`CREATE INDEX IF NOT EXISTS record_timestamp ON ` + recordsTable + ` (timestamp)`,

	`CREATE TABLE IF NOT EXISTS ` + llmEventsTable + ` (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence INTEGER NOT NULL UNIQUE,
		timestamp TEXT NOT NULL,
		provider TEXT NOT NULL,
		model TEXT NOT NULL,
		purpose TEXT NOT NULL,
		input_tokens INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		latency_ms INTEGER NOT NULL DEFAULT 0,
		success BOOLEAN NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		request_body TEXT NOT NULL DEFAULT '',
		response_body TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS llmrequestevent_purpose ON ` + llmEventsTable + ` (purpose)`,
	`CREATE INDEX IF NOT EXISTS llmrequestevent_provider ON ` + llmEventsTable + ` (provider)`,
}

// migrate applies ddl through the ent driver.
func migrate(ctx context.Context, drv *entsql.Driver) error {
	for _, stmt := range ddl {
		if err := drv.Exec(ctx, stmt, []any{}, nil); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
