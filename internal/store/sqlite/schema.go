package sqlite

import (
	"context"
	"fmt"
	"strings"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS events (
		country    TEXT NOT NULL,
		seq        INTEGER NOT NULL,
		event_date TEXT NOT NULL,
		latitude   REAL NOT NULL,
		longitude  REAL NOT NULL,
		casualties INTEGER NOT NULL DEFAULT 0,
		side_a     TEXT NOT NULL DEFAULT '',
		side_b     TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (country, seq)
	);

	CREATE TABLE IF NOT EXISTS interventions (
		country    TEXT PRIMARY KEY,
		start_date TEXT NOT NULL,
		end_date   TEXT
	);

	CREATE TABLE IF NOT EXISTS hmi_records (
		country TEXT PRIMARY KEY,
		record  TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS linkages (
		id        TEXT PRIMARY KEY,
		country   TEXT NOT NULL,
		weighting INTEGER NOT NULL,
		method    TEXT NOT NULL,
		leaves    INTEGER NOT NULL,
		built_at  TEXT NOT NULL,
		CONSTRAINT uq_linkage UNIQUE (country, weighting)
	);

	CREATE TABLE IF NOT EXISTS linkage_merges (
		linkage_id TEXT NOT NULL REFERENCES linkages(id) ON DELETE CASCADE,
		step       INTEGER NOT NULL,
		left_id    INTEGER NOT NULL,
		right_id   INTEGER NOT NULL,
		distance   REAL NOT NULL,
		size       INTEGER NOT NULL,
		PRIMARY KEY (linkage_id, step)
	);

	CREATE TABLE IF NOT EXISTS knox_tables (
		country    TEXT NOT NULL,
		resolution TEXT NOT NULL,
		period     TEXT NOT NULL,
		bins_rows  TEXT NOT NULL DEFAULT '[]',
		bins_cols  TEXT NOT NULL DEFAULT '[]',
		cells      TEXT NOT NULL DEFAULT '[]',
		PRIMARY KEY (country, resolution, period)
	);

	CREATE TABLE IF NOT EXISTS indicators (
		country TEXT NOT NULL,
		year    INTEGER NOT NULL,
		name    TEXT NOT NULL,
		value   REAL,
		PRIMARY KEY (country, year, name)
	);

	CREATE TABLE IF NOT EXISTS sources (
		country     TEXT NOT NULL,
		path        TEXT NOT NULL,
		hash        TEXT NOT NULL,
		ingested_at TEXT DEFAULT (datetime('now')),
		PRIMARY KEY (country, path)
	);

	CREATE INDEX IF NOT EXISTS idx_events_country_date ON events (country, event_date);
	CREATE INDEX IF NOT EXISTS idx_linkages_country ON linkages (country);
	`

	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(ddl) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema transaction: %w", err)
	}
	return nil
}

func splitStatements(ddl string) []string {
	var statements []string
	var current strings.Builder

	for _, line := range strings.Split(ddl, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		if strings.HasSuffix(stripped, ";") {
			statements = append(statements, current.String())
			current.Reset()
		}
	}

	if strings.TrimSpace(current.String()) != "" {
		statements = append(statements, current.String())
	}
	return statements
}
