package postgres

import (
	"context"
	"fmt"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	// All statements run in one implicit transaction.
	ddl := `
CREATE TABLE IF NOT EXISTS events (
    country    TEXT NOT NULL,
    seq        INTEGER NOT NULL,
    event_date TIMESTAMPTZ NOT NULL,
    latitude   DOUBLE PRECISION NOT NULL,
    longitude  DOUBLE PRECISION NOT NULL,
    casualties INTEGER NOT NULL DEFAULT 0,
    side_a     TEXT NOT NULL DEFAULT '',
    side_b     TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (country, seq)
);

CREATE TABLE IF NOT EXISTS interventions (
    country    TEXT PRIMARY KEY,
    start_date TIMESTAMPTZ NOT NULL,
    end_date   TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS hmi_records (
    country TEXT PRIMARY KEY,
    record  JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS linkages (
    id        UUID PRIMARY KEY,
    country   TEXT NOT NULL,
    weighting INTEGER NOT NULL,
    method    TEXT NOT NULL,
    leaves    INTEGER NOT NULL,
    built_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    CONSTRAINT uq_linkage UNIQUE (country, weighting)
);

CREATE TABLE IF NOT EXISTS linkage_merges (
    linkage_id UUID NOT NULL REFERENCES linkages(id) ON DELETE CASCADE,
    step       INTEGER NOT NULL,
    left_id    INTEGER NOT NULL,
    right_id   INTEGER NOT NULL,
    distance   DOUBLE PRECISION NOT NULL,
    size       INTEGER NOT NULL,
    PRIMARY KEY (linkage_id, step)
);

CREATE TABLE IF NOT EXISTS knox_tables (
    country    TEXT NOT NULL,
    resolution TEXT NOT NULL,
    period     TEXT NOT NULL,
    bins_rows  DOUBLE PRECISION[] NOT NULL DEFAULT '{}',
    bins_cols  DOUBLE PRECISION[] NOT NULL DEFAULT '{}',
    cells      JSONB NOT NULL DEFAULT '[]',
    PRIMARY KEY (country, resolution, period)
);

CREATE TABLE IF NOT EXISTS indicators (
    country TEXT NOT NULL,
    year    INTEGER NOT NULL,
    name    TEXT NOT NULL,
    value   DOUBLE PRECISION,
    PRIMARY KEY (country, year, name)
);

CREATE TABLE IF NOT EXISTS sources (
    country     TEXT NOT NULL,
    path        TEXT NOT NULL,
    hash        TEXT NOT NULL,
    ingested_at TIMESTAMPTZ DEFAULT now(),
    PRIMARY KEY (country, path)
);

CREATE INDEX IF NOT EXISTS idx_events_country_date ON events (country, event_date);
CREATE INDEX IF NOT EXISTS idx_linkages_country ON linkages (country);
`
	_, err := c.pool.Exec(ctx, ddl)
	if err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
