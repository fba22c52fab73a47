package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"hmidash/internal/aggregate"
	"hmidash/internal/conflict"
)

type indicatorRow struct {
	Year  int             `db:"year"`
	Name  string          `db:"name"`
	Value sql.NullFloat64 `db:"value"`
}

func (c *Client) ReplaceIndicators(ctx context.Context, country conflict.Country, values []aggregate.IndicatorValue) error {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM indicators WHERE country = ?`, string(country)); err != nil {
		return fmt.Errorf("clearing indicators: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, `INSERT INTO indicators (country, year, name, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing indicator insert: %w", err)
	}
	defer stmt.Close()

	for _, v := range values {
		var value sql.NullFloat64
		if v.Value != nil {
			value = sql.NullFloat64{Float64: *v.Value, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, string(country), v.Year, v.Name, value); err != nil {
			return fmt.Errorf("inserting indicator %s/%d: %w", v.Name, v.Year, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing indicators: %w", err)
	}
	return nil
}

func (c *Client) GetIndicators(ctx context.Context, country conflict.Country) ([]aggregate.IndicatorValue, error) {
	var rows []indicatorRow
	if err := c.db.SelectContext(ctx, &rows, `
	SELECT year, name, value
	FROM indicators
	WHERE country = ?
	ORDER BY name, year
	`, string(country)); err != nil {
		return nil, fmt.Errorf("getting indicators: %w", err)
	}

	out := make([]aggregate.IndicatorValue, 0, len(rows))
	for _, row := range rows {
		v := aggregate.IndicatorValue{Year: row.Year, Name: row.Name}
		if row.Value.Valid {
			value := row.Value.Float64
			v.Value = &value
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *Client) RecordSource(ctx context.Context, country conflict.Country, path, hash string) error {
	_, err := c.db.ExecContext(ctx, `
	INSERT INTO sources (country, path, hash, ingested_at)
	VALUES (?, ?, ?, datetime('now'))
	ON CONFLICT (country, path) DO UPDATE SET
		hash = excluded.hash,
		ingested_at = excluded.ingested_at
	`, string(country), path, hash)
	if err != nil {
		return fmt.Errorf("recording source: %w", err)
	}
	return nil
}

func (c *Client) DeleteSource(ctx context.Context, country conflict.Country, path string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM sources WHERE country = ? AND path = ?`, string(country), path); err != nil {
		return fmt.Errorf("deleting source: %w", err)
	}
	return nil
}

func (c *Client) GetSourceHashes(ctx context.Context, country conflict.Country) (map[string]string, error) {
	var rows []struct {
		Path string `db:"path"`
		Hash string `db:"hash"`
	}
	if err := c.db.SelectContext(ctx, &rows, `SELECT path, hash FROM sources WHERE country = ?`, string(country)); err != nil {
		return nil, fmt.Errorf("getting source hashes: %w", err)
	}
	hashes := make(map[string]string, len(rows))
	for _, row := range rows {
		hashes[row.Path] = row.Hash
	}
	return hashes, nil
}
