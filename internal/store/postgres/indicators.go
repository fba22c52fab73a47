package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"hmidash/internal/aggregate"
	"hmidash/internal/conflict"
)

type indicatorRow struct {
	Year  int      `db:"year"`
	Name  string   `db:"name"`
	Value *float64 `db:"value"`
}

func (c *Client) ReplaceIndicators(ctx context.Context, country conflict.Country, values []aggregate.IndicatorValue) error {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM indicators WHERE country = $1`, string(country)); err != nil {
		return fmt.Errorf("clearing indicators: %w", err)
	}

	batch := &pgx.Batch{}
	for _, v := range values {
		batch.Queue(`INSERT INTO indicators (country, year, name, value) VALUES ($1, $2, $3, $4)`, string(country), v.Year, v.Name, v.Value)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting indicators: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing indicators: %w", err)
	}
	return nil
}

func (c *Client) GetIndicators(ctx context.Context, country conflict.Country) ([]aggregate.IndicatorValue, error) {
	rows, err := c.pool.Query(ctx, `
SELECT year, name, value
FROM indicators
WHERE country = $1
ORDER BY name, year
`, string(country))
	if err != nil {
		return nil, fmt.Errorf("getting indicators: %w", err)
	}
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[indicatorRow])
	if err != nil {
		return nil, fmt.Errorf("scanning indicators: %w", err)
	}

	out := make([]aggregate.IndicatorValue, 0, len(collected))
	for _, row := range collected {
		out = append(out, aggregate.IndicatorValue{Year: row.Year, Name: row.Name, Value: row.Value})
	}
	return out, nil
}

func (c *Client) RecordSource(ctx context.Context, country conflict.Country, path, hash string) error {
	_, err := c.pool.Exec(ctx, `
INSERT INTO sources (country, path, hash, ingested_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (country, path) DO UPDATE SET
    hash = EXCLUDED.hash,
    ingested_at = now()
`, string(country), path, hash)
	if err != nil {
		return fmt.Errorf("recording source: %w", err)
	}
	return nil
}

func (c *Client) DeleteSource(ctx context.Context, country conflict.Country, path string) error {
	if _, err := c.pool.Exec(ctx, `DELETE FROM sources WHERE country = $1 AND path = $2`, string(country), path); err != nil {
		return fmt.Errorf("deleting source: %w", err)
	}
	return nil
}

func (c *Client) GetSourceHashes(ctx context.Context, country conflict.Country) (map[string]string, error) {
	rows, err := c.pool.Query(ctx, `SELECT path, hash FROM sources WHERE country = $1`, string(country))
	if err != nil {
		return nil, fmt.Errorf("getting source hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, fmt.Errorf("scanning source hash: %w", err)
		}
		hashes[path] = hash
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating source hashes: %w", err)
	}
	return hashes, nil
}
