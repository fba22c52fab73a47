package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"hmidash/internal/conflict"
	"hmidash/internal/knox"
)

func (c *Client) SaveKnoxTable(ctx context.Context, country conflict.Country, resolution knox.Resolution, period knox.Period, table *knox.Table) error {
	cells, err := json.Marshal(table.Cells)
	if err != nil {
		return fmt.Errorf("marshaling knox cells: %w", err)
	}

	_, err = c.pool.Exec(ctx, `
INSERT INTO knox_tables (country, resolution, period, bins_rows, bins_cols, cells)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (country, resolution, period) DO UPDATE SET
    bins_rows = EXCLUDED.bins_rows,
    bins_cols = EXCLUDED.bins_cols,
    cells = EXCLUDED.cells
`, string(country), string(resolution), string(period), table.Rows, table.Cols, cells)
	if err != nil {
		return fmt.Errorf("upserting knox table: %w", err)
	}
	return nil
}

func (c *Client) DeleteKnoxTable(ctx context.Context, country conflict.Country, resolution knox.Resolution, period knox.Period) (bool, error) {
	tag, err := c.pool.Exec(ctx, `
DELETE FROM knox_tables WHERE country = $1 AND resolution = $2 AND period = $3
`, string(country), string(resolution), string(period))
	if err != nil {
		return false, fmt.Errorf("deleting knox table: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (c *Client) GetKnoxTables(ctx context.Context, country conflict.Country, resolution knox.Resolution) (knox.Set, error) {
	rows, err := c.pool.Query(ctx, `
SELECT period, bins_rows, bins_cols, cells
FROM knox_tables
WHERE country = $1 AND resolution = $2
`, string(country), string(resolution))
	if err != nil {
		return knox.Set{}, fmt.Errorf("getting knox tables: %w", err)
	}
	defer rows.Close()

	var set knox.Set
	for rows.Next() {
		var periodName string
		var cells []byte
		table := &knox.Table{}
		if err := rows.Scan(&periodName, &table.Rows, &table.Cols, &cells); err != nil {
			return knox.Set{}, fmt.Errorf("scanning knox table: %w", err)
		}
		period, err := knox.ParsePeriod(periodName)
		if err != nil {
			return knox.Set{}, err
		}
		if err := json.Unmarshal(cells, &table.Cells); err != nil {
			return knox.Set{}, fmt.Errorf("decoding knox cells: %w", err)
		}
		set.Put(period, table)
	}
	if err := rows.Err(); err != nil {
		return knox.Set{}, fmt.Errorf("iterating knox tables: %w", err)
	}
	return set, nil
}
