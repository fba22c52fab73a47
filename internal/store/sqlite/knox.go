package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"hmidash/internal/conflict"
	"hmidash/internal/knox"
)

type knoxRow struct {
	Period string `db:"period"`
	Rows   string `db:"bins_rows"`
	Cols   string `db:"bins_cols"`
	Cells  string `db:"cells"`
}

func (c *Client) SaveKnoxTable(ctx context.Context, country conflict.Country, resolution knox.Resolution, period knox.Period, table *knox.Table) error {
	rows, err := json.Marshal(table.Rows)
	if err != nil {
		return fmt.Errorf("marshaling knox rows: %w", err)
	}
	cols, err := json.Marshal(table.Cols)
	if err != nil {
		return fmt.Errorf("marshaling knox cols: %w", err)
	}
	cells, err := json.Marshal(table.Cells)
	if err != nil {
		return fmt.Errorf("marshaling knox cells: %w", err)
	}

	_, err = c.db.ExecContext(ctx, `
	INSERT INTO knox_tables (country, resolution, period, bins_rows, bins_cols, cells)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (country, resolution, period) DO UPDATE SET
		bins_rows = excluded.bins_rows,
		bins_cols = excluded.bins_cols,
		cells = excluded.cells
	`, string(country), string(resolution), string(period), string(rows), string(cols), string(cells))
	if err != nil {
		return fmt.Errorf("upserting knox table: %w", err)
	}
	return nil
}

func (c *Client) DeleteKnoxTable(ctx context.Context, country conflict.Country, resolution knox.Resolution, period knox.Period) (bool, error) {
	res, err := c.db.ExecContext(ctx, `
	DELETE FROM knox_tables WHERE country = ? AND resolution = ? AND period = ?
	`, string(country), string(resolution), string(period))
	if err != nil {
		return false, fmt.Errorf("deleting knox table: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting knox table: %w", err)
	}
	return n > 0, nil
}

// GetKnoxTables returns the stored tables; periods without a row stay nil.
func (c *Client) GetKnoxTables(ctx context.Context, country conflict.Country, resolution knox.Resolution) (knox.Set, error) {
	var rows []knoxRow
	if err := c.db.SelectContext(ctx, &rows, `
	SELECT period, bins_rows, bins_cols, cells
	FROM knox_tables
	WHERE country = ? AND resolution = ?
	`, string(country), string(resolution)); err != nil {
		return knox.Set{}, fmt.Errorf("getting knox tables: %w", err)
	}

	var set knox.Set
	for _, row := range rows {
		period, err := knox.ParsePeriod(row.Period)
		if err != nil {
			return knox.Set{}, err
		}
		table := &knox.Table{}
		if err := json.Unmarshal([]byte(row.Rows), &table.Rows); err != nil {
			return knox.Set{}, fmt.Errorf("decoding knox rows: %w", err)
		}
		if err := json.Unmarshal([]byte(row.Cols), &table.Cols); err != nil {
			return knox.Set{}, fmt.Errorf("decoding knox cols: %w", err)
		}
		if err := json.Unmarshal([]byte(row.Cells), &table.Cells); err != nil {
			return knox.Set{}, fmt.Errorf("decoding knox cells: %w", err)
		}
		set.Put(period, table)
	}
	return set, nil
}
