package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"hmidash/internal/conflict"
	"hmidash/internal/hmi"
	"hmidash/internal/store"
)

func (c *Client) ReplaceHMIRecord(ctx context.Context, country conflict.Country, record *hmi.Record) error {
	if record == nil {
		if _, err := c.pool.Exec(ctx, `DELETE FROM hmi_records WHERE country = $1`, string(country)); err != nil {
			return fmt.Errorf("deleting hmi record: %w", err)
		}
		return nil
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshaling hmi record: %w", err)
	}
	_, err = c.pool.Exec(ctx, `
INSERT INTO hmi_records (country, record)
VALUES ($1, $2)
ON CONFLICT (country) DO UPDATE SET record = EXCLUDED.record
`, string(country), data)
	if err != nil {
		return fmt.Errorf("upserting hmi record: %w", err)
	}
	return nil
}

func (c *Client) GetHMIRecord(ctx context.Context, country conflict.Country) (*hmi.Record, error) {
	var data []byte
	err := c.pool.QueryRow(ctx, `SELECT record FROM hmi_records WHERE country = $1`, string(country)).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("hmi record for %s: %w", country, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting hmi record: %w", err)
	}

	record := hmi.NewRecord()
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decoding hmi record: %w", err)
	}
	return &record, nil
}
