package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"hmidash/internal/conflict"
	"hmidash/internal/hmi"
	"hmidash/internal/store"
)

func (c *Client) ReplaceHMIRecord(ctx context.Context, country conflict.Country, record *hmi.Record) error {
	if record == nil {
		if _, err := c.db.ExecContext(ctx, `DELETE FROM hmi_records WHERE country = ?`, string(country)); err != nil {
			return fmt.Errorf("deleting hmi record: %w", err)
		}
		return nil
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshaling hmi record: %w", err)
	}
	_, err = c.db.ExecContext(ctx, `
	INSERT INTO hmi_records (country, record)
	VALUES (?, ?)
	ON CONFLICT (country) DO UPDATE SET record = excluded.record
	`, string(country), string(data))
	if err != nil {
		return fmt.Errorf("upserting hmi record: %w", err)
	}
	return nil
}

func (c *Client) GetHMIRecord(ctx context.Context, country conflict.Country) (*hmi.Record, error) {
	var data string
	err := c.db.GetContext(ctx, &data, `SELECT record FROM hmi_records WHERE country = ?`, string(country))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("hmi record for %s: %w", country, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting hmi record: %w", err)
	}

	record := hmi.NewRecord()
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("decoding hmi record: %w", err)
	}
	return &record, nil
}
