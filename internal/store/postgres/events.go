package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"hmidash/internal/conflict"
	"hmidash/internal/store"
)

type eventRow struct {
	Seq        int       `db:"seq"`
	Date       time.Time `db:"event_date"`
	Latitude   float64   `db:"latitude"`
	Longitude  float64   `db:"longitude"`
	Casualties int       `db:"casualties"`
	SideA      string    `db:"side_a"`
	SideB      string    `db:"side_b"`
}

// ReplaceEvents swaps the whole event set of a country using COPY.
func (c *Client) ReplaceEvents(ctx context.Context, country conflict.Country, events []conflict.Event) error {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM events WHERE country = $1`, string(country)); err != nil {
		return fmt.Errorf("clearing events: %w", err)
	}

	columns := []string{"country", "seq", "event_date", "latitude", "longitude", "casualties", "side_a", "side_b"}
	source := pgx.CopyFromSlice(len(events), func(i int) ([]any, error) {
		e := events[i]
		return []any{string(country), i, e.Date.UTC(), e.Latitude, e.Longitude, e.Casualties, e.SideA, e.SideB}, nil
	})
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"events"}, columns, source); err != nil {
		return fmt.Errorf("copying events: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing events: %w", err)
	}
	return nil
}

func (c *Client) GetEvents(ctx context.Context, country conflict.Country) ([]conflict.Event, error) {
	rows, err := c.pool.Query(ctx, `
SELECT seq, event_date, latitude, longitude, casualties, side_a, side_b
FROM events
WHERE country = $1
ORDER BY seq
`, string(country))
	if err != nil {
		return nil, fmt.Errorf("getting events: %w", err)
	}

	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[eventRow])
	if err != nil {
		return nil, fmt.Errorf("scanning events: %w", err)
	}

	events := make([]conflict.Event, 0, len(collected))
	for _, row := range collected {
		events = append(events, conflict.Event{
			Date:       row.Date.UTC(),
			Latitude:   row.Latitude,
			Longitude:  row.Longitude,
			Casualties: row.Casualties,
			SideA:      row.SideA,
			SideB:      row.SideB,
		})
	}
	return events, nil
}

func (c *Client) UpsertIntervention(ctx context.Context, country conflict.Country, window conflict.InterventionWindow) error {
	var end *time.Time
	if window.End != nil {
		t := window.End.UTC()
		end = &t
	}
	_, err := c.pool.Exec(ctx, `
INSERT INTO interventions (country, start_date, end_date)
VALUES ($1, $2, $3)
ON CONFLICT (country) DO UPDATE SET
    start_date = EXCLUDED.start_date,
    end_date = EXCLUDED.end_date
`, string(country), window.Start.UTC(), end)
	if err != nil {
		return fmt.Errorf("upserting intervention: %w", err)
	}
	return nil
}

func (c *Client) GetIntervention(ctx context.Context, country conflict.Country) (*conflict.InterventionWindow, error) {
	var start time.Time
	var end *time.Time
	err := c.pool.QueryRow(ctx, `SELECT start_date, end_date FROM interventions WHERE country = $1`, string(country)).Scan(&start, &end)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("intervention for %s: %w", country, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting intervention: %w", err)
	}

	window := &conflict.InterventionWindow{Start: start.UTC()}
	if end != nil {
		t := end.UTC()
		window.End = &t
	}
	return window, nil
}
