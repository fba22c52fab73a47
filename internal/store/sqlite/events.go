package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hmidash/internal/conflict"
	"hmidash/internal/store"
)

const dateLayout = time.RFC3339

type eventRow struct {
	Seq        int     `db:"seq"`
	Date       string  `db:"event_date"`
	Latitude   float64 `db:"latitude"`
	Longitude  float64 `db:"longitude"`
	Casualties int     `db:"casualties"`
	SideA      string  `db:"side_a"`
	SideB      string  `db:"side_b"`
}

// ReplaceEvents swaps the whole event set of a country. The slice order is
// kept as the event store order.
func (c *Client) ReplaceEvents(ctx context.Context, country conflict.Country, events []conflict.Event) error {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE country = ?`, string(country)); err != nil {
		return fmt.Errorf("clearing events: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, `
	INSERT INTO events (country, seq, event_date, latitude, longitude, casualties, side_a, side_b)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing event insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range events {
		if _, err := stmt.ExecContext(ctx, string(country), i, e.Date.UTC().Format(dateLayout), e.Latitude, e.Longitude, e.Casualties, e.SideA, e.SideB); err != nil {
			return fmt.Errorf("inserting event %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing events: %w", err)
	}
	return nil
}

func (c *Client) GetEvents(ctx context.Context, country conflict.Country) ([]conflict.Event, error) {
	var rows []eventRow
	err := c.db.SelectContext(ctx, &rows, `
	SELECT seq, event_date, latitude, longitude, casualties, side_a, side_b
	FROM events
	WHERE country = ?
	ORDER BY seq
	`, string(country))
	if err != nil {
		return nil, fmt.Errorf("getting events: %w", err)
	}

	events := make([]conflict.Event, 0, len(rows))
	for _, row := range rows {
		date, err := time.Parse(dateLayout, row.Date)
		if err != nil {
			return nil, fmt.Errorf("parsing date of event %d: %w", row.Seq, err)
		}
		events = append(events, conflict.Event{
			Date:       date,
			Latitude:   row.Latitude,
			Longitude:  row.Longitude,
			Casualties: row.Casualties,
			SideA:      row.SideA,
			SideB:      row.SideB,
		})
	}
	return events, nil
}

type interventionRow struct {
	Start string         `db:"start_date"`
	End   sql.NullString `db:"end_date"`
}

func (c *Client) UpsertIntervention(ctx context.Context, country conflict.Country, window conflict.InterventionWindow) error {
	var end sql.NullString
	if window.End != nil {
		end = sql.NullString{String: window.End.UTC().Format(dateLayout), Valid: true}
	}
	_, err := c.db.ExecContext(ctx, `
	INSERT INTO interventions (country, start_date, end_date)
	VALUES (?, ?, ?)
	ON CONFLICT (country) DO UPDATE SET
		start_date = excluded.start_date,
		end_date = excluded.end_date
	`, string(country), window.Start.UTC().Format(dateLayout), end)
	if err != nil {
		return fmt.Errorf("upserting intervention: %w", err)
	}
	return nil
}

func (c *Client) GetIntervention(ctx context.Context, country conflict.Country) (*conflict.InterventionWindow, error) {
	var row interventionRow
	err := c.db.GetContext(ctx, &row, `SELECT start_date, end_date FROM interventions WHERE country = ?`, string(country))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("intervention for %s: %w", country, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting intervention: %w", err)
	}

	start, err := time.Parse(dateLayout, row.Start)
	if err != nil {
		return nil, fmt.Errorf("parsing intervention start: %w", err)
	}
	window := &conflict.InterventionWindow{Start: start}
	if row.End.Valid {
		end, err := time.Parse(dateLayout, row.End.String)
		if err != nil {
			return nil, fmt.Errorf("parsing intervention end: %w", err)
		}
		window.End = &end
	}
	return window, nil
}
