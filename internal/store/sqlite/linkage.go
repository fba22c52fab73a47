package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hmidash/internal/conflict"
	"hmidash/internal/linkage"
	"hmidash/internal/store"
)

type buildRow struct {
	ID        string `db:"id"`
	Weighting int    `db:"weighting"`
	Method    string `db:"method"`
	Leaves    int    `db:"leaves"`
	BuiltAt   string `db:"built_at"`
}

func (r buildRow) info() (store.BuildInfo, error) {
	builtAt, err := time.Parse(dateLayout, r.BuiltAt)
	if err != nil {
		return store.BuildInfo{}, fmt.Errorf("parsing build time: %w", err)
	}
	return store.BuildInfo{
		ID:        r.ID,
		Weighting: conflict.Weighting(r.Weighting),
		Method:    r.Method,
		Leaves:    r.Leaves,
		BuiltAt:   builtAt,
	}, nil
}

type mergeRow struct {
	Left     int     `db:"left_id"`
	Right    int     `db:"right_id"`
	Distance float64 `db:"distance"`
	Size     int     `db:"size"`
}

// SaveLinkage replaces the linkage of a (country, weighting) pair.
func (c *Client) SaveLinkage(ctx context.Context, country conflict.Country, weighting conflict.Weighting, l *linkage.Linkage, info store.BuildInfo) error {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
	DELETE FROM linkage_merges
	WHERE linkage_id IN (SELECT id FROM linkages WHERE country = ? AND weighting = ?)
	`, string(country), int(weighting)); err != nil {
		return fmt.Errorf("clearing linkage merges: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM linkages WHERE country = ? AND weighting = ?`, string(country), int(weighting)); err != nil {
		return fmt.Errorf("clearing linkage: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
	INSERT INTO linkages (id, country, weighting, method, leaves, built_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`, info.ID, string(country), int(weighting), info.Method, l.Leaves, info.BuiltAt.UTC().Format(dateLayout))
	if err != nil {
		return fmt.Errorf("inserting linkage: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, `
	INSERT INTO linkage_merges (linkage_id, step, left_id, right_id, distance, size)
	VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing merge insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range l.Merges {
		if _, err := stmt.ExecContext(ctx, info.ID, i, m.Left, m.Right, m.Distance, m.Size); err != nil {
			return fmt.Errorf("inserting merge %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing linkage: %w", err)
	}
	return nil
}

func (c *Client) GetLinkage(ctx context.Context, country conflict.Country, weighting conflict.Weighting) (*linkage.Linkage, error) {
	var build buildRow
	err := c.db.GetContext(ctx, &build, `
	SELECT id, weighting, method, leaves, built_at
	FROM linkages
	WHERE country = ? AND weighting = ?
	`, string(country), int(weighting))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("linkage for %s weighting %d: %w", country, weighting, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting linkage: %w", err)
	}

	var rows []mergeRow
	if err := c.db.SelectContext(ctx, &rows, `
	SELECT left_id, right_id, distance, size
	FROM linkage_merges
	WHERE linkage_id = ?
	ORDER BY step
	`, build.ID); err != nil {
		return nil, fmt.Errorf("getting linkage merges: %w", err)
	}

	l := &linkage.Linkage{Leaves: build.Leaves, Merges: make([]linkage.Merge, 0, len(rows))}
	for _, row := range rows {
		l.Merges = append(l.Merges, linkage.Merge{Left: row.Left, Right: row.Right, Distance: row.Distance, Size: row.Size})
	}
	return l, nil
}

func (c *Client) ListLinkages(ctx context.Context, country conflict.Country) ([]store.BuildInfo, error) {
	var rows []buildRow
	if err := c.db.SelectContext(ctx, &rows, `
	SELECT id, weighting, method, leaves, built_at
	FROM linkages
	WHERE country = ?
	ORDER BY weighting
	`, string(country)); err != nil {
		return nil, fmt.Errorf("listing linkages: %w", err)
	}

	out := make([]store.BuildInfo, 0, len(rows))
	for _, row := range rows {
		info, err := row.info()
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}
