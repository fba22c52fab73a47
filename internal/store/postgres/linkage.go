package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"hmidash/internal/conflict"
	"hmidash/internal/linkage"
	"hmidash/internal/store"
)

type buildRow struct {
	ID        uuid.UUID `db:"id"`
	Weighting int       `db:"weighting"`
	Method    string    `db:"method"`
	Leaves    int       `db:"leaves"`
	BuiltAt   time.Time `db:"built_at"`
}

func (r buildRow) info() store.BuildInfo {
	return store.BuildInfo{
		ID:        r.ID.String(),
		Weighting: conflict.Weighting(r.Weighting),
		Method:    r.Method,
		Leaves:    r.Leaves,
		BuiltAt:   r.BuiltAt.UTC(),
	}
}

type mergeRow struct {
	Left     int     `db:"left_id"`
	Right    int     `db:"right_id"`
	Distance float64 `db:"distance"`
	Size     int     `db:"size"`
}

// SaveLinkage replaces the linkage of a (country, weighting) pair. The build
// id must be a UUID.
func (c *Client) SaveLinkage(ctx context.Context, country conflict.Country, weighting conflict.Weighting, l *linkage.Linkage, info store.BuildInfo) error {
	id, err := uuid.Parse(info.ID)
	if err != nil {
		return fmt.Errorf("parsing build id: %w", err)
	}

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM linkages WHERE country = $1 AND weighting = $2`, string(country), int(weighting)); err != nil {
		return fmt.Errorf("clearing linkage: %w", err)
	}
	_, err = tx.Exec(ctx, `
INSERT INTO linkages (id, country, weighting, method, leaves, built_at)
VALUES ($1, $2, $3, $4, $5, $6)
`, id, string(country), int(weighting), info.Method, l.Leaves, info.BuiltAt.UTC())
	if err != nil {
		return fmt.Errorf("inserting linkage: %w", err)
	}

	columns := []string{"linkage_id", "step", "left_id", "right_id", "distance", "size"}
	source := pgx.CopyFromSlice(len(l.Merges), func(i int) ([]any, error) {
		m := l.Merges[i]
		return []any{id, i, m.Left, m.Right, m.Distance, m.Size}, nil
	})
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"linkage_merges"}, columns, source); err != nil {
		return fmt.Errorf("copying merges: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing linkage: %w", err)
	}
	return nil
}

func (c *Client) GetLinkage(ctx context.Context, country conflict.Country, weighting conflict.Weighting) (*linkage.Linkage, error) {
	var id uuid.UUID
	var leaves int
	err := c.pool.QueryRow(ctx, `
SELECT id, leaves FROM linkages WHERE country = $1 AND weighting = $2
`, string(country), int(weighting)).Scan(&id, &leaves)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("linkage for %s weighting %d: %w", country, weighting, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting linkage: %w", err)
	}

	rows, err := c.pool.Query(ctx, `
SELECT left_id, right_id, distance, size
FROM linkage_merges
WHERE linkage_id = $1
ORDER BY step
`, id)
	if err != nil {
		return nil, fmt.Errorf("getting linkage merges: %w", err)
	}
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[mergeRow])
	if err != nil {
		return nil, fmt.Errorf("scanning linkage merges: %w", err)
	}

	l := &linkage.Linkage{Leaves: leaves, Merges: make([]linkage.Merge, 0, len(collected))}
	for _, row := range collected {
		l.Merges = append(l.Merges, linkage.Merge{Left: row.Left, Right: row.Right, Distance: row.Distance, Size: row.Size})
	}
	return l, nil
}

func (c *Client) ListLinkages(ctx context.Context, country conflict.Country) ([]store.BuildInfo, error) {
	rows, err := c.pool.Query(ctx, `
SELECT id, weighting, method, leaves, built_at
FROM linkages
WHERE country = $1
ORDER BY weighting
`, string(country))
	if err != nil {
		return nil, fmt.Errorf("listing linkages: %w", err)
	}
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[buildRow])
	if err != nil {
		return nil, fmt.Errorf("scanning linkages: %w", err)
	}

	out := make([]store.BuildInfo, 0, len(collected))
	for _, row := range collected {
		out = append(out, row.info())
	}
	return out, nil
}
