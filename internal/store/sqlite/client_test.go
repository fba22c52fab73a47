package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hmidash/internal/aggregate"
	"hmidash/internal/conflict"
	"hmidash/internal/hmi"
	"hmidash/internal/knox"
	"hmidash/internal/linkage"
	"hmidash/internal/store"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()
	c, err := New(ctx, "sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { c.Close(ctx) })
	require.NoError(t, c.EnsureSchema(ctx))
	return c
}

func ptr(v float64) *float64 { return &v }

func TestParseDSN(t *testing.T) {
	tests := map[string]string{
		"sqlite://:memory:":              ":memory:",
		"sqlite://hmidash.db":            "./hmidash.db",
		"sqlite://./data/hmidash.db":     "./data/hmidash.db",
		"sqlite:///var/lib/hmidash.db":   "/var/lib/hmidash.db",
		"sqlite://hmi%20dash.db?mode=ro": "./hmi dash.db?mode=ro",
	}
	for in, want := range tests {
		got, err := parseDSN(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"postgres://localhost/hmi", "sqlite://", "hmidash.db"} {
		_, err := parseDSN(bad)
		assert.Error(t, err, bad)
	}
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	c := newTestClient(t)
	require.NoError(t, c.EnsureSchema(context.Background()))
}

func TestEvents(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	events := []conflict.Event{
		{Date: time.Date(2009, 3, 2, 0, 0, 0, 0, time.UTC), Latitude: 34.5, Longitude: 69.2, Casualties: 4, SideA: "Government of Afghanistan", SideB: "Taleban"},
		{Date: time.Date(2008, 7, 14, 0, 0, 0, 0, time.UTC), Latitude: 31.6, Longitude: 65.7, Casualties: 12, SideA: "Government of Afghanistan", SideB: "Taleban"},
	}
	require.NoError(t, c.ReplaceEvents(ctx, conflict.Afghanistan, events))

	got, err := c.GetEvents(ctx, conflict.Afghanistan)
	require.NoError(t, err)
	assert.Equal(t, events, got, "store order is insertion order")

	require.NoError(t, c.ReplaceEvents(ctx, conflict.Afghanistan, events[:1]))
	got, err = c.GetEvents(ctx, conflict.Afghanistan)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = c.GetEvents(ctx, conflict.Iraq)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestIntervention(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	_, err := c.GetIntervention(ctx, conflict.Somalia)
	assert.True(t, errors.Is(err, store.ErrNotFound))

	start := time.Date(2007, 1, 19, 0, 0, 0, 0, time.UTC)
	require.NoError(t, c.UpsertIntervention(ctx, conflict.Somalia, conflict.InterventionWindow{Start: start}))
	got, err := c.GetIntervention(ctx, conflict.Somalia)
	require.NoError(t, err)
	assert.Equal(t, start, got.Start)
	assert.Nil(t, got.End)

	end := time.Date(2014, 12, 31, 0, 0, 0, 0, time.UTC)
	require.NoError(t, c.UpsertIntervention(ctx, conflict.Somalia, conflict.InterventionWindow{Start: start, End: &end}))
	got, err = c.GetIntervention(ctx, conflict.Somalia)
	require.NoError(t, err)
	require.NotNil(t, got.End)
	assert.Equal(t, end, *got.End)
}

func TestLinkage(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	l := &linkage.Linkage{
		Leaves: 4,
		Merges: []linkage.Merge{
			{Left: 0, Right: 1, Distance: 1, Size: 2},
			{Left: 2, Right: 4, Distance: 2.5, Size: 3},
			{Left: 3, Right: 5, Distance: 17.0 / 3.0, Size: 4},
		},
	}
	info := store.BuildInfo{ID: "b1", Weighting: 3, Method: "average", Leaves: 4, BuiltAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	require.NoError(t, c.SaveLinkage(ctx, conflict.Iraq, 3, l, info))

	got, err := c.GetLinkage(ctx, conflict.Iraq, 3)
	require.NoError(t, err)
	assert.Equal(t, l, got)
	require.NoError(t, got.Validate())

	_, err = c.GetLinkage(ctx, conflict.Iraq, 1)
	assert.True(t, errors.Is(err, store.ErrNotFound))

	info.ID = "b2"
	require.NoError(t, c.SaveLinkage(ctx, conflict.Iraq, 3, l, info))
	builds, err := c.ListLinkages(ctx, conflict.Iraq)
	require.NoError(t, err)
	require.Len(t, builds, 1)
	assert.Equal(t, "b2", builds[0].ID)
	assert.Equal(t, info.BuiltAt, builds[0].BuiltAt)

	var orphans int
	require.NoError(t, c.db.GetContext(ctx, &orphans, `SELECT COUNT(*) FROM linkage_merges WHERE linkage_id = 'b1'`))
	assert.Zero(t, orphans)
}

func TestKnoxTables(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	during := &knox.Table{
		Rows:  []float64{7, 14},
		Cols:  []float64{1, 5},
		Cells: [][]*float64{{ptr(1.2), nil}, {ptr(0.8), ptr(1)}},
	}
	require.NoError(t, c.SaveKnoxTable(ctx, conflict.SriLanka, knox.High, knox.During, during))

	set, err := c.GetKnoxTables(ctx, conflict.SriLanka, knox.High)
	require.NoError(t, err)
	assert.Nil(t, set.Prior)
	assert.Nil(t, set.After)
	assert.Equal(t, during, set.During)

	set, err = c.GetKnoxTables(ctx, conflict.SriLanka, knox.Low)
	require.NoError(t, err)
	assert.Nil(t, set.During)

	deleted, err := c.DeleteKnoxTable(ctx, conflict.SriLanka, knox.High, knox.During)
	require.NoError(t, err)
	assert.True(t, deleted)
	set, err = c.GetKnoxTables(ctx, conflict.SriLanka, knox.High)
	require.NoError(t, err)
	assert.Nil(t, set.During)

	deleted, err = c.DeleteKnoxTable(ctx, conflict.SriLanka, knox.High, knox.During)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestHMIRecord(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	_, err := c.GetHMIRecord(ctx, conflict.Somalia)
	assert.True(t, errors.Is(err, store.ErrNotFound))

	rec := hmi.NewRecord()
	rec.Target = "Somalia"
	rec.Interveners = []string{"United States", "Italy"}
	rec.UNSC = 2
	rec.TargetTroops = 28000
	rec.Contra5 = hmi.NoData
	require.NoError(t, c.ReplaceHMIRecord(ctx, conflict.Somalia, &rec))

	got, err := c.GetHMIRecord(ctx, conflict.Somalia)
	require.NoError(t, err)
	assert.Equal(t, rec, *got)

	require.NoError(t, c.ReplaceHMIRecord(ctx, conflict.Somalia, nil))
	_, err = c.GetHMIRecord(ctx, conflict.Somalia)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestIndicatorsAndSources(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	values := []aggregate.IndicatorValue{
		{Year: 2010, Name: "GDP per capita", Value: ptr(543.3)},
		{Year: 2011, Name: "GDP per capita"},
	}
	require.NoError(t, c.ReplaceIndicators(ctx, conflict.Afghanistan, values))
	got, err := c.GetIndicators(ctx, conflict.Afghanistan)
	require.NoError(t, err)
	assert.Equal(t, values, got)

	require.NoError(t, c.RecordSource(ctx, conflict.Afghanistan, "events.csv", "abc"))
	require.NoError(t, c.RecordSource(ctx, conflict.Afghanistan, "events.csv", "def"))
	hashes, err := c.GetSourceHashes(ctx, conflict.Afghanistan)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"events.csv": "def"}, hashes)

	require.NoError(t, c.DeleteSource(ctx, conflict.Afghanistan, "events.csv"))
	hashes, err = c.GetSourceHashes(ctx, conflict.Afghanistan)
	require.NoError(t, err)
	assert.Empty(t, hashes)
}

func TestFileDatabase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "hmidash.db")
	c, err := New(ctx, "sqlite://"+path)
	require.NoError(t, err)
	require.NoError(t, c.EnsureSchema(ctx))
	require.NoError(t, c.RecordSource(ctx, conflict.Iraq, "events.csv", "abc"))
	require.NoError(t, c.Close(ctx))

	c, err = New(ctx, "sqlite://"+path)
	require.NoError(t, err)
	defer c.Close(ctx)
	hashes, err := c.GetSourceHashes(ctx, conflict.Iraq)
	require.NoError(t, err)
	assert.Equal(t, "abc", hashes["events.csv"])
}
