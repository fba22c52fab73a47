package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hmidash/internal/conflict"
	"hmidash/internal/linkage"
	"hmidash/internal/logging"
	"hmidash/internal/store"
)

type savedLinkage struct {
	country   conflict.Country
	weighting conflict.Weighting
	linkage   *linkage.Linkage
	info      store.BuildInfo
}

type mockLinkageStore struct {
	events map[conflict.Country][]conflict.Event
	saved  []savedLinkage
}

func (m *mockLinkageStore) GetEvents(ctx context.Context, country conflict.Country) ([]conflict.Event, error) {
	return m.events[country], nil
}

func (m *mockLinkageStore) SaveLinkage(ctx context.Context, country conflict.Country, weighting conflict.Weighting, l *linkage.Linkage, info store.BuildInfo) error {
	m.saved = append(m.saved, savedLinkage{country, weighting, l, info})
	return nil
}

func TestBuildLinkages(t *testing.T) {
	base := time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)
	events := make([]conflict.Event, 0, 8)
	for i := 0; i < 8; i++ {
		events = append(events, conflict.Event{
			Date:      base.AddDate(0, 0, i*11%37),
			Latitude:  33 + float64(i%3),
			Longitude: 44 + float64(i%5)*0.3,
		})
	}
	db := &mockLinkageStore{events: map[conflict.Country][]conflict.Event{conflict.Iraq: events}}

	built, err := BuildLinkages(context.Background(), db, BuildOptions{
		Countries:  []conflict.Country{conflict.Iraq, conflict.Somalia},
		Weightings: conflict.Weightings(),
		Jobs:       3,
	}, logging.Discard())
	require.NoError(t, err)
	require.Len(t, built, 5, "country without events is skipped")
	require.Len(t, db.saved, 5)

	ids := map[string]struct{}{}
	for i, s := range db.saved {
		assert.Equal(t, conflict.Iraq, s.country)
		assert.Equal(t, conflict.Weighting(i+1), s.weighting, "saved in weighting order")
		assert.Equal(t, "average", s.info.Method)
		assert.Equal(t, 8, s.info.Leaves)
		require.NoError(t, s.linkage.Validate())
		_, err := linkage.CutByCount(s.linkage, len(events), 3)
		require.NoError(t, err)
		ids[s.info.ID] = struct{}{}
	}
	assert.Len(t, ids, 5, "every build has its own id")
}

func TestBuildLinkages_Errors(t *testing.T) {
	db := &mockLinkageStore{}
	_, err := BuildLinkages(context.Background(), db, BuildOptions{Weightings: []conflict.Weighting{0}}, logging.Discard())
	assert.ErrorIs(t, err, conflict.ErrInvalidWeighting)

	_, err = BuildLinkages(context.Background(), db, BuildOptions{Method: "ward"}, logging.Discard())
	require.Error(t, err)
}
