package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hmidash/internal/aggregate"
	"hmidash/internal/config"
	"hmidash/internal/conflict"
	"hmidash/internal/hmi"
	"hmidash/internal/knox"
)

type knoxKey struct {
	country    conflict.Country
	resolution knox.Resolution
	period     knox.Period
}

type mockStore struct {
	ensureCalled  bool
	events        map[conflict.Country][]conflict.Event
	interventions map[conflict.Country]conflict.InterventionWindow
	records       map[conflict.Country]*hmi.Record
	knoxTables    map[knoxKey]*knox.Table
	indicators    map[conflict.Country][]aggregate.IndicatorValue
	hashes        map[conflict.Country]map[string]string
	failEvents    bool
}

func newMockStore() *mockStore {
	return &mockStore{
		events:        map[conflict.Country][]conflict.Event{},
		interventions: map[conflict.Country]conflict.InterventionWindow{},
		records:       map[conflict.Country]*hmi.Record{},
		knoxTables:    map[knoxKey]*knox.Table{},
		indicators:    map[conflict.Country][]aggregate.IndicatorValue{},
		hashes:        map[conflict.Country]map[string]string{},
	}
}

func (m *mockStore) EnsureSchema(ctx context.Context) error {
	m.ensureCalled = true
	return nil
}

func (m *mockStore) ReplaceEvents(ctx context.Context, country conflict.Country, events []conflict.Event) error {
	if m.failEvents {
		return errors.New("forced error")
	}
	m.events[country] = events
	return nil
}

func (m *mockStore) UpsertIntervention(ctx context.Context, country conflict.Country, window conflict.InterventionWindow) error {
	m.interventions[country] = window
	return nil
}

func (m *mockStore) ReplaceHMIRecord(ctx context.Context, country conflict.Country, record *hmi.Record) error {
	if record == nil {
		delete(m.records, country)
		return nil
	}
	m.records[country] = record
	return nil
}

func (m *mockStore) DeleteKnoxTable(ctx context.Context, country conflict.Country, resolution knox.Resolution, period knox.Period) (bool, error) {
	key := knoxKey{country, resolution, period}
	_, ok := m.knoxTables[key]
	delete(m.knoxTables, key)
	return ok, nil
}

func (m *mockStore) DeleteSource(ctx context.Context, country conflict.Country, path string) error {
	delete(m.hashes[country], path)
	return nil
}

func (m *mockStore) SaveKnoxTable(ctx context.Context, country conflict.Country, resolution knox.Resolution, period knox.Period, table *knox.Table) error {
	m.knoxTables[knoxKey{country, resolution, period}] = table
	return nil
}

func (m *mockStore) ReplaceIndicators(ctx context.Context, country conflict.Country, values []aggregate.IndicatorValue) error {
	m.indicators[country] = values
	return nil
}

func (m *mockStore) RecordSource(ctx context.Context, country conflict.Country, path, hash string) error {
	if m.hashes[country] == nil {
		m.hashes[country] = map[string]string{}
	}
	m.hashes[country][path] = hash
	return nil
}

func (m *mockStore) GetSourceHashes(ctx context.Context, country conflict.Country) (map[string]string, error) {
	out := map[string]string{}
	for k, v := range m.hashes[country] {
		out[k] = v
	}
	return out, nil
}

func testProjectConfig(countries ...string) *config.ProjectConfig {
	cfg := &config.ProjectConfig{
		Project: "test",
		Version: 1,
		DataDir: filepath.Join("testdata", "data"),
	}
	for _, code := range countries {
		cfg.Countries = append(cfg.Countries, config.CountryConfig{Code: code, MarkerScaling: 1})
	}
	return cfg
}

func TestRun_BasicIngestion(t *testing.T) {
	db := newMockStore()
	result, err := Run(context.Background(), testProjectConfig("AFG", "IRQ"), db, Options{})
	require.NoError(t, err)
	require.Empty(t, result.Errors)

	assert.True(t, db.ensureCalled)
	assert.Equal(t, 4, result.EventsLoaded)
	assert.Equal(t, 2, result.KnoxTables)
	assert.Equal(t, []conflict.Country{conflict.Afghanistan, conflict.Iraq}, result.EventsChanged)
	assert.Equal(t, 7, result.FilesLoaded)

	afg := db.events[conflict.Afghanistan]
	require.Len(t, afg, 3)
	assert.Equal(t, time.Date(2008, 7, 14, 0, 0, 0, 0, time.UTC), afg[0].Date)
	assert.Equal(t, 12, afg[0].Casualties)
	assert.Equal(t, "Taleban", afg[0].SideB)
	assert.Equal(t, 0, afg[2].Casualties, "missing casualty count reads as zero")

	window := db.interventions[conflict.Afghanistan]
	require.NotNil(t, window.End)
	assert.Equal(t, time.Date(2014, 12, 28, 0, 0, 0, 0, time.UTC), *window.End)
	assert.True(t, db.interventions[conflict.Iraq].Ongoing())

	rec := db.records[conflict.Afghanistan]
	require.NotNil(t, rec)
	assert.Equal(t, "Afghanistan", rec.Target)
	assert.Equal(t, []string{"United States", "United Kingdom"}, rec.Interveners, "-88 interveners are dropped")
	assert.Equal(t, hmi.Code(45000), rec.TargetTroops)
	assert.Equal(t, hmi.NotApplicable, rec.RegioOrg)
	assert.Equal(t, hmi.NotApplicable, rec.GroundTroops, "absent codes are not applicable")
	assert.Equal(t, hmi.Unclear, rec.Force)
	assert.NotContains(t, db.records, conflict.Iraq)

	during := db.knoxTables[knoxKey{conflict.Afghanistan, knox.Low, knox.During}]
	require.NotNil(t, during)
	assert.Equal(t, []float64{7, 14}, during.Rows)
	assert.Equal(t, []float64{1, 5, 10}, during.Cols)
	assert.Nil(t, during.Cells[1][1])
	assert.Equal(t, 0.8, *during.Cells[1][0])
	_, hasAfter := db.knoxTables[knoxKey{conflict.Afghanistan, knox.Low, knox.After}]
	assert.False(t, hasAfter)

	prior := db.knoxTables[knoxKey{conflict.Afghanistan, knox.Low, knox.Prior}]
	require.NotNil(t, prior)
	assert.Nil(t, prior.Cells[0][1], "NaN cell has no data")

	indicators := db.indicators[conflict.Afghanistan]
	require.Len(t, indicators, 4)
	assert.Equal(t, aggregate.IndicatorValue{Year: 2010, Name: "Life expectancy"}, indicators[3])
}

func TestRun_IncrementalSkip(t *testing.T) {
	db := newMockStore()
	_, err := Run(context.Background(), testProjectConfig("AFG"), db, Options{})
	require.NoError(t, err)

	db.events = map[conflict.Country][]conflict.Event{}
	result, err := Run(context.Background(), testProjectConfig("AFG"), db, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.FilesLoaded)
	assert.Equal(t, 5, result.FilesSkipped)
	assert.Empty(t, result.EventsChanged)
	assert.Empty(t, db.events)
}

func TestRun_FullIngestionOverridesHashes(t *testing.T) {
	db := newMockStore()
	_, err := Run(context.Background(), testProjectConfig("AFG"), db, Options{})
	require.NoError(t, err)

	result, err := Run(context.Background(), testProjectConfig("AFG"), db, Options{Full: true})
	require.NoError(t, err)
	assert.Equal(t, 0, result.FilesSkipped)
	assert.Equal(t, 5, result.FilesLoaded)
}

// copyCountry copies a testdata country into a fresh data directory.
func copyCountry(t *testing.T, code string) *config.ProjectConfig {
	t.Helper()
	dataDir := t.TempDir()
	require.NoError(t, os.CopyFS(filepath.Join(dataDir, code), os.DirFS(filepath.Join("testdata", "data", code))))
	cfg := testProjectConfig(code)
	cfg.DataDir = dataDir
	return cfg
}

func TestRun_RemovedFilesClearStoredData(t *testing.T) {
	for name, options := range map[string]Options{"incremental": {}, "full": {Full: true}} {
		t.Run(name, func(t *testing.T) {
			cfg := copyCountry(t, "AFG")
			db := newMockStore()
			_, err := Run(context.Background(), cfg, db, Options{})
			require.NoError(t, err)
			require.Contains(t, db.knoxTables, knoxKey{conflict.Afghanistan, knox.Low, knox.Prior})

			dir := filepath.Join(cfg.DataDir, "AFG")
			require.NoError(t, os.Remove(filepath.Join(dir, "knox", "lowres", "prior.csv")))
			require.NoError(t, os.Remove(filepath.Join(dir, indicatorsFile)))

			result, err := Run(context.Background(), cfg, db, options)
			require.NoError(t, err)
			require.Empty(t, result.Errors)
			assert.Equal(t, 1, result.KnoxRemoved)
			assert.NotContains(t, db.knoxTables, knoxKey{conflict.Afghanistan, knox.Low, knox.Prior})
			assert.Contains(t, db.knoxTables, knoxKey{conflict.Afghanistan, knox.Low, knox.During})
			assert.Empty(t, db.indicators[conflict.Afghanistan])
			assert.NotContains(t, db.hashes[conflict.Afghanistan], "knox/lowres/prior.csv")
			assert.NotContains(t, db.hashes[conflict.Afghanistan], indicatorsFile)

			result, err = Run(context.Background(), cfg, db, Options{})
			require.NoError(t, err)
			assert.Equal(t, 0, result.KnoxRemoved)
		})
	}
}

func TestRun_RecordRemovedFromIntervention(t *testing.T) {
	cfg := copyCountry(t, "AFG")
	db := newMockStore()
	_, err := Run(context.Background(), cfg, db, Options{})
	require.NoError(t, err)
	require.Contains(t, db.records, conflict.Afghanistan)

	path := filepath.Join(cfg.DataDir, "AFG", interventionName)
	require.NoError(t, os.WriteFile(path, []byte("start: 2001-10-07\nend: 2014-12-28\n"), 0o644))
	_, err = Run(context.Background(), cfg, db, Options{})
	require.NoError(t, err)
	assert.NotContains(t, db.records, conflict.Afghanistan)
}

func TestRun_MissingCountryDirectory(t *testing.T) {
	db := newMockStore()
	result, err := Run(context.Background(), testProjectConfig("SOM"), db, Options{})
	require.NoError(t, err)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0].Error(), "missing events.csv")
}

func TestRun_ContinuesOnError(t *testing.T) {
	db := newMockStore()
	db.failEvents = true
	result, err := Run(context.Background(), testProjectConfig("AFG"), db, Options{})
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, db.interventions, conflict.Afghanistan)
	_, recorded := db.hashes[conflict.Afghanistan][eventsFile]
	assert.False(t, recorded, "failed file must be retried next run")
}

func TestParseEvents_Errors(t *testing.T) {
	tests := map[string]string{
		"missing latitude": "date_start,longitude\n2009-01-01,1\n",
		"bad date":         "date_start,latitude,longitude\n01/02/2009,1,1\n",
		"bad latitude":     "date_start,latitude,longitude\n2009-01-01,north,1\n",
		"out of range":     "date_start,latitude,longitude\n2009-01-01,91,1\n",
		"negative best":    "date_start,latitude,longitude,best\n2009-01-01,1,1,-3\n",
		"nan latitude":     "date_start,latitude,longitude\n2009-01-01,NaN,1\n",
		"inf longitude":    "date_start,latitude,longitude\n2009-01-01,1,+Inf\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parseEvents(strings.NewReader(input))
			require.Error(t, err)
		})
	}

	events, err := parseEvents(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestParseIntervention(t *testing.T) {
	_, _, err := parseIntervention([]byte("end: 2010-01-01\n"))
	require.Error(t, err)

	_, _, err = parseIntervention([]byte("start: 2010-01-01\nend: 2009-01-01\n"))
	require.Error(t, err)

	window, rec, err := parseIntervention([]byte("start: 2007-01-19\n"))
	require.NoError(t, err)
	assert.True(t, window.Ongoing())
	assert.Nil(t, rec)
}

func TestParseIntervention_Record(t *testing.T) {
	_, rec, err := parseIntervention([]byte("start: 2011-03-19\nrecord:\n  target: \"-88\"\n  interven1: 42\n  tatroop: 10000\n  unsc: 2\n"))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Empty(t, rec.Target)
	assert.Equal(t, []string{"42"}, rec.Interveners)
	assert.Equal(t, hmi.Code(2), rec.UNSC)
	assert.Equal(t, hmi.NotApplicable, rec.Issue)

	tests := map[string]string{
		"unknown code":   "start: 2011-03-19\nrecord:\n  unsc: 1\n",
		"negative count": "start: 2011-03-19\nrecord:\n  tatroop: -5\n",
		"non-numeric":    "start: 2011-03-19\nrecord:\n  force: often\n",
		"list target":    "start: 2011-03-19\nrecord:\n  target: [a, b]\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := parseIntervention([]byte(input))
			require.Error(t, err)
		})
	}

	_, _, err = parseIntervention([]byte("start: 2011-03-19\nrecord:\n  unsc: 1\n"))
	assert.ErrorIs(t, err, hmi.ErrInvalidCode)
}

func TestParseKnoxTable_RaggedRows(t *testing.T) {
	table, err := parseKnoxTable(strings.NewReader("days,1,5\n7,1.1\n14,0.9,1.2\n"))
	require.NoError(t, err)
	require.Len(t, table.Cells, 2)
	assert.Len(t, table.Cells[0], 1, "short rows are kept short for the normalizer to pad")

	_, err = parseKnoxTable(strings.NewReader("days\n"))
	require.Error(t, err)
}

func TestParseKnoxTable_RejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"negative ratio":        "days,1,5\n7,1.1,-0.2\n",
		"infinite ratio":        "days,1,5\n7,1.1,Inf\n",
		"negative temporal bin": "days,1,5\n-7,1.1,0.9\n",
		"infinite spatial bin":  "days,1,+Inf\n7,1.1,0.9\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parseKnoxTable(strings.NewReader(input))
			require.Error(t, err)
		})
	}

	table, err := parseKnoxTable(strings.NewReader("days,1,5\n7,0,nan\n"))
	require.NoError(t, err)
	require.NotNil(t, table.Cells[0][0])
	assert.Equal(t, 0.0, *table.Cells[0][0], "zero is a valid ratio")
	assert.Nil(t, table.Cells[0][1])
}

func TestComputeHash(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "data", "IRQ", "events.csv"))
	require.NoError(t, err)
	assert.Equal(t, computeHash(data), computeHash(append([]byte(nil), data...)))
	assert.Len(t, computeHash(data), 64)
}
