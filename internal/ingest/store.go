package ingest

import (
	"context"

	"hmidash/internal/aggregate"
	"hmidash/internal/conflict"
	"hmidash/internal/hmi"
	"hmidash/internal/knox"
)

// Store is the subset of store.Store the loader writes to.
type Store interface {
	EnsureSchema(ctx context.Context) error
	ReplaceEvents(ctx context.Context, country conflict.Country, events []conflict.Event) error
	UpsertIntervention(ctx context.Context, country conflict.Country, window conflict.InterventionWindow) error
	ReplaceHMIRecord(ctx context.Context, country conflict.Country, record *hmi.Record) error
	SaveKnoxTable(ctx context.Context, country conflict.Country, resolution knox.Resolution, period knox.Period, table *knox.Table) error
	DeleteKnoxTable(ctx context.Context, country conflict.Country, resolution knox.Resolution, period knox.Period) (bool, error)
	ReplaceIndicators(ctx context.Context, country conflict.Country, values []aggregate.IndicatorValue) error
	RecordSource(ctx context.Context, country conflict.Country, path, hash string) error
	DeleteSource(ctx context.Context, country conflict.Country, path string) error
	GetSourceHashes(ctx context.Context, country conflict.Country) (map[string]string, error)
}
