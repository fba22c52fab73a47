package store

import (
	"context"
	"errors"

	"hmidash/internal/aggregate"
	"hmidash/internal/conflict"
	"hmidash/internal/hmi"
	"hmidash/internal/knox"
	"hmidash/internal/linkage"
)

var ErrNotFound = errors.New("not found")

type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	ReplaceEvents(ctx context.Context, country conflict.Country, events []conflict.Event) error
	UpsertIntervention(ctx context.Context, country conflict.Country, window conflict.InterventionWindow) error
	// ReplaceHMIRecord stores the coded intervention record; nil removes it.
	ReplaceHMIRecord(ctx context.Context, country conflict.Country, record *hmi.Record) error
	SaveLinkage(ctx context.Context, country conflict.Country, weighting conflict.Weighting, l *linkage.Linkage, info BuildInfo) error
	SaveKnoxTable(ctx context.Context, country conflict.Country, resolution knox.Resolution, period knox.Period, table *knox.Table) error
	// DeleteKnoxTable reports whether a table was stored.
	DeleteKnoxTable(ctx context.Context, country conflict.Country, resolution knox.Resolution, period knox.Period) (bool, error)
	ReplaceIndicators(ctx context.Context, country conflict.Country, values []aggregate.IndicatorValue) error
	RecordSource(ctx context.Context, country conflict.Country, path, hash string) error
	DeleteSource(ctx context.Context, country conflict.Country, path string) error

	GetEvents(ctx context.Context, country conflict.Country) ([]conflict.Event, error)
	GetIntervention(ctx context.Context, country conflict.Country) (*conflict.InterventionWindow, error)
	GetHMIRecord(ctx context.Context, country conflict.Country) (*hmi.Record, error)
	GetLinkage(ctx context.Context, country conflict.Country, weighting conflict.Weighting) (*linkage.Linkage, error)
	GetKnoxTables(ctx context.Context, country conflict.Country, resolution knox.Resolution) (knox.Set, error)
	GetIndicators(ctx context.Context, country conflict.Country) ([]aggregate.IndicatorValue, error)
	GetSourceHashes(ctx context.Context, country conflict.Country) (map[string]string, error)
	ListLinkages(ctx context.Context, country conflict.Country) ([]BuildInfo, error)
}
