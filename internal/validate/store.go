package validate

import (
	"context"

	"hmidash/internal/conflict"
	"hmidash/internal/knox"
	"hmidash/internal/linkage"
	"hmidash/internal/store"
)

type Validator interface {
	GetEvents(ctx context.Context, country conflict.Country) ([]conflict.Event, error)
	GetIntervention(ctx context.Context, country conflict.Country) (*conflict.InterventionWindow, error)
	ListLinkages(ctx context.Context, country conflict.Country) ([]store.BuildInfo, error)
	GetLinkage(ctx context.Context, country conflict.Country, weighting conflict.Weighting) (*linkage.Linkage, error)
	GetKnoxTables(ctx context.Context, country conflict.Country, resolution knox.Resolution) (knox.Set, error)
}
