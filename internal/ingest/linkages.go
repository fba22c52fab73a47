package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"hmidash/internal/conflict"
	"hmidash/internal/distance"
	"hmidash/internal/linkage"
	"hmidash/internal/logging"
	"hmidash/internal/store"
)

// LinkageStore is what the offline linkage builder reads and writes.
type LinkageStore interface {
	GetEvents(ctx context.Context, country conflict.Country) ([]conflict.Event, error)
	SaveLinkage(ctx context.Context, country conflict.Country, weighting conflict.Weighting, l *linkage.Linkage, info store.BuildInfo) error
}

type BuildOptions struct {
	Countries  []conflict.Country
	Weightings []conflict.Weighting
	Method     linkage.Method
	// Jobs bounds how many weightings of one country are clustered at
	// once. Each job holds a condensed distance matrix in memory.
	Jobs int
}

// BuildLinkages clusters every requested country at every requested
// weighting and stores the resulting dendrograms. Countries without events
// are skipped.
func BuildLinkages(ctx context.Context, db LinkageStore, options BuildOptions, logger *logging.Logger) ([]store.BuildInfo, error) {
	jobs := options.Jobs
	if jobs < 1 {
		jobs = 1
	}
	method, err := linkage.ParseMethod(string(options.Method))
	if err != nil {
		return nil, err
	}
	for _, w := range options.Weightings {
		if err := w.Validate(); err != nil {
			return nil, err
		}
	}

	var built []store.BuildInfo
	for _, country := range options.Countries {
		events, err := db.GetEvents(ctx, country)
		if err != nil {
			return nil, fmt.Errorf("loading events for %s: %w", country, err)
		}
		if len(events) == 0 {
			logger.Warn("no events, skipping linkage build", "country", country)
			continue
		}

		model := distance.NewModel(events)
		linkages := make([]*linkage.Linkage, len(options.Weightings))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(jobs)
		for i, w := range options.Weightings {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				start := time.Now()
				l, err := linkage.BuildEvents(model, events, w, method)
				if err != nil {
					return fmt.Errorf("clustering %s weighting %d: %w", country, w, err)
				}
				linkages[i] = l
				logger.Info("linkage built",
					"country", country,
					"weighting", int(w),
					"events", len(events),
					"elapsed", time.Since(start).Round(time.Millisecond))
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		for i, w := range options.Weightings {
			info := store.BuildInfo{
				ID:        uuid.NewString(),
				Weighting: w,
				Method:    string(method),
				Leaves:    linkages[i].Leaves,
				BuiltAt:   time.Now().UTC().Truncate(time.Second),
			}
			if err := db.SaveLinkage(ctx, country, w, linkages[i], info); err != nil {
				return nil, fmt.Errorf("saving %s weighting %d: %w", country, w, err)
			}
			built = append(built, info)
		}
	}
	return built, nil
}
