package catalog

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"hmidash/internal/aggregate"
	"hmidash/internal/config"
	"hmidash/internal/conflict"
	"hmidash/internal/hmi"
	"hmidash/internal/knox"
	"hmidash/internal/linkage"
	"hmidash/internal/logging"
	"hmidash/internal/store"
)

var ErrMissingLinkage = errors.New("no linkage built for weighting")

// Store is the read side of store.Store.
type Store interface {
	GetEvents(ctx context.Context, country conflict.Country) ([]conflict.Event, error)
	GetIntervention(ctx context.Context, country conflict.Country) (*conflict.InterventionWindow, error)
	GetHMIRecord(ctx context.Context, country conflict.Country) (*hmi.Record, error)
	GetLinkage(ctx context.Context, country conflict.Country, weighting conflict.Weighting) (*linkage.Linkage, error)
	ListLinkages(ctx context.Context, country conflict.Country) ([]store.BuildInfo, error)
	GetKnoxTables(ctx context.Context, country conflict.Country, resolution knox.Resolution) (knox.Set, error)
	GetIndicators(ctx context.Context, country conflict.Country) ([]aggregate.IndicatorValue, error)
}

// CountryData is everything the dashboard shows for one country.
type CountryData struct {
	Country       conflict.Country
	Events        []conflict.Event
	Window        conflict.InterventionWindow
	Record        *hmi.Record // nil without a coded record
	Linkages      map[conflict.Weighting]*linkage.Linkage
	Knox          knox.Set
	Indicators    []aggregate.IndicatorValue
	MarkerScaling float64
}

// Catalog is built once and never modified afterwards, so it is safe for
// concurrent readers.
type Catalog struct {
	order      []conflict.Country
	countries  map[conflict.Country]*CountryData
	resolution knox.Resolution
	scale      knox.ColorScale
}

// New assembles a catalog from in-memory data. Every linkage must match the
// event count of its country.
func New(resolution knox.Resolution, scale knox.ColorScale, countries ...*CountryData) (*Catalog, error) {
	c := &Catalog{
		countries:  make(map[conflict.Country]*CountryData, len(countries)),
		resolution: resolution,
		scale:      scale,
	}
	for _, data := range countries {
		if _, exists := c.countries[data.Country]; exists {
			return nil, fmt.Errorf("duplicate country: %s", data.Country)
		}
		if data.MarkerScaling <= 0 {
			data.MarkerScaling = 1
		}
		for w, l := range data.Linkages {
			if err := l.Validate(); err != nil {
				return nil, fmt.Errorf("%s weighting %d: %w", data.Country, w, err)
			}
			if l.Leaves != len(data.Events) {
				return nil, fmt.Errorf("%s weighting %d: %w: linkage has %d leaves, %d events loaded; rebuild linkages",
					data.Country, w, linkage.ErrLeafMismatch, l.Leaves, len(data.Events))
			}
		}
		c.order = append(c.order, data.Country)
		c.countries[data.Country] = data
	}
	return c, nil
}

// Load reads every configured country from the store, one country per
// goroutine.
func Load(ctx context.Context, db Store, cfg *config.ProjectConfig, logger *logging.Logger) (*Catalog, error) {
	resolution, err := knox.ParseResolution(cfg.Knox.Resolution)
	if err != nil {
		return nil, err
	}

	codes := cfg.CountryCodes()
	loaded := make([]*CountryData, len(codes))

	g, gctx := errgroup.WithContext(ctx)
	for i, code := range codes {
		g.Go(func() error {
			data, err := loadCountry(gctx, db, code, resolution)
			if err != nil {
				return fmt.Errorf("loading %s: %w", code, err)
			}
			data.MarkerScaling = cfg.MarkerScaling(code)
			loaded[i] = data

			logger.Info("country loaded",
				"country", code,
				"events", len(data.Events),
				"linkages", len(data.Linkages),
				"indicators", len(data.Indicators))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return New(resolution, cfg.Knox.ColorDomain, loaded...)
}

func loadCountry(ctx context.Context, db Store, code conflict.Country, resolution knox.Resolution) (*CountryData, error) {
	events, err := db.GetEvents(ctx, code)
	if err != nil {
		return nil, err
	}
	window, err := db.GetIntervention(ctx, code)
	if err != nil {
		return nil, err
	}

	record, err := db.GetHMIRecord(ctx, code)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	builds, err := db.ListLinkages(ctx, code)
	if err != nil {
		return nil, err
	}
	linkages := make(map[conflict.Weighting]*linkage.Linkage, len(builds))
	for _, build := range builds {
		l, err := db.GetLinkage(ctx, code, build.Weighting)
		if err != nil {
			return nil, err
		}
		linkages[build.Weighting] = l
	}

	set, err := db.GetKnoxTables(ctx, code, resolution)
	if err != nil {
		return nil, err
	}
	indicators, err := db.GetIndicators(ctx, code)
	if err != nil {
		return nil, err
	}

	return &CountryData{
		Country:    code,
		Events:     events,
		Window:     *window,
		Record:     record,
		Linkages:   linkages,
		Knox:       set,
		Indicators: indicators,
	}, nil
}

// Countries returns the loaded countries in configuration order.
func (c *Catalog) Countries() []conflict.Country {
	return append([]conflict.Country(nil), c.order...)
}

func (c *Catalog) Country(code conflict.Country) (*CountryData, error) {
	data, ok := c.countries[code]
	if !ok {
		return nil, fmt.Errorf("%w: %q", conflict.ErrUnknownCountry, code)
	}
	return data, nil
}

func (c *Catalog) Events(code conflict.Country) ([]conflict.Event, error) {
	data, err := c.Country(code)
	if err != nil {
		return nil, err
	}
	return data.Events, nil
}

func (c *Catalog) Window(code conflict.Country) (conflict.InterventionWindow, error) {
	data, err := c.Country(code)
	if err != nil {
		return conflict.InterventionWindow{}, err
	}
	return data.Window, nil
}

// Record returns the coded HMI record, or an empty one when none was
// loaded.
func (c *Catalog) Record(code conflict.Country) (hmi.Record, error) {
	data, err := c.Country(code)
	if err != nil {
		return hmi.Record{}, err
	}
	if data.Record == nil {
		return hmi.NewRecord(), nil
	}
	return *data.Record, nil
}

func (c *Catalog) Linkage(code conflict.Country, w conflict.Weighting) (*linkage.Linkage, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	data, err := c.Country(code)
	if err != nil {
		return nil, err
	}
	l, ok := data.Linkages[w]
	if !ok {
		return nil, fmt.Errorf("%s: %w %d", code, ErrMissingLinkage, w)
	}
	return l, nil
}

// Weightings returns the weightings with a stored linkage, ascending.
func (c *Catalog) Weightings(code conflict.Country) ([]conflict.Weighting, error) {
	data, err := c.Country(code)
	if err != nil {
		return nil, err
	}
	var out []conflict.Weighting
	for _, w := range conflict.Weightings() {
		if _, ok := data.Linkages[w]; ok {
			out = append(out, w)
		}
	}
	return out, nil
}

func (c *Catalog) Knox(code conflict.Country) (knox.Set, error) {
	data, err := c.Country(code)
	if err != nil {
		return knox.Set{}, err
	}
	return data.Knox, nil
}

func (c *Catalog) Indicators(code conflict.Country) ([]aggregate.IndicatorValue, error) {
	data, err := c.Country(code)
	if err != nil {
		return nil, err
	}
	return data.Indicators, nil
}

func (c *Catalog) MarkerScaling(code conflict.Country) (float64, error) {
	data, err := c.Country(code)
	if err != nil {
		return 0, err
	}
	return data.MarkerScaling, nil
}

func (c *Catalog) Resolution() knox.Resolution {
	return c.resolution
}

func (c *Catalog) ColorScale() knox.ColorScale {
	return c.scale
}
