package distance

import (
	"math"

	"hmidash/internal/conflict"
)

const earthRadiusKm = 6371

const hoursPerDay = 24

// Model blends normalized great-circle distance and normalized elapsed time.
// The divisors are fixed per country so that distances computed with
// different weightings stay comparable.
type Model struct {
	MaxSpatialKm    float64
	MaxTemporalDays float64
}

// NewModel derives the normalization divisors from a country's full event
// set: the great-circle length of the bounding-box diagonal and the span in
// days between the earliest and latest event.
func NewModel(events []conflict.Event) Model {
	if len(events) == 0 {
		return Model{}
	}

	minLat, maxLat := events[0].Latitude, events[0].Latitude
	minLon, maxLon := events[0].Longitude, events[0].Longitude
	first, last := events[0].Date, events[0].Date
	for _, e := range events[1:] {
		minLat = math.Min(minLat, e.Latitude)
		maxLat = math.Max(maxLat, e.Latitude)
		minLon = math.Min(minLon, e.Longitude)
		maxLon = math.Max(maxLon, e.Longitude)
		if e.Date.Before(first) {
			first = e.Date
		}
		if e.Date.After(last) {
			last = e.Date
		}
	}

	return Model{
		MaxSpatialKm:    Haversine(minLat, minLon, maxLat, maxLon),
		MaxTemporalDays: last.Sub(first).Hours() / hoursPerDay,
	}
}

// Spatial returns the great-circle separation divided by MaxSpatialKm.
func (m Model) Spatial(a, b conflict.Event) float64 {
	if m.MaxSpatialKm <= 0 {
		return 0
	}
	return Haversine(a.Latitude, a.Longitude, b.Latitude, b.Longitude) / m.MaxSpatialKm
}

// Temporal returns the normalized elapsed time between two events.
func (m Model) Temporal(a, b conflict.Event) float64 {
	if m.MaxTemporalDays <= 0 {
		return 0
	}
	days := math.Abs(a.Date.Sub(b.Date).Hours()) / hoursPerDay
	return days / m.MaxTemporalDays
}

// Distance is (1-α)·spatial + α·temporal where α is the temporal share of
// the weighting.
func (m Model) Distance(a, b conflict.Event, w conflict.Weighting) (float64, error) {
	if err := w.Validate(); err != nil {
		return 0, err
	}
	return m.blend(a, b, w.TemporalShare()), nil
}

func (m Model) blend(a, b conflict.Event, alpha float64) float64 {
	var d float64
	if alpha < 1 {
		d += (1 - alpha) * m.Spatial(a, b)
	}
	if alpha > 0 {
		d += alpha * m.Temporal(a, b)
	}
	return d
}

// Condensed returns the upper triangle of the pairwise distance matrix in
// row-major order: the entry for i < j lives at CondensedIndex(n, i, j).
func (m Model) Condensed(events []conflict.Event, w conflict.Weighting) ([]float64, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	alpha := w.TemporalShare()
	n := len(events)
	if n < 2 {
		return []float64{}, nil
	}
	out := make([]float64, 0, n*(n-1)/2)
	for i := 0; i < n-1; i++ {
		for j := i + 1; j < n; j++ {
			out = append(out, m.blend(events[i], events[j], alpha))
		}
	}
	return out, nil
}

// CondensedIndex maps the pair (i, j), i != j, to its position in a
// condensed matrix over n points.
func CondensedIndex(n, i, j int) int {
	if i > j {
		i, j = j, i
	}
	return n*i - i*(i+1)/2 + (j - i - 1)
}

// Haversine returns the great-circle distance in kilometres.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}
