package projector

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"hmidash/internal/conflict"
	"hmidash/internal/linkage"
)

// Point is an event annotated with its position in the event store and its
// cluster id.
type Point struct {
	Index   int            `json:"index"`
	Cluster int            `json:"cluster"`
	Event   conflict.Event `json:"event"`
}

// Timeline returns the selected events ordered by date. Events on the same
// date keep their event store order.
func Timeline(a linkage.Assignment, events []conflict.Event, sel Selection) ([]Point, error) {
	points, err := restrict(a, events, sel)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Event.Date.Before(points[j].Event.Date)
	})
	return points, nil
}

// GeoPoint is a map marker sized by casualties.
type GeoPoint struct {
	Index      int     `json:"index"`
	Cluster    int     `json:"cluster"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Casualties int     `json:"casualties"`
}

// Geographic returns the selected events as map markers in event store order.
func Geographic(a linkage.Assignment, events []conflict.Event, sel Selection) ([]GeoPoint, error) {
	points, err := restrict(a, events, sel)
	if err != nil {
		return nil, err
	}
	out := make([]GeoPoint, 0, len(points))
	for _, p := range points {
		out = append(out, GeoPoint{
			Index:      p.Index,
			Cluster:    p.Cluster,
			Latitude:   p.Event.Latitude,
			Longitude:  p.Event.Longitude,
			Casualties: p.Event.Casualties,
		})
	}
	return out, nil
}

func restrict(a linkage.Assignment, events []conflict.Event, sel Selection) ([]Point, error) {
	if err := checkLength(a, events); err != nil {
		return nil, err
	}
	out := make([]Point, 0, len(events))
	for i, e := range events {
		if sel.Matches(a.Labels[i]) {
			out = append(out, Point{Index: i, Cluster: a.Labels[i], Event: e})
		}
	}
	return out, nil
}

type TimeUnit string

const (
	Days  TimeUnit = "days"
	Years TimeUnit = "years"
)

const daysPerYear = 365.25

func ParseTimeUnit(s string) (TimeUnit, error) {
	switch u := TimeUnit(strings.ToLower(strings.TrimSpace(s))); u {
	case "":
		return Days, nil
	case Days, Years:
		return u, nil
	default:
		return "", fmt.Errorf("unsupported time unit: %q", s)
	}
}

// Offset converts the time elapsed since origin into the unit.
func (u TimeUnit) Offset(origin, t time.Time) float64 {
	days := t.Sub(origin).Hours() / 24
	if u == Years {
		return days / daysPerYear
	}
	return days
}

type ScenePoint struct {
	Index      int       `json:"index"`
	Cluster    int       `json:"cluster"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Z          float64   `json:"z"`
	Date       time.Time `json:"date"`
	Casualties int       `json:"casualties"`
	SideA      string    `json:"side_a"`
	SideB      string    `json:"side_b"`
}

type Bounds struct {
	MinLatitude  float64 `json:"min_latitude"`
	MaxLatitude  float64 `json:"max_latitude"`
	MinLongitude float64 `json:"min_longitude"`
	MaxLongitude float64 `json:"max_longitude"`
}

// Corners returns the bounding box as a closed quad in (lat, lon) order.
func (b Bounds) Corners() [4][2]float64 {
	return [4][2]float64{
		{b.MinLatitude, b.MinLongitude},
		{b.MinLatitude, b.MaxLongitude},
		{b.MaxLatitude, b.MaxLongitude},
		{b.MaxLatitude, b.MinLongitude},
	}
}

// Plane is a horizontal reference quad at a fixed time offset.
type Plane struct {
	Name    string        `json:"name"`
	Date    time.Time     `json:"date"`
	Z       float64       `json:"z"`
	Corners [4][2]float64 `json:"corners"`
}

type Scene struct {
	Weighting conflict.Weighting `json:"weighting"`
	Unit      TimeUnit           `json:"unit"`
	Origin    time.Time          `json:"origin"`
	Bounds    Bounds             `json:"bounds"`
	Points    []ScenePoint       `json:"points"`
	Planes    []Plane            `json:"planes"`
}

type SceneOptions struct {
	Unit   TimeUnit
	Planes bool
}

// Scatter3D places every event at (latitude, longitude, elapsed time since
// the earliest event). With Planes set, it adds a start plane and, once the
// intervention has ended, an end plane, both spanning the event bounding
// box and using the same time unit as the points.
func Scatter3D(a linkage.Assignment, events []conflict.Event, w conflict.Weighting, window conflict.InterventionWindow, opts SceneOptions) (Scene, error) {
	if err := checkLength(a, events); err != nil {
		return Scene{}, err
	}
	if err := w.Validate(); err != nil {
		return Scene{}, err
	}
	unit, err := ParseTimeUnit(string(opts.Unit))
	if err != nil {
		return Scene{}, err
	}

	scene := Scene{Weighting: w, Unit: unit, Points: make([]ScenePoint, 0, len(events)), Planes: []Plane{}}
	if len(events) == 0 {
		return scene, nil
	}

	origin := events[0].Date
	bounds := Bounds{
		MinLatitude: math.Inf(1), MaxLatitude: math.Inf(-1),
		MinLongitude: math.Inf(1), MaxLongitude: math.Inf(-1),
	}
	for _, e := range events {
		if e.Date.Before(origin) {
			origin = e.Date
		}
		bounds.MinLatitude = math.Min(bounds.MinLatitude, e.Latitude)
		bounds.MaxLatitude = math.Max(bounds.MaxLatitude, e.Latitude)
		bounds.MinLongitude = math.Min(bounds.MinLongitude, e.Longitude)
		bounds.MaxLongitude = math.Max(bounds.MaxLongitude, e.Longitude)
	}
	scene.Origin = origin
	scene.Bounds = bounds

	for i, e := range events {
		scene.Points = append(scene.Points, ScenePoint{
			Index:      i,
			Cluster:    a.Labels[i],
			Latitude:   e.Latitude,
			Longitude:  e.Longitude,
			Z:          unit.Offset(origin, e.Date),
			Date:       e.Date,
			Casualties: e.Casualties,
			SideA:      e.SideA,
			SideB:      e.SideB,
		})
	}

	if opts.Planes {
		corners := bounds.Corners()
		scene.Planes = append(scene.Planes, Plane{
			Name:    "Start Intervention",
			Date:    window.Start,
			Z:       unit.Offset(origin, window.Start),
			Corners: corners,
		})
		if !window.Ongoing() {
			scene.Planes = append(scene.Planes, Plane{
				Name:    "End Intervention",
				Date:    *window.End,
				Z:       unit.Offset(origin, *window.End),
				Corners: corners,
			})
		}
	}
	return scene, nil
}
