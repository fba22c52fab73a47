package aggregate

import (
	"fmt"
	"time"

	"hmidash/internal/conflict"
)

// Month is the casualty and event total of one calendar month, labelled by
// its last day.
type Month struct {
	Month      time.Time `json:"month"`
	Casualties int       `json:"casualties"`
	Events     int       `json:"events"`
	MarkerSize float64   `json:"marker_size"`
}

// Monthly groups events by calendar month. The series runs without gaps from
// the month of the earliest event to that of the latest one. MarkerSize is
// the casualty total divided by scaling.
func Monthly(events []conflict.Event, scaling float64) ([]Month, error) {
	if scaling <= 0 {
		return nil, fmt.Errorf("marker scaling must be positive, got %v", scaling)
	}
	if len(events) == 0 {
		return []Month{}, nil
	}

	first, last := monthStart(events[0].Date), monthStart(events[0].Date)
	type bucket struct{ casualties, events int }
	buckets := make(map[time.Time]*bucket)
	for _, e := range events {
		key := monthStart(e.Date)
		if key.Before(first) {
			first = key
		}
		if key.After(last) {
			last = key
		}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		b.casualties += e.Casualties
		b.events++
	}

	var out []Month
	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		month := Month{Month: m.AddDate(0, 1, -1)}
		if b, ok := buckets[m]; ok {
			month.Casualties = b.casualties
			month.Events = b.events
		}
		month.MarkerSize = float64(month.Casualties) / scaling
		out = append(out, month)
	}
	return out, nil
}

// YearSpan returns the first and last year with events.
func YearSpan(events []conflict.Event) (int, int, bool) {
	if len(events) == 0 {
		return 0, 0, false
	}
	lo, hi := events[0].Date.Year(), events[0].Date.Year()
	for _, e := range events[1:] {
		y := e.Date.Year()
		if y < lo {
			lo = y
		}
		if y > hi {
			hi = y
		}
	}
	return lo, hi, true
}

func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
