package projector

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"hmidash/internal/conflict"
	"hmidash/internal/linkage"
)

var ErrLengthMismatch = errors.New("assignment length does not match event count")

// Placeholder is rendered for statistics that are undefined.
const Placeholder = "n/a"

// Summary holds per-cluster statistics. Mean is nil when Count is 0 and
// Stdev is nil when Count is below 2; a nil value means "no data", which is
// not the same as zero.
type Summary struct {
	Cluster Selection `json:"cluster"`
	Count   int       `json:"count"`
	Mean    *float64  `json:"mean_casualties"`
	Stdev   *float64  `json:"stdev_casualties"`
}

// Summarize computes the casualty statistics of the selected cluster, or of
// the whole event set for the wildcard. Stdev is the sample standard
// deviation.
func Summarize(a linkage.Assignment, events []conflict.Event, sel Selection) (Summary, error) {
	if err := checkLength(a, events); err != nil {
		return Summary{}, err
	}

	var values []float64
	for i, e := range events {
		if sel.Matches(a.Labels[i]) {
			values = append(values, float64(e.Casualties))
		}
	}

	s := Summary{Cluster: sel, Count: len(values)}
	if len(values) == 0 {
		return s, nil
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	s.Mean = &mean

	if len(values) < 2 {
		return s, nil
	}
	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	stdev := math.Sqrt(sq / float64(len(values)-1))
	s.Stdev = &stdev
	return s, nil
}

// Row renders the summary as table cells: cluster, count, mean, stdev.
func (s Summary) Row() [4]string {
	return [4]string{s.Cluster.String(), strconv.Itoa(s.Count), formatStat(s.Mean), formatStat(s.Stdev)}
}

func formatStat(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func checkLength(a linkage.Assignment, events []conflict.Event) error {
	if a.Len() != len(events) {
		return fmt.Errorf("%w: %d labels, %d events", ErrLengthMismatch, a.Len(), len(events))
	}
	return nil
}
