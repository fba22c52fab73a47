package conflict

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrUnknownCountry   = errors.New("unknown country")
	ErrInvalidWeighting = errors.New("weighting must be between 1 and 5")
)

// Event is a single georeferenced conflict event. Events are never mutated
// after they are loaded.
type Event struct {
	Date       time.Time `json:"date"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Casualties int       `json:"casualties"`
	SideA      string    `json:"side_a"`
	SideB      string    `json:"side_b"`
}

// InterventionWindow is the period of the humanitarian military intervention
// in a country. A nil End means the intervention is ongoing.
type InterventionWindow struct {
	Start time.Time  `json:"start"`
	End   *time.Time `json:"end,omitempty"`
}

func (w InterventionWindow) Ongoing() bool {
	return w.End == nil
}

type Country string

const (
	Afghanistan Country = "AFG"
	Iraq        Country = "IRQ"
	Somalia     Country = "SOM"
	SriLanka    Country = "LKA"
)

var countryNames = map[Country]string{
	Afghanistan: "Afghanistan",
	Iraq:        "Iraq",
	Somalia:     "Somalia",
	SriLanka:    "Sri Lanka",
}

// Countries returns the closed set of supported countries in display order.
func Countries() []Country {
	return []Country{Afghanistan, Iraq, Somalia, SriLanka}
}

func ParseCountry(code string) (Country, error) {
	c := Country(strings.ToUpper(strings.TrimSpace(code)))
	if _, ok := countryNames[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCountry, code)
	}
	return c, nil
}

func (c Country) Name() string {
	return countryNames[c]
}

func (c Country) String() string {
	return string(c)
}

// Weighting selects the spatial versus temporal emphasis of a clustering:
// 1 is purely spatial, 5 purely temporal and 3 balanced.
type Weighting int

const (
	MinWeighting Weighting = 1
	MaxWeighting Weighting = 5
)

func Weightings() []Weighting {
	out := make([]Weighting, 0, MaxWeighting-MinWeighting+1)
	for w := MinWeighting; w <= MaxWeighting; w++ {
		out = append(out, w)
	}
	return out
}

func (w Weighting) Validate() error {
	if w < MinWeighting || w > MaxWeighting {
		return fmt.Errorf("%w: got %d", ErrInvalidWeighting, int(w))
	}
	return nil
}

func ParseWeighting(s string) (Weighting, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidWeighting, s)
	}
	w := Weighting(n)
	if err := w.Validate(); err != nil {
		return 0, err
	}
	return w, nil
}

// TemporalShare is the fraction of the blended distance contributed by the
// temporal component: 0 at weighting 1, 1 at weighting 5.
func (w Weighting) TemporalShare() float64 {
	return float64(w-MinWeighting) / float64(MaxWeighting-MinWeighting)
}
