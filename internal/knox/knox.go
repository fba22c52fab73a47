package knox

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoReferenceGrid = errors.New("no knox table available for any period")
	ErrRaggedTable     = errors.New("knox table row is longer than its column axis")
	ErrBinMismatch     = errors.New("knox tables use different bins")
)

// Table holds observed/expected event-pair ratios. Rows are temporal bins in
// days, columns spatial bins in kilometres. A nil cell has no data.
type Table struct {
	Rows  []float64    `json:"rows"`
	Cols  []float64    `json:"cols"`
	Cells [][]*float64 `json:"cells"`
}

type Period string

const (
	Prior  Period = "prior"
	During Period = "during"
	After  Period = "after"
)

// Periods returns the fixed panel order.
func Periods() []Period {
	return []Period{Prior, During, After}
}

func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case Prior, During, After:
		return p, nil
	default:
		return "", fmt.Errorf("unknown knox period: %q", s)
	}
}

func (p Period) Title() string {
	switch p {
	case Prior:
		return "Prior to HMI"
	case During:
		return "During HMI"
	default:
		return "After HMI"
	}
}

type Resolution string

const (
	Low  Resolution = "lowres"
	High Resolution = "highres"
)

func ParseResolution(s string) (Resolution, error) {
	switch r := Resolution(strings.ToLower(strings.TrimSpace(s))); r {
	case "":
		return Low, nil
	case Low, High:
		return r, nil
	default:
		return "", fmt.Errorf("unknown knox resolution: %q", s)
	}
}

// Set is the three period tables of one country at one resolution. A nil
// entry means the period has no table.
type Set struct {
	Prior  *Table
	During *Table
	After  *Table
}

func (s Set) Get(p Period) *Table {
	switch p {
	case Prior:
		return s.Prior
	case During:
		return s.During
	default:
		return s.After
	}
}

func (s *Set) Put(p Period, t *Table) {
	switch p {
	case Prior:
		s.Prior = t
	case During:
		s.During = t
	default:
		s.After = t
	}
}
