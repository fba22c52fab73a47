package knox

import (
	"fmt"
	"slices"
)

// ColorScale is the heatmap value domain. A ratio of 1.0, no space-time
// interaction beyond chance, sits at the midpoint.
type ColorScale struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

var DefaultColorScale = ColorScale{Min: 0.5, Max: 1.5}

func (c ColorScale) Validate() error {
	if !(c.Min < 1 && c.Max > 1) {
		return fmt.Errorf("color scale [%v, %v] must contain 1", c.Min, c.Max)
	}
	if mid := (c.Min + c.Max) / 2; mid < 1-1e-9 || mid > 1+1e-9 {
		return fmt.Errorf("color scale [%v, %v] must be centred on 1", c.Min, c.Max)
	}
	return nil
}

type Panel struct {
	Period Period       `json:"period"`
	Title  string       `json:"title"`
	Empty  bool         `json:"empty"`
	Rows   []float64    `json:"rows"`
	Cols   []float64    `json:"cols"`
	Cells  [][]*float64 `json:"cells"`
}

type Grids struct {
	Panels [3]Panel   `json:"panels"`
	Scale  ColorScale `json:"scale"`
}

// Normalize aligns the prior, during and after tables into three
// rectangular panels. An absent table is replaced by an all-nil panel on
// the bins of During, or After when During is absent too, or Prior as the
// last resort.
func Normalize(prior, during, after *Table, scale ColorScale) (*Grids, error) {
	return NormalizeSet(Set{Prior: prior, During: during, After: after}, scale)
}

func NormalizeSet(set Set, scale ColorScale) (*Grids, error) {
	if err := scale.Validate(); err != nil {
		return nil, err
	}

	ref := set.During
	if ref == nil {
		ref = set.After
	}
	if ref == nil {
		ref = set.Prior
	}
	if ref == nil {
		return nil, ErrNoReferenceGrid
	}

	grids := &Grids{Scale: scale}
	for i, p := range Periods() {
		t := set.Get(p)
		if t == nil {
			grids.Panels[i] = emptyPanel(p, ref)
			continue
		}
		if !sameBins(t, ref) {
			return nil, fmt.Errorf("%w: %s does not match the reference axes", ErrBinMismatch, p)
		}
		cells, err := rectangular(t)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		grids.Panels[i] = Panel{
			Period: p,
			Title:  p.Title(),
			Rows:   slices.Clone(t.Rows),
			Cols:   slices.Clone(t.Cols),
			Cells:  cells,
		}
	}
	return grids, nil
}

func emptyPanel(p Period, ref *Table) Panel {
	cells := make([][]*float64, len(ref.Rows))
	for r := range cells {
		cells[r] = make([]*float64, len(ref.Cols))
	}
	return Panel{
		Period: p,
		Title:  p.Title(),
		Empty:  true,
		Rows:   slices.Clone(ref.Rows),
		Cols:   slices.Clone(ref.Cols),
		Cells:  cells,
	}
}

// rectangular pads short rows with nil cells and adds missing rows.
func rectangular(t *Table) ([][]*float64, error) {
	if len(t.Cells) > len(t.Rows) {
		return nil, fmt.Errorf("%w: %d rows for %d temporal bins", ErrRaggedTable, len(t.Cells), len(t.Rows))
	}
	out := make([][]*float64, len(t.Rows))
	for r := range out {
		out[r] = make([]*float64, len(t.Cols))
		if r >= len(t.Cells) {
			continue
		}
		row := t.Cells[r]
		if len(row) > len(t.Cols) {
			return nil, fmt.Errorf("%w: row %d has %d cells for %d spatial bins", ErrRaggedTable, r, len(row), len(t.Cols))
		}
		for c, v := range row {
			if v != nil {
				value := *v
				out[r][c] = &value
			}
		}
	}
	return out, nil
}

func sameBins(a, b *Table) bool {
	return slices.Equal(a.Rows, b.Rows) && slices.Equal(a.Cols, b.Cols)
}
