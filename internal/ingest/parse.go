package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"hmidash/internal/aggregate"
	"hmidash/internal/conflict"
	"hmidash/internal/hmi"
	"hmidash/internal/knox"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.000",
	time.RFC3339,
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// isMissing reports whether a CSV cell holds no value.
func isMissing(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "na", "nan", "null", "..":
		return true
	}
	return false
}

// parseFinite parses a float that must be neither NaN nor infinite.
func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a finite number", s)
	}
	return v, nil
}

// parseNonNegative parses a finite float that must not be negative.
func parseNonNegative(s string) (float64, error) {
	v, err := parseFinite(s)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("%q is negative", s)
	}
	return v, nil
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr
}

var eventColumns = map[string][]string{
	"date":       {"date_start", "date"},
	"latitude":   {"latitude", "lat"},
	"longitude":  {"longitude", "lon", "lng"},
	"casualties": {"best", "casualties", "deaths"},
	"side_a":     {"side_a"},
	"side_b":     {"side_b"},
}

// parseEvents reads a UCDP-style event export. Columns are matched by
// header name so extra columns are ignored.
func parseEvents(r io.Reader) ([]conflict.Event, error) {
	cr := newReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	cols := make(map[string]int, len(eventColumns))
	for field, aliases := range eventColumns {
		cols[field] = -1
		for _, alias := range aliases {
			if i, ok := index[alias]; ok {
				cols[field] = i
				break
			}
		}
	}
	for _, required := range []string{"date", "latitude", "longitude"} {
		if cols[required] < 0 {
			return nil, fmt.Errorf("missing %s column", required)
		}
	}

	cell := func(record []string, field string) string {
		i := cols[field]
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var events []conflict.Event
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		date, err := parseDate(cell(record, "date"))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		lat, err := parseFinite(cell(record, "latitude"))
		if err != nil {
			return nil, fmt.Errorf("line %d: latitude: %w", line, err)
		}
		lon, err := parseFinite(cell(record, "longitude"))
		if err != nil {
			return nil, fmt.Errorf("line %d: longitude: %w", line, err)
		}
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return nil, fmt.Errorf("line %d: coordinates out of range", line)
		}
		casualties := 0
		if raw := cell(record, "casualties"); !isMissing(raw) {
			casualties, err = strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("line %d: casualties: %w", line, err)
			}
			if casualties < 0 {
				return nil, fmt.Errorf("line %d: negative casualties", line)
			}
		}

		events = append(events, conflict.Event{
			Date:       date,
			Latitude:   lat,
			Longitude:  lon,
			Casualties: casualties,
			SideA:      cell(record, "side_a"),
			SideB:      cell(record, "side_b"),
		})
	}
	return events, nil
}

type interventionFile struct {
	Start  string      `yaml:"start"`
	End    string      `yaml:"end"`
	Record *recordFile `yaml:"record"`
}

// recordFile is the coded HMI entry. Absent codes are not applicable.
type recordFile struct {
	Target    codedText `yaml:"target"`
	Interven1 codedText `yaml:"interven1"`
	Interven2 codedText `yaml:"interven2"`
	Interven3 codedText `yaml:"interven3"`

	Issue    *hmi.Code `yaml:"issue"`
	UNSC     *hmi.Code `yaml:"unsc"`
	RegioOrg *hmi.Code `yaml:"regioorg"`
	GovtPerm *hmi.Code `yaml:"govtperm"`
	Contra4  *hmi.Code `yaml:"contra4"`
	Contra5  *hmi.Code `yaml:"contra5"`

	TaTroop  *hmi.Code `yaml:"tatroop"`
	GroundFo *hmi.Code `yaml:"groundfo"`
	GroundNo *hmi.Code `yaml:"groundno"`
	Active   *hmi.Code `yaml:"active"`
	Force    *hmi.Code `yaml:"force"`
}

// codedText accepts any scalar, so an unquoted -88 reads as text.
type codedText string

func (t *codedText) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar", node.Line)
	}
	*t = codedText(strings.TrimSpace(node.Value))
	return nil
}

func (f *recordFile) toRecord() (*hmi.Record, error) {
	r := hmi.NewRecord()
	if hmi.IsText(string(f.Target)) {
		r.Target = string(f.Target)
	}
	for _, name := range []codedText{f.Interven1, f.Interven2, f.Interven3} {
		if hmi.IsText(string(name)) {
			r.Interveners = append(r.Interveners, string(name))
		}
	}

	set := func(dst *hmi.Code, src *hmi.Code) {
		if src != nil {
			*dst = *src
		}
	}
	set(&r.Issue, f.Issue)
	set(&r.UNSC, f.UNSC)
	set(&r.RegioOrg, f.RegioOrg)
	set(&r.GovtPerm, f.GovtPerm)
	set(&r.Contra4, f.Contra4)
	set(&r.Contra5, f.Contra5)
	set(&r.TargetTroops, f.TaTroop)
	set(&r.GroundForces, f.GroundFo)
	set(&r.GroundTroops, f.GroundNo)
	set(&r.Active, f.Active)
	set(&r.Force, f.Force)

	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// parseIntervention returns the window and, when the file carries a
// record block, the coded HMI record.
func parseIntervention(data []byte) (conflict.InterventionWindow, *hmi.Record, error) {
	var raw interventionFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return conflict.InterventionWindow{}, nil, fmt.Errorf("decoding intervention: %w", err)
	}
	if strings.TrimSpace(raw.Start) == "" {
		return conflict.InterventionWindow{}, nil, fmt.Errorf("intervention start is required")
	}
	start, err := parseDate(raw.Start)
	if err != nil {
		return conflict.InterventionWindow{}, nil, fmt.Errorf("intervention start: %w", err)
	}

	window := conflict.InterventionWindow{Start: start}
	if strings.TrimSpace(raw.End) != "" {
		end, err := parseDate(raw.End)
		if err != nil {
			return conflict.InterventionWindow{}, nil, fmt.Errorf("intervention end: %w", err)
		}
		if end.Before(start) {
			return conflict.InterventionWindow{}, nil, fmt.Errorf("intervention ends before it starts")
		}
		window.End = &end
	}

	if raw.Record == nil {
		return window, nil, nil
	}
	record, err := raw.Record.toRecord()
	if err != nil {
		return conflict.InterventionWindow{}, nil, fmt.Errorf("intervention record: %w", err)
	}
	return window, record, nil
}

// parseKnoxTable reads a ratio table whose header row carries the spatial
// bins and whose first column carries the temporal bins. Rows may be
// shorter than the header; missing cells stay nil.
func parseKnoxTable(r io.Reader) (*knox.Table, error) {
	cr := newReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("header has no spatial bins")
	}

	table := &knox.Table{}
	for _, raw := range header[1:] {
		v, err := parseNonNegative(raw)
		if err != nil {
			return nil, fmt.Errorf("spatial bin %q: %w", raw, err)
		}
		table.Cols = append(table.Cols, v)
	}

	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(record) == 0 || isMissing(record[0]) {
			continue
		}
		bin, err := parseNonNegative(record[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: temporal bin: %w", line, err)
		}
		row := make([]*float64, 0, len(record)-1)
		for _, raw := range record[1:] {
			if isMissing(raw) {
				row = append(row, nil)
				continue
			}
			v, err := parseNonNegative(raw)
			if err != nil {
				return nil, fmt.Errorf("line %d: ratio: %w", line, err)
			}
			row = append(row, &v)
		}
		table.Rows = append(table.Rows, bin)
		table.Cells = append(table.Cells, row)
	}
	return table, nil
}

// parseIndicators reads a wide table: a Year column followed by one column
// per indicator.
func parseIndicators(r io.Reader) ([]aggregate.IndicatorValue, error) {
	cr := newReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	yearCol := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), "year") {
			yearCol = i
			break
		}
	}
	if yearCol < 0 {
		return nil, fmt.Errorf("missing Year column")
	}

	var values []aggregate.IndicatorValue
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if yearCol >= len(record) {
			return nil, fmt.Errorf("line %d: missing year", line)
		}
		year, err := strconv.Atoi(strings.TrimSpace(record[yearCol]))
		if err != nil {
			return nil, fmt.Errorf("line %d: year: %w", line, err)
		}
		for i, name := range header {
			if i == yearCol {
				continue
			}
			v := aggregate.IndicatorValue{Year: year, Name: strings.TrimSpace(name)}
			if i < len(record) && !isMissing(record[i]) {
				f, err := parseFinite(record[i])
				if err != nil {
					return nil, fmt.Errorf("line %d: %s: %w", line, v.Name, err)
				}
				v.Value = &f
			}
			values = append(values, v)
		}
	}
	return values, nil
}
