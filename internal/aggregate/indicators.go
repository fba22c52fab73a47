package aggregate

import "sort"

// IndicatorValue is one yearly socioeconomic observation. Value is nil when
// the source has no figure for that year.
type IndicatorValue struct {
	Year  int      `json:"year"`
	Name  string   `json:"name"`
	Value *float64 `json:"value"`
}

type IndicatorPoint struct {
	Year  int      `json:"year"`
	Value *float64 `json:"value"`
}

// IndicatorSeries returns the named indicator for fromYear..toYear
// inclusive, ordered by year.
func IndicatorSeries(values []IndicatorValue, name string, fromYear, toYear int) []IndicatorPoint {
	out := make([]IndicatorPoint, 0)
	for _, v := range values {
		if v.Name != name || v.Year < fromYear || v.Year > toYear {
			continue
		}
		out = append(out, IndicatorPoint{Year: v.Year, Value: v.Value})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// IndicatorNames lists the distinct indicator names in ascending order.
func IndicatorNames(values []IndicatorValue) []string {
	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, v := range values {
		if _, ok := seen[v.Name]; ok {
			continue
		}
		seen[v.Name] = struct{}{}
		names = append(names, v.Name)
	}
	sort.Strings(names)
	return names
}
