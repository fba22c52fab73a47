package mcp

import (
	"time"

	"hmidash/internal/aggregate"
	"hmidash/internal/hmi"
	"hmidash/internal/knox"
	"hmidash/internal/projector"
	"hmidash/internal/view"
)

const dateLayout = "2006-01-02"

type ParamsOutput struct {
	Country   string `json:"country"`
	Weighting int    `json:"weighting"`
	Clusters  int    `json:"clusters"`
	Planes    bool   `json:"planes"`
	Unit      string `json:"unit"`
}

type SummaryOutput struct {
	Cluster string   `json:"cluster"`
	Count   int      `json:"count"`
	Mean    *float64 `json:"mean_casualties"`
	Stdev   *float64 `json:"stdev_casualties"`
	Row     []string `json:"row"`
}

type EventPointOutput struct {
	Index      int     `json:"index"`
	Cluster    int     `json:"cluster"`
	Date       string  `json:"date"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Casualties int     `json:"casualties"`
	SideA      string  `json:"side_a,omitempty"`
	SideB      string  `json:"side_b,omitempty"`
}

type ScenePointOutput struct {
	Index      int     `json:"index"`
	Cluster    int     `json:"cluster"`
	Date       string  `json:"date"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Z          float64 `json:"z"`
	Casualties int     `json:"casualties"`
	SideA      string  `json:"side_a,omitempty"`
	SideB      string  `json:"side_b,omitempty"`
}

type PlaneOutput struct {
	Name    string      `json:"name"`
	Date    string      `json:"date"`
	Z       float64     `json:"z"`
	Corners [][]float64 `json:"corners"`
}

type SceneOutput struct {
	Unit   string             `json:"unit"`
	Origin string             `json:"origin"`
	Points []ScenePointOutput `json:"points"`
	Planes []PlaneOutput      `json:"planes"`
}

type DashboardOutput struct {
	Params      ParamsOutput       `json:"params"`
	Selection   string             `json:"selection"`
	Clusters    []int              `json:"clusters"`
	ClusterText string             `json:"cluster_text"`
	Summary     SummaryOutput      `json:"summary"`
	Timeline    []EventPointOutput `json:"timeline"`
	Geographic  []EventPointOutput `json:"geographic"`
	Scene       SceneOutput        `json:"scene"`
}

type PanelOutput struct {
	Period string       `json:"period"`
	Title  string       `json:"title"`
	Empty  bool         `json:"empty"`
	Rows   []float64    `json:"rows"`
	Cols   []float64    `json:"cols"`
	Cells  [][]*float64 `json:"cells"`
}

type KnoxGridsOutput struct {
	Country    string        `json:"country"`
	Resolution string        `json:"resolution"`
	Min        float64       `json:"min"`
	Max        float64       `json:"max"`
	Panels     []PanelOutput `json:"panels"`
}

type SidebarEntryOutput struct {
	Field string `json:"field"`
	Label string `json:"label"`
	Value string `json:"value"`
}

type SidebarOutput struct {
	Title   string               `json:"title"`
	Entries []SidebarEntryOutput `json:"entries"`
}

type InterventionSummaryOutput struct {
	Country  string          `json:"country"`
	Name     string          `json:"name"`
	Sidebars []SidebarOutput `json:"sidebars"`
}

type MonthOutput struct {
	Month      string  `json:"month"`
	Casualties int     `json:"casualties"`
	Events     int     `json:"events"`
	MarkerSize float64 `json:"marker_size"`
}

type MonthlyOutput struct {
	Country string        `json:"country"`
	Months  []MonthOutput `json:"months"`
}

type IndicatorPointOutput struct {
	Year  int      `json:"year"`
	Value *float64 `json:"value"`
}

type IndicatorsOutput struct {
	Country string                 `json:"country"`
	Names   []string               `json:"names"`
	Name    string                 `json:"name,omitempty"`
	Series  []IndicatorPointOutput `json:"series"`
}

func formatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

func paramsOutput(p view.Params) ParamsOutput {
	return ParamsOutput{
		Country:   string(p.Country),
		Weighting: int(p.Weighting),
		Clusters:  p.Clusters,
		Planes:    p.Planes,
		Unit:      string(p.Unit),
	}
}

func dashboardOutput(d *view.Dashboard) DashboardOutput {
	row := d.Summary.Row()
	out := DashboardOutput{
		Params:      paramsOutput(d.Params),
		Selection:   d.Selection.String(),
		Clusters:    d.Clusters,
		ClusterText: d.ClusterText,
		Summary: SummaryOutput{
			Cluster: d.Summary.Cluster.String(),
			Count:   d.Summary.Count,
			Mean:    d.Summary.Mean,
			Stdev:   d.Summary.Stdev,
			Row:     row[:],
		},
		Timeline:   make([]EventPointOutput, 0, len(d.Timeline)),
		Geographic: make([]EventPointOutput, 0, len(d.Geographic)),
		Scene:      sceneOutput(d.Scene),
	}
	for _, p := range d.Timeline {
		out.Timeline = append(out.Timeline, EventPointOutput{
			Index:      p.Index,
			Cluster:    p.Cluster,
			Date:       formatDate(p.Event.Date),
			Latitude:   p.Event.Latitude,
			Longitude:  p.Event.Longitude,
			Casualties: p.Event.Casualties,
			SideA:      p.Event.SideA,
			SideB:      p.Event.SideB,
		})
	}
	for _, g := range d.Geographic {
		out.Geographic = append(out.Geographic, EventPointOutput{
			Index:      g.Index,
			Cluster:    g.Cluster,
			Latitude:   g.Latitude,
			Longitude:  g.Longitude,
			Casualties: g.Casualties,
		})
	}
	return out
}

func sceneOutput(scene projector.Scene) SceneOutput {
	out := SceneOutput{
		Unit:   string(scene.Unit),
		Points: make([]ScenePointOutput, 0, len(scene.Points)),
		Planes: make([]PlaneOutput, 0, len(scene.Planes)),
	}
	if !scene.Origin.IsZero() {
		out.Origin = formatDate(scene.Origin)
	}
	for _, p := range scene.Points {
		out.Points = append(out.Points, ScenePointOutput{
			Index:      p.Index,
			Cluster:    p.Cluster,
			Date:       formatDate(p.Date),
			Latitude:   p.Latitude,
			Longitude:  p.Longitude,
			Z:          p.Z,
			Casualties: p.Casualties,
			SideA:      p.SideA,
			SideB:      p.SideB,
		})
	}
	for _, plane := range scene.Planes {
		corners := make([][]float64, 0, len(plane.Corners))
		for _, c := range plane.Corners {
			corners = append(corners, []float64{c[0], c[1]})
		}
		out.Planes = append(out.Planes, PlaneOutput{
			Name:    plane.Name,
			Date:    formatDate(plane.Date),
			Z:       plane.Z,
			Corners: corners,
		})
	}
	return out
}

func knoxGridsOutput(country string, resolution knox.Resolution, grids *knox.Grids) KnoxGridsOutput {
	out := KnoxGridsOutput{
		Country:    country,
		Resolution: string(resolution),
		Min:        grids.Scale.Min,
		Max:        grids.Scale.Max,
		Panels:     make([]PanelOutput, 0, len(grids.Panels)),
	}
	for _, p := range grids.Panels {
		out.Panels = append(out.Panels, PanelOutput{
			Period: string(p.Period),
			Title:  p.Title,
			Empty:  p.Empty,
			Rows:   p.Rows,
			Cols:   p.Cols,
			Cells:  p.Cells,
		})
	}
	return out
}

func interventionSummaryOutput(country, name string, panels [3]hmi.Panel) InterventionSummaryOutput {
	out := InterventionSummaryOutput{Country: country, Name: name, Sidebars: make([]SidebarOutput, 0, len(panels))}
	for _, p := range panels {
		sidebar := SidebarOutput{Title: p.Title, Entries: make([]SidebarEntryOutput, 0, len(p.Entries))}
		for _, e := range p.Entries {
			sidebar.Entries = append(sidebar.Entries, SidebarEntryOutput{Field: e.Field, Label: e.Label, Value: e.Value})
		}
		out.Sidebars = append(out.Sidebars, sidebar)
	}
	return out
}

func monthlyOutput(country string, months []aggregate.Month) MonthlyOutput {
	out := MonthlyOutput{Country: country, Months: make([]MonthOutput, 0, len(months))}
	for _, m := range months {
		out.Months = append(out.Months, MonthOutput{
			Month:      formatDate(m.Month),
			Casualties: m.Casualties,
			Events:     m.Events,
			MarkerSize: m.MarkerSize,
		})
	}
	return out
}
