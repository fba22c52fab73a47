package mcp

import (
	"context"
	"fmt"
	"math"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"hmidash/internal/aggregate"
	"hmidash/internal/conflict"
	"hmidash/internal/hmi"
	"hmidash/internal/knox"
	"hmidash/internal/projector"
	"hmidash/internal/view"
)

type ListCountriesInput struct{}

type SetClusterParamsInput struct {
	Country   string `json:"country" jsonschema:"country code: AFG, IRQ, SOM or LKA"`
	Weighting int    `json:"weighting,omitempty" jsonschema:"1 pure spatial to 5 pure temporal, default 3"`
	Clusters  int    `json:"clusters,omitempty" jsonschema:"number of clusters, 1 to 40, default 10"`
	Planes    bool   `json:"planes,omitempty" jsonschema:"show intervention start/end planes in the 3-D view"`
	Unit      string `json:"unit,omitempty" jsonschema:"time axis unit of the 3-D view: days or years"`
}

type SelectClusterInput struct {
	Cluster string `json:"cluster" jsonschema:"cluster id to select, or * to clear the selection"`
}

type GetClusterViewsInput struct{}

type CountryInput struct {
	Country string `json:"country" jsonschema:"country code: AFG, IRQ, SOM or LKA"`
}

type GetIndicatorsInput struct {
	Country  string `json:"country" jsonschema:"country code: AFG, IRQ, SOM or LKA"`
	Name     string `json:"name,omitempty" jsonschema:"indicator name; omit to list the available names"`
	FromYear int    `json:"from_year,omitempty" jsonschema:"first year, inclusive"`
	ToYear   int    `json:"to_year,omitempty" jsonschema:"last year, inclusive"`
}

type CountryOutput struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	Events     int    `json:"events"`
	Weightings []int  `json:"weightings"`
	HMIStart   string `json:"hmi_start"`
	HMIEnd     string `json:"hmi_end,omitempty"`
}

type ListCountriesOutput struct {
	Countries []CountryOutput `json:"countries"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_countries",
		Description: "List the loaded countries with event counts, available weightings and intervention dates",
	}, s.handleListCountries)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "set_cluster_params",
		Description: "Set country, weighting and cluster count; any change that re-clusters clears the selected cluster",
	}, s.handleSetClusterParams)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "select_cluster",
		Description: "Select a cluster of the 3-D view to filter the statistics, timeline and map",
	}, s.handleSelectCluster)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_cluster_views",
		Description: "Return the cluster statistics, timeline, map and 3-D views for the current state",
	}, s.handleGetClusterViews)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_intervention_summary",
		Description: "Return the intervention sidebars: basic summary, approval and motivations, and intervention characteristics",
	}, s.handleGetInterventionSummary)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_knox_grids",
		Description: "Return the Knox ratio heatmaps before, during and after the intervention",
	}, s.handleGetKnoxGrids)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_monthly_casualties",
		Description: "Return monthly casualty totals for a country",
	}, s.handleGetMonthlyCasualties)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_indicators",
		Description: "Return a socioeconomic indicator series for a country",
	}, s.handleGetIndicators)
}

func (s *Server) handleListCountries(ctx context.Context, req *sdk.CallToolRequest, input ListCountriesInput) (*sdk.CallToolResult, ListCountriesOutput, error) {
	out := ListCountriesOutput{Countries: make([]CountryOutput, 0)}
	for _, code := range s.cat.Countries() {
		data, err := s.cat.Country(code)
		if err != nil {
			return nil, ListCountriesOutput{}, err
		}
		weightings, err := s.cat.Weightings(code)
		if err != nil {
			return nil, ListCountriesOutput{}, err
		}
		country := CountryOutput{
			Code:       string(code),
			Name:       code.Name(),
			Events:     len(data.Events),
			Weightings: make([]int, 0, len(weightings)),
			HMIStart:   formatDate(data.Window.Start),
		}
		if data.Window.End != nil {
			country.HMIEnd = formatDate(*data.Window.End)
		}
		for _, w := range weightings {
			country.Weightings = append(country.Weightings, int(w))
		}
		out.Countries = append(out.Countries, country)
	}
	return nil, out, nil
}

func (s *Server) handleSetClusterParams(ctx context.Context, req *sdk.CallToolRequest, input SetClusterParamsInput) (*sdk.CallToolResult, DashboardOutput, error) {
	code, err := conflict.ParseCountry(input.Country)
	if err != nil {
		return nil, DashboardOutput{}, err
	}
	if _, err := s.cat.Country(code); err != nil {
		return nil, DashboardOutput{}, err
	}
	unit, err := projector.ParseTimeUnit(input.Unit)
	if err != nil {
		return nil, DashboardOutput{}, err
	}

	p := view.DefaultParams(code)
	if input.Weighting != 0 {
		p.Weighting = conflict.Weighting(input.Weighting)
	}
	if input.Clusters != 0 {
		p.Clusters = input.Clusters
	}
	p.Planes = input.Planes
	p.Unit = unit

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		session, err := view.NewSession(p)
		if err != nil {
			return nil, DashboardOutput{}, err
		}
		s.session = session
	} else if err := s.session.Update(s.cat, p); err != nil {
		return nil, DashboardOutput{}, err
	}
	s.logger.Debug("cluster params set",
		"country", p.Country, "weighting", p.Weighting, "clusters", p.Clusters)
	return s.buildLocked()
}

func (s *Server) handleSelectCluster(ctx context.Context, req *sdk.CallToolRequest, input SelectClusterInput) (*sdk.CallToolResult, DashboardOutput, error) {
	sel, err := projector.ParseSelection(input.Cluster)
	if err != nil {
		return nil, DashboardOutput{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, DashboardOutput{}, fmt.Errorf("no country loaded")
	}
	if id, ok := sel.ID(); ok {
		if err := s.session.Click(s.cat, id); err != nil {
			return nil, DashboardOutput{}, err
		}
	} else {
		s.session.Clear()
	}
	return s.buildLocked()
}

func (s *Server) handleGetClusterViews(ctx context.Context, req *sdk.CallToolRequest, input GetClusterViewsInput) (*sdk.CallToolResult, DashboardOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, DashboardOutput{}, fmt.Errorf("no country loaded")
	}
	return s.buildLocked()
}

func (s *Server) buildLocked() (*sdk.CallToolResult, DashboardOutput, error) {
	d, err := view.Build(s.cat, s.session)
	if err != nil {
		return nil, DashboardOutput{}, err
	}
	return nil, dashboardOutput(d), nil
}

func (s *Server) handleGetInterventionSummary(ctx context.Context, req *sdk.CallToolRequest, input CountryInput) (*sdk.CallToolResult, InterventionSummaryOutput, error) {
	code, err := conflict.ParseCountry(input.Country)
	if err != nil {
		return nil, InterventionSummaryOutput{}, err
	}
	window, err := s.cat.Window(code)
	if err != nil {
		return nil, InterventionSummaryOutput{}, err
	}
	record, err := s.cat.Record(code)
	if err != nil {
		return nil, InterventionSummaryOutput{}, err
	}
	return nil, interventionSummaryOutput(string(code), code.Name(), hmi.Panels(window, record)), nil
}

func (s *Server) handleGetKnoxGrids(ctx context.Context, req *sdk.CallToolRequest, input CountryInput) (*sdk.CallToolResult, KnoxGridsOutput, error) {
	code, err := conflict.ParseCountry(input.Country)
	if err != nil {
		return nil, KnoxGridsOutput{}, err
	}
	set, err := s.cat.Knox(code)
	if err != nil {
		return nil, KnoxGridsOutput{}, err
	}
	grids, err := knox.NormalizeSet(set, s.cat.ColorScale())
	if err != nil {
		return nil, KnoxGridsOutput{}, err
	}
	return nil, knoxGridsOutput(string(code), s.cat.Resolution(), grids), nil
}

func (s *Server) handleGetMonthlyCasualties(ctx context.Context, req *sdk.CallToolRequest, input CountryInput) (*sdk.CallToolResult, MonthlyOutput, error) {
	code, err := conflict.ParseCountry(input.Country)
	if err != nil {
		return nil, MonthlyOutput{}, err
	}
	events, err := s.cat.Events(code)
	if err != nil {
		return nil, MonthlyOutput{}, err
	}
	scaling, err := s.cat.MarkerScaling(code)
	if err != nil {
		return nil, MonthlyOutput{}, err
	}
	months, err := aggregate.Monthly(events, scaling)
	if err != nil {
		return nil, MonthlyOutput{}, err
	}
	return nil, monthlyOutput(string(code), months), nil
}

func (s *Server) handleGetIndicators(ctx context.Context, req *sdk.CallToolRequest, input GetIndicatorsInput) (*sdk.CallToolResult, IndicatorsOutput, error) {
	code, err := conflict.ParseCountry(input.Country)
	if err != nil {
		return nil, IndicatorsOutput{}, err
	}
	values, err := s.cat.Indicators(code)
	if err != nil {
		return nil, IndicatorsOutput{}, err
	}

	out := IndicatorsOutput{
		Country: string(code),
		Names:   aggregate.IndicatorNames(values),
		Name:    input.Name,
		Series:  make([]IndicatorPointOutput, 0),
	}
	if input.Name == "" {
		return nil, out, nil
	}

	from, to := input.FromYear, input.ToYear
	if from == 0 && to == 0 {
		// default to the years covered by events
		events, err := s.cat.Events(code)
		if err != nil {
			return nil, IndicatorsOutput{}, err
		}
		if lo, hi, ok := aggregate.YearSpan(events); ok {
			from, to = lo, hi
		}
	}
	if to == 0 {
		to = math.MaxInt32
	}
	if from > to {
		return nil, IndicatorsOutput{}, fmt.Errorf("from_year %d is after to_year %d", from, to)
	}
	for _, p := range aggregate.IndicatorSeries(values, input.Name, from, to) {
		out.Series = append(out.Series, IndicatorPointOutput{Year: p.Year, Value: p.Value})
	}
	return nil, out, nil
}
