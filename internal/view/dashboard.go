package view

import (
	"fmt"

	"hmidash/internal/conflict"
	"hmidash/internal/linkage"
	"hmidash/internal/projector"
)

// Source is the read-only data the cluster views are computed from.
type Source interface {
	Events(code conflict.Country) ([]conflict.Event, error)
	Window(code conflict.Country) (conflict.InterventionWindow, error)
	Linkage(code conflict.Country, w conflict.Weighting) (*linkage.Linkage, error)
}

// Dashboard is one rendering of the cluster views.
type Dashboard struct {
	Params      Params               `json:"params"`
	Selection   projector.Selection  `json:"selection"`
	Clusters    []int                `json:"clusters"`
	ClusterText string               `json:"cluster_text"`
	Summary     projector.Summary    `json:"summary"`
	Timeline    []projector.Point    `json:"timeline"`
	Geographic  []projector.GeoPoint `json:"geographic"`
	Scene       projector.Scene      `json:"scene"`
}

func cut(src Source, p Params) (linkage.Assignment, []conflict.Event, error) {
	events, err := src.Events(p.Country)
	if err != nil {
		return linkage.Assignment{}, nil, err
	}
	l, err := src.Linkage(p.Country, p.Weighting)
	if err != nil {
		return linkage.Assignment{}, nil, err
	}
	a, err := linkage.CutByCount(l, len(events), p.Clusters)
	if err != nil {
		return linkage.Assignment{}, nil, err
	}
	return a, events, nil
}

// Build recomputes every cluster view for the session's current state.
func Build(src Source, s *Session) (*Dashboard, error) {
	p := s.Params()
	sel := s.Selection()

	a, events, err := cut(src, p)
	if err != nil {
		return nil, err
	}
	window, err := src.Window(p.Country)
	if err != nil {
		return nil, err
	}

	summary, err := projector.Summarize(a, events, sel)
	if err != nil {
		return nil, err
	}
	timeline, err := projector.Timeline(a, events, sel)
	if err != nil {
		return nil, err
	}
	geo, err := projector.Geographic(a, events, sel)
	if err != nil {
		return nil, err
	}
	scene, err := projector.Scatter3D(a, events, p.Weighting, window, projector.SceneOptions{Unit: p.Unit, Planes: p.Planes})
	if err != nil {
		return nil, err
	}

	clusters := a.Clusters()
	return &Dashboard{
		Params:      p,
		Selection:   sel,
		Clusters:    clusters,
		ClusterText: fmt.Sprintf("%d clusters generated", len(clusters)),
		Summary:     summary,
		Timeline:    timeline,
		Geographic:  geo,
		Scene:       scene,
	}, nil
}
