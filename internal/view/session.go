package view

import (
	"errors"
	"fmt"

	"hmidash/internal/conflict"
	"hmidash/internal/linkage"
	"hmidash/internal/projector"
)

var ErrUnknownCluster = errors.New("cluster id is not part of the current clustering")

const (
	DefaultWeighting conflict.Weighting = 3
	DefaultClusters                     = 10
	MaxClusters                         = 40
)

// Params are the upstream controls of the cluster views.
type Params struct {
	Country   conflict.Country   `json:"country"`
	Weighting conflict.Weighting `json:"weighting"`
	Clusters  int                `json:"clusters"`
	Planes    bool               `json:"planes"`
	Unit      projector.TimeUnit `json:"unit"`
}

func DefaultParams(country conflict.Country) Params {
	return Params{
		Country:   country,
		Weighting: DefaultWeighting,
		Clusters:  DefaultClusters,
		Unit:      projector.Days,
	}
}

func (p Params) Validate() error {
	if _, err := conflict.ParseCountry(string(p.Country)); err != nil {
		return err
	}
	if err := p.Weighting.Validate(); err != nil {
		return err
	}
	if p.Clusters < 1 || p.Clusters > MaxClusters {
		return fmt.Errorf("%w: %d not in [1, %d]", linkage.ErrInvalidClusterCount, p.Clusters, MaxClusters)
	}
	if _, err := projector.ParseTimeUnit(string(p.Unit)); err != nil {
		return err
	}
	return nil
}

// reclusters reports whether moving from p to next changes cluster ids.
func (p Params) reclusters(next Params) bool {
	return p.Country != next.Country || p.Weighting != next.Weighting || p.Clusters != next.Clusters
}

// Session is the interaction state of one dashboard: the current controls
// and the selected cluster. It starts Idle, with the wildcard selection.
// A Session is not safe for concurrent use.
type Session struct {
	params    Params
	selection projector.Selection
}

func NewSession(p Params) (*Session, error) {
	if p.Unit == "" {
		p.Unit = projector.Days
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Session{params: p, selection: projector.All()}, nil
}

func (s *Session) Params() Params {
	return s.params
}

func (s *Session) Selection() projector.Selection {
	return s.selection
}

// Idle reports whether no cluster is selected.
func (s *Session) Idle() bool {
	return s.selection.IsAll()
}

// Update applies new controls. Any change of country, weighting or cluster
// count drops the selection; planes and unit leave it intact. Params that
// are invalid, or that src cannot cut, leave the session unchanged.
func (s *Session) Update(src Source, p Params) error {
	if p.Unit == "" {
		p.Unit = projector.Days
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if _, _, err := cut(src, p); err != nil {
		return err
	}
	if s.params.reclusters(p) {
		s.selection = projector.All()
	}
	s.params = p
	return nil
}

// Click selects a cluster of the current clustering.
func (s *Session) Click(src Source, id int) error {
	a, _, err := cut(src, s.params)
	if err != nil {
		return err
	}
	if !a.Has(id) {
		return fmt.Errorf("%w: %d", ErrUnknownCluster, id)
	}
	s.selection = projector.Cluster(id)
	return nil
}

// Clear returns to Idle.
func (s *Session) Clear() {
	s.selection = projector.All()
}
