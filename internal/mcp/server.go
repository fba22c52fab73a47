package mcp

import (
	"context"
	"sync"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"hmidash/internal/catalog"
	"hmidash/internal/logging"
	"hmidash/internal/view"
)

// Server exposes the dashboard as MCP tools. The catalog is read-only; the
// interaction session is the only mutable state and is guarded by mu.
type Server struct {
	cat    *catalog.Catalog
	logger *logging.Logger
	mcp    *sdk.Server

	mu      sync.Mutex
	session *view.Session
}

func NewServer(cat *catalog.Catalog, logger *logging.Logger, version string) (*Server, error) {
	s := &Server{
		cat:    cat,
		logger: logger,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "hmidash",
			Version: version,
		}, nil),
	}
	if countries := cat.Countries(); len(countries) > 0 {
		session, err := view.NewSession(view.DefaultParams(countries[0]))
		if err != nil {
			return nil, err
		}
		s.session = session
	}
	s.registerTools()
	return s, nil
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
