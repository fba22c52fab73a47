package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"hmidash/internal/mcp"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		RunE:  runServe,
	}
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Close()

	cat, err := loadCatalog(ctx, cfg, logger)
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(cat, logger, version)
	if err != nil {
		return err
	}
	logger.Info("serving", "countries", len(cat.Countries()))
	return server.Run(ctx, &sdk.StdioTransport{})
}
