package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hmidash/internal/ingest"
)

var ingestFull bool

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load event, intervention, Knox and indicator files into the database",
		RunE:  runIngest,
	}
	cmd.Flags().BoolVar(&ingestFull, "full", false, "Force full re-ingestion (ignore incremental hashes)")
	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Close()

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	result, err := ingest.Run(ctx, cfg, db, ingest.Options{Full: ingestFull})
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, "Ingestion complete.")
	fmt.Fprintf(os.Stdout, "  Files loaded:  %d\n", result.FilesLoaded)
	fmt.Fprintf(os.Stdout, "  Files skipped: %d\n", result.FilesSkipped)
	fmt.Fprintf(os.Stdout, "  Events loaded: %d\n", result.EventsLoaded)
	fmt.Fprintf(os.Stdout, "  Knox tables:   %d\n", result.KnoxTables)
	if result.KnoxRemoved > 0 {
		fmt.Fprintf(os.Stdout, "  Knox removed:  %d\n", result.KnoxRemoved)
	}

	for _, country := range result.EventsChanged {
		logger.Warn("events replaced, run `hmidash linkage build` before serving", "country", country)
	}

	if len(result.Errors) > 0 {
		fmt.Fprintf(os.Stdout, "\nErrors (%d):\n", len(result.Errors))
		for _, item := range result.Errors {
			fmt.Fprintf(os.Stdout, "  - %v\n", item)
		}
		return fmt.Errorf("ingestion completed with errors")
	}

	return nil
}
