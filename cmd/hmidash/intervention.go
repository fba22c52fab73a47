package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"hmidash/internal/conflict"
	"hmidash/internal/hmi"
)

func interventionCmd() *cobra.Command {
	var country string
	cmd := &cobra.Command{
		Use:   "intervention",
		Short: "Print the intervention summary, approval and characteristics sidebars",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIntervention(country)
		},
	}
	cmd.Flags().StringVar(&country, "country", "AFG", "Country code")
	return cmd
}

func runIntervention(country string) error {
	ctx := context.Background()

	code, err := conflict.ParseCountry(country)
	if err != nil {
		return err
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Close()

	cat, err := loadCatalog(ctx, cfg, logger)
	if err != nil {
		return err
	}
	window, err := cat.Window(code)
	if err != nil {
		return err
	}
	record, err := cat.Record(code)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "%s humanitarian military intervention\n", code.Name())
	for _, panel := range hmi.Panels(window, record) {
		fmt.Fprintf(os.Stdout, "\n%s\n", panel.Title)
		if len(panel.Entries) == 0 {
			fmt.Fprintln(os.Stdout, "  (nothing coded)")
			continue
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, e := range panel.Entries {
			fmt.Fprintf(w, "  %s\t%s\t%s\n", e.Field, e.Label, e.Value)
		}
		w.Flush()
	}
	return nil
}
