package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"hmidash/internal/conflict"
	"hmidash/internal/knox"
	"hmidash/internal/projector"
)

func knoxCmd() *cobra.Command {
	var country string
	cmd := &cobra.Command{
		Use:   "knox",
		Short: "Print the Knox ratio grids before, during and after the intervention",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKnox(country)
		},
	}
	cmd.Flags().StringVar(&country, "country", "AFG", "Country code")
	return cmd
}

func runKnox(country string) error {
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
	set, err := cat.Knox(code)
	if err != nil {
		return err
	}
	grids, err := knox.NormalizeSet(set, cat.ColorScale())
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "%s Knox ratios (%s), colour domain [%.2f, %.2f]\n", code.Name(), cat.Resolution(), grids.Scale.Min, grids.Scale.Max)
	for _, panel := range grids.Panels {
		title := panel.Title
		if panel.Empty {
			title += " (no data)"
		}
		fmt.Fprintf(os.Stdout, "\n%s\n", title)

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
		header := []string{"days \\ km"}
		for _, c := range panel.Cols {
			header = append(header, fmt.Sprintf("%g", c))
		}
		fmt.Fprintln(w, strings.Join(header, "\t")+"\t")
		for r, bin := range panel.Rows {
			cells := []string{fmt.Sprintf("%g", bin)}
			for _, v := range panel.Cells[r] {
				if v == nil {
					cells = append(cells, projector.Placeholder)
					continue
				}
				cells = append(cells, fmt.Sprintf("%.2f", *v))
			}
			fmt.Fprintln(w, strings.Join(cells, "\t")+"\t")
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}
