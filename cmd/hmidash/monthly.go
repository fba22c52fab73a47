package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"hmidash/internal/aggregate"
	"hmidash/internal/conflict"
)

func monthlyCmd() *cobra.Command {
	var country string
	cmd := &cobra.Command{
		Use:   "monthly",
		Short: "Print monthly casualty totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonthly(country)
		},
	}
	cmd.Flags().StringVar(&country, "country", "AFG", "Country code")
	return cmd
}

func runMonthly(country string) error {
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

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	events, err := db.GetEvents(ctx, code)
	if err != nil {
		return err
	}
	months, err := aggregate.Monthly(events, cfg.MarkerScaling(code))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MONTH\tEVENTS\tCASUALTIES\tMARKER")
	for _, m := range months {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.1f\n", m.Month.Format("2006-01"), m.Events, m.Casualties, m.MarkerSize)
	}
	return w.Flush()
}
