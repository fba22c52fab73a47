package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"hmidash/internal/conflict"
	"hmidash/internal/projector"
	"hmidash/internal/view"
)

func clusterCmd() *cobra.Command {
	var country string
	var weighting int
	var clusters int
	var selected string
	var unit string
	var planes bool
	var timeline bool
	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Cut a stored linkage and print cluster statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCluster(country, weighting, clusters, selected, unit, planes, timeline)
		},
	}
	cmd.Flags().StringVar(&country, "country", "AFG", "Country code")
	cmd.Flags().IntVar(&weighting, "weighting", int(view.DefaultWeighting), "1 pure spatial to 5 pure temporal")
	cmd.Flags().IntVar(&clusters, "clusters", view.DefaultClusters, "Number of clusters")
	cmd.Flags().StringVar(&selected, "select", "*", "Cluster id to inspect, * for all events")
	cmd.Flags().StringVar(&unit, "unit", "days", "Time unit of the 3-D view: days or years")
	cmd.Flags().BoolVar(&planes, "planes", false, "Report intervention planes of the 3-D view")
	cmd.Flags().BoolVar(&timeline, "timeline", false, "Print the selected events in date order")
	return cmd
}

func runCluster(country string, weighting, clusters int, selected, unit string, planes, timeline bool) error {
	ctx := context.Background()

	code, err := conflict.ParseCountry(country)
	if err != nil {
		return err
	}
	timeUnit, err := projector.ParseTimeUnit(unit)
	if err != nil {
		return err
	}
	sel, err := projector.ParseSelection(selected)
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

	session, err := view.NewSession(view.Params{
		Country:   code,
		Weighting: conflict.Weighting(weighting),
		Clusters:  clusters,
		Planes:    planes,
		Unit:      timeUnit,
	})
	if err != nil {
		return err
	}
	if id, ok := sel.ID(); ok {
		if err := session.Click(cat, id); err != nil {
			return err
		}
	}

	d, err := view.Build(cat, session)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "%s, weighting %d: %s\n\n", code.Name(), weighting, d.ClusterText)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CLUSTER\tEVENTS\tMEAN CASUALTIES\tSTDEV CASUALTIES")
	row := d.Summary.Row()
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", row[0], row[1], row[2], row[3])
	if err := w.Flush(); err != nil {
		return err
	}

	for _, plane := range d.Scene.Planes {
		fmt.Fprintf(os.Stdout, "%s: %s (z = %.2f %s)\n", plane.Name, plane.Date.Format("2006-01-02"), plane.Z, d.Scene.Unit)
	}

	if timeline {
		fmt.Fprintln(os.Stdout)
		w = tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tCLUSTER\tCASUALTIES\tLAT\tLON\tSIDES")
		for _, p := range d.Timeline {
			fmt.Fprintf(w, "%s\t%d\t%d\t%.4f\t%.4f\t%s / %s\n",
				p.Event.Date.Format("2006-01-02"), p.Cluster, p.Event.Casualties,
				p.Event.Latitude, p.Event.Longitude, p.Event.SideA, p.Event.SideB)
		}
		return w.Flush()
	}
	return nil
}
