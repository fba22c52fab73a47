package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"hmidash/internal/conflict"
	"hmidash/internal/ingest"
	"hmidash/internal/linkage"
)

func linkageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "linkage",
		Short: "Build and inspect the precomputed cluster hierarchies",
	}
	cmd.AddCommand(linkageBuildCmd())
	cmd.AddCommand(linkageListCmd())
	return cmd
}

func linkageBuildCmd() *cobra.Command {
	var method string
	var countries []string
	var weightings []int
	var jobs int
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Cluster every country at every weighting and store the results",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLinkageBuild(method, countries, weightings, jobs)
		},
	}
	cmd.Flags().StringVar(&method, "method", "", "Linkage method: single, average or complete (default from config)")
	cmd.Flags().StringSliceVar(&countries, "country", nil, "Countries to build (default all configured)")
	cmd.Flags().IntSliceVar(&weightings, "weighting", nil, "Weightings to build (default from config)")
	cmd.Flags().IntVar(&jobs, "jobs", 2, "Weightings clustered in parallel")
	return cmd
}

func runLinkageBuild(method string, countries []string, weightings []int, jobs int) error {
	ctx := context.Background()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Close()

	if method == "" {
		method = cfg.Linkage.Method
	}
	m, err := linkage.ParseMethod(method)
	if err != nil {
		return err
	}

	options := ingest.BuildOptions{
		Countries:  cfg.CountryCodes(),
		Weightings: cfg.LinkageWeightings(),
		Method:     m,
		Jobs:       jobs,
	}
	if len(countries) > 0 {
		options.Countries = nil
		for _, code := range countries {
			c, err := conflict.ParseCountry(code)
			if err != nil {
				return err
			}
			options.Countries = append(options.Countries, c)
		}
	}
	if len(weightings) > 0 {
		options.Weightings = nil
		for _, w := range weightings {
			options.Weightings = append(options.Weightings, conflict.Weighting(w))
		}
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}

	built, err := ingest.BuildLinkages(ctx, db, options, logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Built %d linkages.\n", len(built))
	return nil
}

func linkageListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored linkages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLinkageList()
		},
	}
}

func runLinkageList() error {
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

	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "COUNTRY\tWEIGHTING\tMETHOD\tEVENTS\tBUILT\tID")
	for _, country := range cfg.CountryCodes() {
		builds, err := db.ListLinkages(ctx, country)
		if err != nil {
			return err
		}
		for _, b := range builds {
			fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%s\t%s\n", country, b.Weighting, b.Method, b.Leaves, b.BuiltAt.Format("2006-01-02 15:04"), b.ID)
		}
	}
	return w.Flush()
}
