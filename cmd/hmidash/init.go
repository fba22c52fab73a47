package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"hmidash/internal/config"
	"hmidash/internal/conflict"
	"hmidash/internal/knox"
	"hmidash/internal/linkage"
)

func initCmd() *cobra.Command {
	var projectName string
	var dsn string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a new hmidash project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(projectName) == "" {
				return fmt.Errorf("--name is required")
			}
			return runInit(projectName, dsn)
		},
	}
	cmd.Flags().StringVar(&projectName, "name", "", "Project name")
	cmd.Flags().StringVar(&dsn, "dsn", "sqlite://./hmidash.db", "Database DSN (sqlite:// or postgres://)")
	return cmd
}

var defaultMarkerScaling = map[conflict.Country]float64{
	conflict.Afghanistan: 10.1,
	conflict.Iraq:        3.7,
	conflict.Somalia:     6.3,
	conflict.SriLanka:    7.9,
}

func runInit(projectName, dsn string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	}

	cfg := config.ProjectConfig{
		Project:  projectName,
		Version:  1,
		Database: config.DatabaseConfig{DSN: dsn},
		DataDir:  "./data",
		Linkage: config.LinkageConfig{
			Method:     string(linkage.Average),
			Weightings: []int{1, 2, 3, 4, 5},
		},
		Knox: config.KnoxConfig{
			Resolution:  string(knox.Low),
			ColorDomain: knox.DefaultColorScale,
		},
		Log: config.LogConfig{Level: "info"},
	}
	for _, code := range conflict.Countries() {
		cfg.Countries = append(cfg.Countries, config.CountryConfig{
			Code:          string(code),
			MarkerScaling: defaultMarkerScaling[code],
		})
	}

	var b bytes.Buffer
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encoding %s: %w", configPath, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding %s: %w", configPath, err)
	}
	if err := os.WriteFile(configPath, b.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}

	root := filepath.Dir(configPath)
	for _, code := range conflict.Countries() {
		for _, dir := range []string{"knox/lowres", "knox/highres"} {
			path := filepath.Join(root, "data", string(code), filepath.FromSlash(dir))
			if err := os.MkdirAll(path, 0o755); err != nil {
				return fmt.Errorf("creating %s: %w", path, err)
			}
		}
	}
	return nil
}
