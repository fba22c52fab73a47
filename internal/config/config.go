package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"hmidash/internal/conflict"
	"hmidash/internal/knox"
	"hmidash/internal/linkage"
)

const (
	EnvDatabaseDSN = "HMIDASH_DATABASE_DSN"
	EnvLogLevel    = "HMIDASH_LOG_LEVEL"
)

type ProjectConfig struct {
	Project   string          `yaml:"project"`
	Version   int             `yaml:"version"`
	Database  DatabaseConfig  `yaml:"database"`
	DataDir   string          `yaml:"data_dir"`
	Countries []CountryConfig `yaml:"countries"`
	Linkage   LinkageConfig   `yaml:"linkage"`
	Knox      KnoxConfig      `yaml:"knox"`
	Log       LogConfig       `yaml:"log"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type CountryConfig struct {
	Code          string  `yaml:"code"`
	MarkerScaling float64 `yaml:"marker_scaling"`
}

type LinkageConfig struct {
	Method     string `yaml:"method"`
	Weightings []int  `yaml:"weightings"`
}

type KnoxConfig struct {
	Resolution  string          `yaml:"resolution"`
	ColorDomain knox.ColorScale `yaml:"color_domain"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// LoadProjectConfig reads the YAML project file. Values from a .env file
// next to the working directory, or from the process environment, override
// the database DSN and log level.
func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading project config: %w", err)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := validateProjectConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return &cfg, nil
}

func applyEnv(cfg *ProjectConfig) {
	if dsn := strings.TrimSpace(os.Getenv(EnvDatabaseDSN)); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if level := strings.TrimSpace(os.Getenv(EnvLogLevel)); level != "" {
		cfg.Log.Level = level
	}
}

func applyDefaults(cfg *ProjectConfig) {
	if cfg.DataDir == "" {
		cfg.DataDir = "./data"
	}
	if cfg.Linkage.Method == "" {
		cfg.Linkage.Method = string(linkage.Average)
	}
	if len(cfg.Linkage.Weightings) == 0 {
		for _, w := range conflict.Weightings() {
			cfg.Linkage.Weightings = append(cfg.Linkage.Weightings, int(w))
		}
	}
	if cfg.Knox.Resolution == "" {
		cfg.Knox.Resolution = string(knox.Low)
	}
	if cfg.Knox.ColorDomain == (knox.ColorScale{}) {
		cfg.Knox.ColorDomain = knox.DefaultColorScale
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	for i := range cfg.Countries {
		if cfg.Countries[i].MarkerScaling == 0 {
			cfg.Countries[i].MarkerScaling = 1
		}
	}
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return fmt.Errorf("database dsn is required")
	}
	if len(cfg.Countries) == 0 {
		return fmt.Errorf("at least one country is required")
	}

	seen := make(map[conflict.Country]struct{})
	for i, country := range cfg.Countries {
		code, err := conflict.ParseCountry(country.Code)
		if err != nil {
			return fmt.Errorf("country %d: %w", i, err)
		}
		if _, exists := seen[code]; exists {
			return fmt.Errorf("duplicate country: %s", code)
		}
		seen[code] = struct{}{}
		if country.MarkerScaling < 0 {
			return fmt.Errorf("country %s marker scaling must be positive", code)
		}
	}

	if _, err := linkage.ParseMethod(cfg.Linkage.Method); err != nil {
		return err
	}
	for _, w := range cfg.Linkage.Weightings {
		if err := conflict.Weighting(w).Validate(); err != nil {
			return err
		}
	}
	if _, err := knox.ParseResolution(cfg.Knox.Resolution); err != nil {
		return err
	}
	if err := cfg.Knox.ColorDomain.Validate(); err != nil {
		return err
	}

	return nil
}

// CountryCodes returns the configured countries in file order.
func (c *ProjectConfig) CountryCodes() []conflict.Country {
	out := make([]conflict.Country, 0, len(c.Countries))
	for _, country := range c.Countries {
		code, err := conflict.ParseCountry(country.Code)
		if err != nil {
			continue
		}
		out = append(out, code)
	}
	return out
}

// MarkerScaling returns the monthly marker divisor for a country, 1 when
// the country is not configured.
func (c *ProjectConfig) MarkerScaling(code conflict.Country) float64 {
	for _, country := range c.Countries {
		if parsed, err := conflict.ParseCountry(country.Code); err == nil && parsed == code {
			return country.MarkerScaling
		}
	}
	return 1
}

func (c *ProjectConfig) LinkageWeightings() []conflict.Weighting {
	out := make([]conflict.Weighting, 0, len(c.Linkage.Weightings))
	for _, w := range c.Linkage.Weightings {
		out = append(out, conflict.Weighting(w))
	}
	return out
}
