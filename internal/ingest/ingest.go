package ingest

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"hmidash/internal/config"
	"hmidash/internal/conflict"
	"hmidash/internal/knox"
)

const (
	eventsFile       = "events.csv"
	interventionName = "intervention.yaml"
	indicatorsFile   = "indicators.csv"
	knoxDir          = "knox"
)

type Result struct {
	FilesLoaded  int
	FilesSkipped int
	EventsLoaded int
	KnoxTables   int
	// KnoxRemoved counts stored tables whose source file is gone.
	KnoxRemoved int
	// EventsChanged lists countries whose event set was replaced; their
	// stored linkages no longer match and must be rebuilt.
	EventsChanged []conflict.Country
	Errors        []error
}

type Options struct {
	Full bool
}

// source is one file under a country directory, keyed by its slash path
// relative to that directory.
type source struct {
	key  string
	data []byte
	hash string
}

func Run(ctx context.Context, cfg *config.ProjectConfig, db Store, options Options) (*Result, error) {
	if err := db.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	result := &Result{}
	for _, country := range cfg.CountryCodes() {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := ingestCountry(ctx, cfg.DataDir, country, db, options, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func ingestCountry(ctx context.Context, dataDir string, country conflict.Country, db Store, options Options, result *Result) error {
	dir := filepath.Join(dataDir, string(country))

	existingHashes, err := db.GetSourceHashes(ctx, country)
	if err != nil {
		return fmt.Errorf("get source hashes for %s: %w", country, err)
	}

	// load returns a nil source when the file is absent, unreadable or
	// unchanged, and reports whether it exists. A full run reloads
	// unchanged files.
	load := func(key string, required bool) (*source, bool) {
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
		if errors.Is(err, fs.ErrNotExist) {
			if required {
				result.Errors = append(result.Errors, fmt.Errorf("%s: missing %s", country, key))
			}
			return nil, false
		}
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("%s: reading %s: %w", country, key, err))
			return nil, true
		}
		hash := computeHash(data)
		if existing, ok := existingHashes[key]; ok && existing == hash && !options.Full {
			result.FilesSkipped++
			return nil, true
		}
		return &source{key: key, data: data, hash: hash}, true
	}

	forget := func(key string) {
		if _, ok := existingHashes[key]; !ok {
			return
		}
		if err := db.DeleteSource(ctx, country, key); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("%s: forgetting %s: %w", country, key, err))
		}
	}

	record := func(src *source) {
		if err := db.RecordSource(ctx, country, src.key, src.hash); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("%s: recording %s: %w", country, src.key, err))
			return
		}
		result.FilesLoaded++
	}

	if src, _ := load(eventsFile, true); src != nil {
		events, err := parseEvents(bytes.NewReader(src.data))
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("%s: parsing %s: %w", country, src.key, err))
		} else if err := db.ReplaceEvents(ctx, country, events); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("%s: storing events: %w", country, err))
		} else {
			result.EventsLoaded += len(events)
			result.EventsChanged = append(result.EventsChanged, country)
			record(src)
		}
	}

	if src, _ := load(interventionName, true); src != nil {
		window, hmiRecord, err := parseIntervention(src.data)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("%s: parsing %s: %w", country, src.key, err))
		} else if err := db.UpsertIntervention(ctx, country, window); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("%s: storing intervention: %w", country, err))
		} else if err := db.ReplaceHMIRecord(ctx, country, hmiRecord); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("%s: storing hmi record: %w", country, err))
		} else {
			record(src)
		}
	}

	for _, resolution := range []knox.Resolution{knox.Low, knox.High} {
		for _, period := range knox.Periods() {
			key := knoxDir + "/" + string(resolution) + "/" + string(period) + ".csv"
			src, exists := load(key, false)
			if !exists {
				removed, err := db.DeleteKnoxTable(ctx, country, resolution, period)
				if err != nil {
					result.Errors = append(result.Errors, fmt.Errorf("%s: removing %s: %w", country, key, err))
					continue
				}
				if removed {
					result.KnoxRemoved++
				}
				forget(key)
				continue
			}
			if src == nil {
				continue
			}
			table, err := parseKnoxTable(bytes.NewReader(src.data))
			if err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("%s: parsing %s: %w", country, src.key, err))
				continue
			}
			if err := db.SaveKnoxTable(ctx, country, resolution, period, table); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("%s: storing %s: %w", country, src.key, err))
				continue
			}
			result.KnoxTables++
			record(src)
		}
	}

	src, exists := load(indicatorsFile, false)
	if !exists {
		if _, ok := existingHashes[indicatorsFile]; ok || options.Full {
			if err := db.ReplaceIndicators(ctx, country, nil); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("%s: clearing indicators: %w", country, err))
			} else {
				forget(indicatorsFile)
			}
		}
	} else if src != nil {
		values, err := parseIndicators(bytes.NewReader(src.data))
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("%s: parsing %s: %w", country, src.key, err))
		} else if err := db.ReplaceIndicators(ctx, country, values); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("%s: storing indicators: %w", country, err))
		} else {
			record(src)
		}
	}

	return nil
}

func computeHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
