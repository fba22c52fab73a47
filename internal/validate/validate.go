package validate

import (
	"context"
	"errors"
	"fmt"

	"hmidash/internal/config"
	"hmidash/internal/conflict"
	"hmidash/internal/knox"
	"hmidash/internal/store"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeNoEvents            = "no_events"
	codeMissingIntervention = "missing_intervention"
	codeInterventionOutside = "intervention_outside_events"
	codeMissingLinkage      = "missing_linkage"
	codeInvalidLinkage      = "invalid_linkage"
	codeStaleLinkage        = "stale_linkage"
	codeNoKnoxTables        = "no_knox_tables"
	codeMissingKnoxPeriod   = "missing_knox_period"
	codeInvalidKnoxTables   = "invalid_knox_tables"
)

type Issue struct {
	Severity Severity
	Code     string
	Message  string
	Country  conflict.Country
}

type Report struct {
	Issues []Issue
}

func (r *Report) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Run checks that the stored data of every configured country can be
// served: events, an intervention window, one linkage per configured
// weighting that matches the events, and Knox tables sharing their bins.
func Run(ctx context.Context, cfg *config.ProjectConfig, db Validator) (*Report, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if db == nil {
		return nil, fmt.Errorf("store is required")
	}
	resolution, err := knox.ParseResolution(cfg.Knox.Resolution)
	if err != nil {
		return nil, err
	}

	issues := make([]Issue, 0)
	for _, country := range cfg.CountryCodes() {
		events, err := db.GetEvents(ctx, country)
		if err != nil {
			return nil, fmt.Errorf("get events for %s: %w", country, err)
		}
		if len(events) == 0 {
			issues = append(issues, issue(country, SeverityError, codeNoEvents, "no events loaded"))
		}

		found, err := validateIntervention(ctx, db, country, events)
		if err != nil {
			return nil, err
		}
		issues = append(issues, found...)

		found, err = validateLinkages(ctx, db, country, len(events), cfg.LinkageWeightings())
		if err != nil {
			return nil, err
		}
		issues = append(issues, found...)

		set, err := db.GetKnoxTables(ctx, country, resolution)
		if err != nil {
			return nil, fmt.Errorf("get knox tables for %s: %w", country, err)
		}
		issues = append(issues, validateKnox(country, set, cfg.Knox.ColorDomain)...)
	}

	return &Report{Issues: issues}, nil
}

func validateIntervention(ctx context.Context, db Validator, country conflict.Country, events []conflict.Event) ([]Issue, error) {
	window, err := db.GetIntervention(ctx, country)
	if errors.Is(err, store.ErrNotFound) {
		return []Issue{issue(country, SeverityError, codeMissingIntervention, "no intervention window loaded")}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get intervention for %s: %w", country, err)
	}
	if len(events) == 0 {
		return nil, nil
	}

	first, last := events[0].Date, events[0].Date
	for _, e := range events[1:] {
		if e.Date.Before(first) {
			first = e.Date
		}
		if e.Date.After(last) {
			last = e.Date
		}
	}
	if window.Start.Before(first) || window.Start.After(last) {
		return []Issue{issue(country, SeverityWarn, codeInterventionOutside,
			fmt.Sprintf("intervention start %s is outside the event period %s to %s; its plane falls outside the 3-D view",
				window.Start.Format("2006-01-02"), first.Format("2006-01-02"), last.Format("2006-01-02")))}, nil
	}
	return nil, nil
}

func validateLinkages(ctx context.Context, db Validator, country conflict.Country, eventCount int, weightings []conflict.Weighting) ([]Issue, error) {
	builds, err := db.ListLinkages(ctx, country)
	if err != nil {
		return nil, fmt.Errorf("list linkages for %s: %w", country, err)
	}
	built := make(map[conflict.Weighting]struct{}, len(builds))
	for _, b := range builds {
		built[b.Weighting] = struct{}{}
	}

	var issues []Issue
	for _, w := range weightings {
		if _, ok := built[w]; !ok {
			issues = append(issues, issue(country, SeverityWarn, codeMissingLinkage,
				fmt.Sprintf("no linkage for weighting %d", w)))
			continue
		}
		l, err := db.GetLinkage(ctx, country, w)
		if err != nil {
			return nil, fmt.Errorf("get linkage for %s weighting %d: %w", country, w, err)
		}
		if err := l.Validate(); err != nil {
			issues = append(issues, issue(country, SeverityError, codeInvalidLinkage,
				fmt.Sprintf("weighting %d: %v", w, err)))
			continue
		}
		if l.Leaves != eventCount {
			issues = append(issues, issue(country, SeverityError, codeStaleLinkage,
				fmt.Sprintf("weighting %d covers %d events but %d are loaded", w, l.Leaves, eventCount)))
		}
	}
	return issues, nil
}

func validateKnox(country conflict.Country, set knox.Set, scale knox.ColorScale) []Issue {
	_, err := knox.NormalizeSet(set, scale)
	if errors.Is(err, knox.ErrNoReferenceGrid) {
		return []Issue{issue(country, SeverityWarn, codeNoKnoxTables, "no knox tables loaded")}
	}
	if err != nil {
		return []Issue{issue(country, SeverityError, codeInvalidKnoxTables, err.Error())}
	}

	var issues []Issue
	for _, p := range knox.Periods() {
		if set.Get(p) == nil {
			issues = append(issues, issue(country, SeverityWarn, codeMissingKnoxPeriod,
				fmt.Sprintf("no knox table for %s; shown as an empty panel", p)))
		}
	}
	return issues
}

func issue(country conflict.Country, severity Severity, code, message string) Issue {
	return Issue{
		Severity: severity,
		Code:     code,
		Message:  message,
		Country:  country,
	}
}
