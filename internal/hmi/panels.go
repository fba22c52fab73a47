package hmi

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"hmidash/internal/conflict"
)

const (
	BasicSummary                = "Basic summary"
	ApprovalAndMotivations      = "Approval and motivations"
	InterventionCharacteristics = "Intervention characteristics"
)

type Entry struct {
	Field string `json:"field"`
	Label string `json:"label"`
	Value string `json:"value"`
}

type Panel struct {
	Title   string  `json:"title"`
	Entries []Entry `json:"entries"`
}

var counter = message.NewPrinter(language.English)

// Panels renders the three intervention sidebars. Values coded as not
// applicable are left out; other sentinels are spelled out.
func Panels(window conflict.InterventionWindow, r Record) [3]Panel {
	basic := Panel{Title: BasicSummary, Entries: []Entry{
		{Field: "HMISTART", Label: "Start of the intervention", Value: window.Start.Format("2006-01-02")},
	}}
	end := "ongoing"
	if window.End != nil {
		end = window.End.Format("2006-01-02")
	}
	basic.Entries = append(basic.Entries, Entry{Field: "HMIEND", Label: "End of the intervention", Value: end})
	if IsText(r.Target) {
		basic.Entries = append(basic.Entries, Entry{Field: "TARGET", Label: "Target", Value: r.Target})
	}
	n := 0
	for _, name := range r.Interveners {
		if !IsText(name) {
			continue
		}
		n++
		basic.Entries = append(basic.Entries, Entry{Field: fmt.Sprintf("INTERVEN%d", n), Label: "Intervener", Value: name})
	}

	fields := categorical(r)
	approval := Panel{Title: ApprovalAndMotivations, Entries: []Entry{}}
	for _, f := range fields[:6] {
		if e, ok := describe(f); ok {
			approval.Entries = append(approval.Entries, e)
		}
	}

	characteristics := Panel{Title: InterventionCharacteristics, Entries: []Entry{}}
	troops := counts(r)
	for _, f := range []codedField{troops[0], fields[6], troops[1], fields[7], fields[8]} {
		if e, ok := describe(f); ok {
			characteristics.Entries = append(characteristics.Entries, e)
		}
	}

	return [3]Panel{basic, approval, characteristics}
}

// describe spells out one code. Fields without a table are counts.
func describe(f codedField) (Entry, bool) {
	if f.code == NotApplicable {
		return Entry{}, false
	}
	e := Entry{Field: f.field, Label: f.label}
	if text, ok := f.table[f.code]; ok {
		e.Value = text
		return e, true
	}
	switch f.code {
	case Unclear:
		e.Value = "unclear"
	case NoData:
		e.Value = "no data"
	default:
		if f.table == nil {
			e.Value = counter.Sprintf("%d", int(f.code))
		} else {
			e.Value = fmt.Sprintf("code %d", int(f.code))
		}
	}
	return e, true
}
