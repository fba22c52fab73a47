package hmi

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hmidash/internal/conflict"
)

func afghanistanRecord() Record {
	r := NewRecord()
	r.Target = "Afghanistan"
	r.Interveners = []string{"United States", "United Kingdom", "-88"}
	r.Issue = 2
	r.UNSC = 2
	r.GovtPerm = NoData
	r.Contra4 = 0
	r.Contra5 = NoData
	r.TargetTroops = 45000
	r.GroundForces = 1
	r.GroundTroops = NotApplicable
	r.Active = 1
	r.Force = Unclear
	return r
}

func fields(p Panel) []string {
	out := make([]string, 0, len(p.Entries))
	for _, e := range p.Entries {
		out = append(out, e.Field)
	}
	return out
}

func value(t *testing.T, p Panel, field string) string {
	t.Helper()
	for _, e := range p.Entries {
		if e.Field == field {
			return e.Value
		}
	}
	t.Fatalf("expected field %s in %s", field, p.Title)
	return ""
}

func TestPanels(t *testing.T) {
	end := time.Date(2014, 12, 28, 0, 0, 0, 0, time.UTC)
	window := conflict.InterventionWindow{Start: time.Date(2001, 10, 7, 0, 0, 0, 0, time.UTC), End: &end}

	panels := Panels(window, afghanistanRecord())
	basic, approval, characteristics := panels[0], panels[1], panels[2]

	assert.Equal(t, BasicSummary, basic.Title)
	assert.Equal(t, []string{"HMISTART", "HMIEND", "TARGET", "INTERVEN1", "INTERVEN2"}, fields(basic))
	assert.Equal(t, "2001-10-07", value(t, basic, "HMISTART"))
	assert.Equal(t, "2014-12-28", value(t, basic, "HMIEND"))
	assert.Equal(t, "United Kingdom", value(t, basic, "INTERVEN2"))

	assert.Equal(t, ApprovalAndMotivations, approval.Title)
	assert.Equal(t, []string{"ISSUE", "UNSC", "GOVTPERM", "CONTRA4", "CONTRA5"}, fields(approval), "not applicable codes are skipped")
	assert.Equal(t, "government", value(t, approval, "ISSUE"))
	assert.Equal(t, "approved by the UN Security Council", value(t, approval, "UNSC"))
	assert.Equal(t, "no data", value(t, approval, "GOVTPERM"))
	assert.Equal(t, "unclear", value(t, approval, "CONTRA5"), "codebook wording wins over the generic sentinel text")

	assert.Equal(t, InterventionCharacteristics, characteristics.Title)
	assert.Equal(t, []string{"TATROOP", "GROUNDFO", "ACTIVE", "FORCE"}, fields(characteristics))
	assert.Equal(t, "45,000", value(t, characteristics, "TATROOP"))
	assert.Equal(t, "yes", value(t, characteristics, "GROUNDFO"))
	assert.Equal(t, "unclear", value(t, characteristics, "FORCE"))
}

func TestPanels_OngoingAndEmptyRecord(t *testing.T) {
	window := conflict.InterventionWindow{Start: time.Date(2007, 1, 19, 0, 0, 0, 0, time.UTC)}

	panels := Panels(window, NewRecord())
	assert.Equal(t, "ongoing", value(t, panels[0], "HMIEND"))
	assert.Equal(t, []string{"HMISTART", "HMIEND"}, fields(panels[0]))
	assert.Empty(t, panels[1].Entries)
	assert.Empty(t, panels[2].Entries)
}

func TestRecord_Validate(t *testing.T) {
	require.NoError(t, afghanistanRecord().Validate())
	require.NoError(t, NewRecord().Validate())

	invalid := map[string]func(r *Record){
		"issue out of codebook": func(r *Record) { r.Issue = 4 },
		"unsc partial":          func(r *Record) { r.UNSC = 1 },
		"negative troop count":  func(r *Record) { r.TargetTroops = -5 },
		"unknown sentinel":      func(r *Record) { r.Active = -66 },
	}
	for name, mutate := range invalid {
		t.Run(name, func(t *testing.T) {
			r := afghanistanRecord()
			mutate(&r)
			err := r.Validate()
			assert.True(t, errors.Is(err, ErrInvalidCode), "got %v", err)
		})
	}
}
