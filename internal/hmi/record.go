package hmi

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidCode = errors.New("invalid HMI code")

// Code is a value of the PRIF humanitarian military intervention dataset.
// Negative values are the dataset's sentinels; counts share them.
type Code int

const (
	Unclear       Code = -77
	NotApplicable Code = -88
	NoData        Code = -99
)

func (c Code) sentinel() bool {
	return c == Unclear || c == NotApplicable || c == NoData
}

// Record is the coded entry of one intervention. Fields that were not
// coded hold NotApplicable.
type Record struct {
	Target      string   `json:"target,omitempty"`
	Interveners []string `json:"interveners,omitempty"`

	Issue    Code `json:"issue"`
	UNSC     Code `json:"unsc"`
	RegioOrg Code `json:"regioorg"`
	GovtPerm Code `json:"govtperm"`
	Contra4  Code `json:"contra4"`
	Contra5  Code `json:"contra5"`

	TargetTroops Code `json:"tatroop"`
	GroundForces Code `json:"groundfo"`
	GroundTroops Code `json:"groundno"`
	Active       Code `json:"active"`
	Force        Code `json:"force"`
}

// NewRecord returns a record with every code NotApplicable.
func NewRecord() Record {
	return Record{
		Issue:        NotApplicable,
		UNSC:         NotApplicable,
		RegioOrg:     NotApplicable,
		GovtPerm:     NotApplicable,
		Contra4:      NotApplicable,
		Contra5:      NotApplicable,
		TargetTroops: NotApplicable,
		GroundForces: NotApplicable,
		GroundTroops: NotApplicable,
		Active:       NotApplicable,
		Force:        NotApplicable,
	}
}

// IsText reports whether a free-text field carries a value.
func IsText(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && s != "-88"
}

// Validate checks every categorical code against its codebook and every
// count for being non-negative or a sentinel.
func (r Record) Validate() error {
	for _, f := range categorical(r) {
		if f.code.sentinel() {
			continue
		}
		if _, ok := f.table[f.code]; !ok {
			return fmt.Errorf("%w: %s = %d", ErrInvalidCode, f.field, int(f.code))
		}
	}
	for _, f := range counts(r) {
		if f.code < 0 && !f.code.sentinel() {
			return fmt.Errorf("%w: %s = %d", ErrInvalidCode, f.field, int(f.code))
		}
	}
	return nil
}

type codedField struct {
	field string
	label string
	code  Code
	table map[Code]string
}

func categorical(r Record) []codedField {
	return []codedField{
		{"ISSUE", "Main conflict issue", r.Issue, issueCodes},
		{"UNSC", "UN Security Council", r.UNSC, unscCodes},
		{"REGIOORG", "Regional organisation", r.RegioOrg, regioOrgCodes},
		{"GOVTPERM", "Target government", r.GovtPerm, govtPermCodes},
		{"CONTRA4", "Declared intention to save its own people", r.Contra4, contra4Codes},
		{"CONTRA5", "Declared intention to prevent a rival from assuming control", r.Contra5, contra5Codes},
		{"GROUNDFO", "Ground forces deployed", r.GroundForces, groundForcesCodes},
		{"ACTIVE", "Intervening forces", r.Active, activeCodes},
		{"FORCE", "Use of force authorised", r.Force, forceCodes},
	}
}

func counts(r Record) []codedField {
	return []codedField{
		{field: "TATROOP", label: "Combatants at the disposal of the targeted side", code: r.TargetTroops},
		{field: "GROUNDNO", label: "Maximum size of deployed ground forces", code: r.GroundTroops},
	}
}

var (
	issueCodes = map[Code]string{
		1: "territory",
		2: "government",
		3: "territory and government",
	}
	unscCodes = map[Code]string{
		0: "not approved by the UN Security Council",
		2: "approved by the UN Security Council",
	}
	regioOrgCodes = map[Code]string{
		0: "not approved by a regional organisation",
		1: "partly approved by a regional organisation",
		2: "fully approved by a regional organisation",
	}
	govtPermCodes = map[Code]string{
		0: "the government in power did not permit the intervention",
		1: "the government in power partly permitted the intervention",
		2: "the government in power fully permitted the intervention",
	}
	contra4Codes = map[Code]string{
		0:      "no",
		1:      "yes",
		NoData: "unclear",
	}
	contra5Codes = map[Code]string{
		0:      "no, the intervener did not declare that intention",
		1:      "yes, the intervener declared so",
		NoData: "unclear",
	}
	groundForcesCodes = map[Code]string{
		0: "no",
		1: "yes",
	}
	activeCodes = map[Code]string{
		0: "remained passive",
		1: "active",
	}
	forceCodes = map[Code]string{
		0: "no",
		1: "yes",
	}
)
