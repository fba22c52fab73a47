package projector

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const wildcard = "*"

// Selection restricts a projection to one cluster id, or to every event
// when it is the wildcard.
type Selection struct {
	id  int
	set bool
}

// All is the wildcard selection.
func All() Selection {
	return Selection{}
}

func Cluster(id int) Selection {
	return Selection{id: id, set: true}
}

// ParseSelection accepts "*" or an empty string for the wildcard, or a
// positive cluster id.
func ParseSelection(s string) (Selection, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == wildcard {
		return All(), nil
	}
	id, err := strconv.Atoi(s)
	if err != nil || id < 1 {
		return Selection{}, fmt.Errorf("invalid cluster selection %q", s)
	}
	return Cluster(id), nil
}

func (s Selection) IsAll() bool {
	return !s.set
}

// ID returns the selected cluster id and false for the wildcard.
func (s Selection) ID() (int, bool) {
	return s.id, s.set
}

func (s Selection) Matches(label int) bool {
	return !s.set || s.id == label
}

func (s Selection) String() string {
	if !s.set {
		return wildcard
	}
	return strconv.Itoa(s.id)
}

func (s Selection) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}
