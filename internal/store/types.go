package store

import (
	"time"

	"hmidash/internal/conflict"
)

// BuildInfo describes how a stored linkage was produced.
type BuildInfo struct {
	ID        string             `json:"id"`
	Weighting conflict.Weighting `json:"weighting"`
	Method    string             `json:"method"`
	Leaves    int                `json:"leaves"`
	BuiltAt   time.Time          `json:"built_at"`
}
