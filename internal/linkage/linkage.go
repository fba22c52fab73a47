package linkage

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	ErrInvalidClusterCount = errors.New("invalid cluster count")
	ErrInvalidLinkage      = errors.New("invalid linkage")
	ErrLeafMismatch        = errors.New("linkage leaf count does not match event count")
)

// Merge is one agglomeration step. Ids below the leaf count refer to single
// events; id Leaves+i refers to the cluster formed at step i.
type Merge struct {
	Left     int     `json:"left"`
	Right    int     `json:"right"`
	Distance float64 `json:"distance"`
	Size     int     `json:"size"`
}

// Linkage is a complete dendrogram over Leaves events.
type Linkage struct {
	Leaves int     `json:"leaves"`
	Merges []Merge `json:"merges"`
}

// Validate checks that the merges form a complete dendrogram with
// non-decreasing merge distances.
func (l *Linkage) Validate() error {
	if l == nil {
		return fmt.Errorf("%w: nil linkage", ErrInvalidLinkage)
	}
	if l.Leaves < 1 {
		return fmt.Errorf("%w: at least one leaf is required", ErrInvalidLinkage)
	}
	if len(l.Merges) != l.Leaves-1 {
		return fmt.Errorf("%w: expected %d merges for %d leaves, got %d", ErrInvalidLinkage, l.Leaves-1, l.Leaves, len(l.Merges))
	}

	sizes := make([]int, 2*l.Leaves-1)
	for i := 0; i < l.Leaves; i++ {
		sizes[i] = 1
	}
	used := make([]bool, 2*l.Leaves-1)
	prev := math.Inf(-1)
	for i, m := range l.Merges {
		limit := l.Leaves + i
		if m.Left < 0 || m.Left >= limit || m.Right < 0 || m.Right >= limit || m.Left == m.Right {
			return fmt.Errorf("%w: step %d merges unknown clusters %d and %d", ErrInvalidLinkage, i, m.Left, m.Right)
		}
		if used[m.Left] || used[m.Right] {
			return fmt.Errorf("%w: step %d reuses an already merged cluster", ErrInvalidLinkage, i)
		}
		if math.IsNaN(m.Distance) || m.Distance < 0 {
			return fmt.Errorf("%w: step %d has invalid distance %v", ErrInvalidLinkage, i, m.Distance)
		}
		if m.Distance < prev {
			return fmt.Errorf("%w: merge distances decrease at step %d", ErrInvalidLinkage, i)
		}
		if want := sizes[m.Left] + sizes[m.Right]; m.Size != want {
			return fmt.Errorf("%w: step %d has size %d, expected %d", ErrInvalidLinkage, i, m.Size, want)
		}
		used[m.Left], used[m.Right] = true, true
		sizes[limit] = m.Size
		prev = m.Distance
	}
	return nil
}

// Assignment maps each event index to a positive cluster id.
type Assignment struct {
	Labels []int `json:"labels"`
}

func (a Assignment) Len() int {
	return len(a.Labels)
}

// Clusters returns the distinct cluster ids in ascending order.
func (a Assignment) Clusters() []int {
	seen := make(map[int]struct{})
	ids := make([]int, 0)
	for _, id := range a.Labels {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (a Assignment) Count() int {
	return len(a.Clusters())
}

func (a Assignment) Has(id int) bool {
	for _, label := range a.Labels {
		if label == id {
			return true
		}
	}
	return false
}

// Members returns the event indices carrying the given cluster id, in
// event order.
func (a Assignment) Members(id int) []int {
	out := make([]int, 0)
	for i, label := range a.Labels {
		if label == id {
			out = append(out, i)
		}
	}
	return out
}
