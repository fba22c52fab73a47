package linkage

import "fmt"

// CutByCount returns an assignment with exactly k clusters by applying the
// first eventCount-k merges. Merges that share a distance at the cut are
// taken in the order they appear in the linkage.
func CutByCount(l *Linkage, eventCount, k int) (Assignment, error) {
	if k < 1 || k > eventCount {
		return Assignment{}, fmt.Errorf("%w: %d (must be between 1 and %d)", ErrInvalidClusterCount, k, eventCount)
	}
	if err := l.Validate(); err != nil {
		return Assignment{}, err
	}
	if l.Leaves != eventCount {
		return Assignment{}, fmt.Errorf("%w: linkage has %d leaves, got %d events", ErrLeafMismatch, l.Leaves, eventCount)
	}
	return apply(l, eventCount-k), nil
}

// CutByDistance applies every merge whose distance is at most threshold.
// Smaller thresholds yield more, smaller clusters.
func CutByDistance(l *Linkage, threshold float64) (Assignment, error) {
	if err := l.Validate(); err != nil {
		return Assignment{}, err
	}
	steps := 0
	for _, m := range l.Merges {
		if !(m.Distance <= threshold) {
			break
		}
		steps++
	}
	return apply(l, steps), nil
}

func apply(l *Linkage, steps int) Assignment {
	n := l.Leaves
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	find := func(x int) int {
		root := x
		for parent[root] != root {
			root = parent[root]
		}
		for parent[x] != root {
			next := parent[x]
			parent[x] = root
			x = next
		}
		return root
	}

	// leaf representing each cluster id
	rep := make([]int, n+steps)
	for i := 0; i < n; i++ {
		rep[i] = i
	}
	for s := 0; s < steps; s++ {
		m := l.Merges[s]
		a, b := find(rep[m.Left]), find(rep[m.Right])
		parent[b] = a
		rep[n+s] = a
	}

	labels := make([]int, n)
	byRoot := make(map[int]int)
	for i := 0; i < n; i++ {
		root := find(i)
		id, ok := byRoot[root]
		if !ok {
			id = len(byRoot) + 1
			byRoot[root] = id
		}
		labels[i] = id
	}
	return Assignment{Labels: labels}
}
