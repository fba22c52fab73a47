package linkage

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"hmidash/internal/conflict"
	"hmidash/internal/distance"
)

type Method string

const (
	Single   Method = "single"
	Average  Method = "average"
	Complete Method = "complete"
)

func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case Single, Average, Complete:
		return m, nil
	case "":
		return Average, nil
	default:
		return "", fmt.Errorf("unsupported linkage method: %q", s)
	}
}

// update is the Lance-Williams recurrence for the distance between cluster
// i and the union of x and y.
func (m Method) update(dxi, dyi float64, nx, ny int) float64 {
	switch m {
	case Single:
		return math.Min(dxi, dyi)
	case Complete:
		return math.Max(dxi, dyi)
	default:
		return (float64(nx)*dxi + float64(ny)*dyi) / float64(nx+ny)
	}
}

type rawMerge struct {
	x, y int
	dist float64
}

// Build runs agglomerative clustering over a condensed distance matrix of n
// points using the nearest-neighbour chain algorithm. The merges are sorted
// by distance, stably, and relabelled so the result is a valid dendrogram.
func Build(condensed []float64, n int, method Method) (*Linkage, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: at least one point is required", ErrInvalidLinkage)
	}
	if want := n * (n - 1) / 2; len(condensed) != want {
		return nil, fmt.Errorf("%w: condensed matrix has %d entries, expected %d", ErrInvalidLinkage, len(condensed), want)
	}
	if _, err := ParseMethod(string(method)); err != nil {
		return nil, err
	}

	d := make([]float64, len(condensed))
	copy(d, condensed)
	size := make([]int, n)
	active := make([]bool, n)
	for i := 0; i < n; i++ {
		size[i] = 1
		active[i] = true
	}

	raw := make([]rawMerge, 0, n-1)
	chain := make([]int, 0, n)
	for k := 0; k < n-1; k++ {
		if len(chain) == 0 {
			for i := 0; i < n; i++ {
				if active[i] {
					chain = append(chain, i)
					break
				}
			}
		}

		var x, y int
		var current float64
		for {
			x = chain[len(chain)-1]
			y = -1
			current = math.Inf(1)
			if len(chain) > 1 {
				y = chain[len(chain)-2]
				current = d[distance.CondensedIndex(n, x, y)]
			}
			for i := 0; i < n; i++ {
				if !active[i] || i == x {
					continue
				}
				if dist := d[distance.CondensedIndex(n, x, i)]; dist < current {
					current = dist
					y = i
				}
			}
			if len(chain) > 1 && y == chain[len(chain)-2] {
				break
			}
			chain = append(chain, y)
		}
		chain = chain[:len(chain)-2]

		if x > y {
			x, y = y, x
		}
		raw = append(raw, rawMerge{x: x, y: y, dist: current})

		nx, ny := size[x], size[y]
		active[x] = false
		size[y] = nx + ny
		for i := 0; i < n; i++ {
			if !active[i] || i == y {
				continue
			}
			ix := distance.CondensedIndex(n, i, x)
			iy := distance.CondensedIndex(n, i, y)
			d[iy] = method.update(d[ix], d[iy], nx, ny)
		}
	}

	sort.SliceStable(raw, func(i, j int) bool { return raw[i].dist < raw[j].dist })
	return &Linkage{Leaves: n, Merges: relabel(raw, n)}, nil
}

// relabel converts slot-based merges into dendrogram ids.
func relabel(raw []rawMerge, n int) []Merge {
	total := 2*n - 1
	parent := make([]int, total)
	sizes := make([]int, total)
	for i := range parent {
		parent[i] = i
		if i < n {
			sizes[i] = 1
		}
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

	merges := make([]Merge, 0, len(raw))
	next := n
	for _, r := range raw {
		a, b := find(r.x), find(r.y)
		if a > b {
			a, b = b, a
		}
		sizes[next] = sizes[a] + sizes[b]
		merges = append(merges, Merge{Left: a, Right: b, Distance: r.dist, Size: sizes[next]})
		parent[a], parent[b] = next, next
		next++
	}
	return merges
}

// BuildEvents computes the pairwise distances for a country's events under
// one weighting and clusters them.
func BuildEvents(model distance.Model, events []conflict.Event, w conflict.Weighting, method Method) (*Linkage, error) {
	condensed, err := model.Condensed(events, w)
	if err != nil {
		return nil, err
	}
	return Build(condensed, len(events), method)
}
