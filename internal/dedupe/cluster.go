package dedupe

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/dedupe/internal/model"
)

// DisjointSet is a union-find over string identifiers with path halving
// and union by size.
type DisjointSet struct {
	parent map[string]string
	size   map[string]int
}

// NewDisjointSet returns an empty set.
func NewDisjointSet() *DisjointSet {
	return &DisjointSet{
		parent: make(map[string]string),
		size:   make(map[string]int),
	}
}

// Add inserts id as a singleton if it is not already present.
func (d *DisjointSet) Add(id string) {
	if _, ok := d.parent[id]; ok {
		return
	}
	d.parent[id] = id
	d.size[id] = 1
}

// Find returns the representative of id, adding id if unknown.
func (d *DisjointSet) Find(id string) string {
	d.Add(id)
	for d.parent[id] != id {
		d.parent[id] = d.parent[d.parent[id]]
		id = d.parent[id]
	}
	return id
}

// Union merges the sets containing a and b. It reports whether they were
// previously disjoint.
func (d *DisjointSet) Union(a, b string) bool {
	ra, rb := d.Find(a), d.Find(b)
	if ra == rb {
		return false
	}
	if d.size[ra] < d.size[rb] {
		ra, rb = rb, ra
	}
	d.parent[rb] = ra
	d.size[ra] += d.size[rb]
	return true
}

// DuplicateGroup is a set of two or more records linked directly or
// transitively by qualifying pairs.
type DuplicateGroup struct {
	Records   []model.Record `json:"records"`
	PairCount int            `json:"pair_count"`
	MaxScore  float64        `json:"max_score"`
	MinScore  float64        `json:"min_score"`
}

// Group clusters pairs into connected components. Groups and the records
// within them are ordered by first appearance in pairs. Records without an
// ID cannot be clustered and yield ErrMissingID.
func Group(pairs []Pair) ([]DuplicateGroup, error) {
	ds := NewDisjointSet()
	records := make(map[string]model.Record)
	var order []string

	for _, p := range pairs {
		if p.A.ID == "" || p.B.ID == "" {
			return nil, eris.Wrap(ErrMissingID, "dedupe: group pairs")
		}
		for _, r := range []model.Record{p.A, p.B} {
			if _, ok := records[r.ID]; !ok {
				records[r.ID] = r
				order = append(order, r.ID)
			}
		}
		ds.Union(p.A.ID, p.B.ID)
	}

	index := make(map[string]int)
	var groups []DuplicateGroup
	for _, id := range order {
		root := ds.Find(id)
		gi, ok := index[root]
		if !ok {
			gi = len(groups)
			index[root] = gi
			groups = append(groups, DuplicateGroup{})
		}
		groups[gi].Records = append(groups[gi].Records, records[id])
	}

	for _, p := range pairs {
		g := &groups[index[ds.Find(p.A.ID)]]
		if g.PairCount == 0 || p.Result.Score > g.MaxScore {
			g.MaxScore = p.Result.Score
		}
		if g.PairCount == 0 || p.Result.Score < g.MinScore {
			g.MinScore = p.Result.Score
		}
		g.PairCount++
	}

	out := make([]DuplicateGroup, 0, len(groups))
	for _, g := range groups {
		if len(g.Records) >= 2 {
			out = append(out, g)
		}
	}
	return out, nil
}
