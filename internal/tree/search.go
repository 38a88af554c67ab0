package tree

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Match is a variable name found by Search.
type Match struct {
	Name     string
	Distance int
	// Contains is set when the query is a substring of the name.
	Contains bool
}

// Search ranks the known variable names (simple, root and pretty) against query.
// Substring hits rank first, then edit distance; names whose distance is
// more than half their length are dropped.
func (d *Domains) Search(query string, limit int) []Match {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	seen := make(map[string]bool)
	var out []Match
	consider := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		lower := strings.ToLower(name)
		m := Match{
			Name:     name,
			Distance: levenshtein.ComputeDistance(q, lower),
			Contains: strings.Contains(lower, q),
		}
		if !m.Contains && float64(m.Distance) > float64(max(len(lower), len(q)))/2 {
			return
		}
		out = append(out, m)
	}
	for _, name := range d.simpleOrder {
		consider(name)
	}
	for _, v := range d.rootVars {
		consider(v.Name)
	}
	for _, row := range d.Rows() {
		consider(row.Entry.Name)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Contains != out[j].Contains {
			return out[i].Contains
		}
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
