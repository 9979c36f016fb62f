package depgraph

import "sort"

// SortResult is the sorter's output: Order lists relation names leaves
// (most-depended-upon) first, per ; Cycles lists edges the sorter had
// to force past because no zero-dependency node was available.
type SortResult struct {
	Order  []string
	Cycles []Edge
}

// Sort runs Kahn's algorithm over the prerequisite graph implied by the
// recorded edges (edge u->v means "u depends on v", so v is a prerequisite
// of u and must be output first). Ties within a rank break by the order
// nodes were declared (AddNode call order), matching the "within a rank,
// original declaration order is preserved". Cycles never cause non-
// termination: when no node has zero remaining prerequisites, the
// lowest-declaration-order remaining node is forced out and the edges that
// blocked it are reported in Cycles, implementing the "never hold long-
// lived owning pointers" / "break cycles by treating already-visited nodes
// as satisfied".
func (g *Graph) Sort() SortResult {
	prereqAdj := map[string][]string{} // v -> [u, ...] meaning v must precede u
	inDegree := map[string]int{}
	for _, n := range g.nodes {
		key := lower(n.Name)
		inDegree[key] = 0
	}
	for from, tos := range g.adjacency {
		for _, to := range tos {
			if _, ok := inDegree[to]; !ok {
				continue // unresolved reference, reported separately
			}
			if to == from {
				continue // self-reference is not a prerequisite
			}
			prereqAdj[to] = append(prereqAdj[to], from)
			inDegree[from]++
		}
	}

	remaining := map[string]bool{}
	for _, n := range g.nodes {
		remaining[lower(n.Name)] = true
	}

	var result SortResult
	for len(remaining) > 0 {
		var ready []string
		for key := range remaining {
			if inDegree[key] == 0 {
				ready = append(ready, key)
			}
		}
		if len(ready) == 0 {
			// Cycle: force out the lowest declaration-order remaining node.
			var keys []string
			for key := range remaining {
				keys = append(keys, key)
			}
			sort.Slice(keys, func(i, j int) bool {
				return g.declarationIndex(keys[i]) < g.declarationIndex(keys[j])
			})
			forced := keys[0]
			for _, e := range g.edges {
				if lower(e.From) == forced && remaining[lower(e.To)] {
					result.Cycles = append(result.Cycles, e)
				}
			}
			ready = []string{forced}
		} else {
			sort.Slice(ready, func(i, j int) bool {
				return g.declarationIndex(ready[i]) < g.declarationIndex(ready[j])
			})
		}
		for _, key := range ready {
			result.Order = append(result.Order, g.nameOf(key))
			delete(remaining, key)
			for _, u := range prereqAdj[key] {
				if remaining[u] {
					inDegree[u]--
				}
			}
		}
	}
	return result
}

func (g *Graph) nameOf(lowerKey string) string {
	idx := g.declarationIndex(lowerKey)
	if idx >= 0 && idx < len(g.nodes) {
		return g.nodes[idx].Name
	}
	return lowerKey
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// HasSelfEdge reports whether name depends on itself — SQLite permits
// self-referential FKs, so this alone never forces a cycle break.
func (g *Graph) HasSelfEdge(name string) bool {
	key := lower(name)
	for _, to := range g.adjacency[key] {
		if to == key {
			return true
		}
	}
	return false
}

// TwoCycles returns every pair of distinct relations that mutually depend
// on each other — illegal for two ordinary tables in SQLite, but reported
// rather than rejected.
func (g *Graph) TwoCycles() [][2]string {
	var out [][2]string
	seen := map[[2]string]bool{}
	for a, tos := range g.adjacency {
		for _, b := range tos {
			if a == b {
				continue
			}
			for _, back := range g.adjacency[b] {
				if back != a {
					continue
				}
				pair := [2]string{a, b}
				if a > b {
					pair = [2]string{b, a}
				}
				if !seen[pair] {
					seen[pair] = true
					out = append(out, pair)
				}
			}
		}
	}
	return out
}
