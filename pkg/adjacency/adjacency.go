// Package adjacency builds the edge-sharing graph over a mesh's triangle
// table. Two triangles are neighbors iff they share a full undirected edge;
// sharing a single vertex is not adjacency. Degenerate triangles are
// excluded from the graph entirely and reported separately.
package adjacency

import (
	"slices"

	"github.com/chazu/facet/pkg/mesh"
)

// edgeKey is an undirected edge between two vertex indices, lo < hi.
type edgeKey struct {
	lo, hi uint32
}

func makeEdgeKey(a, b uint32) edgeKey {
	if a < b {
		return edgeKey{lo: a, hi: b}
	}
	return edgeKey{lo: b, hi: a}
}

// Graph holds per-triangle neighbor lists for O(1) neighbor queries.
type Graph struct {
	neighbors  [][]int32
	degenerate []int32
}

// Build constructs the graph in a single pass over the triangle table:
// one map from undirected edge to the triangles containing it, then
// pairwise neighbor links for every shared edge. Non-manifold edges
// (more than two triangles on one edge) connect all sharing triangles
// pairwise. Neighbor lists come out sorted ascending and deduplicated,
// so traversal order is deterministic.
func Build(tris []mesh.Triangle) *Graph {
	g := &Graph{neighbors: make([][]int32, len(tris))}

	edges := make(map[edgeKey][]int32, len(tris)*3/2)
	for i, tri := range tris {
		if tri.Degenerate {
			g.degenerate = append(g.degenerate, int32(i))
			continue
		}
		id := int32(i)
		edges[makeEdgeKey(tri.V0, tri.V1)] = append(edges[makeEdgeKey(tri.V0, tri.V1)], id)
		edges[makeEdgeKey(tri.V1, tri.V2)] = append(edges[makeEdgeKey(tri.V1, tri.V2)], id)
		edges[makeEdgeKey(tri.V2, tri.V0)] = append(edges[makeEdgeKey(tri.V2, tri.V0)], id)
	}

	for _, sharing := range edges {
		if len(sharing) < 2 {
			continue
		}
		for i := 0; i < len(sharing); i++ {
			for j := i + 1; j < len(sharing); j++ {
				a, b := sharing[i], sharing[j]
				g.neighbors[a] = append(g.neighbors[a], b)
				g.neighbors[b] = append(g.neighbors[b], a)
			}
		}
	}

	// Duplicate triangles share more than one edge; collapse repeats.
	for i := range g.neighbors {
		slices.Sort(g.neighbors[i])
		g.neighbors[i] = slices.Compact(g.neighbors[i])
	}

	return g
}

// TriangleCount returns the number of triangles the graph was built over,
// degenerates included.
func (g *Graph) TriangleCount() int {
	return len(g.neighbors)
}

// Neighbors returns the triangles sharing an edge with t, sorted
// ascending. The returned slice is owned by the graph; callers must not
// modify it.
func (g *Graph) Neighbors(t int32) []int32 {
	return g.neighbors[t]
}

// Degenerate returns the triangle ids excluded from the graph, sorted
// ascending.
func (g *Graph) Degenerate() []int32 {
	return g.degenerate
}

// Components splits an arbitrary triangle subset into edge-connected
// components via breadth-first traversal. Seeds are visited in ascending
// index order, each component is returned sorted ascending, and the
// component list is ordered by smallest member, so identical input always
// yields identical output.
func (g *Graph) Components(members []int32) [][]int32 {
	if len(members) == 0 {
		return nil
	}

	inSet := make([]bool, len(g.neighbors))
	for _, m := range members {
		inSet[m] = true
	}

	seeds := slices.Clone(members)
	slices.Sort(seeds)

	visited := make([]bool, len(g.neighbors))
	var components [][]int32

	for _, seed := range seeds {
		if visited[seed] {
			continue
		}
		visited[seed] = true

		component := []int32{seed}
		queue := []int32{seed}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, n := range g.neighbors[cur] {
				if !inSet[n] || visited[n] {
					continue
				}
				visited[n] = true
				component = append(component, n)
				queue = append(queue, n)
			}
		}

		slices.Sort(component)
		components = append(components, component)
	}

	return components
}
