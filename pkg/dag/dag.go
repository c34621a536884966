// SPDX-License-Identifier: Apache-2.0

// Package dag builds and traverses the project dependency graph: forward
// edges (a model's sources) and reverse edges (a model's dependents), used
// for blast-radius analysis and topological ordering.
package dag

import (
	"sort"

	"github.com/sqlcontract/sqlcontract/pkg/manifest"
)

// NodeID is a manifest unique_id.
type NodeID = string

// Graph is a dependency graph with forward (parents) and reverse (children)
// edges. The zero value is not usable; build one with FromManifest.
type Graph struct {
	parents  map[NodeID][]NodeID
	children map[NodeID][]NodeID
	nodes    map[NodeID]struct{}
}

// FromManifest builds a Graph from a manifest. When the manifest carries
// precomputed parent_map/child_map (as dbt always emits), those are used
// directly; otherwise the graph is derived from each node's depends_on list.
func FromManifest(m *manifest.Manifest) *Graph {
	g := &Graph{
		parents:  make(map[NodeID][]NodeID),
		children: make(map[NodeID][]NodeID),
		nodes:    make(map[NodeID]struct{}),
	}

	if len(m.ParentMap) > 0 && len(m.ChildMap) > 0 {
		for nodeID, parentIDs := range m.ParentMap {
			g.nodes[nodeID] = struct{}{}
			g.parents[nodeID] = append([]NodeID(nil), parentIDs...)
			for _, p := range parentIDs {
				g.nodes[p] = struct{}{}
			}
		}
		for nodeID, childIDs := range m.ChildMap {
			g.nodes[nodeID] = struct{}{}
			g.children[nodeID] = append([]NodeID(nil), childIDs...)
			for _, c := range childIDs {
				g.nodes[c] = struct{}{}
			}
		}
		return g
	}

	for nodeID, node := range m.Nodes {
		g.nodes[nodeID] = struct{}{}
		deps := node.DependsOn.Nodes
		if len(deps) == 0 {
			continue
		}
		g.parents[nodeID] = append([]NodeID(nil), deps...)
		for _, depID := range deps {
			g.children[depID] = append(g.children[depID], nodeID)
			g.nodes[depID] = struct{}{}
		}
	}
	for sourceID := range m.Sources {
		g.nodes[sourceID] = struct{}{}
	}

	return g
}

// AllNodes returns every node id in the graph, sorted for determinism.
func (g *Graph) AllNodes() []NodeID {
	out := make([]NodeID, 0, len(g.nodes))
	for n := range g.nodes {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Parents returns the immediate dependencies of a node.
func (g *Graph) Parents(nodeID NodeID) []NodeID {
	return g.parents[nodeID]
}

// Children returns the immediate dependents of a node.
func (g *Graph) Children(nodeID NodeID) []NodeID {
	return g.children[nodeID]
}

// Downstream returns the transitive closure of a node's children: every
// model affected if nodeID changes. The result is in BFS discovery order.
func (g *Graph) Downstream(nodeID NodeID) []NodeID {
	return g.bfs(nodeID, g.children)
}

// Upstream returns the transitive closure of a node's parents.
func (g *Graph) Upstream(nodeID NodeID) []NodeID {
	return g.bfs(nodeID, g.parents)
}

func (g *Graph) bfs(start NodeID, edges map[NodeID][]NodeID) []NodeID {
	visited := make(map[NodeID]bool)
	queue := append([]NodeID(nil), edges[start]...)
	result := make([]NodeID, 0)

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if visited[current] {
			continue
		}
		visited[current] = true
		result = append(result, current)

		for _, next := range edges[current] {
			if !visited[next] {
				queue = append(queue, next)
			}
		}
	}

	return result
}

// HasPath reports whether target is reachable downstream of source.
func (g *Graph) HasPath(source, target NodeID) bool {
	for _, n := range g.Downstream(source) {
		if n == target {
			return true
		}
	}
	return false
}

// TopologicalSort returns a dependency-respecting order of all nodes (every
// node appears after its parents) via Kahn's algorithm. The second return
// value is false when the graph contains a cycle; callers must not treat a
// cycle as a crash condition, only as a diagnosable state.
func (g *Graph) TopologicalSort() ([]NodeID, bool) {
	inDegree := make(map[NodeID]int, len(g.nodes))
	for n := range g.nodes {
		inDegree[n] = 0
	}
	for n, parents := range g.parents {
		inDegree[n] = len(parents)
	}

	ready := make([]NodeID, 0)
	for n, degree := range inDegree {
		if degree == 0 {
			ready = append(ready, n)
		}
	}
	sort.Strings(ready)

	result := make([]NodeID, 0, len(g.nodes))
	for len(ready) > 0 {
		node := ready[0]
		ready = ready[1:]
		result = append(result, node)

		unblocked := make([]NodeID, 0)
		for _, child := range g.children[node] {
			if _, ok := inDegree[child]; !ok {
				continue
			}
			inDegree[child]--
			if inDegree[child] == 0 {
				unblocked = append(unblocked, child)
			}
		}
		sort.Strings(unblocked)
		ready = append(ready, unblocked...)
	}

	if len(result) != len(g.nodes) {
		return nil, false
	}
	return result, true
}
