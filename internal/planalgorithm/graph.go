// Package planalgorithm builds a MultiDiGraph<GraphNode, Contract> from a
// recipe registry by greedy breadth-first expansion from a target node,
// picking best-fit recipes via the fitness scorer, reusing compatible
// nodes, and splitting subgraphs to isolate better-fitting recipes onto a
// subset of paths.
package planalgorithm

import (
	"fmt"

	"github.com/samgonzalez27/buildplan/internal/core"
)

// GraphNode is a planned node: a recipe together with the set of context
// paths under which it was registered. Node identity is by pointer, not by
// (Recipe, Context) value equality — a split can legitimately create two
// distinct nodes sharing both. Idx is a stable arena index, assigned once
// at allocation, used only for diagnostics and deterministic tie-breaks.
type GraphNode struct {
	Idx     int
	Recipe  core.RecipeDescriptor
	Context []core.ContextPath
}

// Edge is a directed, contract-labeled edge: Producer (From) feeds
// Consumer (To) the asset identified by Contract.
type Edge struct {
	From, To *GraphNode
	Contract core.Contract
}

func (e Edge) String() string {
	return fmt.Sprintf("%s --%s--> %s", e.From.Recipe.Name, e.Contract, e.To.Recipe.Name)
}

// Graph is an arena-allocated multigraph of GraphNodes. Nodes are never
// removed individually except via Prune; edges are added and removed
// freely during splits. Adjacency is tracked in insertion order so that
// traversals (and therefore planning decisions) are reproducible given the
// same sequence of registry operations.
type Graph struct {
	nodes    []*GraphNode
	edgeSet  map[Edge]bool
	outOrder map[*GraphNode][]Edge // edges keyed by From, insertion order
	inOrder  map[*GraphNode][]Edge // edges keyed by To, insertion order
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		edgeSet:  make(map[Edge]bool),
		outOrder: make(map[*GraphNode][]Edge),
		inOrder:  make(map[*GraphNode][]Edge),
	}
}

// NewNode allocates and returns a fresh node, distinct from every other
// node even if recipe and context are identical to an existing one.
func (g *Graph) NewNode(recipe core.RecipeDescriptor, context []core.ContextPath) *GraphNode {
	n := &GraphNode{Idx: len(g.nodes), Recipe: recipe, Context: context}
	g.nodes = append(g.nodes, n)
	return n
}

// Nodes returns every live node, in arena (allocation) order.
func (g *Graph) Nodes() []*GraphNode { return g.nodes }

// HasEdge reports whether the exact (from, to, contract) edge exists.
func (g *Graph) HasEdge(e Edge) bool { return g.edgeSet[e] }

// AddEdge inserts the edge if absent. Reports whether it was newly added.
func (g *Graph) AddEdge(e Edge) bool {
	if g.edgeSet[e] {
		return false
	}
	g.edgeSet[e] = true
	g.outOrder[e.From] = append(g.outOrder[e.From], e)
	g.inOrder[e.To] = append(g.inOrder[e.To], e)
	return true
}

// RemoveEdge deletes the edge if present.
func (g *Graph) RemoveEdge(e Edge) {
	if !g.edgeSet[e] {
		return
	}
	delete(g.edgeSet, e)
	g.outOrder[e.From] = removeEdge(g.outOrder[e.From], e)
	g.inOrder[e.To] = removeEdge(g.inOrder[e.To], e)
}

func removeEdge(edges []Edge, target Edge) []Edge {
	for i, e := range edges {
		if e == target {
			return append(edges[:i:i], edges[i+1:]...)
		}
	}
	return edges
}

// InEdges returns n's in-edges (its dependencies), in insertion order.
func (g *Graph) InEdges(n *GraphNode) []Edge { return g.inOrder[n] }

// OutEdges returns n's out-edges (its consumers), in insertion order.
func (g *Graph) OutEdges(n *GraphNode) []Edge { return g.outOrder[n] }

// InDegree and OutDegree count live edges.
func (g *Graph) InDegree(n *GraphNode) int  { return len(g.inOrder[n]) }
func (g *Graph) OutDegree(n *GraphNode) int { return len(g.outOrder[n]) }

// Ancestors returns every node from which n is reachable by following
// edges forward (producer -> consumer), i.e. every transitive producer of
// n. n itself is not included.
func (g *Graph) Ancestors(n *GraphNode) map[*GraphNode]bool {
	seen := make(map[*GraphNode]bool)
	queue := []*GraphNode{n}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, e := range g.InEdges(cur) {
			if !seen[e.From] {
				seen[e.From] = true
				queue = append(queue, e.From)
			}
		}
	}
	return seen
}

// Descendants returns every node reachable from n by following edges
// forward, i.e. every transitive consumer of n. n itself is not included.
func (g *Graph) Descendants(n *GraphNode) map[*GraphNode]bool {
	seen := make(map[*GraphNode]bool)
	queue := []*GraphNode{n}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, e := range g.OutEdges(cur) {
			if !seen[e.To] {
				seen[e.To] = true
				queue = append(queue, e.To)
			}
		}
	}
	return seen
}

// AllSimpleEdgePaths enumerates every simple (no repeated node) directed
// edge path from "from" to "to", as edge sequences in traversal order. The
// traversal always visits a node's out-edges in insertion order, so the
// result order is a deterministic function of registration order.
func (g *Graph) AllSimpleEdgePaths(from, to *GraphNode) [][]Edge {
	var results [][]Edge
	visited := map[*GraphNode]bool{from: true}
	var path []Edge

	var walk func(cur *GraphNode)
	walk = func(cur *GraphNode) {
		if cur == to && len(path) > 0 {
			results = append(results, append([]Edge(nil), path...))
			return
		}
		for _, e := range g.OutEdges(cur) {
			if visited[e.To] {
				continue
			}
			visited[e.To] = true
			path = append(path, e)
			walk(e.To)
			path = path[:len(path)-1]
			visited[e.To] = false
		}
	}
	walk(from)
	return results
}

// EdgeBoundary returns every edge whose tail is in outside and whose head
// is in inside, in a deterministic order derived from node arena order.
func (g *Graph) EdgeBoundary(outside, inside map[*GraphNode]bool) []Edge {
	var out []Edge
	for _, n := range g.nodes {
		if !outside[n] {
			continue
		}
		for _, e := range g.OutEdges(n) {
			if inside[e.To] {
				out = append(out, e)
			}
		}
	}
	return out
}

// Prune removes every node that cannot reach keep by following edges
// forward (i.e. is not an ancestor of keep, and is not keep itself), along
// with their incident edges.
func (g *Graph) Prune(keep *GraphNode) {
	reach := g.Ancestors(keep)
	reach[keep] = true

	var survivors []*GraphNode
	for _, n := range g.nodes {
		if reach[n] {
			survivors = append(survivors, n)
			continue
		}
		for _, e := range append([]Edge(nil), g.outOrder[n]...) {
			g.RemoveEdge(e)
		}
		for _, e := range append([]Edge(nil), g.inOrder[n]...) {
			g.RemoveEdge(e)
		}
		delete(g.outOrder, n)
		delete(g.inOrder, n)
	}
	g.nodes = survivors
}

// TopoOrder returns the graph's nodes in a deterministic topological order
// (producers before consumers), via Kahn's algorithm breaking ties by
// ascending arena index.
func (g *Graph) TopoOrder() []*GraphNode {
	indeg := make(map[*GraphNode]int, len(g.nodes))
	for _, n := range g.nodes {
		indeg[n] = g.InDegree(n)
	}

	var ready []*GraphNode
	for _, n := range g.nodes {
		if indeg[n] == 0 {
			ready = append(ready, n)
		}
	}

	order := make([]*GraphNode, 0, len(g.nodes))
	for len(ready) > 0 {
		sortNodesByIdx(ready)
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)

		for _, e := range g.OutEdges(n) {
			indeg[e.To]--
			if indeg[e.To] == 0 {
				ready = append(ready, e.To)
			}
		}
	}
	return order
}

func sortNodesByIdx(ns []*GraphNode) {
	for i := 1; i < len(ns); i++ {
		for j := i; j > 0 && ns[j].Idx < ns[j-1].Idx; j-- {
			ns[j], ns[j-1] = ns[j-1], ns[j]
		}
	}
}
