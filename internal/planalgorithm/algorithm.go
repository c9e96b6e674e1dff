package planalgorithm

import (
	"github.com/samgonzalez27/buildplan/internal/core"
	"github.com/samgonzalez27/buildplan/internal/fitness"
)

// RecipeHandle is a registered recipe's identity: its descriptor plus
// every context path it was registered under. A *RecipeHandle plays the
// role the Python original gives to the recipe class object itself (used
// as a dict key by identity); Registry is responsible for handing out one
// stable handle per distinct registered recipe.
type RecipeHandle struct {
	Desc     core.RecipeDescriptor
	Contexts []core.ContextPath
}

type recipePick struct {
	Handle  *RecipeHandle
	Fitness float64
}

type existingNodePick struct {
	Node    *GraphNode
	Fitness float64
}

type algorithm struct {
	graph             *Graph
	targetNode        *GraphNode
	targetType        core.AssetType
	queue             [][]Edge
	contractToRecipes map[core.Contract][]*RecipeHandle
	opts              fitness.Options
	splitCount        int
}

// Stats reports counters about a single planning run, for the caller to
// feed into its own metrics without the pure algorithm depending on any
// instrumentation package.
type Stats struct {
	Splits int
}

// Run builds the planned graph for target, greedily satisfying every
// dependency from the target outward, and returns the pruned graph
// together with its unique sink (the target node).
func Run(target *RecipeHandle, contractToRecipes map[core.Contract][]*RecipeHandle, opts fitness.Options) (*Graph, *GraphNode, Stats, error) {
	g := NewGraph()
	targetNode := g.NewNode(target.Desc, target.Contexts)

	a := &algorithm{
		graph:             g,
		targetNode:        targetNode,
		targetType:        target.Desc.Produces(),
		queue:             [][]Edge{{}},
		contractToRecipes: contractToRecipes,
		opts:              opts,
	}

	for len(a.queue) > 0 {
		path := a.queue[0]
		a.queue = a.queue[1:]

		stale := false
		for _, e := range path {
			if !a.graph.HasEdge(e) {
				stale = true
				break
			}
		}
		if stale {
			continue
		}

		parent := a.targetNode
		if len(path) > 0 {
			parent = path[0].From
		}

		deps, err := parent.Recipe.Dependencies()
		if err != nil {
			return nil, nil, Stats{}, err
		}
		for _, dep := range deps {
			if err := a.satisfyDependency(parent, dep.Contract, path); err != nil {
				return nil, nil, Stats{}, err
			}
		}
	}

	a.graph.Prune(a.targetNode)
	return a.graph, a.targetNode, Stats{Splits: a.splitCount}, nil
}

func contractsOf(path []Edge) []core.Contract {
	out := make([]core.Contract, len(path))
	for i, e := range path {
		out[i] = e.Contract
	}
	return out
}

func (a *algorithm) computeFitness(context []core.ContextPath, path []Edge) float64 {
	planningPath := make([]core.Contract, 0, len(path)+1)
	planningPath = append(planningPath, contractsOf(path)...)
	planningPath = append(planningPath, core.Contract{Type: a.targetType})
	return fitness.Score(context, planningPath, a.opts)
}

func (a *algorithm) pickRecipe(contract core.Contract, path []Edge) (*recipePick, error) {
	candidates := a.contractToRecipes[contract]
	if len(candidates) == 0 {
		return nil, nil
	}

	maxFitness := 0.0
	var best []*RecipeHandle
	for _, h := range candidates {
		f := a.computeFitness(h.Contexts, path)
		if f == 0 {
			continue
		}
		switch {
		case f == maxFitness:
			best = append(best, h)
		case f > maxFitness:
			maxFitness = f
			best = []*RecipeHandle{h}
		}
	}

	if len(best) > 1 {
		names := make([]string, len(best))
		for i, h := range best {
			names[i] = h.Desc.Name
		}
		return nil, &core.AmbiguousRecipeError{Contract: contract, Candidates: names, Path: contractsOf(path)}
	}
	if len(best) == 0 {
		return nil, nil
	}
	return &recipePick{Handle: best[0], Fitness: maxFitness}, nil
}

func (a *algorithm) pickExistingNode(picked *recipePick, path []Edge) *existingNodePick {
	var node *GraphNode
	bestFitness := 0.0
	for _, n := range a.graph.Nodes() {
		if n.Recipe.Name != picked.Handle.Desc.Name {
			continue
		}
		f := a.computeFitness(n.Context, path)
		if f >= picked.Fitness && (node == nil || f > bestFitness) {
			node = n
			bestFitness = f
		}
	}
	if node == nil {
		return nil
	}
	return &existingNodePick{Node: node, Fitness: bestFitness}
}

func (a *algorithm) currentChild(parent *GraphNode, contract core.Contract) *GraphNode {
	for _, e := range a.graph.InEdges(parent) {
		if e.Contract == contract {
			return e.From
		}
	}
	return nil
}

func (a *algorithm) satisfyDependency(parent *GraphNode, contract core.Contract, path []Edge) error {
	picked, err := a.pickRecipe(contract, path)
	if err != nil {
		return err
	}
	if picked == nil {
		return &core.MissingRecipeError{
			Contract: contract,
			Path:     append([]core.Contract{contract}, contractsOf(path)...),
		}
	}

	reuse := a.pickExistingNode(picked, path)
	currChild := a.currentChild(parent, contract)

	if currChild == nil {
		var child *GraphNode
		if reuse != nil {
			child = reuse.Node
		} else {
			child = a.graph.NewNode(picked.Handle.Desc, picked.Handle.Contexts)
		}
		return a.addEdge(child, parent, contract, path)
	}

	currFitness := a.computeFitness(currChild.Context, path)

	switch {
	case reuse != nil && reuse.Fitness > currFitness:
		isolating, err := a.computeIsolatingEdge(reuse.Node.Context, parent, currChild)
		if err != nil {
			return err
		}
		newParent, err := a.performSplit(parent, isolating, reuse.Node.Context, Edge{From: currChild, To: parent, Contract: contract})
		if err != nil {
			return err
		}
		return a.addEdge(reuse.Node, newParent, contract, path)

	case picked.Fitness > currFitness:
		isolating, err := a.computeIsolatingEdge(picked.Handle.Contexts, parent, currChild)
		if err != nil {
			return err
		}
		newParent, err := a.performSplit(parent, isolating, picked.Handle.Contexts, Edge{From: currChild, To: parent, Contract: contract})
		if err != nil {
			return err
		}
		child := a.graph.NewNode(picked.Handle.Desc, picked.Handle.Contexts)
		return a.addEdge(child, newParent, contract, path)

	default:
		return a.useEdge(Edge{From: currChild, To: parent, Contract: contract}, path)
	}
}

func (a *algorithm) addEdge(child, parent *GraphNode, contract core.Contract, path []Edge) error {
	for _, e := range a.graph.InEdges(parent) {
		if e.Contract == contract {
			return &core.DoubleContractError{Consumer: parent.Recipe.Name, Contract: contract}
		}
	}
	e := Edge{From: child, To: parent, Contract: contract}
	a.graph.AddEdge(e)
	return a.useEdge(e, path)
}

func (a *algorithm) useEdge(e Edge, path []Edge) error {
	for _, pe := range path {
		if pe == e {
			return &core.CycleError{Contract: e.Contract, Path: contractsOf(path)}
		}
	}
	extended := make([]Edge, 0, len(path)+1)
	extended = append(extended, e)
	extended = append(extended, path...)
	a.queue = append(a.queue, extended)
	return nil
}

// computeIsolatingEdge finds the minimal set of edges whose redirection
// routes exactly the paths that context matches better than currChild's
// context onto a duplicated subgraph. Edge and path iteration always
// follows graph insertion order so the greedy max-coverage pick, and any
// resulting NoIsolatingEdge diagnostic, are reproducible.
func (a *algorithm) computeIsolatingEdge(context []core.ContextPath, parent, currChild *GraphNode) (map[Edge]bool, error) {
	paths := a.graph.AllSimpleEdgePaths(parent, a.targetNode)

	matching := make(map[int]bool)
	var matchingOrder []int
	nonmatching := make(map[Edge]bool)
	isolating := make(map[Edge]map[int]bool)
	var edgeOrder []Edge

	for i, p := range paths {
		currFitness := a.computeFitness(currChild.Context, p)
		f := a.computeFitness(context, p)
		if f > 0 && f > currFitness {
			matching[i] = true
			matchingOrder = append(matchingOrder, i)
			for _, e := range p {
				if nonmatching[e] {
					continue
				}
				if _, ok := isolating[e]; !ok {
					isolating[e] = make(map[int]bool)
					edgeOrder = append(edgeOrder, e)
				}
				isolating[e][i] = true
			}
		} else {
			for _, e := range p {
				nonmatching[e] = true
				delete(isolating, e)
			}
		}
	}

	picked := make(map[Edge]bool)
	for len(isolating) > 0 {
		var bestEdge Edge
		bestCount := -1
		found := false
		for _, e := range edgeOrder {
			s, ok := isolating[e]
			if !ok {
				continue
			}
			if len(s) > bestCount {
				bestCount = len(s)
				bestEdge = e
				found = true
			}
		}
		if !found {
			break
		}
		for pi := range isolating[bestEdge] {
			delete(matching, pi)
			for _, e := range paths[pi] {
				if s, ok := isolating[e]; ok {
					delete(s, pi)
					if len(s) == 0 {
						delete(isolating, e)
					}
				}
			}
		}
		picked[bestEdge] = true
		delete(isolating, bestEdge)
	}

	if len(matching) > 0 {
		for _, i := range matchingOrder {
			if matching[i] {
				return nil, &core.NoIsolatingEdgeError{MatchingPath: contractsOf(paths[i])}
			}
		}
	}
	return picked, nil
}

// performSplit duplicates the subgraph between parent and the isolating
// edges, tags the copies with context, rewires the isolating edges onto
// the copies, and returns the duplicate of parent — the new attachment
// point for the better-fitting recipe.
func (a *algorithm) performSplit(parent *GraphNode, isolating map[Edge]bool, context []core.ContextPath, currChildEdge Edge) (*GraphNode, error) {
	a.splitCount++
	ancestorsUnion := make(map[*GraphNode]bool)
	for e := range isolating {
		for n := range a.graph.Ancestors(e.To) {
			ancestorsUnion[n] = true
		}
	}

	descendantsOfParent := a.graph.Descendants(parent)

	h := make(map[*GraphNode]bool)
	for n := range descendantsOfParent {
		if ancestorsUnion[n] {
			h[n] = true
		}
	}
	h[parent] = true

	var hNodes []*GraphNode
	for _, n := range a.graph.Nodes() {
		if h[n] {
			hNodes = append(hNodes, n)
		}
	}

	copies := make(map[*GraphNode]*GraphNode, len(hNodes))
	for _, n := range hNodes {
		copies[n] = a.graph.NewNode(n.Recipe, context)
	}

	var internal []Edge
	for _, n := range hNodes {
		for _, e := range a.graph.OutEdges(n) {
			if h[e.To] {
				internal = append(internal, e)
			}
		}
	}
	for _, e := range internal {
		a.graph.AddEdge(Edge{From: copies[e.From], To: copies[e.To], Contract: e.Contract})
	}

	outside := make(map[*GraphNode]bool)
	for _, n := range a.graph.Nodes() {
		if !h[n] {
			outside[n] = true
		}
	}
	for _, e := range a.graph.EdgeBoundary(outside, h) {
		if e == currChildEdge {
			continue
		}
		a.graph.AddEdge(Edge{From: e.From, To: copies[e.To], Contract: e.Contract})
	}

	for e := range isolating {
		a.graph.RemoveEdge(e)
		a.graph.AddEdge(Edge{From: copies[e.From], To: e.To, Contract: e.Contract})
	}

	return copies[parent], nil
}
