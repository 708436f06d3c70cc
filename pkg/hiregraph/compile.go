package hiregraph

import (
	"errors"
	"fmt"
	"log/slog"
)

// Compile validates the graph and creates an executable
// CompiledGraph. Multiple validation errors are joined.
//
// Validation checks (in order):
//  1. Entry point must be set
//  2. Entry point must reference an existing node
//  3. All edge sources must reference existing nodes
//  4. All edge targets must reference existing nodes or END
//  5. A path from entry to END must exist
//
// Unreachable nodes are logged as warnings but do not fail
// compilation.
func (g *Graph[S]) Compile() (*CompiledGraph[S], error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var errs []error

	if g.entryPoint == "" {
		errs = append(errs, ErrNoEntryPoint)
	} else if _, exists := g.nodes[g.entryPoint]; !exists {
		errs = append(errs, fmt.Errorf("%w: %s", ErrEntryNotFound, g.entryPoint))
	}

	for from, targets := range g.edges {
		if from != END {
			if _, exists := g.nodes[from]; !exists {
				if _, hasConditional := g.conditionalEdges[from]; !hasConditional {
					errs = append(errs, fmt.Errorf("%w: edge source '%s' does not exist", ErrNodeNotFound, from))
				}
			}
		}
		for _, to := range targets {
			if to != END {
				if _, exists := g.nodes[to]; !exists {
					errs = append(errs, fmt.Errorf("%w: edge target '%s' does not exist", ErrNodeNotFound, to))
				}
			}
		}
	}

	for from := range g.conditionalEdges {
		if _, exists := g.nodes[from]; !exists {
			errs = append(errs, fmt.Errorf("%w: conditional edge source '%s' does not exist", ErrNodeNotFound, from))
		}
	}

	if g.entryPoint != "" {
		if _, exists := g.nodes[g.entryPoint]; exists {
			if !g.hasPathToEnd() {
				errs = append(errs, ErrNoPathToEnd)
			}
		}
	}

	g.warnUnreachableNodes()

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return g.buildCompiledGraph(), nil
}

// hasPathToEnd checks reachability of END from the entry point.
// Nodes with a router are assumed able to reach END, since the router
// may return it.
func (g *Graph[S]) hasPathToEnd() bool {
	canReachEnd := map[string]bool{END: true}

	changed := true
	for changed {
		changed = false

		for from, targets := range g.edges {
			if canReachEnd[from] {
				continue
			}
			for _, to := range targets {
				if canReachEnd[to] {
					canReachEnd[from] = true
					changed = true
					break
				}
			}
		}

		for from := range g.conditionalEdges {
			if !canReachEnd[from] {
				canReachEnd[from] = true
				changed = true
			}
		}
	}

	return canReachEnd[g.entryPoint]
}

func (g *Graph[S]) warnUnreachableNodes() {
	if g.entryPoint == "" {
		return
	}

	reachable := g.findReachableNodes()

	for nodeID := range g.nodes {
		if !reachable[nodeID] {
			slog.Warn("node is unreachable from entry", "node_id", nodeID)
		}
	}
}

// findReachableNodes BFSes from the entry point. A router's targets
// cannot be known statically, so any node with a conditional edge is
// treated as potentially reaching all nodes.
func (g *Graph[S]) findReachableNodes() map[string]bool {
	reachable := make(map[string]bool)

	if g.entryPoint == "" {
		return reachable
	}

	queue := []string{g.entryPoint}
	reachable[g.entryPoint] = true

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, target := range g.edges[current] {
			if target != END && !reachable[target] {
				reachable[target] = true
				queue = append(queue, target)
			}
		}

		if _, hasConditional := g.conditionalEdges[current]; hasConditional {
			for nodeID := range g.nodes {
				if !reachable[nodeID] {
					reachable[nodeID] = true
					queue = append(queue, nodeID)
				}
			}
		}
	}

	return reachable
}

// buildCompiledGraph snapshots the builder into an immutable graph.
func (g *Graph[S]) buildCompiledGraph() *CompiledGraph[S] {
	nodes := make(map[string]NodeFunc[S], len(g.nodes))
	for id, fn := range g.nodes {
		nodes[id] = fn
	}

	gates := make(map[string]Gate[S], len(g.gates))
	for id, gate := range g.gates {
		gates[id] = gate
	}

	edges := make(map[string][]string, len(g.edges))
	for from, targets := range g.edges {
		edges[from] = make([]string, len(targets))
		copy(edges[from], targets)
	}

	conditionalEdges := make(map[string]RouterFunc[S], len(g.conditionalEdges))
	for from, router := range g.conditionalEdges {
		conditionalEdges[from] = router
	}

	predecessors := make(map[string][]string)
	for from, targets := range edges {
		for _, to := range targets {
			if to != END {
				predecessors[to] = append(predecessors[to], from)
			}
		}
	}

	isConditional := make(map[string]bool)
	for from := range conditionalEdges {
		isConditional[from] = true
	}

	forkNodes, joinNodes := detectForkJoinNodes(edges, predecessors, isConditional)

	return &CompiledGraph[S]{
		nodes:            nodes,
		gates:            gates,
		edges:            edges,
		conditionalEdges: conditionalEdges,
		entryPoint:       g.entryPoint,
		predecessors:     predecessors,
		isConditional:    isConditional,
		branchHook:       g.branchHook,
		forkJoinConfig:   g.forkJoinConfig,
		forkNodes:        forkNodes,
		joinNodes:        joinNodes,
	}
}

// detectForkJoinNodes identifies fork and join points. A fork node has
// multiple outgoing non-conditional edges; its join is the nearest
// node all branches pass through (post-dominator analysis).
func detectForkJoinNodes(edges map[string][]string, predecessors map[string][]string, isConditional map[string]bool) (map[string]*ForkNode, map[string]*JoinNode) {
	forkNodes := make(map[string]*ForkNode)
	joinNodes := make(map[string]*JoinNode)

	for from, targets := range edges {
		if len(targets) > 1 && !isConditional[from] {
			fork := &ForkNode{
				NodeID:   from,
				Branches: make([]string, len(targets)),
			}
			copy(fork.Branches, targets)

			joinNodeID := findJoinNode(fork.Branches, edges)
			fork.JoinNodeID = joinNodeID

			forkNodes[from] = fork

			if joinNodeID != "" && joinNodeID != END {
				joinNodes[joinNodeID] = &JoinNode{
					NodeID:           joinNodeID,
					ForkNodeID:       from,
					ExpectedBranches: fork.Branches,
				}
			}
		}
	}

	return forkNodes, joinNodes
}

// findJoinNode finds the first node that every branch reaches.
func findJoinNode(branches []string, edges map[string][]string) string {
	if len(branches) == 0 {
		return ""
	}

	branchReachable := make([]map[string]bool, len(branches))
	for i, branch := range branches {
		branchReachable[i] = computeReachable(branch, edges)
	}

	common := make(map[string]bool)
	for node := range branchReachable[0] {
		common[node] = true
	}
	for i := 1; i < len(branches); i++ {
		for node := range common {
			if !branchReachable[i][node] {
				delete(common, node)
			}
		}
	}

	if len(common) == 0 {
		return ""
	}

	// The closest common node from any branch is the join.
	return findClosestNode(branches[0], common, edges)
}

func computeReachable(start string, edges map[string][]string) map[string]bool {
	reachable := map[string]bool{start: true}
	queue := []string{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, next := range edges[current] {
			if next != END && !reachable[next] {
				reachable[next] = true
				queue = append(queue, next)
			}
		}
	}

	return reachable
}

func findClosestNode(start string, targets map[string]bool, edges map[string][]string) string {
	if targets[start] {
		return start
	}

	visited := map[string]bool{start: true}
	queue := []string{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, next := range edges[current] {
			if next == END {
				continue
			}
			if targets[next] {
				return next
			}
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}

	return ""
}
