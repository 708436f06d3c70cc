package hiregraph

// CompiledGraph is an immutable, executable workflow graph created by
// Compile(). It is safe for concurrent use: a single CompiledGraph
// serves any number of simultaneous Run() calls.
type CompiledGraph[S any] struct {
	nodes            map[string]NodeFunc[S]
	gates            map[string]Gate[S]
	edges            map[string][]string
	conditionalEdges map[string]RouterFunc[S]
	entryPoint       string

	predecessors  map[string][]string
	isConditional map[string]bool

	// Parallel execution support
	branchHook     BranchHook[S]
	forkJoinConfig ForkJoinConfig
	forkNodes      map[string]*ForkNode
	joinNodes      map[string]*JoinNode
}

// EntryPoint returns the entry node ID.
func (cg *CompiledGraph[S]) EntryPoint() string {
	return cg.entryPoint
}

// NodeIDs returns all node identifiers, gates included. Order is not
// guaranteed.
func (cg *CompiledGraph[S]) NodeIDs() []string {
	ids := make([]string, 0, len(cg.nodes))
	for id := range cg.nodes {
		ids = append(ids, id)
	}
	return ids
}

// HasNode checks if a node exists in the graph.
func (cg *CompiledGraph[S]) HasNode(id string) bool {
	_, exists := cg.nodes[id]
	return exists
}

// IsGate reports whether the node is a human review gate.
func (cg *CompiledGraph[S]) IsGate(id string) bool {
	_, exists := cg.gates[id]
	return exists
}

// Successors returns the targets of the node's simple edges. Targets
// of conditional edges are runtime-determined and not included.
func (cg *CompiledGraph[S]) Successors(id string) []string {
	if id == END {
		return nil
	}
	return cg.edges[id]
}

// Predecessors returns the node IDs with edges into the given node.
func (cg *CompiledGraph[S]) Predecessors(id string) []string {
	return cg.predecessors[id]
}

// IsConditional returns true if the node has a conditional edge.
func (cg *CompiledGraph[S]) IsConditional(id string) bool {
	return cg.isConditional[id]
}

func (cg *CompiledGraph[S]) getNode(id string) (NodeFunc[S], bool) {
	fn, exists := cg.nodes[id]
	return fn, exists
}

func (cg *CompiledGraph[S]) getGate(id string) (Gate[S], bool) {
	gate, exists := cg.gates[id]
	return gate, exists
}

func (cg *CompiledGraph[S]) getRouter(id string) (RouterFunc[S], bool) {
	router, exists := cg.conditionalEdges[id]
	return router, exists
}

func (cg *CompiledGraph[S]) getEdges(id string) []string {
	return cg.edges[id]
}

// IsForkNode returns true if the node is a detected fork point.
func (cg *CompiledGraph[S]) IsForkNode(id string) bool {
	_, exists := cg.forkNodes[id]
	return exists
}

// GetForkNode returns the fork information for a node, or nil.
func (cg *CompiledGraph[S]) GetForkNode(id string) *ForkNode {
	return cg.forkNodes[id]
}

// IsJoinNode returns true if the node is a detected join point.
func (cg *CompiledGraph[S]) IsJoinNode(id string) bool {
	_, exists := cg.joinNodes[id]
	return exists
}

// GetJoinNode returns the join information for a node, or nil.
func (cg *CompiledGraph[S]) GetJoinNode(id string) *JoinNode {
	return cg.joinNodes[id]
}

// ForkNodes returns all fork nodes in the graph.
func (cg *CompiledGraph[S]) ForkNodes() []*ForkNode {
	result := make([]*ForkNode, 0, len(cg.forkNodes))
	for _, fn := range cg.forkNodes {
		result = append(result, fn)
	}
	return result
}

// HasParallelExecution returns true if the graph contains any
// fork/join structure.
func (cg *CompiledGraph[S]) HasParallelExecution() bool {
	return len(cg.forkNodes) > 0
}

func (cg *CompiledGraph[S]) getBranchHook() BranchHook[S] {
	return cg.branchHook
}

func (cg *CompiledGraph[S]) getForkJoinConfig() ForkJoinConfig {
	return cg.forkJoinConfig
}
