package position

import "github.com/domino14/repopt/move"

// Graph owns every position reached so far, one node per canonical key.
// Nodes are created on first reference and never removed.
type Graph struct {
	nodes map[Key]*Node
	order []*Node
}

func NewGraph() *Graph {
	return &Graph{nodes: make(map[Key]*Node)}
}

// GetOrCreate returns the node for fen's canonical key, creating a fresh
// zero-frequency node without transitions if there is none yet.
func (g *Graph) GetOrCreate(fen string) *Node {
	key := Canonicalize(fen)
	if n, ok := g.nodes[key]; ok {
		return n
	}
	n := newNode(key, fen)
	g.nodes[key] = n
	g.order = append(g.order, n)
	return n
}

// Link inserts or overwrites the edge from one node to the position described
// by fen, creating the destination node if needed. Destinations therefore
// always exist in the graph.
func (g *Graph) Link(from *Node, fen string, mv move.Move, frequency float64) *Node {
	to := g.GetOrCreate(fen)
	from.setTransition(to.key, mv, frequency)
	return to
}

// Lookup returns the node for a canonical key.
func (g *Graph) Lookup(key Key) (*Node, bool) {
	n, ok := g.nodes[key]
	return n, ok
}

// Nodes visits every node in creation order. Callers must not mutate the
// nodes; use MutableNodes for that.
func (g *Graph) Nodes() []*Node {
	ns := make([]*Node, len(g.order))
	copy(ns, g.order)
	return ns
}

// MutableNodes is Nodes for passes that modify transitions or frequencies.
// Creating nodes while iterating the returned slice is allowed; new nodes are
// not visited.
func (g *Graph) MutableNodes() []*Node {
	return g.Nodes()
}

func (g *Graph) Len() int {
	return len(g.order)
}
