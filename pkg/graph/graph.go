package graph

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Graph represents an unweighted undirected graph over integer node IDs.
// Node IDs are mapped to dense indices in order of first appearance, so
// iteration over 0..NumNodes-1 follows the order nodes were added.
type Graph struct {
	NumNodes  int           `json:"num_nodes"`
	NumEdges  int           `json:"num_edges"`
	IDs       []int64       `json:"-"` // IDs[i] = original identifier of node i
	Adjacency [][]int       `json:"-"` // Adjacency[i] = neighbor indices of node i
	index     map[int64]int // original identifier -> dense index
	edges     map[[2]int]struct{}
}

// NewGraph creates an empty graph
func NewGraph() *Graph {
	return &Graph{
		IDs:       make([]int64, 0),
		Adjacency: make([][]int, 0),
		index:     make(map[int64]int),
		edges:     make(map[[2]int]struct{}),
	}
}

// AddNode registers a node and returns its dense index. Adding an existing
// node is a no-op.
func (g *Graph) AddNode(id int64) int {
	if idx, ok := g.index[id]; ok {
		return idx
	}
	idx := g.NumNodes
	g.index[id] = idx
	g.IDs = append(g.IDs, id)
	g.Adjacency = append(g.Adjacency, nil)
	g.NumNodes++
	return idx
}

// AddEdge adds an undirected edge between two node IDs, creating the nodes
// if needed. Duplicate edges are ignored; a self-loop is stored once.
func (g *Graph) AddEdge(u, v int64) {
	a := g.AddNode(u)
	b := g.AddNode(v)

	key := [2]int{a, b}
	if b < a {
		key = [2]int{b, a}
	}
	if _, exists := g.edges[key]; exists {
		return
	}
	g.edges[key] = struct{}{}

	g.Adjacency[a] = append(g.Adjacency[a], b)
	if a != b {
		g.Adjacency[b] = append(g.Adjacency[b], a)
	}
	g.NumEdges++
}

// Index returns the dense index of a node ID
func (g *Graph) Index(id int64) (int, bool) {
	idx, ok := g.index[id]
	return idx, ok
}

// ID returns the original identifier of a dense index
func (g *Graph) ID(idx int) int64 {
	return g.IDs[idx]
}

// Neighbors returns the neighbor indices of a node
func (g *Graph) Neighbors(idx int) []int {
	if idx < 0 || idx >= g.NumNodes {
		return nil
	}
	return g.Adjacency[idx]
}

// Degree returns the edge-end count of a node; a self-loop counts twice
func (g *Graph) Degree(idx int) int {
	degree := len(g.Neighbors(idx))
	if g.HasEdge(idx, idx) {
		degree++
	}
	return degree
}

// Degrees returns the degree sequence in node order
func (g *Graph) Degrees() []float64 {
	degrees := make([]float64, g.NumNodes)
	for i := 0; i < g.NumNodes; i++ {
		degrees[i] = float64(g.Degree(i))
	}
	return degrees
}

// HasEdge reports whether two dense indices are adjacent
func (g *Graph) HasEdge(a, b int) bool {
	key := [2]int{a, b}
	if b < a {
		key = [2]int{b, a}
	}
	_, ok := g.edges[key]
	return ok
}

// Validate checks graph consistency
func (g *Graph) Validate() error {
	if len(g.IDs) != g.NumNodes || len(g.Adjacency) != g.NumNodes {
		return fmt.Errorf("node arrays inconsistent: ids=%d adjacency=%d nodes=%d",
			len(g.IDs), len(g.Adjacency), g.NumNodes)
	}

	for i := 0; i < g.NumNodes; i++ {
		for _, neighbor := range g.Adjacency[i] {
			if neighbor < 0 || neighbor >= g.NumNodes {
				return fmt.Errorf("invalid neighbor %d for node %d", neighbor, g.IDs[i])
			}
			if !g.HasEdge(i, neighbor) {
				return fmt.Errorf("adjacency entry %d-%d has no edge record", g.IDs[i], g.IDs[neighbor])
			}
		}
	}

	return nil
}

// Gonum converts the graph to a gonum undirected graph keyed by dense index.
// Self-loops are dropped since simple graphs do not allow them.
func (g *Graph) Gonum() *simple.UndirectedGraph {
	ug := simple.NewUndirectedGraph()
	for i := 0; i < g.NumNodes; i++ {
		ug.AddNode(simple.Node(i))
	}
	for key := range g.edges {
		if key[0] == key[1] {
			continue
		}
		ug.SetEdge(simple.Edge{F: simple.Node(key[0]), T: simple.Node(key[1])})
	}
	return ug
}

// ComponentSizes returns the connected component sizes, largest first
func (g *Graph) ComponentSizes() []int {
	components := topo.ConnectedComponents(g.Gonum())

	sizes := make([]int, len(components))
	for i, c := range components {
		sizes[i] = len(c)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(sizes)))
	return sizes
}
