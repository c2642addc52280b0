// Package graph builds the index diagram for one table: a directed two-level
// star of table, index and column nodes derived from catalog index rows.
package graph

import (
	"fmt"

	gograph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"

	"indexviz/internal/catalog"
)

// Kind classifies a node in the index diagram.
type Kind string

const (
	KindTable  Kind = "table"
	KindIndex  Kind = "index"
	KindColumn Kind = "column"
)

// Node is one diagram node. Nodes are keyed by label; two rows producing the
// same label converge on the same node. Only index nodes carry hover text.
type Node struct {
	id    int64
	Label string
	Kind  Kind
	Hover string
}

// ID implements gonum's graph.Node.
func (n *Node) ID() int64 { return n.id }

// Edge is one directed diagram edge.
type Edge struct {
	From *Node
	To   *Node
}

// Graph is a directed graph over a gonum simple.DirectedGraph, with
// insertion-ordered node and edge slices for deterministic iteration.
type Graph struct {
	dg      *simple.DirectedGraph
	byLabel map[string]*Node
	nodes   []*Node
	edges   []Edge
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		dg:      simple.NewDirectedGraph(),
		byLabel: map[string]*Node{},
	}
}

// ensure returns the node with the given label, creating it if needed.
// Creation is idempotent; an existing node keeps its original kind.
func (g *Graph) ensure(label string, kind Kind) *Node {
	if n, ok := g.byLabel[label]; ok {
		return n
	}
	n := &Node{id: int64(len(g.nodes)), Label: label, Kind: kind}
	g.dg.AddNode(n)
	g.byLabel[label] = n
	g.nodes = append(g.nodes, n)
	return n
}

// addEdge records a directed edge once; re-adding it is a no-op.
func (g *Graph) addEdge(from, to *Node) {
	if from.id == to.id {
		// a table and a column sharing a name collapse to one node;
		// a self edge would be meaningless
		return
	}
	if g.dg.HasEdgeFromTo(from.id, to.id) {
		return
	}
	g.dg.SetEdge(g.dg.NewEdge(from, to))
	g.edges = append(g.edges, Edge{From: from, To: to})
}

// Build constructs the diagram for selectedTable from catalog index rows.
// Rows for other tables are ignored; no matching rows yields an empty graph.
// The node and edge sets are a pure function of the matching rows and do not
// depend on row order. Sequence-in-index is deliberately not encoded.
func Build(rows []catalog.IndexRow, selectedTable string) *Graph {
	g := New()
	for _, row := range rows {
		if row.Table != selectedTable {
			continue
		}
		suffix := " (Unique)"
		if row.NonUnique {
			suffix = " (Non-Unique)"
		}

		table := g.ensure(row.Table, KindTable)
		index := g.ensure(row.Index+suffix, KindIndex)
		index.Hover = fmt.Sprintf("Index: %s<br>Type: %s<br>Cardinality: %d<br>Index Size: %.2f MB",
			row.Index, row.IndexType, row.Cardinality, row.SizeMB)
		column := g.ensure(row.Column, KindColumn)

		g.addEdge(table, index)
		g.addEdge(index, column)
	}
	return g
}

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []*Node { return g.nodes }

// Edges returns the edges in insertion order.
func (g *Graph) Edges() []Edge { return g.edges }

// Node returns the node with the given label, or nil.
func (g *Graph) Node(label string) *Node { return g.byLabel[label] }

// Order returns the node count.
func (g *Graph) Order() int { return len(g.nodes) }

// Size returns the edge count.
func (g *Graph) Size() int { return len(g.edges) }

// Degree returns the number of edges incident to n.
func (g *Graph) Degree(n *Node) int {
	deg := 0
	for it := g.dg.From(n.id); it.Next(); {
		deg++
	}
	for it := g.dg.To(n.id); it.Next(); {
		deg++
	}
	return deg
}

// Directed exposes the underlying gonum graph for layout.
func (g *Graph) Directed() gograph.Directed { return g.dg }
