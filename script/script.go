package script

import (
	"encoding/json"
	"fmt"
)

// MainGraphID is the well-known id of a script's main graph.
const MainGraphID GraphRef = "nd_Main"

// Node is a bag of property maps, all keyed by property name. Input edges
// are keyed by the destination socket they feed. Nodes of the same type
// carry the same key sets, padded with invalid or empty entries.
type Node struct {
	Values      map[string]Value      `json:"node_values"`
	NodeRefs    map[string]NodeRef    `json:"node_references"`
	GraphRefs   map[string]GraphRef   `json:"graph_references"`
	TextureRefs map[string]TextureRef `json:"texture_references"`
	InputRefs   map[string]Edge       `json:"input_references"`
}

// NewNode returns a node with all five property maps allocated.
func NewNode() *Node {
	return &Node{
		Values:      map[string]Value{},
		NodeRefs:    map[string]NodeRef{},
		GraphRefs:   map[string]GraphRef{},
		TextureRefs: map[string]TextureRef{},
		InputRefs:   map[string]Edge{},
	}
}

// Len is the total property count across the five maps.
func (n *Node) Len() int {
	return len(n.Values) + len(n.NodeRefs) + len(n.GraphRefs) + len(n.TextureRefs) + len(n.InputRefs)
}

// Equal reports structural equality of all five property maps.
func (n *Node) Equal(o *Node) bool {
	if len(n.Values) != len(o.Values) || len(n.NodeRefs) != len(o.NodeRefs) ||
		len(n.GraphRefs) != len(o.GraphRefs) || len(n.TextureRefs) != len(o.TextureRefs) ||
		len(n.InputRefs) != len(o.InputRefs) {
		return false
	}
	for k, v := range n.Values {
		ov, ok := o.Values[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	for k, r := range n.NodeRefs {
		or, ok := o.NodeRefs[k]
		if !ok || r != or {
			return false
		}
	}
	for k, r := range n.GraphRefs {
		or, ok := o.GraphRefs[k]
		if !ok || r != or {
			return false
		}
	}
	for k, t := range n.TextureRefs {
		ot, ok := o.TextureRefs[k]
		if !ok || !t.Equal(ot) {
			return false
		}
	}
	for k, e := range n.InputRefs {
		oe, ok := o.InputRefs[k]
		if !ok || e != oe {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	cp := NewNode()
	for k, v := range n.Values {
		cp.Values[k] = v.Clone()
	}
	for k, r := range n.NodeRefs {
		cp.NodeRefs[k] = r
	}
	for k, r := range n.GraphRefs {
		cp.GraphRefs[k] = r
	}
	for k, t := range n.TextureRefs {
		cp.TextureRefs[k] = t.Clone()
	}
	for k, e := range n.InputRefs {
		cp.InputRefs[k] = e
	}
	return cp
}

// Graph owns the nodes of one editor graph, keyed by node id.
type Graph struct {
	Nodes map[NodeRef]*Node
}

// NewGraph returns an empty graph.
func NewGraph() *Graph { return &Graph{Nodes: map[NodeRef]*Node{}} }

// Node returns the node with the given id, panicking when absent. A missing
// id here means a diff or caller broke a structural invariant.
func (g *Graph) Node(id NodeRef) *Node {
	n, ok := g.Nodes[id]
	if !ok {
		panic(fmt.Sprintf("script: unknown node %q", id))
	}
	return n
}

// AddNode inserts or replaces the node under id.
func (g *Graph) AddNode(id NodeRef, n *Node) { g.Nodes[id] = n }

// RemoveNode deletes the node under id.
func (g *Graph) RemoveNode(id NodeRef) { delete(g.Nodes, id) }

// Equal reports structural equality node by node.
func (g *Graph) Equal(o *Graph) bool {
	if len(g.Nodes) != len(o.Nodes) {
		return false
	}
	for id, n := range g.Nodes {
		on, ok := o.Nodes[id]
		if !ok || !n.Equal(on) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of g.
func (g *Graph) Clone() *Graph {
	cp := NewGraph()
	for id, n := range g.Nodes {
		cp.Nodes[id] = n.Clone()
	}
	return cp
}

// MarshalJSON writes the graph as a plain node-id to node object.
func (g *Graph) MarshalJSON() ([]byte, error) { return json.Marshal(g.Nodes) }

// UnmarshalJSON reads the plain node-id to node object form.
func (g *Graph) UnmarshalJSON(data []byte) error {
	g.Nodes = map[NodeRef]*Node{}
	if err := json.Unmarshal(data, &g.Nodes); err != nil {
		return fmt.Errorf("unmarshaling graph: %w", err)
	}
	return nil
}

// Script is a whole document: its graphs keyed by graph id. Exactly one
// graph carries MainGraphID.
type Script struct {
	Graphs map[GraphRef]*Graph
}

// NewScript returns an empty script.
func NewScript() *Script { return &Script{Graphs: map[GraphRef]*Graph{}} }

// Graph returns the graph with the given id, panicking when absent.
func (s *Script) Graph(id GraphRef) *Graph {
	g, ok := s.Graphs[id]
	if !ok {
		panic(fmt.Sprintf("script: unknown graph %q", id))
	}
	return g
}

// Main returns the main graph.
func (s *Script) Main() *Graph { return s.Graph(MainGraphID) }

// AddGraph inserts or replaces the graph under id.
func (s *Script) AddGraph(id GraphRef, g *Graph) { s.Graphs[id] = g }

// RemoveGraph deletes the graph under id.
func (s *Script) RemoveGraph(id GraphRef) { delete(s.Graphs, id) }

// Equal reports structural equality graph by graph.
func (s *Script) Equal(o *Script) bool {
	if len(s.Graphs) != len(o.Graphs) {
		return false
	}
	for id, g := range s.Graphs {
		og, ok := o.Graphs[id]
		if !ok || !g.Equal(og) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of s.
func (s *Script) Clone() *Script {
	cp := NewScript()
	for id, g := range s.Graphs {
		cp.Graphs[id] = g.Clone()
	}
	return cp
}

// MarshalJSON writes the script as a plain graph-id to graph object.
func (s *Script) MarshalJSON() ([]byte, error) { return json.Marshal(s.Graphs) }

// UnmarshalJSON reads the plain graph-id to graph object form.
func (s *Script) UnmarshalJSON(data []byte) error {
	s.Graphs = map[GraphRef]*Graph{}
	if err := json.Unmarshal(data, &s.Graphs); err != nil {
		return fmt.Errorf("unmarshaling script: %w", err)
	}
	return nil
}
