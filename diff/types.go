// Package diff computes structural change sets between two versions of a
// node-graph document, given a matching of their ids, and applies them.
package diff

import (
	"encoding/json"
	"fmt"

	"nodediff/script"
)

// Op is the kind of change a diff entry records.
type Op string

const (
	OpAdd  Op = "add"
	OpDel  Op = "del"
	OpEdit Op = "edit"
	OpNone Op = "none"
)

// NodeChange pairs an operation with its payload: a complete node for add
// and del, a partial node holding only the changed properties for edit.
type NodeChange struct {
	Op   Op
	Diff *script.Node
}

// Equal reports whether two node changes carry the same operation and payload.
func (c NodeChange) Equal(o NodeChange) bool {
	return c.Op == o.Op && c.Diff.Equal(o.Diff)
}

// MarshalJSON writes {"operation": ..., "diff": ...}.
func (c NodeChange) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op   Op           `json:"operation"`
		Diff *script.Node `json:"diff"`
	}{c.Op, c.Diff})
}

// UnmarshalJSON reads {"operation": ..., "diff": ...}.
func (c *NodeChange) UnmarshalJSON(data []byte) error {
	var raw struct {
		Op   Op           `json:"operation"`
		Diff *script.Node `json:"diff"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshaling node change: %w", err)
	}
	c.Op = raw.Op
	c.Diff = raw.Diff
	return nil
}

// GraphDiff records per-node changes within one graph, keyed by node id.
// Edits are keyed by the ancestor-side id.
type GraphDiff struct {
	Nodes map[script.NodeRef]NodeChange
}

// NewGraphDiff returns an empty graph diff.
func NewGraphDiff() *GraphDiff {
	return &GraphDiff{Nodes: map[script.NodeRef]NodeChange{}}
}

// IsEmpty reports whether the diff records no changes.
func (d *GraphDiff) IsEmpty() bool { return len(d.Nodes) == 0 }

// MarshalJSON writes the diff as a plain node-id to change object.
func (d *GraphDiff) MarshalJSON() ([]byte, error) { return json.Marshal(d.Nodes) }

// UnmarshalJSON reads the plain node-id to change object form.
func (d *GraphDiff) UnmarshalJSON(data []byte) error {
	d.Nodes = map[script.NodeRef]NodeChange{}
	if err := json.Unmarshal(data, &d.Nodes); err != nil {
		return fmt.Errorf("unmarshaling graph diff: %w", err)
	}
	return nil
}

// GraphChange pairs an operation with its payload: a complete graph for add
// and del, a GraphDiff for edit.
type GraphChange struct {
	Op    Op
	Graph *script.Graph
	Diff  *GraphDiff
}

// MarshalJSON writes {"operation": ..., "diff": ...} where the diff payload
// depends on the operation.
func (c GraphChange) MarshalJSON() ([]byte, error) {
	switch c.Op {
	case OpAdd, OpDel:
		return json.Marshal(struct {
			Op    Op            `json:"operation"`
			Graph *script.Graph `json:"diff"`
		}{c.Op, c.Graph})
	case OpEdit:
		return json.Marshal(struct {
			Op   Op         `json:"operation"`
			Diff *GraphDiff `json:"diff"`
		}{c.Op, c.Diff})
	}
	return nil, fmt.Errorf("marshaling graph change: unknown operation %q", c.Op)
}

// UnmarshalJSON reads the operation first, then decodes the payload as a
// graph or a graph diff accordingly.
func (c *GraphChange) UnmarshalJSON(data []byte) error {
	var raw struct {
		Op   Op              `json:"operation"`
		Diff json.RawMessage `json:"diff"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshaling graph change: %w", err)
	}
	c.Op = raw.Op
	switch raw.Op {
	case OpAdd, OpDel:
		g := script.NewGraph()
		if err := json.Unmarshal(raw.Diff, g); err != nil {
			return fmt.Errorf("unmarshaling graph change payload: %w", err)
		}
		c.Graph = g
	case OpEdit:
		d := NewGraphDiff()
		if err := json.Unmarshal(raw.Diff, d); err != nil {
			return fmt.Errorf("unmarshaling graph change payload: %w", err)
		}
		c.Diff = d
	default:
		return fmt.Errorf("unmarshaling graph change: unknown operation %q", raw.Op)
	}
	return nil
}

// ScriptDiff records per-graph changes within one script, keyed by graph id.
// Edits are keyed by the ancestor-side id.
type ScriptDiff struct {
	Graphs map[script.GraphRef]GraphChange
}

// NewScriptDiff returns an empty script diff.
func NewScriptDiff() *ScriptDiff {
	return &ScriptDiff{Graphs: map[script.GraphRef]GraphChange{}}
}

// IsEmpty reports whether the diff records no changes.
func (d *ScriptDiff) IsEmpty() bool { return len(d.Graphs) == 0 }

// MarshalJSON writes the diff as a plain graph-id to change object.
func (d *ScriptDiff) MarshalJSON() ([]byte, error) { return json.Marshal(d.Graphs) }

// UnmarshalJSON reads the plain graph-id to change object form.
func (d *ScriptDiff) UnmarshalJSON(data []byte) error {
	d.Graphs = map[script.GraphRef]GraphChange{}
	if err := json.Unmarshal(data, &d.Graphs); err != nil {
		return fmt.Errorf("unmarshaling script diff: %w", err)
	}
	return nil
}

// NodeDiffIsEmpty reports whether a node diff carries no changed properties.
func NodeDiffIsEmpty(d *script.Node) bool { return d == nil || d.Len() == 0 }
