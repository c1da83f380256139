// Package merge performs three-way merges of node-graph documents: it
// detects conflicts between two concurrent diffs over a common ancestor
// and, when there are none, applies both diffs to a copy of the ancestor.
package merge

import (
	"slices"

	"nodediff/diff"
	"nodediff/script"
)

// ConflictType classifies how two concurrent changes collide.
type ConflictType string

const (
	// ConflictDelEdit: the first diff deletes what the second edits.
	ConflictDelEdit ConflictType = "del_edit"
	// ConflictEditDel: the first diff edits what the second deletes.
	ConflictEditDel ConflictType = "edit_del"
	// ConflictEditEdit: both diffs assign different payloads to the same
	// property or edge.
	ConflictEditEdit ConflictType = "edit_edit"
)

// NodeConflict reports a collision on one node, with the conflicting
// property and socket names for edit/edit cases.
type NodeConflict struct {
	Type       ConflictType   `json:"type"`
	Node       script.NodeRef `json:"node"`
	Properties []string       `json:"properties"`
	Edges      []string       `json:"edges"`
}

// GraphConflict reports a collision on one graph. For edit/edit the nested
// node conflicts explain which nodes collide.
type GraphConflict struct {
	Type  ConflictType    `json:"type"`
	Graph script.GraphRef `json:"graph"`
	Nodes []NodeConflict  `json:"nodes"`
}

// GraphResult is the outcome of a graph-level merge. When Failed reports
// true the Result field is meaningless.
type GraphResult struct {
	Result    *script.Graph  `json:"result"`
	Conflicts []NodeConflict `json:"conflicts"`
}

// Failed reports whether the merge was aborted by conflicts.
func (r *GraphResult) Failed() bool { return len(r.Conflicts) > 0 }

// ScriptResult is the outcome of a script-level merge.
type ScriptResult struct {
	Result    *script.Script  `json:"result"`
	Conflicts []GraphConflict `json:"conflicts"`
}

// Failed reports whether the merge was aborted by conflicts.
func (r *ScriptResult) Failed() bool { return len(r.Conflicts) > 0 }

// CheckGraphConflicts compares two graph diffs over the same ancestor and
// returns every node-level conflict. Add/add pairs and non-overlapping
// edits never conflict. Conflicts come out sorted by node id.
func CheckGraphConflicts(diff1, diff2 *diff.GraphDiff) []NodeConflict {
	conflicts := []NodeConflict{}

	for _, id := range sortedNodeIDs(diff1) {
		change1 := diff1.Nodes[id]
		change2, ok := diff2.Nodes[id]
		if !ok {
			continue
		}

		if change1.Op == diff.OpDel && change2.Op == diff.OpEdit {
			conflicts = append(conflicts, NodeConflict{
				Type: ConflictDelEdit, Node: id,
				Properties: []string{}, Edges: []string{},
			})
		}
		if change1.Op == diff.OpEdit && change2.Op == diff.OpDel {
			conflicts = append(conflicts, NodeConflict{
				Type: ConflictEditDel, Node: id,
				Properties: []string{}, Edges: []string{},
			})
		}

		if change1.Op == diff.OpEdit && change2.Op == diff.OpEdit {
			props, edges := conflictingProperties(change1.Diff, change2.Diff)
			if len(props) > 0 || len(edges) > 0 {
				conflicts = append(conflicts, NodeConflict{
					Type: ConflictEditEdit, Node: id,
					Properties: props, Edges: edges,
				})
			}
		}
	}
	return conflicts
}

// conflictingProperties collects the property names both node diffs assign
// with different payloads, and likewise the socket names of colliding edges.
func conflictingProperties(d1, d2 *script.Node) (props, edges []string) {
	props = []string{}
	edges = []string{}

	for name, v1 := range d1.Values {
		if v2, ok := d2.Values[name]; ok && !v1.Equal(v2) {
			props = append(props, name)
		}
	}
	for name, r1 := range d1.NodeRefs {
		if r2, ok := d2.NodeRefs[name]; ok && r1 != r2 {
			props = append(props, name)
		}
	}
	for name, r1 := range d1.GraphRefs {
		if r2, ok := d2.GraphRefs[name]; ok && r1 != r2 {
			props = append(props, name)
		}
	}
	for name, t1 := range d1.TextureRefs {
		if t2, ok := d2.TextureRefs[name]; ok && !t1.Equal(t2) {
			props = append(props, name)
		}
	}
	for socket, e1 := range d1.InputRefs {
		if e2, ok := d2.InputRefs[socket]; ok && e1 != e2 {
			edges = append(edges, socket)
		}
	}

	slices.Sort(props)
	slices.Sort(edges)
	return props, edges
}

// CheckScriptConflicts applies the same rules to graph changes. Edit/edit
// pairs recurse into node conflicts and report only when the recursion
// finds some.
func CheckScriptConflicts(diff1, diff2 *diff.ScriptDiff) []GraphConflict {
	conflicts := []GraphConflict{}

	for _, id := range sortedGraphIDs(diff1) {
		change1 := diff1.Graphs[id]
		change2, ok := diff2.Graphs[id]
		if !ok {
			continue
		}

		if change1.Op == diff.OpDel && change2.Op == diff.OpEdit {
			conflicts = append(conflicts, GraphConflict{
				Type: ConflictDelEdit, Graph: id, Nodes: []NodeConflict{},
			})
		}
		if change1.Op == diff.OpEdit && change2.Op == diff.OpDel {
			conflicts = append(conflicts, GraphConflict{
				Type: ConflictEditDel, Graph: id, Nodes: []NodeConflict{},
			})
		}

		if change1.Op == diff.OpEdit && change2.Op == diff.OpEdit {
			nodes := CheckGraphConflicts(change1.Diff, change2.Diff)
			if len(nodes) > 0 {
				conflicts = append(conflicts, GraphConflict{
					Type: ConflictEditEdit, Graph: id, Nodes: nodes,
				})
			}
		}
	}
	return conflicts
}

// MergeGraphs merges two concurrent graph diffs against their ancestor.
// Without conflicts both diffs apply to a copy of the ancestor; the apply
// order is immaterial because the check just ruled out overlapping edits
// with different payloads and deletes of edited nodes.
func MergeGraphs(ancestor *script.Graph, diff1, diff2 *diff.GraphDiff) *GraphResult {
	result := &GraphResult{Result: ancestor.Clone(), Conflicts: CheckGraphConflicts(diff1, diff2)}
	if !result.Failed() {
		diff.ApplyGraph(result.Result, diff1)
		diff.ApplyGraph(result.Result, diff2)
	}
	return result
}

// MergeScripts merges two concurrent script diffs against their ancestor.
func MergeScripts(ancestor *script.Script, diff1, diff2 *diff.ScriptDiff) *ScriptResult {
	result := &ScriptResult{Result: ancestor.Clone(), Conflicts: CheckScriptConflicts(diff1, diff2)}
	if !result.Failed() {
		diff.ApplyScript(result.Result, diff1)
		diff.ApplyScript(result.Result, diff2)
	}
	return result
}

func sortedNodeIDs(d *diff.GraphDiff) []script.NodeRef {
	ids := make([]script.NodeRef, 0, len(d.Nodes))
	for id := range d.Nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func sortedGraphIDs(d *diff.ScriptDiff) []script.GraphRef {
	ids := make([]script.GraphRef, 0, len(d.Graphs))
	for id := range d.Graphs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
