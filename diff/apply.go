package diff

import (
	"fmt"

	"nodediff/script"
)

// ApplyNode merges a node diff into a node, overwriting existing properties
// and inserting new ones.
func ApplyNode(n *script.Node, d *script.Node) {
	for name, v := range d.Values {
		n.Values[name] = v
	}
	for name, r := range d.NodeRefs {
		n.NodeRefs[name] = r
	}
	for name, r := range d.GraphRefs {
		n.GraphRefs[name] = r
	}
	for name, t := range d.TextureRefs {
		n.TextureRefs[name] = t
	}
	for socket, e := range d.InputRefs {
		n.InputRefs[socket] = e
	}
}

// ApplyGraph applies a graph diff: adds insert the carried node, deletes
// remove it, edits recurse into the node. Keys are disjoint across change
// kinds in a well-formed diff, so iteration order does not matter.
func ApplyGraph(g *script.Graph, d *GraphDiff) {
	for id, change := range d.Nodes {
		switch change.Op {
		case OpAdd:
			g.AddNode(id, change.Diff)
		case OpDel:
			g.RemoveNode(id)
		case OpEdit:
			ApplyNode(g.Node(id), change.Diff)
		default:
			panic(fmt.Sprintf("diff: invalid operation %q", change.Op))
		}
	}
}

// ApplyScript applies a script diff following the same pattern over graphs.
func ApplyScript(s *script.Script, d *ScriptDiff) {
	for id, change := range d.Graphs {
		switch change.Op {
		case OpAdd:
			s.AddGraph(id, change.Graph)
		case OpDel:
			s.RemoveGraph(id)
		case OpEdit:
			ApplyGraph(s.Graph(id), change.Diff)
		default:
			panic(fmt.Sprintf("diff: invalid operation %q", change.Op))
		}
	}
}
