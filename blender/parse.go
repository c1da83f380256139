package blender

import (
	"fmt"

	"github.com/google/uuid"

	"nodediff/script"
)

// ParseScript encodes a Blender preset as a script. Every graph and node
// gets a fresh uuid id except the main graph, which keeps its well-known id
// so scripts parsed from different versions of a preset share an anchor.
func ParseScript(preset *Preset) (*script.Script, error) {
	graphs := collectGraphs(preset)

	graphIDs := make(map[string]script.GraphRef, len(graphs))
	for name := range graphs {
		if name == string(script.MainGraphID) {
			graphIDs[name] = script.MainGraphID
		} else {
			graphIDs[name] = script.GraphRef(uuid.NewString())
		}
	}

	s := script.NewScript()
	for name, p := range graphs {
		g, err := parseGraph(p, graphIDs)
		if err != nil {
			return nil, fmt.Errorf("parsing graph %q: %w", name, err)
		}
		s.AddGraph(graphIDs[name], g)
	}
	return s, nil
}

// collectGraphs gathers the main graph and every node-group subgraph it
// transitively references, keyed by graph name. The main graph is keyed by
// the well-known main id.
func collectGraphs(main *Preset) map[string]*Preset {
	collected := map[string]*Preset{string(script.MainGraphID): main}
	collectSubgraphs(main, collected)
	return collected
}

func collectSubgraphs(p *Preset, collected map[string]*Preset) {
	for _, n := range p.NodesList {
		if n.NodeTree == nil {
			continue
		}
		if _, ok := collected[n.NodeTree.Name]; ok {
			continue
		}
		collected[n.NodeTree.Name] = n.NodeTree
		collectSubgraphs(n.NodeTree, collected)
	}
}

func parseGraph(p *Preset, graphIDs map[string]script.GraphRef) (*script.Graph, error) {
	g := script.NewGraph()

	nodeIDs := make([]script.NodeRef, len(p.NodesList))
	for i := range p.NodesList {
		nodeIDs[i] = script.NodeRef(uuid.NewString())
	}
	for i, bl := range p.NodesList {
		n, err := parseNode(bl, graphIDs, nodeIDs)
		if err != nil {
			return nil, fmt.Errorf("parsing node %d (%s): %w", i, bl.NodeName, err)
		}
		g.AddNode(nodeIDs[i], n)
	}

	if err := parseLinks(p.LinksList, g, nodeIDs); err != nil {
		return nil, err
	}

	if p.InterfaceInputs != nil {
		g.AddNode(script.NodeRef(uuid.NewString()), interfaceInputsNode(p))
	}
	return g, nil
}

// parseLinks attaches every link to its destination node's input socket.
// When several links land on the same socket each gets its own virtual
// slot, in list order.
func parseLinks(links []PresetLink, g *script.Graph, nodeIDs []script.NodeRef) error {
	type socketKey struct{ node, socket int }
	perSocket := map[socketKey][]PresetLink{}
	order := []socketKey{}
	for _, l := range links {
		k := socketKey{l.ToNodeIndex, l.ToSocketIndex}
		if _, ok := perSocket[k]; !ok {
			order = append(order, k)
		}
		perSocket[k] = append(perSocket[k], l)
	}

	for _, k := range order {
		if k.node < 0 || k.node >= len(nodeIDs) {
			return fmt.Errorf("link destination node %d out of range", k.node)
		}
		to := g.Node(nodeIDs[k.node])
		grouped := perSocket[k]
		for virtualIdx, l := range grouped {
			if l.FromNodeIndex < 0 || l.FromNodeIndex >= len(nodeIDs) {
				return fmt.Errorf("link source node %d out of range", l.FromNodeIndex)
			}
			socketID := fmt.Sprintf("i.%d.%s", l.ToSocketIndex, l.ToSocketName)
			if len(grouped) > 1 {
				socketID = fmt.Sprintf("%s[%d]", socketID, virtualIdx)
			}
			to.InputRefs[socketID] = script.Edge{
				Node:   nodeIDs[l.FromNodeIndex],
				Socket: fmt.Sprintf("o.%d.%s", l.FromSocketIndex, l.FromSocketName),
			}
		}
	}
	return nil
}

func parseNode(bl *PresetNode, graphIDs map[string]script.GraphRef, nodeIDs []script.NodeRef) (*script.Node, error) {
	n := script.NewNode()
	n.Values[NodeTypeProp] = script.String(bl.NodeName)
	n.Values[NodeXProp] = bl.X
	n.Values[NodeYProp] = bl.Y
	n.Values[NodeWidthProp] = bl.Width
	n.Values[NodeHeightProp] = bl.Height
	n.Values[NodeWidthHiddenProp] = bl.WidthHidden

	parent := script.InvalidNodeRef
	switch bl.Parent.Kind() {
	case script.KindInt:
		idx := int(bl.Parent.AsInt())
		if idx < 0 || idx >= len(nodeIDs) {
			return nil, fmt.Errorf("parent index %d out of range", idx)
		}
		parent = nodeIDs[idx]
	}
	n.NodeRefs[NodeParentProp] = parent

	group := script.InvalidGraphRef
	if bl.NodeTree != nil {
		id, ok := graphIDs[bl.NodeTree.Name]
		if !ok {
			return nil, fmt.Errorf("unknown node group %q", bl.NodeTree.Name)
		}
		group = id
		n.Values[GroupNameProp] = script.String(bl.NodeTree.Name)
	}
	n.GraphRefs[NodeGroupProp] = group

	for _, attr := range bl.Attrs {
		nameV, ok := attr["attr_name"]
		if !ok || nameV.Kind() != script.KindString {
			return nil, fmt.Errorf("attribute without attr_name")
		}
		switch name := nameV.AsString(); name {
		case "name":
			// The node's display name is session noise, never diffed.
		case "image":
			n.TextureRefs[ImageTextureProp] = script.TextureRef(attr)
		default:
			n.Values["a."+name] = attr["value"]
		}
	}

	for idx, sock := range bl.Inputs {
		socketID := fmt.Sprintf("i.%d.%s", idx, sock.Name)
		if bl.NodeName == "GeometryNodeJoinGeometry" {
			// Multi-input sockets expand to a fixed block of virtual slots.
			for virtualIdx := 0; virtualIdx < MaxVirtualSockets; virtualIdx++ {
				virtualID := fmt.Sprintf("%s[%d]", socketID, virtualIdx)
				n.Values[virtualID] = sock.Value.Clone()
				n.InputRefs[virtualID] = script.Edge{}
			}
			continue
		}
		n.Values[socketID] = sock.Value
		n.InputRefs[socketID] = script.Edge{}
	}
	for idx, sock := range bl.Outputs {
		n.Values[fmt.Sprintf("o.%d.%s", idx, sock.Name)] = sock.Value
	}

	return n, nil
}

// interfaceInputsNode builds the virtual node that stands in for a node
// group's input interface, so interface edits show up as node edits.
func interfaceInputsNode(p *Preset) *script.Node {
	n := script.NewNode()
	n.NodeRefs[NodeParentProp] = script.InvalidNodeRef
	n.GraphRefs[NodeGroupProp] = script.InvalidGraphRef
	n.Values[InterfaceInputsSizeProp] = script.Int(int64(len(p.InterfaceInputs)))
	n.Values[NodeTypeProp] = script.String(InterfaceInputsType)
	n.Values[GroupNameProp] = script.String(p.Name)
	for i, inp := range p.InterfaceInputs {
		n.Values[fmt.Sprintf("p.%d.default", i)] = inp.Default
		n.Values[fmt.Sprintf("p.%d.min", i)] = inp.Min
		n.Values[fmt.Sprintf("p.%d.max", i)] = inp.Max
		n.Values[fmt.Sprintf("p.%d.hide", i)] = inp.Hide
	}
	return n
}
