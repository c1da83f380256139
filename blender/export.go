package blender

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"nodediff/script"
)

type socketSide int

const (
	socketInput socketSide = iota
	socketOutput
)

// socketID is the decoded form of a socket property name like
// "i.2.Color" or "i.0.Geometry[5]".
type socketID struct {
	side       socketSide
	idx        int
	virtualIdx int
	name       string
}

func parseSocketID(id string) (socketID, error) {
	s := socketID{virtualIdx: -1}
	if len(id) < 4 || id[1] != '.' {
		return s, fmt.Errorf("malformed socket id %q", id)
	}
	switch id[0] {
	case 'i':
		s.side = socketInput
	case 'o':
		s.side = socketOutput
	default:
		return s, fmt.Errorf("malformed socket id %q", id)
	}

	rest := id[2:]
	dot := strings.IndexByte(rest, '.')
	if dot < 0 {
		return s, fmt.Errorf("malformed socket id %q", id)
	}
	idx, err := strconv.Atoi(rest[:dot])
	if err != nil {
		return s, fmt.Errorf("malformed socket id %q: %w", id, err)
	}
	s.idx = idx
	rest = rest[dot+1:]

	open := strings.IndexByte(rest, '[')
	if open < 0 {
		s.name = rest
		return s, nil
	}
	closing := strings.IndexByte(rest[open:], ']')
	if closing < 0 {
		return s, fmt.Errorf("malformed socket id %q", id)
	}
	virtualIdx, err := strconv.Atoi(rest[open+1 : open+closing])
	if err != nil {
		return s, fmt.Errorf("malformed socket id %q: %w", id, err)
	}
	s.name = rest[:open]
	s.virtualIdx = virtualIdx
	return s, nil
}

// ExportScript rebuilds a Blender preset from a script, starting at the
// main graph and recursing through node-group references. The rebuild
// structure supplies the socket and attribute type names the model drops.
func ExportScript(s *script.Script, rs *RebuildStructure) (map[string]interface{}, error) {
	main, ok := s.Graphs[script.MainGraphID]
	if !ok {
		return nil, fmt.Errorf("script has no %q graph", script.MainGraphID)
	}
	res := map[string]interface{}{}
	if err := exportGraph(s, main, res, rs); err != nil {
		return nil, err
	}
	return res, nil
}

func exportGraph(s *script.Script, g *script.Graph, res map[string]interface{}, rs *RebuildStructure) error {
	nodesList := []map[string]interface{}{}
	linksList := []map[string]interface{}{}
	nodeIdx := map[script.NodeRef]int{}

	ids := sortedNodeIDs(g)
	for _, id := range ids {
		n := g.Nodes[id]
		if isInterfaceInputs(n) {
			if err := exportInterfaceInputs(n, res); err != nil {
				return fmt.Errorf("exporting interface inputs: %w", err)
			}
			continue
		}
		resNode, err := exportNodeValues(n, rs)
		if err != nil {
			return fmt.Errorf("exporting node %s: %w", id, err)
		}
		nodeIdx[id] = len(nodesList)
		nodesList = append(nodesList, resNode)
	}

	for _, id := range ids {
		n := g.Nodes[id]
		if isInterfaceInputs(n) {
			continue
		}
		resNode := nodesList[nodeIdx[id]]

		if parent := n.NodeRefs[NodeParentProp]; parent.Valid() {
			idx, ok := nodeIdx[parent]
			if !ok {
				return fmt.Errorf("node %s: parent %s not in graph", id, parent)
			}
			resNode["parent"] = idx
		} else {
			resNode["parent"] = "None"
		}

		if group := n.GraphRefs[NodeGroupProp]; group.Valid() {
			sub, ok := s.Graphs[group]
			if !ok {
				return fmt.Errorf("node %s: unknown node group %s", id, group)
			}
			// The subgraph's interface-inputs node restores the original
			// group name during the recursive export.
			nodeTree := map[string]interface{}{"name": string(group)}
			if err := exportGraph(s, sub, nodeTree, rs); err != nil {
				return err
			}
			resNode["node_tree"] = nodeTree
		}

		if tex, ok := n.TextureRefs[ImageTextureProp]; ok {
			attr := map[string]interface{}{}
			for k, v := range tex {
				attr[k] = v
			}
			resNode["attrs"] = append(resNode["attrs"].([]map[string]interface{}), attr)
		}

		for _, socketName := range sortedValueKeys(n.InputRefs) {
			edge := n.InputRefs[socketName]
			if !edge.Node.Valid() {
				continue
			}
			from, err := parseSocketID(edge.Socket)
			if err != nil {
				return fmt.Errorf("node %s: %w", id, err)
			}
			to, err := parseSocketID(socketName)
			if err != nil {
				return fmt.Errorf("node %s: %w", id, err)
			}
			fromIdx, ok := nodeIdx[edge.Node]
			if !ok {
				return fmt.Errorf("node %s: edge source %s not in graph", id, edge.Node)
			}
			linksList = append(linksList, map[string]interface{}{
				"from_node_index":   fromIdx,
				"from_socket_index": from.idx,
				"from_socket_name":  from.name,
				"to_node_index":     nodeIdx[id],
				"to_socket_index":   to.idx,
				"to_socket_name":    to.name,
			})
		}
	}

	res["nodes_list"] = nodesList
	res["links_list"] = linksList
	res["editor_type"] = rs.EditorType
	res["shader_type"] = rs.ShaderType
	return nil
}

// exportNodeValues rebuilds one node's preset form from its value
// properties: v.* as top-level fields, a.* as attrs entries, i.*/o.* as
// socket arrays indexed by socket position.
func exportNodeValues(n *script.Node, rs *RebuildStructure) (map[string]interface{}, error) {
	res := map[string]interface{}{}
	attrs := []map[string]interface{}{}

	nodeType, err := stringProperty(n, NodeTypeProp)
	if err != nil {
		return nil, err
	}
	rebuildType := nodeType
	if nodeType == "ShaderNodeGroup" || nodeType == "GeometryNodeGroup" {
		if rebuildType, err = stringProperty(n, GroupNameProp); err != nil {
			return nil, err
		}
	}

	inputCount, outputCount := 0, 0
	countedVirtual := false
	names := sortedValueKeys(n.Values)
	for _, name := range names {
		if len(name) < 2 || name[1] != '.' {
			return nil, fmt.Errorf("invalid property name %q", name)
		}
		v := n.Values[name]
		switch name[0] {
		case 'v':
			res[name[2:]] = v
		case 'a':
			t, err := rs.attributeType(rebuildType, name[2:])
			if err != nil {
				return nil, err
			}
			attrs = append(attrs, map[string]interface{}{
				"attr_name": name[2:],
				"type_name": t,
				"value":     v,
			})
		case 'i':
			if countedVirtual {
				break
			}
			// Virtual slots of one multi-input socket count once.
			if nodeType == "GeometryNodeJoinGeometry" {
				countedVirtual = true
			}
			inputCount++
		case 'o':
			outputCount++
		case 'p':
		default:
			return nil, fmt.Errorf("invalid property name %q", name)
		}
	}

	inputs := make([]map[string]interface{}, inputCount)
	outputs := make([]map[string]interface{}, outputCount)
	for _, name := range names {
		if name[0] != 'i' && name[0] != 'o' {
			continue
		}
		v := n.Values[name]
		sock, err := parseSocketID(name)
		if err != nil {
			return nil, err
		}
		if name[0] == 'i' {
			if sock.idx < 0 || sock.idx >= len(inputs) {
				return nil, fmt.Errorf("input socket %q out of range", name)
			}
			t, err := rs.inputType(rebuildType, sock.name)
			if err != nil {
				return nil, err
			}
			if nodeType == "ShaderNodeMapRange" || nodeType == "FunctionNodeCompare" {
				if t, err = socketTypeFromValue(v); err != nil {
					return nil, fmt.Errorf("socket %q: %w", name, err)
				}
			}
			inputs[sock.idx] = map[string]interface{}{
				"type_name": t,
				"value":     v,
				"name":      sock.name,
				"hide":      false,
			}
			continue
		}
		if sock.idx < 0 || sock.idx >= len(outputs) {
			return nil, fmt.Errorf("output socket %q out of range", name)
		}
		t, err := rs.outputType(rebuildType, sock.name)
		if err != nil {
			return nil, err
		}
		outputs[sock.idx] = map[string]interface{}{
			"type_name": t,
			"value":     v,
			"name":      sock.name,
			"hide":      false,
		}
	}

	res["attrs"] = attrs
	res["inputs"] = inputs
	res["outputs"] = outputs
	return res, nil
}

// socketTypeFromValue infers a socket type from its value for the node
// types whose sockets change type with their data.
func socketTypeFromValue(v script.Value) (string, error) {
	switch v.Kind() {
	case script.KindBool:
		return "NodeSocketBool", nil
	case script.KindFloat:
		return "NodeSocketFloat", nil
	case script.KindInt:
		return "NodeSocketInt", nil
	case script.KindString:
		return "NodeSocketString", nil
	case script.KindFloatArray, script.KindIntArray:
		size := 0
		if v.Kind() == script.KindFloatArray {
			size = len(v.AsFloatArray())
		} else {
			size = len(v.AsIntArray())
		}
		switch size {
		case 3:
			return "NodeSocketVector", nil
		case 4:
			return "NodeSocketColor", nil
		}
		return "", fmt.Errorf("no socket type for array of size %d", size)
	}
	return "", fmt.Errorf("no socket type for value kind %s", v.Kind())
}

// exportInterfaceInputs turns the virtual interface node back into the
// preset's interface_inputs array and restores the group name.
func exportInterfaceInputs(n *script.Node, res map[string]interface{}) error {
	groupName, err := stringProperty(n, GroupNameProp)
	if err != nil {
		return err
	}
	res["name"] = groupName

	sizeV := n.Values[InterfaceInputsSizeProp]
	if sizeV.Kind() != script.KindInt {
		return fmt.Errorf("missing int property %q", InterfaceInputsSizeProp)
	}
	size := int(sizeV.AsInt())
	inputs := make([]map[string]interface{}, size)
	for i := 0; i < size; i++ {
		inputs[i] = map[string]interface{}{
			"default_value": n.Values[fmt.Sprintf("p.%d.default", i)],
			"min_value":     n.Values[fmt.Sprintf("p.%d.min", i)],
			"max_value":     n.Values[fmt.Sprintf("p.%d.max", i)],
			"hide_value":    n.Values[fmt.Sprintf("p.%d.hide", i)],
		}
	}
	res["interface_inputs"] = inputs
	return nil
}

func sortedNodeIDs(g *script.Graph) []script.NodeRef {
	ids := make([]script.NodeRef, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func sortedValueKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
