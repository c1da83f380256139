// Package blender translates NodeKit Blender presets to and from the
// node-graph model, provides the Blender node-type rule used by matching,
// and decorates scripts with diff colors for in-editor visualization.
package blender

import (
	"fmt"

	"nodediff/script"
)

// Property names shared by every parsed Blender node.
const (
	NodeTypeProp        = "v.node_name"
	NodeParentProp      = "v.parent"
	NodeXProp           = "v.x"
	NodeYProp           = "v.y"
	NodeWidthProp       = "v.width"
	NodeHeightProp      = "v.height"
	NodeWidthHiddenProp = "v.width_hidden"

	NodeGroupProp           = "p.node_group"
	GroupNameProp           = "p.group_name"
	InterfaceInputsSizeProp = "p.size"

	UseCustomColorProp = "a.use_custom_color"
	ColorProp          = "a.color"
	ImageTextureProp   = "a.image"
)

// InterfaceInputsType names the virtual node that carries a node group's
// interface metadata so it participates in diffs.
const InterfaceInputsType = "interface_inputs"

// MaxVirtualSockets is the number of slots a multi-input socket expands to.
const MaxVirtualSockets = 16

// NodeType is the Blender node-type rule: the node_name property, replaced
// by the group name for node-group instances so groups match by the graph
// they instantiate rather than by their generic wrapper type.
func NodeType(n *script.Node) string {
	t := n.Values[NodeTypeProp]
	if t.Kind() != script.KindString {
		return ""
	}
	name := t.AsString()
	if name == "ShaderNodeGroup" || name == "GeometryNodeGroup" {
		if g := n.Values[GroupNameProp]; g.Kind() == script.KindString {
			return g.AsString()
		}
	}
	return name
}

func isInterfaceInputs(n *script.Node) bool {
	t := n.Values[NodeTypeProp]
	return t.Kind() == script.KindString && t.AsString() == InterfaceInputsType
}

func stringProperty(n *script.Node, name string) (string, error) {
	v, ok := n.Values[name]
	if !ok || v.Kind() != script.KindString {
		return "", fmt.Errorf("missing string property %q", name)
	}
	return v.AsString(), nil
}
