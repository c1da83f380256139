package script

// NodeRef identifies a node within a graph. Ids are unique per graph but
// not stable across versions; matching reconstructs the correspondence.
type NodeRef string

// GraphRef identifies a graph within a script.
type GraphRef string

// Invalid reference sentinels. An empty id never names a real object.
const (
	InvalidNodeRef  NodeRef  = ""
	InvalidGraphRef GraphRef = ""
)

// Valid reports whether r names a real node.
func (r NodeRef) Valid() bool { return r != InvalidNodeRef }

// Valid reports whether r names a real graph.
func (r GraphRef) Valid() bool { return r != InvalidGraphRef }

// TextureRef describes an external texture as an opaque attribute map.
type TextureRef map[string]Value

// Equal reports structural equality of the attribute maps.
func (t TextureRef) Equal(o TextureRef) bool {
	if len(t) != len(o) {
		return false
	}
	for k, v := range t {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of t.
func (t TextureRef) Clone() TextureRef {
	if t == nil {
		return nil
	}
	cp := make(TextureRef, len(t))
	for k, v := range t {
		cp[k] = v.Clone()
	}
	return cp
}

// Edge is a link stored on the destination node: the id of the source node
// and the name of the source socket the value comes out of.
type Edge struct {
	Node   NodeRef `json:"node"`
	Socket string  `json:"socket"`
}
