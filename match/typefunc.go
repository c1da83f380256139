package match

import "nodediff/script"

// TypeFunc reports the host-defined type of a node. Cost functions compare
// types before anything else, so the host decides what counts as "the same
// kind of node" (a designated property by convention).
type TypeFunc func(*script.Node) string
