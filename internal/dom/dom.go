// Package dom holds the simplified document tree and the builder that
// assembles it from lexer tokens.
package dom

import "fmt"

// Kind is the element category of a node.
type Kind int

const (
	Root Kind = iota
	H1
	P
	Div
	Link
	Unknown
)

var kindNames = [...]string{
	Root:    "root",
	H1:      "h1",
	P:       "p",
	Div:     "div",
	Link:    "link",
	Unknown: "unknown",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// tagKinds is matched case-sensitively.
var tagKinds = map[string]Kind{
	"h1":  H1,
	"div": Div,
	"a":   Link,
	"p":   P,
}

// KindForTag maps a tag name to its Kind. Unrecognized names are Unknown.
func KindForTag(tag string) Kind {
	if k, ok := tagKinds[tag]; ok {
		return k
	}
	return Unknown
}

// NodeID addresses a node inside its Tree.
type NodeID int

// RootID is the id of every tree's root node.
const RootID NodeID = 0

// NoNode is returned where a node has no parent.
const NoNode NodeID = -1

type node struct {
	kind     Kind
	tag      string
	text     []byte
	hasText  bool
	parent   NodeID
	children []NodeID
}

// Tree is an arena of nodes. Parents and children are ids, so growing the
// arena or a child list never invalidates a reference held by the caller.
type Tree struct {
	nodes []node
}

// NewTree returns a tree holding only the root.
func NewTree() *Tree {
	return &Tree{nodes: []node{{kind: Root, parent: NoNode}}}
}

// Root returns the root id.
func (t *Tree) Root() NodeID { return RootID }

// Len returns the number of nodes, root included.
func (t *Tree) Len() int { return len(t.nodes) }

// Kind returns the node's kind.
func (t *Tree) Kind(id NodeID) Kind { return t.nodes[id].kind }

// TagName returns the tag name as written in the source. The root has none.
func (t *Tree) TagName(id NodeID) (string, bool) {
	n := &t.nodes[id]
	return n.tag, n.kind != Root
}

// Text returns the text accumulated while the node was the cursor.
func (t *Tree) Text(id NodeID) (string, bool) {
	n := &t.nodes[id]
	return string(n.text), n.hasText
}

// Parent returns the parent id, or NoNode for the root.
func (t *Tree) Parent(id NodeID) NodeID { return t.nodes[id].parent }

// Children returns the child ids in document order. The slice must not be modified.
func (t *Tree) Children(id NodeID) []NodeID { return t.nodes[id].children }

// Depth returns the number of edges between id and the root.
func (t *Tree) Depth(id NodeID) int {
	d := 0
	for p := t.nodes[id].parent; p != NoNode; p = t.nodes[p].parent {
		d++
	}
	return d
}

// Walk visits id and its descendants in document order. Returning false
// from fn skips the node's children. Depth is relative to id. Walk keeps its
// own stack, so trees of any depth are safe.
func (t *Tree) Walk(id NodeID, fn func(id NodeID, depth int) bool) {
	type frame struct {
		id    NodeID
		depth int
	}
	stack := []frame{{id: id}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(f.id, f.depth) {
			continue
		}
		kids := t.nodes[f.id].children
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, frame{id: kids[i], depth: f.depth + 1})
		}
	}
}

// MaxDepth returns the deepest node's depth below the root.
func (t *Tree) MaxDepth() int {
	deepest := 0
	t.Walk(RootID, func(_ NodeID, depth int) bool {
		if depth > deepest {
			deepest = depth
		}
		return true
	})
	return deepest
}

// appendChild creates a node under parent and returns its id.
func (t *Tree) appendChild(parent NodeID, kind Kind, tag string) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, node{kind: kind, tag: tag, parent: parent})
	t.nodes[parent].children = append(t.nodes[parent].children, id)
	return id
}

func (t *Tree) appendText(id NodeID, s string) {
	n := &t.nodes[id]
	n.text = append(n.text, s...)
	n.hasText = true
}
