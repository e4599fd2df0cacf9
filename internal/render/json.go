package render

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"

	"github.com/dgallion1/domgest/internal/dom"
)

// Node is the JSON form of a tree node.
type Node struct {
	Kind     string  `json:"kind"`
	Tag      *string `json:"tag,omitempty"`
	Text     *string `json:"text,omitempty"`
	Children []*Node `json:"children"`
}

// ToNode converts the subtree at id.
func ToNode(tree *dom.Tree, id dom.NodeID) *Node {
	type frame struct {
		id   dom.NodeID
		node *Node
	}
	root := newNode(tree, id)
	stack := []frame{{id, root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		kids := tree.Children(f.id)
		f.node.Children = make([]*Node, len(kids))
		for i, c := range kids {
			n := newNode(tree, c)
			f.node.Children[i] = n
			stack = append(stack, frame{c, n})
		}
	}
	return root
}

func newNode(tree *dom.Tree, id dom.NodeID) *Node {
	n := &Node{Kind: tree.Kind(id).String(), Children: []*Node{}}
	if tag, ok := tree.TagName(id); ok {
		n.Tag = &tag
	}
	if text, ok := tree.Text(id); ok {
		n.Text = &text
	}
	return n
}

// WriteTo streams n as JSON. It keeps its own stack, so any depth is written.
func (n *Node) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)

	type frame struct {
		node *Node
		next int
	}
	openNode(bw, n)
	stack := []frame{{node: n}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next == len(top.node.Children) {
			bw.WriteString("]}")
			stack = stack[:len(stack)-1]
			continue
		}
		if top.next > 0 {
			bw.WriteByte(',')
		}
		c := top.node.Children[top.next]
		top.next++
		openNode(bw, c)
		stack = append(stack, frame{node: c})
	}
	err := bw.Flush()
	return cw.n, err
}

// MarshalJSON encodes n through WriteTo. encoding/json still rejects
// values nested deeper than 10000 levels; use WriteTo or WriteJSON for those.
func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := n.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// openNode writes everything up to and including the children's '['.
func openNode(w *bufio.Writer, n *Node) {
	w.WriteString(`{"kind":`)
	writeString(w, n.Kind)
	if n.Tag != nil {
		w.WriteString(`,"tag":`)
		writeString(w, *n.Tag)
	}
	if n.Text != nil {
		w.WriteString(`,"text":`)
		writeString(w, *n.Text)
	}
	w.WriteString(`,"children":[`)
}

func writeString(w *bufio.Writer, s string) {
	b, _ := json.Marshal(s)
	w.Write(b)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// WriteJSON streams the whole tree, starting at the root, as JSON.
func WriteJSON(w io.Writer, tree *dom.Tree) error {
	_, err := ToNode(tree, dom.RootID).WriteTo(w)
	return err
}

// JSON encodes the whole tree starting at the root.
func JSON(tree *dom.Tree) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, tree); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
