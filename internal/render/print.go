// Package render turns a dom.Tree into output for people and programs.
package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/domgest/internal/dom"
)

// PrintOptions controls Print.
type PrintOptions struct {
	// All includes Unknown elements. By default they are skipped and their
	// children are printed one level up.
	All    bool
	Indent string
}

// Print writes one entry per element: "(<children>) <tag>: <text>", followed
// by a "Children:" line when the element has children.
func Print(w io.Writer, tree *dom.Tree, opts PrintOptions) error {
	if opts.Indent == "" {
		opts.Indent = "  "
	}
	bw := bufio.NewWriter(w)

	type frame struct {
		id    dom.NodeID
		depth int
	}
	var stack []frame
	push := func(id dom.NodeID, depth int) {
		kids := tree.Children(id)
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, frame{kids[i], depth})
		}
	}
	push(dom.RootID, 0)
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !opts.All && tree.Kind(f.id) == dom.Unknown {
			push(f.id, f.depth)
			continue
		}
		printNode(bw, tree, f.id, strings.Repeat(opts.Indent, f.depth))
		push(f.id, f.depth+1)
	}
	return bw.Flush()
}

func printNode(w *bufio.Writer, tree *dom.Tree, id dom.NodeID, pad string) {
	tag, _ := tree.TagName(id)
	kids := tree.Children(id)
	fmt.Fprintf(w, "%s(%d) %s", pad, len(kids), tag)
	if text, ok := tree.Text(id); ok {
		fmt.Fprintf(w, ": %s", text)
	}
	w.WriteByte('\n')
	if len(kids) > 0 {
		fmt.Fprintf(w, "%sChildren:\n", pad)
	}
}
