package render

import (
	"github.com/dgallion1/domgest/internal/dom"
)

// Stats summarizes a tree.
type Stats struct {
	Nodes     int            `json:"nodes"`
	MaxDepth  int            `json:"max_depth"`
	TextBytes int            `json:"text_bytes"`
	Kinds     map[string]int `json:"kinds"`
}

// Summarize counts nodes, depth, text and kinds. The root is not counted as a kind.
func Summarize(tree *dom.Tree) Stats {
	s := Stats{Kinds: map[string]int{}}
	tree.Walk(dom.RootID, func(id dom.NodeID, depth int) bool {
		s.Nodes++
		if depth > s.MaxDepth {
			s.MaxDepth = depth
		}
		if text, ok := tree.Text(id); ok {
			s.TextBytes += len(text)
		}
		if id != dom.RootID {
			s.Kinds[tree.Kind(id).String()]++
		}
		return true
	})
	return s
}
