package render

import (
	"strings"

	"github.com/dgallion1/domgest/internal/dom"
)

// MaxSegmentPath bounds Segment.Path. Deeper segments keep the innermost tags.
const MaxSegmentPath = 32

// Segment is the text of one node with the tag path leading to it.
type Segment struct {
	Path   []string `json:"path"`
	Depth  int      `json:"depth"`
	Text   string   `json:"text"`
	Tokens int      `json:"tokens"`
}

// Segments lists node texts in document order. Whitespace-only text is
// dropped and surrounding whitespace is trimmed.
func Segments(tree *dom.Tree) []Segment {
	var out []Segment
	// path[d-1] is the tag of the ancestor at depth d of the current node.
	var path []string
	tree.Walk(dom.RootID, func(id dom.NodeID, depth int) bool {
		path = path[:max(depth-1, 0)]
		if tag, ok := tree.TagName(id); ok {
			path = append(path, tag)
		}
		if text, ok := tree.Text(id); ok {
			if t := strings.TrimSpace(text); t != "" {
				out = append(out, Segment{Path: tailPath(path), Depth: depth, Text: t, Tokens: EstimateTokens(t)})
			}
		}
		return true
	})
	return out
}

func tailPath(p []string) []string {
	if len(p) == 0 {
		return nil
	}
	p = p[max(len(p)-MaxSegmentPath, 0):]
	out := make([]string, len(p))
	copy(out, p)
	return out
}

// EstimateTokens approximates an LLM token count at 1.33 tokens per word.
// Any non-empty text counts as at least one token.
func EstimateTokens(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return max(int(float64(words)*1.33), 1)
}
