package dom

import (
	"fmt"

	"github.com/dgallion1/domgest/internal/lexer"
)

// EndTagPolicy decides which node an end tag closes.
type EndTagPolicy int

const (
	// Lenient closes the cursor node whatever the end tag's name. An end
	// tag at the root is ignored. This differs from HTML5 tree construction
	// on purpose.
	Lenient EndTagPolicy = iota
	// Strict closes the nearest open node with the same tag name, along
	// with everything opened inside it. An end tag matching no open node
	// is ignored.
	Strict
)

// ParseEndTagPolicy maps "lenient" and "strict" to a policy.
func ParseEndTagPolicy(s string) (EndTagPolicy, error) {
	switch s {
	case "", "lenient":
		return Lenient, nil
	case "strict":
		return Strict, nil
	}
	return Lenient, fmt.Errorf("unknown end tag policy %q", s)
}

func (p EndTagPolicy) String() string {
	if p == Strict {
		return "strict"
	}
	return "lenient"
}

// Options configures a Builder.
type Options struct {
	EndTags EndTagPolicy
}

// Builder turns a token stream into a Tree. It never fails: any token
// sequence yields a tree, balanced or not.
type Builder struct {
	opts    Options
	tree    *Tree
	current NodeID
	// open counts open elements by tag name under Strict, so end tags with
	// no open match are dropped without walking the ancestors.
	open map[string]int
}

// NewBuilder returns a builder whose cursor is at a fresh root.
func NewBuilder(opts Options) *Builder {
	return &Builder{opts: opts, tree: NewTree(), current: RootID, open: map[string]int{}}
}

// Build consumes tokens and returns the finished tree.
func Build(tokens []lexer.Token, opts Options) *Tree {
	b := NewBuilder(opts)
	for _, tok := range tokens {
		b.Push(tok)
	}
	return b.Tree()
}

// Current returns the cursor.
func (b *Builder) Current() NodeID { return b.current }

// Tree returns the tree built so far. Ownership passes to the caller.
func (b *Builder) Tree() *Tree { return b.tree }

// Push applies one token at the cursor.
func (b *Builder) Push(tok lexer.Token) {
	switch tok.Type {
	case lexer.TextToken:
		b.tree.appendText(b.current, tok.Text)
	case lexer.StartTagToken:
		b.current = b.tree.appendChild(b.current, KindForTag(tok.Name), tok.Name)
		if b.opts.EndTags == Strict {
			b.open[tok.Name]++
		}
	case lexer.EndTagToken:
		b.closeElement(tok.Name)
	}
}

func (b *Builder) closeElement(name string) {
	if b.opts.EndTags == Strict {
		if b.open[name] == 0 {
			return
		}
		for id := b.current; id != RootID; id = b.tree.Parent(id) {
			tag := b.tree.nodes[id].tag
			b.open[tag]--
			if tag == name {
				b.current = b.tree.Parent(id)
				return
			}
		}
		return
	}
	if p := b.tree.Parent(b.current); p != NoNode {
		b.current = p
	}
}
