package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/dgallion1/domgest/internal/chunked"
	"github.com/dgallion1/domgest/internal/dom"
	"github.com/dgallion1/domgest/internal/lexer"
)

func TestParse_NestedText(t *testing.T) {
	tree, err := Parse([]byte("<div>a<p>b</p>c</div>"), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	div := tree.Children(dom.RootID)[0]
	if tree.Kind(div) != dom.Div {
		t.Fatalf("expected Div, got %v", tree.Kind(div))
	}
	if text, _ := tree.Text(div); text != "ac" {
		t.Errorf("expected div text %q, got %q", "ac", text)
	}
	p := tree.Children(div)[0]
	if text, _ := tree.Text(p); text != "b" {
		t.Errorf("expected p text %q, got %q", "b", text)
	}
	if _, ok := tree.Text(dom.RootID); ok {
		t.Error("expected root to have no text")
	}
}

func TestParse_DepthMatchesNesting(t *testing.T) {
	tests := []struct {
		input string
		depth int
	}{
		{"", 0},
		{"<p></p>", 1},
		{"<div><p></p><p></p></div>", 2},
		{"<div><div><div><a>x</a></div></div><p></p></div>", 4},
		{strings.Repeat("<div>", 50) + strings.Repeat("</div>", 50), 50},
	}
	for _, tc := range tests {
		tree, err := Parse([]byte(tc.input), Options{})
		if err != nil {
			t.Fatalf("Parse(%q): %v", tc.input, err)
		}
		if got := tree.MaxDepth(); got != tc.depth {
			t.Errorf("Parse(%q): expected depth %d, got %d", tc.input, tc.depth, got)
		}
	}
}

func TestParse_SiblingsInSourceOrder(t *testing.T) {
	tree, err := Parse([]byte("<div><h1>t</h1><p>1</p><a>l</a><p>2</p></div>"), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	div := tree.Children(dom.RootID)[0]
	want := []string{"t", "1", "l", "2"}
	kids := tree.Children(div)
	if len(kids) != len(want) {
		t.Fatalf("expected %d children, got %d", len(want), len(kids))
	}
	for i, c := range kids {
		if text, _ := tree.Text(c); text != want[i] {
			t.Errorf("child[%d]: expected %q, got %q", i, want[i], text)
		}
	}
}

func TestParse_Chunked(t *testing.T) {
	body := "7\r\n<p>hi</\r\n2\r\np>\r\n0\r\n\r\n"
	tree, err := Parse([]byte(body), Options{Chunked: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := tree.Children(dom.RootID)[0]
	if text, _ := tree.Text(p); text != "hi" {
		t.Errorf("expected %q, got %q", "hi", text)
	}
	if len(tree.Children(p)) != 0 {
		t.Errorf("expected p to be closed, got %d children", len(tree.Children(p)))
	}
}

func TestParse_DecodeErrorReturnsNoTree(t *testing.T) {
	tree, err := Parse([]byte("ff\r\n<p>short"), Options{Chunked: true})
	if err == nil {
		t.Fatal("expected error")
	}
	if tree != nil {
		t.Error("expected nil tree on failure")
	}
	var de *chunked.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected *chunked.DecodeError, got %T: %v", err, err)
	}
	if !errors.Is(err, chunked.ErrTruncatedChunk) {
		t.Errorf("expected ErrTruncatedChunk, got %v", err)
	}
	if de.Offset != 4 {
		t.Errorf("expected offset 4, got %d", de.Offset)
	}
}

func TestParse_LexErrorReturnsNoTree(t *testing.T) {
	opts := Options{Lexer: lexer.Options{MaxBufferBytes: 3}}
	tree, err := Parse([]byte("<div>text</div>"), opts)
	if err == nil {
		t.Fatal("expected error")
	}
	if tree != nil {
		t.Error("expected nil tree on failure")
	}
	var le *lexer.LexError
	if !errors.As(err, &le) {
		t.Fatalf("expected *lexer.LexError, got %T: %v", err, err)
	}
	if le.Offset != 8 {
		t.Errorf("expected offset 8, got %d", le.Offset)
	}
}

func TestParse_Policies(t *testing.T) {
	opts := Options{
		Lexer:   lexer.Options{DuplicateAttrs: lexer.LastWins},
		Builder: dom.Options{EndTags: dom.Strict},
	}
	tree, err := Parse([]byte(`<div id=a id=b><p>x</span>y</div>z`), opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	div := tree.Children(dom.RootID)[0]
	p := tree.Children(div)[0]
	if text, _ := tree.Text(p); text != "xy" {
		t.Errorf("expected p text %q under strict end tags, got %q", "xy", text)
	}
	if text, _ := tree.Text(dom.RootID); text != "z" {
		t.Errorf("expected root text %q, got %q", "z", text)
	}
}

func TestParse_IndependentCalls(t *testing.T) {
	a, err := Parse([]byte("<div>"), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Parse([]byte("<p>"), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Len() != 2 || b.Len() != 2 {
		t.Errorf("expected two-node trees, got %d and %d", a.Len(), b.Len())
	}
	if a.Kind(1) != dom.Div || b.Kind(1) != dom.P {
		t.Errorf("trees share state: %v, %v", a.Kind(1), b.Kind(1))
	}
}
