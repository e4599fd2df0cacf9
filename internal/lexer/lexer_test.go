package lexer

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func lex(t *testing.T, input string, opts Options) []Token {
	t.Helper()
	toks, err := Lex([]byte(input), opts)
	if err != nil {
		t.Fatalf("Lex(%q) unexpected error: %v", input, err)
	}
	return toks
}

func TestLex_TokenSequences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Token
	}{
		{
			name:  "simple element",
			input: "<p>hi</p>",
			want:  []Token{StartTag("p"), Text("hi"), EndTag("p")},
		},
		{
			name:  "text around tags",
			input: "x<b>y</b>z",
			want:  []Token{Text("x"), StartTag("b"), Text("y"), EndTag("b"), Text("z")},
		},
		{
			name:  "adjacent tags emit no empty text",
			input: "<div><p></p></div>",
			want:  []Token{StartTag("div"), StartTag("p"), EndTag("p"), EndTag("div")},
		},
		{
			name:  "whitespace text is kept",
			input: "<div>\n  <p>a</p>\n</div>",
			want: []Token{
				StartTag("div"), Text("\n  "), StartTag("p"), Text("a"), EndTag("p"), Text("\n"), EndTag("div"),
			},
		},
		{
			name:  "quoted and bare attributes",
			input: `<a href="http://x.com" target=_blank>`,
			want:  []Token{StartTag("a", Attr{"href", "http://x.com"}, Attr{"target", "_blank"})},
		},
		{
			name:  "whitespace preserved inside quotes",
			input: `<a title="a b">`,
			want:  []Token{StartTag("a", Attr{"title", "a b"})},
		},
		{
			name:  "attributes without values",
			input: `<input disabled checked>`,
			want:  []Token{StartTag("input", Attr{"disabled", ""}, Attr{"checked", ""})},
		},
		{
			name:  "whitespace around equals",
			input: `<a href = "x" >`,
			want:  []Token{StartTag("a", Attr{"href", "x"})},
		},
		{
			name:  "mixed separators",
			input: "<div\n\tid=main\n  class='a b'>",
			want:  []Token{StartTag("div", Attr{"id", "main"}, Attr{"class", "a b"})},
		},
		{
			name:  "gt inside quotes ends the tag",
			input: `<a title="1>2">x`,
			want:  []Token{StartTag("a", Attr{"title", "1"}), Text(`2">x`)},
		},
		{
			name:  "either quote kind toggles quoting",
			input: `<a alt="it's">x`,
			want:  []Token{StartTag("a", Attr{"alt", "its"}), Text("x")},
		},
		{
			name:  "mismatched quote kinds still close",
			input: `<a title='a b" c=d>`,
			want:  []Token{StartTag("a", Attr{"title", "a b"}, Attr{"c", "d"})},
		},
		{
			name:  "equals without a name",
			input: `<a =x>y`,
			want:  []Token{StartTag("a", Attr{"", "x"}), Text("y")},
		},
		{
			name:  "bare equals gives an empty attribute",
			input: `<a = >`,
			want:  []Token{StartTag("a", Attr{"", ""})},
		},
		{
			name:  "whitespace before gt adds no attribute",
			input: `<a x=1 >`,
			want:  []Token{StartTag("a", Attr{"x", "1"})},
		},
		{
			name:  "quoted and bare runs join",
			input: `<a v=x"y z"w>`,
			want:  []Token{StartTag("a", Attr{"v", "xy zw"})},
		},
		{
			name:  "empty quoted value",
			input: `<a title="">`,
			want:  []Token{StartTag("a", Attr{"title", ""})},
		},
		{
			name:  "duplicate attributes kept by default",
			input: `<a x=1 x=2>`,
			want:  []Token{StartTag("a", Attr{"x", "1"}, Attr{"x", "2"})},
		},
		{
			name:  "attribute lists are not shared between tags",
			input: `<a x=1><b y=2>`,
			want:  []Token{StartTag("a", Attr{"x", "1"}), StartTag("b", Attr{"y", "2"})},
		},
		{
			name:  "tag name whitespace without attributes",
			input: "<p >a</p >",
			want:  []Token{StartTag("p"), Text("a"), EndTag("p ")},
		},
		{
			name:  "empty tag names",
			input: "<></>",
			want:  []Token{StartTag(""), EndTag("")},
		},
		{
			name:  "trailing text is flushed",
			input: "just text",
			want:  []Token{Text("just text")},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := lex(t, tc.input, Options{})
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Lex(%q) mismatch (-want +got):\n%s", tc.input, diff)
			}
		})
	}
}

func TestLex_UnterminatedTagEmitsNothing(t *testing.T) {
	inputs := map[string][]Token{
		"hello<div":          {Text("hello")},
		"hello<div class=":   {Text("hello")},
		`hello<a title="a b`: {Text("hello")},
		"hello</di":          {Text("hello")},
		"hello<":             {Text("hello")},
		"<p>a</p><":          {StartTag("p"), Text("a"), EndTag("p")},
	}
	for input, want := range inputs {
		got := lex(t, input, Options{})
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Lex(%q) mismatch (-want +got):\n%s", input, diff)
		}
	}
}

func TestLex_DuplicatePolicies(t *testing.T) {
	input := `<a x=1 y=2 x=3>`
	tests := []struct {
		policy DuplicatePolicy
		want   []Attr
	}{
		{KeepAll, []Attr{{"x", "1"}, {"y", "2"}, {"x", "3"}}},
		{LastWins, []Attr{{"x", "3"}, {"y", "2"}}},
		{FirstWins, []Attr{{"x", "1"}, {"y", "2"}}},
	}
	for _, tc := range tests {
		t.Run(tc.policy.String(), func(t *testing.T) {
			got := lex(t, input, Options{DuplicateAttrs: tc.policy})
			if len(got) != 1 {
				t.Fatalf("expected 1 token, got %d", len(got))
			}
			if diff := cmp.Diff(tc.want, got[0].Attrs); diff != "" {
				t.Errorf("attrs mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLex_LongBuffersAreNotTruncated(t *testing.T) {
	long := make([]byte, 4096)
	for i := range long {
		long[i] = 'v'
	}
	input := `<a data="` + string(long) + `">` + string(long)
	got := lex(t, input, Options{})
	want := []Token{StartTag("a", Attr{"data", string(long)}), Text(string(long))}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestLex_BufferLimit(t *testing.T) {
	toks, err := Lex([]byte("<p>hello</p>"), Options{MaxBufferBytes: 4})
	if err == nil {
		t.Fatalf("expected error, got tokens %v", toks)
	}
	if !errors.Is(err, ErrBufferLimit) {
		t.Errorf("expected ErrBufferLimit, got %v", err)
	}
	var le *LexError
	if !errors.As(err, &le) {
		t.Fatalf("expected *LexError, got %T", err)
	}
	if le.Offset != 7 {
		t.Errorf("expected offset 7, got %d", le.Offset)
	}
	if toks != nil {
		t.Errorf("expected no tokens on failure, got %v", toks)
	}
}

func TestLex_BufferLimitAllowsExactFit(t *testing.T) {
	got, err := Lex([]byte("<p>hell</p>"), Options{MaxBufferBytes: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Token{StartTag("p"), Text("hell"), EndTag("p")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestLexer_FeedAcrossWrites(t *testing.T) {
	l := New(Options{})
	for _, part := range []string{"<di", `v id="a `, `b">te`, "xt</div>"} {
		if err := l.Feed([]byte(part)); err != nil {
			t.Fatalf("Feed(%q): %v", part, err)
		}
	}
	want := []Token{StartTag("div", Attr{"id", "a b"}), Text("text"), EndTag("div")}
	if diff := cmp.Diff(want, l.Finish()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDuplicatePolicy(t *testing.T) {
	for in, want := range map[string]DuplicatePolicy{"": KeepAll, "keep": KeepAll, "last": LastWins, "first": FirstWins} {
		got, err := ParseDuplicatePolicy(in)
		if err != nil {
			t.Fatalf("ParseDuplicatePolicy(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseDuplicatePolicy(%q): expected %v, got %v", in, want, got)
		}
	}
	if _, err := ParseDuplicatePolicy("newest"); err == nil {
		t.Error("expected error for unknown policy")
	}
}
