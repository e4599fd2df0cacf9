package lexer

import (
	"errors"
	"fmt"
)

// ErrBufferLimit is returned when a scratch buffer outgrows Options.MaxBufferBytes.
var ErrBufferLimit = errors.New("scratch buffer limit exceeded")

// LexError reports a lexer failure and the input offset it happened at.
// Malformed markup is never a LexError.
type LexError struct {
	Offset int
	Err    error
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lexer: %s at offset %d", e.Err, e.Offset)
}

func (e *LexError) Unwrap() error {
	return e.Err
}

// DuplicatePolicy decides what happens to repeated attribute names in one tag.
type DuplicatePolicy int

const (
	// KeepAll retains every occurrence in source order.
	KeepAll DuplicatePolicy = iota
	// LastWins keeps one attribute per name, at the first occurrence's
	// position, holding the last occurrence's value.
	LastWins
	// FirstWins keeps only the first occurrence of each name.
	FirstWins
)

// ParseDuplicatePolicy maps "keep", "last" and "first" to a policy.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch s {
	case "", "keep", "keep_all", "all":
		return KeepAll, nil
	case "last", "last_wins":
		return LastWins, nil
	case "first", "first_wins":
		return FirstWins, nil
	}
	return KeepAll, fmt.Errorf("unknown duplicate attribute policy %q", s)
}

func (p DuplicatePolicy) String() string {
	switch p {
	case LastWins:
		return "last"
	case FirstWins:
		return "first"
	}
	return "keep"
}

// Options configures Lex. The zero value is the default behavior.
type Options struct {
	DuplicateAttrs DuplicatePolicy
	// MaxBufferBytes caps any single scratch buffer (text run, tag name,
	// attribute name or value). Zero means unbounded.
	MaxBufferBytes int
}

type state int

const (
	stateText state = iota
	stateTagOpen
	stateTagName
	stateEndTagName
	stateAttrs
)

// Lexer is a single-use tokenizer. Use Lex unless you need to feed bytes yourself.
type Lexer struct {
	opts   Options
	state  state
	attr   attrState
	offset int

	text      []byte
	name      []byte
	attrName  []byte
	attrValue []byte
	assigned  bool
	attrs     []Attr

	tokens []Token
}

// New returns a lexer in the Text state.
func New(opts Options) *Lexer {
	return &Lexer{opts: opts}
}

// Lex tokenizes the whole of input.
func Lex(input []byte, opts Options) ([]Token, error) {
	l := New(opts)
	if err := l.Feed(input); err != nil {
		return nil, err
	}
	return l.Finish(), nil
}

// Feed feeds input through the state machine.
func (l *Lexer) Feed(input []byte) error {
	for _, c := range input {
		if err := l.step(c); err != nil {
			return err
		}
		l.offset++
	}
	return nil
}

// Finish flushes trailing text and returns the tokens. A tag still open at
// the end of input produces no token.
func (l *Lexer) Finish() []Token {
	if l.state == stateText {
		l.flushText()
	}
	l.reset()
	toks := l.tokens
	l.tokens = nil
	return toks
}

func (l *Lexer) step(c byte) error {
	switch l.state {
	case stateText:
		if c == '<' {
			l.flushText()
			l.state = stateTagOpen
			return nil
		}
		return l.push(&l.text, c)

	case stateTagOpen:
		if c == '/' {
			l.state = stateEndTagName
			return nil
		}
		l.state = stateTagName
		return l.step(c)

	case stateTagName:
		switch {
		case c == '>':
			l.emitStartTag()
		case isSpace(c):
			l.state = stateAttrs
			l.attr = attrBeforeName
		default:
			return l.push(&l.name, c)
		}

	case stateEndTagName:
		if c == '>' {
			l.tokens = append(l.tokens, EndTag(string(l.name)))
			l.reset()
			return nil
		}
		return l.push(&l.name, c)

	case stateAttrs:
		next, act := stepAttr(l.attr, c)
		l.attr = next
		if act&actAssign != 0 {
			l.assigned = true
		}
		if act&actCommit != 0 {
			l.commitAttr()
		}
		if act&actName != 0 {
			if err := l.push(&l.attrName, c); err != nil {
				return err
			}
		}
		if act&actValue != 0 {
			if err := l.push(&l.attrValue, c); err != nil {
				return err
			}
		}
		if act&actClose != 0 {
			l.emitStartTag()
		}
	}
	return nil
}

func (l *Lexer) push(buf *[]byte, c byte) error {
	if l.opts.MaxBufferBytes > 0 && len(*buf) >= l.opts.MaxBufferBytes {
		return &LexError{Offset: l.offset, Err: ErrBufferLimit}
	}
	*buf = append(*buf, c)
	return nil
}

func (l *Lexer) flushText() {
	if len(l.text) == 0 {
		return
	}
	l.tokens = append(l.tokens, Text(string(l.text)))
	l.text = l.text[:0]
}

func (l *Lexer) commitAttr() {
	if len(l.attrName) > 0 || l.assigned {
		l.attrs = append(l.attrs, Attr{Name: string(l.attrName), Value: string(l.attrValue)})
	}
	l.attrName = l.attrName[:0]
	l.attrValue = l.attrValue[:0]
	l.assigned = false
}

func (l *Lexer) emitStartTag() {
	l.tokens = append(l.tokens, StartTag(string(l.name), applyPolicy(l.attrs, l.opts.DuplicateAttrs)...))
	l.reset()
}

// reset returns to the Text state and clears the tag scratch buffers.
func (l *Lexer) reset() {
	l.state = stateText
	l.attr = attrBeforeName
	l.name = l.name[:0]
	l.attrName = l.attrName[:0]
	l.attrValue = l.attrValue[:0]
	l.assigned = false
	l.attrs = nil
}

func applyPolicy(attrs []Attr, p DuplicatePolicy) []Attr {
	if p == KeepAll || len(attrs) < 2 {
		return attrs
	}
	seen := make(map[string]int, len(attrs))
	out := attrs[:0]
	for _, a := range attrs {
		i, dup := seen[a.Name]
		if !dup {
			seen[a.Name] = len(out)
			out = append(out, a)
			continue
		}
		if p == LastWins {
			out[i].Value = a.Value
		}
	}
	return out
}
