// Package lexer splits an HTML byte buffer into start tag, end tag and text
// tokens. It is deliberately small: no entities, comments, doctypes or
// raw-text elements.
package lexer

import (
	"fmt"
	"strings"
)

// TokenType identifies the variant held by a Token.
type TokenType int

const (
	StartTagToken TokenType = iota
	EndTagToken
	TextToken
)

func (t TokenType) String() string {
	switch t {
	case StartTagToken:
		return "StartTag"
	case EndTagToken:
		return "EndTag"
	case TextToken:
		return "Text"
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Attr is a single name/value pair from a start tag. Attributes written
// without "=" have an empty Value.
type Attr struct {
	Name  string
	Value string
}

// Token is one lexical unit. Name and Attrs are set for tags, Text for text runs.
type Token struct {
	Type  TokenType
	Name  string
	Attrs []Attr
	Text  string
}

// StartTag returns a start tag token.
func StartTag(name string, attrs ...Attr) Token {
	return Token{Type: StartTagToken, Name: name, Attrs: attrs}
}

// EndTag returns an end tag token.
func EndTag(name string) Token {
	return Token{Type: EndTagToken, Name: name}
}

// Text returns a text token.
func Text(s string) Token {
	return Token{Type: TextToken, Text: s}
}

func (t Token) String() string {
	switch t.Type {
	case StartTagToken:
		var sb strings.Builder
		sb.WriteString("<" + t.Name)
		for _, a := range t.Attrs {
			fmt.Fprintf(&sb, " %s=%q", a.Name, a.Value)
		}
		sb.WriteString(">")
		return sb.String()
	case EndTagToken:
		return "</" + t.Name + ">"
	default:
		return fmt.Sprintf("%q", t.Text)
	}
}
