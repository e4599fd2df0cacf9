package parser

import (
	"fmt"

	"github.com/dgallion1/domgest/internal/chunked"
	"github.com/dgallion1/domgest/internal/dom"
	"github.com/dgallion1/domgest/internal/lexer"
)

// Options configures the decode, lex and build stages.
type Options struct {
	// Chunked marks body as chunked transfer-encoded.
	Chunked bool
	Lexer   lexer.Options
	Builder dom.Options
	// MaxBodyBytes caps the decoded body size in PrepareBody. Zero means unbounded.
	MaxBodyBytes int64
}

// Parse runs body through the pipeline and returns the document tree. On
// failure no tree is returned; errors wrap *chunked.DecodeError or
// *lexer.LexError.
func Parse(body []byte, opts Options) (*dom.Tree, error) {
	if opts.Chunked {
		decoded, err := chunked.Decode(body)
		if err != nil {
			return nil, fmt.Errorf("decode chunked body: %w", err)
		}
		body = decoded
	}

	tokens, err := lexer.Lex(body, opts.Lexer)
	if err != nil {
		return nil, fmt.Errorf("lex html: %w", err)
	}
	return dom.Build(tokens, opts.Builder), nil
}
