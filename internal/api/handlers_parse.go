package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dgallion1/domgest/internal/chunked"
	"github.com/dgallion1/domgest/internal/dom"
	"github.com/dgallion1/domgest/internal/lexer"
	"github.com/dgallion1/domgest/internal/parser"
	"github.com/dgallion1/domgest/internal/render"
	"github.com/dustin/go-humanize"
)

// bodyFramingHeader marks a request body that is itself chunked-encoded.
// net/http already strips the request's own Transfer-Encoding, so the
// framing of the payload travels in a separate header.
const bodyFramingHeader = "X-Body-Transfer-Encoding"

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			jsonError(w, fmt.Sprintf("body exceeds max size (%s)", humanize.Bytes(uint64(s.cfg.MaxBodyBytes))), http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return
	}

	opts, err := s.parseOptions(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	h := http.Header{}
	h.Set("Content-Type", r.Header.Get("Content-Type"))
	for _, v := range r.Header.Values("Content-Encoding") {
		h.Add("Content-Encoding", v)
	}
	if r.URL.Query().Get("chunked") == "true" || strings.EqualFold(r.Header.Get(bodyFramingHeader), "chunked") {
		h.Set("Transfer-Encoding", "chunked")
	}

	tree, err := parser.ParseHTTP(raw, h, opts)
	if err != nil {
		s.parseError(w, err)
		return
	}

	switch r.URL.Query().Get("format") {
	case "", "json":
		writeWithTree(w, struct {
			Stats render.Stats `json:"stats"`
		}{render.Summarize(tree)}, render.ToNode(tree, dom.RootID))
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		render.Print(w, tree, render.PrintOptions{All: r.URL.Query().Get("all") == "true"})
	case "segments":
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"segments": render.Segments(tree)})
	default:
		jsonError(w, "format must be json, text or segments", http.StatusBadRequest)
	}
}

// parseOptions starts from the configured policies and applies query overrides.
func (s *Server) parseOptions(r *http.Request) (parser.Options, error) {
	opts := parser.Options{
		Lexer:        s.cfg.LexerOptions(),
		Builder:      s.cfg.BuilderOptions(),
		MaxBodyBytes: s.cfg.MaxBodyBytes,
	}
	q := r.URL.Query()
	if v := q.Get("duplicate_attrs"); v != "" {
		p, err := lexer.ParseDuplicatePolicy(v)
		if err != nil {
			return opts, err
		}
		opts.Lexer.DuplicateAttrs = p
	}
	if v := q.Get("end_tags"); v != "" {
		p, err := dom.ParseEndTagPolicy(v)
		if err != nil {
			return opts, err
		}
		opts.Builder.EndTags = p
	}
	return opts, nil
}

func (s *Server) parseError(w http.ResponseWriter, err error) {
	var de *chunked.DecodeError
	var le *lexer.LexError
	switch {
	case errors.As(err, &de):
		jsonErrorAt(w, err.Error(), de.Offset, http.StatusUnprocessableEntity)
	case errors.As(err, &le):
		jsonErrorAt(w, err.Error(), le.Offset, http.StatusUnprocessableEntity)
	case errors.Is(err, parser.ErrBodyTooLarge):
		jsonError(w, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, parser.ErrUnsupportedEncoding):
		jsonError(w, err.Error(), http.StatusUnsupportedMediaType)
	default:
		s.log.Warn("parse failed", "error", err)
		jsonError(w, err.Error(), http.StatusBadRequest)
	}
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func jsonErrorAt(w http.ResponseWriter, msg string, offset int, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{"error": msg, "offset": offset})
}

// writeWithTree encodes v, which must encode as a JSON object, and appends a
// "tree" member streamed from tree. encoding/json refuses values nested past
// 10000 levels, so the tree bypasses it.
func writeWithTree(w http.ResponseWriter, v any, tree *render.Node) {
	head, err := json.Marshal(v)
	if err != nil || len(head) < 2 || head[len(head)-1] != '}' {
		jsonError(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if tree == nil {
		w.Write(append(head, '\n'))
		return
	}
	w.Write(head[:len(head)-1])
	if len(head) > 2 {
		io.WriteString(w, ",")
	}
	io.WriteString(w, `"tree":`)
	tree.WriteTo(w)
	io.WriteString(w, "}\n")
}
