package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/dgallion1/domgest/internal/chunked"
	"github.com/dgallion1/domgest/internal/dom"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
)

var (
	ErrUnsupportedEncoding = errors.New("unsupported content encoding")
	ErrBodyTooLarge        = errors.New("decoded body exceeds size limit")
)

// IsChunked reports whether the final transfer coding is chunked.
func IsChunked(h http.Header) bool {
	codings := splitList(h.Values("Transfer-Encoding"))
	return len(codings) > 0 && codings[len(codings)-1] == "chunked"
}

// PrepareBody turns a raw HTTP response body into UTF-8 HTML: it removes
// chunked framing, undoes Content-Encoding and transcodes the charset named by
// Content-Type or a <meta> declaration.
func PrepareBody(raw []byte, h http.Header, maxBytes int64) ([]byte, error) {
	body := raw
	if IsChunked(h) {
		decoded, err := chunked.Decode(body)
		if err != nil {
			return nil, fmt.Errorf("decode chunked body: %w", err)
		}
		body = decoded
	}

	codings := splitList(h.Values("Content-Encoding"))
	for i := len(codings) - 1; i >= 0; i-- {
		decoded, err := decodeContent(codings[i], body, maxBytes)
		if err != nil {
			return nil, fmt.Errorf("content-encoding %s: %w", codings[i], err)
		}
		body = decoded
	}
	if maxBytes > 0 && int64(len(body)) > maxBytes {
		return nil, ErrBodyTooLarge
	}

	return toUTF8(body, h.Get("Content-Type"))
}

// ParseHTTP prepares raw with the response headers and parses the result.
// opts.Chunked is ignored; Transfer-Encoding decides.
func ParseHTTP(raw []byte, h http.Header, opts Options) (*dom.Tree, error) {
	body, err := PrepareBody(raw, h, opts.MaxBodyBytes)
	if err != nil {
		return nil, err
	}
	opts.Chunked = false
	return Parse(body, opts)
}

func decodeContent(coding string, body []byte, maxBytes int64) ([]byte, error) {
	var r io.Reader
	switch coding {
	case "", "identity":
		return body, nil
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		r = zr
	case "deflate":
		// Servers disagree on whether deflate carries a zlib header.
		zr, err := zlib.NewReader(bytes.NewReader(body))
		if err != nil {
			r = flate.NewReader(bytes.NewReader(body))
		} else {
			defer zr.Close()
			r = zr
		}
	case "br":
		r = brotli.NewReader(bytes.NewReader(body))
	default:
		return nil, ErrUnsupportedEncoding
	}

	if maxBytes > 0 {
		r = io.LimitReader(r, maxBytes+1)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if maxBytes > 0 && int64(len(out)) > maxBytes {
		return nil, ErrBodyTooLarge
	}
	return out, nil
}

func toUTF8(body []byte, contentType string) ([]byte, error) {
	enc, name, _ := charset.DetermineEncoding(body, contentType)
	if enc == encoding.Nop || name == "utf-8" || !hasHighBit(body) {
		return body, nil
	}
	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return nil, fmt.Errorf("transcode %s: %w", name, err)
	}
	return out, nil
}

func hasHighBit(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return true
		}
	}
	return false
}

// splitList flattens comma-separated header values into lower-case tokens.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
