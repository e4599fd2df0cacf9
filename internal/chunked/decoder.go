// Package chunked decodes HTTP/1.1 chunked transfer-encoded bodies.
package chunked

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedSize    = errors.New("malformed chunk size")
	ErrTruncatedChunk   = errors.New("chunk size exceeds remaining input")
	ErrMissingCRLF      = errors.New("missing CRLF")
	ErrMissingLastChunk = errors.New("body ends before terminating chunk")
)

// maxSizeDigits bounds the hex size field so it cannot overflow an int64.
const maxSizeDigits = 15

// DecodeError reports where in the encoded body decoding failed.
type DecodeError struct {
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("chunked: %s at offset %d", e.Err, e.Offset)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode returns the concatenated chunk payloads of body. body must start at
// the first chunk-size line. Anything after the zero-size chunk is ignored.
func Decode(body []byte) ([]byte, error) {
	out := make([]byte, 0, len(body))
	pos := 0
	for {
		if pos >= len(body) {
			return nil, &DecodeError{Offset: pos, Err: ErrMissingLastChunk}
		}
		size, next, err := readSizeLine(body, pos)
		if err != nil {
			return nil, err
		}
		if size == 0 {
			return out, nil
		}
		pos = next
		if size > int64(len(body)-pos) {
			return nil, &DecodeError{Offset: pos, Err: ErrTruncatedChunk}
		}
		n := int(size)
		out = append(out, body[pos:pos+n]...)
		pos += n
		if !hasCRLF(body, pos) {
			return nil, &DecodeError{Offset: pos, Err: ErrMissingCRLF}
		}
		pos += 2
	}
}

// readSizeLine parses "HEX[;ext]\r\n" starting at pos and returns the size and
// the offset of the first payload byte.
func readSizeLine(body []byte, pos int) (size int64, next int, err error) {
	start := pos
	// Leading zeros do not count toward maxSizeDigits.
	digits := 0
	for pos < len(body) {
		d, ok := unhex(body[pos])
		if !ok {
			break
		}
		if size > 0 || d > 0 {
			if digits == maxSizeDigits {
				return 0, 0, &DecodeError{Offset: pos, Err: ErrMalformedSize}
			}
			digits++
		}
		size = size<<4 | int64(d)
		pos++
	}
	if pos == start {
		if pos >= len(body) {
			return 0, 0, &DecodeError{Offset: pos, Err: ErrMissingLastChunk}
		}
		return 0, 0, &DecodeError{Offset: pos, Err: ErrMalformedSize}
	}

	if pos < len(body) && body[pos] == ';' {
		for pos < len(body) && body[pos] != '\r' && body[pos] != '\n' {
			pos++
		}
	}
	if pos < len(body) && body[pos] != '\r' && body[pos] != '\n' {
		return 0, 0, &DecodeError{Offset: pos, Err: ErrMalformedSize}
	}
	if !hasCRLF(body, pos) {
		return 0, 0, &DecodeError{Offset: pos, Err: ErrMissingCRLF}
	}
	return size, pos + 2, nil
}

func hasCRLF(body []byte, pos int) bool {
	return pos+1 < len(body) && body[pos] == '\r' && body[pos+1] == '\n'
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
