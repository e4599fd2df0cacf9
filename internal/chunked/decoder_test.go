package chunked

import (
	"bytes"
	"errors"
	"testing"
)

func TestDecode_SingleChunk(t *testing.T) {
	out, err := Decode([]byte("4\r\nWiki\r\n0\r\n\r\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != "Wiki" {
		t.Errorf("expected %q, got %q", "Wiki", out)
	}
	if len(out) != 4 {
		t.Errorf("expected length 4, got %d", len(out))
	}
}

func TestDecode_MultipleChunks(t *testing.T) {
	body := "4\r\nWiki\r\n5\r\npedia\r\nE\r\n in\r\n\r\nchunks.\r\n0\r\n\r\n"
	out, err := Decode([]byte(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Wikipedia in\r\n\r\nchunks."
	if string(out) != want {
		t.Errorf("expected %q, got %q", want, out)
	}
}

func TestDecode_UppercaseHexAndExtensions(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 26)
	body := append([]byte("1A;name=value\r\n"), payload...)
	body = append(body, "\r\n0\r\n\r\n"...)
	out, err := Decode(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(out, payload) {
		t.Errorf("expected %d x bytes, got %q", len(payload), out)
	}
}

func TestDecode_LeadingZerosInSize(t *testing.T) {
	body := "0000000000000004\r\nWiki\r\n" + "00000000000000000000\r\n\r\n"
	out, err := Decode([]byte(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != "Wiki" {
		t.Errorf("expected %q, got %q", "Wiki", out)
	}

	_, err = Decode([]byte("00001000000000000000\r\n"))
	var de *DecodeError
	if !errors.As(err, &de) || !errors.Is(err, ErrMalformedSize) {
		t.Fatalf("expected ErrMalformedSize, got %v", err)
	}
	if de.Offset != 19 {
		t.Errorf("expected offset 19, got %d", de.Offset)
	}
}

func TestDecode_TrailersIgnored(t *testing.T) {
	out, err := Decode([]byte("3\r\nabc\r\n0\r\nExpires: never\r\n\r\ngarbage"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != "abc" {
		t.Errorf("expected %q, got %q", "abc", out)
	}
}

func TestDecode_EmptyBodyWithOnlyLastChunk(t *testing.T) {
	out, err := Decode([]byte("0\r\n\r\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected empty output, got %q", out)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		want   error
		offset int
	}{
		{"non-hex size", "zz\r\nab\r\n0\r\n\r\n", ErrMalformedSize, 0},
		{"space after size", "4 \r\nWiki\r\n0\r\n\r\n", ErrMalformedSize, 1},
		{"size overflow", "1000000000000000\r\n", ErrMalformedSize, 15},
		{"size exceeds input", "ff\r\nabc", ErrTruncatedChunk, 4},
		{"bare LF after size", "4\nWiki\r\n0\r\n\r\n", ErrMissingCRLF, 1},
		{"size line at end", "4", ErrMissingCRLF, 1},
		{"payload not followed by CRLF", "4\r\nWikiX\r\n0\r\n\r\n", ErrMissingCRLF, 7},
		{"payload ends at input end", "4\r\nWiki", ErrMissingCRLF, 7},
		{"no terminating chunk", "4\r\nWiki\r\n", ErrMissingLastChunk, 9},
		{"empty input", "", ErrMissingLastChunk, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Decode([]byte(tc.body))
			if err == nil {
				t.Fatalf("expected error, got output %q", out)
			}
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("expected *DecodeError, got %T", err)
			}
			if de.Offset != tc.offset {
				t.Errorf("expected offset %d, got %d", tc.offset, de.Offset)
			}
			if out != nil {
				t.Errorf("expected nil output on failure, got %q", out)
			}
		})
	}
}

// The input slice is capped at its length so any read past the end panics.
// Bytes after the cap hold a sentinel that must never reach the output.
func TestDecode_OversizedChunkStaysInBounds(t *testing.T) {
	backing := []byte("ff\r\nabcSENTINEL")
	body := backing[:7:7]

	var out []byte
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("decoder read out of bounds: %v", r)
			}
		}()
		out, err = Decode(body)
	}()

	if !errors.Is(err, ErrTruncatedChunk) {
		t.Fatalf("expected ErrTruncatedChunk, got %v", err)
	}
	if bytes.Contains(out, []byte("SENTINEL")) {
		t.Errorf("output contains bytes beyond input: %q", out)
	}
}

func TestDecode_CappedInputForEveryPrefix(t *testing.T) {
	full := []byte("4\r\nWiki\r\n5\r\npedia\r\n0\r\n\r\n")
	for n := 0; n < len(full)-2; n++ {
		body := append([]byte(nil), full[:n]...)
		body = body[:n:n]
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("prefix %d: decoder panicked: %v", n, r)
				}
			}()
			if _, err := Decode(body); err == nil {
				t.Errorf("prefix %d (%q): expected error", n, body)
			}
		}()
	}
}
